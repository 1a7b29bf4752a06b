// Package ocr recognizes text on rendered page images through Tesseract.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // decoders for RecognizeBytes
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// DefaultLanguages covers the scripts this tool translates most.
const DefaultLanguages = "eng+chi_sim+chi_tra+jpn+kor"

// Word is one recognized word with its pixel box and confidence (0..1).
type Word struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	BBox       [4]int  `json:"bbox"`
}

// Result holds the recognition output for one image.
type Result struct {
	Text       string  `json:"text"`
	Words      []Word  `json:"words,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Options configure an Engine.
type Options struct {
	// Languages are traineddata names, e.g. ["eng", "chi_sim"].
	Languages []string
	// DPI is the density hint passed to Tesseract. Zero lets Tesseract guess.
	DPI int
	// TessdataPrefix overrides the traineddata directory when set.
	TessdataPrefix string
	// PageSegMode selects Tesseract's layout analysis (1..13, see the
	// tesseract --help-psm list). Zero keeps the engine default.
	PageSegMode int
	// Preprocess enables the image cleanup pass before recognition.
	Preprocess bool
}

// Engine wraps gosseract. Safe for sequential use; every recognition runs
// on a fresh client.
type Engine struct {
	languages      []string
	dpi            int
	tessdataPrefix string
	pageSegMode    int
	preprocess     bool
	clientFactory  func() *gosseract.Client
}

func New(opts Options) *Engine {
	langs := opts.Languages
	if len(langs) == 0 {
		langs = ParseLanguages(DefaultLanguages)
	}
	return &Engine{
		languages:      langs,
		dpi:            opts.DPI,
		tessdataPrefix: opts.TessdataPrefix,
		pageSegMode:    opts.PageSegMode,
		preprocess:     opts.Preprocess,
		clientFactory:  gosseract.NewClient,
	}
}

// ParseLanguages splits a Tesseract language spec like "eng+chi_sim".
func ParseLanguages(spec string) []string {
	var langs []string
	for _, l := range strings.Split(spec, "+") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	return langs
}

// Available reports whether Tesseract and the requested language packs are
// usable.
func (e *Engine) Available() error {
	installed, err := gosseract.GetAvailableLanguages()
	if err != nil {
		return fmt.Errorf("tesseract not available: %w", err)
	}
	have := make(map[string]bool, len(installed))
	for _, l := range installed {
		have[l] = true
	}
	for _, l := range e.languages {
		if !have[l] {
			return fmt.Errorf("language pack %q not installed (installed: %s)", l, strings.Join(installed, ", "))
		}
	}
	return nil
}

// Recognize returns the plain text found on img.
func (e *Engine) Recognize(ctx context.Context, img image.Image) (string, error) {
	res, err := e.run(ctx, img, false)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// RecognizeWithBoxes returns text plus word boxes and confidences.
func (e *Engine) RecognizeWithBoxes(ctx context.Context, img image.Image) (*Result, error) {
	return e.run(ctx, img, true)
}

// RecognizeBytes decodes an image file (PNG or JPEG) and recognizes it.
func (e *Engine) RecognizeBytes(ctx context.Context, data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}
	return e.Recognize(ctx, img)
}

func (e *Engine) run(ctx context.Context, img image.Image, boxes bool) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if e.preprocess {
		img = Preprocess(img)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	c := e.clientFactory()
	defer c.Close()

	if e.tessdataPrefix != "" {
		if err := c.SetTessdataPrefix(e.tessdataPrefix); err != nil {
			return nil, fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if err := c.SetLanguage(e.languages...); err != nil {
		return nil, fmt.Errorf("set languages: %w", err)
	}
	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	if e.dpi > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(e.dpi)); err != nil {
			return nil, fmt.Errorf("set dpi: %w", err)
		}
	}
	if e.pageSegMode > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(e.pageSegMode)); err != nil {
			return nil, fmt.Errorf("set page segmentation mode: %w", err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}

	res := &Result{Text: strings.TrimSpace(text)}
	if boxes {
		res.Words, res.Confidence = extractWords(c)
	}
	return res, nil
}

func extractWords(c *gosseract.Client) ([]Word, float64) {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return nil, 0
	}

	words := make([]Word, 0, len(boxes))
	var sum float64
	for _, b := range boxes {
		conf := b.Confidence / 100.0
		sum += conf
		words = append(words, Word{
			Text:       b.Word,
			Confidence: conf,
			BBox:       [4]int{b.Box.Min.X, b.Box.Min.Y, b.Box.Max.X, b.Box.Max.Y},
		})
	}
	return words, sum / float64(len(words))
}
