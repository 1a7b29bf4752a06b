package processor

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // decoders for OCRImage
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp" // scanner formats OCRImage accepts
	_ "golang.org/x/image/tiff"

	"codeberg.org/snonux/pdfbabel/internal/apperrors"
	"codeberg.org/snonux/pdfbabel/internal/bilingual"
	"codeberg.org/snonux/pdfbabel/internal/config"
	"codeberg.org/snonux/pdfbabel/internal/language"
	"codeberg.org/snonux/pdfbabel/internal/logger"
	"codeberg.org/snonux/pdfbabel/internal/ocr"
	"codeberg.org/snonux/pdfbabel/internal/pdf"
	"codeberg.org/snonux/pdfbabel/internal/translation"
)

// Output formats for translated documents.
const (
	FormatPDF  = "pdf"
	FormatText = "text"
)

// PageBreak separates pages in joined OCR text.
const PageBreak = "\n\n--- Page Break ---\n\n"

// Recognizer is the OCR surface the pipeline needs from an engine.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
	Available() error
}

// Options configure a Processor. Zero values fall back to the loaded
// configuration.
type Options struct {
	SourceLang   string
	TargetLang   string
	Provider     string
	APIKey       string // overrides the stored key for the selected provider
	Model        string
	Layout       string
	Format       string
	OutputDir    string
	MaxPages     int
	DPI          int
	ForceOCR     bool
	OCRLanguages string
	PageSegMode  int
	Tessdata     string
	FontFile     string
	NoCache      bool
}

// Processor coordinates extraction, OCR, translation and rendering.
type Processor struct {
	options    *Options
	translator translation.Translator
	recognizer Recognizer
	cache      *translation.Cache
}

// New builds a Processor, filling unset options from the configuration and
// validating languages, layout and format. Validation failures carry the
// validation error kind so the web layer can map them to client errors.
func New(opts *Options) (*Processor, error) {
	if opts == nil {
		opts = &Options{}
	}
	fillDefaults(opts)

	if !language.IsValidSource(opts.SourceLang) {
		return nil, apperrors.Validation(fmt.Sprintf("unknown source language: %s", opts.SourceLang))
	}
	if !language.IsValidTarget(opts.TargetLang) {
		return nil, apperrors.Validation(fmt.Sprintf("unknown target language: %s", opts.TargetLang))
	}
	if !bilingual.ValidLayout(opts.Layout) {
		return nil, apperrors.Validation(fmt.Sprintf("unsupported layout: %s", opts.Layout))
	}
	if opts.Format != FormatPDF && opts.Format != FormatText {
		return nil, apperrors.Validation(fmt.Sprintf("unsupported format: %s", opts.Format))
	}

	provider, err := translation.ChainFor(providerConfig(opts))
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	var cache *translation.Cache
	if !opts.NoCache && config.CacheEnabled() {
		cache, err = translation.OpenCache(config.CachePath())
		if err != nil {
			logger.Warn("translation cache unavailable", "error", err)
			cache = nil
		}
	}

	recognizer := ocr.New(ocr.Options{
		Languages:      ocr.ParseLanguages(opts.OCRLanguages),
		DPI:            opts.DPI,
		TessdataPrefix: opts.Tessdata,
		PageSegMode:    opts.PageSegMode,
		Preprocess:     true,
	})

	return &Processor{
		options:    opts,
		translator: translation.NewService(provider, cache),
		recognizer: recognizer,
		cache:      cache,
	}, nil
}

// Close releases the translation cache.
func (p *Processor) Close() error {
	if p.cache != nil {
		return p.cache.Close()
	}
	return nil
}

func fillDefaults(opts *Options) {
	if opts.SourceLang == "" {
		opts.SourceLang = config.SourceLang()
	}
	if opts.TargetLang == "" {
		opts.TargetLang = config.TargetLang()
	}
	if opts.Provider == "" {
		opts.Provider = config.Provider()
	}
	if opts.Layout == "" {
		opts.Layout = bilingual.LayoutSideBySide
	}
	if opts.Format == "" {
		opts.Format = FormatPDF
	}
	if opts.OutputDir == "" {
		opts.OutputDir = config.OutputDir()
	}
	if opts.MaxPages == 0 {
		opts.MaxPages = config.MaxPages()
	}
	if opts.DPI == 0 {
		opts.DPI = config.DPI()
	}
	if opts.OCRLanguages == "" {
		opts.OCRLanguages = config.OCRLanguages()
	}
	if opts.PageSegMode == 0 {
		opts.PageSegMode = config.PageSegMode()
	}
	if opts.Tessdata == "" {
		opts.Tessdata = config.TessdataPrefix()
	}
	if opts.FontFile == "" {
		opts.FontFile = config.FontFile()
	}
}

func providerConfig(opts *Options) *translation.Config {
	cfg := translation.DefaultProviderConfig()
	cfg.Provider = opts.Provider
	cfg.OpenRouterKey = config.OpenRouterKey()
	cfg.GeminiKey = config.GeminiKey()
	if opts.Model != "" {
		cfg.OpenRouterModel = opts.Model
		cfg.GeminiModel = opts.Model
	} else {
		if m := config.OpenRouterModel(); m != "" {
			cfg.OpenRouterModel = m
		}
		if m := config.GeminiModel(); m != "" {
			cfg.GeminiModel = m
		}
	}
	if opts.APIKey != "" {
		switch opts.Provider {
		case "openrouter":
			cfg.OpenRouterKey = opts.APIKey
		case "gemini":
			cfg.GeminiKey = opts.APIKey
		}
	}
	return cfg
}

// TranslateResult reports one completed translation run.
type TranslateResult struct {
	InputPath  string `json:"input_path"`
	OutputPath string `json:"output_path"`
	PageCount  int    `json:"page_count"`
	Provider   string `json:"provider"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	Text       string `json:"text,omitempty"`
	OCRUsed    bool   `json:"ocr_used"`
}

// TranslatePDF runs the full pipeline on inputPath: extract text, OCR when
// the document is scanned or OCR is forced, translate every page and render
// the bilingual output. An empty outputPath derives one from the input name
// and the output directory.
func (p *Processor) TranslatePDF(ctx context.Context, inputPath, outputPath string) (*TranslateResult, error) {
	extractor, err := pdf.Open(inputPath)
	if err != nil {
		return nil, err
	}
	defer extractor.Close()

	pages, err := extractor.ExtractText(ctx, p.options.MaxPages)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%s contains no pages", inputPath)
	}

	ocrUsed, err := p.recognizePages(ctx, extractor, pages)
	if err != nil {
		return nil, err
	}

	gen := bilingual.NewGenerator(&bilingual.Options{
		Layout:     p.options.Layout,
		FontFile:   p.options.FontFile,
		TargetLang: p.options.TargetLang,
	})

	for _, page := range pages {
		logger.Info("translating page", "page", page.Number, "total", len(pages))
		translated, err := p.translator.Translate(ctx, page.Text, p.options.SourceLang, p.options.TargetLang)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page.Number, err)
		}
		gen.AddPage(bilingual.PagePair{
			Number:     page.Number,
			Original:   page.Text,
			Translated: translated,
		})
	}

	if outputPath == "" {
		outputPath = p.defaultOutputPath(inputPath)
	}

	result := &TranslateResult{
		InputPath:  inputPath,
		OutputPath: outputPath,
		PageCount:  len(pages),
		Provider:   p.translator.Name(),
		SourceLang: p.options.SourceLang,
		TargetLang: p.options.TargetLang,
		OCRUsed:    ocrUsed,
	}

	if p.options.Format == FormatText {
		result.Text = gen.TextOutput()
		if err := writeTextFile(outputPath, result.Text); err != nil {
			return nil, err
		}
	} else {
		if err := gen.GeneratePDF(inputPath, outputPath); err != nil {
			return nil, err
		}
	}

	logger.Info("translation complete",
		"input", inputPath, "output", outputPath,
		"pages", result.PageCount, "provider", result.Provider)
	return result, nil
}

// recognizePages replaces extracted page text with OCR text when the
// document is scanned or OCR is forced. Per-page OCR failures keep the
// extracted text for that page.
func (p *Processor) recognizePages(ctx context.Context, extractor *pdf.Extractor, pages []pdf.Page) (bool, error) {
	useOCR := p.options.ForceOCR
	if !useOCR {
		scanned, err := extractor.IsScanned(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return false, err
			}
			logger.Warn("scan detection failed, assuming text layer", "error", err)
		}
		useOCR = scanned
	}
	if !useOCR {
		return false, nil
	}

	if err := p.recognizer.Available(); err != nil {
		logger.Warn("OCR unavailable, keeping extracted text", "error", err)
		return false, nil
	}

	for i := range pages {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		logger.Info("running OCR", "page", pages[i].Number, "total", len(pages))

		img, err := extractor.RenderPage(pages[i].Number, float64(p.options.DPI))
		if err != nil {
			logger.Warn("page render failed, keeping extracted text", "page", pages[i].Number, "error", err)
			continue
		}
		text, err := p.recognizer.Recognize(ctx, img)
		if err != nil {
			if ctx.Err() != nil {
				return false, err
			}
			logger.Warn("OCR failed, keeping extracted text", "page", pages[i].Number, "error", err)
			continue
		}
		if strings.TrimSpace(text) != "" {
			pages[i].Text = strings.TrimSpace(text)
		}
	}
	return true, nil
}

func (p *Processor) defaultOutputPath(inputPath string) string {
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	ext := ".pdf"
	if p.options.Format == FormatText {
		ext = ".txt"
	}
	return filepath.Join(p.options.OutputDir, stem+"_bilingual"+ext)
}

func writeTextFile(path, text string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write text output: %w", err)
	}
	return nil
}

// ExtractResult reports the pages pulled out of one document.
type ExtractResult struct {
	InputPath string     `json:"input_path"`
	PageCount int        `json:"page_count"`
	Pages     []pdf.Page `json:"pages"`
	ImageDir  string     `json:"image_dir,omitempty"`
}

// FullText joins the page texts with the page separator.
func (r *ExtractResult) FullText() string {
	texts := make([]string, len(r.Pages))
	for i, page := range r.Pages {
		texts[i] = page.Text
	}
	return strings.Join(texts, PageBreak)
}

// ExtractPDF extracts text and layout blocks, and with withImages also the
// embedded images into <output dir>/<stem>_images. Image extraction failures
// are logged, the text result still returns.
func (p *Processor) ExtractPDF(ctx context.Context, inputPath string, withImages bool) (*ExtractResult, error) {
	extractor, err := pdf.Open(inputPath)
	if err != nil {
		return nil, err
	}
	defer extractor.Close()

	pages, err := extractor.ExtractText(ctx, p.options.MaxPages)
	if err != nil {
		return nil, err
	}

	result := &ExtractResult{
		InputPath: inputPath,
		PageCount: len(pages),
		Pages:     pages,
	}

	if withImages {
		stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
		imageDir := filepath.Join(p.options.OutputDir, stem+"_images")
		byPage, err := extractor.ExtractImages(ctx, imageDir, nil)
		if err != nil {
			logger.Warn("image extraction failed", "file", inputPath, "error", err)
		} else {
			result.ImageDir = imageDir
			for i := range result.Pages {
				files := byPage[result.Pages[i].Number]
				result.Pages[i].Images = files
				result.Pages[i].ImageCount = len(files)
			}
		}
	}

	return result, nil
}

// OCRResult reports recognized text, one entry per page.
type OCRResult struct {
	InputPath string   `json:"input_path"`
	PageCount int      `json:"page_count"`
	Pages     []string `json:"pages"`
}

// FullText joins the recognized pages with the page break marker.
func (r *OCRResult) FullText() string {
	return strings.Join(r.Pages, PageBreak)
}

// OCRFile recognizes text in a PDF or an image file, dispatching on the
// file extension.
func (p *Processor) OCRFile(ctx context.Context, inputPath string) (*OCRResult, error) {
	if strings.EqualFold(filepath.Ext(inputPath), ".pdf") {
		return p.OCRPDF(ctx, inputPath)
	}
	return p.OCRImage(ctx, inputPath)
}

// OCRPDF renders every page and runs OCR over each. Unlike the translation
// pipeline, recognition failures abort here since OCR is the whole job.
func (p *Processor) OCRPDF(ctx context.Context, inputPath string) (*OCRResult, error) {
	if err := p.recognizer.Available(); err != nil {
		return nil, err
	}

	extractor, err := pdf.Open(inputPath)
	if err != nil {
		return nil, err
	}
	defer extractor.Close()

	total := extractor.PageCount()
	if p.options.MaxPages > 0 && p.options.MaxPages < total {
		total = p.options.MaxPages
	}

	result := &OCRResult{InputPath: inputPath, PageCount: total}
	for num := 1; num <= total; num++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logger.Info("running OCR", "page", num, "total", total)

		img, err := extractor.RenderPage(num, float64(p.options.DPI))
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", num, err)
		}
		text, err := p.recognizer.Recognize(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", num, err)
		}
		result.Pages = append(result.Pages, strings.TrimSpace(text))
	}
	return result, nil
}

// OCRImage recognizes text in a single image file.
func (p *Processor) OCRImage(ctx context.Context, inputPath string) (*OCRResult, error) {
	if err := p.recognizer.Available(); err != nil {
		return nil, err
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", inputPath, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", inputPath, err)
	}

	text, err := p.recognizer.Recognize(ctx, img)
	if err != nil {
		return nil, err
	}

	return &OCRResult{
		InputPath: inputPath,
		PageCount: 1,
		Pages:     []string{strings.TrimSpace(text)},
	}, nil
}

// InfoResult is document metadata plus the scan heuristic.
type InfoResult struct {
	*pdf.DocumentInfo
	Scanned bool `json:"scanned"`
}

// Info returns metadata for one document.
func (p *Processor) Info(ctx context.Context, inputPath string) (*InfoResult, error) {
	extractor, err := pdf.Open(inputPath)
	if err != nil {
		return nil, err
	}
	defer extractor.Close()

	info, err := extractor.Info()
	if err != nil {
		return nil, err
	}

	scanned, err := extractor.IsScanned(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		logger.Warn("scan detection failed", "file", inputPath, "error", err)
		scanned = false
	}

	return &InfoResult{DocumentInfo: info, Scanned: scanned}, nil
}
