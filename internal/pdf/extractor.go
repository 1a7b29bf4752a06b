// Package pdf extracts text, layout blocks and embedded images from PDF
// documents. Parsing and rendering are delegated to MuPDF (go-fitz), the
// pure-Go text layer reader (ledongthuc/pdf) and pdfcpu.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gen2brain/go-fitz"
	ledongthucpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"codeberg.org/snonux/pdfbabel/internal/apperrors"
	"codeberg.org/snonux/pdfbabel/internal/logger"
)

// Thresholds for the scanned-document heuristic.
const (
	scanSamplePages = 3
	scanMinChars    = 50
)

// TextBlock is one line of positioned text. BBox is [x0, y0, x1, y1] in PDF
// points with the origin at the bottom left.
type TextBlock struct {
	Text string     `json:"text"`
	BBox [4]float64 `json:"bbox"`
}

// Page holds everything extracted from a single page. Numbers are 1-based.
type Page struct {
	Number     int         `json:"page"`
	Text       string      `json:"text"`
	Blocks     []TextBlock `json:"blocks,omitempty"`
	Images     []string    `json:"images,omitempty"`
	ImageCount int         `json:"image_count"`
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
}

// DocumentInfo is the metadata projection shown by the info command.
type DocumentInfo struct {
	Path      string `json:"path"`
	PageCount int    `json:"page_count"`
	Title     string `json:"title,omitempty"`
	Author    string `json:"author,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Creator   string `json:"creator,omitempty"`
	Producer  string `json:"producer,omitempty"`
	Format    string `json:"format,omitempty"`
	Encrypted bool   `json:"encrypted"`
	SizeBytes int64  `json:"size_bytes"`
}

// Extractor reads one document. Not safe for concurrent use.
type Extractor struct {
	path   string
	doc    *fitz.Document
	reader *ledongthucpdf.Reader
	file   *os.File
}

// Open validates and opens a PDF document.
func Open(path string) (*Extractor, error) {
	if err := ValidateFile(path); err != nil {
		return nil, err
	}

	doc, err := fitz.New(path)
	if err != nil {
		if errors.Is(err, fitz.ErrNeedsPassword) {
			return nil, apperrors.Validation(fmt.Sprintf("%s is encrypted", path))
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if doc.NumPage() == 0 {
		doc.Close()
		return nil, fmt.Errorf("%s contains no pages", path)
	}

	e := &Extractor{path: path, doc: doc}

	// The text-layer reader is best effort. Some documents it cannot
	// parse still render and extract fine through MuPDF.
	file, reader, err := ledongthucpdf.Open(path)
	if err == nil {
		e.file = file
		e.reader = reader
	} else {
		logger.Debug("text layer reader unavailable, blocks degrade", "file", path, "error", err)
	}

	return e, nil
}

// OpenBytes opens a document held in memory. Embedded image extraction is
// not available for memory-backed documents; everything else behaves like
// Open.
func OpenBytes(data []byte) (*Extractor, error) {
	if err := ValidateBytes(data); err != nil {
		return nil, err
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		if errors.Is(err, fitz.ErrNeedsPassword) {
			return nil, apperrors.Validation("document is encrypted")
		}
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	if doc.NumPage() == 0 {
		doc.Close()
		return nil, fmt.Errorf("document contains no pages")
	}

	e := &Extractor{doc: doc}

	reader, err := ledongthucpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err == nil {
		e.reader = reader
	} else {
		logger.Debug("text layer reader unavailable, blocks degrade", "error", err)
	}

	return e, nil
}

func (e *Extractor) Close() error {
	if e.file != nil {
		e.file.Close()
	}
	return e.doc.Close()
}

// PageCount returns the number of pages in the document.
func (e *Extractor) PageCount() int {
	return e.doc.NumPage()
}

// ExtractText extracts plain text and positioned blocks for up to maxPages
// pages (0 means every page). Page order and numbering follow the document.
func (e *Extractor) ExtractText(ctx context.Context, maxPages int) ([]Page, error) {
	total := e.clampPages(maxPages)

	pages := make([]Page, 0, total)
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := e.extractPage(i)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		pages = append(pages, page)
	}
	return pages, nil
}

func (e *Extractor) extractPage(index int) (Page, error) {
	text, err := e.doc.Text(index)
	if err != nil {
		return Page{}, fmt.Errorf("text extraction failed: %w", err)
	}

	page := Page{
		Number: index + 1,
		Text:   strings.TrimSpace(text),
		Blocks: e.pageBlocks(index),
	}

	if bounds, err := e.doc.Bound(index); err == nil {
		page.Width = float64(bounds.Dx())
		page.Height = float64(bounds.Dy())
	}

	return page, nil
}

// pageBlocks reads positioned text rows for one 0-based page index. The
// text-layer parser panics on some malformed files, so failures degrade to
// a single zero-box block instead of aborting the document.
func (e *Extractor) pageBlocks(index int) (blocks []TextBlock) {
	if e.reader == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Debug("text layer parse failed", "page", index+1, "panic", fmt.Sprint(r))
			blocks = nil
		}
	}()

	p := e.reader.Page(index + 1)
	if p.V.IsNull() {
		return nil
	}
	rows, err := p.GetTextByRow()
	if err != nil {
		return nil
	}

	for _, row := range rows {
		if len(row.Content) == 0 {
			continue
		}
		var sb strings.Builder
		minX := row.Content[0].X
		maxX := row.Content[0].X + row.Content[0].W
		fontSize := 0.0
		for _, t := range row.Content {
			sb.WriteString(t.S)
			if t.X < minX {
				minX = t.X
			}
			if t.X+t.W > maxX {
				maxX = t.X + t.W
			}
			if t.FontSize > fontSize {
				fontSize = t.FontSize
			}
		}
		text := strings.TrimSpace(sb.String())
		if text == "" {
			continue
		}
		y := float64(row.Position)
		blocks = append(blocks, TextBlock{
			Text: text,
			BBox: [4]float64{minX, y - fontSize, maxX, y},
		})
	}
	return blocks
}

// RenderPage rasterizes one 1-based page at the given DPI for OCR.
func (e *Extractor) RenderPage(pageNum int, dpi float64) (image.Image, error) {
	if pageNum < 1 || pageNum > e.doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range (1..%d)", pageNum, e.doc.NumPage())
	}
	img, err := e.doc.ImageDPI(pageNum-1, dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", pageNum, err)
	}
	return img, nil
}

// ExtractImages writes embedded images for the selected pages (nil selects
// all) into outDir and returns the written paths keyed by page number.
func (e *Extractor) ExtractImages(ctx context.Context, outDir string, pages []int) (map[int][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.path == "" {
		return nil, fmt.Errorf("image extraction needs a file-backed document")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}

	var selected []string
	for _, p := range pages {
		selected = append(selected, strconv.Itoa(p))
	}

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractImagesFile(e.path, outDir, selected, conf); err != nil {
		return nil, fmt.Errorf("image extraction failed: %w", err)
	}

	return collectImageFiles(outDir, e.path)
}

// collectImageFiles maps extracted image files back to page numbers. pdfcpu
// names them <input-stem>_<page>_<resource>.<ext>.
func collectImageFiles(dir, inputPath string) (map[int][]string, error) {
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	prefix := stem + "_"

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	byPage := make(map[int][]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		rest := strings.TrimPrefix(entry.Name(), prefix)
		numEnd := strings.Index(rest, "_")
		if numEnd < 1 {
			continue
		}
		pageNum, err := strconv.Atoi(rest[:numEnd])
		if err != nil {
			continue
		}
		byPage[pageNum] = append(byPage[pageNum], filepath.Join(dir, entry.Name()))
	}
	return byPage, nil
}

// IsScanned samples up to three pages and reports whether the document
// looks like a scan: nearly no text layer but embedded page images.
func (e *Extractor) IsScanned(ctx context.Context) (bool, error) {
	sample := e.doc.NumPage()
	if sample > scanSamplePages {
		sample = scanSamplePages
	}

	textChars := 0
	for i := 0; i < sample; i++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		text, err := e.doc.Text(i)
		if err != nil {
			return false, fmt.Errorf("page %d: %w", i+1, err)
		}
		textChars += len(strings.TrimSpace(text))
		if textChars >= scanMinChars {
			return false, nil
		}
	}

	tmpDir, err := os.MkdirTemp("", "pdfbabel-scan-*")
	if err != nil {
		return false, err
	}
	defer os.RemoveAll(tmpDir)

	pages := make([]int, sample)
	for i := range pages {
		pages[i] = i + 1
	}
	byPage, err := e.ExtractImages(ctx, tmpDir, pages)
	if err != nil {
		logger.Warn("embedded image probe failed", "file", e.path, "error", err)
		return false, nil
	}
	return len(byPage) > 0, nil
}

// Info returns document metadata.
func (e *Extractor) Info() (*DocumentInfo, error) {
	meta := e.doc.Metadata()

	info := &DocumentInfo{
		Path:      e.path,
		PageCount: e.doc.NumPage(),
		Title:     meta["title"],
		Author:    meta["author"],
		Subject:   meta["subject"],
		Creator:   meta["creator"],
		Producer:  meta["producer"],
		Format:    meta["format"],
		Encrypted: meta["encryption"] != "" && !strings.EqualFold(meta["encryption"], "none"),
	}

	if st, err := os.Stat(e.path); err == nil {
		info.SizeBytes = st.Size()
	}

	// Cross-check the page count with pdfcpu. MuPDF wins on disagreement,
	// the mismatch is only worth a log line.
	if count, err := api.PageCountFile(e.path); err == nil && count != info.PageCount {
		logger.Warn("page count mismatch", "file", e.path, "mupdf", info.PageCount, "pdfcpu", count)
	}

	return info, nil
}

func (e *Extractor) clampPages(maxPages int) int {
	total := e.doc.NumPage()
	if maxPages > 0 && maxPages < total {
		return maxPages
	}
	return total
}
