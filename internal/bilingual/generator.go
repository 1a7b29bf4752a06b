// Package bilingual renders translated documents. Two layouts rebuild the
// document with fpdf, the overlay layout stamps translations onto a copy of
// the original file with pdfcpu, and TextOutput returns plain text.
package bilingual

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"codeberg.org/snonux/pdfbabel/internal/language"
	"codeberg.org/snonux/pdfbabel/internal/logger"
)

// Supported layout names.
const (
	LayoutSideBySide = "side_by_side"
	LayoutLineByLine = "line_by_line"
	LayoutOverlay    = "overlay"
)

// Page metrics in points, A4 portrait.
const (
	pageMargin = 50.0
	columnGap  = 20.0
	headerSize = 16.0
	bodySize   = 10.0
	lineHeight = 14.0
)

// pageSeparator joins translated pages in plain-text output.
const pageSeparator = "\n\n---\n\n"

// customFontFamily is the family name a configured TTF is registered under.
const customFontFamily = "custom"

// PagePair is one page of output: the extracted original text and its
// translation. Number is the 1-based page number from extraction.
type PagePair struct {
	Number     int
	Original   string
	Translated string
}

// Options configures the generator
type Options struct {
	Layout     string // side_by_side, line_by_line or overlay
	FontFile   string // Optional TTF file for non-Latin scripts
	TargetLang string // Translation target, decides the font warning
}

// DefaultOptions returns sensible defaults
func DefaultOptions() *Options {
	return &Options{
		Layout: LayoutSideBySide,
	}
}

// Generator renders collected page pairs into a bilingual document
type Generator struct {
	options *Options
	pages   []PagePair
}

// NewGenerator creates a new bilingual generator
func NewGenerator(options *Options) *Generator {
	if options == nil {
		options = DefaultOptions()
	}
	return &Generator{
		options: options,
		pages:   make([]PagePair, 0),
	}
}

// AddPage adds one original/translated pair to the document
func (g *Generator) AddPage(pair PagePair) {
	g.pages = append(g.pages, pair)
}

// Pages returns the collected page pairs
func (g *Generator) Pages() []PagePair {
	return g.pages
}

// Layouts lists the supported layout names.
func Layouts() []string {
	return []string{LayoutSideBySide, LayoutLineByLine, LayoutOverlay}
}

// ValidLayout reports whether name is a supported layout.
func ValidLayout(name string) bool {
	switch name {
	case LayoutSideBySide, LayoutLineByLine, LayoutOverlay:
		return true
	}
	return false
}

// GeneratePDF writes the bilingual document to outputPath. The overlay
// layout needs the path of the original PDF, the other layouts ignore it.
func (g *Generator) GeneratePDF(originalPath, outputPath string) error {
	if len(g.pages) == 0 {
		return fmt.Errorf("no pages to render")
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	fontFile := g.usableFontFile()
	if fontFile == "" && language.NeedsCJKFont(g.options.TargetLang) {
		logger.Warn("no font file configured for a CJK target, falling back to Helvetica",
			"target", g.options.TargetLang)
	}

	var err error
	switch g.options.Layout {
	case LayoutSideBySide:
		err = g.renderSideBySide(outputPath, fontFile)
	case LayoutLineByLine:
		err = g.renderLineByLine(outputPath, fontFile)
	case LayoutOverlay:
		if originalPath == "" {
			return fmt.Errorf("overlay layout requires the original PDF")
		}
		err = g.renderOverlay(originalPath, outputPath, fontFile)
	default:
		return fmt.Errorf("unsupported layout: %s", g.options.Layout)
	}
	if err != nil {
		return err
	}

	logger.Info("bilingual PDF generated",
		"layout", g.options.Layout,
		"path", outputPath,
		"pages", len(g.pages))
	return nil
}

// TextOutput returns the translated pages as plain text, joined with the
// page separator.
func (g *Generator) TextOutput() string {
	parts := make([]string, 0, len(g.pages))
	for _, pair := range g.pages {
		parts = append(parts, pair.Translated)
	}
	return strings.Join(parts, pageSeparator)
}

// usableFontFile returns the configured font file if it is readable,
// empty otherwise.
func (g *Generator) usableFontFile() string {
	if g.options.FontFile == "" {
		return ""
	}
	if _, err := os.Stat(g.options.FontFile); err != nil {
		logger.Warn("font file not readable, falling back to Helvetica",
			"font", g.options.FontFile, "error", err)
		return ""
	}
	return g.options.FontFile
}

// renderSideBySide lays out the original text in a left column and the
// translation in a right column, one document page per extracted page.
func (g *Generator) renderSideBySide(outputPath, fontFile string) error {
	doc, family, tr := newDoc(fontFile)
	pageWidth, _ := doc.GetPageSize()
	colWidth := (pageWidth - 2*pageMargin - columnGap) / 2

	for _, pair := range g.pages {
		doc.AddPage()
		writeHeader(doc, family, tr, pair.Number)

		doc.SetFont(family, "", bodySize)
		top := doc.GetY()
		doc.MultiCell(colWidth, lineHeight, tr(pair.Original), "", "L", false)
		bottom := doc.GetY()

		doc.SetXY(pageMargin+colWidth+columnGap, top)
		doc.SetTextColor(0, 0, 255)
		doc.MultiCell(colWidth, lineHeight, tr(pair.Translated), "", "L", false)
		doc.SetTextColor(0, 0, 0)
		if doc.GetY() < bottom {
			doc.SetY(bottom)
		}
	}

	if err := doc.OutputFileAndClose(outputPath); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// renderLineByLine writes an Original block followed by a Translation block
// for every page.
func (g *Generator) renderLineByLine(outputPath, fontFile string) error {
	doc, family, tr := newDoc(fontFile)

	for _, pair := range g.pages {
		doc.AddPage()
		writeHeader(doc, family, tr, pair.Number)

		doc.SetFont(family, "", bodySize)
		doc.CellFormat(0, lineHeight, tr("Original:"), "", 1, "L", false, 0, "")
		doc.MultiCell(0, lineHeight, tr(pair.Original), "", "L", false)
		doc.Ln(lineHeight)

		doc.SetTextColor(0, 0, 255)
		doc.CellFormat(0, lineHeight, tr("Translation:"), "", 1, "L", false, 0, "")
		doc.MultiCell(0, lineHeight, tr(pair.Translated), "", "L", false)
		doc.SetTextColor(0, 0, 0)
	}

	if err := doc.OutputFileAndClose(outputPath); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// newDoc creates an A4 portrait document. With a font file the text is
// written as UTF-8 through the registered font, otherwise it is mapped to
// the cp1252 repertoire of the built-in Helvetica.
func newDoc(fontFile string) (*fpdf.Fpdf, string, func(string) string) {
	doc := fpdf.New("P", "pt", "A4", "")
	doc.SetMargins(pageMargin, pageMargin, pageMargin)
	doc.SetAutoPageBreak(true, pageMargin)

	if fontFile != "" {
		doc.AddUTF8Font(customFontFamily, "", fontFile)
		return doc, customFontFamily, func(s string) string { return s }
	}
	return doc, "Helvetica", latin1
}

func writeHeader(doc *fpdf.Fpdf, family string, tr func(string) string, pageNum int) {
	doc.SetFont(family, "", headerSize)
	doc.CellFormat(0, headerSize+4, tr(fmt.Sprintf("Page %d", pageNum)), "", 1, "C", false, 0, "")
	doc.Ln(10)
}

// latin1 maps s into the code page of the built-in fonts. Runes outside it
// are replaced, the warning for that was already logged.
func latin1(s string) string {
	enc := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	out, err := enc.String(s)
	if err != nil {
		return s
	}
	return out
}
