package processor

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"codeberg.org/snonux/pdfbabel/internal/apperrors"
	"codeberg.org/snonux/pdfbabel/internal/bilingual"
	"codeberg.org/snonux/pdfbabel/internal/testutil"
	"codeberg.org/snonux/pdfbabel/internal/translation"
)

// downRecognizer simulates a missing OCR installation.
type downRecognizer struct{}

func (downRecognizer) Recognize(context.Context, image.Image) (string, error) {
	return "", errors.New("no engine")
}

func (downRecognizer) Available() error { return errors.New("tesseract missing") }

// newTestProcessor wires mocks around the real service and renderer.
func newTestProcessor(opts *Options, recognizer Recognizer) *Processor {
	if opts.SourceLang == "" {
		opts.SourceLang = "en"
	}
	if opts.TargetLang == "" {
		opts.TargetLang = "es"
	}
	if opts.Layout == "" {
		opts.Layout = bilingual.LayoutSideBySide
	}
	if opts.Format == "" {
		opts.Format = FormatText
	}
	if opts.DPI == 0 {
		opts.DPI = 72
	}
	if recognizer == nil {
		recognizer = &testutil.MockRecognizer{}
	}
	return &Processor{
		options:    opts,
		translator: translation.NewService(&testutil.MockProvider{}, nil),
		recognizer: recognizer,
	}
}

func TestNew(t *testing.T) {
	p, err := New(&Options{
		Provider:   "google",
		TargetLang: "es",
		OutputDir:  t.TempDir(),
		NoCache:    true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	if p.translator == nil {
		t.Error("Translator not initialized")
	}
	if p.recognizer == nil {
		t.Error("Recognizer not initialized")
	}
	if p.options.Layout != bilingual.LayoutSideBySide {
		t.Errorf("Layout = %q, want default %q", p.options.Layout, bilingual.LayoutSideBySide)
	}
	if p.options.Format != FormatPDF {
		t.Errorf("Format = %q, want default %q", p.options.Format, FormatPDF)
	}
	if p.options.SourceLang != "" {
		t.Errorf("SourceLang = %q, want auto via empty", p.options.SourceLang)
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		opts    *Options
		wantErr string
	}{
		{
			name:    "unknown target language",
			opts:    &Options{Provider: "google", TargetLang: "xx"},
			wantErr: "unknown target language: xx",
		},
		{
			name:    "unknown source language",
			opts:    &Options{Provider: "google", SourceLang: "klingon", TargetLang: "es"},
			wantErr: "unknown source language: klingon",
		},
		{
			name:    "unknown layout",
			opts:    &Options{Provider: "google", TargetLang: "es", Layout: "fancy"},
			wantErr: "unsupported layout: fancy",
		},
		{
			name:    "unknown format",
			opts:    &Options{Provider: "google", TargetLang: "es", Format: "docx"},
			wantErr: "unsupported format: docx",
		},
		{
			name:    "unknown provider",
			opts:    &Options{Provider: "babelfish", TargetLang: "es"},
			wantErr: "unknown translation provider",
		},
		{
			name:    "openrouter without key",
			opts:    &Options{Provider: "openrouter", TargetLang: "es"},
			wantErr: "OpenRouter API key is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OPENROUTER_API_KEY", "")
			t.Setenv("GEMINI_API_KEY", "")

			tt.opts.NoCache = true
			_, err := New(tt.opts)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
			if kind, ok := apperrors.KindOf(err); !ok || kind != apperrors.KindValidation {
				t.Errorf("error kind = %v, want validation", kind)
			}
		})
	}
}

func TestNew_APIKeyOverride(t *testing.T) {
	p, err := New(&Options{
		Provider:   "openrouter",
		APIKey:     "sk-test",
		TargetLang: "ja",
		NoCache:    true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	if !strings.Contains(p.translator.Name(), "openrouter") {
		t.Errorf("provider chain = %q, want openrouter primary", p.translator.Name())
	}
}

func TestTranslatePDF_TextFormat(t *testing.T) {
	input := testutil.FixturePDF(t, "Hello world.", "Second page.")
	output := filepath.Join(t.TempDir(), "out.txt")

	p := newTestProcessor(&Options{Format: FormatText}, nil)

	res, err := p.TranslatePDF(context.Background(), input, output)
	if err != nil {
		t.Fatalf("TranslatePDF: %v", err)
	}

	if res.PageCount != 2 {
		t.Errorf("PageCount = %d, want 2", res.PageCount)
	}
	if res.Provider != "mock" {
		t.Errorf("Provider = %q, want mock", res.Provider)
	}
	if res.OCRUsed {
		t.Error("OCRUsed should be false for a text document")
	}
	if res.OutputPath != output {
		t.Errorf("OutputPath = %q, want %q", res.OutputPath, output)
	}
	if !strings.Contains(res.Text, "mock translation of") {
		t.Errorf("Text = %q, want mock translations", res.Text)
	}
	if !strings.Contains(res.Text, "\n\n---\n\n") {
		t.Error("Text should separate pages with the page marker")
	}
	testutil.AssertFileContains(t, output, "mock translation of")
}

func TestTranslatePDF_PDFFormat(t *testing.T) {
	input := testutil.FixturePDF(t, "Hello world.", "Second page.")
	output := filepath.Join(t.TempDir(), "out.pdf")

	p := newTestProcessor(&Options{Format: FormatPDF}, nil)

	res, err := p.TranslatePDF(context.Background(), input, output)
	if err != nil {
		t.Fatalf("TranslatePDF: %v", err)
	}

	if res.Text != "" {
		t.Error("Text should be empty for PDF output")
	}
	count, err := api.PageCountFile(output)
	if err != nil {
		t.Fatalf("PageCountFile: %v", err)
	}
	if count != 2 {
		t.Errorf("output has %d pages, want 2", count)
	}
}

func TestTranslatePDF_ForceOCR(t *testing.T) {
	input := testutil.FixturePDF(t, "printed one", "printed two")
	output := filepath.Join(t.TempDir(), "out.txt")

	recognizer := &testutil.MockRecognizer{Texts: []string{"ocr page one", "ocr page two"}}
	p := newTestProcessor(&Options{Format: FormatText, ForceOCR: true}, recognizer)

	res, err := p.TranslatePDF(context.Background(), input, output)
	if err != nil {
		t.Fatalf("TranslatePDF: %v", err)
	}

	if !res.OCRUsed {
		t.Error("OCRUsed should be true when OCR is forced")
	}
	if recognizer.Calls != 2 {
		t.Errorf("Recognize called %d times, want 2", recognizer.Calls)
	}
	want := "mock translation of ocr page one\n\n---\n\nmock translation of ocr page two"
	if res.Text != want {
		t.Errorf("Text = %q, want %q", res.Text, want)
	}
}

func TestTranslatePDF_OCRUnavailableKeepsText(t *testing.T) {
	input := testutil.FixturePDF(t, "Hello world.")
	output := filepath.Join(t.TempDir(), "out.txt")

	p := newTestProcessor(&Options{Format: FormatText, ForceOCR: true}, downRecognizer{})

	res, err := p.TranslatePDF(context.Background(), input, output)
	if err != nil {
		t.Fatalf("TranslatePDF: %v", err)
	}
	if res.OCRUsed {
		t.Error("OCRUsed should be false when the engine is unavailable")
	}
	if !strings.Contains(res.Text, "mock translation of") {
		t.Errorf("Text = %q, want extracted text translated", res.Text)
	}
}

func TestTranslatePDF_DefaultOutputPath(t *testing.T) {
	input := testutil.FixturePDF(t, "Hello world.")
	outDir := t.TempDir()

	p := newTestProcessor(&Options{Format: FormatText, OutputDir: outDir}, nil)

	res, err := p.TranslatePDF(context.Background(), input, "")
	if err != nil {
		t.Fatalf("TranslatePDF: %v", err)
	}

	want := filepath.Join(outDir, "fixture_bilingual.txt")
	if res.OutputPath != want {
		t.Errorf("OutputPath = %q, want %q", res.OutputPath, want)
	}
	testutil.AssertNonEmptyFile(t, want)
}

func TestTranslatePDF_MaxPages(t *testing.T) {
	input := testutil.FixturePDF(t, "one", "two", "three")
	output := filepath.Join(t.TempDir(), "out.txt")

	p := newTestProcessor(&Options{Format: FormatText, MaxPages: 2}, nil)

	res, err := p.TranslatePDF(context.Background(), input, output)
	if err != nil {
		t.Fatalf("TranslatePDF: %v", err)
	}
	if res.PageCount != 2 {
		t.Errorf("PageCount = %d, want 2", res.PageCount)
	}
}

func TestTranslatePDF_MissingInput(t *testing.T) {
	p := newTestProcessor(&Options{}, nil)

	_, err := p.TranslatePDF(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"), "")
	if err == nil {
		t.Fatal("expected error for missing input")
	}
}

func TestTranslatePDF_CancelledContext(t *testing.T) {
	input := testutil.FixturePDF(t, "Hello world.")

	p := newTestProcessor(&Options{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.TranslatePDF(ctx, input, ""); err == nil {
		t.Fatal("expected context error")
	}
}

func TestExtractPDF(t *testing.T) {
	input := testutil.FixturePDF(t, "The quick brown fox.", "Second page here.")

	p := newTestProcessor(&Options{}, nil)

	res, err := p.ExtractPDF(context.Background(), input, false)
	if err != nil {
		t.Fatalf("ExtractPDF: %v", err)
	}

	if res.PageCount != 2 {
		t.Fatalf("PageCount = %d, want 2", res.PageCount)
	}
	if res.Pages[0].Number != 1 || res.Pages[1].Number != 2 {
		t.Errorf("page numbers = %d, %d", res.Pages[0].Number, res.Pages[1].Number)
	}
	if !strings.Contains(res.Pages[0].Text, "quick brown fox") {
		t.Errorf("page 1 text = %q", res.Pages[0].Text)
	}
	if res.ImageDir != "" {
		t.Errorf("ImageDir = %q, want empty without image extraction", res.ImageDir)
	}

	full := res.FullText()
	if !strings.Contains(full, "quick brown fox") || !strings.Contains(full, PageBreak) {
		t.Errorf("FullText = %q, want both pages joined by the separator", full)
	}
}

func TestExtractPDF_WithImages(t *testing.T) {
	input := testutil.FixturePDF(t, "text only")

	p := newTestProcessor(&Options{OutputDir: t.TempDir()}, nil)

	res, err := p.ExtractPDF(context.Background(), input, true)
	if err != nil {
		t.Fatalf("ExtractPDF: %v", err)
	}
	if res.ImageDir == "" {
		t.Error("ImageDir should be set after image extraction")
	}
	if res.Pages[0].ImageCount != 0 {
		t.Errorf("ImageCount = %d, want 0 for text-only fixture", res.Pages[0].ImageCount)
	}
}

func TestOCRFile_PDF(t *testing.T) {
	input := testutil.FixturePDF(t, "scan one", "scan two")

	recognizer := &testutil.MockRecognizer{Texts: []string{"page one text", "page two text"}}
	p := newTestProcessor(&Options{}, recognizer)

	res, err := p.OCRFile(context.Background(), input)
	if err != nil {
		t.Fatalf("OCRFile: %v", err)
	}

	if res.PageCount != 2 {
		t.Errorf("PageCount = %d, want 2", res.PageCount)
	}
	want := []string{"page one text", "page two text"}
	for i, text := range want {
		if res.Pages[i] != text {
			t.Errorf("page %d = %q, want %q", i+1, res.Pages[i], text)
		}
	}
	if got := res.FullText(); got != "page one text"+PageBreak+"page two text" {
		t.Errorf("FullText = %q", got)
	}
}

func TestOCRFile_Image(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.png")
	writeTestPNG(t, path)

	p := newTestProcessor(&Options{}, nil)

	res, err := p.OCRFile(context.Background(), path)
	if err != nil {
		t.Fatalf("OCRFile: %v", err)
	}
	if res.PageCount != 1 {
		t.Errorf("PageCount = %d, want 1", res.PageCount)
	}
	if res.Pages[0] != "mock ocr text" {
		t.Errorf("Pages[0] = %q", res.Pages[0])
	}
}

func TestOCRFile_RespectsMaxPages(t *testing.T) {
	input := testutil.FixturePDF(t, "one", "two", "three")

	recognizer := &testutil.MockRecognizer{}
	p := newTestProcessor(&Options{MaxPages: 1}, recognizer)

	res, err := p.OCRFile(context.Background(), input)
	if err != nil {
		t.Fatalf("OCRFile: %v", err)
	}
	if res.PageCount != 1 {
		t.Errorf("PageCount = %d, want 1", res.PageCount)
	}
	if recognizer.Calls != 1 {
		t.Errorf("Recognize called %d times, want 1", recognizer.Calls)
	}
}

func TestOCRFile_EngineUnavailable(t *testing.T) {
	input := testutil.FixturePDF(t, "scan")

	p := newTestProcessor(&Options{}, downRecognizer{})

	if _, err := p.OCRFile(context.Background(), input); err == nil {
		t.Fatal("expected error when the engine is unavailable")
	}
}

func TestInfo(t *testing.T) {
	input := testutil.FixturePDF(t,
		"This page carries plenty of selectable text so the scan heuristic stays quiet.",
	)

	p := newTestProcessor(&Options{}, nil)

	res, err := p.Info(context.Background(), input)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if res.PageCount != 1 {
		t.Errorf("PageCount = %d, want 1", res.PageCount)
	}
	if res.Scanned {
		t.Error("text fixture detected as scanned")
	}
	if res.Path != input {
		t.Errorf("Path = %q", res.Path)
	}
}

func TestDefaultOutputPathByFormat(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{FormatPDF, "report_bilingual.pdf"},
		{FormatText, "report_bilingual.txt"},
	}

	for _, tt := range tests {
		p := newTestProcessor(&Options{Format: tt.format, OutputDir: "out"}, nil)
		got := p.defaultOutputPath("/docs/report.pdf")
		if got != filepath.Join("out", tt.want) {
			t.Errorf("defaultOutputPath(%s) = %q, want %q", tt.format, got, filepath.Join("out", tt.want))
		}
	}
}

func writeTestPNG(t *testing.T, path string) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create test image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
}
