package bilingual

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"codeberg.org/snonux/pdfbabel/internal/logger"
)

// Stamp band geometry: the translation sits in a band near the bottom of
// each page, so long texts are wrapped and capped.
const (
	overlayFontSize  = 8
	overlayOffsetY   = 40
	overlayLineChars = 100
	overlayMaxLines  = 10
)

// renderOverlay copies the original document and stamps each translated
// page onto it. The original file is never modified. Pages whose stamp
// cannot be built are skipped with a warning.
func (g *Generator) renderOverlay(originalPath, outputPath, fontFile string) error {
	if err := copyFile(originalPath, outputPath); err != nil {
		return fmt.Errorf("failed to copy original PDF: %w", err)
	}

	fontName := "Helvetica"
	if fontFile != "" {
		if err := api.InstallFonts([]string{fontFile}); err != nil {
			logger.Warn("font install failed, stamps fall back to Helvetica",
				"font", fontFile, "error", err)
		} else {
			fontName = strings.TrimSuffix(filepath.Base(fontFile), filepath.Ext(fontFile))
		}
	}

	desc := fmt.Sprintf("fontname:%s, points:%d, scalefactor:1 abs, pos:bc, off:0 %d, fillc:#0000FF, rot:0, op:1",
		fontName, overlayFontSize, overlayOffsetY)

	stamps := make(map[int]*model.Watermark, len(g.pages))
	for _, pair := range g.pages {
		text := stampText(pair.Translated)
		if text == "" {
			continue
		}
		wm, err := api.TextWatermark(text, desc, true, false, types.POINTS)
		if err != nil {
			logger.Warn("stamp skipped", "page", pair.Number, "error", err)
			continue
		}
		stamps[pair.Number] = wm
	}
	if len(stamps) == 0 {
		return nil
	}

	if err := api.AddWatermarksMapFile(outputPath, "", stamps, model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("failed to stamp translations: %w", err)
	}
	return nil
}

// stampText reshapes a translation so the stamp stays inside the band:
// lines wrapped to overlayLineChars runes, at most overlayMaxLines lines.
func stampText(text string) string {
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		lines = append(lines, wrapLine(raw, overlayLineChars)...)
	}
	if len(lines) > overlayMaxLines {
		lines = lines[:overlayMaxLines]
		lines[overlayMaxLines-1] += "..."
	}
	return strings.Join(lines, "\n")
}

// wrapLine word-wraps a single line to at most width runes. Words longer
// than a whole line are split, which also covers scripts without spaces.
func wrapLine(line string, width int) []string {
	var lines []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			lines = append(lines, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, word := range strings.Fields(line) {
		runes := []rune(word)
		for len(runes) > width {
			flush()
			lines = append(lines, string(runes[:width]))
			runes = runes[width:]
		}
		if len(runes) == 0 {
			continue
		}
		if currentLen > 0 && currentLen+1+len(runes) > width {
			flush()
		}
		if currentLen > 0 {
			current.WriteByte(' ')
			currentLen++
		}
		current.WriteString(string(runes))
		currentLen += len(runes)
	}
	flush()
	return lines
}

func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}
