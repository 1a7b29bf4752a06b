package cli

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/pdfbabel/internal/apperrors"
	"codeberg.org/snonux/pdfbabel/internal/config"
	"codeberg.org/snonux/pdfbabel/internal/ocr"
	"codeberg.org/snonux/pdfbabel/internal/pdf"
	"codeberg.org/snonux/pdfbabel/internal/processor"
)

func newOCRCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ocr FILE...",
		Short: "Recognize text on scanned PDFs and images",
		Long: `ocr runs Tesseract over each input file and prints the recognized text.
PDF pages are rendered to images first; PNG, JPEG, TIFF and BMP files
are recognized directly. --boxes reports every word with its bounding
box and confidence as JSON.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOCR(cmd, args, flags)
		},
	}

	cmd.Flags().StringVar(&flags.Languages, "languages", "", `Tesseract languages, e.g. "eng+chi_sim"`)
	cmd.Flags().IntVar(&flags.DPI, "dpi", 0, "render resolution for PDF pages (default 300)")
	cmd.Flags().IntVar(&flags.PSM, "psm", 0, "Tesseract page segmentation mode, see tesseract --help-psm")
	cmd.Flags().BoolVar(&flags.Boxes, "boxes", false, "report word bounding boxes as JSON")
	cmd.Flags().BoolVar(&flags.JSON, "json", false, "print the result as JSON")
	cmd.Flags().StringVarP(&flags.Output, "output", "o", "", "write recognized text to this file instead of stdout")

	viper.BindPFlag("ocr.languages", cmd.Flags().Lookup("languages"))
	viper.BindPFlag("ocr.psm", cmd.Flags().Lookup("psm"))
	viper.BindPFlag("pdf.dpi", cmd.Flags().Lookup("dpi"))

	return cmd
}

func runOCR(cmd *cobra.Command, args []string, flags *Flags) error {
	if flags.Output != "" && len(args) > 1 {
		return apperrors.Validation("--output cannot be combined with multiple input files")
	}
	if flags.Boxes {
		return runOCRBoxes(cmd, args, flags)
	}

	proc, err := processor.New(&processor.Options{
		OCRLanguages: flags.Languages,
		DPI:          flags.DPI,
		PageSegMode:  flags.PSM,
		NoCache:      true,
	})
	if err != nil {
		return err
	}
	defer proc.Close()

	ctx, stop := commandContext(cmd)
	defer stop()

	for _, path := range args {
		res, err := proc.OCRFile(ctx, path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := emitOCR(cmd, res, flags); err != nil {
			return err
		}
	}
	return nil
}

func emitOCR(cmd *cobra.Command, res *processor.OCRResult, flags *Flags) error {
	if flags.JSON {
		return printJSON(cmd, res)
	}
	if flags.Output != "" {
		return writeTextOutput(flags.Output, res.FullText())
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.FullText())
	return nil
}

// pageBoxes is the per-page recognition detail reported by --boxes.
type pageBoxes struct {
	Page int `json:"page"`
	*ocr.Result
}

type boxesReport struct {
	InputPath string      `json:"input_path"`
	PageCount int         `json:"page_count"`
	Pages     []pageBoxes `json:"pages"`
}

// runOCRBoxes drives the OCR engine directly since word positions are not
// part of the pipeline output.
func runOCRBoxes(cmd *cobra.Command, args []string, flags *Flags) error {
	languages := flags.Languages
	if languages == "" {
		languages = config.OCRLanguages()
	}
	dpi := flags.DPI
	if dpi == 0 {
		dpi = config.DPI()
	}

	psm := flags.PSM
	if psm == 0 {
		psm = config.PageSegMode()
	}

	engine := ocr.New(ocr.Options{
		Languages:      ocr.ParseLanguages(languages),
		DPI:            dpi,
		TessdataPrefix: config.TessdataPrefix(),
		PageSegMode:    psm,
		Preprocess:     true,
	})
	if err := engine.Available(); err != nil {
		return err
	}

	ctx, stop := commandContext(cmd)
	defer stop()

	for _, path := range args {
		report, err := boxesFor(ctx, engine, path, dpi)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := printJSON(cmd, report); err != nil {
			return err
		}
	}
	return nil
}

func boxesFor(ctx context.Context, engine *ocr.Engine, path string, dpi int) (*boxesReport, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return pdfBoxes(ctx, engine, path, dpi)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	res, err := engine.RecognizeWithBoxes(ctx, img)
	if err != nil {
		return nil, err
	}
	return &boxesReport{
		InputPath: path,
		PageCount: 1,
		Pages:     []pageBoxes{{Page: 1, Result: res}},
	}, nil
}

func pdfBoxes(ctx context.Context, engine *ocr.Engine, path string, dpi int) (*boxesReport, error) {
	extractor, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer extractor.Close()

	report := &boxesReport{InputPath: path, PageCount: extractor.PageCount()}
	for pageNum := 1; pageNum <= report.PageCount; pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := extractor.RenderPage(pageNum, float64(dpi))
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pageNum, err)
		}
		res, err := engine.RecognizeWithBoxes(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pageNum, err)
		}
		report.Pages = append(report.Pages, pageBoxes{Page: pageNum, Result: res})
	}
	return report, nil
}
