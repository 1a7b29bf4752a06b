package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/pdfbabel/internal"
	"codeberg.org/snonux/pdfbabel/internal/config"
	"codeberg.org/snonux/pdfbabel/internal/language"
	"codeberg.org/snonux/pdfbabel/internal/logger"
	"codeberg.org/snonux/pdfbabel/internal/translation"
)

// CreateRootCommand creates and configures the root cobra command with all
// subcommands attached.
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pdfbabel",
		Short: "PDF translation with OCR and bilingual output",
		Long: `pdfbabel translates PDF documents and renders the result next to the
original text as a bilingual PDF. Scanned documents are recognized with
Tesseract first. Translation runs through Google Translate, OpenRouter
or Gemini, falling back between providers when one fails.

Examples:
  pdfbabel translate document.pdf                  # To Simplified Chinese (default)
  pdfbabel translate -s en -t ja -p openrouter document.pdf
  pdfbabel translate --layout overlay --format pdf document.pdf
  pdfbabel extract --json document.pdf             # Text extraction only
  pdfbabel ocr scan.png                            # OCR an image or PDF
  pdfbabel info document.pdf                       # Metadata and scan verdict
  pdfbabel web --port 8080                         # Start the web interface`,
		Args:          cobra.NoArgs,
		Version:       internal.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setup(flags)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.ListModels {
				return runListModels(cmd)
			}
			if flags.ListLanguages {
				runListLanguages(cmd)
				return nil
			}
			return cmd.Help()
		},
	}

	setupRootFlags(rootCmd, flags)

	rootCmd.AddCommand(
		newExtractCommand(flags),
		newTranslateCommand(flags),
		newOCRCommand(flags),
		newWebCommand(flags),
		newInfoCommand(),
	)

	return rootCmd
}

func setupRootFlags(cmd *cobra.Command, flags *Flags) {
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default .pdfbabel.json in home or working directory)")
	cmd.PersistentFlags().BoolVar(&flags.Verbose, "verbose", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&flags.LogFile, "log-file", "", "append JSONL log records to this file")

	cmd.Flags().BoolVar(&flags.ListModels, "list-models", false, "list models available to the configured OpenRouter key")
	cmd.Flags().BoolVar(&flags.ListLanguages, "list-languages", false, "list supported languages")
}

// setup loads the configuration and configures the logger. It runs before
// every command, after flags are parsed.
func setup(flags *Flags) {
	config.Init(flags.CfgFile)

	level := logger.LevelInfo
	if flags.Verbose {
		level = logger.LevelDebug
	}
	var sink io.Writer
	if flags.LogFile != "" {
		f, err := os.OpenFile(flags.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot open log file %s: %v\n", flags.LogFile, err)
		} else {
			sink = f
		}
	}
	logger.Init(level, sink)
}

func runListModels(cmd *cobra.Command) error {
	ctx, stop := commandContext(cmd)
	defer stop()

	models, err := translation.ListOpenRouterModels(ctx, config.OpenRouterKey())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Available OpenRouter models (%d):\n", len(models))
	for _, model := range models {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", model)
	}
	return nil
}

func runListLanguages(cmd *cobra.Command) {
	fmt.Fprintln(cmd.OutOrStdout(), "Supported languages:")
	for _, lang := range language.Supported() {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-7s %-26s OCR: %s\n", lang.Code, lang.Name, lang.TesseractLang)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  %-7s %s\n", language.Auto, "Automatic detection (source only)")
}

// commandContext derives the command context, cancelled on SIGINT or SIGTERM
// so long-running work stops cleanly.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeTextOutput writes command output to path instead of stdout.
func writeTextOutput(path, text string) error {
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
