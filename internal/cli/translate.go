package cli

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"codeberg.org/snonux/pdfbabel/internal/apperrors"
	"codeberg.org/snonux/pdfbabel/internal/config"
	"codeberg.org/snonux/pdfbabel/internal/logger"
	"codeberg.org/snonux/pdfbabel/internal/processor"
)

func newTranslateCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate FILE...",
		Short: "Translate PDFs into bilingual documents",
		Long: `translate extracts the text of each PDF, translates it and writes a
bilingual document next to the original. Scanned pages are recognized
with OCR when no text layer is found; --ocr forces recognition.

The output format is a PDF in one of three layouts (side_by_side,
line_by_line, overlay) or, with --format text, a plain text file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.SourceLang, "source", "s", "", "source language code, auto-detected when omitted")
	cmd.Flags().StringVarP(&flags.TargetLang, "target", "t", "", "target language code (default zh-CN, see --list-languages)")
	cmd.Flags().StringVarP(&flags.Provider, "provider", "p", "", "translation provider: google, openrouter or gemini")
	cmd.Flags().StringVar(&flags.Layout, "layout", "", "bilingual layout: side_by_side, line_by_line or overlay")
	cmd.Flags().StringVar(&flags.Format, "format", "", "output format: pdf or text")
	cmd.Flags().StringVarP(&flags.Output, "output", "o", "", "output path, derived from the input name when omitted")
	cmd.Flags().BoolVar(&flags.UseOCR, "ocr", false, "force OCR even when the document has a text layer")
	cmd.Flags().StringVar(&flags.Model, "model", "", "model override for openrouter and gemini")
	cmd.Flags().StringVar(&flags.APIKey, "api-key", "", "API key for the chosen provider")
	cmd.Flags().BoolVar(&flags.SaveKey, "save-key", false, "store the API key in the system keyring")
	cmd.Flags().IntVar(&flags.MaxPages, "max-pages", 0, "translate at most this many pages, 0 means all")
	cmd.Flags().BoolVar(&flags.NoCache, "no-cache", false, "bypass the translation cache")

	viper.BindPFlag("translate.source", cmd.Flags().Lookup("source"))
	viper.BindPFlag("translate.target", cmd.Flags().Lookup("target"))
	viper.BindPFlag("translate.provider", cmd.Flags().Lookup("provider"))
	viper.BindPFlag("pdf.max_pages", cmd.Flags().Lookup("max-pages"))

	return cmd
}

func runTranslate(cmd *cobra.Command, args []string, flags *Flags) error {
	if flags.Output != "" && len(args) > 1 {
		return apperrors.Validation("--output cannot be combined with multiple input files")
	}

	if flags.SaveKey {
		if err := saveAPIKey(flags); err != nil {
			return err
		}
	}

	proc, err := processor.New(&processor.Options{
		SourceLang: flags.SourceLang,
		TargetLang: flags.TargetLang,
		Provider:   flags.Provider,
		APIKey:     flags.APIKey,
		Model:      flags.Model,
		Layout:     flags.Layout,
		Format:     flags.Format,
		MaxPages:   flags.MaxPages,
		ForceOCR:   flags.UseOCR,
		NoCache:    flags.NoCache,
	})
	if err != nil {
		return err
	}
	defer proc.Close()

	ctx, stop := commandContext(cmd)
	defer stop()

	for _, path := range args {
		res, err := proc.TranslatePDF(ctx, path, flags.Output)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%d pages via %s)\n",
			res.InputPath, res.OutputPath, res.PageCount, res.Provider)
	}
	return nil
}

// saveAPIKey persists the provider key for later runs. Without --api-key the
// key is read from the terminal with echo disabled.
func saveAPIKey(flags *Flags) error {
	provider := flags.Provider
	if provider == "" {
		provider = config.Provider()
	}
	if provider != "openrouter" && provider != "gemini" {
		return apperrors.Validation("--save-key needs --provider openrouter or gemini")
	}

	key := flags.APIKey
	if key == "" {
		prompted, err := promptForKey(fmt.Sprintf("%s API key: ", provider))
		if err != nil {
			return err
		}
		key = prompted
	}
	if key == "" {
		return apperrors.Validation("no API key given")
	}

	if err := config.StoreKey(provider, key); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}
	logger.Info("API key stored in system keyring", "provider", provider)

	// Use the fresh key for this run as well.
	flags.APIKey = key
	return nil
}

func promptForKey(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read key from terminal: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}
