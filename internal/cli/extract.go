package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/pdfbabel/internal/apperrors"
	"codeberg.org/snonux/pdfbabel/internal/processor"
)

func newExtractCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract FILE...",
		Short: "Extract text from PDFs without translating",
		Long: `extract pulls the text layer out of each PDF and prints it with page
separators. --images additionally saves the embedded images next to the
output directory, --json emits the structured result including per-page
layout blocks.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.Output, "output", "o", "", "write extracted text to this file instead of stdout")
	cmd.Flags().IntVar(&flags.MaxPages, "max-pages", 0, "extract at most this many pages, 0 means all")
	cmd.Flags().BoolVar(&flags.Images, "images", false, "also extract embedded images")
	cmd.Flags().BoolVar(&flags.JSON, "json", false, "print the result as JSON")

	return cmd
}

func runExtract(cmd *cobra.Command, args []string, flags *Flags) error {
	if flags.Output != "" && len(args) > 1 {
		return apperrors.Validation("--output cannot be combined with multiple input files")
	}

	proc, err := processor.New(&processor.Options{
		MaxPages: flags.MaxPages,
		NoCache:  true,
	})
	if err != nil {
		return err
	}
	defer proc.Close()

	ctx, stop := commandContext(cmd)
	defer stop()

	for _, path := range args {
		res, err := proc.ExtractPDF(ctx, path, flags.Images)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := emitExtract(cmd, res, flags); err != nil {
			return err
		}
	}
	return nil
}

func emitExtract(cmd *cobra.Command, res *processor.ExtractResult, flags *Flags) error {
	if flags.JSON {
		return printJSON(cmd, res)
	}
	if flags.Output != "" {
		return writeTextOutput(flags.Output, res.FullText())
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.FullText())
	if res.ImageDir != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "\nImages saved under %s\n", res.ImageDir)
	}
	return nil
}
