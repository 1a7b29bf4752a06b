package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/pdfbabel/internal/processor"
)

func newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info FILE",
		Short: "Show PDF metadata and the scanned-document verdict",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd, args[0])
		},
	}
}

func runInfo(cmd *cobra.Command, path string) error {
	proc, err := processor.New(&processor.Options{NoCache: true})
	if err != nil {
		return err
	}
	defer proc.Close()

	ctx, stop := commandContext(cmd)
	defer stop()

	res, err := proc.Info(ctx, path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printField(out, "Path", res.Path)
	printField(out, "Pages", fmt.Sprintf("%d", res.PageCount))
	printField(out, "Title", res.Title)
	printField(out, "Author", res.Author)
	printField(out, "Subject", res.Subject)
	printField(out, "Creator", res.Creator)
	printField(out, "Producer", res.Producer)
	printField(out, "Format", res.Format)
	printField(out, "Size", fmt.Sprintf("%d bytes", res.SizeBytes))
	printField(out, "Encrypted", fmt.Sprintf("%v", res.Encrypted))
	printField(out, "Scanned", fmt.Sprintf("%v", res.Scanned))
	return nil
}

// printField skips empty metadata so the output only shows what the
// document carries.
func printField(w io.Writer, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(w, "%-10s %s\n", label+":", value)
}
