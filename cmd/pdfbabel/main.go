package main

import (
	"fmt"
	"os"

	"codeberg.org/snonux/pdfbabel/internal/apperrors"
	"codeberg.org/snonux/pdfbabel/internal/cli"
)

func main() {
	flags := cli.NewFlags()
	rootCmd := cli.CreateRootCommand(flags)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+apperrors.PublicMessage(err))
		os.Exit(1)
	}
}
