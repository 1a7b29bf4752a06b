// Package cli provides command-line interface setup for the pdfbabel
// application. It defines the root command and the extract, translate,
// ocr, web and info subcommands using cobra, with flag values layered
// over the viper configuration.
package cli
