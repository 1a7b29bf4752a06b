// Package processor orchestrates the document pipeline: PDF extraction,
// optional OCR, translation and bilingual rendering. It is the coordinator
// both the CLI commands and the web handlers drive.
package processor
