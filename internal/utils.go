package internal

import (
	"path/filepath"
	"strings"
)

// SanitizeFilename creates a safe filename from a string
func SanitizeFilename(s string) string {
	result := ""
	for _, r := range s {
		if isFilenameSafe(r) {
			result += string(r)
		} else {
			result += "_"
		}
	}
	return result
}

// DownloadName builds the attachment name for a translated document,
// keeping the original extension.
func DownloadName(originalName string) string {
	base := filepath.Base(originalName)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return "translated_" + SanitizeFilename(stem) + ext
}

// isFilenameSafe checks if a rune may appear in a generated filename
func isFilenameSafe(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.'
}
