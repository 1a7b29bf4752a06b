package web

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"codeberg.org/snonux/pdfbabel/internal/logger"
)

// Uploads survive at most this long; anything older was left behind by an
// interrupted request.
const scratchMaxAge = 24 * time.Hour

// sweepScratch removes scratch entries older than maxAge and reports how
// many were removed. A missing directory is not an error.
func sweepScratch(dir string, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read scratch directory: %w", err)
	}

	removed := 0
	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			logger.Warn("failed to remove stale upload", "path", path, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}
