package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"
)

// CreateTestFile creates a test file with content
func CreateTestFile(t *testing.T, path string, content []byte) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create directory for test file: %v", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", path, err)
	}
}

// WriteFixturePDF writes a PDF with one A4 page per given text.
func WriteFixturePDF(t *testing.T, path string, pages ...string) {
	t.Helper()

	doc := fpdf.New("P", "pt", "A4", "")
	doc.SetFont("Helvetica", "", 12)
	for _, text := range pages {
		doc.AddPage()
		doc.MultiCell(495, 14, text, "", "L", false)
	}
	if err := doc.OutputFileAndClose(path); err != nil {
		t.Fatalf("Failed to write fixture PDF %s: %v", path, err)
	}
}

// FixturePDF writes a fixture PDF into a temp dir and returns its path.
func FixturePDF(t *testing.T, pages ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.pdf")
	WriteFixturePDF(t, path, pages...)
	return path
}

// AssertFileExists checks if a file exists
func AssertFileExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Expected file to exist: %s", path)
	}
}

// AssertFileNotExists checks if a file does not exist
func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); err == nil {
		t.Errorf("Expected file to not exist: %s", path)
	}
}

// AssertFileContains checks if a file contains a substring
func AssertFileContains(t *testing.T, path string, substring string) {
	t.Helper()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}

	if !strings.Contains(string(content), substring) {
		t.Errorf("File %s does not contain expected substring: %q", path, substring)
	}
}

// AssertNonEmptyFile checks that a file exists and has content
func AssertNonEmptyFile(t *testing.T, path string) {
	t.Helper()

	st, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Expected file to exist: %s (%v)", path, err)
	}
	if st.Size() == 0 {
		t.Errorf("Expected file to be non-empty: %s", path)
	}
}
