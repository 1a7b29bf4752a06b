package pdf

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"codeberg.org/snonux/pdfbabel/internal/apperrors"
)

var pdfMagic = []byte("%PDF-")

// ValidateFile checks that path exists and starts like a PDF before any
// library touches it.
func ValidateFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return apperrors.Validation(fmt.Sprintf("file not found: %s", path))
		}
		return err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return err
	}
	if st.IsDir() {
		return apperrors.Validation(fmt.Sprintf("%s is a directory", path))
	}
	if st.Size() == 0 {
		return apperrors.Validation(fmt.Sprintf("%s is empty", path))
	}

	header := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(f, header); err != nil {
		return apperrors.Validation(fmt.Sprintf("%s is not a PDF file", path))
	}
	if !bytes.Equal(header, pdfMagic) {
		return apperrors.Validation(fmt.Sprintf("%s is not a PDF file", path))
	}
	return nil
}

// ValidateBytes checks an in-memory upload for the PDF header.
func ValidateBytes(data []byte) error {
	if len(data) == 0 {
		return apperrors.Validation("uploaded file is empty")
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return apperrors.Validation("uploaded file is not a PDF")
	}
	return nil
}
