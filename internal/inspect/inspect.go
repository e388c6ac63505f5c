// Package inspect performs cheap sanity checks on uploaded PDFs before and
// after they go through the engine.
package inspect

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

var ErrNotPDF = errors.New("file is not a PDF")

func init() {
	// pdfcpu would otherwise create a config dir under the user's home
	api.DisableConfigDir()
}

// CheckSignature reports ErrNotPDF unless the file starts with %PDF.
func CheckSignature(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open for validation: %w", err)
	}
	defer f.Close()

	header := make([]byte, 5)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read header: %w", err)
	}
	if n < 4 || string(header[:4]) != "%PDF" {
		return fmt.Errorf("%w (starts with %q)", ErrNotPDF, header[:n])
	}
	return nil
}

// PageCount parses the document with pdfcpu. Callers treat the count as
// informational; Ghostscript accepts files pdfcpu rejects.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("page count: %w", err)
	}
	return n, nil
}
