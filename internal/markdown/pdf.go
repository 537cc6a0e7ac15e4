package markdown

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mandolyte/mdtopdf"
)

// PDF converts markdown to a PDF document using a scratch directory, since
// mdtopdf only writes to files.
func PDF(source string) ([]byte, error) {
	dir, err := os.MkdirTemp("", "learntools-pdf-")
	if err != nil {
		return nil, fmt.Errorf("os.MkdirTemp() > %w", err)
	}
	defer os.RemoveAll(dir)

	pdfPath := filepath.Join(dir, "document.pdf")
	renderer := mdtopdf.NewPdfRenderer("P", "A4", pdfPath, "", nil, mdtopdf.LIGHT)
	if err := renderer.Process([]byte(source)); err != nil {
		return nil, fmt.Errorf("renderer.Process() > %w", err)
	}

	content, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile(%s) > %w", pdfPath, err)
	}
	return content, nil
}
