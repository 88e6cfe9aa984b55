package survey

// pdftext.go: survey PDF to plain text via the embedded text layer.
//
// Uses github.com/ledongthuc/pdf. Each visual line of a page becomes one line
// of output; scanned (image-only) surveys yield no text.

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ReadText returns the text of every page of the PDF at path, pages
// separated by a blank line.
func ReadText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	fonts := make(map[string]*pdf.Font)
	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		// resource names are page scoped, so a later page rebinds them
		for _, name := range p.Fonts() {
			font := p.Font(name)
			fonts[name] = &font
		}
		text, err := p.GetPlainText(fonts)
		if err != nil {
			return "", fmt.Errorf("read pdf page %d: %w", i, err)
		}
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			pages = append(pages, trimmed)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}
