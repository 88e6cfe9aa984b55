package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"workbook-generator/internal/domain"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"go.uber.org/zap"
)

// Assembler substitutes generated documents for template pages.
type Assembler struct {
	log *zap.Logger
}

func NewAssembler(log *zap.Logger) *Assembler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Assembler{log: log}
}

// Assemble builds the workbook body in memory. Every role of layout must
// have a readable insert; a missing, empty or unreadable insert fails the
// whole assembly so no partial document is produced.
func (a *Assembler) Assemble(template []byte, layout Layout, inserts map[Role][]byte) ([]byte, error) {
	templatePages, err := PageCount(template)
	if err != nil {
		return nil, fmt.Errorf("%w: template %s unreadable: %v", domain.ErrTemplateMissing, layout.Template, err)
	}

	segs, err := Plan(templatePages, layout.Pages)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", layout.Template, err)
	}

	insertPages := make(map[Role]int, len(layout.Pages))
	for r := range layout.Pages {
		data := inserts[r]
		if len(data) == 0 {
			return nil, fmt.Errorf("%w: %s", domain.ErrInsertEmpty, r)
		}
		n, err := PageCount(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrInsertEmpty, r, err)
		}
		insertPages[r] = n
	}

	var parts []io.ReadSeeker
	for _, s := range segs {
		if s.IsInsert() {
			if insertPages[s.Role] == 0 {
				a.log.Debug("insert has no pages", zap.String("role", string(s.Role)))
				continue
			}
			parts = append(parts, bytes.NewReader(inserts[s.Role]))
			continue
		}
		run, err := trim(template, s.From, s.To)
		if err != nil {
			return nil, fmt.Errorf("extract template pages %d-%d: %w", s.From, s.To, err)
		}
		parts = append(parts, bytes.NewReader(run))
	}
	if len(parts) == 0 {
		return nil, errors.New("assembled document has no pages")
	}

	var out bytes.Buffer
	if err := api.MergeRaw(parts, &out, false, newConf()); err != nil {
		return nil, fmt.Errorf("merge documents: %w", err)
	}
	a.log.Debug("document assembled",
		zap.String("template", layout.Template),
		zap.Int("template_pages", templatePages),
		zap.Int("pages", OutputPages(segs, insertPages)))
	return out.Bytes(), nil
}

// trim extracts zero-based pages from..to of a PDF.
func trim(data []byte, from, to int) ([]byte, error) {
	var out bytes.Buffer
	sel := []string{fmt.Sprintf("%d-%d", from+1, to+1)}
	if err := api.Trim(bytes.NewReader(data), &out, sel, newConf()); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
