package document

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"go.uber.org/zap"
)

// Page number stamp geometry, in points.
const (
	NumberFont   = "Times-Roman"
	NumberSize   = 10
	NumberMargin = 36.0
)

// Labels maps each zero-based page index at or after startIndex to its
// numeral. Earlier pages are absent.
func Labels(pageCount, startIndex, startNumber int) map[int]int {
	out := map[int]int{}
	if startIndex < 0 {
		startIndex = 0
	}
	for i := startIndex; i < pageCount; i++ {
		out[i] = startNumber + (i - startIndex)
	}
	return out
}

// Position is the lower left corner of the stamp box for label on a page of
// size dim, so that the label's right edge sits NumberMargin from the right
// edge and its baseline NumberMargin from the bottom. The box reaches below
// the baseline by the font's rounded up descent.
func Position(dim types.Dim, label string) (x, y float64) {
	w := font.TextWidth(label, NumberFont, NumberSize)
	return dim.Width - NumberMargin - w, NumberMargin - baselineLift()
}

func baselineLift() float64 {
	return math.Ceil(font.Descent(NumberFont, NumberSize))
}

// Paginator stamps page numbers.
type Paginator struct {
	log *zap.Logger
}

func NewPaginator(log *zap.Logger) *Paginator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Paginator{log: log}
}

// Paginate returns data with a numeral on every page from p.StartIndex on.
// Each page is measured on its own so mixed page sizes are numbered
// correctly.
func (pg *Paginator) Paginate(data []byte, p Pagination) ([]byte, error) {
	conf := newConf()
	dims, err := api.PageDims(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("read page sizes: %w", err)
	}

	labels := Labels(len(dims), p.StartIndex, p.StartNumber)
	if len(labels) == 0 {
		return data, nil
	}

	stamps := make(map[int]*model.Watermark, len(labels))
	for idx, n := range labels {
		text := strconv.Itoa(n)
		x, y := Position(dims[idx], text)
		desc := fmt.Sprintf("fontname:%s, points:%d, scalefactor:1 abs, rotation:0, position:bl, offset:%.2f %.2f, fillcolor:#000000, opacity:1",
			NumberFont, NumberSize, x, y)
		wm, err := api.TextWatermark(text, desc, true, false, types.POINTS)
		if err != nil {
			return nil, fmt.Errorf("page %d stamp: %w", idx, err)
		}
		// pdfcpu numbers pages from 1
		stamps[idx+1] = wm
	}

	var out bytes.Buffer
	if err := api.AddWatermarksMap(bytes.NewReader(data), &out, stamps, conf); err != nil {
		return nil, fmt.Errorf("stamp page numbers: %w", err)
	}
	pg.log.Debug("paginated", zap.Int("pages", len(dims)), zap.Int("numbered", len(labels)))
	return out.Bytes(), nil
}
