package document

import (
	"fmt"

	"workbook-generator/internal/domain"
)

// Segment is one run of the output: either the template pages From..To
// (zero-based, inclusive) or the whole document for Role.
type Segment struct {
	Role Role
	From int
	To   int
}

// IsInsert reports whether the segment is a generated document.
func (s Segment) IsInsert() bool { return s.Role != "" }

// Plan lays out the output for a template of templatePages pages. Each
// wired index becomes an insert segment; consecutive unwired pages are
// grouped into template runs. Inserts may have any page count, so no
// output position is assumed to line up with its template index.
func Plan(templatePages int, pages map[Role]int) ([]Segment, error) {
	byIndex := make(map[int]Role, len(pages))
	for r, idx := range pages {
		if idx < 0 || idx >= templatePages {
			return nil, fmt.Errorf("%w: %s at page index %d, template has %d pages",
				domain.ErrLayoutInvalid, r, idx, templatePages)
		}
		if other, dup := byIndex[idx]; dup {
			return nil, fmt.Errorf("%w: %s and %s share index %d", domain.ErrLayoutInvalid, other, r, idx)
		}
		byIndex[idx] = r
	}

	var segs []Segment
	for i := 0; i < templatePages; i++ {
		if r, ok := byIndex[i]; ok {
			segs = append(segs, Segment{Role: r, From: i, To: i})
			continue
		}
		if n := len(segs); n > 0 && !segs[n-1].IsInsert() && segs[n-1].To == i-1 {
			segs[n-1].To = i
			continue
		}
		segs = append(segs, Segment{From: i, To: i})
	}
	return segs, nil
}

// OutputPages is the page count Plan's segments produce for the given
// insert page counts.
func OutputPages(segs []Segment, insertPages map[Role]int) int {
	total := 0
	for _, s := range segs {
		if s.IsInsert() {
			total += insertPages[s.Role]
		} else {
			total += s.To - s.From + 1
		}
	}
	return total
}
