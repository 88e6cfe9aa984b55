// Package document merges generated pages into a template PDF and numbers
// the result.
package document

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"workbook-generator/internal/domain"

	"gopkg.in/yaml.v3"
)

//go:embed layouts.yaml
var defaultLayouts []byte

// Role is the logical content replacing a template page.
type Role string

const (
	RoleCover     Role = "cover"
	RoleSurvey    Role = "survey"
	RoleStrengths Role = "strengths"
	RoleConflict  Role = "conflict"
)

// Roles lists every role a layout must wire.
var Roles = []Role{RoleCover, RoleSurvey, RoleStrengths, RoleConflict}

// Pagination is where numbering starts: the page at StartIndex (zero-based)
// carries StartNumber.
type Pagination struct {
	StartIndex  int `yaml:"start_index"`
	StartNumber int `yaml:"start_number"`
}

// Layout describes one template variant.
type Layout struct {
	// Template is the PDF file name under the resources directory.
	Template   string       `yaml:"template"`
	Pages      map[Role]int `yaml:"pages"`
	Pagination Pagination   `yaml:"pagination"`
}

// Validate checks the layout on its own. Whether the indices fit the
// template is only known at assembly time.
func (l Layout) Validate() error {
	if strings.TrimSpace(l.Template) == "" {
		return fmt.Errorf("%w: template file is empty", domain.ErrLayoutInvalid)
	}
	used := map[int]Role{}
	for _, r := range Roles {
		idx, ok := l.Pages[r]
		if !ok {
			return fmt.Errorf("%w: role %s not wired", domain.ErrLayoutInvalid, r)
		}
		if idx < 0 {
			return fmt.Errorf("%w: role %s has negative index %d", domain.ErrLayoutInvalid, r, idx)
		}
		if other, dup := used[idx]; dup {
			return fmt.Errorf("%w: roles %s and %s share index %d", domain.ErrLayoutInvalid, other, r, idx)
		}
		used[idx] = r
	}
	if len(l.Pages) != len(Roles) {
		return fmt.Errorf("%w: unknown role in pages", domain.ErrLayoutInvalid)
	}
	if l.Pagination.StartIndex < 0 {
		return fmt.Errorf("%w: negative pagination start index", domain.ErrLayoutInvalid)
	}
	return nil
}

// Layouts maps a variant name ("Open", "Team", "Tiny") to its layout.
type Layouts map[string]Layout

// ParseLayouts decodes and validates a layouts document.
func ParseLayouts(data []byte) (Layouts, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: layouts document is empty", domain.ErrLayoutInvalid)
	}
	var ls Layouts
	if err := yaml.Unmarshal(data, &ls); err != nil {
		return nil, fmt.Errorf("%w: decode layouts: %v", domain.ErrLayoutInvalid, err)
	}
	for name, l := range ls {
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("variant %s: %w", name, err)
		}
	}
	return ls, nil
}

// LoadLayouts reads path, or the built-in layouts when path is empty.
func LoadLayouts(path string) (Layouts, error) {
	if strings.TrimSpace(path) == "" {
		return ParseLayouts(defaultLayouts)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layouts %s: %w", path, err)
	}
	ls, err := ParseLayouts(data)
	if err != nil {
		return nil, fmt.Errorf("layouts %s: %w", path, err)
	}
	return ls, nil
}

// Variant returns the layout for name.
func (ls Layouts) Variant(name string) (Layout, error) {
	l, ok := ls[name]
	if !ok {
		return Layout{}, fmt.Errorf("%w: %q (known: %s)", domain.ErrInvalidVariant, name, strings.Join(ls.Names(), ", "))
	}
	return l, nil
}

// Names returns the variant names sorted.
func (ls Layouts) Names() []string {
	out := make([]string, 0, len(ls))
	for n := range ls {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
