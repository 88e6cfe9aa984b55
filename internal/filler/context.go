package filler

import (
	"fmt"
	"sort"

	"workbook-generator/internal/domain"
	"workbook-generator/internal/model"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultSlots is the number of strength rows on the Sweet Spot page.
const DefaultSlots = 24

// CoverContext binds the cover page.
func CoverContext(name, date, cohort string) map[string]any {
	return map[string]any{
		"name":   name,
		"date":   date,
		"cohort": cohort,
	}
}

// ConflictContext binds the conflict style page. Each category gets its
// abbreviated key.
func ConflictContext(name string, scores domain.ConflictScoreVector) map[string]any {
	return map[string]any{
		"name": name,
		"Col":  scores[domain.Collaborating],
		"Com":  scores[domain.Competing],
		"Avo":  scores[domain.Avoiding],
		"Acc":  scores[domain.Accommodating],
		"Co2":  scores[domain.Compromising],
	}
}

// StrengthsContext binds the Sweet Spot page. Entries are placed in rank
// order into slots 1..slots; every slot key is present, blank when the
// ranking is short or the strength is unknown.
func StrengthsContext(ref *model.Reference, name string, ranking domain.StrengthRanking, slots int, log *zap.Logger) map[string]any {
	if slots <= 0 {
		slots = DefaultSlots
	}
	if log == nil {
		log = zap.NewNop()
	}

	ordered := append(domain.StrengthRanking(nil), ranking...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Rank < ordered[j].Rank })

	title := cases.Title(language.English)
	data := map[string]any{"name": name}
	for i := 1; i <= slots; i++ {
		var strength, underuse, optimal, overuse string
		if i <= len(ordered) {
			strength = title.String(ordered[i-1].Strength)
			if p, ok := ref.Strength(strength); ok {
				underuse, optimal, overuse = p.Underuse, p.Optimal, p.Overuse
			} else {
				log.Warn("unknown strength", zap.String("strength", strength), zap.Int("slot", i))
			}
		}
		data[fmt.Sprintf("strength%d", i)] = strength
		data[fmt.Sprintf("underuse%d", i)] = underuse
		data[fmt.Sprintf("optimal%d", i)] = optimal
		data[fmt.Sprintf("overuse%d", i)] = overuse
	}
	return data
}
