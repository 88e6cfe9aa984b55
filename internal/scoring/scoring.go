// Package scoring turns roster answer rows into conflict style scores.
package scoring

import (
	"strings"

	"workbook-generator/internal/domain"
	"workbook-generator/internal/model"

	"go.uber.org/zap"
)

// Engine sums answer values per conflict category.
type Engine struct {
	ref *model.Reference
	log *zap.Logger
}

// NewEngine returns an Engine over the given question table.
func NewEngine(ref *model.Reference, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{ref: ref, log: log}
}

// Score returns the vector for one answer row keyed by question text.
// Unknown, blank or missing answers add nothing.
func (e *Engine) Score(answers map[string]string) domain.ConflictScoreVector {
	v := domain.NewConflictScoreVector()
	for _, q := range e.ref.Questions() {
		answer, ok := answers[q.Text]
		if !ok {
			continue
		}
		v[q.Category] += e.ref.AnswerValue(strings.TrimSpace(answer))
	}
	return v
}

// CheckColumns logs a warning for every question column the roster lacks
// and returns them. Missing columns score zero, they never fail a run.
func (e *Engine) CheckColumns(roster *domain.Roster) []string {
	missing := MissingColumns(e.ref, roster)
	for _, col := range missing {
		e.log.Warn("roster is missing question column", zap.String("column", col))
	}
	return missing
}

// MissingColumns lists the question texts absent from the roster header, in
// question table order.
func MissingColumns(ref *model.Reference, roster *domain.Roster) []string {
	var missing []string
	for _, q := range ref.Questions() {
		if !roster.HasColumn(q.Text) {
			missing = append(missing, q.Text)
		}
	}
	return missing
}
