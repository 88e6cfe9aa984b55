package model

// Static reference data: the 24 character strengths with their use
// descriptions and the 15 conflict survey questions. Loaded once at process
// start and read-only afterwards.

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"workbook-generator/internal/domain"
)

//go:embed data/strengths.json
var strengthsJSON []byte

//go:embed data/strengths.schema.json
var strengthsSchema []byte

//go:embed data/questions.json
var questionsJSON []byte

//go:embed data/questions.schema.json
var questionsSchema []byte

// StrengthProfile describes underuse, optimal use and overuse of a strength.
type StrengthProfile struct {
	Underuse string `json:"underuse"`
	Optimal  string `json:"optimal"`
	Overuse  string `json:"overuse"`
}

// Question is one roster column and the conflict category it scores.
type Question struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

type strengthsDoc struct {
	Strengths []struct {
		Name string `json:"name"`
		StrengthProfile
	} `json:"strengths"`
}

type questionsDoc struct {
	Scale      map[string]int `json:"scale"`
	NameColumn string         `json:"name_column"`
	Questions  []Question     `json:"questions"`
}

// Reference holds the immutable lookup tables.
type Reference struct {
	strengths     map[string]StrengthProfile
	strengthOrder []string
	questions     []Question
	scale         map[string]int
	nameColumn    string
}

// Load parses and validates the embedded reference data.
func Load() (*Reference, error) {
	return Parse(strengthsJSON, questionsJSON)
}

// Parse builds a Reference from raw strengths and questions documents.
func Parse(strengthsData, questionsData []byte) (*Reference, error) {
	if err := validateJSON(strengthsSchema, strengthsData); err != nil {
		return nil, fmt.Errorf("strengths: %w", err)
	}
	if err := validateJSON(questionsSchema, questionsData); err != nil {
		return nil, fmt.Errorf("questions: %w", err)
	}

	var sd strengthsDoc
	if err := json.Unmarshal(strengthsData, &sd); err != nil {
		return nil, fmt.Errorf("decode strengths: %w", err)
	}
	var qd questionsDoc
	if err := json.Unmarshal(questionsData, &qd); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}

	ref := &Reference{
		strengths:  make(map[string]StrengthProfile, len(sd.Strengths)),
		scale:      qd.Scale,
		nameColumn: qd.NameColumn,
		questions:  qd.Questions,
	}
	for _, s := range sd.Strengths {
		if _, dup := ref.strengths[s.Name]; dup {
			return nil, fmt.Errorf("duplicate strength %q", s.Name)
		}
		ref.strengths[s.Name] = s.StrengthProfile
		ref.strengthOrder = append(ref.strengthOrder, s.Name)
	}

	seen := map[string]bool{}
	for _, q := range qd.Questions {
		if seen[q.Text] {
			return nil, fmt.Errorf("duplicate question %q", q.Text)
		}
		seen[q.Text] = true
	}
	for _, c := range domain.ConflictCategories {
		if len(ref.questionsFor(c)) == 0 {
			return nil, fmt.Errorf("no question scores category %s", c)
		}
	}
	return ref, nil
}

// Strength looks up a strength by its canonical (title case) name.
func (r *Reference) Strength(name string) (StrengthProfile, bool) {
	p, ok := r.strengths[name]
	return p, ok
}

// StrengthNames returns the canonical names in table order.
func (r *Reference) StrengthNames() []string {
	return append([]string(nil), r.strengthOrder...)
}

// Questions returns a copy of the question table.
func (r *Reference) Questions() []Question {
	return append([]Question(nil), r.questions...)
}

// QuestionCount returns how many questions score category.
func (r *Reference) QuestionCount(category string) int {
	return len(r.questionsFor(category))
}

// AnswerValue converts an answer word to its numeric value; unknown answers
// are worth 0.
func (r *Reference) AnswerValue(answer string) int {
	return r.scale[answer]
}

// NameColumn is the roster column holding the participant's name.
func (r *Reference) NameColumn() string {
	return r.nameColumn
}

func (r *Reference) questionsFor(category string) []Question {
	var out []Question
	for _, q := range r.questions {
		if q.Category == category {
			out = append(out, q)
		}
	}
	return out
}
