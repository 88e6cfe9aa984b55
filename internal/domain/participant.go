package domain

// Source tags where a participant record was read from.
type Source string

const (
	SourceRoster Source = "roster"
	SourceSurvey Source = "survey"
)

// ParticipantRecord is one person as seen by a single input file. It only
// lives for the duration of a workflow run.
type ParticipantRecord struct {
	Name   string `json:"name"`
	Source Source `json:"source"`
	// File is the survey document path for survey records.
	File string `json:"file,omitempty"`
	// Answers is the roster answer row keyed by question text.
	Answers map[string]string `json:"answers,omitempty"`
}

// StrengthEntry is one ranked line of a survey.
type StrengthEntry struct {
	Rank     int    `json:"rank"`
	Strength string `json:"strength"`
}

// StrengthRanking is the ranked strength list in extraction order. Ranks are
// unique within one ranking.
type StrengthRanking []StrengthEntry

// SurveyResult is what the survey parser extracts from one document.
type SurveyResult struct {
	Name    string          `json:"name"`
	Ranking StrengthRanking `json:"ranking"`
}

// Conflict style categories.
const (
	Collaborating = "Collaborating"
	Competing     = "Competing"
	Avoiding      = "Avoiding"
	Accommodating = "Accommodating"
	Compromising  = "Compromising"
)

// ConflictCategories lists every category in report order.
var ConflictCategories = []string{Collaborating, Competing, Avoiding, Accommodating, Compromising}

// ConflictScoreVector maps every conflict category to its summed score.
type ConflictScoreVector map[string]int

// NewConflictScoreVector returns a vector with every category present at zero.
func NewConflictScoreVector() ConflictScoreVector {
	v := make(ConflictScoreVector, len(ConflictCategories))
	for _, c := range ConflictCategories {
		v[c] = 0
	}
	return v
}

// Roster is the parsed roster table.
type Roster struct {
	// Columns holds the header row as read.
	Columns []string
	// Participants are in file order, blank names skipped, first row wins on
	// duplicate names.
	Participants []ParticipantRecord
}

// Names returns the participant names in roster order.
func (r *Roster) Names() []string {
	out := make([]string, 0, len(r.Participants))
	for _, p := range r.Participants {
		out = append(out, p.Name)
	}
	return out
}

// Find returns the participant whose trimmed name equals name.
func (r *Roster) Find(name string) (ParticipantRecord, bool) {
	for _, p := range r.Participants {
		if p.Name == name {
			return p, true
		}
	}
	return ParticipantRecord{}, false
}

// HasColumn reports whether the header contains col.
func (r *Roster) HasColumn(col string) bool {
	for _, c := range r.Columns {
		if c == col {
			return true
		}
	}
	return false
}
