package usecase

import (
	"fmt"
	"strings"

	"workbook-generator/internal/domain"
)

// Mode selects single participant or roster batch generation.
type Mode string

const (
	ModeIndividual Mode = "individual"
	ModeBatch      Mode = "batch"
)

// ParseMode accepts the form values "individual" and "batch".
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeIndividual:
		return ModeIndividual, nil
	case ModeBatch:
		return ModeBatch, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrInvalidMode, s)
}

// SingleRequest generates one workbook. ParticipantName is authoritative
// for every page; the survey's own name is only logged.
type SingleRequest struct {
	ParticipantName string
	Date            string
	Cohort          string
	Variant         string
	SurveyPath      string
	RosterPath      string
}

// BatchRequest generates a workbook for every roster name matched to a
// survey document.
type BatchRequest struct {
	Date        string
	Cohort      string
	Variant     string
	SurveyPaths []string
	RosterPath  string
}

// SingleResult is the outcome of a single run.
type SingleResult struct {
	RunID       string `json:"run_id"`
	Participant string `json:"participant"`
	// Workbook is the file name inside the output directory.
	Workbook string `json:"workbook"`
}

// BatchSummary classifies every participant of a batch run.
type BatchSummary struct {
	RunID          string                    `json:"run_id"`
	Matched        []domain.MatchedPair      `json:"matched"`
	MissingPDF     []string                  `json:"missing_pdf"`
	MissingCSV     []string                  `json:"missing_csv"`
	NameMismatches []domain.Mismatch         `json:"name_mismatches"`
	Unreadable     []domain.UnreadableSurvey `json:"unreadable"`
	// Generated lists workbook file names inside the output directory.
	Generated []string `json:"generated"`
}

func newBatchSummary(runID string, m domain.MatchResult) *BatchSummary {
	s := &BatchSummary{
		RunID:          runID,
		Matched:        m.Matched,
		MissingPDF:     m.MissingPDF,
		MissingCSV:     m.MissingCSV,
		NameMismatches: []domain.Mismatch{},
		Unreadable:     m.Unreadable,
		Generated:      []string{},
	}
	if s.Unreadable == nil {
		s.Unreadable = []domain.UnreadableSurvey{}
	}
	return s
}

// participant is everything the page pipeline needs for one person.
type participant struct {
	Name       string
	Date       string
	Cohort     string
	SurveyPath string
	Ranking    domain.StrengthRanking
	Answers    map[string]string
}
