package survey

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"workbook-generator/internal/domain"
)

// UnknownName is reported when the survey has no marker line.
const UnknownName = "Unknown"

// DefaultMarker is the heading printed below the participant's name.
const DefaultMarker = "VIA Character Strengths Profile"

var (
	rankLine   = regexp.MustCompile(`(?m)^[ \t]*(\d+)\.[ \t]+(\S.*?)[ \t\r]*$`)
	whitespace = regexp.MustCompile(`\s+`)
)

// Parser extracts the participant name and ranked strengths from survey text.
type Parser struct {
	nameLine *regexp.Regexp
}

// NewParser returns a Parser looking for marker on the line after the name.
func NewParser(marker string) *Parser {
	return &Parser{
		nameLine: regexp.MustCompile(`(?m)^(.*?)\r?\n[ \t]*` + regexp.QuoteMeta(marker)),
	}
}

// ParseText extracts the name and ranking from survey text. It never fails:
// a missing marker yields UnknownName and no rank lines yield an empty
// ranking.
func (p *Parser) ParseText(text string) domain.SurveyResult {
	return domain.SurveyResult{
		Name:    p.extractName(text),
		Ranking: extractRanking(text),
	}
}

func (p *Parser) extractName(text string) string {
	m := p.nameLine.FindStringSubmatch(text)
	if m == nil {
		return UnknownName
	}
	name := strings.TrimSpace(whitespace.ReplaceAllString(m[1], " "))
	if name == "" {
		return UnknownName
	}
	return name
}

// extractRanking captures every "<n>. <text>" line. Ranks are not checked
// for contiguity; a repeated rank keeps its first occurrence.
func extractRanking(text string) domain.StrengthRanking {
	ranking := domain.StrengthRanking{}
	seen := map[int]bool{}
	for _, m := range rankLine.FindAllStringSubmatch(text, -1) {
		rank, err := strconv.Atoi(m[1])
		if err != nil || rank <= 0 || seen[rank] {
			continue
		}
		seen[rank] = true
		ranking = append(ranking, domain.StrengthEntry{
			Rank:     rank,
			Strength: strings.TrimSpace(m[2]),
		})
	}
	return ranking
}

// ParseFile reads the survey document at path and parses its text.
func (p *Parser) ParseFile(path string) (domain.SurveyResult, error) {
	text, err := ReadText(path)
	if err != nil {
		return domain.SurveyResult{}, fmt.Errorf("%w: %v", domain.ErrSurveyUnreadable, err)
	}
	return p.ParseText(text), nil
}
