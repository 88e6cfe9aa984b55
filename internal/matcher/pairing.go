package matcher

import (
	"sort"

	"workbook-generator/internal/domain"
)

// Candidate is a survey document and the name parsed from it.
type Candidate struct {
	File string
	Name string
}

type scoredPair struct {
	csv    int
	survey int
	score  int
}

// Pair classifies roster names against survey candidates.
//
// Every (roster, survey) pair scoring at or above the threshold is ranked by
// score (descending), then roster order, then survey file name, and accepted
// greedily when neither side is taken yet. Unpaired roster names are missing
// a PDF; unpaired surveys are missing a roster row.
func (m *Matcher) Pair(csvNames []string, candidates []Candidate) domain.MatchResult {
	surveys := append([]Candidate(nil), candidates...)
	sort.SliceStable(surveys, func(i, j int) bool { return surveys[i].File < surveys[j].File })

	var pairs []scoredPair
	for i, name := range csvNames {
		for j, c := range surveys {
			if s := m.Score(name, c.Name); s >= m.threshold {
				pairs = append(pairs, scoredPair{csv: i, survey: j, score: s})
			}
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].score != pairs[j].score {
			return pairs[i].score > pairs[j].score
		}
		if pairs[i].csv != pairs[j].csv {
			return pairs[i].csv < pairs[j].csv
		}
		return pairs[i].survey < pairs[j].survey
	})

	csvTaken := make([]bool, len(csvNames))
	surveyTaken := make([]bool, len(surveys))
	var accepted []scoredPair
	for _, p := range pairs {
		if csvTaken[p.csv] || surveyTaken[p.survey] {
			continue
		}
		csvTaken[p.csv] = true
		surveyTaken[p.survey] = true
		accepted = append(accepted, p)
	}
	sort.Slice(accepted, func(i, j int) bool { return accepted[i].csv < accepted[j].csv })

	res := domain.MatchResult{
		Matched:    []domain.MatchedPair{},
		MissingPDF: []string{},
		MissingCSV: []string{},
	}
	for _, p := range accepted {
		res.Matched = append(res.Matched, domain.MatchedPair{
			CSVName: csvNames[p.csv],
			PDFName: surveys[p.survey].Name,
			PDFFile: surveys[p.survey].File,
			Score:   p.score,
		})
	}
	for i, name := range csvNames {
		if !csvTaken[i] {
			res.MissingPDF = append(res.MissingPDF, name)
		}
	}
	for j, c := range surveys {
		if !surveyTaken[j] {
			res.MissingCSV = append(res.MissingCSV, c.Name)
		}
	}
	return res
}
