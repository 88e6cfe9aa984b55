package survey

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"workbook-generator/internal/domain"
	"workbook-generator/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSurvey = `Jane    Doe
VIA Character Strengths Profile
Your top strengths are listed below.
1. Curiosity
2. Bravery
3.   Love of learning
`

func TestParseText_NameAndRanking(t *testing.T) {
	res := NewParser(DefaultMarker).ParseText(sampleSurvey)

	assert.Equal(t, "Jane Doe", res.Name)
	assert.Equal(t, domain.StrengthRanking{
		{Rank: 1, Strength: "Curiosity"},
		{Rank: 2, Strength: "Bravery"},
		{Rank: 3, Strength: "Love of learning"},
	}, res.Ranking)
}

func TestParseText_NameWhitespace(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"leading and trailing", "   Jane Doe  \nVIA Character Strengths Profile", "Jane Doe"},
		{"tabs inside", "Jane\t\tQ.  Doe\nVIA Character Strengths Profile", "Jane Q. Doe"},
		{"crlf line ending", "Jane Doe\r\nVIA Character Strengths Profile\r\n", "Jane Doe"},
		{"preceded by other lines", "Report\nDate 2025\nJane Doe\nVIA Character Strengths Profile", "Jane Doe"},
		{"no marker", "Jane Doe\nSomething else", UnknownName},
		{"blank name line", "\nVIA Character Strengths Profile", UnknownName},
	}
	p := NewParser(DefaultMarker)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.ParseText(tt.text).Name)
		})
	}
}

func TestParseText_RankingTolerance(t *testing.T) {
	text := "Intro\n3. Zest\n1. Hope\n1. Humor\nnot a rank 4.Kindness\n12. Teamwork  \n"
	res := NewParser(DefaultMarker).ParseText(text)

	// out of order is kept, duplicates keep the first occurrence
	assert.Equal(t, domain.StrengthRanking{
		{Rank: 3, Strength: "Zest"},
		{Rank: 1, Strength: "Hope"},
		{Rank: 12, Strength: "Teamwork"},
	}, res.Ranking)
}

func TestParseText_NoRanking(t *testing.T) {
	res := NewParser(DefaultMarker).ParseText("Jane Doe\nVIA Character Strengths Profile\n")

	assert.NotNil(t, res.Ranking)
	assert.Empty(t, res.Ranking)
}

func TestParseText_CustomMarker(t *testing.T) {
	res := NewParser("Strengths (beta)").ParseText("Ann Lee\nStrengths (beta)\n1. Hope")

	assert.Equal(t, "Ann Lee", res.Name)
	assert.Len(t, res.Ranking, 1)
}

func TestParseFile_PDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "via.pdf")
	testutil.WritePDF(t, path, [][]string{
		{"Jane Doe", "VIA Character Strengths Profile", "1. Curiosity", "2. Bravery"},
		{"3. Hope"},
	})

	res, err := NewParser(DefaultMarker).ParseFile(path)
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", res.Name)
	assert.Equal(t, domain.StrengthRanking{
		{Rank: 1, Strength: "Curiosity"},
		{Rank: 2, Strength: "Bravery"},
		{Rank: 3, Strength: "Hope"},
	}, res.Ranking)
}

func TestParseFile_Unreadable(t *testing.T) {
	dir := t.TempDir()

	_, err := NewParser(DefaultMarker).ParseFile(filepath.Join(dir, "missing.pdf"))
	assert.True(t, errors.Is(err, domain.ErrSurveyUnreadable))

	bad := filepath.Join(dir, "bad.pdf")
	writeFile(t, bad, "this is not a PDF")
	_, err = NewParser(DefaultMarker).ParseFile(bad)
	assert.True(t, errors.Is(err, domain.ErrSurveyUnreadable))
}

func TestReadText_OneLinePerRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "via.pdf")
	testutil.WritePDF(t, path, [][]string{
		{"Jane Doe", "VIA Character Strengths Profile", "1. Curiosity", "2. Bravery"},
		{"3. Hope"},
	})

	text, err := ReadText(path)
	require.NoError(t, err)

	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	assert.Equal(t, []string{
		"Jane Doe", "VIA Character Strengths Profile", "1. Curiosity", "2. Bravery", "3. Hope",
	}, lines)
}
