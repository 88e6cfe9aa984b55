package document

import (
	"errors"
	"testing"

	"workbook-generator/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var openPages = map[Role]int{RoleCover: 0, RoleSurvey: 4, RoleStrengths: 8, RoleConflict: 11}

func TestPlan_DefaultWiring(t *testing.T) {
	segs, err := Plan(14, openPages)
	require.NoError(t, err)

	assert.Equal(t, []Segment{
		{Role: RoleCover, From: 0, To: 0},
		{From: 1, To: 3},
		{Role: RoleSurvey, From: 4, To: 4},
		{From: 5, To: 7},
		{Role: RoleStrengths, From: 8, To: 8},
		{From: 9, To: 10},
		{Role: RoleConflict, From: 11, To: 11},
		{From: 12, To: 13},
	}, segs)
}

func TestPlan_AdjacentInserts(t *testing.T) {
	segs, err := Plan(4, map[Role]int{RoleCover: 0, RoleSurvey: 1, RoleStrengths: 2, RoleConflict: 3})
	require.NoError(t, err)

	require.Len(t, segs, 4)
	for _, s := range segs {
		assert.True(t, s.IsInsert())
	}
}

func TestPlan_IndexOutOfRange(t *testing.T) {
	_, err := Plan(11, openPages)
	assert.True(t, errors.Is(err, domain.ErrLayoutInvalid))

	_, err = Plan(0, openPages)
	assert.True(t, errors.Is(err, domain.ErrLayoutInvalid))
}

func TestOutputPages(t *testing.T) {
	segs, err := Plan(14, openPages)
	require.NoError(t, err)

	tests := []struct {
		name    string
		inserts map[Role]int
		want    int
	}{
		{"one page each", map[Role]int{RoleCover: 1, RoleSurvey: 1, RoleStrengths: 1, RoleConflict: 1}, 14},
		{"multi page", map[Role]int{RoleCover: 1, RoleSurvey: 3, RoleStrengths: 2, RoleConflict: 1}, 14 - 4 + 7},
		{"empty inserts", map[Role]int{}, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OutputPages(segs, tt.inserts))
		})
	}
}
