package filler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"workbook-generator/internal/domain"
	"workbook-generator/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var repoTemplates = filepath.Join("..", "..", "templates")

// fakeConverter writes a minimal PDF next to the input, failing the first
// failures calls with err.
type fakeConverter struct {
	calls    int
	failures int
	err      error
	body     string
	inputs   []string
}

func (c *fakeConverter) ConvertToPDF(_ context.Context, inputPath, outDir string) (string, error) {
	c.calls++
	c.inputs = append(c.inputs, inputPath)
	if c.calls <= c.failures {
		return "", c.err
	}
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	out := filepath.Join(outDir, base+".pdf")
	body := c.body
	if body == "" {
		body = "%PDF-1.4\n%%EOF\n"
	}
	if err := os.WriteFile(out, []byte(body), 0o644); err != nil {
		return "", err
	}
	return out, nil
}

func newFiller(t *testing.T, conv Converter) (*Filler, string) {
	t.Helper()
	ref, err := model.Load()
	require.NoError(t, err)
	out := t.TempDir()
	f := New(conv, ref, Options{
		TemplatesDir: repoTemplates,
		OutputDir:    out,
		Attempts:     3,
		Backoff:      time.Millisecond,
		Timeout:      time.Second,
	}, nil)
	return f, out
}

func TestSafeName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Jane Doe", "Jane_Doe"},
		{"  Jane  Doe ", "Jane__Doe"},
		{"a/b\\c", "abc"},
		{"../etc", "etc"},
		{"", "participant"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SafeName(tt.in), tt.in)
	}
}

func TestStrengthsContext_ShortRanking(t *testing.T) {
	ref, err := model.Load()
	require.NoError(t, err)

	data := StrengthsContext(ref, "Jane Doe", domain.StrengthRanking{
		{Rank: 2, Strength: "bravery"},
		{Rank: 1, Strength: "Curiosity"},
	}, DefaultSlots, nil)

	assert.Len(t, data, 1+4*DefaultSlots)
	assert.Equal(t, "Jane Doe", data["name"])
	assert.Equal(t, "Curiosity", data["strength1"])
	assert.Equal(t, "Bravery", data["strength2"])

	curiosity, _ := ref.Strength("Curiosity")
	assert.Equal(t, curiosity.Optimal, data["optimal1"])
	assert.NotEmpty(t, data["overuse2"])

	for i := 3; i <= DefaultSlots; i++ {
		for _, key := range []string{"strength", "underuse", "optimal", "overuse"} {
			v, ok := data[fmt.Sprintf("%s%d", key, i)]
			require.True(t, ok, "%s%d missing", key, i)
			assert.Equal(t, "", v)
		}
	}
}

func TestStrengthsContext_TitleCaseAndUnknown(t *testing.T) {
	ref, err := model.Load()
	require.NoError(t, err)

	data := StrengthsContext(ref, "x", domain.StrengthRanking{
		{Rank: 1, Strength: "love of learning"},
		{Rank: 2, Strength: "SELF-REGULATION"},
		{Rank: 3, Strength: "Wisdom Of Crowds"},
	}, DefaultSlots, nil)

	assert.Equal(t, "Love Of Learning", data["strength1"])
	assert.NotEmpty(t, data["underuse1"])
	assert.Equal(t, "Self-Regulation", data["strength2"])
	assert.NotEmpty(t, data["optimal2"])
	assert.Equal(t, "Wisdom Of Crowds", data["strength3"])
	assert.Equal(t, "", data["underuse3"])
}

func TestStrengthsContext_TruncatesLongRanking(t *testing.T) {
	ref, err := model.Load()
	require.NoError(t, err)

	var ranking domain.StrengthRanking
	for i, name := range ref.StrengthNames() {
		ranking = append(ranking, domain.StrengthEntry{Rank: i + 1, Strength: name})
	}
	ranking = append(ranking, domain.StrengthEntry{Rank: 25, Strength: "Extra"})

	data := StrengthsContext(ref, "x", ranking, DefaultSlots, nil)
	assert.Len(t, data, 1+4*DefaultSlots)
	assert.NotContains(t, data, "strength25")
}

func TestConflictContext(t *testing.T) {
	scores := domain.NewConflictScoreVector()
	scores[domain.Collaborating] = 12
	scores[domain.Compromising] = 3

	data := ConflictContext("Jane Doe", scores)

	assert.Equal(t, map[string]any{
		"name": "Jane Doe", "Col": 12, "Com": 0, "Avo": 0, "Acc": 0, "Co2": 3,
	}, data)
}

func TestRender_SweetSpotHasAllRows(t *testing.T) {
	f, _ := newFiller(t, &fakeConverter{})
	ref, err := model.Load()
	require.NoError(t, err)

	data := StrengthsContext(ref, "Jane Doe", domain.StrengthRanking{{Rank: 1, Strength: "Curiosity"}}, DefaultSlots, nil)
	html, err := f.Render(KindSweetSpot, data)
	require.NoError(t, err)

	assert.Contains(t, string(html), "Jane Doe")
	assert.Contains(t, string(html), "Curiosity")
	assert.Equal(t, DefaultSlots, strings.Count(string(html), `class="rank"`))
}

func TestRender_MissingPlaceholderFails(t *testing.T) {
	f, _ := newFiller(t, &fakeConverter{})

	_, err := f.Render(KindCover, map[string]any{"name": "Jane"})
	assert.Error(t, err)
}

func TestFill_WritesPDFAndRemovesIntermediate(t *testing.T) {
	conv := &fakeConverter{}
	f, out := newFiller(t, conv)

	path, err := f.Cover(context.Background(), "Jane Doe", "2025-03-01", "Spring")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(out, "Jane_Doe_Cover.pdf"), path)
	assert.Equal(t, f.PDFPath("Jane Doe", KindCover), path)
	assert.FileExists(t, path)
	assert.NoFileExists(t, filepath.Join(out, "Jane_Doe_Cover.html"))
	require.Len(t, conv.inputs, 1)
	assert.Equal(t, ".html", filepath.Ext(conv.inputs[0]))
}

// exportConverter names its output "export.pdf" whatever the input.
type exportConverter struct{}

func (exportConverter) ConvertToPDF(_ context.Context, _, outDir string) (string, error) {
	out := filepath.Join(outDir, "export.pdf")
	return out, os.WriteFile(out, []byte("%PDF-1.4\n%%EOF\n"), 0o644)
}

func TestFill_MovesConverterOutputToPDFPath(t *testing.T) {
	f, out := newFiller(t, exportConverter{})

	path, err := f.Cover(context.Background(), "Jane Doe", "2025-03-01", "Spring")
	require.NoError(t, err)

	assert.Equal(t, f.PDFPath("Jane Doe", KindCover), path)
	assert.FileExists(t, path)
	assert.NoFileExists(t, filepath.Join(out, "export.pdf"))
}

func TestFill_ConflictAndSweetSpotNames(t *testing.T) {
	f, out := newFiller(t, &fakeConverter{})
	ctx := context.Background()

	p1, err := f.Conflict(ctx, "Jane Doe", domain.NewConflictScoreVector())
	require.NoError(t, err)
	p2, err := f.SweetSpot(ctx, "Jane Doe", nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(out, "Jane_Doe_ConflictStyle3.pdf"), p1)
	assert.Equal(t, filepath.Join(out, "Jane_Doe_SweetSpot.pdf"), p2)
}

func TestFill_MissingTemplate(t *testing.T) {
	conv := &fakeConverter{}
	f, _ := newFiller(t, conv)
	f.opts.TemplatesDir = t.TempDir()

	_, err := f.Cover(context.Background(), "Jane", "d", "c")

	assert.True(t, errors.Is(err, domain.ErrTemplateMissing))
	assert.True(t, domain.IsEnvironment(err))
	assert.Zero(t, conv.calls)
}

func TestFill_ConverterUnavailableIsNotRetried(t *testing.T) {
	conv := &fakeConverter{failures: 10, err: fmt.Errorf("%w: soffice", domain.ErrConverterUnavailable)}
	f, _ := newFiller(t, conv)

	_, err := f.Cover(context.Background(), "Jane", "d", "c")

	var convErr *ConversionError
	require.True(t, errors.As(err, &convErr))
	assert.True(t, domain.IsEnvironment(err))
	assert.Equal(t, 1, conv.calls)
}

func TestFill_RetriesTransientFailure(t *testing.T) {
	conv := &fakeConverter{failures: 2, err: errors.New("exit status 1")}
	f, _ := newFiller(t, conv)

	path, err := f.Cover(context.Background(), "Jane", "d", "c")

	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, 3, conv.calls)
}

func TestFill_RejectsNonPDFOutput(t *testing.T) {
	conv := &fakeConverter{body: "<html>oops</html>"}
	f, out := newFiller(t, conv)

	_, err := f.Cover(context.Background(), "Jane", "d", "c")

	require.Error(t, err)
	assert.False(t, domain.IsEnvironment(err))
	assert.Equal(t, 3, conv.calls)
	// the filled document is kept for inspection
	assert.FileExists(t, filepath.Join(out, "Jane_Cover.html"))
}
