package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"workbook-generator/internal/document"
	"workbook-generator/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

type stubConverter struct{ err error }

func (s stubConverter) Check(context.Context) error { return s.err }

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o600))
	}
}

func options(t *testing.T) Options {
	t.Helper()
	tpl, res := t.TempDir(), t.TempDir()
	touch(t, tpl, "cover.html", "conflict.html")
	touch(t, res, "bigTemplate.pdf")
	ls, err := document.LoadLayouts("")
	require.NoError(t, err)
	return Options{
		Converter:     stubConverter{},
		TemplatesDir:  tpl,
		TemplateFiles: []string{"cover.html", "conflict.html"},
		ResourcesDir:  res,
		Layouts:       ls,
		OutputDir:     filepath.Join(t.TempDir(), "out"),
	}
}

func TestRun_StandardPasses(t *testing.T) {
	o := options(t)

	// Team and Tiny templates are absent but that is only a warning
	err := Run(context.Background(), zaptest.NewLogger(t), Standard(o))
	require.NoError(t, err)
	assert.DirExists(t, o.OutputDir)
}

func TestRun_ConverterMissingIsFatal(t *testing.T) {
	o := options(t)
	o.Converter = stubConverter{err: domain.ErrConverterUnavailable}

	err := Run(context.Background(), zap.NewNop(), Standard(o))
	assert.True(t, errors.Is(err, domain.ErrConverterUnavailable))
}

func TestRun_PageTemplateMissingIsFatal(t *testing.T) {
	o := options(t)
	o.TemplateFiles = append(o.TemplateFiles, "sweet_spot.html")

	err := Run(context.Background(), zap.NewNop(), Standard(o))
	assert.True(t, errors.Is(err, domain.ErrTemplateMissing))
}

func TestRun_StopsAtFirstRequiredFailure(t *testing.T) {
	var ran []string
	check := func(name string, required bool, err error) Check {
		return Check{Name: name, Required: required, Run: func(context.Context) error {
			ran = append(ran, name)
			return err
		}}
	}

	err := Run(context.Background(), zap.NewNop(), []Check{
		check("a", false, errors.New("soft")),
		check("b", true, errors.New("hard")),
		check("c", true, nil),
	})

	assert.EqualError(t, err, "preflight b: hard")
	assert.Equal(t, []string{"a", "b"}, ran)
}
