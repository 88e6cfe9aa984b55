// Package filler binds participant data into the page templates and has
// them converted to PDF.
package filler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"workbook-generator/internal/domain"
	"workbook-generator/internal/metrics"
	"workbook-generator/internal/model"

	"go.uber.org/zap"
)

// Kind names a generated page. It is also the file name suffix.
type Kind string

const (
	KindCover     Kind = "Cover"
	KindSweetSpot Kind = "SweetSpot"
	KindConflict  Kind = "ConflictStyle3"
)

var templateFiles = map[Kind]string{
	KindCover:     "cover.html",
	KindSweetSpot: "sweet_spot.html",
	KindConflict:  "conflict.html",
}

// TemplateFiles lists the template file names in templates dir.
func TemplateFiles() []string {
	return []string{templateFiles[KindCover], templateFiles[KindSweetSpot], templateFiles[KindConflict]}
}

type Options struct {
	TemplatesDir string
	OutputDir    string
	// ConverterName labels conversion metrics.
	ConverterName string
	Timeout       time.Duration
	Attempts      int
	// Backoff is the wait after the first failed attempt; it doubles.
	Backoff time.Duration
	Slots   int
}

// Filler renders templates and converts them through a Converter.
type Filler struct {
	conv Converter
	ref  *model.Reference
	opts Options
	log  *zap.Logger
}

func New(conv Converter, ref *model.Reference, opts Options, log *zap.Logger) *Filler {
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	if opts.Slots <= 0 {
		opts.Slots = DefaultSlots
	}
	if opts.ConverterName == "" {
		opts.ConverterName = "unknown"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Filler{conv: conv, ref: ref, opts: opts, log: log}
}

// Cover generates <Safe>_Cover.pdf.
func (f *Filler) Cover(ctx context.Context, name, date, cohort string) (string, error) {
	return f.Fill(ctx, KindCover, name, CoverContext(name, date, cohort))
}

// SweetSpot generates <Safe>_SweetSpot.pdf from the participant's ranking.
func (f *Filler) SweetSpot(ctx context.Context, name string, ranking domain.StrengthRanking) (string, error) {
	data := StrengthsContext(f.ref, name, ranking, f.opts.Slots, f.log.With(zap.String("participant", name)))
	return f.Fill(ctx, KindSweetSpot, name, data)
}

// Conflict generates <Safe>_ConflictStyle3.pdf.
func (f *Filler) Conflict(ctx context.Context, name string, scores domain.ConflictScoreVector) (string, error) {
	return f.Fill(ctx, KindConflict, name, ConflictContext(name, scores))
}

// Fill renders the template for kind with data, writes the filled document
// next to the output and converts it. The filled document is removed once
// the PDF exists.
func (f *Filler) Fill(ctx context.Context, kind Kind, name string, data map[string]any) (string, error) {
	log := f.log.With(zap.String("participant", name), zap.String("page", string(kind)))

	html, err := f.Render(kind, data)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(f.opts.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	htmlPath := filepath.Join(f.opts.OutputDir, fmt.Sprintf("%s_%s.html", SafeName(name), kind))
	if err := os.WriteFile(htmlPath, html, 0o644); err != nil {
		return "", fmt.Errorf("write filled document: %w", err)
	}

	pdfPath, err := f.convert(ctx, htmlPath, log)
	if err != nil {
		return "", err
	}
	// converters name their output after the input; settle it at PDFPath
	if want := f.PDFPath(name, kind); filepath.Clean(pdfPath) != filepath.Clean(want) {
		if err := os.Rename(pdfPath, want); err != nil {
			return "", fmt.Errorf("move converted page: %w", err)
		}
		pdfPath = want
	}
	if err := os.Remove(htmlPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("could not remove filled document", zap.String("path", htmlPath), zap.Error(err))
	}
	log.Info("page generated", zap.String("pdf", pdfPath))
	return pdfPath, nil
}

// Render executes the template for kind. Every placeholder must be present
// in data.
func (f *Filler) Render(kind Kind, data map[string]any) ([]byte, error) {
	file, ok := templateFiles[kind]
	if !ok {
		return nil, fmt.Errorf("unknown page kind %q", kind)
	}
	path := filepath.Join(f.opts.TemplatesDir, file)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrTemplateMissing, path, err)
	}

	slots := f.opts.Slots
	tpl, err := template.New(file).
		Option("missingkey=error").
		Funcs(template.FuncMap{
			"slots": func() []int {
				out := make([]int, slots)
				for i := range out {
					out[i] = i + 1
				}
				return out
			},
			"slot": func(key string, i int) string { return fmt.Sprintf("%s%d", key, i) },
		}).
		ParseFiles(path)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", file, err)
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("fill template %s: %w", file, err)
	}
	return buf.Bytes(), nil
}

func (f *Filler) convert(ctx context.Context, input string, log *zap.Logger) (string, error) {
	var lastErr error
	for i := 0; i < f.opts.Attempts; i++ {
		start := time.Now()
		out, err := f.convertOnce(ctx, input)
		metrics.ConversionDuration.WithLabelValues(f.opts.ConverterName).Observe(time.Since(start).Seconds())
		if err == nil {
			return out, nil
		}
		lastErr = err
		log.Warn("conversion attempt failed", zap.Int("attempt", i+1), zap.Error(err))
		if !retryable(err) {
			break
		}
		if i < f.opts.Attempts-1 {
			backoff := f.opts.Backoff * time.Duration(1<<i)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", &ConversionError{Input: input, Err: ctx.Err()}
			}
		}
	}
	return "", &ConversionError{Input: input, Err: lastErr}
}

func (f *Filler) convertOnce(ctx context.Context, input string) (string, error) {
	if f.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.opts.Timeout)
		defer cancel()
	}
	out, err := f.conv.ConvertToPDF(ctx, input, f.opts.OutputDir)
	if err != nil {
		return "", err
	}
	if err := checkPDF(out); err != nil {
		return "", err
	}
	return out, nil
}

// checkPDF verifies path exists and starts with the PDF signature.
func checkPDF(path string) error {
	fh, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("converter output: %w", err)
	}
	defer fh.Close()

	head := make([]byte, 4)
	if _, err := io.ReadFull(fh, head); err != nil || string(head) != "%PDF" {
		return fmt.Errorf("invalid PDF output %s", path)
	}
	return nil
}

// SafeName makes a participant name usable as a file name prefix: spaces
// become underscores and path separators are dropped.
func SafeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.NewReplacer("/", "", "\\", "", "..", "").Replace(name)
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" {
		return "participant"
	}
	return name
}

// PDFPath is where Fill leaves the PDF for name and kind.
func (f *Filler) PDFPath(name string, kind Kind) string {
	return filepath.Join(f.opts.OutputDir, fmt.Sprintf("%s_%s.pdf", SafeName(name), kind))
}
