// Package preflight runs the startup checks for the workbook environment.
// A failed required check means no workbook can be produced, so the
// process stops before serving.
package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"workbook-generator/internal/document"
	"workbook-generator/internal/domain"

	"go.uber.org/zap"
)

// Check is one named startup check.
type Check struct {
	Name string
	// Required checks abort startup; others only log a warning.
	Required bool
	Run      func(ctx context.Context) error
}

// ConverterChecker reports whether the converter can run on this host.
type ConverterChecker interface {
	Check(ctx context.Context) error
}

// Run executes checks in order and returns the first required failure.
func Run(ctx context.Context, log *zap.Logger, checks []Check) error {
	log.Info("running preflight checks", zap.Int("count", len(checks)))
	for _, c := range checks {
		if err := c.Run(ctx); err != nil {
			if c.Required {
				log.Error("preflight check failed", zap.String("name", c.Name), zap.Error(err))
				return fmt.Errorf("preflight %s: %w", c.Name, err)
			}
			log.Warn("preflight check failed", zap.String("name", c.Name), zap.Error(err))
			continue
		}
		log.Info("preflight check passed", zap.String("name", c.Name))
	}
	return nil
}

// Options locate what the standard checks look at.
type Options struct {
	Converter     ConverterChecker
	TemplatesDir  string
	TemplateFiles []string
	ResourcesDir  string
	Layouts       document.Layouts
	OutputDir     string
}

// Standard returns the checks a server or CLI run needs.
func Standard(o Options) []Check {
	return []Check{
		{
			Name:     "converter_available",
			Required: true,
			Run: func(ctx context.Context) error {
				return o.Converter.Check(ctx)
			},
		},
		{
			Name:     "page_templates_present",
			Required: true,
			Run: func(context.Context) error {
				return filesExist(o.TemplatesDir, o.TemplateFiles)
			},
		},
		{
			Name:     "output_dir_writable",
			Required: true,
			Run: func(context.Context) error {
				return writable(o.OutputDir)
			},
		},
		{
			// a missing variant only fails requests for that variant
			Name: "workbook_templates_present",
			Run: func(context.Context) error {
				var errs []error
				for _, name := range o.Layouts.Names() {
					l := o.Layouts[name]
					if err := filesExist(o.ResourcesDir, []string{l.Template}); err != nil {
						errs = append(errs, fmt.Errorf("variant %s: %w", name, err))
					}
				}
				return errors.Join(errs...)
			},
		},
	}
}

func filesExist(dir string, names []string) error {
	for _, n := range names {
		p := filepath.Join(dir, n)
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("%w: %s", domain.ErrTemplateMissing, p)
		}
		if info.IsDir() {
			return fmt.Errorf("%w: %s is a directory", domain.ErrTemplateMissing, p)
		}
	}
	return nil
}

func writable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, ".preflight-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", dir, err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
