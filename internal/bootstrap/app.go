// Package bootstrap wires the generation pipeline from configuration. The
// HTTP server and the CLI share it.
package bootstrap

import (
	"context"
	"fmt"

	"workbook-generator/internal/adapter/repository"
	"workbook-generator/internal/config"
	"workbook-generator/internal/document"
	"workbook-generator/internal/filler"
	"workbook-generator/internal/infrastructure/preflight"
	"workbook-generator/internal/matcher"
	"workbook-generator/internal/model"
	"workbook-generator/internal/scoring"
	"workbook-generator/internal/survey"
	"workbook-generator/internal/usecase"
	infra "workbook-generator/pkg/infrastructure"

	"go.uber.org/zap"
)

// Converter is a document converter that can also verify its own
// availability.
type Converter interface {
	filler.Converter
	preflight.ConverterChecker
	Name() string
}

// App holds the wired components.
type App struct {
	Config    *config.Config
	Log       *zap.Logger
	Reference *model.Reference
	Layouts   document.Layouts
	Converter Converter
	Processor *usecase.Processor
	Store     *repository.ArtifactStore
}

// NewConverter builds the converter selected by cfg.Converter.Kind.
func NewConverter(cfg *config.Config, log *zap.Logger) (Converter, error) {
	switch cfg.Converter.Kind {
	case config.ConverterSoffice:
		return infra.NewSofficeConverter(log), nil
	case config.ConverterChromedp:
		c := cfg.Converter
		return infra.NewChromedpConverter(c.ChromePath, c.PaperWidth, c.PaperHeight, log), nil
	default:
		return nil, fmt.Errorf("unknown converter kind %q", cfg.Converter.Kind)
	}
}

// New loads the reference data and layouts and wires every component.
func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	ref, err := model.Load()
	if err != nil {
		return nil, fmt.Errorf("load reference data: %w", err)
	}
	layouts, err := document.LoadLayouts(cfg.Layouts.File)
	if err != nil {
		return nil, fmt.Errorf("load layouts: %w", err)
	}
	conv, err := NewConverter(cfg, log)
	if err != nil {
		return nil, err
	}
	parser, err := survey.NewCachedParser(survey.NewParser(cfg.Survey.Marker), cfg.Survey.CacheSize)
	if err != nil {
		return nil, err
	}

	fill := filler.New(conv, ref, filler.Options{
		TemplatesDir:  cfg.Paths.TemplatesDir,
		OutputDir:     cfg.Paths.OutputDir,
		ConverterName: conv.Name(),
		Timeout:       cfg.Converter.Timeout,
		Attempts:      cfg.Converter.Attempts,
		Slots:         cfg.Survey.Slots,
	}, log.Named("filler"))

	proc := usecase.NewProcessor(usecase.Deps{
		Parser:       parser,
		Rosters:      repository.NewRosterReader(ref.NameColumn(), log.Named("roster")),
		Filler:       fill,
		Scorer:       scoring.NewEngine(ref, log.Named("scoring")),
		Matcher:      matcher.New(cfg.Matcher.Threshold, cfg.Matcher.Normalize),
		Assembler:    document.NewAssembler(log.Named("assembler")),
		Paginator:    document.NewPaginator(log.Named("paginator")),
		Layouts:      layouts,
		ResourcesDir: cfg.Paths.ResourcesDir,
		OutputDir:    cfg.Paths.OutputDir,
		Log:          log.Named("processor"),
	})

	return &App{
		Config:    cfg,
		Log:       log,
		Reference: ref,
		Layouts:   layouts,
		Converter: conv,
		Processor: proc,
		Store:     repository.NewArtifactStore(cfg.Paths.OutputDir, log.Named("artifacts")),
	}, nil
}

// Preflight creates the output directory and runs the startup checks.
func (a *App) Preflight(ctx context.Context) error {
	if err := a.Store.Ensure(); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return preflight.Run(ctx, a.Log.Named("preflight"), preflight.Standard(preflight.Options{
		Converter:     a.Converter,
		TemplatesDir:  a.Config.Paths.TemplatesDir,
		TemplateFiles: filler.TemplateFiles(),
		ResourcesDir:  a.Config.Paths.ResourcesDir,
		Layouts:       a.Layouts,
		OutputDir:     a.Config.Paths.OutputDir,
	}))
}
