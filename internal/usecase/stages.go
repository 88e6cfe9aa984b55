package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"workbook-generator/internal/document"
	"workbook-generator/internal/domain"
	"workbook-generator/internal/filler"

	"go.uber.org/zap"
)

// Pipeline stage names, reported in StageError and failure metrics.
const (
	StageCover     = "cover"
	StageSweetSpot = "sweet_spot"
	StageConflict  = "conflict"
	StageAssemble  = "assemble"
	StagePaginate  = "paginate"
	StageWrite     = "write"
)

// StageError tells which pipeline stage failed for a participant.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// stageOf returns the failed stage of err, or "" if err carries none.
func stageOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// buildWorkbook runs the page pipeline for one participant and writes
// <Safe>_workbook.pdf. Any stage failure abandons the participant; nothing
// is written unless every stage succeeded.
func (p *Processor) buildWorkbook(ctx context.Context, in participant, layout document.Layout) (string, error) {
	log := p.log.With(zap.String("participant", in.Name))

	coverPDF, err := p.filler.Cover(ctx, in.Name, in.Date, in.Cohort)
	if err != nil {
		return "", &StageError{Stage: StageCover, Err: err}
	}
	sweetPDF, err := p.filler.SweetSpot(ctx, in.Name, in.Ranking)
	if err != nil {
		return "", &StageError{Stage: StageSweetSpot, Err: err}
	}
	conflictPDF, err := p.filler.Conflict(ctx, in.Name, p.scorer.Score(in.Answers))
	if err != nil {
		return "", &StageError{Stage: StageConflict, Err: err}
	}
	log.Debug("pages generated")

	template, err := os.ReadFile(filepath.Join(p.resourcesDir, layout.Template))
	if err != nil {
		return "", &StageError{Stage: StageAssemble, Err: fmt.Errorf("%w: %s: %v", domain.ErrTemplateMissing, layout.Template, err)}
	}
	inserts := map[document.Role][]byte{}
	for role, path := range map[document.Role]string{
		document.RoleCover:     coverPDF,
		document.RoleSurvey:    in.SurveyPath,
		document.RoleStrengths: sweetPDF,
		document.RoleConflict:  conflictPDF,
	} {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", &StageError{Stage: StageAssemble, Err: fmt.Errorf("%w: %s: %v", domain.ErrInsertEmpty, role, err)}
		}
		inserts[role] = data
	}

	merged, err := p.assembler.Assemble(template, layout, inserts)
	if err != nil {
		return "", &StageError{Stage: StageAssemble, Err: err}
	}
	numbered, err := p.paginator.Paginate(merged, layout.Pagination)
	if err != nil {
		return "", &StageError{Stage: StagePaginate, Err: err}
	}

	name := filler.SafeName(in.Name) + "_workbook.pdf"
	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return "", &StageError{Stage: StageWrite, Err: err}
	}
	if err := os.WriteFile(filepath.Join(p.outputDir, name), numbered, 0o644); err != nil {
		return "", &StageError{Stage: StageWrite, Err: err}
	}
	log.Info("workbook written", zap.String("file", name))
	return name, nil
}
