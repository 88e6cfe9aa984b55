package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"workbook-generator/internal/document"
	"workbook-generator/internal/domain"
	"workbook-generator/internal/matcher"
	"workbook-generator/internal/metrics"
	"workbook-generator/internal/scoring"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SurveyParser reads one survey document.
type SurveyParser interface {
	ParseFile(path string) (domain.SurveyResult, error)
}

// RosterReader loads the roster table.
type RosterReader interface {
	Read(path string) (*domain.Roster, error)
}

// PageFiller produces the three generated pages as PDF files.
type PageFiller interface {
	Cover(ctx context.Context, name, date, cohort string) (string, error)
	SweetSpot(ctx context.Context, name string, ranking domain.StrengthRanking) (string, error)
	Conflict(ctx context.Context, name string, scores domain.ConflictScoreVector) (string, error)
}

// Deps wires a Processor.
type Deps struct {
	Parser       SurveyParser
	Rosters      RosterReader
	Filler       PageFiller
	Scorer       *scoring.Engine
	Matcher      *matcher.Matcher
	Assembler    *document.Assembler
	Paginator    *document.Paginator
	Layouts      document.Layouts
	ResourcesDir string
	OutputDir    string
	Log          *zap.Logger
}

// Processor runs workbook generation one request at a time. Generated
// files are keyed by participant name, so concurrent runs for the same
// name would overwrite each other.
type Processor struct {
	parser       SurveyParser
	rosters      RosterReader
	filler       PageFiller
	scorer       *scoring.Engine
	matcher      *matcher.Matcher
	assembler    *document.Assembler
	paginator    *document.Paginator
	layouts      document.Layouts
	resourcesDir string
	outputDir    string
	log          *zap.Logger
	newRunID     func() string
}

func NewProcessor(d Deps) *Processor {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{
		parser:       d.Parser,
		rosters:      d.Rosters,
		filler:       d.Filler,
		scorer:       d.Scorer,
		matcher:      d.Matcher,
		assembler:    d.Assembler,
		paginator:    d.Paginator,
		layouts:      d.Layouts,
		resourcesDir: d.ResourcesDir,
		outputDir:    d.OutputDir,
		log:          log,
		newRunID:     func() string { return uuid.New().String() },
	}
}

// GenerateSingle builds the workbook for one participant. Any failure is
// returned as is; callers tell input from environment errors with
// domain.IsEnvironment.
func (p *Processor) GenerateSingle(ctx context.Context, req SingleRequest) (*SingleResult, error) {
	runID := p.newRunID()
	name := strings.TrimSpace(req.ParticipantName)
	log := p.log.With(zap.String("run_id", runID), zap.String("participant", name))

	if name == "" {
		return nil, fmt.Errorf("%w: participant name is empty", domain.ErrParticipantNotFound)
	}
	layout, err := p.layouts.Variant(req.Variant)
	if err != nil {
		return nil, err
	}
	roster, err := p.rosters.Read(req.RosterPath)
	if err != nil {
		return nil, err
	}
	p.scorer.CheckColumns(roster)

	survey, err := p.parser.ParseFile(req.SurveyPath)
	if err != nil {
		return nil, err
	}
	if !p.matcher.IsMatch(name, survey.Name) {
		log.Warn("survey name differs from participant name", zap.String("survey_name", survey.Name))
	}

	rec, err := p.findParticipant(roster, name)
	if err != nil {
		return nil, err
	}
	if rec.Name != name {
		log.Info("roster row matched by similarity", zap.String("roster_name", rec.Name))
	}

	workbook, err := p.buildWorkbook(ctx, participant{
		Name:       name,
		Date:       strings.TrimSpace(req.Date),
		Cohort:     strings.TrimSpace(req.Cohort),
		SurveyPath: req.SurveyPath,
		Ranking:    survey.Ranking,
		Answers:    rec.Answers,
	}, layout)
	if err != nil {
		metrics.ParticipantFailures.WithLabelValues(stageOf(err)).Inc()
		return nil, err
	}

	metrics.WorkbooksGenerated.WithLabelValues(string(ModeIndividual)).Inc()
	return &SingleResult{RunID: runID, Participant: name, Workbook: workbook}, nil
}

// findParticipant looks the name up exactly, then by best similarity at or
// above the matcher threshold.
func (p *Processor) findParticipant(roster *domain.Roster, name string) (domain.ParticipantRecord, error) {
	if rec, ok := roster.Find(name); ok {
		return rec, nil
	}
	best, bestScore := -1, -1
	for i, rec := range roster.Participants {
		if s := p.matcher.Score(name, rec.Name); s >= p.matcher.Threshold() && s > bestScore {
			best, bestScore = i, s
		}
	}
	if best < 0 {
		return domain.ParticipantRecord{}, fmt.Errorf("%w: %q", domain.ErrParticipantNotFound, name)
	}
	return roster.Participants[best], nil
}

// surveySet is the parsed batch surveys keyed by file name.
type surveySet struct {
	candidates []matcher.Candidate
	records    map[string]domain.ParticipantRecord
	results    map[string]domain.SurveyResult
	unreadable []domain.UnreadableSurvey
}

func (p *Processor) parseSurveys(paths []string) surveySet {
	set := surveySet{
		records:    map[string]domain.ParticipantRecord{},
		results:    map[string]domain.SurveyResult{},
		unreadable: []domain.UnreadableSurvey{},
	}
	for _, path := range paths {
		file := filepath.Base(path)
		if _, dup := set.records[file]; dup {
			p.log.Warn("duplicate survey file name, keeping first", zap.String("file", file))
			continue
		}
		res, err := p.parser.ParseFile(path)
		if err != nil {
			p.log.Warn("survey unreadable", zap.String("file", file), zap.Error(err))
			set.unreadable = append(set.unreadable, domain.UnreadableSurvey{File: file, Reason: err.Error()})
			continue
		}
		set.records[file] = domain.ParticipantRecord{Name: res.Name, Source: domain.SourceSurvey, File: path}
		set.results[file] = res
		set.candidates = append(set.candidates, matcher.Candidate{File: file, Name: res.Name})
	}
	return set
}

// MatchBatch pairs roster names with survey documents without generating
// anything.
func (p *Processor) MatchBatch(rosterPath string, surveyPaths []string) (domain.MatchResult, error) {
	roster, err := p.rosters.Read(rosterPath)
	if err != nil {
		return domain.MatchResult{}, err
	}
	set := p.parseSurveys(surveyPaths)
	res := p.match(roster, set)
	return res, nil
}

func (p *Processor) match(roster *domain.Roster, set surveySet) domain.MatchResult {
	res := p.matcher.Pair(roster.Names(), set.candidates)
	res.Unreadable = set.unreadable

	metrics.MatchOutcomes.WithLabelValues("matched").Add(float64(len(res.Matched)))
	metrics.MatchOutcomes.WithLabelValues("missing_pdf").Add(float64(len(res.MissingPDF)))
	metrics.MatchOutcomes.WithLabelValues("missing_csv").Add(float64(len(res.MissingCSV)))
	metrics.MatchOutcomes.WithLabelValues("unreadable").Add(float64(len(res.Unreadable)))
	return res
}

// GenerateBatch matches surveys to the roster and builds a workbook per
// matched pair, in roster order. A participant's failure is recorded in the
// summary and the batch goes on; an environment error stops the batch and
// is returned with the summary so far.
func (p *Processor) GenerateBatch(ctx context.Context, req BatchRequest) (*BatchSummary, error) {
	runID := p.newRunID()
	log := p.log.With(zap.String("run_id", runID))

	layout, err := p.layouts.Variant(req.Variant)
	if err != nil {
		return nil, err
	}
	roster, err := p.rosters.Read(req.RosterPath)
	if err != nil {
		return nil, err
	}
	p.scorer.CheckColumns(roster)

	set := p.parseSurveys(req.SurveyPaths)
	summary := newBatchSummary(runID, p.match(roster, set))
	log.Info("batch matched",
		zap.Int("matched", len(summary.Matched)),
		zap.Int("missing_pdf", len(summary.MissingPDF)),
		zap.Int("missing_csv", len(summary.MissingCSV)),
		zap.Int("unreadable", len(summary.Unreadable)))

	for _, pair := range summary.Matched {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		rec, ok := roster.Find(pair.CSVName)
		if !ok {
			// Pair only returns roster names
			summary.NameMismatches = append(summary.NameMismatches, domain.Mismatch{
				CSVName: pair.CSVName, PDFName: pair.PDFName, Reason: domain.ErrParticipantNotFound.Error(),
			})
			continue
		}

		workbook, err := p.buildWorkbook(ctx, participant{
			Name:       pair.CSVName,
			Date:       strings.TrimSpace(req.Date),
			Cohort:     strings.TrimSpace(req.Cohort),
			SurveyPath: set.records[pair.PDFFile].File,
			Ranking:    set.results[pair.PDFFile].Ranking,
			Answers:    rec.Answers,
		}, layout)
		if err != nil {
			metrics.ParticipantFailures.WithLabelValues(stageOf(err)).Inc()
			if domain.IsEnvironment(err) || errors.Is(err, context.Canceled) {
				log.Error("batch aborted", zap.String("participant", pair.CSVName), zap.Error(err))
				return summary, err
			}
			log.Error("participant failed", zap.String("participant", pair.CSVName), zap.Error(err))
			summary.NameMismatches = append(summary.NameMismatches, domain.Mismatch{
				CSVName: pair.CSVName, PDFName: pair.PDFName, Reason: err.Error(),
			})
			continue
		}
		summary.Generated = append(summary.Generated, workbook)
		metrics.WorkbooksGenerated.WithLabelValues(string(ModeBatch)).Inc()
	}
	return summary, nil
}
