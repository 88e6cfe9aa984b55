package main

// render_template writes the filled HTML of every page template to a
// directory so template edits can be previewed in a browser without a
// converter. An optional JSON sample replaces the built-in participant:
//
//	{"name": "Jane Doe", "date": "Spring 2025", "cohort": "Cohort 7",
//	 "ranking": [{"rank": 1, "strength": "Curiosity"}],
//	 "scores": {"Collaborating": 12, "Competing": 5}}

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"workbook-generator/internal/domain"
	"workbook-generator/internal/filler"
	"workbook-generator/internal/logger"
	"workbook-generator/internal/model"

	"go.uber.org/zap"
)

type sample struct {
	Name    string                     `json:"name"`
	Date    string                     `json:"date"`
	Cohort  string                     `json:"cohort"`
	Ranking domain.StrengthRanking     `json:"ranking"`
	Scores  domain.ConflictScoreVector `json:"scores"`
}

var builtin = sample{
	Name:   "Jane Doe",
	Date:   "Spring 2025",
	Cohort: "Preview Cohort",
	Ranking: domain.StrengthRanking{
		{Rank: 1, Strength: "Curiosity"},
		{Rank: 2, Strength: "Bravery"},
		{Rank: 3, Strength: "Love of learning"},
		{Rank: 4, Strength: "Hope"},
	},
	Scores: domain.ConflictScoreVector{
		domain.Collaborating: 12,
		domain.Competing:     5,
		domain.Avoiding:      7,
		domain.Accommodating: 9,
		domain.Compromising:  8,
	},
}

func main() {
	in := flag.String("sample", "", "JSON sample participant (optional)")
	templates := flag.String("templates", "templates", "templates directory")
	out := flag.String("out", filepath.Join("output", "preview"), "output directory")
	flag.Parse()

	log := logger.New("info", "console")
	defer func() { _ = log.Sync() }()

	s := builtin
	if *in != "" {
		b, err := os.ReadFile(*in)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read sample: %v\n", err)
			os.Exit(2)
		}
		if err := json.Unmarshal(b, &s); err != nil {
			fmt.Fprintf(os.Stderr, "unmarshal sample: %v\n", err)
			os.Exit(2)
		}
	}

	ref, err := model.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load reference: %v\n", err)
		os.Exit(2)
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create out: %v\n", err)
		os.Exit(2)
	}

	f := filler.New(nil, ref, filler.Options{TemplatesDir: *templates, OutputDir: *out}, log)
	pages := map[filler.Kind]map[string]any{
		filler.KindCover:     filler.CoverContext(s.Name, s.Date, s.Cohort),
		filler.KindSweetSpot: filler.StrengthsContext(ref, s.Name, s.Ranking, filler.DefaultSlots, log),
		filler.KindConflict:  filler.ConflictContext(s.Name, s.Scores),
	}
	for kind, data := range pages {
		html, err := f.Render(kind, data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "render %s: %v\n", kind, err)
			os.Exit(2)
		}
		path := filepath.Join(*out, filler.SafeName(s.Name)+"_"+string(kind)+".html")
		if err := os.WriteFile(path, html, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", path, err)
			os.Exit(2)
		}
		log.Info("wrote preview", zap.String("path", path))
	}
}
