package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"workbook-generator/internal/bootstrap"
	"workbook-generator/internal/config"
	"workbook-generator/internal/domain"
	"workbook-generator/internal/logger"
	"workbook-generator/internal/usecase"

	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitFailure     = 1
	exitInput       = 2
	exitEnvironment = 3
)

// CLI holds flags shared by every subcommand.
type CLI struct {
	outputDir string
	converter string
	logLevel  string
	out       io.Writer

	// load is replaced in tests.
	load func() (*config.Config, error)
}

// run is the request shared by single and batch.
type run struct {
	date    string
	cohort  string
	variant string
	surveys []string
	roster  string
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&CLI{out: os.Stdout, load: config.Load})
}

func newRootCommand(cli *CLI) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "workbook",
		Short:         "Generate participant workbooks",
		Long:          "Generate personalized participant workbooks from strengths survey PDFs and a conflict style roster.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cli.outputDir, "output-dir", "o", "", "Directory for generated files (overrides config)")
	rootCmd.PersistentFlags().StringVar(&cli.converter, "converter", "", "Document converter: soffice or chromedp (overrides config)")
	rootCmd.PersistentFlags().StringVar(&cli.logLevel, "log-level", "", "Log level (overrides config)")

	rootCmd.AddCommand(newSingleCommand(cli))
	rootCmd.AddCommand(newBatchCommand(cli))
	rootCmd.AddCommand(newMatchCommand(cli))

	return rootCmd
}

func newSingleCommand(cli *CLI) *cobra.Command {
	var (
		r    run
		name string
	)
	cmd := &cobra.Command{
		Use:   "single",
		Short: "Generate one workbook for a named participant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, ctx, cancel, err := cli.prepare(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer cancel()

			survey := ""
			if len(r.surveys) > 0 {
				survey = r.surveys[0]
			}
			res, err := app.Processor.GenerateSingle(ctx, usecase.SingleRequest{
				ParticipantName: name,
				Date:            r.date,
				Cohort:          r.cohort,
				Variant:         r.variant,
				SurveyPath:      survey,
				RosterPath:      r.roster,
			})
			if err != nil {
				return err
			}
			return cli.print(res)
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Participant name as it appears in the roster")
	addRunFlags(cmd, &r)
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newBatchCommand(cli *CLI) *cobra.Command {
	var r run
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Generate workbooks for every roster name matched to a survey",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, ctx, cancel, err := cli.prepare(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer cancel()

			summary, err := app.Processor.GenerateBatch(ctx, usecase.BatchRequest{
				Date:        r.date,
				Cohort:      r.cohort,
				Variant:     r.variant,
				SurveyPaths: r.surveys,
				RosterPath:  r.roster,
			})
			if summary != nil {
				if perr := cli.print(summary); perr != nil && err == nil {
					err = perr
				}
			}
			return err
		},
	}
	addRunFlags(cmd, &r)
	return cmd
}

func newMatchCommand(cli *CLI) *cobra.Command {
	var (
		surveys []string
		roster  string
	)
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Pair roster names with survey documents without generating anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, cancel, err := cli.prepare(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer cancel()

			res, err := app.Processor.MatchBatch(roster, surveys)
			if err != nil {
				return err
			}
			return cli.print(res)
		},
	}
	cmd.Flags().StringSliceVarP(&surveys, "survey", "s", nil, "Survey PDF (repeatable)")
	cmd.Flags().StringVarP(&roster, "roster", "r", "", "Conflict style roster (CSV or XLSX)")
	_ = cmd.MarkFlagRequired("survey")
	_ = cmd.MarkFlagRequired("roster")
	return cmd
}

func addRunFlags(cmd *cobra.Command, r *run) {
	cmd.Flags().StringVar(&r.date, "date", "", "Date printed on the cover")
	cmd.Flags().StringVar(&r.cohort, "cohort", "", "Cohort printed on the cover")
	cmd.Flags().StringVarP(&r.variant, "template", "t", "Open", "Workbook variant: Open, Team or Tiny")
	cmd.Flags().StringSliceVarP(&r.surveys, "survey", "s", nil, "Survey PDF (repeatable)")
	cmd.Flags().StringVarP(&r.roster, "roster", "r", "", "Conflict style roster (CSV or XLSX)")
	_ = cmd.MarkFlagRequired("survey")
	_ = cmd.MarkFlagRequired("roster")
}

// prepare loads configuration, applies flag overrides and wires the
// pipeline. Generation commands also run the preflight checks.
func (cli *CLI) prepare(parent context.Context, generate bool) (*bootstrap.App, context.Context, context.CancelFunc, error) {
	cfg, err := cli.load()
	if err != nil {
		return nil, nil, nil, err
	}
	if cli.outputDir != "" {
		cfg.Paths.OutputDir = cli.outputDir
	}
	if cli.converter != "" {
		cfg.Converter.Kind = cli.converter
	}
	if cli.logLevel != "" {
		cfg.Log.Level = cli.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	app, err := bootstrap.New(cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	if generate {
		if err := app.Preflight(ctx); err != nil {
			cancel()
			return nil, nil, nil, err
		}
	}
	return app, ctx, func() {
		cancel()
		_ = log.Sync()
	}, nil
}

func (cli *CLI) print(v any) error {
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func exitCode(err error) int {
	switch {
	case domain.IsEnvironment(err):
		return exitEnvironment
	case domain.IsInput(err):
		return exitInput
	default:
		return exitFailure
	}
}
