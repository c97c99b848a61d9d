// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"triage-scan/internal/engine"
	"triage-scan/internal/formatters"
	_ "triage-scan/internal/formatters/csv"
	_ "triage-scan/internal/formatters/json"
	_ "triage-scan/internal/formatters/text"
	_ "triage-scan/internal/formatters/yaml"
	"triage-scan/internal/profile"
	"triage-scan/internal/record"
	"triage-scan/internal/recordio"
)

type scanOptions struct {
	profilePath    string
	inputCSV       string
	textColumn     string
	format         string
	outputPath     string
	decisions      string
	workers        int
	verbose        bool
	noColor        bool
	showHighlights bool
	noProgress     bool
}

func scanCmd() *cobra.Command {
	var opts scanOptions

	cmd := &cobra.Command{
		Use:   "scan [files...]",
		Short: "Classify records against a rule profile",
		Long: `Scan classifies free-text records and emits one decision per record
with the full audit trail (reason code, counts, matched terms, score).

Input is either a CSV batch (--input, with --text-column naming the text
column) or one or more text/PDF files given as arguments, one record per
file. When --output ends in .csv the input table is written back out with
the audit columns appended; any other output goes through the selected
formatter.`,
		Example: `  triage-scan scan --profile safety.yaml --input incidents.csv
  triage-scan scan --profile safety.yaml --input incidents.csv --output triaged.csv
  triage-scan scan --profile safety.yaml report1.txt report2.pdf --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.profilePath, "profile", "p", "", "rule profile YAML file (required)")
	cmd.Flags().StringVarP(&opts.inputCSV, "input", "i", "", "input CSV file")
	cmd.Flags().StringVar(&opts.textColumn, "text-column", "text", "CSV column holding the text to classify")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format (text, json, yaml)")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "write output to file instead of stdout")
	cmd.Flags().StringVar(&opts.decisions, "decisions", "all", "comma-separated decisions to display (include,review,exclude or all)")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "worker count for batch processing (0 = one per CPU)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "include reason detail, matched terms and hazards")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	cmd.Flags().BoolVar(&opts.showHighlights, "show-highlights", false, "include highlighted text segments")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "disable the progress bar")
	_ = cmd.MarkFlagRequired("profile")

	return cmd
}

func runScan(ctx context.Context, opts scanOptions, args []string) error {
	decisions, err := formatters.ParseDecisions(opts.decisions)
	if err != nil {
		return err
	}

	eng, err := loadEngine(opts.profilePath)
	if err != nil {
		return err
	}

	var table *recordio.Table
	var records []record.Record
	switch {
	case opts.inputCSV != "":
		f, err := os.Open(opts.inputCSV)
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		table, err = recordio.ReadCSV(f, opts.textColumn)
		f.Close()
		if err != nil {
			return err
		}
		records = table.Records()
	case len(args) > 0:
		records, err = recordio.ReadFiles(args)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("no input: pass --input or one or more file arguments")
	}

	log.Debug("starting run", "records", len(records), "workers", opts.workers, "policy", eng.Profile().Policy)

	runner := engine.NewRunner(eng, opts.workers)
	batch, err := runner.Run(ctx, records, progressFunc(opts, len(records)))
	if err != nil {
		return err
	}

	if table != nil && strings.EqualFold(filepath.Ext(opts.outputPath), ".csv") {
		return writeCSVOutput(opts.outputPath, table, batch.Results)
	}

	out, err := formatters.Export(opts.format, batch, formatters.Options{
		Decisions:      decisions,
		Verbose:        opts.verbose,
		NoColor:        opts.noColor || !term.IsTerminal(int(os.Stdout.Fd())) || opts.outputPath != "",
		ShowHighlights: opts.showHighlights,
	})
	if err != nil {
		return err
	}

	if opts.outputPath != "" {
		if err := os.WriteFile(opts.outputPath, []byte(out), 0600); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		log.Info("results written", "path", opts.outputPath, "records", batch.Stats.Total)
		return nil
	}
	fmt.Print(out)
	return nil
}

// loadEngine compiles the profile and surfaces compile warnings on stderr.
// Warnings (bad patterns, unparseable equations) never abort a run; config
// errors do.
func loadEngine(path string) (*engine.Engine, error) {
	prof, err := profile.LoadFile(path)
	if err != nil {
		return nil, err
	}
	eng, err := engine.New(prof)
	if err != nil {
		return nil, err
	}
	for _, w := range eng.Warnings() {
		log.Warn("profile warning", "component", w.Component, "message", w.Message)
	}
	return eng, nil
}

func progressFunc(opts scanOptions, total int) func(done, total int) {
	if opts.noProgress || !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("classifying"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	return func(done, total int) {
		_ = bar.Set(done)
	}
}

func writeCSVOutput(path string, table *recordio.Table, results []record.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer f.Close()
	if err := recordio.WriteCSV(f, table, results); err != nil {
		return err
	}
	log.Info("results written", "path", path, "records", len(results))
	return nil
}
