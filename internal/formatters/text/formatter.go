// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package text

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"triage-scan/internal/engine"
	"triage-scan/internal/formatters"
	"triage-scan/internal/highlight"
	"triage-scan/internal/record"
)

// Formatter implements human-readable text output with colors.
type Formatter struct {
	decisionColors map[record.Decision]*color.Color
}

// NewFormatter creates a new text formatter.
func NewFormatter() *Formatter {
	return &Formatter{
		decisionColors: map[record.Decision]*color.Color{
			record.Include: color.New(color.FgGreen, color.Bold),
			record.Review:  color.New(color.FgYellow, color.Bold),
			record.Exclude: color.New(color.FgRed, color.Bold),
		},
	}
}

func init() {
	formatters.Register(NewFormatter())
}

func (f *Formatter) Name() string {
	return "text"
}

func (f *Formatter) Description() string {
	return "Human-readable text output with colors"
}

func (f *Formatter) FileExtension() string {
	return ".txt"
}

func (f *Formatter) Format(batch *engine.BatchResult, options formatters.Options) (string, error) {
	if options.NoColor {
		color.NoColor = true
	}

	results := formatters.FilterResults(batch.Results, options)
	var sb strings.Builder

	if len(results) == 0 {
		sb.WriteString("No records matched the selected decisions.\n")
	}

	for _, res := range results {
		f.writeResult(&sb, res, options)
	}

	f.writeSummary(&sb, batch)
	return sb.String(), nil
}

func (f *Formatter) writeResult(sb *strings.Builder, res record.Result, options formatters.Options) {
	c, ok := f.decisionColors[res.Decision]
	if !ok {
		c = color.New(color.FgWhite)
	}

	header := fmt.Sprintf("row %d", res.RowID)
	if res.Source != "" {
		header = res.Source
	}
	fmt.Fprintf(sb, "%s  %s", c.Sprint(res.Decision), header)
	if res.Category != "" {
		fmt.Fprintf(sb, "  [%s]", res.Category)
	}
	sb.WriteByte('\n')

	fmt.Fprintf(sb, "  reason: %s\n", res.Reason)
	if res.RuleFired != "" {
		fmt.Fprintf(sb, "  rule:   %s\n", res.RuleFired)
	}
	fmt.Fprintf(sb, "  audit:  %s\n", highlight.AuditLine(res))

	if options.Verbose {
		if res.ReasonDetail != "" {
			fmt.Fprintf(sb, "  detail: %s\n", res.ReasonDetail)
		}
		if res.PosTerms != "" {
			fmt.Fprintf(sb, "  pos terms: %s\n", res.PosTerms)
		}
		if res.NegTerms != "" {
			fmt.Fprintf(sb, "  neg terms: %s\n", res.NegTerms)
		}
		if res.CtxTerms != "" {
			fmt.Fprintf(sb, "  ctx terms: %s\n", res.CtxTerms)
		}
		for _, hz := range res.Hazards {
			fmt.Fprintf(sb, "  hazard: %s\n", hz)
		}
	}

	if options.ShowHighlights {
		for _, seg := range res.Highlights {
			fmt.Fprintf(sb, "  highlight: [%d:%d] %s %q\n", seg.Start, seg.End, seg.Label, seg.Text)
		}
	}
	sb.WriteByte('\n')
}

func (f *Formatter) writeSummary(sb *strings.Builder, batch *engine.BatchResult) {
	fmt.Fprintf(sb, "run %s: %d records | %s %d, %s %d, %s %d",
		batch.RunID,
		batch.Stats.Total,
		f.decisionColors[record.Include].Sprint("include"), batch.Stats.Included,
		f.decisionColors[record.Review].Sprint("review"), batch.Stats.Reviewed,
		f.decisionColors[record.Exclude].Sprint("exclude"), batch.Stats.Excluded,
	)
	if batch.Stats.Hazards > 0 {
		fmt.Fprintf(sb, ", hazards %d", batch.Stats.Hazards)
	}
	sb.WriteByte('\n')
}
