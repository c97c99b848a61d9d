// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package highlight projects match spans found in normalized text back onto
// the raw record text and merges them into labeled display segments. The
// output is structural (offsets + labels), never markup.
package highlight

import (
	"fmt"

	"triage-scan/internal/matcher"
	"triage-scan/internal/record"
	"triage-scan/internal/textnorm"
)

// Input groups the labeled span sets for one record, in normalized-text
// offsets.
type Input struct {
	Pos []matcher.Span
	Neg []matcher.Span
	Ctx []matcher.Span
}

// Project paints the span sets onto the raw text and returns merged
// segments in raw-text byte offsets. Each span is projected through the
// normalization back-map first; diacritic folding can map several
// normalized spans onto overlapping raw ranges, so a character keeps the
// highest-priority label painted on it (NEG > POS > CTX).
func Project(raw string, norm textnorm.Result, in Input) []record.Segment {
	if len(norm.BackMap) == 0 {
		return nil
	}

	rawLabels := make([]record.Label, len(raw))
	paint(rawLabels, raw, norm, in.Ctx, record.LabelCtx)
	paint(rawLabels, raw, norm, in.Pos, record.LabelPos)
	paint(rawLabels, raw, norm, in.Neg, record.LabelNeg)

	var segments []record.Segment
	for i := 0; i < len(rawLabels); {
		if rawLabels[i] == record.LabelNone {
			i++
			continue
		}
		j := i + 1
		for j < len(rawLabels) && rawLabels[j] == rawLabels[i] {
			j++
		}
		segments = append(segments, record.Segment{
			Start: i,
			End:   j,
			Label: rawLabels[i],
			Text:  raw[i:j],
		})
		i = j
	}
	return segments
}

// paint projects each normalized span onto the raw text and labels the
// covered bytes, keeping the strongest label. Spans that fall outside the
// back-map project to an empty range and paint nothing.
func paint(labels []record.Label, raw string, norm textnorm.Result, spans []matcher.Span, l record.Label) {
	for _, s := range spans {
		start, end := norm.ProjectSpan(raw, s.Start, s.End)
		for i := start; i < end && i < len(labels); i++ {
			if l.Priority() > labels[i].Priority() {
				labels[i] = l
			}
		}
	}
}

// AuditLine renders the fixed-template audit string for a result.
func AuditLine(res record.Result) string {
	rule := res.RuleFired
	if rule == "" {
		rule = "-"
	}
	line := fmt.Sprintf("rule=%s decision=%s", rule, res.Decision)
	if res.Category != "" {
		line += fmt.Sprintf(" category=%q", res.Category)
	}
	line += fmt.Sprintf(" pos=%d neg=%d ctx=%d score=%.2f", res.PosCount, res.NegCount, res.CtxCount, res.Score)
	return line
}
