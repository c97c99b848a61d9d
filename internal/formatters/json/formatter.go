// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package json

import (
	"encoding/json"

	"triage-scan/internal/engine"
	"triage-scan/internal/formatters"
	"triage-scan/internal/record"
)

// Formatter implements JSON output formatting.
type Formatter struct{}

// NewFormatter creates a new JSON formatter.
func NewFormatter() *Formatter {
	return &Formatter{}
}

func init() {
	formatters.Register(NewFormatter())
}

func (f *Formatter) Name() string {
	return "json"
}

func (f *Formatter) Description() string {
	return "Structured JSON output for programmatic consumption"
}

func (f *Formatter) FileExtension() string {
	return ".json"
}

type output struct {
	RunID   string            `json:"run_id"`
	Stats   engine.BatchStats `json:"stats"`
	Results []record.Result   `json:"results"`
}

func (f *Formatter) Format(batch *engine.BatchResult, options formatters.Options) (string, error) {
	results := formatters.FilterResults(batch.Results, options)
	if results == nil {
		results = []record.Result{}
	}
	if !options.ShowHighlights {
		results = stripHighlights(results)
	}

	data, err := json.MarshalIndent(output{
		RunID:   batch.RunID,
		Stats:   batch.Stats,
		Results: results,
	}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func stripHighlights(results []record.Result) []record.Result {
	out := make([]record.Result, len(results))
	for i, res := range results {
		res.Highlights = nil
		out[i] = res
	}
	return out
}
