// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package yaml

import (
	"gopkg.in/yaml.v3"

	"triage-scan/internal/engine"
	"triage-scan/internal/formatters"
	"triage-scan/internal/record"
)

// Formatter implements YAML output formatting.
type Formatter struct{}

// NewFormatter creates a new YAML formatter.
func NewFormatter() *Formatter {
	return &Formatter{}
}

func init() {
	formatters.Register(NewFormatter())
}

func (f *Formatter) Name() string {
	return "yaml"
}

func (f *Formatter) Description() string {
	return "YAML format output, same structure as JSON"
}

func (f *Formatter) FileExtension() string {
	return ".yaml"
}

type output struct {
	RunID   string            `yaml:"run_id"`
	Stats   engine.BatchStats `yaml:"stats"`
	Results []record.Result   `yaml:"results"`
}

func (f *Formatter) Format(batch *engine.BatchResult, options formatters.Options) (string, error) {
	results := formatters.FilterResults(batch.Results, options)
	if results == nil {
		results = []record.Result{}
	}

	data, err := yaml.Marshal(output{
		RunID:   batch.RunID,
		Stats:   batch.Stats,
		Results: results,
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}
