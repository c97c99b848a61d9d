// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package formatters_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"triage-scan/internal/engine"
	"triage-scan/internal/formatters"
	_ "triage-scan/internal/formatters/csv"
	_ "triage-scan/internal/formatters/json"
	_ "triage-scan/internal/formatters/text"
	_ "triage-scan/internal/formatters/yaml"
	"triage-scan/internal/record"
)

func sampleBatch() *engine.BatchResult {
	return &engine.BatchResult{
		RunID: "test-run",
		Results: []record.Result{
			{RowID: 0, Decision: record.Include, ReasonCode: "POS_ONLY", Reason: "Only positive terms above the configured minimum.", PosCount: 1, Score: 1},
			{RowID: 1, Decision: record.Exclude, ReasonCode: "NO_SIGNALS", Reason: "No positive or negative keywords found."},
			{RowID: 2, Decision: record.Review, ReasonCode: "TIE_NO_CTX", Reason: "Tie.", PosCount: 1, NegCount: 1},
		},
		Stats: engine.BatchStats{Total: 3, Included: 1, Reviewed: 1, Excluded: 1},
	}
}

func TestParseDecisions(t *testing.T) {
	m, err := formatters.ParseDecisions("include, review")
	require.NoError(t, err)
	assert.True(t, m[record.Include])
	assert.True(t, m[record.Review])
	assert.False(t, m[record.Exclude])

	m, err = formatters.ParseDecisions("all")
	require.NoError(t, err)
	assert.Empty(t, m)

	_, err = formatters.ParseDecisions("include,maybe")
	assert.Error(t, err)
}

func TestFilterResults(t *testing.T) {
	batch := sampleBatch()
	opts := formatters.Options{Decisions: map[record.Decision]bool{record.Include: true}}

	filtered := formatters.FilterResults(batch.Results, opts)
	require.Len(t, filtered, 1)
	assert.Equal(t, record.Include, filtered[0].Decision)
}

func TestRegistry_AllFormatsRegistered(t *testing.T) {
	for _, name := range []string{"text", "json", "yaml", "csv"} {
		_, ok := formatters.Get(name)
		assert.True(t, ok, "formatter %q should be registered", name)
	}
}

func TestExport_UnknownFormat(t *testing.T) {
	_, err := formatters.Export("xml", sampleBatch(), formatters.Options{})
	assert.Error(t, err)
}

func TestTextFormatter(t *testing.T) {
	out, err := formatters.Export("text", sampleBatch(), formatters.Options{NoColor: true})
	require.NoError(t, err)

	assert.Contains(t, out, "INCLUDE")
	assert.Contains(t, out, "EXCLUDE")
	assert.Contains(t, out, "row 0")
	assert.Contains(t, out, "3 records")
}

func TestJSONFormatter(t *testing.T) {
	out, err := formatters.Export("json", sampleBatch(), formatters.Options{})
	require.NoError(t, err)

	var decoded struct {
		RunID   string          `json:"run_id"`
		Results []record.Result `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "test-run", decoded.RunID)
	require.Len(t, decoded.Results, 3)
	assert.Equal(t, record.Include, decoded.Results[0].Decision)
}

func TestCSVFormatter(t *testing.T) {
	out, err := formatters.Export("csv", sampleBatch(), formatters.Options{})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "row_id,source,decision"))
	assert.Contains(t, lines[1], "INCLUDE")
	assert.Contains(t, lines[2], "NO_SIGNALS")
}

func TestYAMLFormatter(t *testing.T) {
	out, err := formatters.Export("yaml", sampleBatch(), formatters.Options{})
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "run_id: test-run"))
	assert.Contains(t, out, "decision: INCLUDE")
}
