// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"triage-scan/internal/record"
)

func TestRunner_PreservesInputOrder(t *testing.T) {
	p := thresholdProfile()
	p.Positives = terms("falha")

	e, err := New(p)
	require.NoError(t, err)

	var records []record.Record
	for i := 0; i < 200; i++ {
		text := "nada aqui"
		if i%3 == 0 {
			text = "falha no motor"
		}
		records = append(records, record.Record{ID: i, Text: text})
	}

	batch, err := NewRunner(e, 8).Run(context.Background(), records, nil)
	require.NoError(t, err)
	require.Len(t, batch.Results, len(records))

	for i, res := range batch.Results {
		assert.Equal(t, i, res.RowID, "results must follow input order, not completion order")
		if i%3 == 0 {
			assert.Equal(t, record.Include, res.Decision)
		} else {
			assert.Equal(t, record.Exclude, res.Decision)
		}
	}
}

func TestRunner_Stats(t *testing.T) {
	p := thresholdProfile()
	p.Positives = terms("falha")
	p.Negatives = terms("simulado")

	e, err := New(p)
	require.NoError(t, err)

	batch, err := NewRunner(e, 2).Run(context.Background(), []record.Record{
		{ID: 0, Text: "falha no motor"},
		{ID: 1, Text: "apenas simulado"},
		{ID: 2, Text: "falha no simulado"},
		{ID: 3, Text: "sem sinais"},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, batch.Stats.Total)
	assert.Equal(t, 1, batch.Stats.Included)
	assert.Equal(t, 1, batch.Stats.Reviewed)
	assert.Equal(t, 2, batch.Stats.Excluded)
	assert.NotEmpty(t, batch.RunID)
}

func TestRunner_ProgressCallback(t *testing.T) {
	p := thresholdProfile()
	p.Positives = terms("falha")

	e, err := New(p)
	require.NoError(t, err)

	records := make([]record.Record, 50)
	for i := range records {
		records[i] = record.Record{ID: i, Text: fmt.Sprintf("registro %d", i)}
	}

	var calls int
	var last int
	_, err = NewRunner(e, 4).Run(context.Background(), records, func(done, total int) {
		calls++
		last = done
		assert.Equal(t, len(records), total)
	})
	require.NoError(t, err)
	assert.Equal(t, len(records), calls)
	assert.Equal(t, len(records), last)
}

func TestRunner_EmptyBatch(t *testing.T) {
	p := thresholdProfile()
	p.Positives = terms("falha")

	e, err := New(p)
	require.NoError(t, err)

	batch, err := NewRunner(e, 0).Run(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, batch.Results)
	assert.Equal(t, 0, batch.Stats.Total)
}
