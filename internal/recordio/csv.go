// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package recordio reads records into the engine and writes results back
// out. It owns all file I/O so the engine itself never touches the disk.
package recordio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"triage-scan/internal/record"
)

// Table is a CSV input held in memory: the header, the raw rows, and which
// column carries the free text to classify.
type Table struct {
	Header  []string
	Rows    [][]string
	TextCol int
}

// ReadCSV parses CSV input and locates the text column by (case-insensitive)
// header name.
func ReadCSV(r io.Reader, textColumn string) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	textCol := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), textColumn) {
			textCol = i
			break
		}
	}
	if textCol < 0 {
		return nil, fmt.Errorf("text column %q not found in header %v", textColumn, header)
	}

	var rows [][]string
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, row)
	}

	return &Table{Header: header, Rows: rows, TextCol: textCol}, nil
}

// Records converts table rows into engine input, row ids following input
// order.
func (t *Table) Records() []record.Record {
	records := make([]record.Record, len(t.Rows))
	for i, row := range t.Rows {
		text := ""
		if t.TextCol < len(row) {
			text = row[t.TextCol]
		}
		records[i] = record.Record{ID: i, Text: text, Fields: row}
	}
	return records
}

// resultColumns are the audit columns appended to each input row, in output
// order.
var resultColumns = []string{
	"decision",
	"category",
	"rule_fired",
	"score",
	"reason_code",
	"reason",
	"reason_detail",
	"pos_count",
	"neg_count",
	"ctx_count",
	"near_pos_ctx",
	"near_neg_ctx",
	"pos_terms",
	"neg_terms",
	"ctx_terms",
	"hazards",
}

// WriteCSV writes the input table back out with the audit columns appended
// to every row. Results must be in table row order.
func WriteCSV(w io.Writer, t *Table, results []record.Result) error {
	if len(results) != len(t.Rows) {
		return fmt.Errorf("result count %d does not match row count %d", len(results), len(t.Rows))
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(append(append([]string{}, t.Header...), resultColumns...)); err != nil {
		return err
	}

	for i, row := range t.Rows {
		res := results[i]
		out := append(append([]string{}, row...),
			string(res.Decision),
			res.Category,
			res.RuleFired,
			strconv.FormatFloat(res.Score, 'f', 2, 64),
			res.ReasonCode,
			res.Reason,
			res.ReasonDetail,
			strconv.Itoa(res.PosCount),
			strconv.Itoa(res.NegCount),
			strconv.Itoa(res.CtxCount),
			strconv.FormatBool(res.NearPosCtx),
			strconv.FormatBool(res.NearNegCtx),
			res.PosTerms,
			res.NegTerms,
			res.CtxTerms,
			strings.Join(res.Hazards, " | "),
		)
		if err := cw.Write(out); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
