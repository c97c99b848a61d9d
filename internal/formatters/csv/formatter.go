// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package csv

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"

	"triage-scan/internal/engine"
	"triage-scan/internal/formatters"
)

// Formatter implements CSV output formatting. One row per result, audit
// columns only. Appending audit columns to an input table is recordio's
// job, not this formatter's.
type Formatter struct{}

// NewFormatter creates a new CSV formatter.
func NewFormatter() *Formatter {
	return &Formatter{}
}

func init() {
	formatters.Register(NewFormatter())
}

func (f *Formatter) Name() string {
	return "csv"
}

func (f *Formatter) Description() string {
	return "CSV output, one row per record with the audit columns"
}

func (f *Formatter) FileExtension() string {
	return ".csv"
}

var header = []string{
	"row_id",
	"source",
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

func (f *Formatter) Format(batch *engine.BatchResult, options formatters.Options) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, res := range formatters.FilterResults(batch.Results, options) {
		row := []string{
			strconv.Itoa(res.RowID),
			res.Source,
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
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
