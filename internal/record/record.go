// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package record

// Record is a single unit of input to the triage engine: an opaque row id
// plus the raw (un-normalized) text to classify. Fields carries the original
// source columns so sinks can reproduce the input row alongside the verdict.
type Record struct {
	ID     int
	Text   string
	Fields []string
	Source string // file or table the record came from, for audit output
}

// Decision is the triage verdict for a record.
type Decision string

const (
	Include Decision = "INCLUDE"
	Review  Decision = "REVIEW"
	Exclude Decision = "EXCLUDE"
)

// ValidDecision reports whether s is one of the three triage verdicts.
func ValidDecision(s string) bool {
	switch Decision(s) {
	case Include, Review, Exclude:
		return true
	}
	return false
}

// Label identifies which matcher class painted a highlight segment.
type Label string

const (
	LabelNone Label = ""
	LabelCtx  Label = "CTX"
	LabelPos  Label = "POS"
	LabelNeg  Label = "NEG"
)

// Priority ranks labels for highlight painting. A character keeps the
// highest-priority label ever painted on it: NEG > POS > CTX.
func (l Label) Priority() int {
	switch l {
	case LabelNeg:
		return 3
	case LabelPos:
		return 2
	case LabelCtx:
		return 1
	}
	return 0
}

// Segment is a labeled half-open byte range [Start, End) over the raw
// record text. Segments are structural only; rendering is the caller's job.
type Segment struct {
	Start int    `json:"start" yaml:"start"`
	End   int    `json:"end" yaml:"end"`
	Label Label  `json:"label" yaml:"label"`
	Text  string `json:"text,omitempty" yaml:"text,omitempty"`
}

// Result is the full audit outcome for one record.
type Result struct {
	RowID    int      `json:"row_id" yaml:"row_id"`
	Source   string   `json:"source,omitempty" yaml:"source,omitempty"`
	Decision Decision `json:"decision" yaml:"decision"`
	Category string   `json:"category,omitempty" yaml:"category,omitempty"`

	// RuleFired is the name of the DSL rule that decided the record, or
	// empty for the threshold policy and for the configured default.
	RuleFired string  `json:"rule_fired,omitempty" yaml:"rule_fired,omitempty"`
	Score     float64 `json:"score" yaml:"score"`

	ReasonCode   string `json:"reason_code" yaml:"reason_code"`
	Reason       string `json:"reason" yaml:"reason"`
	ReasonDetail string `json:"reason_detail,omitempty" yaml:"reason_detail,omitempty"`

	PosCount int `json:"pos_count" yaml:"pos_count"`
	NegCount int `json:"neg_count" yaml:"neg_count"`
	CtxCount int `json:"ctx_count" yaml:"ctx_count"`

	NearPosCtx bool `json:"near_pos_ctx" yaml:"near_pos_ctx"`
	NearNegCtx bool `json:"near_neg_ctx" yaml:"near_neg_ctx"`

	// Unique matched terms per class, joined with " | " for audit columns.
	PosTerms string `json:"pos_terms,omitempty" yaml:"pos_terms,omitempty"`
	NegTerms string `json:"neg_terms,omitempty" yaml:"neg_terms,omitempty"`
	CtxTerms string `json:"ctx_terms,omitempty" yaml:"ctx_terms,omitempty"`

	Highlights []Segment `json:"highlights,omitempty" yaml:"highlights,omitempty"`

	// Hazards lists per-record degradations (e.g. a pattern skipped after
	// exceeding its hit cap). Never fatal.
	Hazards []string `json:"hazards,omitempty" yaml:"hazards,omitempty"`
}
