// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package matcher compiles profile term specifications into regexp matchers
// and runs them over normalized text, producing ordered match spans.
package matcher

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"triage-scan/internal/textnorm"
)

// Kind selects how a term pattern is interpreted.
type Kind string

const (
	// KindLiteral matches a whole token (word-boundary semantics).
	KindLiteral Kind = "literal"
	// KindPhrase matches a plain substring, no boundary requirement.
	KindPhrase Kind = "phrase"
	// KindRegex uses the pattern as supplied by the profile author.
	KindRegex Kind = "regex"
)

// TermSpec is one user-authored term: pattern, interpretation, and optional
// scoring weight and audit tag.
type TermSpec struct {
	Pattern string
	Kind    Kind
	Weight  float64 // 0 means "use the class default weight"
	Tag     string
}

// Span is a half-open byte range [Start, End) into normalized text.
type Span struct {
	Start int
	End   int
}

// Hit is a match span plus the spec that produced it.
type Hit struct {
	Span
	Text string
	Spec TermSpec
}

// Matcher is a compiled term ready to run against normalized text.
// Literal terms carry the boundary flag: their hits must not touch a word
// rune on either side. The check lives outside the regex because RE2's \b
// is ASCII-only and would never match next to an accented letter when
// accent folding is off.
type Matcher struct {
	re       *regexp.Regexp
	boundary bool
	Spec     TermSpec
}

// Set is an ordered collection of compiled matchers for one class
// (positives, negatives, or one context group).
type Set []*Matcher

// CompileWarning records a term that failed to compile and was dropped.
// Compilation failures are never fatal; the rest of the set still runs.
type CompileWarning struct {
	Pattern string
	Err     error
}

func (w CompileWarning) String() string {
	return fmt.Sprintf("pattern %q dropped: %v", w.Pattern, w.Err)
}

// Compile builds a single matcher. The pattern is normalized with the same
// options as the record text so literal and phrase terms line up with it.
// A literal containing interior whitespace is promoted to a phrase.
func Compile(spec TermSpec, opts textnorm.Options) (*Matcher, error) {
	pat := strings.TrimSpace(spec.Pattern)
	if pat == "" {
		return nil, fmt.Errorf("empty pattern")
	}

	kind := spec.Kind
	if kind == "" {
		kind = KindLiteral
	}

	var src string
	boundary := false
	switch kind {
	case KindLiteral, KindPhrase:
		pat = textnorm.NormalizeString(pat, opts)
		if kind == KindLiteral && strings.ContainsAny(pat, " \t") {
			kind = KindPhrase
		}
		src = regexp.QuoteMeta(pat)
		boundary = kind == KindLiteral
	case KindRegex:
		src = pat
	default:
		return nil, fmt.Errorf("unknown term kind %q", kind)
	}

	// All matchers run case-insensitively so profiles behave the same
	// whether or not lowercase normalization is enabled.
	re, err := regexp.Compile("(?i)" + src)
	if err != nil {
		return nil, err
	}

	out := spec
	out.Pattern = pat
	out.Kind = kind
	return &Matcher{re: re, boundary: boundary, Spec: out}, nil
}

// wordRune reports whether a rune counts as a word character for boundary
// purposes. Unlike \w this covers non-ASCII letters and digits.
func wordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// bounded reports whether a hit sits on word boundaries in text.
func (m *Matcher) bounded(text string, start, end int) bool {
	if !m.boundary {
		return true
	}
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(text[:start]); wordRune(r) {
			return false
		}
	}
	if end < len(text) {
		if r, _ := utf8.DecodeRuneInString(text[end:]); wordRune(r) {
			return false
		}
	}
	return true
}

// CompileSet compiles every spec it can, returning the surviving matchers
// and one warning per dropped spec.
func CompileSet(specs []TermSpec, opts textnorm.Options) (Set, []CompileWarning) {
	var set Set
	var warnings []CompileWarning
	for _, spec := range specs {
		if strings.TrimSpace(spec.Pattern) == "" {
			continue
		}
		m, err := Compile(spec, opts)
		if err != nil {
			warnings = append(warnings, CompileWarning{Pattern: spec.Pattern, Err: err})
			continue
		}
		set = append(set, m)
	}
	return set, warnings
}

// MaxHitsPerPattern bounds a single pattern's matches on one record. Go's
// regexp engine is linear-time, so runaway backtracking cannot occur; the
// residual hazard is a degenerate pattern producing an enormous match list.
const MaxHitsPerPattern = 10000

// Hazard records a matcher that was cut short on one record.
type Hazard struct {
	Pattern string
	Reason  string
}

func (h Hazard) String() string {
	return fmt.Sprintf("pattern %q: %s", h.Pattern, h.Reason)
}

// FindAll runs every matcher in the set over normalized text. Hits are
// sorted by start offset (then end); exact (start, end, text) duplicates
// collapse to one so audit counts stay honest. Overlapping hits from
// different patterns are all retained.
func FindAll(text string, set Set) ([]Hit, []Hazard) {
	var hits []Hit
	var hazards []Hazard

	for _, m := range set {
		locs := m.re.FindAllStringIndex(text, MaxHitsPerPattern+1)
		if len(locs) > MaxHitsPerPattern {
			hazards = append(hazards, Hazard{
				Pattern: m.Spec.Pattern,
				Reason:  fmt.Sprintf("exceeded %d matches, matcher skipped for this record", MaxHitsPerPattern),
			})
			continue
		}
		for _, loc := range locs {
			if loc[1] <= loc[0] {
				continue // zero-width regex match carries no signal
			}
			if !m.bounded(text, loc[0], loc[1]) {
				continue
			}
			hits = append(hits, Hit{
				Span: Span{Start: loc[0], End: loc[1]},
				Text: text[loc[0]:loc[1]],
				Spec: m.Spec,
			})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Start != hits[j].Start {
			return hits[i].Start < hits[j].Start
		}
		return hits[i].End < hits[j].End
	})

	return dedupe(hits), hazards
}

func dedupe(hits []Hit) []Hit {
	if len(hits) < 2 {
		return hits
	}
	out := hits[:1]
	for _, h := range hits[1:] {
		prev := out[len(out)-1]
		if h.Start == prev.Start && h.End == prev.End && h.Text == prev.Text {
			continue
		}
		out = append(out, h)
	}
	return out
}

// Spans extracts just the spans from a hit list, for proximity tests and
// DSL evaluation.
func Spans(hits []Hit) []Span {
	spans := make([]Span, len(hits))
	for i, h := range hits {
		spans[i] = h.Span
	}
	return spans
}

// UniqueTerms joins the distinct matched texts for audit output, preserving
// first-seen order and capping the list.
func UniqueTerms(hits []Hit, limit int) string {
	seen := make(map[string]struct{}, len(hits))
	var terms []string
	for _, h := range hits {
		if _, ok := seen[h.Text]; ok {
			continue
		}
		seen[h.Text] = struct{}{}
		terms = append(terms, h.Text)
		if len(terms) >= limit {
			break
		}
	}
	return strings.Join(terms, " | ")
}
