// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package engine is the triage core: it compiles a validated profile once
// and classifies records against it. Classification is pure and stateless
// per record, so one Engine is safe to share across goroutines.
package engine

import (
	"fmt"
	"strings"

	"triage-scan/internal/dsl"
	"triage-scan/internal/highlight"
	"triage-scan/internal/matcher"
	"triage-scan/internal/profile"
	"triage-scan/internal/proximity"
	"triage-scan/internal/record"
	"triage-scan/internal/textnorm"
)

// Warning is a non-fatal problem found while compiling the profile: a term
// that failed to compile or a rule equation that failed to parse. The
// affected matcher or rule is disabled; everything else runs.
type Warning struct {
	Component string
	Message   string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Component, w.Message)
}

type ctxGroup struct {
	name     string
	category string
	set      matcher.Set
}

type compiledRule struct {
	rule     profile.Rule
	decision record.Decision
	// node is nil when the equation failed to parse; the rule then never
	// fires, matching the "treat as false" recovery contract.
	node dsl.Node
}

// Engine holds the compiled, immutable matcher and rule sets for one
// profile.
type Engine struct {
	prof     *profile.Profile
	normOpts textnorm.Options
	pos      matcher.Set
	neg      matcher.Set
	groups   []ctxGroup
	rules    []compiledRule
	warnings []Warning
}

// New compiles a profile. A ConfigError from validation is fatal; term and
// equation compile failures are collected as warnings instead.
func New(p *profile.Profile) (*Engine, error) {
	if p == nil {
		return nil, &profile.ConfigError{Field: "profile", Reason: "must not be nil"}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		prof: p,
		normOpts: textnorm.Options{
			Lowercase:    p.Normalization.Lowercase,
			StripAccents: p.Normalization.StripAccents,
		},
	}

	var warns []matcher.CompileWarning
	e.pos, warns = matcher.CompileSet(p.Positives, e.normOpts)
	e.addCompileWarnings("positives", warns)
	e.neg, warns = matcher.CompileSet(p.Negatives, e.normOpts)
	e.addCompileWarnings("negatives", warns)

	for name, g := range p.Contexts {
		set, warns := matcher.CompileSet(g.Terms, e.normOpts)
		e.addCompileWarnings("contexts."+name, warns)
		e.groups = append(e.groups, ctxGroup{name: name, category: g.Category, set: set})
	}

	for _, r := range p.Rules {
		// Validation accepts any casing, so canonicalize here as well for
		// profiles built in code rather than loaded from YAML.
		cr := compiledRule{rule: r, decision: record.Decision(strings.ToUpper(strings.TrimSpace(r.Decision)))}
		node, err := dsl.Parse(r.Equation)
		if err != nil {
			e.warnings = append(e.warnings, Warning{
				Component: "rules." + r.Name,
				Message:   fmt.Sprintf("equation does not parse, rule disabled: %v", err),
			})
		} else {
			cr.node = node
		}
		e.rules = append(e.rules, cr)
	}

	return e, nil
}

func (e *Engine) addCompileWarnings(component string, warns []matcher.CompileWarning) {
	for _, w := range warns {
		e.warnings = append(e.warnings, Warning{Component: component, Message: w.String()})
	}
}

// Warnings returns the non-fatal problems found at compile time.
func (e *Engine) Warnings() []Warning {
	return e.warnings
}

// Profile returns the profile the engine was compiled from.
func (e *Engine) Profile() *profile.Profile {
	return e.prof
}

// Classify runs the full pipeline for one record: normalize, match, resolve
// proximity, decide, and project highlights back onto the raw text.
func (e *Engine) Classify(rec record.Record) record.Result {
	norm := textnorm.Normalize(rec.Text, e.normOpts)
	idx := proximity.NewIndex(norm.Text)

	var hazards []string
	collect := func(set matcher.Set) []matcher.Hit {
		hits, hz := matcher.FindAll(norm.Text, set)
		for _, h := range hz {
			hazards = append(hazards, h.String())
		}
		return hits
	}

	posHits := collect(e.pos)
	negHits := collect(e.neg)

	ctxByGroup := make(map[string][]matcher.Span, len(e.groups))
	var ctxHits []matcher.Hit
	for _, g := range e.groups {
		hits := collect(g.set)
		ctxByGroup[g.name] = matcher.Spans(hits)
		ctxHits = append(ctxHits, hits...)
	}

	posSpans := matcher.Spans(posHits)
	negSpans := matcher.Spans(negHits)
	ctxSpans := matcher.Spans(ctxHits)

	hasCtx := len(ctxSpans) > 0
	cpos := hasCtx && idx.Near(posSpans, ctxSpans, e.prof.Window)
	cneg := hasCtx && idx.Near(negSpans, ctxSpans, e.prof.Window)

	res := record.Result{
		RowID:      rec.ID,
		Source:     rec.Source,
		PosCount:   len(posHits),
		NegCount:   len(negHits),
		CtxCount:   len(ctxHits),
		NearPosCtx: cpos,
		NearNegCtx: cneg,
		PosTerms:   matcher.UniqueTerms(posHits, auditTermLimit),
		NegTerms:   matcher.UniqueTerms(negHits, auditTermLimit),
		CtxTerms:   matcher.UniqueTerms(ctxHits, auditTermLimit),
		Hazards:    hazards,
	}

	switch e.prof.Policy {
	case profile.PolicyRules:
		score := e.score(posHits, negHits, ctxByGroup)
		res.Score = score
		e.applyRules(&res, &dsl.Context{
			Pos:   posSpans,
			Neg:   negSpans,
			Ctx:   ctxByGroup,
			Index: idx,
		}, score)
	default:
		res.Score = float64(len(posHits) - len(negHits))
		decision, code := e.decideBasic(len(posHits), len(negHits), cpos, cneg)
		res.Decision = decision
		res.ReasonCode = code
		res.Reason, res.ReasonDetail = e.reasonText(code, &res)
	}

	res.Highlights = highlight.Project(rec.Text, norm, highlight.Input{
		Pos: posSpans,
		Neg: negSpans,
		Ctx: ctxSpans,
	})

	return res
}

// auditTermLimit caps the unique-term audit columns.
const auditTermLimit = 50

// score implements the weighted total used by min_score gates: matched
// positive weights, plus the context weight once per group that matched,
// minus matched negative weights. With default weights and no context or
// negative hits this is just the positive hit count.
func (e *Engine) score(pos, neg []matcher.Hit, ctxByGroup map[string][]matcher.Span) float64 {
	s := e.prof.Scoring
	total := 0.0
	for _, h := range pos {
		w := h.Spec.Weight
		if w == 0 {
			w = s.DefaultPositiveWeight
		}
		total += w
	}
	for _, h := range neg {
		w := h.Spec.Weight
		if w == 0 {
			w = s.DefaultNegativeWeight
		}
		total -= w
	}
	for _, spans := range ctxByGroup {
		if len(spans) > 0 {
			total += s.ContextWeight
		}
	}
	return total
}
