// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"triage-scan/internal/matcher"
	"triage-scan/internal/profile"
	"triage-scan/internal/record"
)

func terms(patterns ...string) []matcher.TermSpec {
	specs := make([]matcher.TermSpec, len(patterns))
	for i, p := range patterns {
		specs[i] = matcher.TermSpec{Pattern: p, Kind: matcher.KindLiteral}
	}
	return specs
}

func thresholdProfile() *profile.Profile {
	return &profile.Profile{
		Version:          "basic-1",
		Policy:           profile.PolicyThreshold,
		Normalization:    profile.Normalization{Lowercase: true, StripAccents: true},
		Window:           8,
		NegativeWinsTies: true,
		MinPosToInclude:  1,
		MinNegToExclude:  1,
		Scoring:          profile.Scoring{DefaultPositiveWeight: 1, DefaultNegativeWeight: 1, ContextWeight: 0.5},
		Contexts:         map[string]profile.ContextGroup{},
		DefaultDecision:  record.Review,
	}
}

func rulesProfile(rules ...profile.Rule) *profile.Profile {
	p := thresholdProfile()
	p.Policy = profile.PolicyRules
	p.Rules = rules
	return p
}

func classify(t *testing.T, p *profile.Profile, text string) record.Result {
	t.Helper()
	e, err := New(p)
	require.NoError(t, err)
	return e.Classify(record.Record{ID: 1, Text: text})
}

func TestClassify_ScenarioA_PosOnly(t *testing.T) {
	p := thresholdProfile()
	p.Positives = terms("falha")

	res := classify(t, p, "falha no motor elétrico")

	assert.Equal(t, record.Include, res.Decision)
	assert.Equal(t, ReasonPosOnly, res.ReasonCode)
	assert.Equal(t, 1, res.PosCount)
	assert.Equal(t, 0, res.NegCount)
	assert.Equal(t, "falha", res.PosTerms)
	assert.NotEmpty(t, res.Reason)
	assert.NotEmpty(t, res.ReasonDetail)
}

func TestClassify_NoSignalsAlwaysExcludes(t *testing.T) {
	// Unconditional, regardless of the other flags.
	for _, requireCtx := range []bool{true, false} {
		for _, negWins := range []bool{true, false} {
			p := thresholdProfile()
			p.Positives = terms("falha")
			p.Negatives = terms("simulado")
			p.RequireContext = requireCtx
			p.NegativeWinsTies = negWins

			res := classify(t, p, "nada de interessante aqui")
			assert.Equal(t, record.Exclude, res.Decision)
			assert.Equal(t, ReasonNoSignals, res.ReasonCode)
		}
	}
}

func TestClassify_NegOnlyExcludes(t *testing.T) {
	p := thresholdProfile()
	p.Positives = terms("falha")
	p.Negatives = terms("simulado")

	res := classify(t, p, "exercicio simulado da brigada")
	assert.Equal(t, record.Exclude, res.Decision)
	assert.Equal(t, ReasonNegOnly, res.ReasonCode)
}

func TestClassify_TieNegativeWinsWithExclusiveNegContext(t *testing.T) {
	p := thresholdProfile()
	p.Positives = terms("falha")
	p.Negatives = terms("simulado")
	p.Contexts[profile.DefaultContextGroup] = profile.ContextGroup{Terms: terms("brigada")}
	p.Window = 2

	// "simulado" is within 2 tokens of "brigada", "falha" is not.
	res := classify(t, p, "falha muito longe de tudo aquilo mas simulado de brigada")
	require.Equal(t, 1, res.PosCount)
	require.Equal(t, 1, res.NegCount)
	assert.False(t, res.NearPosCtx)
	assert.True(t, res.NearNegCtx)
	assert.Equal(t, record.Exclude, res.Decision)
	assert.Equal(t, ReasonTieNegCtx, res.ReasonCode)
}

func TestClassify_TieExclusivePosContextIncludes(t *testing.T) {
	p := thresholdProfile()
	p.Positives = terms("falha")
	p.Negatives = terms("simulado")
	p.Contexts[profile.DefaultContextGroup] = profile.ContextGroup{Terms: terms("motor")}
	p.Window = 2

	res := classify(t, p, "falha no motor enquanto longe dali havia algo simulado")
	assert.True(t, res.NearPosCtx)
	assert.False(t, res.NearNegCtx)
	assert.Equal(t, record.Include, res.Decision)
	assert.Equal(t, ReasonTiePosCtx, res.ReasonCode)
}

func TestClassify_TieNoContextReviews(t *testing.T) {
	p := thresholdProfile()
	p.Positives = terms("falha")
	p.Negatives = terms("simulado")

	res := classify(t, p, "falha durante o simulado")
	assert.Equal(t, record.Review, res.Decision)
	assert.Equal(t, ReasonTieNoCtx, res.ReasonCode)
}

func TestClassify_PosBelowMinReviews(t *testing.T) {
	p := thresholdProfile()
	p.Positives = terms("falha")
	p.MinPosToInclude = 2

	res := classify(t, p, "uma falha apenas")
	assert.Equal(t, record.Review, res.Decision)
	assert.Equal(t, ReasonPosBelowMin, res.ReasonCode)
}

func TestClassify_RequireContextBranches(t *testing.T) {
	newProfile := func() *profile.Profile {
		p := thresholdProfile()
		p.RequireContext = true
		p.Positives = terms("falha")
		p.Negatives = terms("simulado")
		p.Contexts[profile.DefaultContextGroup] = profile.ContextGroup{Terms: terms("motor")}
		p.Window = 3
		return p
	}

	cases := []struct {
		name     string
		text     string
		decision record.Decision
		code     string
	}{
		{"pos with context", "falha no motor", record.Include, ReasonReqCtxPosOnly},
		{"neg with context", "simulado no motor", record.Exclude, ReasonReqCtxNegOnly},
		{"pos without context", "falha sem nada perto e o motor bem distante daqui agora", record.Review, ReasonReqCtxPosNoCtx},
		{"neg without context", "simulado sem nada perto e o motor bem distante daqui agora", record.Review, ReasonReqCtxNegNoCtx},
		{"both with context", "falha simulado no motor", record.Review, ReasonReqCtxTie},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := classify(t, newProfile(), tc.text)
			assert.Equal(t, tc.decision, res.Decision, "text %q", tc.text)
			assert.Equal(t, tc.code, res.ReasonCode, "text %q", tc.text)
		})
	}
}

func TestClassify_ScenarioB_RuleAssignsCategory(t *testing.T) {
	p := rulesProfile(profile.Rule{
		Name:           "maos-perto",
		Equation:       "WITHIN(8, POS(), CTX('MAOS'))",
		Decision:       string(record.Include),
		AssignCategory: "Segurança > Proteção das Mãos",
	})
	p.Positives = terms("luva")
	p.Contexts["MAOS"] = profile.ContextGroup{
		Category: "Segurança > Proteção das Mãos",
		Terms:    terms("mãos"),
	}

	res := classify(t, p, "dor nas mãos ao usar a luva")

	assert.Equal(t, record.Include, res.Decision)
	assert.Equal(t, "Segurança > Proteção das Mãos", res.Category)
	assert.Equal(t, "maos-perto", res.RuleFired)
	assert.Equal(t, ReasonRuleFired, res.ReasonCode)
}

func TestClassify_FirstRuleWins(t *testing.T) {
	p := rulesProfile(
		profile.Rule{Name: "first", Equation: "True", Decision: string(record.Include)},
		profile.Rule{Name: "second", Equation: "True", Decision: string(record.Exclude)},
	)
	p.Positives = terms("falha")

	res := classify(t, p, "qualquer texto")
	assert.Equal(t, record.Include, res.Decision)
	assert.Equal(t, "first", res.RuleFired)
}

func TestClassify_RuleDecisionCaseInsensitive(t *testing.T) {
	// Validation accepts "include"; the fired decision must still come out
	// canonical so stats, filters and formatters recognize it.
	p := rulesProfile(
		profile.Rule{Name: "fire", Equation: "True", Decision: "include"},
	)
	p.Positives = terms("falha")

	res := classify(t, p, "falha no motor")
	assert.Equal(t, record.Include, res.Decision)
}

func TestClassify_MinScoreSkipsRule(t *testing.T) {
	minScore := 5.0
	p := rulesProfile(
		profile.Rule{Name: "needs-score", Equation: "True", Decision: string(record.Include), MinScore: &minScore},
		profile.Rule{Name: "fallback", Equation: "True", Decision: string(record.Exclude)},
	)
	p.Positives = terms("falha")

	// One default-weight positive hit: score 1.0, below min_score 5.
	res := classify(t, p, "falha no motor")
	assert.Equal(t, record.Exclude, res.Decision)
	assert.Equal(t, "fallback", res.RuleFired)
}

func TestClassify_MinScoreSatisfiedFires(t *testing.T) {
	minScore := 2.0
	p := rulesProfile(
		profile.Rule{Name: "needs-score", Equation: "ANY(POS())", Decision: string(record.Include), MinScore: &minScore},
	)
	p.Positives = []matcher.TermSpec{{Pattern: "falha", Kind: matcher.KindLiteral, Weight: 3}}

	res := classify(t, p, "falha no motor")
	assert.Equal(t, record.Include, res.Decision)
	assert.Equal(t, 3.0, res.Score)
}

func TestClassify_NoRuleFiredUsesDefault(t *testing.T) {
	p := rulesProfile(profile.Rule{Name: "r1", Equation: "ANY(NEG())", Decision: string(record.Exclude)})
	p.Positives = terms("falha")
	p.DefaultDecision = record.Review

	res := classify(t, p, "falha no motor")
	assert.Equal(t, record.Review, res.Decision)
	assert.Equal(t, ReasonNoRuleFired, res.ReasonCode)
	assert.Empty(t, res.RuleFired)

	p.DefaultDecision = record.Exclude
	res = classify(t, p, "falha no motor")
	assert.Equal(t, record.Exclude, res.Decision)
}

func TestClassify_EquationRuntimeErrorFallsThrough(t *testing.T) {
	p := rulesProfile(
		profile.Rule{Name: "broken", Equation: "ANY(True)", Decision: string(record.Exclude)},
		profile.Rule{Name: "works", Equation: "ANY(POS())", Decision: string(record.Include)},
	)
	p.Positives = terms("falha")

	res := classify(t, p, "falha no motor")
	assert.Equal(t, record.Include, res.Decision)
	assert.Equal(t, "works", res.RuleFired)
	require.Len(t, res.Hazards, 1)
	assert.Contains(t, res.Hazards[0], "broken")
}

func TestNew_EquationParseErrorDisablesRule(t *testing.T) {
	p := rulesProfile(
		profile.Rule{Name: "bad", Equation: "POS() +++", Decision: string(record.Exclude)},
		profile.Rule{Name: "good", Equation: "True", Decision: string(record.Include)},
	)
	p.Positives = terms("falha")

	e, err := New(p)
	require.NoError(t, err)
	require.Len(t, e.Warnings(), 1)
	assert.Contains(t, e.Warnings()[0].Component, "bad")

	res := e.Classify(record.Record{Text: "falha"})
	assert.Equal(t, record.Include, res.Decision)
	assert.Equal(t, "good", res.RuleFired)
}

func TestNew_BadPatternBecomesWarning(t *testing.T) {
	p := thresholdProfile()
	p.Positives = []matcher.TermSpec{
		{Pattern: "falha", Kind: matcher.KindLiteral},
		{Pattern: "([oops", Kind: matcher.KindRegex},
	}

	e, err := New(p)
	require.NoError(t, err)
	require.Len(t, e.Warnings(), 1)
	assert.Equal(t, "positives", e.Warnings()[0].Component)

	// The surviving matcher still runs.
	res := e.Classify(record.Record{Text: "falha no motor"})
	assert.Equal(t, record.Include, res.Decision)
}

func TestNew_InvalidProfileIsFatal(t *testing.T) {
	p := thresholdProfile()
	p.Positives = terms("falha")
	p.Window = 0

	_, err := New(p)
	var cfgErr *profile.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestClassify_HighlightsProjectOntoRawText(t *testing.T) {
	p := thresholdProfile()
	p.Positives = terms("pressão")

	res := classify(t, p, "Pressão")
	require.Len(t, res.Highlights, 1)
	assert.Equal(t, "Pressão", res.Highlights[0].Text)
	assert.Equal(t, record.LabelPos, res.Highlights[0].Label)
}

func TestClassify_ContextWeightInScore(t *testing.T) {
	p := rulesProfile(profile.Rule{Name: "r", Equation: "True", Decision: string(record.Include)})
	p.Positives = terms("falha")
	p.Negatives = terms("simulado")
	p.Contexts["G"] = profile.ContextGroup{Terms: terms("motor")}

	// 1.0 (pos) + 0.5 (one context group hit) - 1.0 (neg) = 0.5
	res := classify(t, p, "falha simulado motor")
	assert.InDelta(t, 0.5, res.Score, 1e-9)
}
