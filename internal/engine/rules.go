// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"fmt"

	"triage-scan/internal/dsl"
	"triage-scan/internal/record"
)

// applyRules runs the DSL policy: rules in declared order, first rule whose
// equation is true and whose min_score (if any) is met decides the record.
// Equation evaluation errors make that rule false and are noted as hazards;
// they never abort the record. When nothing fires the profile's explicit
// default decision applies.
func (e *Engine) applyRules(res *record.Result, ctx *dsl.Context, score float64) {
	for _, cr := range e.rules {
		if cr.node == nil {
			continue // equation never parsed; warned at compile time
		}
		ok, err := dsl.Eval(cr.node, ctx)
		if err != nil {
			res.Hazards = append(res.Hazards,
				fmt.Sprintf("rule %q: equation error, treated as no match: %v", cr.rule.Name, err))
			continue
		}
		if !ok {
			continue
		}
		if cr.rule.MinScore != nil && score < *cr.rule.MinScore {
			continue
		}

		res.Decision = cr.decision
		res.Category = cr.rule.AssignCategory
		res.RuleFired = cr.rule.Name
		res.ReasonCode = ReasonRuleFired
		res.Reason = fmt.Sprintf("Rule %q matched: %s.", cr.rule.Name, cr.rule.Equation)
		res.ReasonDetail = ruleDetail(res, cr.rule.Equation, score)
		return
	}

	res.Decision = e.prof.DefaultDecision
	res.ReasonCode = ReasonNoRuleFired
	res.Reason = reasonTemplates[ReasonNoRuleFired]
	res.ReasonDetail = ruleDetail(res, "", score)
}

func ruleDetail(res *record.Result, equation string, score float64) string {
	detail := fmt.Sprintf("P=%d, N=%d, ctx=%d, score=%.2f", res.PosCount, res.NegCount, res.CtxCount, score)
	if equation != "" {
		detail += fmt.Sprintf("; equation: %s", equation)
	}
	return detail
}
