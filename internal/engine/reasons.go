// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"fmt"

	"triage-scan/internal/record"
)

// reasonTemplates expands machine reason codes into the short human
// sentence shown in audit output.
var reasonTemplates = map[string]string{
	ReasonNoSignals:      "No positive or negative keywords found.",
	ReasonReqCtxPosOnly:  "Context required: a positive term is near the context and no negative term is.",
	ReasonReqCtxNegOnly:  "Context required: a negative term is near the context and no positive term is.",
	ReasonReqCtxPosNoCtx: "Context required: positive terms are present but none is near the context.",
	ReasonReqCtxNegNoCtx: "Context required: negative terms are present but none is near the context.",
	ReasonReqCtxTie:      "Context required: both positives and negatives sit near the context (conflict).",
	ReasonReqCtxUnmet:    "Context required: no relevant term is near the context.",
	ReasonNegOnly:        "Only negative terms above the configured minimum.",
	ReasonPosOnly:        "Only positive terms above the configured minimum.",
	ReasonTiePosCtx:      "Tie between positives and negatives; context favors INCLUDE.",
	ReasonTieNegCtx:      "Tie between positives and negatives; context favors EXCLUDE.",
	ReasonTieNoCtx:       "Tie between positives and negatives with no context to break it.",
	ReasonPosBelowMin:    "Positive terms present but below the configured minimum.",
	ReasonNegBelowMin:    "Negative terms present but below the configured minimum.",
	ReasonWeakSignals:    "Weak or contradictory signals.",
	ReasonRuleFired:      "A rule equation matched this record.",
	ReasonNoRuleFired:    "No rule equation matched; the profile default applies.",
}

// reasonText returns the short sentence for a code plus a detail line
// interpolating the counts, minimums and flags that led there.
func (e *Engine) reasonText(code string, res *record.Result) (string, string) {
	short, ok := reasonTemplates[code]
	if !ok {
		short = code
	}

	detail := fmt.Sprintf(
		"%s (P=%d/min %d, N=%d/min %d; require_context=%t, ctx_near_pos=%t, ctx_near_neg=%t, window=%d, negative_wins_ties=%t)",
		short,
		res.PosCount, e.prof.MinPosToInclude,
		res.NegCount, e.prof.MinNegToExclude,
		e.prof.RequireContext,
		res.NearPosCtx, res.NearNegCtx,
		e.prof.Window,
		e.prof.NegativeWinsTies,
	)
	return short, detail
}
