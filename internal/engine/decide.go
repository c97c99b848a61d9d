// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package engine

import "triage-scan/internal/record"

// Threshold policy reason codes.
const (
	ReasonNoSignals      = "NO_SIGNALS"
	ReasonReqCtxPosOnly  = "REQ_CTX_POS_ONLY"
	ReasonReqCtxNegOnly  = "REQ_CTX_NEG_ONLY"
	ReasonReqCtxPosNoCtx = "REQ_CTX_POS_NO_CTX"
	ReasonReqCtxNegNoCtx = "REQ_CTX_NEG_NO_CTX"
	ReasonReqCtxTie      = "REQ_CTX_TIE_OR_NO_EXCLUSIVE"
	ReasonReqCtxUnmet    = "REQ_CTX_UNMET"
	ReasonNegOnly        = "NEG_ONLY"
	ReasonPosOnly        = "POS_ONLY"
	ReasonTiePosCtx      = "TIE_POS_CTX"
	ReasonTieNegCtx      = "TIE_NEG_CTX"
	ReasonTieNoCtx       = "TIE_NO_CTX"
	ReasonPosBelowMin    = "POS_BELOW_MIN"
	ReasonNegBelowMin    = "NEG_BELOW_MIN"
	ReasonWeakSignals    = "WEAK_SIGNALS"
	ReasonRuleFired      = "RULE_FIRED"
	ReasonNoRuleFired    = "NO_RULE_FIRED"
)

// decideBasic is the threshold policy. Given positive and negative hit
// counts and the context proximity flags, it returns the decision and a
// machine reason code.
//
// The no-signal short circuit comes first and is unconditional: a record
// with neither positive nor negative hits is excluded regardless of every
// other flag.
func (e *Engine) decideBasic(p, n int, cpos, cneg bool) (record.Decision, string) {
	minP := e.prof.MinPosToInclude
	minN := e.prof.MinNegToExclude

	if p == 0 && n == 0 {
		return record.Exclude, ReasonNoSignals
	}

	posOK := p >= minP
	negOK := n >= minN

	if e.prof.RequireContext {
		switch {
		case cpos && posOK && !cneg:
			return record.Include, ReasonReqCtxPosOnly
		case cneg && negOK && !cpos:
			return record.Exclude, ReasonReqCtxNegOnly
		case posOK && !cpos:
			return record.Review, ReasonReqCtxPosNoCtx
		case negOK && !cneg:
			return record.Review, ReasonReqCtxNegNoCtx
		case posOK && negOK:
			return record.Review, ReasonReqCtxTie
		}
		return record.Review, ReasonReqCtxUnmet
	}

	switch {
	case negOK && !posOK:
		return record.Exclude, ReasonNegOnly
	case posOK && !negOK:
		return record.Include, ReasonPosOnly
	case posOK && negOK:
		// Both sides satisfied: context exclusivity breaks the tie.
		if e.prof.NegativeWinsTies {
			if cpos && !cneg {
				return record.Include, ReasonTiePosCtx
			}
			if cneg && !cpos {
				return record.Exclude, ReasonTieNegCtx
			}
			return record.Review, ReasonTieNoCtx
		}
		if cpos && !cneg {
			return record.Include, ReasonTiePosCtx
		}
		return record.Review, ReasonTieNoCtx
	}

	if p > 0 && p < minP && n == 0 {
		return record.Review, ReasonPosBelowMin
	}
	if n > 0 && n < minN && p == 0 {
		return record.Review, ReasonNegBelowMin
	}
	return record.Review, ReasonWeakSignals
}
