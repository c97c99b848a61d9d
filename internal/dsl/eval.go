// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package dsl

import (
	"fmt"

	"triage-scan/internal/matcher"
	"triage-scan/internal/proximity"
)

// Context is the per-record match state an equation evaluates against.
// It is read-only during evaluation.
type Context struct {
	Pos   []matcher.Span
	Neg   []matcher.Span
	Ctx   map[string][]matcher.Span
	Index *proximity.Index
}

// value is the runtime type of the language: either a boolean or a span
// set. A bare set is truthy iff non-empty.
type value struct {
	isSet bool
	b     bool
	spans []matcher.Span
}

func boolValue(b bool) value {
	return value{b: b}
}

func setValue(spans []matcher.Span) value {
	return value{isSet: true, spans: spans}
}

func (v value) truthy() bool {
	if v.isSet {
		return len(v.spans) > 0
	}
	return v.b
}

// asSet coerces a value to a span set for WITHIN/ANY arguments. Booleans
// have no span interpretation, so passing one is a runtime error.
func (v value) asSet() ([]matcher.Span, error) {
	if !v.isSet {
		return nil, fmt.Errorf("expected a span set, got a boolean")
	}
	return v.spans, nil
}

// Eval interprets a parsed equation against a record context. An error
// means the owning rule is treated as false; it never aborts the record.
func Eval(node Node, ctx *Context) (bool, error) {
	v, err := node.eval(ctx)
	if err != nil {
		return false, err
	}
	return v.truthy(), nil
}

// EvalEquation parses and evaluates in one step. Engines that run many
// records should Parse once and call Eval per record instead.
func EvalEquation(src string, ctx *Context) (bool, error) {
	node, err := Parse(src)
	if err != nil {
		return false, err
	}
	return Eval(node, ctx)
}

func (n *boolLit) eval(*Context) (value, error) {
	return boolValue(n.val), nil
}

func (n *notNode) eval(ctx *Context) (value, error) {
	v, err := n.expr.eval(ctx)
	if err != nil {
		return value{}, err
	}
	return boolValue(!v.truthy()), nil
}

func (n *binNode) eval(ctx *Context) (value, error) {
	left, err := n.left.eval(ctx)
	if err != nil {
		return value{}, err
	}
	// Short-circuit like the boolean operators users expect.
	if n.op == tokAnd && !left.truthy() {
		return boolValue(false), nil
	}
	if n.op == tokOr && left.truthy() {
		return boolValue(true), nil
	}
	right, err := n.right.eval(ctx)
	if err != nil {
		return value{}, err
	}
	return boolValue(right.truthy()), nil
}

func (n *posNode) eval(ctx *Context) (value, error) {
	return setValue(ctx.Pos), nil
}

func (n *negNode) eval(ctx *Context) (value, error) {
	return setValue(ctx.Neg), nil
}

func (n *ctxNode) eval(ctx *Context) (value, error) {
	return setValue(ctx.Ctx[n.name]), nil
}

func (n *anyNode) eval(ctx *Context) (value, error) {
	v, err := n.arg.eval(ctx)
	if err != nil {
		return value{}, err
	}
	spans, err := v.asSet()
	if err != nil {
		return value{}, fmt.Errorf("ANY: %w", err)
	}
	return boolValue(len(spans) > 0), nil
}

func (n *withinNode) eval(ctx *Context) (value, error) {
	scope, err := proximity.ParseScope(n.scope)
	if err != nil {
		return value{}, fmt.Errorf("WITHIN: %w", err)
	}
	av, err := n.a.eval(ctx)
	if err != nil {
		return value{}, err
	}
	a, err := av.asSet()
	if err != nil {
		return value{}, fmt.Errorf("WITHIN: %w", err)
	}
	bv, err := n.b.eval(ctx)
	if err != nil {
		return value{}, err
	}
	b, err := bv.asSet()
	if err != nil {
		return value{}, fmt.Errorf("WITHIN: %w", err)
	}
	if ctx.Index == nil {
		return boolValue(false), nil
	}
	return boolValue(ctx.Index.Within(n.n, a, b, scope)), nil
}
