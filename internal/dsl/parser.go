// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package dsl

import (
	"fmt"
	"strconv"
)

// Node is a parsed equation fragment.
type Node interface {
	eval(ctx *Context) (value, error)
}

type boolLit struct {
	val bool
}

type notNode struct {
	expr Node
}

type binNode struct {
	op    tokenKind // tokAnd or tokOr
	left  Node
	right Node
}

// posNode / negNode yield the positive / negative span set.
type posNode struct{}
type negNode struct{}

// ctxNode yields the span set of one named context group; unknown names
// yield the empty set.
type ctxNode struct {
	name string
}

// anyNode is ANY(set): true iff the set is non-empty.
type anyNode struct {
	arg Node
}

// withinNode is WITHIN(n, A, B[, scope]).
type withinNode struct {
	n     int
	a     Node
	b     Node
	scope string
}

// Parse compiles an equation into an AST. The grammar is closed: any
// identifier other than the five primitives is a parse error.
//
//	expr    = or
//	or      = and { "or" and }
//	and     = unary { "and" unary }
//	unary   = "not" unary | primary
//	primary = "True" | "False" | "(" expr ")" | call
func Parse(src string) (Node, error) {
	p := &parser{lex: &lexer{src: src}}
	if err := p.advance(); err != nil {
		return nil, err
	}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %s after equation", p.tok)
	}
	return node, nil
}

type parser struct {
	lex *lexer
	tok token
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	if p.tok.kind != kind {
		return token{}, fmt.Errorf("expected %s, got %s", what, p.tok)
	}
	tok := p.tok
	if err := p.advance(); err != nil {
		return token{}, err
	}
	return tok, nil
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokOr {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &binNode{op: tokOr, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokAnd {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &binNode{op: tokAnd, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Node, error) {
	if p.tok.kind == tokNot {
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &notNode{expr: expr}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Node, error) {
	switch p.tok.kind {
	case tokTrue:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &boolLit{val: true}, nil
	case tokFalse:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &boolLit{val: false}, nil
	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		node, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, `")"`); err != nil {
			return nil, err
		}
		return node, nil
	case tokIdent:
		return p.parseCall()
	}
	return nil, fmt.Errorf("unexpected %s", p.tok)
}

func (p *parser) parseCall() (Node, error) {
	name := p.tok.text
	if err := p.advance(); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokLParen, `"(" after `+name); err != nil {
		return nil, err
	}

	switch name {
	case "POS":
		if _, err := p.expect(tokRParen, `")"`); err != nil {
			return nil, err
		}
		return &posNode{}, nil

	case "NEG":
		if _, err := p.expect(tokRParen, `")"`); err != nil {
			return nil, err
		}
		return &negNode{}, nil

	case "CTX":
		arg, err := p.expect(tokString, "context group name string")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, `")"`); err != nil {
			return nil, err
		}
		return &ctxNode{name: arg.text}, nil

	case "ANY":
		arg, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, `")"`); err != nil {
			return nil, err
		}
		return &anyNode{arg: arg}, nil

	case "WITHIN":
		numTok, err := p.expect(tokNumber, "token window number")
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(numTok.text)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid window %q", numTok.text)
		}
		if _, err := p.expect(tokComma, `","`); err != nil {
			return nil, err
		}
		a, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokComma, `","`); err != nil {
			return nil, err
		}
		b, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		scope := "tokens"
		if p.tok.kind == tokComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			switch p.tok.kind {
			case tokString, tokIdent:
				scope = p.tok.text
				if err := p.advance(); err != nil {
					return nil, err
				}
			default:
				return nil, fmt.Errorf("expected scope name, got %s", p.tok)
			}
		}
		if _, err := p.expect(tokRParen, `")"`); err != nil {
			return nil, err
		}
		return &withinNode{n: n, a: a, b: b, scope: scope}, nil
	}

	return nil, fmt.Errorf("unknown function %q", name)
}
