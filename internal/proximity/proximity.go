// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package proximity resolves token-distance and sentence-scope adjacency
// between match span sets over one normalized record.
package proximity

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"triage-scan/internal/matcher"
)

// Scope selects how WITHIN interprets its distance argument.
type Scope string

const (
	// ScopeTokens measures token-index distance.
	ScopeTokens Scope = "tokens"
	// ScopeSentence requires both spans inside the same sentence.
	ScopeSentence Scope = "sentence"
	// ScopeParagraph is an alias of ScopeSentence. The source referenced a
	// paragraph scope but implemented it identically to sentence.
	ScopeParagraph Scope = "paragraph"
)

// ParseScope validates a scope name from a rule equation.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case ScopeTokens:
		return ScopeTokens, nil
	case ScopeSentence:
		return ScopeSentence, nil
	case ScopeParagraph:
		return ScopeSentence, nil
	}
	return "", fmt.Errorf("invalid proximity scope %q", s)
}

// wordRe spells out the word classes because \w is ASCII-only in RE2;
// tokens must hold together when accent folding is off ("mãos" is one
// token, not two).
var wordRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Index is the per-record token and sentence index. Built once per record
// and shared by every proximity test against it. Read-only after creation.
type Index struct {
	tokenStarts []int
	sentences   []matcher.Span
}

// NewIndex tokenizes normalized text. Tokens are maximal word-character
// runs; sentences are delimited by '.', '!' or '?', with any trailing
// remainder forming a final sentence.
func NewIndex(text string) *Index {
	idx := &Index{}
	for _, loc := range wordRe.FindAllStringIndex(text, -1) {
		idx.tokenStarts = append(idx.tokenStarts, loc[0])
	}

	start := 0
	for i, ch := range []byte(text) {
		if ch == '.' || ch == '!' || ch == '?' {
			idx.sentences = append(idx.sentences, matcher.Span{Start: start, End: i + 1})
			start = i + 1
		}
	}
	if start < len(text) {
		idx.sentences = append(idx.sentences, matcher.Span{Start: start, End: len(text)})
	}
	return idx
}

// TokenCount returns the number of tokens in the record.
func (idx *Index) TokenCount() int {
	return len(idx.tokenStarts)
}

// TokenIndex maps a byte offset to a token index: the number of token
// starts at or before the offset. Token starts are sorted, so this is a
// binary search.
func (idx *Index) TokenIndex(off int) int {
	return sort.Search(len(idx.tokenStarts), func(i int) bool {
		return idx.tokenStarts[i] > off
	})
}

// Near reports whether any span in a is within window tokens of any span
// in b. Either side empty means false.
func (idx *Index) Near(a, b []matcher.Span, window int) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	for _, sa := range a {
		ia := idx.TokenIndex(sa.Start)
		for _, sb := range b {
			ib := idx.TokenIndex(sb.Start)
			if abs(ia-ib) <= window {
				return true
			}
		}
	}
	return false
}

// SameSentence reports whether some span of a starts in the same sentence
// as some span of b.
func (idx *Index) SameSentence(a, b []matcher.Span) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	for _, sa := range a {
		si := idx.sentenceOf(sa.Start)
		if si < 0 {
			continue
		}
		for _, sb := range b {
			if idx.sentenceOf(sb.Start) == si {
				return true
			}
		}
	}
	return false
}

// Within is the shared proximity test behind the WITHIN DSL primitive.
func (idx *Index) Within(n int, a, b []matcher.Span, scope Scope) bool {
	if scope == ScopeSentence || scope == ScopeParagraph {
		return idx.SameSentence(a, b)
	}
	return idx.Near(a, b, n)
}

func (idx *Index) sentenceOf(off int) int {
	i := sort.Search(len(idx.sentences), func(i int) bool {
		return idx.sentences[i].End > off
	})
	if i < len(idx.sentences) && idx.sentences[i].Start <= off {
		return i
	}
	return -1
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
