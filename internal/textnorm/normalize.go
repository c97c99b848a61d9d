// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package textnorm normalizes record text for matching while keeping an
// exact byte-level back-map onto the raw input, so that match spans found in
// normalized text can be projected back for display.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Options controls which normalization steps run.
type Options struct {
	Lowercase    bool
	StripAccents bool
}

// DefaultOptions matches the default profile: lowercase + accent folding.
func DefaultOptions() Options {
	return Options{Lowercase: true, StripAccents: true}
}

// Result holds normalized text and its back-map. BackMap has one entry per
// byte of Text; BackMap[i] is the byte offset of the raw rune that produced
// Text[i]. BackMap is non-decreasing.
type Result struct {
	Text    string
	BackMap []int
}

// Normalize applies the configured steps rune by rune. Folding a rune may
// emit zero or more runes (an accent folds away entirely when the base mark
// is all there was); every emitted byte maps back to the raw rune's offset.
func Normalize(raw string, opts Options) Result {
	var b strings.Builder
	b.Grow(len(raw))
	backMap := make([]int, 0, len(raw))

	for i, r := range raw {
		for _, fr := range foldRune(r, opts) {
			n := utf8.RuneLen(fr)
			b.WriteRune(fr)
			for j := 0; j < n; j++ {
				backMap = append(backMap, i)
			}
		}
	}

	return Result{Text: b.String(), BackMap: backMap}
}

// NormalizeString is Normalize without the back-map, for normalizing
// profile terms with the same options as the record text.
func NormalizeString(raw string, opts Options) string {
	return Normalize(raw, opts).Text
}

// ProjectSpan maps a half-open normalized span back to raw byte offsets.
// The end lands just past the raw rune that produced the last normalized
// byte. Returns (0, 0) for spans outside the back-map.
func (res Result) ProjectSpan(raw string, start, end int) (int, int) {
	if start < 0 || end <= start || end > len(res.BackMap) {
		return 0, 0
	}
	rawStart := res.BackMap[start]
	last := res.BackMap[end-1]
	_, size := utf8.DecodeRuneInString(raw[last:])
	return rawStart, last + size
}

func foldRune(r rune, opts Options) []rune {
	out := []rune{r}
	if opts.StripAccents {
		out = out[:0]
		for _, d := range norm.NFD.String(string(r)) {
			if unicode.Is(unicode.Mn, d) {
				continue
			}
			out = append(out, d)
		}
	}
	if opts.Lowercase {
		for i, d := range out {
			out[i] = unicode.ToLower(d)
		}
	}
	return out
}
