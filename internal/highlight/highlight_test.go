// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package highlight

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"triage-scan/internal/matcher"
	"triage-scan/internal/record"
	"triage-scan/internal/textnorm"
)

func TestProject_AccentedFullString(t *testing.T) {
	raw := "Pressão"
	res := textnorm.Normalize(raw, textnorm.DefaultOptions())
	require.Equal(t, "pressao", res.Text)

	segs := Project(raw, res, Input{
		Pos: []matcher.Span{{Start: 0, End: len(res.Text)}},
	})

	require.Len(t, segs, 1)
	assert.Equal(t, 0, segs[0].Start)
	assert.Equal(t, len(raw), segs[0].End)
	assert.Equal(t, raw, segs[0].Text)
	assert.Equal(t, record.LabelPos, segs[0].Label)
}

func TestProject_PriorityNegOverPosOverCtx(t *testing.T) {
	raw := "abcdef"
	res := textnorm.Normalize(raw, textnorm.DefaultOptions())

	segs := Project(raw, res, Input{
		Ctx: []matcher.Span{{Start: 0, End: 6}},
		Pos: []matcher.Span{{Start: 0, End: 4}},
		Neg: []matcher.Span{{Start: 2, End: 3}},
	})

	require.Len(t, segs, 4)
	assert.Equal(t, record.Segment{Start: 0, End: 2, Label: record.LabelPos, Text: "ab"}, segs[0])
	assert.Equal(t, record.Segment{Start: 2, End: 3, Label: record.LabelNeg, Text: "c"}, segs[1])
	assert.Equal(t, record.Segment{Start: 3, End: 4, Label: record.LabelPos, Text: "d"}, segs[2])
	assert.Equal(t, record.Segment{Start: 4, End: 6, Label: record.LabelCtx, Text: "ef"}, segs[3])
}

func TestProject_MergesAdjacentSameLabel(t *testing.T) {
	raw := "falha motor"
	res := textnorm.Normalize(raw, textnorm.DefaultOptions())

	segs := Project(raw, res, Input{
		Pos: []matcher.Span{{Start: 0, End: 3}, {Start: 3, End: 5}},
	})

	require.Len(t, segs, 1)
	assert.Equal(t, "falha", segs[0].Text)
}

func TestProject_ProjectedRangeRenormalizes(t *testing.T) {
	raw := "dor nas mãos ao usar a luva"
	opts := textnorm.DefaultOptions()
	res := textnorm.Normalize(raw, opts)

	i := strings.Index(res.Text, "maos")
	require.GreaterOrEqual(t, i, 0)

	segs := Project(raw, res, Input{
		Ctx: []matcher.Span{{Start: i, End: i + 4}},
	})

	require.Len(t, segs, 1)
	assert.Equal(t, "mãos", segs[0].Text)
	assert.Equal(t, "maos", textnorm.NormalizeString(segs[0].Text, opts))
}

func TestProject_EmptyInput(t *testing.T) {
	res := textnorm.Normalize("", textnorm.DefaultOptions())
	assert.Nil(t, Project("", res, Input{}))
}

func TestAuditLine(t *testing.T) {
	line := AuditLine(record.Result{
		RuleFired: "maos-perto",
		Decision:  record.Include,
		Category:  "Segurança > Proteção das Mãos",
		PosCount:  1,
		CtxCount:  1,
		Score:     2,
	})
	assert.Contains(t, line, "rule=maos-perto")
	assert.Contains(t, line, "decision=INCLUDE")
	assert.Contains(t, line, `category="Segurança > Proteção das Mãos"`)
	assert.Contains(t, line, "pos=1")

	line = AuditLine(record.Result{Decision: record.Exclude, ReasonCode: "NO_SIGNALS"})
	assert.Contains(t, line, "rule=-")
}
