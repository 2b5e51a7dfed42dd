//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package evaluator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClampScore(t *testing.T) {
	require.Equal(t, 0.0, ClampScore(-0.5))
	require.Equal(t, 1.0, ClampScore(1.5))
	require.Equal(t, 0.7, ClampScore(0.7))
}

func TestCapSummary(t *testing.T) {
	require.Nil(t, CapSummary(nil))
	require.Len(t, CapSummary([]string{"a", "b", "c", "d", "e", "f"}), SummaryCap)
	require.Len(t, CapSummary([]string{"a"}), 1)
}

func TestNormalizeDerivesVerdict(t *testing.T) {
	s := (&Score{Score: 0.5}).Normalize()
	require.Equal(t, VerdictPass, s.Verdict)
	s = (&Score{Score: 0.49}).Normalize()
	require.Equal(t, VerdictFail, s.Verdict)
}

func TestNormalizeKeepsExplicitVerdict(t *testing.T) {
	s := (&Score{Score: 0.9, Verdict: VerdictFail}).Normalize()
	require.Equal(t, VerdictFail, s.Verdict)
}

func TestNormalizeClampsAndCaps(t *testing.T) {
	s := (&Score{
		Score:  2.0,
		Hits:   []string{"1", "2", "3", "4", "5"},
		Misses: []string{"1", "2", "3", "4", "5", "6"},
	}).Normalize()
	require.Equal(t, 1.0, s.Score)
	require.Len(t, s.Hits, SummaryCap)
	require.Len(t, s.Misses, SummaryCap)
}

func TestFailScore(t *testing.T) {
	s := FailScore("judge %s unavailable", "gpt-x")
	require.Equal(t, 0.0, s.Score)
	require.Equal(t, VerdictFail, s.Verdict)
	require.Equal(t, []string{"judge gpt-x unavailable"}, s.Misses)
}
