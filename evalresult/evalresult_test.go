//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package evalresult

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEpochTimeRoundTrip(t *testing.T) {
	now := time.Unix(1735689600, 500000000).UTC()
	data, err := json.Marshal(EpochTime{Time: now})
	require.NoError(t, err)
	var decoded EpochTime
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.WithinDuration(t, now, decoded.Time, time.Millisecond)
}

func TestEpochTimeZero(t *testing.T) {
	data, err := json.Marshal(EpochTime{})
	require.NoError(t, err)
	require.Equal(t, "0", string(data))
}

func TestRecordJSONFields(t *testing.T) {
	record := &Record{
		EvalID:     "case-1",
		Target:     "gpt-test",
		Score:      0.5,
		ScoreValid: true,
		Attempts:   2,
	}
	data, err := json.Marshal(record)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Equal(t, "case-1", doc["eval_id"])
	require.Equal(t, true, doc["score_valid"])
	require.Equal(t, float64(2), doc["attempts"])
}

func TestSummarizeSeparatesErrored(t *testing.T) {
	summary := Summarize([]*Record{
		{EvalID: "a", Score: 1.0, ScoreValid: true},
		{EvalID: "b", Score: 0.2, ScoreValid: true},
		{EvalID: "c", Error: "provider failed"},
	})
	require.Equal(t, 3, summary.Total)
	require.Equal(t, 2, summary.Evaluated)
	require.Equal(t, 1, summary.Errored)
	require.Equal(t, []string{"c"}, summary.ErroredCases)
	require.InDelta(t, 0.6, summary.MeanScore, 1e-9)
	require.Equal(t, 0.2, summary.MinScore)
	require.Equal(t, 1, summary.Passed)
}

func TestGateFailsOnErroredRegardlessOfMean(t *testing.T) {
	summary := Summarize([]*Record{
		{EvalID: "a", Score: 1.0, ScoreValid: true},
		{EvalID: "b", Error: "boom"},
	})
	err := summary.Gate(0.1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "errored")
}

func TestGateOnMeanScore(t *testing.T) {
	summary := Summarize([]*Record{
		{EvalID: "a", Score: 0.6, ScoreValid: true},
		{EvalID: "b", Score: 0.8, ScoreValid: true},
	})
	require.NoError(t, summary.Gate(0.7))
	require.Error(t, summary.Gate(0.75))
}

func TestGateEmptyRun(t *testing.T) {
	summary := Summarize(nil)
	require.Error(t, summary.Gate(0))
}

func TestInvalidScoreCountsAsErrored(t *testing.T) {
	record := &Record{EvalID: "a", Score: 0, ScoreValid: false}
	require.True(t, record.Errored())
	summary := Summarize([]*Record{record})
	require.Equal(t, 1, summary.Errored)
}
