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
	"fmt"
	"strings"
)

// Summary aggregates a run's records, keeping errored cases out of the
// score statistics so infrastructure failures cannot masquerade as low
// scores (or be averaged away by high ones).
type Summary struct {
	// Total is the number of records.
	Total int `json:"total"`
	// Evaluated is the number of cases with a valid score.
	Evaluated int `json:"evaluated"`
	// Errored is the number of cases that never produced a gradable answer.
	Errored int `json:"errored"`
	// Passed counts evaluated cases with a pass verdict score (>= 0.5).
	Passed int `json:"passed"`
	// MeanScore is the mean over evaluated cases only.
	MeanScore float64 `json:"mean_score"`
	// MinScore is the minimum over evaluated cases.
	MinScore float64 `json:"min_score"`
	// ErroredCases lists the case ids that errored.
	ErroredCases []string `json:"errored_cases,omitempty"`
}

// Summarize folds records into a run summary.
func Summarize(records []*Record) *Summary {
	s := &Summary{Total: len(records), MinScore: 1.0}
	var sum float64
	for _, r := range records {
		if r.Errored() {
			s.Errored++
			s.ErroredCases = append(s.ErroredCases, r.EvalID)
			continue
		}
		s.Evaluated++
		sum += r.Score
		if r.Score < s.MinScore {
			s.MinScore = r.Score
		}
		if r.Score >= 0.5 {
			s.Passed++
		}
	}
	if s.Evaluated > 0 {
		s.MeanScore = sum / float64(s.Evaluated)
	} else {
		s.MinScore = 0
	}
	return s
}

// Gate checks a summary against a CI threshold. Any errored case fails the
// gate regardless of the mean score.
func (s *Summary) Gate(minScore float64) error {
	if s.Errored > 0 {
		return fmt.Errorf("%d case(s) errored: %s", s.Errored, strings.Join(s.ErroredCases, ", "))
	}
	if s.Evaluated == 0 {
		return fmt.Errorf("no cases evaluated")
	}
	if s.MeanScore < minScore {
		return fmt.Errorf("mean score %.3f below threshold %.3f", s.MeanScore, minScore)
	}
	return nil
}

// String renders a one-line human summary.
func (s *Summary) String() string {
	return fmt.Sprintf("%d cases: %d evaluated (%d passed, mean %.3f, min %.3f), %d errored",
		s.Total, s.Evaluated, s.Passed, s.MeanScore, s.MinScore, s.Errored)
}
