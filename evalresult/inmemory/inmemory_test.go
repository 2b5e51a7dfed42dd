//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package inmemory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/evalsuite/agentharness/evalresult"
)

func TestSaveAndGet(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Save(context.Background(), &evalresult.Record{RunID: "run-1", EvalID: "case-1", Score: 0.5}))
	require.NoError(t, m.Save(context.Background(), &evalresult.Record{RunID: "run-1", EvalID: "case-2", Score: 1.0}))
	require.NoError(t, m.Save(context.Background(), &evalresult.Record{RunID: "run-2", EvalID: "case-1", Score: 0.0}))

	records, err := m.Get(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "case-1", records[0].EvalID)

	records, err = m.Get(context.Background(), "missing")
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestGetReturnsCopy(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Save(context.Background(), &evalresult.Record{RunID: "run-1", EvalID: "case-1"}))
	records, err := m.Get(context.Background(), "run-1")
	require.NoError(t, err)
	records[0] = nil

	again, err := m.Get(context.Background(), "run-1")
	require.NoError(t, err)
	require.NotNil(t, again[0])
	require.Equal(t, "case-1", again[0].EvalID)
}

func TestListSorted(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Save(context.Background(), &evalresult.Record{RunID: "run-b"}))
	require.NoError(t, m.Save(context.Background(), &evalresult.Record{RunID: "run-a"}))
	ids, err := m.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"run-a", "run-b"}, ids)
}

func TestWriterAdapter(t *testing.T) {
	m := NewManager()
	w := m.Writer()
	require.NoError(t, w.Write(&evalresult.Record{RunID: "run-1", EvalID: "case-1"}))
	require.NoError(t, w.Close())

	records, err := m.Get(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
}
