//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/evalsuite/agentharness/evalresult"
	"github.com/evalsuite/agentharness/evalset"
	"github.com/evalsuite/agentharness/provider"
)

type caseRunParam struct {
	idx      int
	ctx      context.Context
	runID    string
	set      *evalset.EvalSet
	prepared *preparedCase
	target   *Target
	response *provider.Response
	orch     *Orchestrator
	records  []*evalresult.Record
	wg       *sync.WaitGroup
}

func (p *caseRunParam) reset() {
	p.idx = 0
	p.ctx = nil
	p.runID = ""
	p.set = nil
	p.prepared = nil
	p.target = nil
	p.response = nil
	p.orch = nil
	p.records = nil
	p.wg = nil
}

var caseRunParamPool = &sync.Pool{
	New: func() any { return new(caseRunParam) },
}

func createCaseRunPool(size int) (*ants.PoolWithFunc, error) {
	if size <= 0 {
		return nil, errors.New("pool size must be greater than 0")
	}
	pool, err := ants.NewPoolWithFunc(size, func(args any) {
		param, ok := args.(*caseRunParam)
		if !ok {
			panic("case run pool args type error")
		}
		wg := param.wg
		defer func() {
			wg.Done()
			param.reset()
			caseRunParamPool.Put(param)
		}()
		param.records[param.idx] = param.orch.runCase(
			param.ctx, param.runID, param.set, param.prepared, param.target, param.response)
	})
	if err != nil {
		return nil, fmt.Errorf("create case run pool: %w", err)
	}
	return pool, nil
}
