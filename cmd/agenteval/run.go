//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/evalsuite/agentharness/evalresult/jsonl"
	"github.com/evalsuite/agentharness/evalset/local"
	"github.com/evalsuite/agentharness/evaluator"
	"github.com/evalsuite/agentharness/orchestrator"
	"github.com/evalsuite/agentharness/prompt"
	"github.com/evalsuite/agentharness/provider"
	openaiprovider "github.com/evalsuite/agentharness/provider/openai"
	"github.com/evalsuite/agentharness/workspace"
)

type runFlags struct {
	set          string
	dir          string
	out          string
	model        string
	judgeModel   string
	baseURL      string
	apiKey       string
	systemPrompt string
	parallelism  int
	maxRetries   int
	timeout      time.Duration
	minScore     float64
	batch        bool
	setupScript  []string
	teardown     []string
}

func newRunCommand() *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one eval set against a model target",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvalSet(cmd.Context(), flags)
		},
	}
	cmd.Flags().StringVar(&flags.set, "set", "", "eval set id (required)")
	cmd.Flags().StringVar(&flags.dir, "dir", ".", "directory containing *.evalset.yaml files")
	cmd.Flags().StringVar(&flags.out, "out", "results.jsonl", "result JSONL output path")
	cmd.Flags().StringVar(&flags.model, "model", "", "candidate model (required)")
	cmd.Flags().StringVar(&flags.judgeModel, "judge-model", "", "judge model, defaults to the candidate model")
	cmd.Flags().StringVar(&flags.baseURL, "base-url", "", "OpenAI-compatible endpoint base URL")
	cmd.Flags().StringVar(&flags.apiKey, "api-key", "", "API key, defaults to the environment")
	cmd.Flags().StringVar(&flags.systemPrompt, "system-prompt", "", "default system prompt for every case")
	cmd.Flags().IntVar(&flags.parallelism, "parallelism", orchestrator.DefaultParallelism, "concurrently running cases")
	cmd.Flags().IntVar(&flags.maxRetries, "max-retries", orchestrator.DefaultMaxRetries, "retries after a timed-out attempt")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "per-attempt provider timeout, 0 disables")
	cmd.Flags().Float64Var(&flags.minScore, "min-score", 0, "fail when the mean score is below this threshold")
	cmd.Flags().BoolVar(&flags.batch, "batch", false, "dispatch all cases in one provider call when supported")
	cmd.Flags().StringSliceVar(&flags.setupScript, "setup", nil, "workspace setup script argv")
	cmd.Flags().StringSliceVar(&flags.teardown, "teardown", nil, "workspace teardown script argv")
	cmd.MarkFlagRequired("set")
	cmd.MarkFlagRequired("model")
	return cmd
}

func runEvalSet(ctx context.Context, flags *runFlags) error {
	manager := local.NewManager(flags.dir)
	defer manager.Close()
	set, err := manager.Get(ctx, flags.set)
	if err != nil {
		return err
	}

	providerOpts := []openaiprovider.Option{}
	if flags.baseURL != "" {
		providerOpts = append(providerOpts, openaiprovider.WithBaseURL(flags.baseURL))
	}
	if flags.apiKey != "" {
		providerOpts = append(providerOpts, openaiprovider.WithAPIKey(flags.apiKey))
	}
	candidate := openaiprovider.New(flags.model, providerOpts...)
	judgeModel := flags.judgeModel
	if judgeModel == "" {
		judgeModel = flags.model
	}
	judge := openaiprovider.New(judgeModel, providerOpts...)

	writer, err := jsonl.NewFile(flags.out)
	if err != nil {
		return err
	}
	defer writer.Close()

	var promptOpts []prompt.Option
	if flags.systemPrompt != "" {
		promptOpts = append(promptOpts, prompt.WithDefaultSystemPrompt(flags.systemPrompt))
	}
	orchOpts := []orchestrator.Option{
		orchestrator.WithParallelism(flags.parallelism),
		orchestrator.WithMaxRetries(flags.maxRetries),
		orchestrator.WithTimeout(flags.timeout),
		orchestrator.WithPromptBuilder(prompt.NewBuilder(promptOpts...)),
		orchestrator.WithJudgeResolver(func(_ context.Context, _ *evaluator.Context) (provider.Provider, error) {
			return judge, nil
		}),
		orchestrator.WithResultWriter(writer),
	}
	if len(flags.setupScript) > 0 || len(flags.teardown) > 0 {
		orchOpts = append(orchOpts, orchestrator.WithWorkspace(workspace.NewRunner("", workspace.ScriptConfig{
			Setup:    flags.setupScript,
			Teardown: flags.teardown,
		})))
	}

	orch := orchestrator.New(orchOpts...)
	summary, _, err := orch.RunSet(ctx, set, &orchestrator.Target{
		Name:     flags.model,
		Provider: candidate,
		Batch:    flags.batch,
	})
	if err != nil {
		return err
	}
	fmt.Println(summary)
	return summary.Gate(flags.minScore)
}
