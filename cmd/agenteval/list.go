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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evalsuite/agentharness/evalresult"
	"github.com/evalsuite/agentharness/evalresult/jsonl"
	"github.com/evalsuite/agentharness/evalset/local"
)

func newListCommand() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List eval sets in a directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := local.NewManager(dir)
			defer manager.Close()
			ids, err := manager.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range ids {
				set, err := manager.Get(cmd.Context(), id)
				if err != nil {
					fmt.Printf("%s\t(invalid: %v)\n", id, err)
					continue
				}
				fmt.Printf("%s\t%d case(s)\n", id, len(set.Cases))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "directory containing *.evalset.yaml files")
	return cmd
}

func newSummarizeCommand() *cobra.Command {
	var minScore float64
	cmd := &cobra.Command{
		Use:   "summarize <results.jsonl>",
		Short: "Summarize a result file and apply the CI gate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			records, err := jsonl.Read(f)
			if err != nil {
				return err
			}
			summary := evalresult.Summarize(records)
			fmt.Println(summary)
			return summary.Gate(minScore)
		},
	}
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "fail when the mean score is below this threshold")
	return cmd
}
