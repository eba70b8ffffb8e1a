// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newPlanCmd(v *viper.Viper) *cobra.Command {
	var in planInput
	var boardFile string
	cmd := &cobra.Command{
		Use:   "plan <prompt>",
		Short: "Request a single plan from the API and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, v)
			if err != nil {
				return err
			}
			in.Prompt = args[0]
			if boardFile != "" {
				data, err := os.ReadFile(boardFile)
				if err != nil {
					return fmt.Errorf("read board state: %w", err)
				}
				in.Board = json.RawMessage(data)
			}
			timeout, err := time.ParseDuration(cfg.Bench.Timeout)
			if err != nil {
				return fmt.Errorf("bench.timeout: %w", err)
			}
			out, err := postPlan(newClient(cfg.Bench.Target, cfg.Bench.Token, timeout), in)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&in.BoardID, "board", "b", "", "Board id")
	cmd.Flags().StringVar(&in.Provider, "provider", "", "Provider override (anthropic|openai)")
	cmd.Flags().StringVar(&in.Model, "model", "", "Model override, requires --provider")
	cmd.Flags().StringVar(&boardFile, "board-state", "", "JSON file with the board objects to send")
	_ = cmd.MarkFlagRequired("board")
	return cmd
}

func newHealthCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Query GET /api/health on the target",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, v)
			if err != nil {
				return err
			}
			body, status, err := getHealth(newClient(cfg.Bench.Target, "", 10*time.Second))
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(body, "", "  ")
			fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", status, data)
			if status != 200 {
				return fmt.Errorf("target is not healthy: status %d", status)
			}
			return nil
		},
	}
}
