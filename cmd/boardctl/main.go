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
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"caseboard-ai/pkg/config"
)

const version = "0.1.0"

const defaultConfigPath = "configs/bench.yaml"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	root := &cobra.Command{
		Use:           "boardctl",
		Short:         "caseboard AI planning tools: benchmark, one-shot plan, health",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringP("config", "c", "", "Configuration file path (default "+defaultConfigPath+" if present)")
	root.PersistentFlags().String("target", "", "Base URL of the planning API")
	root.PersistentFlags().String("token", "", "Bearer token (or BENCH_TOKEN)")
	_ = v.BindPFlag("bench.target", root.PersistentFlags().Lookup("target"))
	_ = v.BindPFlag("bench.token", root.PersistentFlags().Lookup("token"))

	root.AddCommand(
		newBenchCmd(v),
		newPlanCmd(v),
		newHealthCmd(v),
		newVersionCmd(),
		newConfigCmd(v),
	)
	return root
}

// loadConfig 读取配置文件（可选）后解析；flag 已绑定到 v，优先级高于文件
func loadConfig(cmd *cobra.Command, v *viper.Viper) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if _, err := os.Stat(path); err == nil || explicit {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("无法读取配置文件: %w", err)
		}
	}
	return config.Decode(v)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the boardctl version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "boardctl %s\n", version)
		},
	}
}

func newConfigCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with credentials masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, v)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(maskSecrets(*cfg), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "****"
}

// maskSecrets 返回副本，不修改传入配置
func maskSecrets(cfg config.Config) config.Config {
	cfg.Bench.Token = mask(cfg.Bench.Token)
	cfg.API.Middleware.JWTKey = mask(cfg.API.Middleware.JWTKey)
	cfg.Storage.Cache.Password = mask(cfg.Storage.Cache.Password)
	cfg.Access.DSN = mask(cfg.Access.DSN)
	if len(cfg.API.Middleware.StaticTokens) > 0 {
		keys := make([]string, 0, len(cfg.API.Middleware.StaticTokens))
		for k := range cfg.API.Middleware.StaticTokens {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		tokens := make(map[string]string, len(keys))
		for i, k := range keys {
			tokens[fmt.Sprintf("****%d", i+1)] = cfg.API.Middleware.StaticTokens[k]
		}
		cfg.API.Middleware.StaticTokens = tokens
	}
	if len(cfg.Model.LLM.Providers) > 0 {
		providers := make(map[string]config.ProviderConfig, len(cfg.Model.LLM.Providers))
		for name, pc := range cfg.Model.LLM.Providers {
			pc.APIKey = mask(pc.APIKey)
			providers[name] = pc
		}
		cfg.Model.LLM.Providers = providers
	}
	return cfg
}
