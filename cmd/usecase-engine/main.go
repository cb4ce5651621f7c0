// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the usecase-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/usecase-engine/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ and .env at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the usecase-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "usecase-engine",
	Short: "Research a company and generate AI use-case reports",
	Long: `usecase-engine researches a company within its industry. It plans a fixed
set of queries, fans them out to web search, dataset and repository catalogs,
asks a generative model for AI use cases, and writes the findings as a
spreadsheet, a Word document, a Markdown resource list, or CSL citations.

Use run to produce reports, plan to preview the queries, history to inspect
past runs, serve for the HTTP API, and mcp for the Model Context Protocol
tool server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./usecase-engine.yaml or ~/.config/usecase-engine/usecase-engine.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("usecase-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "usecase-engine"))
		}
	}

	viper.SetEnvPrefix("USECASE_ENGINE")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()
	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
