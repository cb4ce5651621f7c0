// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/usecase-engine/internal/mcptool"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the research tools over MCP on stdio",
	Long: `MCP runs a Model Context Protocol server on stdin/stdout exposing
generate_research_report, plan_research_queries and list_research_runs.
Progress output goes to stderr so it does not corrupt the protocol stream.`,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().Bool("dry-run", false, "use offline stub providers instead of network APIs")

	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	e, cleanup, err := buildEngine(cmd.Context(), cfg, engineOptions{offline: dryRun, progress: os.Stderr})
	if err != nil {
		return err
	}
	defer cleanup()

	return server.ServeStdio(mcptool.NewServer(e, version))
}
