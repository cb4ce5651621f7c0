// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Research an entity and write the report artifacts",
	Long: `Run plans the research queries for an entity and its industry, queries the
configured providers, generates AI use cases, and writes one artifact per
requested format to the output directory (or the configured GCS bucket).

Provider failures do not stop the run: they appear as "Error fetching
results" rows and are counted in the final summary line. Invalid input or a
missing provider aborts the run and exits non-zero.

Use --dry-run to exercise the whole pipeline against offline stub providers.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("entity", "", "company or organization to research (required)")
	runCmd.Flags().String("domain", "", "industry the entity operates in (required)")
	runCmd.Flags().StringSlice("format", nil, "output formats: spreadsheet, document, markdown, citations (default from config)")
	runCmd.Flags().String("out", "", "output directory (default from config, \"output\")")
	runCmd.Flags().Int("parallelism", 0, "provider calls in flight (default from config, 1 = sequential)")
	runCmd.Flags().Bool("dry-run", false, "use offline stub providers instead of network APIs")
	runCmd.Flags().Bool("no-history", false, "do not record the run in the history database")
	runCmd.Flags().Bool("json", false, "print the run result as JSON")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	entity, _ := cmd.Flags().GetString("entity")
	domain, _ := cmd.Flags().GetString("domain")
	formatNames, _ := cmd.Flags().GetStringSlice("format")
	outDir, _ := cmd.Flags().GetString("out")
	parallelism, _ := cmd.Flags().GetInt("parallelism")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noHistory, _ := cmd.Flags().GetBool("no-history")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	formats, err := parseFormats(formatNames)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if parallelism > 0 {
		cfg.Pipeline.Parallelism = parallelism
	}

	progress := os.Stdout
	if jsonOutput {
		progress = os.Stderr
	}

	e, cleanup, err := buildEngine(cmd.Context(), cfg, engineOptions{
		offline:   dryRun,
		noHistory: noHistory,
		outDir:    outDir,
		progress:  progress,
	})
	if err != nil {
		return err
	}
	defer cleanup()

	out, err := e.Generate(cmd.Context(), types.ResearchRequest{EntityName: entity, Domain: domain}, formats...)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"run_id":       out.Result.RunID,
			"summary":      out.Result.Summary(),
			"failed_calls": out.Result.FailedCalls,
			"steps":        out.Result.Steps,
			"artifacts":    out.Artifacts,
			"manifest":     out.Manifest,
		})
	}
	fmt.Fprintf(os.Stdout, "run %s\n", out.Result.RunID)
	return nil
}
