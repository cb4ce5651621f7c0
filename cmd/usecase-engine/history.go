// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/usecase-engine/internal/history"
	"github.com/pdiddy/usecase-engine/internal/pipeline"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect past runs (list, show, search)",
	Long: `History reads the SQLite run history written by run, serve and mcp.
Use subcommands to list recent runs, show one run with its result records,
or search record titles and snippets across runs.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run with its result records",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historySearchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search result titles and snippets across runs",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runHistorySearch,
}

func init() {
	historyCmd.PersistentFlags().String("db", "", "history database (default from config, output/history.db)")
	historyCmd.PersistentFlags().Bool("json", false, "output as JSON")
	historyListCmd.Flags().Int("limit", 20, "maximum number of runs")
	historySearchCmd.Flags().Int("limit", 20, "maximum number of records")

	historyCmd.AddCommand(historyListCmd, historyShowCmd, historySearchCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory(cmd *cobra.Command) (*history.Store, error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return nil, err
		}
		path = cfg.History.Path
	}
	if path == "" {
		return nil, fmt.Errorf("run history is disabled: set history.path or --db")
	}
	return history.Open(path)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return printJSON(runs)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-16s  %-24s  %-16s  %s\n", "Run", "Started", "Entity", "Domain", "Outcome")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 120))
	for _, r := range runs {
		fmt.Fprintf(os.Stdout, "%-36s  %-16s  %-24s  %-16s  %s\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04"),
			truncate(r.Request.EntityName, 24), truncate(r.Request.Domain, 16), r.Summary)
	}
	fmt.Fprintf(os.Stdout, "\n%d runs\n", len(runs))
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return printJSON(run)
	}

	fmt.Fprintf(os.Stdout, "Run:      %s\n", run.ID)
	fmt.Fprintf(os.Stdout, "Entity:   %s (%s)\n", run.Request.EntityName, run.Request.Domain)
	fmt.Fprintf(os.Stdout, "Started:  %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(os.Stdout, "Outcome:  %s\n", run.Summary)
	for _, s := range pipeline.Steps {
		st, ok := run.Steps[s]
		if !ok {
			continue
		}
		line := fmt.Sprintf("  %-10s %-8s %s", s, st.State, st.Duration.Round(1e6))
		if st.Reason != "" {
			line += "  " + st.Reason
		}
		fmt.Fprintln(os.Stdout, line)
	}
	for _, a := range run.Artifacts {
		fmt.Fprintf(os.Stdout, "Artifact: %s %s\n", a.FileName, a.Location)
	}

	fmt.Fprintln(os.Stdout)
	for i, r := range run.Records {
		if r.IsError {
			fmt.Fprintf(os.Stdout, "%3d. [%s] error: %s\n", i+1, r.Category, r.ErrorMessage)
			continue
		}
		fmt.Fprintf(os.Stdout, "%3d. [%s] %s\n     %s\n", i+1, r.Category, truncate(r.Title, 80), r.URL)
	}
	return nil
}

func runHistorySearch(cmd *cobra.Command, args []string) error {
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	records, err := store.SearchRecords(cmd.Context(), strings.Join(args, " "), limit)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return printJSON(records)
	}
	if len(records) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	for i, r := range records {
		fmt.Fprintf(os.Stdout, "%3d. %s\n     %s (%s)\n", i+1, truncate(r.Title, 80), r.URL, r.Source)
	}
	fmt.Fprintf(os.Stdout, "\n%d results\n", len(records))
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
