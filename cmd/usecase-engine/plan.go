// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/usecase-engine/internal/plan"
	"github.com/pdiddy/usecase-engine/pkg/types"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Preview the research queries for an entity",
	Long: `Plan renders the configured query templates for an entity and industry
and prints them in dispatch order without calling any provider.

Use --save to write the queries to a YAML file, or --templates to write the
active template set so it can be edited and referenced from the config
file under planner.templates.`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().String("entity", "", "company or organization to research")
	planCmd.Flags().String("domain", "", "industry the entity operates in")
	planCmd.Flags().String("save", "", "write the planned queries to this YAML file")
	planCmd.Flags().String("templates", "", "write the active query templates to this YAML file")

	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	entity, _ := cmd.Flags().GetString("entity")
	domain, _ := cmd.Flags().GetString("domain")
	savePath, _ := cmd.Flags().GetString("save")
	templatesPath, _ := cmd.Flags().GetString("templates")

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	p, err := buildPipeline(cfg, true, nil)
	if err != nil {
		return err
	}

	if templatesPath != "" {
		templates, err := plannerTemplates(cfg.Planner)
		if err != nil {
			return err
		}
		if len(templates) == 0 {
			templates = plan.DefaultTemplates
		}
		if err := plan.WriteTemplateFile(templatesPath, templates); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Wrote %d templates to %s\n", len(templates), templatesPath)
		if entity == "" && domain == "" {
			return nil
		}
	}

	queries, err := p.Planner().PlanRequest(types.ResearchRequest{EntityName: entity, Domain: domain})
	if err != nil {
		return err
	}

	for i, q := range queries {
		fmt.Fprintf(os.Stdout, "%2d. %-17s %s\n", i+1, q.Category, firstLine(q.Text))
	}

	if savePath != "" {
		if err := plan.WriteQueryFile(savePath, types.ResearchRequest{EntityName: entity, Domain: domain}, queries); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Wrote %d queries to %s\n", len(queries), savePath)
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
