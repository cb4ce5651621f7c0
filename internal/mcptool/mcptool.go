// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mcptool exposes the research pipeline as Model Context Protocol
// tools so assistants can plan queries and generate reports.
package mcptool

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/pdiddy/usecase-engine/internal/engine"
	"github.com/pdiddy/usecase-engine/pkg/types"
)

// Tool names.
const (
	ToolGenerate = "generate_research_report"
	ToolPlan     = "plan_research_queries"
	ToolRuns     = "list_research_runs"
)

// Tools serves MCP tool calls against an engine.
type Tools struct {
	engine *engine.Engine
}

// New returns the tool handlers for e.
func New(e *engine.Engine) *Tools {
	return &Tools{engine: e}
}

// NewServer builds an MCP server with every tool registered.
func NewServer(e *engine.Engine, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"usecase-engine",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	New(e).Register(s)
	return s
}

// Register adds the tools to s.
func (t *Tools) Register(s *server.MCPServer) {
	entity := mcp.WithString("entity_name",
		mcp.Required(),
		mcp.Description("Company or organization to research"),
	)
	domain := mcp.WithString("domain",
		mcp.Required(),
		mcp.Description("Industry the entity operates in, e.g. Retail"),
	)

	s.AddTool(mcp.NewTool(ToolGenerate,
		mcp.WithDescription("Research an entity across web search, dataset and repository catalogs and write AI use-case reports"),
		entity, domain,
		mcp.WithString("formats",
			mcp.Description("Comma-separated output formats: spreadsheet, document, markdown, citations"),
			mcp.DefaultString("spreadsheet,document"),
		),
	), t.HandleGenerate)

	s.AddTool(mcp.NewTool(ToolPlan,
		mcp.WithDescription("List the research queries a report would issue, without calling any provider"),
		entity, domain,
	), t.HandlePlan)

	s.AddTool(mcp.NewTool(ToolRuns,
		mcp.WithDescription("List recent research runs from the history database"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of runs to return"),
			mcp.DefaultNumber(10),
			mcp.Min(1),
			mcp.Max(100),
		),
	), t.HandleRuns)
}

func requestArgs(request mcp.CallToolRequest) (types.ResearchRequest, error) {
	entity, err := request.RequireString("entity_name")
	if err != nil {
		return types.ResearchRequest{}, fmt.Errorf("invalid entity_name: %w", err)
	}
	domain, err := request.RequireString("domain")
	if err != nil {
		return types.ResearchRequest{}, fmt.Errorf("invalid domain: %w", err)
	}
	return types.ResearchRequest{EntityName: entity, Domain: domain}, nil
}

// HandlePlan handles the plan_research_queries tool call.
func (t *Tools) HandlePlan(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := requestArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	queries, err := t.engine.Pipeline.Planner().PlanRequest(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d queries for %s (%s):\n", len(queries), strings.TrimSpace(req.EntityName), strings.TrimSpace(req.Domain))
	for i, q := range queries {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, q.Category, firstLine(q.Text))
	}
	return mcp.NewToolResultText(b.String()), nil
}

// HandleGenerate handles the generate_research_report tool call.
func (t *Tools) HandleGenerate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := requestArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var formats []types.Format
	for _, name := range strings.Split(request.GetString("formats", ""), ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		f, err := types.ParseFormat(name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		formats = append(formats, f)
	}

	out, err := t.engine.Generate(ctx, req, formats...)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to generate report: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Run %s: %s\n", out.Result.RunID, out.Result.Summary())
	for _, a := range out.Artifacts {
		loc := a.Location
		if loc == "" {
			loc = "not stored"
		}
		fmt.Fprintf(&b, "- %s (%s, %d bytes): %s\n", a.FileName, a.Format, a.Size, loc)
	}
	if out.Manifest != "" {
		fmt.Fprintf(&b, "Manifest: %s\n", out.Manifest)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// HandleRuns handles the list_research_runs tool call.
func (t *Tools) HandleRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.engine.History == nil {
		return mcp.NewToolResultError("run history is disabled"), nil
	}
	runs, err := t.engine.History.List(ctx, request.GetInt("limit", 10))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(runs) == 0 {
		return mcp.NewToolResultText("No runs recorded"), nil
	}

	var b strings.Builder
	for _, r := range runs {
		fmt.Fprintf(&b, "- %s %s %s (%s): %s\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04"), r.Request.EntityName, r.Request.Domain, r.Summary)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
