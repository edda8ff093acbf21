package memtools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/memcord/memcord/internal/memory"
	"github.com/memcord/memcord/internal/service"
)

// ─── AddMemoryTool ──────────────────────────────────────────────────────────

// AddMemoryTool handles the add_memory MCP tool.
type AddMemoryTool struct {
	svc *service.Service
}

// NewAddMemoryTool creates an AddMemoryTool.
func NewAddMemoryTool(svc *service.Service) *AddMemoryTool {
	return &AddMemoryTool{svc: svc}
}

// Definition returns the MCP tool definition for add_memory.
func (t *AddMemoryTool) Definition() mcp.Tool {
	return mcp.NewTool("add_memory",
		mcp.WithDescription(
			"Store a fact in persistent memory. Near-duplicates in the same context are merged "+
				"into the existing memory instead of creating a new one.",
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The fact to remember"),
		),
		mcp.WithString("context",
			mcp.Description("Grouping label for this memory (default: general)"),
		),
		mcp.WithNumber("importance",
			mcp.Description("Importance from 1 to 10 (default: 5)"),
		),
		mcp.WithString("project",
			mcp.Description("Project this memory belongs to"),
		),
		mcp.WithString("category",
			mcp.Description("Category within the project"),
		),
		mcp.WithArray("tags",
			mcp.Description("Ordered list of tags"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
}

// Handle processes the add_memory tool call.
func (t *AddMemoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content := req.GetString("content", "")
	if content == "" {
		return invalidParams("'content' is required"), nil
	}

	res, err := t.svc.AddMemory(ctx, service.AddMemoryRequest{
		Content:    content,
		Context:    req.GetString("context", ""),
		Importance: intArg(req, "importance", 0),
		Project:    req.GetString("project", ""),
		Category:   req.GetString("category", ""),
		Tags:       stringSliceArg(req, "tags"),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add memory: %v", err)), nil
	}

	m := res.Memory
	action := "Memory stored"
	if res.Merged {
		action = "Memory merged into existing entry"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nID: %s\nContext: %s | Importance: %d", action, m.ID, m.Context, m.Importance)
	if m.Project != "" {
		fmt.Fprintf(&b, " | Project: %s", m.Project)
	}
	if res.Enhanced {
		b.WriteString("\nContent was enhanced before storage")
	}
	if res.Extracted > 0 {
		fmt.Fprintf(&b, "\nExtracted %d additional facts", res.Extracted)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── SearchMemoriesTool ─────────────────────────────────────────────────────

// SearchMemoriesTool handles the search_memories MCP tool.
type SearchMemoriesTool struct {
	svc *service.Service
}

// NewSearchMemoriesTool creates a SearchMemoriesTool.
func NewSearchMemoriesTool(svc *service.Service) *SearchMemoriesTool {
	return &SearchMemoriesTool{svc: svc}
}

// Definition returns the MCP tool definition for search_memories.
func (t *SearchMemoriesTool) Definition() mcp.Tool {
	return mcp.NewTool("search_memories",
		mcp.WithDescription(
			"Search stored memories by approximate text match. Results are ranked by how well "+
				"the content covers the query.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query, natural language or keywords"),
		),
		mcp.WithString("context",
			mcp.Description("Restrict the search to one context"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 20)"),
		),
		mcp.WithNumber("threshold",
			mcp.Description("Minimum relevance score 0.0-1.0 (default: 0.3)"),
		),
	)
}

// Handle processes the search_memories tool call.
func (t *SearchMemoriesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return invalidParams("'query' is required"), nil
	}

	results, err := t.svc.SearchMemories(ctx, query, memory.SearchOptions{
		Context:   req.GetString("context", ""),
		Limit:     intArg(req, "limit", 0),
		Threshold: floatArg(req, "threshold", 0),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(results) == 0 {
		return mcp.NewToolResultText("No memories found matching your query."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d memories:\n\n", len(results))
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] %s (score %.2f)\n    %s\n    context: %s | importance: %d",
			i+1, r.ID, r.Score, r.Content, r.Context, r.Importance)
		if r.Project != "" {
			fmt.Fprintf(&b, " | project: %s", r.Project)
		}
		b.WriteString("\n\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── GetMemoriesTool ────────────────────────────────────────────────────────

// GetMemoriesTool handles the get_memories MCP tool.
type GetMemoriesTool struct {
	svc *service.Service
}

// NewGetMemoriesTool creates a GetMemoriesTool.
func NewGetMemoriesTool(svc *service.Service) *GetMemoriesTool {
	return &GetMemoriesTool{svc: svc}
}

// Definition returns the MCP tool definition for get_memories.
func (t *GetMemoriesTool) Definition() mcp.Tool {
	return mcp.NewTool("get_memories",
		mcp.WithDescription(
			"List stored memories by exact filter, newest first.",
		),
		mcp.WithString("context",
			mcp.Description("Only memories in this context"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 20)"),
		),
		mcp.WithString("since",
			mcp.Description("Only memories created at or after this RFC3339 timestamp"),
		),
	)
}

// Handle processes the get_memories tool call.
func (t *GetMemoriesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := memory.GetOptions{
		Context: req.GetString("context", ""),
		Limit:   intArg(req, "limit", 0),
	}
	if since := req.GetString("since", ""); since != "" {
		ts, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return invalidParams("'since' must be an RFC3339 timestamp"), nil
		}
		opts.Since = &ts
	}

	memories, err := t.svc.GetMemories(opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get memories: %v", err)), nil
	}

	if len(memories) == 0 {
		return mcp.NewToolResultText("No memories stored yet."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d memories:\n\n", len(memories))
	for i, m := range memories {
		fmt.Fprintf(&b, "[%d] %s\n    %s\n    context: %s | importance: %d | source: %s\n\n",
			i+1, m.ID, m.Content, m.Context, m.Importance, m.Source)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── ExtractMemoriesTool ────────────────────────────────────────────────────

// ExtractMemoriesTool handles the extract_memories MCP tool.
type ExtractMemoriesTool struct {
	svc *service.Service
}

// NewExtractMemoriesTool creates an ExtractMemoriesTool.
func NewExtractMemoriesTool(svc *service.Service) *ExtractMemoriesTool {
	return &ExtractMemoriesTool{svc: svc}
}

// Definition returns the MCP tool definition for extract_memories.
func (t *ExtractMemoriesTool) Definition() mcp.Tool {
	return mcp.NewTool("extract_memories",
		mcp.WithDescription(
			"Extract the facts worth remembering from free text and store each as an "+
				"independent auto-extracted memory.",
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Free text to extract facts from"),
		),
		mcp.WithString("context",
			mcp.Description("Default context for extracted facts (default: general)"),
		),
	)
}

// Handle processes the extract_memories tool call.
func (t *ExtractMemoriesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("text", "")
	if text == "" {
		return invalidParams("'text' is required"), nil
	}

	created, err := t.svc.ExtractMemories(ctx, text, req.GetString("context", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("extraction failed: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Extracted and stored %d memories:\n", len(created))
	for _, m := range created {
		fmt.Fprintf(&b, "- %s (%s, importance %d)\n", m.Content, m.Context, m.Importance)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── DeleteMemoryTool ───────────────────────────────────────────────────────

// DeleteMemoryTool handles the delete_memory MCP tool.
type DeleteMemoryTool struct {
	svc *service.Service
}

// NewDeleteMemoryTool creates a DeleteMemoryTool.
func NewDeleteMemoryTool(svc *service.Service) *DeleteMemoryTool {
	return &DeleteMemoryTool{svc: svc}
}

// Definition returns the MCP tool definition for delete_memory.
func (t *DeleteMemoryTool) Definition() mcp.Tool {
	return mcp.NewTool("delete_memory",
		mcp.WithDescription("Delete a memory by ID."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Memory ID to delete"),
		),
	)
}

// Handle processes the delete_memory tool call.
func (t *DeleteMemoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return invalidParams("'id' is required"), nil
	}

	existed, err := t.svc.DeleteMemory(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete memory: %v", err)), nil
	}
	if !existed {
		return mcp.NewToolResultText(fmt.Sprintf("Memory %s not found", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Memory %s deleted", id)), nil
}
