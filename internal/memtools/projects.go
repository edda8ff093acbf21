package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/memcord/memcord/internal/service"
)

// ─── ListProjectsTool ───────────────────────────────────────────────────────

// ListProjectsTool handles the list_projects MCP tool.
type ListProjectsTool struct {
	svc *service.Service
}

// NewListProjectsTool creates a ListProjectsTool.
func NewListProjectsTool(svc *service.Service) *ListProjectsTool {
	return &ListProjectsTool{svc: svc}
}

// Definition returns the MCP tool definition for list_projects.
func (t *ListProjectsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_projects",
		mcp.WithDescription(
			"List all projects that have memories, with counts, categories and last update.",
		),
	)
}

// Handle processes the list_projects tool call.
func (t *ListProjectsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := t.svc.ListProjects()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list projects: %v", err)), nil
	}

	if len(projects) == 0 {
		return mcp.NewToolResultText("No projects recorded yet."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d projects:\n\n", len(projects))
	for _, p := range projects {
		fmt.Fprintf(&b, "- %s: %d memories", p.Project, p.Count)
		if len(p.Categories) > 0 {
			fmt.Fprintf(&b, " | categories: %s", strings.Join(p.Categories, ", "))
		}
		fmt.Fprintf(&b, " | updated: %s\n", p.LastUpdated.Format("2006-01-02 15:04"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── ListProjectFilesTool ───────────────────────────────────────────────────

// ListProjectFilesTool handles the list_project_files MCP tool.
type ListProjectFilesTool struct {
	svc *service.Service
}

// NewListProjectFilesTool creates a ListProjectFilesTool.
func NewListProjectFilesTool(svc *service.Service) *ListProjectFilesTool {
	return &ListProjectFilesTool{svc: svc}
}

// Definition returns the MCP tool definition for list_project_files.
func (t *ListProjectFilesTool) Definition() mcp.Tool {
	return mcp.NewTool("list_project_files",
		mcp.WithDescription("List the distinct categories recorded for a project."),
		mcp.WithString("project",
			mcp.Required(),
			mcp.Description("Project name"),
		),
	)
}

// Handle processes the list_project_files tool call.
func (t *ListProjectFilesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")
	if project == "" {
		return invalidParams("'project' is required"), nil
	}

	categories, err := t.svc.ListProjectFiles(project)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list project files: %v", err)), nil
	}

	if len(categories) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No categories recorded for project %q.", project)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Categories for %s:\n- %s", project, strings.Join(categories, "\n- "))), nil
}

// ─── MemoryBankUpdateTool ───────────────────────────────────────────────────

// MemoryBankUpdateTool handles the memory_bank_update MCP tool.
type MemoryBankUpdateTool struct {
	svc *service.Service
}

// NewMemoryBankUpdateTool creates a MemoryBankUpdateTool.
func NewMemoryBankUpdateTool(svc *service.Service) *MemoryBankUpdateTool {
	return &MemoryBankUpdateTool{svc: svc}
}

// Definition returns the MCP tool definition for memory_bank_update.
func (t *MemoryBankUpdateTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_bank_update",
		mcp.WithDescription(
			"Bulk-insert memories for a project in one atomic batch: either every entry "+
				"is stored or none are.",
		),
		mcp.WithString("project",
			mcp.Required(),
			mcp.Description("Project the memories belong to"),
		),
		mcp.WithString("category",
			mcp.Description("Category for all entries"),
		),
		mcp.WithArray("memories",
			mcp.Required(),
			mcp.Description("Entries to store: objects with content (required), context, importance, tags"),
			mcp.Items(map[string]any{"type": "object"}),
		),
	)
}

// Handle processes the memory_bank_update tool call.
func (t *MemoryBankUpdateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")
	if project == "" {
		return invalidParams("'project' is required"), nil
	}
	entries := bankEntriesArg(req, "memories")
	if len(entries) == 0 {
		return invalidParams("'memories' must be a non-empty array"), nil
	}

	n, err := t.svc.UpdateMemoryBank(project, req.GetString("category", ""), entries)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("memory bank update failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Stored %d memories for project %s", n, project)), nil
}

// ─── ExportMemoryBankTool ───────────────────────────────────────────────────

// ExportMemoryBankTool handles the export_memory_bank MCP tool.
type ExportMemoryBankTool struct {
	svc *service.Service
}

// NewExportMemoryBankTool creates an ExportMemoryBankTool.
func NewExportMemoryBankTool(svc *service.Service) *ExportMemoryBankTool {
	return &ExportMemoryBankTool{svc: svc}
}

// Definition returns the MCP tool definition for export_memory_bank.
func (t *ExportMemoryBankTool) Definition() mcp.Tool {
	return mcp.NewTool("export_memory_bank",
		mcp.WithDescription(
			"Export stored memories, optionally filtered by project and category.",
		),
		mcp.WithString("project",
			mcp.Description("Only memories for this project"),
		),
		mcp.WithString("category",
			mcp.Description("Only memories in this category"),
		),
		mcp.WithString("format",
			mcp.Description("Output format (default: json)"),
			mcp.Enum(service.FormatJSON, service.FormatMarkdown, service.FormatCSV),
		),
	)
}

// Handle processes the export_memory_bank tool call.
func (t *ExportMemoryBankTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := t.svc.ExportMemoryBank(
		req.GetString("project", ""),
		req.GetString("category", ""),
		req.GetString("format", service.FormatJSON),
	)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("export failed: %v", err)), nil
	}
	return mcp.NewToolResultText(out), nil
}
