package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/memcord/memcord/internal/memory"
	"github.com/memcord/memcord/internal/service"
)

// ─── AddTodoTool ────────────────────────────────────────────────────────────

// AddTodoTool handles the add_todo MCP tool.
type AddTodoTool struct {
	svc *service.Service
}

// NewAddTodoTool creates an AddTodoTool.
func NewAddTodoTool(svc *service.Service) *AddTodoTool {
	return &AddTodoTool{svc: svc}
}

// Definition returns the MCP tool definition for add_todo.
func (t *AddTodoTool) Definition() mcp.Tool {
	return mcp.NewTool("add_todo",
		mcp.WithDescription("Create a task item. Defaults to pending status and medium priority."),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The task description"),
		),
		mcp.WithString("status",
			mcp.Description("Initial status (default: pending)"),
			mcp.Enum(memory.StatusPending, memory.StatusInProgress, memory.StatusCompleted),
		),
		mcp.WithString("priority",
			mcp.Description("Priority (default: medium)"),
			mcp.Enum(memory.PriorityLow, memory.PriorityMedium, memory.PriorityHigh),
		),
		mcp.WithString("project",
			mcp.Description("Project this task belongs to"),
		),
		mcp.WithString("context",
			mcp.Description("Grouping label"),
		),
		mcp.WithArray("tags",
			mcp.Description("Ordered list of tags"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
}

// Handle processes the add_todo tool call.
func (t *AddTodoTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content := req.GetString("content", "")
	if content == "" {
		return invalidParams("'content' is required"), nil
	}

	todo, err := t.svc.AddTodo(memory.AddTodoParams{
		Content:  content,
		Status:   req.GetString("status", ""),
		Priority: req.GetString("priority", ""),
		Project:  req.GetString("project", ""),
		Context:  req.GetString("context", ""),
		Tags:     stringSliceArg(req, "tags"),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add todo: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Todo created\nID: %s\nStatus: %s | Priority: %s",
		todo.ID, todo.Status, todo.Priority)), nil
}

// ─── ListTodosTool ──────────────────────────────────────────────────────────

// ListTodosTool handles the list_todos MCP tool.
type ListTodosTool struct {
	svc *service.Service
}

// NewListTodosTool creates a ListTodosTool.
func NewListTodosTool(svc *service.Service) *ListTodosTool {
	return &ListTodosTool{svc: svc}
}

// Definition returns the MCP tool definition for list_todos.
func (t *ListTodosTool) Definition() mcp.Tool {
	return mcp.NewTool("list_todos",
		mcp.WithDescription("List task items, filtered by status, priority, project or context."),
		mcp.WithString("status",
			mcp.Description("Filter by status"),
			mcp.Enum(memory.StatusPending, memory.StatusInProgress, memory.StatusCompleted),
		),
		mcp.WithString("priority",
			mcp.Description("Filter by priority"),
			mcp.Enum(memory.PriorityLow, memory.PriorityMedium, memory.PriorityHigh),
		),
		mcp.WithString("project",
			mcp.Description("Filter by project"),
		),
		mcp.WithString("context",
			mcp.Description("Filter by context"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 20)"),
		),
	)
}

// Handle processes the list_todos tool call.
func (t *ListTodosTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	todos, err := t.svc.ListTodos(memory.TodoFilter{
		Status:   req.GetString("status", ""),
		Priority: req.GetString("priority", ""),
		Project:  req.GetString("project", ""),
		Context:  req.GetString("context", ""),
		Limit:    intArg(req, "limit", 0),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list todos: %v", err)), nil
	}

	if len(todos) == 0 {
		return mcp.NewToolResultText("No todos found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d todos:\n\n", len(todos))
	for i, td := range todos {
		fmt.Fprintf(&b, "[%d] %s\n    %s\n    status: %s | priority: %s",
			i+1, td.ID, td.Content, td.Status, td.Priority)
		if td.Project != "" {
			fmt.Fprintf(&b, " | project: %s", td.Project)
		}
		b.WriteString("\n\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── UpdateTodoTool ─────────────────────────────────────────────────────────

// UpdateTodoTool handles the update_todo MCP tool.
type UpdateTodoTool struct {
	svc *service.Service
}

// NewUpdateTodoTool creates an UpdateTodoTool.
func NewUpdateTodoTool(svc *service.Service) *UpdateTodoTool {
	return &UpdateTodoTool{svc: svc}
}

// Definition returns the MCP tool definition for update_todo.
func (t *UpdateTodoTool) Definition() mcp.Tool {
	return mcp.NewTool("update_todo",
		mcp.WithDescription("Update a task by ID. Only provided fields are changed."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Todo ID to update"),
		),
		mcp.WithString("content",
			mcp.Description("New task description"),
		),
		mcp.WithString("status",
			mcp.Description("New status"),
			mcp.Enum(memory.StatusPending, memory.StatusInProgress, memory.StatusCompleted),
		),
		mcp.WithString("priority",
			mcp.Description("New priority"),
			mcp.Enum(memory.PriorityLow, memory.PriorityMedium, memory.PriorityHigh),
		),
		mcp.WithString("project",
			mcp.Description("New project"),
		),
		mcp.WithString("context",
			mcp.Description("New context"),
		),
		mcp.WithArray("tags",
			mcp.Description("Replacement tag list"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
}

// Handle processes the update_todo tool call.
func (t *UpdateTodoTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return invalidParams("'id' is required"), nil
	}

	params := memory.UpdateTodoParams{}
	if v := req.GetString("content", ""); v != "" {
		params.Content = &v
	}
	if v := req.GetString("status", ""); v != "" {
		params.Status = &v
	}
	if v := req.GetString("priority", ""); v != "" {
		params.Priority = &v
	}
	if v := req.GetString("project", ""); v != "" {
		params.Project = &v
	}
	if v := req.GetString("context", ""); v != "" {
		params.Context = &v
	}
	if tags := stringSliceArg(req, "tags"); tags != nil {
		params.Tags = &tags
	}

	todo, err := t.svc.UpdateTodo(id, params)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update todo: %v", err)), nil
	}
	if todo == nil {
		return mcp.NewToolResultText(fmt.Sprintf("Todo %s not found", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Todo %s updated\nStatus: %s | Priority: %s",
		todo.ID, todo.Status, todo.Priority)), nil
}

// ─── DeleteTodoTool ─────────────────────────────────────────────────────────

// DeleteTodoTool handles the delete_todo MCP tool.
type DeleteTodoTool struct {
	svc *service.Service
}

// NewDeleteTodoTool creates a DeleteTodoTool.
func NewDeleteTodoTool(svc *service.Service) *DeleteTodoTool {
	return &DeleteTodoTool{svc: svc}
}

// Definition returns the MCP tool definition for delete_todo.
func (t *DeleteTodoTool) Definition() mcp.Tool {
	return mcp.NewTool("delete_todo",
		mcp.WithDescription("Delete a task by ID."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Todo ID to delete"),
		),
	)
}

// Handle processes the delete_todo tool call.
func (t *DeleteTodoTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return invalidParams("'id' is required"), nil
	}

	existed, err := t.svc.DeleteTodo(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete todo: %v", err)), nil
	}
	if !existed {
		return mcp.NewToolResultText(fmt.Sprintf("Todo %s not found", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Todo %s deleted", id)), nil
}
