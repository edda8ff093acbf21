package memtools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/memcord/memcord/internal/service"
)

// Tool pairs an MCP tool definition with its handler.
type Tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// Registry holds the full operation catalog. Both transports register from
// the same Registry, so they advertise identical tools.
type Registry struct {
	tools []Tool
}

// NewRegistry builds the catalog over the given service.
func NewRegistry(svc *service.Service) *Registry {
	return &Registry{tools: []Tool{
		NewAddMemoryTool(svc),
		NewSearchMemoriesTool(svc),
		NewGetMemoriesTool(svc),
		NewExtractMemoriesTool(svc),
		NewDeleteMemoryTool(svc),
		NewListProjectsTool(svc),
		NewListProjectFilesTool(svc),
		NewMemoryBankUpdateTool(svc),
		NewExportMemoryBankTool(svc),
		NewAddTodoTool(svc),
		NewListTodosTool(svc),
		NewUpdateTodoTool(svc),
		NewDeleteTodoTool(svc),
	}}
}

// Register adds every tool to the MCP server.
func (r *Registry) Register(s *server.MCPServer) {
	for _, t := range r.tools {
		s.AddTool(t.Definition(), t.Handle)
	}
}

// Count returns the number of advertised operations.
func (r *Registry) Count() int {
	return len(r.tools)
}

// Names returns the advertised operation names in catalog order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.tools))
	for i, t := range r.tools {
		names[i] = t.Definition().Name
	}
	return names
}
