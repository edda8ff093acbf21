// Package resources implements MCP resource handlers over the memory store.
//
// Resources give the host read-only context without a tool call. They use
// URI-based addressing (memory://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/memcord/memcord/internal/memory"
)

// Handler serves the memory resource endpoints.
type Handler struct {
	store *memory.Store
}

// NewHandler creates a resource Handler over the store.
func NewHandler(store *memory.Store) *Handler {
	return &Handler{store: store}
}

// StatsResource returns the resource definition for store statistics.
func (h *Handler) StatsResource() mcp.Resource {
	return mcp.NewResource(
		"memory://stats",
		"Memory Store Statistics",
		mcp.WithResourceDescription("Aggregate counts of memories, todos, projects and contexts"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStats returns the current store statistics as JSON.
func (h *Handler) HandleStats(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	stats, err := h.store.Stats()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	return jsonResource(req.Params.URI, stats)
}

// ProjectsResource returns the resource definition for project aggregates.
func (h *Handler) ProjectsResource() mcp.Resource {
	return mcp.NewResource(
		"memory://projects",
		"Project Overview",
		mcp.WithResourceDescription("Per-project memory counts, categories and last update"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleProjects returns the derived project aggregates as JSON.
func (h *Handler) HandleProjects(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	projects, err := h.store.ListProjects()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	if projects == nil {
		projects = []memory.ProjectInfo{}
	}
	return jsonResource(req.Params.URI, projects)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
