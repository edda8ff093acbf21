// Package memtools provides the MCP tool handlers for memcord.
//
// Each tool follows the same pattern:
// - A struct with dependencies (service.Service) injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() validates arguments, calls the service and formats the result
//
// Both transports (stdio and the HTTP proxy) dispatch through the same
// registry, so the advertised catalog and result envelopes are identical.
package memtools

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/memcord/memcord/internal/memory"
)

// intArg extracts an integer argument, returning defaultVal if the key is
// missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// floatArg extracts a float argument.
func floatArg(req mcp.CallToolRequest, key string, defaultVal float64) float64 {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return v
}

// stringSliceArg extracts an array-of-strings argument.
func stringSliceArg(req mcp.CallToolRequest, key string) []string {
	raw, ok := req.GetArguments()[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// bankEntriesArg extracts the memories array for memory_bank_update.
func bankEntriesArg(req mcp.CallToolRequest, key string) []memory.BankEntry {
	raw, ok := req.GetArguments()[key].([]any)
	if !ok {
		return nil
	}
	var entries []memory.BankEntry
	for _, v := range raw {
		obj, ok := v.(map[string]any)
		if !ok {
			continue
		}
		e := memory.BankEntry{}
		if s, ok := obj["content"].(string); ok {
			e.Content = s
		}
		if s, ok := obj["context"].(string); ok {
			e.Context = s
		}
		if n, ok := obj["importance"].(float64); ok {
			e.Importance = int(n)
		}
		if tags, ok := obj["tags"].([]any); ok {
			for _, t := range tags {
				if s, ok := t.(string); ok {
					e.Tags = append(e.Tags, s)
				}
			}
		}
		entries = append(entries, e)
	}
	return entries
}

// invalidParams builds the uniform rejection for missing/malformed
// arguments, emitted before the service is invoked.
func invalidParams(detail string) *mcp.CallToolResult {
	return mcp.NewToolResultError("invalid parameters: " + detail)
}
