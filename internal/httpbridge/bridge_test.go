package httpbridge_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/server"

	"github.com/memcord/memcord/internal/httpbridge"
	"github.com/memcord/memcord/internal/memory"
	"github.com/memcord/memcord/internal/memtools"
	"github.com/memcord/memcord/internal/service"
)

// newTestBridge wires a real store, service and MCP server behind the bridge.
func newTestBridge(t *testing.T) (*httpbridge.Bridge, *server.MCPServer) {
	t.Helper()
	store, err := memory.Open(memory.Config{
		Path:           filepath.Join(t.TempDir(), "memcord.db"),
		Dedupe:         true,
		DedupThreshold: 0.9,
		MaxResults:     20,
	})
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	svc := service.New(store, nil, nil, service.Options{}, nil)
	reg := memtools.NewRegistry(svc)

	mcpServer := server.NewMCPServer("memcord-test", "test",
		server.WithToolCapabilities(true),
	)
	reg.Register(mcpServer)

	bridge := httpbridge.New(mcpServer, reg.Count(), "test", log.Default())
	return bridge, mcpServer
}

func postMCP(t *testing.T, b *httpbridge.Bridge, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, req)
	return rec
}

// ─── /health ────────────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	bridge, _ := newTestBridge(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	bridge.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Status    string `json:"status"`
		Timestamp string `json:"timestamp"`
		Tools     int    `json:"tools"`
		Version   string `json:"version"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("health body is not JSON: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
	if body.Tools != 13 {
		t.Errorf("tools = %d, want 13", body.Tools)
	}
	if body.Version != "test" {
		t.Errorf("version = %q, want test", body.Version)
	}
	if body.Timestamp == "" {
		t.Error("missing timestamp")
	}
}

// ─── POST /mcp ──────────────────────────────────────────────────────────────

func TestMCP_ToolsList(t *testing.T) {
	bridge, _ := newTestBridge(t)

	rec := postMCP(t, bridge, `{"method":"tools/list"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if len(body.Tools) != 13 {
		t.Fatalf("advertised %d tools, want 13", len(body.Tools))
	}

	names := map[string]bool{}
	for _, tool := range body.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"add_memory", "search_memories", "export_memory_bank", "update_todo"} {
		if !names[want] {
			t.Errorf("missing tool %q", want)
		}
	}
}

func TestMCP_ToolsCall(t *testing.T) {
	bridge, _ := newTestBridge(t)

	rec := postMCP(t, bridge, `{
		"method": "tools/call",
		"params": {"name": "add_memory", "arguments": {"content": "the bridge proxies tool calls"}}
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if len(body.Content) == 0 {
		t.Fatalf("empty content in: %s", rec.Body.String())
	}
	if !strings.Contains(body.Content[0].Text, "Memory stored") {
		t.Errorf("unexpected tool output: %s", body.Content[0].Text)
	}
}

func TestMCP_InvalidMethodRejected(t *testing.T) {
	bridge, _ := newTestBridge(t)

	rec := postMCP(t, bridge, `{"method":"resources/list"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var body struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	if body.Error.Code != -32600 {
		t.Errorf("error code = %d, want -32600", body.Error.Code)
	}
	if !strings.Contains(body.Error.Message, "invalid method") {
		t.Errorf("error message = %q", body.Error.Message)
	}
}

func TestMCP_MalformedBodyRejected(t *testing.T) {
	bridge, _ := newTestBridge(t)

	rec := postMCP(t, bridge, `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

// The HTTP proxy must produce the same result payload as dispatching the
// equivalent JSON-RPC message directly.
func TestMCP_IdenticalDispatch(t *testing.T) {
	bridge, mcpServer := newTestBridge(t)

	rec := postMCP(t, bridge, `{"method":"tools/list"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	direct := mcpServer.HandleMessage(context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	raw, err := json.Marshal(direct)
	if err != nil {
		t.Fatal(err)
	}
	var env struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatal(err)
	}

	var viaHTTP, viaStdio any
	if err := json.Unmarshal(rec.Body.Bytes(), &viaHTTP); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(env.Result, &viaStdio); err != nil {
		t.Fatal(err)
	}

	httpJSON, _ := json.Marshal(viaHTTP)
	stdioJSON, _ := json.Marshal(viaStdio)
	if string(httpJSON) != string(stdioJSON) {
		t.Errorf("transports diverged:\nhttp:  %s\nstdio: %s", httpJSON, stdioJSON)
	}
}

func TestMCP_ToolErrorIsEnvelope(t *testing.T) {
	bridge, _ := newTestBridge(t)

	// A tool-level validation failure still travels as a 200 result with
	// IsError set, not a transport error.
	rec := postMCP(t, bridge, `{
		"method": "tools/call",
		"params": {"name": "add_memory", "arguments": {}}
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		IsError bool `json:"isError"`
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if !body.IsError {
		t.Errorf("expected isError in: %s", rec.Body.String())
	}
	if len(body.Content) == 0 || !strings.Contains(body.Content[0].Text, "invalid parameters") {
		t.Errorf("expected validation text, got: %s", rec.Body.String())
	}
}
