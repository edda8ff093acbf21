// Package httpbridge exposes the MCP tool surface over a stateless HTTP
// endpoint. Each request is wrapped into a JSON-RPC message and dispatched
// through the exact same MCPServer as the stdio transport, so both
// transports produce structurally identical envelopes.
package httpbridge

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/server"
)

// Bridge is the HTTP proxy transport. It holds no per-request state; the
// shared store connection behind the MCP server must be ready before the
// listener accepts traffic.
type Bridge struct {
	mcp       *server.MCPServer
	toolCount int
	version   string
	logger    *log.Logger
	router    *gin.Engine
}

// New creates the bridge with its routes registered.
func New(mcp *server.MCPServer, toolCount int, version string, logger *log.Logger) *Bridge {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	b := &Bridge{
		mcp:       mcp,
		toolCount: toolCount,
		version:   version,
		logger:    logger,
		router:    router,
	}

	router.GET("/health", b.handleHealth)
	router.POST("/mcp", b.handleMCP)

	return b
}

// Run starts the HTTP listener. It blocks until the listener fails.
func (b *Bridge) Run(port int) error {
	addr := fmt.Sprintf(":%d", port)
	b.logger.Info("http bridge listening", "addr", addr)
	return b.router.Run(addr)
}

// Handler exposes the router for tests.
func (b *Bridge) Handler() http.Handler {
	return b.router
}

// proxyRequest is the accepted body shape: a named method plus optional
// parameters, without the JSON-RPC framing.
type proxyRequest struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type proxyError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// rpcEnvelope mirrors the JSON-RPC response emitted by the MCP dispatch.
type rpcEnvelope struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *proxyError     `json:"error,omitempty"`
}

func (b *Bridge) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"tools":     b.toolCount,
		"version":   b.version,
	})
}

func (b *Bridge) handleMCP(c *gin.Context) {
	var req proxyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": proxyError{Code: -32600, Message: "invalid method: malformed request body"},
		})
		return
	}

	switch req.Method {
	case "tools/list", "tools/call":
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": proxyError{Code: -32600, Message: fmt.Sprintf("invalid method: %q", req.Method)},
		})
		return
	}

	payload := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  req.Method,
	}
	if len(req.Params) > 0 {
		payload["params"] = req.Params
	}
	rpcReq, err := json.Marshal(payload)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": proxyError{Code: -32603, Message: err.Error()},
		})
		return
	}

	// Identical dispatch path as the stdio transport.
	msg := b.mcp.HandleMessage(c.Request.Context(), rpcReq)

	raw, err := json.Marshal(msg)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": proxyError{Code: -32603, Message: err.Error()},
		})
		return
	}

	var env rpcEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": proxyError{Code: -32603, Message: err.Error()},
		})
		return
	}

	if env.Error != nil {
		c.JSON(http.StatusOK, gin.H{"error": env.Error})
		return
	}
	c.Data(http.StatusOK, "application/json", env.Result)
}
