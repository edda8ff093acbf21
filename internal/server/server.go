// Package server wires the store, collaborators, service and tools into an
// MCP server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the layers that depend on abstractions. No business
// logic lives here, only wiring.
package server

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/server"

	"github.com/memcord/memcord/internal/config"
	"github.com/memcord/memcord/internal/gitmeta"
	"github.com/memcord/memcord/internal/memory"
	"github.com/memcord/memcord/internal/memtools"
	"github.com/memcord/memcord/internal/ollama"
	"github.com/memcord/memcord/internal/resources"
	"github.com/memcord/memcord/internal/service"
)

// Version is set at build time via ldflags.
var Version = "dev"

// probeTimeout bounds the startup connectivity check; the check itself is
// non-fatal either way.
const probeTimeout = 2 * time.Second

// Instance bundles the MCP server with the shared registry so both
// transports serve the same catalog.
type Instance struct {
	MCP      *server.MCPServer
	Registry *memtools.Registry
	Logger   *log.Logger
}

// New opens the store, probes the optional enhancement collaborator and
// returns a fully wired server instance.
//
// The returned cleanup function closes the store's database connection and
// must be called on shutdown (typically via defer). It is always non-nil.
func New(cfg *config.Config) (*Instance, func(), error) {
	logger := newLogger(cfg.Log)

	store, err := memory.Open(memory.Config{
		Path:           cfg.Storage.Path,
		Dedupe:         cfg.Processing.Deduplicate,
		DedupThreshold: cfg.Processing.DedupThreshold,
		MaxResults:     cfg.Processing.MaxResults,
	})
	if err != nil {
		return nil, noop, fmt.Errorf("opening store: %w", err)
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Error("closing store", "err", err)
		}
	}

	var enhancer service.Enhancer
	if cfg.Ollama.Enabled {
		client := ollama.New(cfg.Ollama.URL, cfg.Ollama.Model)
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		if err := client.Probe(ctx); err != nil {
			logger.Warn("enhancement collaborator unreachable, using local fallbacks", "err", err)
		}
		cancel()
		enhancer = client
	}

	workdir, _ := os.Getwd()
	svc := service.New(store, enhancer, gitmeta.New(), service.Options{
		Enhance:          cfg.Ollama.Enabled,
		AutoExtract:      cfg.Processing.AutoExtract,
		DefaultThreshold: cfg.Processing.SimilarityThreshold,
		Workdir:          workdir,
	}, logger)

	registry := memtools.NewRegistry(svc)

	s := server.NewMCPServer(
		"memcord",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)
	registry.Register(s)

	resourceHandler := resources.NewHandler(store)
	s.AddResource(resourceHandler.StatsResource(), resourceHandler.HandleStats)
	s.AddResource(resourceHandler.ProjectsResource(), resourceHandler.HandleProjects)

	logger.Info("server ready", "tools", registry.Count(), "db", cfg.Storage.Path)

	return &Instance{MCP: s, Registry: registry, Logger: logger}, cleanup, nil
}

func newLogger(cfg config.LogConfig) *log.Logger {
	out := os.Stderr
	if cfg.File != "" {
		if f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			out = f
		}
	}
	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
	})
	if lvl, err := log.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}

func serverInstructions() string {
	return "memcord stores short facts (memories) and task items (todos) across sessions. " +
		"Use add_memory proactively for decisions, preferences and discoveries; " +
		"search_memories before asking the user to repeat themselves; " +
		"todos track work that outlives the current conversation."
}

func noop() {}
