package main

import (
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/memcord/memcord/internal/httpbridge"
	"github.com/memcord/memcord/internal/server"
)

var httpPort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		inst, cleanup, err := server.New(cfg)
		if err != nil {
			return fmt.Errorf("creating server: %w", err)
		}
		defer cleanup()

		go checkForUpdates()

		// Stdout carries the MCP transport; everything else goes to stderr.
		return mcpserver.ServeStdio(inst.MCP)
	},
}

var serveHTTPCmd = &cobra.Command{
	Use:   "serve-http",
	Short: "Start the stateless HTTP proxy transport",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if httpPort != 0 {
			cfg.HTTP.Port = httpPort
		}

		// server.New opens the store first, so the listener only starts
		// once the shared connection is ready.
		inst, cleanup, err := server.New(cfg)
		if err != nil {
			return fmt.Errorf("creating server: %w", err)
		}
		defer cleanup()

		bridge := httpbridge.New(inst.MCP, inst.Registry.Count(), server.Version, inst.Logger)
		return bridge.Run(cfg.HTTP.Port)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("memcord v%s\n", server.Version)
	},
}

func init() {
	serveHTTPCmd.Flags().IntVar(&httpPort, "port", 0, "listen port (default: from config)")
}
