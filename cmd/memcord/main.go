// memcord: personal knowledge-persistence MCP service.
//
// Stores short facts (memories) and task items (todos) in a local SQLite
// database and exposes them to AI client tools over MCP stdio or an HTTP
// proxy performing the identical dispatch.
//
// Usage:
//
//	memcord serve        # MCP server on stdio
//	memcord serve-http   # HTTP proxy transport
//	memcord search <q>   # inspect stored memories
package main

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/memcord/memcord/internal/config"
)

var (
	cfgFile string
	logger  = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
	})
)

// Styles for the inspection commands.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	contentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("78"))
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "memcord",
	Short: "Personal memory and todo service for AI client tools",
	Long: titleStyle.Render("memcord") + " - a local, SQLite-backed memory service\n\n" +
		"Store facts and todos tagged by project, category and context,\n" +
		"and retrieve them by exact filter or approximate text match.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (default: ~/.memcord/config.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(serveHTTPCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFrom(cfgFile)
	}
	return config.Load()
}
