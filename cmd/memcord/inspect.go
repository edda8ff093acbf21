package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/memcord/memcord/internal/memory"
	"github.com/memcord/memcord/internal/service"
)

// openStore opens the store read-write with the configured processing flags.
func openStore() (*memory.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return memory.Open(memory.Config{
		Path:           cfg.Storage.Path,
		Dedupe:         cfg.Processing.Deduplicate,
		DedupThreshold: cfg.Processing.DedupThreshold,
		MaxResults:     cfg.Processing.MaxResults,
	})
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search stored memories",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		context, _ := cmd.Flags().GetString("context")
		threshold, _ := cmd.Flags().GetFloat64("threshold")

		results, err := store.SearchMemories(args[0], memory.SearchOptions{
			Context:   context,
			Limit:     limit,
			Threshold: threshold,
		})
		if err != nil {
			return err
		}

		if len(results) == 0 {
			logger.Info("No memories found")
			return nil
		}

		fmt.Println(titleStyle.Render(fmt.Sprintf("%d memories", len(results))))
		for _, r := range results {
			fmt.Printf("%s %s\n", idStyle.Render(r.ID), idStyle.Render(fmt.Sprintf("(%.2f)", r.Score)))
			fmt.Printf("  %s\n", contentStyle.Render(r.Content))
			meta := fmt.Sprintf("context: %s | importance: %d", r.Context, r.Importance)
			if r.Project != "" {
				meta += " | project: " + r.Project
			}
			fmt.Printf("  %s\n", idStyle.Render(meta))
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show store statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		stats, err := store.Stats()
		if err != nil {
			return err
		}

		fmt.Println(titleStyle.Render("memcord statistics"))
		fmt.Printf("%s %d\n", labelStyle.Render("Memories:"), stats.TotalMemories)
		fmt.Printf("%s %d\n", labelStyle.Render("Todos:"), stats.TotalTodos)
		if len(stats.Projects) > 0 {
			fmt.Printf("%s %s\n", labelStyle.Render("Projects:"), strings.Join(stats.Projects, ", "))
		}
		if len(stats.Contexts) > 0 {
			fmt.Printf("%s %s\n", labelStyle.Render("Contexts:"), strings.Join(stats.Contexts, ", "))
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export memories as json, markdown or csv",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		project, _ := cmd.Flags().GetString("project")
		category, _ := cmd.Flags().GetString("category")
		format, _ := cmd.Flags().GetString("format")

		svc := service.New(store, nil, nil, service.Options{}, logger)
		out, err := svc.ExportMemoryBank(project, category, format)
		if err != nil {
			return err
		}

		fmt.Println(out)
		logger.Info(successStyle.Render("export complete"), "format", format)
		return nil
	},
}

func init() {
	searchCmd.Flags().Int("limit", 20, "max results")
	searchCmd.Flags().String("context", "", "restrict to one context")
	searchCmd.Flags().Float64("threshold", 0.3, "minimum relevance score")

	exportCmd.Flags().String("project", "", "filter by project")
	exportCmd.Flags().String("category", "", "filter by category")
	exportCmd.Flags().String("format", "json", "output format: json, markdown or csv")
}
