package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memcord/memcord/internal/server"
	"github.com/memcord/memcord/internal/updater"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update memcord to the latest release",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Info("checking for updates")

		result := updater.CheckVersion(server.Version)
		if !result.UpdateAvailable {
			logger.Info(successStyle.Render("already at the latest version"), "version", result.CurrentVersion)
			return nil
		}

		logger.Info("downloading update", "current", result.CurrentVersion, "latest", result.LatestVersion)
		if err := updater.SelfUpdate(server.Version); err != nil {
			return fmt.Errorf("update failed (download manually from %s): %w", result.ReleaseURL, err)
		}

		logger.Info(successStyle.Render("updated"), "version", result.LatestVersion)
		logger.Info("restart memcord to use the new version")
		return nil
	},
}

// checkForUpdates runs a best-effort version check in the background during
// serve and prints a notice to stderr when a newer release exists.
func checkForUpdates() {
	result := updater.CheckVersion(server.Version)
	if result.UpdateAvailable {
		logger.Info("update available, run: memcord update",
			"current", result.CurrentVersion, "latest", result.LatestVersion)
	}
}
