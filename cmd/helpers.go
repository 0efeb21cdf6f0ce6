package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"scriptdeck/internal/scriptdeck/catalog"
	"scriptdeck/internal/scriptdeck/config"
	"scriptdeck/internal/scriptdeck/schedule"
)

// loadConfig reads the configuration honoring the --config flag
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// openCatalog loads the script index from the configured scripts directory
func openCatalog(cfg *config.Config) (*catalog.Repository, error) {
	repo, err := catalog.New(cfg.ScriptsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load script catalog: %w", err)
	}
	return repo, nil
}

// findScript resolves a category/name pair to a catalog entry and its
// on-disk path.
func findScript(repo *catalog.Repository, category, name string) (catalog.Script, string, error) {
	script, ok := repo.Find(category, name)
	if !ok {
		return catalog.Script{}, "", fmt.Errorf("script %q not found in category %q", name, category)
	}
	return script, repo.Resolve(script), nil
}

// runLogPath builds the timestamped per-run log location
func runLogPath(cfg *config.Config, category, script string, now time.Time) string {
	name := fmt.Sprintf("run_%s_%s_%s.log",
		schedule.SafeName(category), schedule.SafeName(script), now.Format("20060102_150405"))
	return filepath.Join(cfg.LogsDir, name)
}
