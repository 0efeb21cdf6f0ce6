package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"scriptdeck/internal/log"
	"scriptdeck/internal/scriptdeck/catalog"
)

var listWatch bool

var listCmd = &cobra.Command{
	Use:   "list [category]",
	Short: "List catalog categories and scripts",
	Long: `List the script catalog.

Without arguments every category and its scripts are printed. With a
category name only that category is printed. With --watch the command keeps
running and re-prints the catalog whenever index.json changes on disk.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		repo, err := openCatalog(cfg)
		if err != nil {
			return err
		}

		category := ""
		if len(args) == 1 {
			category = args[0]
		}
		printCatalog(repo, category)

		if !listWatch {
			return nil
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info("Watching %s for changes (Ctrl+C to stop)", cfg.ScriptsDir)
		err = repo.Watch(ctx, func() {
			printCatalog(repo, category)
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func printCatalog(repo *catalog.Repository, only string) {
	categories := repo.Categories()
	if only != "" {
		categories = []string{only}
	}
	if len(categories) == 0 {
		log.Info("Catalog is empty")
		return
	}

	for _, category := range categories {
		scripts := repo.Scripts(category)
		log.InfoH2("%s (%d)", category, len(scripts))
		for _, script := range scripts {
			if script.Description != "" {
				log.InfoH3("%s - %s", script.Name, script.Description)
			} else {
				log.InfoH3("%s", script.Name)
			}
			if script.RunElevated {
				log.InfoH3("  requires elevation")
			}
		}
	}
}

func init() {
	listCmd.Flags().BoolVarP(&listWatch, "watch", "w", false, "Keep running and reload on index changes")
	rootCmd.AddCommand(listCmd)
}
