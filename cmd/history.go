package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"scriptdeck/internal/log"
	"scriptdeck/internal/scriptdeck/history"
)

var (
	historyLimit int
	historyPrune int
)

var historyCmd = &cobra.Command{
	Use:   "history [script]",
	Short: "Show past script executions",
	Long: `Show past script executions recorded in the local history database.

Without arguments the latest runs of every script are listed; with a script
name only that script's runs. --prune keeps only the newest N rows.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		db := history.New(cfg.HistoryPath())
		if err := db.Init(); err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		if historyPrune > 0 {
			if err := db.Prune(historyPrune); err != nil {
				return err
			}
			log.InfoH2("History pruned to the newest %d runs", historyPrune)
		}

		script := ""
		if len(args) == 1 {
			script = args[0]
		}
		runs, err := db.Recent(script, historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			log.Info("No recorded runs")
			return nil
		}

		for _, run := range runs {
			log.InfoH2("%s  %s/%s  %s (exit %d, %s, %s)",
				run.Started.Format("2006-01-02 15:04:05"),
				run.Category, run.Script, run.Status, run.ExitCode,
				run.Duration.Round(time.Millisecond), run.Mode)
			if run.LogPath != "" {
				log.InfoH3("log: %s", run.LogPath)
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "Maximum number of runs to show")
	historyCmd.Flags().IntVar(&historyPrune, "prune", 0, "Keep only the newest N runs before listing")
	rootCmd.AddCommand(historyCmd)
}
