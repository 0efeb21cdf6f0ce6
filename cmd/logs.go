package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"

	"scriptdeck/internal/log"
)

var logsFollow bool

var logsCmd = &cobra.Command{
	Use:   "logs [file]",
	Short: "Show run log files",
	Long: `Show run log files.

Without arguments the available log files are listed, newest first. With a
file name the log is printed; --follow keeps streaming as the file grows,
which is how a scheduled run in progress is observed.`,
	Example: `  scriptdeck logs
  scriptdeck logs run_backup_nightly-backup_20260825_020000.log --follow`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if len(args) == 0 {
			return listLogs(cfg.LogsDir)
		}

		path := args[0]
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.LogsDir, path)
		}

		t, err := tail.TailFile(path, tail.Config{
			Follow:    logsFollow,
			ReOpen:    logsFollow,
			MustExist: true,
			Logger:    tail.DiscardingLogger,
		})
		if err != nil {
			return fmt.Errorf("failed to open log: %w", err)
		}
		defer func() { _ = t.Stop() }()

		for line := range t.Lines {
			if line.Err != nil {
				return line.Err
			}
			fmt.Println(line.Text)
		}
		return nil
	},
}

func listLogs(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		log.Info("No log files yet")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read logs directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".log" {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		log.Info("No log files yet")
		return nil
	}

	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	log.Info("Run logs in %s (%d)", dir, len(names))
	for _, name := range names {
		log.InfoH2("%s", name)
	}
	return nil
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Keep streaming as the log grows")
	rootCmd.AddCommand(logsCmd)
}
