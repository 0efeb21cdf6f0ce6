package cmd

import (
	"github.com/spf13/cobra"

	"scriptdeck/internal/log"
)

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the application's tasks registered with the OS scheduler",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		registrar := newRegistrar(cfg)
		tasks, err := registrar.ListAll()
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			log.Info("No scheduled tasks registered")
			return nil
		}

		log.Info("Registered tasks (%d)", len(tasks))
		for _, task := range tasks {
			log.InfoH2("%s", task)
		}
		return nil
	},
}

func init() {
	scheduleCmd.AddCommand(scheduleListCmd)
}
