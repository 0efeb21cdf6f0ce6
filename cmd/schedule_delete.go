package cmd

import (
	"github.com/spf13/cobra"

	"scriptdeck/internal/log"
	"scriptdeck/internal/scriptdeck/schedule"
)

var scheduleDeleteCmd = &cobra.Command{
	Use:   "delete <script>",
	Short: "Remove the schedule of a script",
	Long: `Remove the schedule of a script.

Deletes the native scheduler task, the generated wrapper launcher and the
stored schedule document. Deleting a schedule that does not exist succeeds.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		name := args[0]
		registrar := newRegistrar(cfg)
		existed, err := registrar.Unregister(name)
		if err != nil {
			return err
		}

		store := schedule.NewStore(cfg.SchedulesDir)
		if err := store.Delete(name); err != nil {
			return err
		}

		if existed {
			log.Info("Schedulazione rimossa per %q", name)
		} else {
			log.Info("No scheduled task for %q; stored schedule cleaned up", name)
		}
		return nil
	},
}

func init() {
	scheduleCmd.AddCommand(scheduleDeleteCmd)
}
