package cmd

import (
	"github.com/spf13/cobra"

	"scriptdeck/internal/log"
	"scriptdeck/internal/scriptdeck/schedule"
	"scriptdeck/internal/scriptdeck/taskreg"
)

var scheduleShowCmd = &cobra.Command{
	Use:   "show <script>",
	Short: "Show the stored schedule of a script and its live scheduler state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		name := args[0]
		store := schedule.NewStore(cfg.SchedulesDir)
		scheduleCfg, found, err := store.Load(name)
		if err != nil {
			return err
		}
		if !found {
			log.Info("No schedule stored for %q", name)
			return nil
		}

		log.Info("Schedule for %q", name)
		log.InfoH2("Task: %s", scheduleCfg.TaskName)
		log.InfoH2("Enabled: %v", scheduleCfg.Enabled)
		for _, t := range scheduleCfg.Triggers {
			log.InfoH3("%s", describeTrigger(t))
		}

		// The scheduler is queried live; the stored file may be stale if the
		// task was removed out-of-band.
		registrar := newRegistrar(cfg)
		if registrar.Exists(name) {
			log.InfoH2("Scheduler: task %s is registered", taskreg.TaskName(name))
		} else {
			log.ErrorH2("Scheduler: task %s is NOT registered", taskreg.TaskName(name))
		}
		return nil
	},
}

func init() {
	scheduleCmd.AddCommand(scheduleShowCmd)
}
