package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"scriptdeck/internal/scriptdeck/config"
	"scriptdeck/internal/scriptdeck/schedule"
	"scriptdeck/internal/scriptdeck/taskreg"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage scheduled script executions",
	Long: `Manage scheduled script executions.

Schedules are stored as one JSON document per script and registered with
the OS task scheduler through a generated wrapper launcher. The scheduler
is always the source of truth for what is actually registered.`,
}

// newRegistrar wires the real scheduler tool to the configured directories
func newRegistrar(cfg *config.Config) *taskreg.Registrar {
	wrappers := taskreg.NewGenerator(cfg.WrappersDir())
	return taskreg.NewRegistrar(taskreg.ExecRunner{}, wrappers, cfg.TempDir())
}

// describeTrigger renders one trigger for human consumption
func describeTrigger(t schedule.Trigger) string {
	switch trigger := t.(type) {
	case schedule.Once:
		return "once at " + trigger.When.Format("2006-01-02 15:04")
	case schedule.Daily:
		if trigger.EveryDays == 1 {
			return "daily at " + trigger.At
		}
		return fmt.Sprintf("every %d days at %s", trigger.EveryDays, trigger.At)
	case schedule.Weekly:
		return fmt.Sprintf("weekly on %s at %s", strings.Join(trigger.NormalizedDays(), ","), trigger.At)
	case schedule.Interval:
		return fmt.Sprintf("every %d %s", trigger.Every, trigger.Unit)
	default:
		return t.Kind()
	}
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}
