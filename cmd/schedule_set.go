package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"scriptdeck/internal/log"
	"scriptdeck/internal/scriptdeck/schedule"
	"scriptdeck/internal/scriptdeck/taskreg"
)

var (
	setOnce        []string
	setDaily       []string
	setWeekly      []string
	setInterval    []string
	setDisabled    bool
	setInteractive bool
)

var scheduleSetCmd = &cobra.Command{
	Use:   "set <category> <script>",
	Short: "Create or replace the schedule of a script",
	Long: `Create or replace the schedule of a script.

The trigger flags are repeatable and combine into one schedule; an existing
schedule for the script is overwritten as a whole.

Trigger formats:
  --once     2026-06-01T02:00  (also 02/06/2026 02:00)
  --daily    02:00             every day at 02:00
  --daily    02:00/3           every 3 days at 02:00
  --weekly   03:00@mon,wed     Mondays and Wednesdays at 03:00
  --interval 30m | 2h | 1d     repeatedly, from registration time

With --interactive the triggers are collected through prompts instead.`,
	Example: `  scriptdeck schedule set backup nightly-backup --daily 02:00
  scriptdeck schedule set cleanup temp-cleaner --weekly 03:00@mon,fri --once 2026-09-01T12:00
  scriptdeck schedule set monitor disk-check --interval 30m`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		repo, err := openCatalog(cfg)
		if err != nil {
			return err
		}

		category, name := args[0], args[1]
		script, scriptPath, err := findScript(repo, category, name)
		if err != nil {
			return err
		}

		var triggers []schedule.Trigger
		if setInteractive {
			triggers, err = promptTriggers()
		} else {
			triggers, err = triggersFromFlags()
		}
		if err != nil {
			return err
		}

		scheduleCfg := &schedule.Config{
			TaskName: taskreg.TaskName(name),
			Enabled:  !setDisabled,
			Triggers: triggers,
		}
		if err := scheduleCfg.Validate(); err != nil {
			return err
		}

		store := schedule.NewStore(cfg.SchedulesDir)
		if err := store.Save(name, scheduleCfg); err != nil {
			return err
		}

		// The scheduler runs the wrapper with its own working directory, so
		// every path baked into it must be absolute.
		scriptPath, err = filepath.Abs(scriptPath)
		if err != nil {
			return err
		}
		workingDir, err := filepath.Abs(cfg.ScriptsDir)
		if err != nil {
			return err
		}
		logsDir, err := filepath.Abs(cfg.LogsDir)
		if err != nil {
			return err
		}

		registrar := newRegistrar(cfg)
		if err := registrar.Register(name, scriptPath, workingDir, logsDir, scheduleCfg, script.RunElevated); err != nil {
			// The stored config stays: the user can retry registration
			// without re-entering the triggers.
			return fmt.Errorf("schedule saved but registration failed: %w", err)
		}

		log.Info("Schedulazione attiva per %s/%s", category, name)
		for _, t := range triggers {
			log.InfoH2("%s", describeTrigger(t))
		}
		return nil
	},
}

// triggersFromFlags builds the trigger list from the repeatable flags,
// preserving the per-flag order.
func triggersFromFlags() ([]schedule.Trigger, error) {
	var triggers []schedule.Trigger

	for _, spec := range setOnce {
		when, err := schedule.ParseOnceTime(spec)
		if err != nil {
			return nil, err
		}
		triggers = append(triggers, schedule.Once{When: when})
	}
	for _, spec := range setDaily {
		t, err := parseDailySpec(spec)
		if err != nil {
			return nil, err
		}
		triggers = append(triggers, t)
	}
	for _, spec := range setWeekly {
		t, err := parseWeeklySpec(spec)
		if err != nil {
			return nil, err
		}
		triggers = append(triggers, t)
	}
	for _, spec := range setInterval {
		t, err := parseIntervalSpec(spec)
		if err != nil {
			return nil, err
		}
		triggers = append(triggers, t)
	}

	if len(triggers) == 0 {
		return nil, fmt.Errorf("at least one trigger flag is required (or use --interactive)")
	}
	return triggers, nil
}

// parseDailySpec accepts "HH:MM" or "HH:MM/N"
func parseDailySpec(spec string) (schedule.Daily, error) {
	at, rest, found := strings.Cut(spec, "/")
	every := 1
	if found {
		n, err := strconv.Atoi(rest)
		if err != nil {
			return schedule.Daily{}, fmt.Errorf("invalid daily spec %q (expected HH:MM or HH:MM/N)", spec)
		}
		every = n
	}
	t := schedule.Daily{At: at, EveryDays: every}
	return t, t.Validate()
}

// parseWeeklySpec accepts "HH:MM@day,day,..."
func parseWeeklySpec(spec string) (schedule.Weekly, error) {
	at, rest, found := strings.Cut(spec, "@")
	if !found {
		return schedule.Weekly{}, fmt.Errorf("invalid weekly spec %q (expected HH:MM@mon,wed,...)", spec)
	}
	t := schedule.Weekly{At: at, Days: strings.Split(rest, ",")}
	return t, t.Validate()
}

// parseIntervalSpec accepts "<N>m", "<N>h" or "<N>d"
func parseIntervalSpec(spec string) (schedule.Interval, error) {
	if len(spec) < 2 {
		return schedule.Interval{}, fmt.Errorf("invalid interval spec %q (expected e.g. 30m, 2h, 1d)", spec)
	}
	n, err := strconv.Atoi(spec[:len(spec)-1])
	if err != nil {
		return schedule.Interval{}, fmt.Errorf("invalid interval spec %q (expected e.g. 30m, 2h, 1d)", spec)
	}

	var unit string
	switch spec[len(spec)-1] {
	case 'm':
		unit = "minutes"
	case 'h':
		unit = "hours"
	case 'd':
		unit = "days"
	default:
		return schedule.Interval{}, fmt.Errorf("invalid interval unit in %q (expected m, h or d)", spec)
	}
	t := schedule.Interval{Every: n, Unit: unit}
	return t, t.Validate()
}

// promptTriggers collects triggers interactively until the user is done
func promptTriggers() ([]schedule.Trigger, error) {
	var triggers []schedule.Trigger

	for {
		var kind string
		prompt := &survey.Select{
			Message: "Trigger type:",
			Options: []string{"once", "daily", "weekly", "interval", "done"},
		}
		if err := survey.AskOne(prompt, &kind); err != nil {
			return nil, err
		}
		if kind == "done" {
			break
		}

		trigger, err := promptTrigger(kind)
		if err != nil {
			return nil, err
		}
		if err := trigger.Validate(); err != nil {
			log.Error("%v", err)
			continue
		}
		triggers = append(triggers, trigger)
		log.InfoH2("Added: %s", describeTrigger(trigger))
	}

	if len(triggers) == 0 {
		return nil, fmt.Errorf("no triggers entered")
	}
	return triggers, nil
}

func promptTrigger(kind string) (schedule.Trigger, error) {
	switch kind {
	case "once":
		var when string
		if err := survey.AskOne(&survey.Input{Message: "Date/time (2006-01-02T15:04):"}, &when); err != nil {
			return nil, err
		}
		parsed, err := schedule.ParseOnceTime(when)
		if err != nil {
			return nil, err
		}
		return schedule.Once{When: parsed}, nil
	case "daily":
		var at, every string
		if err := survey.AskOne(&survey.Input{Message: "Time of day (HH:MM):"}, &at); err != nil {
			return nil, err
		}
		if err := survey.AskOne(&survey.Input{Message: "Every N days:", Default: "1"}, &every); err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(every)
		if err != nil {
			return nil, fmt.Errorf("invalid day interval %q", every)
		}
		return schedule.Daily{At: at, EveryDays: n}, nil
	case "weekly":
		var at string
		var days []string
		if err := survey.AskOne(&survey.Input{Message: "Time of day (HH:MM):"}, &at); err != nil {
			return nil, err
		}
		if err := survey.AskOne(&survey.MultiSelect{
			Message: "Weekdays:",
			Options: schedule.SortedWeekdays(),
		}, &days); err != nil {
			return nil, err
		}
		return schedule.Weekly{At: at, Days: days}, nil
	case "interval":
		var spec string
		if err := survey.AskOne(&survey.Input{Message: "Interval (e.g. 30m, 2h, 1d):"}, &spec); err != nil {
			return nil, err
		}
		return parseIntervalSpec(spec)
	}
	return nil, fmt.Errorf("unknown trigger type %q", kind)
}

func init() {
	scheduleSetCmd.Flags().StringArrayVar(&setOnce, "once", nil, "One-shot trigger (repeatable)")
	scheduleSetCmd.Flags().StringArrayVar(&setDaily, "daily", nil, "Daily trigger HH:MM or HH:MM/N (repeatable)")
	scheduleSetCmd.Flags().StringArrayVar(&setWeekly, "weekly", nil, "Weekly trigger HH:MM@mon,wed,... (repeatable)")
	scheduleSetCmd.Flags().StringArrayVar(&setInterval, "interval", nil, "Interval trigger e.g. 30m, 2h, 1d (repeatable)")
	scheduleSetCmd.Flags().BoolVar(&setDisabled, "disabled", false, "Register the task in disabled state")
	scheduleSetCmd.Flags().BoolVarP(&setInteractive, "interactive", "i", false, "Collect triggers through prompts")
	scheduleCmd.AddCommand(scheduleSetCmd)
}
