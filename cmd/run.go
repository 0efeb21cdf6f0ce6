package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"scriptdeck/internal/log"
	"scriptdeck/internal/scriptdeck/config"
	"scriptdeck/internal/scriptdeck/history"
	"scriptdeck/internal/scriptdeck/notify"
	"scriptdeck/internal/scriptdeck/runner"
)

var (
	runElevated bool
	runNotify   bool
	runParams   []string
)

var runCmd = &cobra.Command{
	Use:   "run <category> <script>",
	Short: "Run a catalog script and stream its output",
	Long: `Run a catalog script as a child process.

Output is streamed line by line to the console and appended to a
timestamped log file under the logs directory. Ctrl+C requests a graceful
stop; the child is force-killed if it ignores the request.

Extra parameters declared in the catalog entry are passed automatically;
--param adds more on top. --elevated launches through the OS privilege
prompt instead (no live output in that mode).`,
	Example: `  scriptdeck run backup nightly-backup
  scriptdeck run cleanup temp-cleaner --param /quick
  scriptdeck run system defrag --elevated`,
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

		started := time.Now()
		sink, err := runner.NewSink(runLogPath(cfg, category, name, started), category, name, scriptPath)
		if err != nil {
			return err
		}

		params := append(append([]string(nil), script.Params...), runParams...)
		elevated := runElevated || script.RunElevated

		r := runner.New()
		events, err := r.Run(runner.Request{
			Category:   category,
			ScriptName: name,
			ScriptPath: scriptPath,
			Params:     params,
			Elevated:   elevated,
			Sink:       sink,
		})
		if err != nil {
			return err
		}

		// Ctrl+C asks the runner for a graceful stop; the event loop keeps
		// draining until the terminal event arrives.
		interrupts := make(chan os.Signal, 1)
		signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(interrupts)
		go func() {
			for range interrupts {
				log.Info("Stop requested, terminating...")
				r.Stop()
			}
		}()

		log.Info("Esecuzione di %s/%s", category, name)
		var result runner.Result
		for event := range events {
			if event.Done {
				result = event.Result
				continue
			}
			if event.IsErr {
				log.ErrorH2("%s", event.Text)
			} else {
				fmt.Println(event.Text)
			}
		}

		duration := time.Since(started)
		reportOutcome(result, duration)
		recordRun(cfg, history.Run{
			Started:  started,
			Category: category,
			Script:   name,
			Mode:     runMode(elevated),
			Status:   result.Status.String(),
			ExitCode: result.ExitCode,
			Duration: duration,
			LogPath:  sink.Path(),
		})
		if runNotify {
			sendReport(cfg, category, name, result, started, duration, sink.Path())
		}

		if result.Status != runner.StatusSuccess {
			os.Exit(1)
		}
		return nil
	},
}

func reportOutcome(result runner.Result, duration time.Duration) {
	switch result.Status {
	case runner.StatusSuccess:
		log.Info("Completato con successo in %s", duration.Round(time.Millisecond))
	case runner.StatusFailure:
		log.Error("Terminato con errore (exit code: %d)", result.ExitCode)
	case runner.StatusCancelled:
		log.Error("Esecuzione interrotta dall'utente")
	case runner.StatusSpawnError:
		log.Error("Avvio fallito: %s", result.Reason)
	}
}

func runMode(elevated bool) string {
	if elevated {
		return "elevated"
	}
	return "interactive"
}

func recordRun(cfg *config.Config, run history.Run) {
	db := history.New(cfg.HistoryPath())
	if err := db.Init(); err != nil {
		log.Error("History unavailable: %v", err)
		return
	}
	defer func() { _ = db.Close() }()
	if err := db.Record(run); err != nil {
		log.Error("Failed to record run: %v", err)
	}
}

func sendReport(cfg *config.Config, category, name string, result runner.Result, started time.Time, duration time.Duration, logPath string) {
	err := notify.Send(cfg.SMTP, notify.Report{
		Category: category,
		Script:   name,
		Status:   result.Status.String(),
		ExitCode: result.ExitCode,
		Started:  started,
		Duration: duration,
		LogPath:  logPath,
	})
	if err != nil {
		log.Error("Mail report failed: %v", err)
		return
	}
	log.InfoH2("Mail report sent")
}

func init() {
	runCmd.Flags().BoolVarP(&runElevated, "elevated", "e", false, "Run through the OS privilege prompt")
	runCmd.Flags().BoolVarP(&runNotify, "notify", "n", false, "Send a mail report when the run finishes")
	runCmd.Flags().StringArrayVarP(&runParams, "param", "p", nil, "Extra parameter passed to the script (repeatable)")
	rootCmd.AddCommand(runCmd)
}
