package taskreg

import (
	"bytes"
	"os/exec"

	"scriptdeck/internal/scriptdeck/runner"
)

// CommandRunner abstracts the OS scheduler command-line tool so the
// registrar can be exercised without a live Task Scheduler.
type CommandRunner interface {
	// Run executes the tool and returns its standard output and standard
	// error. A non-zero exit is reported through err (an *exec.ExitError
	// for real invocations).
	Run(name string, args ...string) (stdout, stderr string, err error)
}

// ExecRunner invokes the real tool through os/exec with console-window
// suppression, like every other child this application spawns.
type ExecRunner struct{}

// Run implements CommandRunner
func (ExecRunner) Run(name string, args ...string) (string, string, error) {
	cmd := exec.Command(name, args...) //nolint:gosec // G204: invoking the OS scheduler tool is the point
	runner.HideConsoleWindow(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}
