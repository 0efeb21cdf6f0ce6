//go:build !windows

package runner

import (
	"os"
	"os/exec"
	"syscall"
)

// HideConsoleWindow is a no-op outside Windows
func HideConsoleWindow(_ *exec.Cmd) {}

// prepareCommand puts the child in its own process group, so termination
// reaches forked grandchildren that would otherwise keep the output pipes
// open past the grace period.
func prepareCommand(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// gracefulStop signals the whole process group. The group id equals the
// child's pid because of Setpgid.
func gracefulStop(p *os.Process) {
	if err := syscall.Kill(-p.Pid, syscall.SIGTERM); err != nil {
		_ = p.Signal(syscall.SIGTERM)
	}
}

// killProcess force-kills the whole process group
func killProcess(p *os.Process) {
	if err := syscall.Kill(-p.Pid, syscall.SIGKILL); err != nil {
		_ = p.Kill()
	}
}

// elevatedCommand elevates the resolved interpreter invocation; pkexec needs
// the real executable, a bare script path would depend on a shebang.
func elevatedCommand(argv []string) []string {
	return append([]string{"pkexec"}, argv...)
}
