//go:build windows

package runner

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
)

// createNoWindow suppresses the console window of spawned children
const createNoWindow = 0x08000000

// HideConsoleWindow configures cmd so the child gets no console window
func HideConsoleWindow(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: createNoWindow,
	}
}

func prepareCommand(cmd *exec.Cmd) {
	HideConsoleWindow(cmd)
}

// gracefulStop asks the child's tree to exit without /F first;
// schtasks-launched console children have no signal channel comparable to
// SIGTERM, so taskkill is the closest well-behaved request.
func gracefulStop(p *os.Process) {
	kill := exec.Command("taskkill", "/PID", fmt.Sprint(p.Pid), "/T")
	HideConsoleWindow(kill)
	if err := kill.Run(); err != nil {
		_ = p.Signal(os.Interrupt)
	}
}

// killProcess force-kills the child and its whole tree
func killProcess(p *os.Process) {
	kill := exec.Command("taskkill", "/PID", fmt.Sprint(p.Pid), "/T", "/F")
	HideConsoleWindow(kill)
	if err := kill.Run(); err != nil {
		_ = p.Kill()
	}
}

// elevatedCommand launches the resolved interpreter invocation through UAC
// via Start-Process -Verb RunAs. Elevating the interpreter rather than the
// bare script path keeps extensions without a "runas" shell verb (such as
// .py) launchable. I/O handles are owned by the elevated session.
func elevatedCommand(argv []string) []string {
	ps := fmt.Sprintf("Start-Process -FilePath '%s' -Verb RunAs", psEscape(argv[0]))
	if len(argv) > 1 {
		quoted := make([]string, len(argv)-1)
		for i, a := range argv[1:] {
			quoted[i] = "'" + psEscape(a) + "'"
		}
		ps += " -ArgumentList " + strings.Join(quoted, ",")
	}
	return []string{"powershell", "-NoProfile", "-WindowStyle", "Hidden", "-Command", ps}
}

func psEscape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
