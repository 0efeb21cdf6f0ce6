//go:build !windows

package taskreg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"scriptdeck/internal/scriptdeck/schedule"
)

// fakeRunner records every scheduler tool invocation and replays canned
// replies, so the registrar can be exercised without a live Task Scheduler.
type fakeRunner struct {
	calls  [][]string
	stdout string
	stderr string
	err    error

	// onCreate, if set, inspects the /Create invocation while the temp XML
	// file still exists.
	onCreate func(args []string)
}

func (f *fakeRunner) Run(name string, args ...string) (string, string, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.onCreate != nil && len(args) > 0 && args[0] == "/Create" {
		f.onCreate(args)
	}
	return f.stdout, f.stderr, f.err
}

func (f *fakeRunner) lastCall() []string {
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

func testRegistrar(t *testing.T, fake *fakeRunner) (*Registrar, string) {
	t.Helper()
	base := t.TempDir()
	reg := NewRegistrar(fake, NewGenerator(filepath.Join(base, "wrappers")), filepath.Join(base, "temp"))
	reg.now = func() time.Time {
		return time.Date(2026, 8, 25, 10, 0, 0, 0, time.Local)
	}
	return reg, base
}

func testScript(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backup.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\necho ok\n"), 0700); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}

func dailyConfig() *schedule.Config {
	return &schedule.Config{
		TaskName: TaskName("nightly backup"),
		Enabled:  true,
		Triggers: []schedule.Trigger{schedule.Daily{At: "02:00", EveryDays: 1}},
	}
}

func TestTaskName(t *testing.T) {
	if got, want := TaskName("nightly backup"), "SYS_Toolset_nightly_backup"; got != want {
		t.Errorf("TaskName() = %q, want %q", got, want)
	}
}

func TestRegister(t *testing.T) {
	var xmlSeen string
	fake := &fakeRunner{}
	fake.onCreate = func(args []string) {
		// args: /Create /TN <name> /XML <path> /F
		data, err := os.ReadFile(args[4])
		if err != nil {
			t.Errorf("temp task definition unreadable during /Create: %v", err)
			return
		}
		xmlSeen = string(data)
	}

	reg, base := testRegistrar(t, fake)
	script := testScript(t)

	if err := reg.Register("nightly backup", script, "/opt/toolset/scripts", "/var/log/toolset", dailyConfig(), false); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	want := []string{
		"schtasks", "/Create",
		"/TN", `\SYS-Toolset\SYS_Toolset_nightly_backup`,
		"/XML", filepath.Join(base, "temp", "SYS_Toolset_nightly_backup.xml"),
		"/F",
	}
	if diff := cmp.Diff(want, fake.lastCall()); diff != "" {
		t.Errorf("scheduler invocation mismatch (-want +got):\n%s", diff)
	}

	// The wrapper artifact must exist and be referenced by the task action.
	wrapper := filepath.Join(base, "wrappers", "wrapper_nightly_backup.sh")
	if _, err := os.Stat(wrapper); err != nil {
		t.Fatalf("wrapper not generated: %v", err)
	}
	if !strings.Contains(xmlSeen, wrapper) {
		t.Errorf("task definition does not reference the wrapper:\n%s", xmlSeen)
	}
	if !strings.Contains(xmlSeen, "<ScheduleByDay>") {
		t.Errorf("task definition missing the daily trigger:\n%s", xmlSeen)
	}

	// The temp definition is removed once registration is done.
	if _, err := os.Stat(filepath.Join(base, "temp", "SYS_Toolset_nightly_backup.xml")); !os.IsNotExist(err) {
		t.Error("temp task definition was not cleaned up")
	}
}

func TestRegisterMissingScript(t *testing.T) {
	fake := &fakeRunner{}
	reg, _ := testRegistrar(t, fake)

	err := reg.Register("ghost", "/no/such/script.sh", "/opt/toolset/scripts", "/var/log/toolset", dailyConfig(), false)
	if err == nil {
		t.Fatal("Register() accepted a missing script")
	}
	if len(fake.calls) != 0 {
		t.Errorf("scheduler tool was invoked %d times for a missing script", len(fake.calls))
	}
}

func TestRegisterInvalidConfig(t *testing.T) {
	fake := &fakeRunner{}
	reg, _ := testRegistrar(t, fake)

	cfg := &schedule.Config{TaskName: TaskName("backup"), Enabled: true}
	err := reg.Register("backup", testScript(t), "/opt/toolset/scripts", "/var/log/toolset", cfg, false)
	if err == nil {
		t.Fatal("Register() accepted a config with zero triggers")
	}
	if len(fake.calls) != 0 {
		t.Error("scheduler tool was invoked for an invalid config")
	}
}

func TestRegisterToolFailure(t *testing.T) {
	fake := &fakeRunner{stderr: "ERROR: Access is denied.", err: fmt.Errorf("exit status 1")}
	reg, base := testRegistrar(t, fake)

	err := reg.Register("nightly backup", testScript(t), "/opt/toolset/scripts", "/var/log/toolset", dailyConfig(), false)
	var regErr *RegistrationError
	if !errors.As(err, &regErr) {
		t.Fatalf("Register() error = %v, want *RegistrationError", err)
	}
	if !strings.Contains(regErr.Output, "Access is denied") {
		t.Errorf("RegistrationError.Output = %q, want the tool's text", regErr.Output)
	}

	// Failure must not leak the temp definition either.
	if _, statErr := os.Stat(filepath.Join(base, "temp", "SYS_Toolset_nightly_backup.xml")); !os.IsNotExist(statErr) {
		t.Error("temp task definition leaked after a failed registration")
	}
}

func TestUnregister(t *testing.T) {
	fake := &fakeRunner{}
	reg, base := testRegistrar(t, fake)

	// Put a wrapper on disk so deletion has something to clean up.
	wrappers := NewGenerator(filepath.Join(base, "wrappers"))
	if _, err := wrappers.Generate("nightly backup", testScript(t), "/opt/toolset/scripts", "/var/log/toolset"); err != nil {
		t.Fatalf("wrapper setup failed: %v", err)
	}

	existed, err := reg.Unregister("nightly backup")
	if err != nil {
		t.Fatalf("Unregister() error: %v", err)
	}
	if !existed {
		t.Error("Unregister() reported the task as missing")
	}

	want := []string{"schtasks", "/Delete", "/TN", `\SYS-Toolset\SYS_Toolset_nightly_backup`, "/F"}
	if diff := cmp.Diff(want, fake.lastCall()); diff != "" {
		t.Errorf("scheduler invocation mismatch (-want +got):\n%s", diff)
	}
	if _, statErr := os.Stat(filepath.Join(base, "wrappers", "wrapper_nightly_backup.sh")); !os.IsNotExist(statErr) {
		t.Error("wrapper artifact survived Unregister()")
	}
}

func TestUnregisterMissingTaskIsSuccess(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
	}{
		{
			name:   "english reply",
			stderr: "ERROR: The system cannot find the file specified.",
		},
		{
			name:   "italian reply",
			stderr: "ERRORE: impossibile trovare il file specificato.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeRunner{stderr: tt.stderr, err: fmt.Errorf("exit status 1")}
			reg, _ := testRegistrar(t, fake)

			existed, err := reg.Unregister("ghost")
			if err != nil {
				t.Fatalf("Unregister() of missing task error: %v", err)
			}
			if existed {
				t.Error("Unregister() claimed a missing task existed")
			}
		})
	}
}

func TestUnregisterRealFailure(t *testing.T) {
	fake := &fakeRunner{stderr: "ERROR: Access is denied.", err: fmt.Errorf("exit status 1")}
	reg, _ := testRegistrar(t, fake)

	if _, err := reg.Unregister("backup"); err == nil {
		t.Fatal("Unregister() swallowed a real scheduler failure")
	}
}

func TestExists(t *testing.T) {
	fake := &fakeRunner{}
	reg, _ := testRegistrar(t, fake)
	if !reg.Exists("backup") {
		t.Error("Exists() = false for a task the tool reports")
	}

	fake = &fakeRunner{err: fmt.Errorf("exit status 1")}
	reg, _ = testRegistrar(t, fake)
	if reg.Exists("backup") {
		t.Error("Exists() = true for a task the tool rejects")
	}
}

func TestListAll(t *testing.T) {
	tests := []struct {
		name   string
		stdout string
		want   []string
	}{
		{
			name: "english output",
			stdout: strings.Join([]string{
				"TaskName:      \\SYS-Toolset\\SYS_Toolset_nightly_backup",
				"Status:        Ready",
				"TaskName:      \\Microsoft\\Windows\\Defrag\\ScheduledDefrag",
				"TaskName:      \\SYS-Toolset\\SYS_Toolset_temp_cleaner",
			}, "\n"),
			want: []string{
				`\SYS-Toolset\SYS_Toolset_nightly_backup`,
				`\SYS-Toolset\SYS_Toolset_temp_cleaner`,
			},
		},
		{
			name: "italian output",
			stdout: strings.Join([]string{
				"Nome attività: \\SYS-Toolset\\SYS_Toolset_nightly_backup",
				"Stato:         Pronto",
				"Nome attività: \\Microsoft\\Windows\\Defrag\\ScheduledDefrag",
			}, "\n"),
			want: []string{`\SYS-Toolset\SYS_Toolset_nightly_backup`},
		},
		{
			name:   "no owned tasks",
			stdout: "TaskName:      \\Microsoft\\Windows\\Defrag\\ScheduledDefrag\n",
			want:   nil,
		},
		{
			name: "foreign task embedding the prefix is not claimed",
			stdout: strings.Join([]string{
				"TaskName:      \\Other\\Copy_of_SYS_Toolset_nightly_backup",
				"TaskName:      \\SYS-Toolset\\SYS_Toolset_nightly_backup",
			}, "\n"),
			want: []string{`\SYS-Toolset\SYS_Toolset_nightly_backup`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeRunner{stdout: tt.stdout}
			reg, _ := testRegistrar(t, fake)

			got, err := reg.ListAll()
			if err != nil {
				t.Fatalf("ListAll() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ListAll() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWrapperInvocation(t *testing.T) {
	reg := &Registrar{goos: "windows"}
	command, arguments := reg.wrapperInvocation(`C:\sched\wrappers\wrapper_backup.ps1`)
	if command != "powershell" {
		t.Errorf("command = %q, want powershell", command)
	}
	if want := `-ExecutionPolicy Bypass -NoProfile -File "C:\sched\wrappers\wrapper_backup.ps1"`; arguments != want {
		t.Errorf("arguments = %q, want %q", arguments, want)
	}

	reg = &Registrar{goos: "linux"}
	command, arguments = reg.wrapperInvocation("/sched/wrappers/wrapper_backup.sh")
	if command != "/bin/sh" {
		t.Errorf("command = %q, want /bin/sh", command)
	}
	if want := `"/sched/wrappers/wrapper_backup.sh"`; arguments != want {
		t.Errorf("arguments = %q, want %q", arguments, want)
	}
}
