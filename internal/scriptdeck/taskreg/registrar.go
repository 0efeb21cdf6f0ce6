// Package taskreg registers catalog scripts with the host OS task scheduler.
// Registration generates a self-contained wrapper launcher, serializes the
// trigger list into the scheduler's task-definition XML and drives the
// schtasks command-line tool; the OS is always the source of truth for what
// is actually scheduled.
package taskreg

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"scriptdeck/internal/log"
	"scriptdeck/internal/scriptdeck/schedule"
)

const (
	// TaskPrefix marks every task this application owns
	TaskPrefix = "SYS_Toolset_"
	// TaskFolder is the scheduler namespace the tasks live in
	TaskFolder = `\SYS-Toolset\`
)

// schedulerTool is the OS scheduler's command-line registration tool
const schedulerTool = "schtasks"

// notFoundMarkers identify the tool's "no such task" replies; deletion of a
// missing task is success, not failure.
var notFoundMarkers = []string{
	"cannot find the file",
	"impossibile trovare",
	"does not exist",
}

// RegistrationError preserves the raw text the scheduler tool produced; the
// caller decides whether to retry or surface it to the user.
type RegistrationError struct {
	Output string
}

func (e *RegistrationError) Error() string {
	return "task registration failed: " + e.Output
}

// Registrar drives the OS scheduler for this application's tasks. It holds
// no internal concurrency state; callers serialize operations on the same
// script name.
type Registrar struct {
	runner   CommandRunner
	wrappers *Generator
	tempDir  string
	goos     string
	now      func() time.Time
}

// NewRegistrar creates a Registrar writing temp task definitions under
// tempDir and wrapper artifacts through wrappers.
func NewRegistrar(cmdRunner CommandRunner, wrappers *Generator, tempDir string) *Registrar {
	return &Registrar{
		runner:   cmdRunner,
		wrappers: wrappers,
		tempDir:  tempDir,
		goos:     runtime.GOOS,
		now:      time.Now,
	}
}

// TaskName derives the native task name for a script
func TaskName(scriptName string) string {
	return TaskPrefix + schedule.SafeName(scriptName)
}

func qualified(scriptName string) string {
	return TaskFolder + TaskName(scriptName)
}

// Register creates or overwrites the native task for a script: target check,
// wrapper generation, XML serialization, schtasks /Create. The temp XML file
// is removed regardless of outcome. logsDir is where the wrapper writes its
// scheduled-run logs.
func (r *Registrar) Register(scriptName, scriptPath, workingDir, logsDir string, cfg *schedule.Config, elevated bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := os.Stat(scriptPath); err != nil {
		return fmt.Errorf("script not found: %s", scriptPath)
	}

	wrapperPath, err := r.wrappers.Generate(scriptName, scriptPath, workingDir, logsDir)
	if err != nil {
		return fmt.Errorf("wrapper generation failed: %w", err)
	}

	command, arguments := r.wrapperInvocation(wrapperPath)
	body, err := buildTaskXML(taskXMLInput{
		ScriptName:  scriptName,
		Triggers:    cfg.Triggers,
		Interpreter: command,
		Arguments:   arguments,
		WorkingDir:  workingDir,
		Enabled:     cfg.Enabled,
		Elevated:    elevated,
		Now:         r.now(),
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(r.tempDir, 0750); err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	xmlPath := filepath.Join(r.tempDir, TaskName(scriptName)+".xml")
	if err := os.WriteFile(xmlPath, body, 0600); err != nil {
		return fmt.Errorf("failed to write task definition: %w", err)
	}
	defer func() { _ = os.Remove(xmlPath) }()

	stdout, stderr, err := r.runner.Run(schedulerTool,
		"/Create", "/TN", qualified(scriptName), "/XML", xmlPath, "/F")
	if err != nil {
		return &RegistrationError{Output: toolOutput(stdout, stderr, err)}
	}

	log.InfoH2("Task registrato: %s", TaskName(scriptName))
	return nil
}

// Unregister deletes the native task and the wrapper artifact. A task the
// scheduler does not know is treated as already deleted; the returned bool
// reports whether the task had existed.
func (r *Registrar) Unregister(scriptName string) (bool, error) {
	stdout, stderr, err := r.runner.Run(schedulerTool,
		"/Delete", "/TN", qualified(scriptName), "/F")
	if err != nil {
		if !isNotFound(stdout, stderr) {
			return false, &RegistrationError{Output: toolOutput(stdout, stderr, err)}
		}
		if wErr := r.wrappers.Delete(scriptName); wErr != nil {
			log.Error("Wrapper cleanup failed: %v", wErr)
		}
		return false, nil
	}

	if wErr := r.wrappers.Delete(scriptName); wErr != nil {
		log.Error("Wrapper cleanup failed: %v", wErr)
	}
	log.InfoH2("Task eliminato: %s", TaskName(scriptName))
	return true, nil
}

// Exists queries the scheduler live; its state is never cached
func (r *Registrar) Exists(scriptName string) bool {
	_, _, err := r.runner.Run(schedulerTool,
		"/Query", "/TN", qualified(scriptName), "/FO", "LIST")
	return err == nil
}

// ListAll returns the native task names of every task this application owns
func (r *Registrar) ListAll() ([]string, error) {
	stdout, stderr, err := r.runner.Run(schedulerTool, "/Query", "/FO", "LIST", "/V")
	if err != nil {
		return nil, &RegistrationError{Output: toolOutput(stdout, stderr, err)}
	}

	var tasks []string
	for _, line := range strings.Split(stdout, "\n") {
		name, ok := taskNameFromLine(line)
		if !ok {
			continue
		}
		if ownedTask(name) {
			tasks = append(tasks, name)
		}
	}
	return tasks, nil
}

// ownedTask matches only tasks whose name component starts with this
// application's prefix, so foreign tasks that merely embed the string are
// not claimed.
func ownedTask(name string) bool {
	return strings.HasPrefix(name, TaskFolder+TaskPrefix) ||
		strings.HasPrefix(name, TaskPrefix)
}

func taskNameFromLine(line string) (string, bool) {
	for _, label := range []string{"TaskName:", "Nome attività:"} {
		if strings.Contains(line, label) {
			_, value, _ := strings.Cut(line, ":")
			return strings.TrimSpace(value), true
		}
	}
	return "", false
}

// wrapperInvocation is the action the scheduler runs: the interpreter
// executable and its full argument string for the wrapper artifact.
func (r *Registrar) wrapperInvocation(wrapperPath string) (command, arguments string) {
	if r.goos == "windows" {
		return "powershell", `-ExecutionPolicy Bypass -NoProfile -File "` + wrapperPath + `"`
	}
	return "/bin/sh", `"` + wrapperPath + `"`
}

func isNotFound(stdout, stderr string) bool {
	combined := strings.ToLower(stdout + "\n" + stderr)
	for _, marker := range notFoundMarkers {
		if strings.Contains(combined, marker) {
			return true
		}
	}
	return false
}

func toolOutput(stdout, stderr string, err error) string {
	if out := strings.TrimSpace(stderr); out != "" {
		return out
	}
	if out := strings.TrimSpace(stdout); out != "" {
		return out
	}
	return err.Error()
}
