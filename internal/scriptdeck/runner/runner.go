// Package runner launches catalog scripts as child processes and streams
// their output back to the caller. One Runner drives at most one execution
// at a time; the caller's loop never blocks on spawn or draining.
package runner

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"sync"
	"time"
)

// DefaultGraceTimeout is how long Stop waits after the graceful termination
// request before force-killing the child.
const DefaultGraceTimeout = 3 * time.Second

// scanBufferSize bounds a single captured output line
const scanBufferSize = 1 << 20

// Request describes one script invocation. It is consumed exactly once.
type Request struct {
	Category   string
	ScriptName string
	ScriptPath string
	Params     []string
	Elevated   bool
	Sink       *Sink
}

// Runner executes one script at a time on a dedicated goroutine
type Runner struct {
	goos  string
	grace time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// New creates a Runner for the current platform
func New() *Runner {
	return &Runner{goos: runtime.GOOS, grace: DefaultGraceTimeout}
}

// Run starts the execution and returns its event stream: zero or more output
// chunks followed by exactly one terminal event, after which the channel is
// closed. A second Run while one execution is active is rejected.
func (r *Runner) Run(req Request) (<-chan Event, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil, fmt.Errorf("an execution is already active")
	}
	r.running = true
	r.stopCh = make(chan struct{})
	stopCh := r.stopCh
	r.mu.Unlock()

	events := make(chan Event, 64)
	go r.execute(req, events, stopCh)
	return events, nil
}

// Stop requests cancellation of the active execution. The runner asks the
// child to terminate and force-kills it after the grace period.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	select {
	case <-r.stopCh:
	default:
		close(r.stopCh)
	}
}

func (r *Runner) execute(req Request, events chan Event, stopCh chan struct{}) {
	emit := func(text string, isErr bool) {
		if req.Sink != nil {
			req.Sink.Append(text, isErr)
		}
		events <- chunk(text, isErr)
	}
	finish := func(result Result) {
		if req.Sink != nil {
			req.Sink.Finish(result)
		}
		events <- done(result)
		close(events)
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}

	// Extension dispatch happens before anything is spawned, on both the
	// direct and the elevated path.
	argv, err := CommandLine(r.goos, req.ScriptPath, req.Params)
	if err != nil {
		finish(Result{Status: StatusSpawnError, Reason: err.Error()})
		return
	}

	if req.Elevated {
		r.runElevated(req, argv, emit, finish)
		return
	}

	cmd := exec.Command(argv[0], argv[1:]...) //nolint:gosec // G204: running scripts is the purpose of this package
	prepareCommand(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		finish(Result{Status: StatusSpawnError, Reason: err.Error()})
		return
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		finish(Result{Status: StatusSpawnError, Reason: err.Error()})
		return
	}

	if err := cmd.Start(); err != nil {
		finish(Result{Status: StatusSpawnError, Reason: err.Error()})
		return
	}

	var pumps sync.WaitGroup
	pumps.Add(2)
	go func() {
		defer pumps.Done()
		pump(stdout, false, emit)
	}()
	go func() {
		defer pumps.Done()
		pump(stderr, true, emit)
	}()

	waitDone := make(chan struct{})
	go func() {
		select {
		case <-stopCh:
			r.terminate(cmd, waitDone)
		case <-waitDone:
		}
	}()

	// Scanners run until EOF, so trailing buffered output is drained before
	// the terminal event.
	pumps.Wait()
	waitErr := cmd.Wait()
	close(waitDone)

	if stopRequested(stopCh) {
		emit("Esecuzione interrotta dall'utente", true)
		finish(Result{Status: StatusCancelled})
		return
	}
	if waitErr == nil {
		finish(Result{Status: StatusSuccess})
		return
	}
	if exitErr, ok := waitErr.(*exec.ExitError); ok {
		finish(Result{Status: StatusFailure, ExitCode: exitErr.ExitCode()})
		return
	}
	finish(Result{Status: StatusSpawnError, Reason: waitErr.Error()})
}

// runElevated launches the resolved interpreter invocation through the OS
// privilege escalation primitive. The OS owns the child's I/O handles in
// this mode, so there is no live output and the real exit code is unknown;
// this trade is intentional.
func (r *Runner) runElevated(req Request, argv []string, emit func(string, bool), finish func(Result)) {
	launcher := elevatedCommand(argv)
	cmd := exec.Command(launcher[0], launcher[1:]...) //nolint:gosec // G204: running scripts is the purpose of this package
	prepareCommand(cmd)

	if err := cmd.Start(); err != nil {
		finish(Result{Status: StatusSpawnError, Reason: err.Error()})
		return
	}
	go func() { _ = cmd.Wait() }()

	emit(fmt.Sprintf("Esecuzione elevata avviata: %s (output non disponibile)", req.ScriptName), false)
	finish(Result{Status: StatusSuccess})
}

// terminate asks the child to exit and escalates to a kill after the grace
// period if it is still alive.
func (r *Runner) terminate(cmd *exec.Cmd, waitDone <-chan struct{}) {
	if cmd.Process == nil {
		return
	}
	gracefulStop(cmd.Process)
	select {
	case <-waitDone:
	case <-time.After(r.grace):
		killProcess(cmd.Process)
	}
}

func pump(pipe io.Reader, isErr bool, emit func(string, bool)) {
	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 64*1024), scanBufferSize)
	for scanner.Scan() {
		emit(scanner.Text(), isErr)
	}
}

func stopRequested(stopCh <-chan struct{}) bool {
	select {
	case <-stopCh:
		return true
	default:
		return false
	}
}
