package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"scriptdeck/internal/log"
)

// errPrefix tags stderr lines inside the run log
const errPrefix = "[ERRORE] "

// Sink is the append-only log target of one execution. Every chunk is
// written with exactly one trailing newline; write failures are reported
// once and never interrupt the run.
type Sink struct {
	path string

	mu     sync.Mutex
	f      *os.File
	failed bool
}

// NewSink creates the run log file and writes its header block
func NewSink(path, category, scriptName, resolvedPath string) (*Sink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.Create(path) //nolint:gosec // G304: path derives from configured logs dir
	if err != nil {
		return nil, fmt.Errorf("failed to create run log: %w", err)
	}

	s := &Sink{path: path, f: f}
	s.write(fmt.Sprintf("=== Esecuzione: %s ===", scriptName))
	s.write("Data/Ora: " + time.Now().Format("2006-01-02 15:04:05"))
	s.write("Modulo: " + category)
	s.write("Script: " + resolvedPath)
	s.write(strings.Repeat("=", 60))
	return s, nil
}

// Path returns the on-disk location of the run log
func (s *Sink) Path() string {
	return s.path
}

// Append records one output chunk. Error chunks carry the [ERRORE] prefix.
func (s *Sink) Append(text string, isErr bool) {
	if isErr {
		text = errPrefix + text
	}
	s.write(text)
}

// Finish writes the footer block and closes the file
func (s *Sink) Finish(result Result) {
	s.write(strings.Repeat("=", 60))
	switch result.Status {
	case StatusSuccess:
		s.write("Completato con successo (exit code: 0)")
	case StatusFailure:
		s.write(fmt.Sprintf("Errore (exit code: %d)", result.ExitCode))
	case StatusCancelled:
		s.write("Interrotto dall'utente")
	case StatusSpawnError:
		s.write("Avvio fallito: " + result.Reason)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f != nil {
		_ = s.f.Close()
		s.f = nil
	}
}

func (s *Sink) write(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil || s.failed {
		return
	}
	if _, err := s.f.WriteString(strings.TrimRight(text, "\n") + "\n"); err != nil {
		// Report once; the execution itself must not be disturbed.
		s.failed = true
		log.Error("Run log write failed (%s): %v", s.path, err)
	}
}
