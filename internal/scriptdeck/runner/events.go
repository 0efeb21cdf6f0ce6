package runner

import "fmt"

// Status is the terminal outcome of one execution. These four values are the
// complete vocabulary; consumers switch exhaustively on them.
type Status int

const (
	// StatusSuccess means the child exited zero
	StatusSuccess Status = iota
	// StatusFailure means the child exited non-zero
	StatusFailure
	// StatusCancelled means the execution was stopped on user request
	StatusCancelled
	// StatusSpawnError means no process ran: unsupported type, missing
	// interpreter, permission denied
	StatusSpawnError
)

// String implements fmt.Stringer
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusCancelled:
		return "cancelled"
	case StatusSpawnError:
		return "spawn error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result carries the terminal status and its detail
type Result struct {
	Status   Status
	ExitCode int    // meaningful for StatusFailure
	Reason   string // meaningful for StatusSpawnError
}

// Event is one item of the execution stream: either an output chunk
// (Done=false) or the single terminal completion notice (Done=true). The
// terminal event is always the last one delivered and the channel is closed
// after it.
type Event struct {
	Text  string
	IsErr bool

	Done   bool
	Result Result
}

func chunk(text string, isErr bool) Event {
	return Event{Text: text, IsErr: isErr}
}

func done(result Result) Event {
	return Event{Done: true, Result: result}
}
