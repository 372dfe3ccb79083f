package launcher

import (
	"time"

	"github.com/reza-ygb/apex-launcher/internal/catalog"
)

// StatusKind identifies a message in a scan task's status stream.
type StatusKind int

const (
	// Started is sent before any scanning work begins.
	Started StatusKind = iota
	// Completed is sent once the result is ready. It is always the last message.
	Completed
)

func (k StatusKind) String() string {
	switch k {
	case Started:
		return "started"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Status is one message of a scan task's status stream.
type Status struct {
	Kind    StatusKind
	At      time.Time
	Elapsed time.Duration // set on Completed
	Count   int           // set on Completed
	Cached  bool          // set on Completed when no scan was needed
}

// Task is a scan running in the background.
type Task struct {
	status chan Status
	done   chan struct{}
	result *catalog.Result
}

func newTask() *Task {
	return &Task{
		status: make(chan Status, 2),
		done:   make(chan struct{}),
	}
}

// Status returns the task's status stream: exactly one Started message, then
// one Completed message, then the channel is closed. The stream is buffered,
// so a task whose status is never read does not block.
func (t *Task) Status() <-chan Status {
	return t.status
}

// Done is closed when the result is available.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the scan finishes and returns its result.
func (t *Task) Wait() *catalog.Result {
	<-t.done
	return t.result
}
