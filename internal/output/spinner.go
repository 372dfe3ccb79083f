package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// writerIsTTY returns true if the given writer exposes an Fd() method
// (e.g. *os.File) and that fd is a terminal. Falls back to false for
// plain io.Writer values such as *bytes.Buffer.
func writerIsTTY(w io.Writer) bool {
	type fder interface {
		Fd() uintptr
	}
	if f, ok := w.(fder); ok {
		return isatty.IsTerminal(f.Fd())
	}
	return false
}

// spinnerFrames are drawn in order, one per tick.
var spinnerFrames = []string{"|", "/", "-", "\\"}

// Spinner shows that a scan is in progress.
// Example: /  Scanning applications (3s elapsed)
//
// On a terminal it animates in place. On any other writer it prints the
// message once on Start and nothing else, so logs stay readable.
type Spinner struct {
	mu       sync.Mutex
	writer   io.Writer
	message  string
	interval time.Duration
	timeout  time.Duration
	timing   bool
	started  time.Time
	running  bool
	stop     chan struct{}
	wg       sync.WaitGroup
	width    int // widest line drawn, for clearing
}

// NewSpinner creates a spinner writing to stdout. It does not start until
// Start is called.
func NewSpinner(message string) *Spinner {
	return &Spinner{
		writer:   os.Stdout,
		message:  message,
		interval: 100 * time.Millisecond,
	}
}

// WithTimeout makes the spinner show timing: remaining time when timeout is
// positive, elapsed time otherwise. Call it before Start.
func (s *Spinner) WithTimeout(timeout time.Duration) *Spinner {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeout = timeout
	s.timing = true
	return s
}

// SetWriter sets the output writer (useful for testing).
func (s *Spinner) SetWriter(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer = w
}

// Start begins the animation. Calling Start on a running spinner does nothing.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.started = time.Now()

	if !writerIsTTY(s.writer) {
		fmt.Fprintf(s.writer, "%s...\n", s.message)
		return
	}

	s.stop = make(chan struct{})
	s.wg.Add(1)
	go s.animate(s.stop)
}

func (s *Spinner) animate(stop <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for frame := 0; ; frame = (frame + 1) % len(spinnerFrames) {
		select {
		case <-ticker.C:
			s.mu.Lock()
			line := spinnerFrames[frame] + "  " + s.line()
			if len(line) > s.width {
				s.width = len(line)
			}
			fmt.Fprintf(s.writer, "\r%s", line)
			s.mu.Unlock()
		case <-stop:
			return
		}
	}
}

// line returns the message with timing. Must be called with the lock held.
func (s *Spinner) line() string {
	if !s.timing {
		return s.message
	}

	elapsed := time.Since(s.started)
	if s.timeout > 0 {
		remaining := s.timeout - elapsed
		if remaining < 0 {
			remaining = 0
		}
		return fmt.Sprintf("%s (%ds remaining)", s.message, int(remaining.Seconds()))
	}
	return fmt.Sprintf("%s (%ds elapsed)", s.message, int(elapsed.Seconds()))
}

// Running reports whether the spinner has been started and not stopped.
func (s *Spinner) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Stop halts the animation and clears its line. Extra calls do nothing.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	s.wg.Wait()

	s.mu.Lock()
	fmt.Fprintf(s.writer, "\r%s\r", strings.Repeat(" ", s.width))
	s.mu.Unlock()
}

// UpdateMessage replaces the message while the spinner runs.
func (s *Spinner) UpdateMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

// StopWithMessage stops the spinner and prints message on its own line.
func (s *Spinner) StopWithMessage(message string) {
	s.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.writer, message)
}
