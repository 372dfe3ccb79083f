package output

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestSpinner_NonTTYPrintsOnce(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewSpinner("Scanning applications")
	s.SetWriter(buf)

	s.Start()
	time.Sleep(250 * time.Millisecond)
	s.Stop()

	if got, want := buf.String(), "Scanning applications...\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestSpinner_StartStop(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewSpinner("Test")
	s.SetWriter(buf)

	if s.Running() {
		t.Error("Spinner should not run before Start()")
	}
	s.Start()
	s.Start() // no-op
	if !s.Running() {
		t.Error("Spinner should be running after Start()")
	}

	s.Stop()
	if s.Running() {
		t.Error("Spinner should not be running after Stop()")
	}
	if strings.Count(buf.String(), "Test...") != 1 {
		t.Errorf("message printed %d times, want 1", strings.Count(buf.String(), "Test..."))
	}
}

func TestSpinner_MultipleStops(t *testing.T) {
	s := NewSpinner("Test")
	s.SetWriter(&bytes.Buffer{})

	// Stop before Start and repeated stops should not panic
	s.Stop()
	s.Start()
	s.Stop()
	s.Stop()
}

func TestSpinner_StopWithMessage(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewSpinner("Working")
	s.SetWriter(buf)

	s.Start()
	s.StopWithMessage("Found 42 applications")

	if !strings.HasSuffix(buf.String(), "Found 42 applications\n") {
		t.Errorf("output should end with the final message, got: %q", buf.String())
	}
}

func TestSpinner_Line(t *testing.T) {
	tests := []struct {
		name    string
		timing  bool
		timeout time.Duration
		want    string
	}{
		{"plain", false, 0, "Scanning"},
		{"elapsed", true, 0, "Scanning (0s elapsed)"},
		{"remaining", true, 15 * time.Second, "Scanning (15s remaining)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSpinner("Scanning")
			if tt.timing {
				s.WithTimeout(tt.timeout)
			}
			// Started slightly in the future so truncated seconds are stable.
			s.started = time.Now().Add(100 * time.Millisecond)
			if got := s.line(); got != tt.want {
				t.Errorf("line() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSpinner_Concurrent(t *testing.T) {
	s := NewSpinner("Concurrent spinner")
	s.SetWriter(&bytes.Buffer{})
	s.Start()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				s.UpdateMessage("Message from goroutine")
				time.Sleep(time.Millisecond)
			}
		}()
	}
	wg.Wait()

	s.Stop()
}

func TestWriterIsTTY_Buffer(t *testing.T) {
	if writerIsTTY(&bytes.Buffer{}) {
		t.Error("a bytes.Buffer is not a terminal")
	}
}
