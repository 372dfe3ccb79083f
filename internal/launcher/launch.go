package launcher

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"

	"mvdan.cc/sh/v3/shell"

	"github.com/reza-ygb/apex-launcher/internal/catalog"
)

// ErrEmptyCommand is returned when asked to launch a blank command.
var ErrEmptyCommand = errors.New("empty command")

// LaunchError reports why a command could not be started.
type LaunchError struct {
	Command string
	Reason  string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %q: %s", e.Command, e.Reason)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// Starter starts a prepared command without waiting for it.
type Starter func(cmd *exec.Cmd) error

// startDetached starts cmd in its own session and lets it outlive us.
func startDetached(cmd *exec.Cmd) error {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

// Argv returns the argument vector used to launch command for origin.
// Snap packages go through "snap run". Desktop entries and AppImages store a
// single, already unquoted program path. Everything else is split like a
// shell would, without running one.
func Argv(command string, origin catalog.Origin) ([]string, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, ErrEmptyCommand
	}

	switch origin {
	case catalog.OriginSnap:
		if strings.HasPrefix(command, "snap run ") {
			return splitCommand(command)
		}
		return []string{"snap", "run", command}, nil
	case catalog.OriginDesktop, catalog.OriginAppImage:
		return []string{command}, nil
	default:
		return splitCommand(command)
	}
}

func splitCommand(command string) ([]string, error) {
	argv, err := shell.Fields(command, func(string) string { return "" })
	if err != nil {
		return nil, fmt.Errorf("failed to parse command: %w", err)
	}
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}
	return argv, nil
}

// prepare resolves argv into a command with its standard streams detached.
func prepare(argv []string) (*exec.Cmd, error) {
	path, err := exec.LookPath(argv[0])
	if err != nil {
		return nil, err
	}
	cmd := exec.Command(path, argv[1:]...)
	cmd.Args[0] = argv[0]
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd, nil
}

func launchError(command string, err error) *LaunchError {
	reason := err.Error()
	switch {
	case errors.Is(err, ErrEmptyCommand):
		reason = "no command given"
	case errors.Is(err, exec.ErrNotFound):
		reason = "executable not found"
	case errors.Is(err, syscall.EACCES):
		reason = "permission denied"
	}
	return &LaunchError{Command: command, Reason: reason, Err: err}
}
