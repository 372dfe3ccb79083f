package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// line formats a status line the way RenderStatus aligns labels.
func line(label, value string) string {
	return fmt.Sprintf("%-14s%s", label, value)
}

func TestRunStatus_NeverScanned(t *testing.T) {
	env := isolate(t)

	out, err := run(t, statusCmd)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}

	for _, want := range []string{
		line("Config:", "defaults"),
		line("Database:", env.dbPath),
		"never (run 'apex scan')",
		"flatpak ✗",
		"apex watch --daemon",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in status output, got:\n%s", want, out)
		}
	}

	if _, err := os.Stat(env.dbPath); !os.IsNotExist(err) {
		t.Error("status must not create the database")
	}
}

func TestRunStatus_AfterScan(t *testing.T) {
	env := isolate(t)
	resetScanFlags(t)
	env.writeDesktopEntry(t, "firefox.desktop", "Firefox", "firefox", "Web Browser")
	env.writeDesktopEntry(t, "gimp.desktop", "GIMP", "gimp", "Image editor")

	scanForce = true
	if _, err := run(t, scanCmd); err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	out, err := run(t, statusCmd)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, "2 applications · fresh") {
		t.Errorf("expected a fresh scan of 2 applications, got:\n%s", out)
	}
}

func TestRunStatus_ConfigFile(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "apex.yaml")
	if err := os.WriteFile(path, []byte("cache_ttl: 42m\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	configFile = path

	out, err := run(t, statusCmd)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, line("Config:", path)) {
		t.Errorf("expected config path in output, got:\n%s", out)
	}
	if !strings.Contains(out, line("Cache TTL:", "42m0s")) {
		t.Errorf("expected TTL from config file, got:\n%s", out)
	}
}

func TestRunStatus_DaemonRunning(t *testing.T) {
	env := isolate(t)

	// The test process itself stands in for a running daemon.
	pidFile := filepath.Join(filepath.Dir(env.dbPath), "watch.pid")
	if err := os.MkdirAll(filepath.Dir(pidFile), 0755); err != nil {
		t.Fatalf("failed to create cache dir: %v", err)
	}
	if err := os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}

	out, err := run(t, statusCmd)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, "running (PID "+strconv.Itoa(os.Getpid())+")") {
		t.Errorf("expected running watcher, got:\n%s", out)
	}
}
