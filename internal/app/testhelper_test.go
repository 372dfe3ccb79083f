package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

// testEnv points every directory apex reads or writes at a temp dir.
type testEnv struct {
	desktopDir string
	binDir     string
	dbPath     string
}

// isolate sets up a private HOME, XDG dirs, PATH and desktop entry dir and
// resets the global flags for the duration of the test.
func isolate(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()

	env := &testEnv{
		desktopDir: filepath.Join(root, "applications"),
		binDir:     filepath.Join(root, "bin"),
		dbPath:     filepath.Join(root, "cache", "apps.db"),
	}
	for _, dir := range []string{env.desktopDir, env.binDir, filepath.Join(root, "appimages")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}

	t.Setenv("HOME", root)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(root, "cache-home"))
	t.Setenv("PATH", env.binDir)
	t.Setenv("APEX_DESKTOP_DIRS", env.desktopDir)
	t.Setenv("APEX_APPIMAGE_DIRS", filepath.Join(root, "appimages"))
	t.Setenv("APEX_LOG_LEVEL", "error")

	oldDB, oldConfig, oldVerbose := dbPath, configFile, verbose
	dbPath, configFile, verbose = env.dbPath, "", false
	t.Cleanup(func() { dbPath, configFile, verbose = oldDB, oldConfig, oldVerbose })

	return env
}

// writeDesktopEntry writes a minimal application entry named file.
func (e *testEnv) writeDesktopEntry(t *testing.T, file, name, exec, comment string) {
	t.Helper()
	content := "[Desktop Entry]\nType=Application\nName=" + name + "\nExec=" + exec + "\nComment=" + comment + "\n"
	if err := os.WriteFile(filepath.Join(e.desktopDir, file), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write desktop entry: %v", err)
	}
}

// run invokes a command's RunE with captured output.
func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetContext(context.Background())
	t.Cleanup(func() { cmd.SetOut(nil) })

	err := cmd.RunE(cmd, args)
	return buf.String(), err
}
