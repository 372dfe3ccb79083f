package watcher

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

const desktopSuffix = ".desktop"

// isDesktopEntry reports whether path names a desktop entry file. Editor
// swap and backup files are ignored.
func isDesktopEntry(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.HasSuffix(base, desktopSuffix)
}

// relevant reports whether ev can change the set of applications.
func relevant(ev fsnotify.Event) bool {
	if !isDesktopEntry(ev.Name) {
		return false
	}
	return ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}

// watchDirs returns the existing directories among dirs, with duplicates
// (including symlinks to the same directory) removed.
func watchDirs(dirs []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}

		key := filepath.Clean(dir)
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			key = resolved
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, dir)
	}
	return out
}
