package scanner

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/shell"

	"github.com/reza-ygb/apex-launcher/internal/catalog"
)

// fieldCodes are the Exec placeholders defined by the desktop entry format.
var fieldCodes = []string{"%U", "%F", "%u", "%f", "%i", "%c", "%k", "%d", "%D", "%n", "%N", "%v", "%m"}

// DesktopEntry holds the fields of a [Desktop Entry] section that matter for
// discovery.
type DesktopEntry struct {
	Name        string
	Exec        string
	Comment     string
	GenericName string
	Icon        string
	Type        string
	NoDisplay   bool
	Hidden      bool
}

// Launchable reports whether the entry describes an application that should
// be listed. A missing Type is accepted.
func (e DesktopEntry) Launchable() bool {
	if e.NoDisplay || e.Hidden {
		return false
	}
	return e.Type == "" || strings.EqualFold(e.Type, "application")
}

// Description returns Comment, then GenericName, then the placeholder.
func (e DesktopEntry) Description() string {
	if e.Comment != "" {
		return e.Comment
	}
	if e.GenericName != "" {
		return e.GenericName
	}
	return catalog.DefaultDescription
}

// ParseDesktopEntry reads at most maxLines lines from r and returns the
// [Desktop Entry] section. Unlocalized keys win over their [en] variants.
func ParseDesktopEntry(r io.Reader, maxLines int) (DesktopEntry, error) {
	var (
		entry     DesktopEntry
		localized = make(map[string]string)
		inSection bool
		lines     int
	)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines++
		if maxLines > 0 && lines > maxLines {
			break
		}

		line := strings.TrimSpace(strings.ToValidUTF8(sc.Text(), ""))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			inSection = line == "[Desktop Entry]"
			continue
		}
		if !inSection {
			continue
		}

		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])

		switch key {
		case "Name":
			entry.Name = value
		case "Exec":
			entry.Exec = value
		case "Comment":
			entry.Comment = value
		case "GenericName":
			entry.GenericName = value
		case "Icon":
			entry.Icon = value
		case "Type":
			entry.Type = value
		case "NoDisplay":
			entry.NoDisplay = strings.EqualFold(value, "true")
		case "Hidden":
			entry.Hidden = strings.EqualFold(value, "true")
		case "Name[en]", "Comment[en]", "GenericName[en]":
			localized[strings.TrimSuffix(key, "[en]")] = value
		}
	}
	if err := sc.Err(); err != nil {
		return entry, err
	}

	if entry.Name == "" {
		entry.Name = localized["Name"]
	}
	if entry.Comment == "" {
		entry.Comment = localized["Comment"]
	}
	if entry.GenericName == "" {
		entry.GenericName = localized["GenericName"]
	}

	return entry, nil
}

// ExecCommand strips field codes from an Exec value and returns its first
// argument. Quoted program paths are honoured.
func ExecCommand(exec string) string {
	for _, code := range fieldCodes {
		exec = strings.ReplaceAll(exec, code, "")
	}
	exec = strings.TrimSpace(exec)
	if exec == "" {
		return ""
	}

	// Expansion is disabled: variables are left as literal text.
	fields, err := shell.Fields(exec, func(name string) string { return "$" + name })
	if err != nil || len(fields) == 0 {
		fields = strings.Fields(exec)
	}
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// DesktopScanner reads .desktop files from a list of directories.
type DesktopScanner struct {
	dirs   []string
	limits Limits
	logger *log.Logger
}

// NewDesktop returns a scanner over dirs.
func NewDesktop(dirs []string, limits Limits, logger *log.Logger) *DesktopScanner {
	return &DesktopScanner{dirs: dirs, limits: limits, logger: orDefault(logger)}
}

func (s *DesktopScanner) Name() string           { return "desktop" }
func (s *DesktopScanner) Origin() catalog.Origin { return catalog.OriginDesktop }

// Dirs returns the directories this scanner reads.
func (s *DesktopScanner) Dirs() []string {
	return append([]string(nil), s.dirs...)
}

// Scan reads every directory in order. When two entries share a name the
// first one read is kept.
func (s *DesktopScanner) Scan(ctx context.Context) catalog.Set {
	set := catalog.NewSet(catalog.OriginDesktop)

	for _, dir := range s.dirs {
		if ctx.Err() != nil {
			return set
		}

		files, err := filepath.Glob(filepath.Join(dir, "*.desktop"))
		if err != nil || len(files) == 0 {
			continue
		}
		sort.Strings(files)
		if s.limits.MaxFilesPerDir > 0 && len(files) > s.limits.MaxFilesPerDir {
			files = files[:s.limits.MaxFilesPerDir]
		}

		for _, path := range files {
			if ctx.Err() != nil {
				return set
			}
			rec, ok := s.readEntry(path)
			if ok {
				set.Add(rec)
			}
		}
	}

	return set
}

func (s *DesktopScanner) readEntry(path string) (catalog.Record, bool) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return catalog.Record{}, false
	}
	if s.limits.MaxFileSize > 0 && info.Size() > s.limits.MaxFileSize {
		s.logger.Debug("skipping oversized desktop entry", "path", path, "size", info.Size())
		return catalog.Record{}, false
	}

	f, err := os.Open(path)
	if err != nil {
		s.logger.Debug("skipping unreadable desktop entry", "path", path, "err", err)
		return catalog.Record{}, false
	}
	defer f.Close()

	entry, err := ParseDesktopEntry(f, s.limits.MaxLines)
	if err != nil {
		s.logger.Debug("skipping malformed desktop entry", "path", path, "err", err)
		return catalog.Record{}, false
	}
	if !entry.Launchable() {
		return catalog.Record{}, false
	}

	name := entry.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), ".desktop")
	}
	command := ExecCommand(entry.Exec)
	if command == "" {
		command = name
	}

	return catalog.Record{
		Name:        name,
		Command:     command,
		Description: entry.Description(),
		Origin:      catalog.OriginDesktop,
		IconHint:    entry.Icon,
	}, true
}

// DefaultDesktopDirs returns the system and per-user application directories,
// followed by $XDG_DATA_DIRS entries not already listed.
func DefaultDesktopDirs() []string {
	dirs := []string{
		"/usr/share/applications",
		"/usr/local/share/applications",
		"/var/lib/flatpak/exports/share/applications",
		"/var/lib/snapd/desktop/applications",
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs,
			filepath.Join(home, ".local", "share", "applications"),
			filepath.Join(home, ".local", "share", "flatpak", "exports", "share", "applications"),
			filepath.Join(home, "Desktop"),
		)
	}

	seen := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		seen[d] = true
	}
	for _, base := range filepath.SplitList(os.Getenv("XDG_DATA_DIRS")) {
		if base == "" {
			continue
		}
		d := filepath.Join(base, "applications")
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	return dirs
}
