package scanner

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/reza-ygb/apex-launcher/internal/catalog"
)

// pathDescription is the description given to every search-path executable.
const pathDescription = "CLI tool"

// essentialDirs are the substrings that mark a system binary directory.
var essentialDirs = []string{"/usr/bin", "/bin", "/usr/local/bin"}

// denyList holds ubiquitous commands that are never worth listing.
var denyList = map[string]bool{
	"ls": true, "cp": true, "mv": true, "rm": true, "cat": true, "echo": true,
	"ln": true, "mkdir": true, "rmdir": true, "touch": true, "chmod": true,
	"chown": true, "pwd": true, "true": true, "false": true, "test": true,
	"sleep": true, "env": true, "which": true, "yes": true, "head": true,
	"tail": true, "sort": true, "uniq": true, "wc": true, "tr": true,
	"cut": true, "tee": true, "date": true, "kill": true,
}

// skipSuffixes mark library and object files that happen to be executable.
var skipSuffixes = []string{".so", ".a", ".o"}

// PathScanner lists executables from the directories on the search path.
type PathScanner struct {
	pathEnv string
	limits  Limits
	logger  *log.Logger
}

// NewPath returns a scanner over the directories in pathEnv, a
// list separated by os.PathListSeparator (normally $PATH).
func NewPath(pathEnv string, limits Limits, logger *log.Logger) *PathScanner {
	return &PathScanner{pathEnv: pathEnv, limits: limits, logger: orDefault(logger)}
}

func (s *PathScanner) Name() string           { return "path" }
func (s *PathScanner) Origin() catalog.Origin { return catalog.OriginPath }

// Scan lists executables directory by directory in search-path order.
func (s *PathScanner) Scan(ctx context.Context) catalog.Set {
	set := catalog.NewSet(catalog.OriginPath)

	for _, dir := range s.dirs() {
		if ctx.Err() != nil {
			return set
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			s.logger.Debug("skipping unreadable path directory", "dir", dir, "err", err)
			continue
		}

		taken := 0
		for _, entry := range entries {
			if ctx.Err() != nil {
				return set
			}
			if s.limits.MaxPathEntries > 0 && taken >= s.limits.MaxPathEntries {
				break
			}

			name := entry.Name()
			if !Listable(name) {
				continue
			}

			full := filepath.Join(dir, name)
			info, err := os.Stat(full)
			if err != nil || !info.Mode().IsRegular() || info.Mode().Perm()&0111 == 0 {
				continue
			}

			if set.Add(catalog.Record{
				Name:        name,
				Command:     name,
				Description: pathDescription,
				Origin:      catalog.OriginPath,
			}) {
				taken++
			}
		}
	}

	return set
}

// dirs returns the deduplicated search-path directories to visit.
func (s *PathScanner) dirs() []string {
	var dirs []string
	seen := make(map[string]bool)
	for _, d := range filepath.SplitList(s.pathEnv) {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		if s.limits.EssentialPaths && !isEssential(d) {
			continue
		}
		dirs = append(dirs, d)
		if s.limits.MaxPathDirs > 0 && len(dirs) >= s.limits.MaxPathDirs {
			break
		}
	}
	return dirs
}

func isEssential(dir string) bool {
	for _, e := range essentialDirs {
		if strings.Contains(dir, e) {
			return true
		}
	}
	return false
}

// Listable reports whether an executable name is worth listing: not hidden,
// longer than two characters, not a library or object file and not on the
// deny-list.
func Listable(name string) bool {
	if strings.HasPrefix(name, ".") || len(name) <= 2 {
		return false
	}
	for _, suffix := range skipSuffixes {
		if strings.HasSuffix(name, suffix) {
			return false
		}
	}
	return !denyList[name]
}

// DenyList returns the sorted deny-list.
func DenyList() []string {
	out := make([]string, 0, len(denyList))
	for name := range denyList {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
