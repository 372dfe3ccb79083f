package category

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

// Keyword weights. A keyword counts once per category, at the weight of the
// first field it is found in.
const (
	NameWeight        = 3
	CommandWeight     = 2
	DescriptionWeight = 1
)

// builtinKeywords is the default keyword table. Keywords are lowercase and
// matched as substrings.
var builtinKeywords = map[Category][]string{
	Programming: {
		"code", "editor", "ide", "python", "java", "git", "vim", "emacs", "vscode",
		"sublime", "atom", "eclipse", "intellij", "pycharm", "dev", "develop",
		"compiler", "gcc", "make", "cmake", "ninja", "node", "npm", "yarn",
		"docker", "kubernetes", "k8s",
	},
	Security: {
		"security", "hack", "nmap", "wireshark", "metasploit", "burp", "kali",
		"pen", "test", "audit", "vuln", "exploit", "forensic", "john", "hashcat",
		"aircrack", "sqlmap", "nikto", "dirb",
	},
	System: {
		"system", "monitor", "htop", "top", "kill", "systemctl", "service",
		"process", "task", "cpu", "memory", "disk", "mount", "fdisk", "lsblk",
		"df", "free", "ps", "systemd",
	},
	Internet: {
		"browser", "firefox", "chrome", "chromium", "wget", "curl", "thunderbird",
		"mail", "email", "web", "http", "ftp", "download", "torrent",
		"transmission", "qbittorrent",
	},
	Media: {
		"video", "audio", "vlc", "mpv", "gimp", "blender", "spotify", "music",
		"player", "media", "photo", "image", "movie", "kodi", "plex", "obs",
		"audacity", "kdenlive",
	},
	Office: {
		"office", "document", "libreoffice", "writer", "calc", "pdf", "word",
		"excel", "powerpoint", "presentation", "spreadsheet", "text", "editor",
		"note", "markdown",
	},
	Graphics: {
		"graphics", "design", "gimp", "inkscape", "krita", "darktable", "photo",
		"edit", "draw", "paint", "vector", "raster", "blender", "3d", "modeling",
		"render",
	},
	Development: {
		"terminal", "console", "shell", "bash", "zsh", "fish", "tmux", "screen",
		"ssh", "ftp", "rsync", "scp",
	},
	Games: {
		"game", "steam", "lutris", "wine", "emulator", "play", "gaming",
		"entertainment", "fun", "arcade", "simulation",
	},
	Education: {
		"learn", "education", "study", "tutorial", "course", "school",
		"university", "research", "academic",
	},
}

// Categorizer scores applications against a keyword table.
// It is read-only after construction and safe for concurrent use.
type Categorizer struct {
	keywords map[Category][]string
}

// New returns a Categorizer using the built-in keyword table.
func New() *Categorizer {
	kw := make(map[Category][]string, len(builtinKeywords))
	for c, words := range builtinKeywords {
		kw[c] = append([]string(nil), words...)
	}
	return &Categorizer{keywords: kw}
}

// Categorize returns the single best category for an application. The
// highest total wins; ties go to the category listed first in All(); a
// zero score yields Other.
func (c *Categorizer) Categorize(name, description, command string) Category {
	name = strings.ToLower(name)
	description = strings.ToLower(description)
	command = strings.ToLower(command)

	best := Other
	bestScore := 0
	for _, cat := range order {
		if cat == Other {
			continue
		}
		s := score(c.keywords[cat], name, description, command)
		if s > bestScore {
			best, bestScore = cat, s
		}
	}
	return best
}

// Score returns the raw score of every category except Other. Exposed for
// diagnostics and tests.
func (c *Categorizer) Score(name, description, command string) map[Category]int {
	name = strings.ToLower(name)
	description = strings.ToLower(description)
	command = strings.ToLower(command)

	out := make(map[Category]int, len(order)-1)
	for _, cat := range order {
		if cat == Other {
			continue
		}
		out[cat] = score(c.keywords[cat], name, description, command)
	}
	return out
}

// Keywords returns a copy of the keyword list for cat.
func (c *Categorizer) Keywords(cat Category) []string {
	return append([]string(nil), c.keywords[cat]...)
}

func score(keywords []string, name, description, command string) int {
	total := 0
	for _, kw := range keywords {
		switch {
		case strings.Contains(name, kw):
			total += NameWeight
		case strings.Contains(command, kw):
			total += CommandWeight
		case strings.Contains(description, kw):
			total += DescriptionWeight
		}
	}
	return total
}

// keywordFile is the on-disk shape of a keyword override file.
//
//	extend:
//	  Programming: [zig, rustc]
//	replace:
//	  Games: [steam, lutris]
type keywordFile struct {
	Extend  map[string][]string `yaml:"extend"`
	Replace map[string][]string `yaml:"replace"`
}

// LoadFile returns a Categorizer built from the built-in table with the
// overrides in path applied. A missing file yields the built-in table.
// Categories that are not part of the fixed set are ignored with a warning.
func LoadFile(path string, logger *log.Logger) (*Categorizer, error) {
	c := New()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read keyword file: %w", err)
	}

	var kf keywordFile
	if err := yaml.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("failed to parse keyword file %s: %w", path, err)
	}

	if logger == nil {
		logger = log.Default()
	}

	for name, words := range kf.Replace {
		cat, ok := known(name)
		if !ok {
			logger.Warn("ignoring unknown category in keyword file", "category", name, "path", path)
			continue
		}
		c.keywords[cat] = normalize(words)
	}
	for name, words := range kf.Extend {
		cat, ok := known(name)
		if !ok {
			logger.Warn("ignoring unknown category in keyword file", "category", name, "path", path)
			continue
		}
		c.keywords[cat] = normalize(append(append([]string(nil), c.keywords[cat]...), words...))
	}

	return c, nil
}

// known resolves name to a scorable category. Other has no keywords.
func known(name string) (Category, bool) {
	for _, cat := range order {
		if cat != Other && strings.EqualFold(string(cat), strings.TrimSpace(name)) {
			return cat, true
		}
	}
	return "", false
}

// normalize lowercases and trims words, dropping blanks and repeats while
// keeping first-seen order.
func normalize(words []string) []string {
	out := make([]string, 0, len(words))
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" && !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}
