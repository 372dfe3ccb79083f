// Package output renders discovery results for the terminal.
//
// This package includes:
//   - Tables for applications, scanner reports and categories
//   - A status summary with humanized cache freshness
//   - A spinner for scans
//
// Tables are built with rodaine/table. Headers and the first column are
// colored with fatih/color when stdout is a terminal and NO_COLOR is unset.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/rodaine/table"

	"github.com/reza-ygb/apex-launcher/internal/catalog"
	"github.com/reza-ygb/apex-launcher/internal/category"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// newTable returns a table writing to w with the shared header style.
func newTable(w io.Writer, headers ...interface{}) table.Table {
	tbl := table.New(headers...).WithWriter(w)
	if IsColorEnabled() {
		headerFmt := color.New(color.FgGreen, color.Underline).SprintfFunc()
		columnFmt := color.New(color.FgYellow).SprintfFunc()
		tbl.WithHeaderFormatter(headerFmt).WithFirstColumnFormatter(columnFmt)
	}
	return tbl
}

// RenderRecords renders applications in the order given.
func RenderRecords(recs []catalog.Record) string {
	if len(recs) == 0 {
		return "No applications found.\n"
	}

	var sb strings.Builder
	tbl := newTable(&sb, "Name", "Category", "Origin", "Command", "Uses")
	for _, rec := range recs {
		tbl.AddRow(
			truncate(rec.Name, 36),
			categoryLabel(rec.Category),
			rec.Origin,
			truncate(rec.Command, 40),
			rec.UsageCount,
		)
	}
	tbl.Print()
	return sb.String()
}

// RenderReport renders how each scanner fared in a pass.
func RenderReport(report []catalog.Outcome) string {
	if len(report) == 0 {
		return "No scanners ran.\n"
	}

	var sb strings.Builder
	tbl := newTable(&sb, "Scanner", "Origin", "Status", "Found", "Time", "Error")
	for _, o := range report {
		tbl.AddRow(o.Scanner, o.Origin, formatStatus(o.Status), o.Count, formatElapsed(o.Elapsed), truncate(o.Err, 48))
	}
	tbl.Print()
	return sb.String()
}

// RenderCategories renders every category with its icon hint and the number
// of applications res holds in it. res may be nil.
func RenderCategories(infos []category.Info, res *catalog.Result) string {
	var sb strings.Builder
	tbl := newTable(&sb, "Category", "Icon", "Apps")
	for _, info := range infos {
		count := 0
		if res != nil {
			count = len(res.Groups[info.Category])
		}
		tbl.AddRow(info.Label, info.IconHint, count)
	}
	tbl.Print()
	return sb.String()
}

// RenderSummary renders a one-line total followed by the non-empty
// categories and their sizes.
func RenderSummary(res *catalog.Result, elapsed time.Duration) string {
	var sb strings.Builder

	total := res.Count()
	fmt.Fprintf(&sb, "Found %s %s in %s\n", humanize.Comma(int64(total)), plural(total, "application", "applications"), formatElapsed(elapsed))
	if res.Failed() {
		sb.WriteString("Warning: every scanner failed; the result is empty.\n")
	}

	var parts []string
	for _, c := range category.All() {
		if n := len(res.Groups[c]); n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", categoryLabel(c), n))
		}
	}
	if len(parts) > 0 {
		sb.WriteString(strings.Join(parts, " · "))
		sb.WriteString("\n")
	}
	return sb.String()
}

// ManagerStatus reports whether a package manager is on PATH.
type ManagerStatus struct {
	Name      string
	Available bool
}

// Status is what `apex status` shows.
type Status struct {
	DBPath     string
	ConfigFile string
	ScanTime   time.Time
	TTL        time.Duration
	Count      int
	Managers   []ManagerStatus
	Watching   bool
	WatchPID   int
}

// RenderStatus renders st as aligned label/value lines.
func RenderStatus(st Status, now time.Time) string {
	const label = "%-14s"
	var sb strings.Builder

	config := st.ConfigFile
	if config == "" {
		config = "defaults"
	}
	fmt.Fprintf(&sb, label+"%s\n", "Config:", config)
	fmt.Fprintf(&sb, label+"%s\n", "Database:", st.DBPath)

	if st.ScanTime.IsZero() {
		fmt.Fprintf(&sb, label+"never (run 'apex scan')\n", "Last scan:")
	} else {
		freshness := "stale, next lookup rescans"
		if now.Sub(st.ScanTime) < st.TTL {
			freshness = "fresh"
		}
		fmt.Fprintf(&sb, label+"%s · %s %s · %s\n", "Last scan:",
			FormatAge(st.ScanTime, now), humanize.Comma(int64(st.Count)), plural(st.Count, "application", "applications"), freshness)
	}
	fmt.Fprintf(&sb, label+"%s\n", "Cache TTL:", st.TTL)

	var managers []string
	for _, m := range st.Managers {
		mark := "✗"
		if m.Available {
			mark = "✓"
		}
		managers = append(managers, m.Name+" "+mark)
	}
	if len(managers) > 0 {
		fmt.Fprintf(&sb, label+"%s\n", "Packages:", strings.Join(managers, " · "))
	}

	if st.Watching {
		fmt.Fprintf(&sb, label+"running (PID %d)\n", "Watcher:", st.WatchPID)
	} else {
		fmt.Fprintf(&sb, label+"stopped  (run 'apex watch --daemon')\n", "Watcher:")
	}
	return sb.String()
}

// FormatAge converts a timestamp to relative time (e.g., "3 minutes ago").
func FormatAge(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func categoryLabel(c category.Category) string {
	if info, ok := category.Lookup(c); ok {
		return info.Label
	}
	return string(c)
}

func formatStatus(s catalog.Status) string {
	switch s {
	case catalog.StatusOK:
		return "✓ ok"
	case catalog.StatusTimeout:
		return "⏱ timeout"
	case catalog.StatusFailed:
		return "✗ failed"
	default:
		return "- " + string(s)
	}
}

func formatElapsed(d time.Duration) string {
	if d < time.Millisecond {
		return "<1ms"
	}
	return d.Round(time.Millisecond).String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// truncate shortens s to at most maxLen runes, marking the cut with "...".
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
