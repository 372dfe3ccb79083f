package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reza-ygb/apex-launcher/internal/catalog"
	"github.com/reza-ygb/apex-launcher/internal/launcher"
	"github.com/reza-ygb/apex-launcher/internal/output"
)

var (
	scanForce  bool
	scanQuiet  bool
	scanReport bool

	scanCmd = &cobra.Command{
		Use:   "scan",
		Short: "Discover and categorize installed applications",
		Long: `Discover installed applications and store them in the apex database.

Desktop entries, package managers, AppImage bundles and PATH executables are
scanned in parallel. Each scanner runs under its own timeout; a slow or broken
source is reported and skipped without failing the scan.

When several sources report the same application, the most trusted one wins:
desktop > flatpak > snap > brew > appimage > path.

Results younger than the cache TTL are reused unless --force is given.`,
		Example: `  # Scan, reusing fresh cached results
  apex scan

  # Always rescan
  apex scan --force

  # Show how each scanner fared
  apex scan --force --report

  # Scan quietly (suppress output)
  apex scan --quiet`,
		RunE: runScan,
	}
)

func init() {
	scanCmd.Flags().BoolVarP(&scanForce, "force", "f", false, "rescan even if cached results are fresh")
	scanCmd.Flags().BoolVar(&scanQuiet, "quiet", false, "suppress output")
	scanCmd.Flags().BoolVar(&scanReport, "report", false, "show per-scanner results")
}

func runScan(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	out := cmd.OutOrStdout()

	var spinner *output.Spinner
	task := e.engine.ScanAsync(cmd.Context(), scanForce)

	var done launcher.Status
	for st := range task.Status() {
		switch st.Kind {
		case launcher.Started:
			if !scanQuiet {
				spinner = output.NewSpinner("Scanning applications").WithTimeout(0)
				spinner.SetWriter(out)
				spinner.Start()
			}
		case launcher.Completed:
			done = st
		}
	}
	res := task.Wait()

	if spinner != nil {
		spinner.Stop()
	}
	if err := cmd.Context().Err(); err != nil {
		return fmt.Errorf("scan interrupted: %w", err)
	}
	if scanQuiet {
		return nil
	}

	fmt.Fprint(out, output.RenderSummary(res, done.Elapsed))
	if done.Cached {
		fmt.Fprintf(out, "Served from cache (scanned %s). Use --force to rescan.\n", output.FormatAge(res.ScanTime, done.At))
	}
	if scanReport || hasProblems(res) {
		fmt.Fprintln(out)
		fmt.Fprint(out, output.RenderReport(res.Report))
	}
	return nil
}

// hasProblems reports whether any scanner timed out or failed.
func hasProblems(res *catalog.Result) bool {
	for _, o := range res.Report {
		if o.Status == catalog.StatusTimeout || o.Status == catalog.StatusFailed {
			return true
		}
	}
	return false
}
