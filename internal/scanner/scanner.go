// Package scanner discovers launchable applications from one source each:
// desktop-entry files, executables on the search path, package managers and
// AppImage bundles.
//
// Scanners never fail as a whole. Per-item problems (unreadable files,
// malformed entries, missing tools) are logged at debug level and skipped,
// and every scanner stops early when its context is cancelled.
package scanner

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/reza-ygb/apex-launcher/internal/catalog"
	"github.com/reza-ygb/apex-launcher/internal/pkgmgr"
)

// Scanner produces the records found in one source.
type Scanner interface {
	Name() string
	Origin() catalog.Origin
	Scan(ctx context.Context) catalog.Set
}

// Limits bounds how much work a scanner does in one pass.
type Limits struct {
	MaxFilesPerDir   int   // desktop entries read per directory
	MaxFileSize      int64 // desktop entries larger than this are skipped
	MaxLines         int   // lines read per desktop entry
	MaxPathDirs      int   // search-path directories visited
	MaxPathEntries   int   // executables taken per search-path directory
	EssentialPaths   bool  // visit only system binary directories
	MaxPackages      int   // packages taken per package manager
	MaxAppImages     int   // AppImage bundles taken in total
	AppImageMaxDepth int   // directory depth searched for AppImages
}

// DefaultLimits are the budgets used by the full profile.
func DefaultLimits() Limits {
	return Limits{
		MaxFilesPerDir:   200,
		MaxFileSize:      50 * 1024,
		MaxLines:         100,
		MaxPathDirs:      10,
		MaxPathEntries:   500,
		EssentialPaths:   false,
		MaxPackages:      200,
		MaxAppImages:     200,
		AppImageMaxDepth: 3,
	}
}

// MinimalLimits are the tighter budgets used by the minimal profile.
func MinimalLimits() Limits {
	return Limits{
		MaxFilesPerDir:   200,
		MaxFileSize:      50 * 1024,
		MaxLines:         100,
		MaxPathDirs:      6,
		MaxPathEntries:   100,
		EssentialPaths:   true,
		MaxPackages:      10,
		MaxAppImages:     0,
		AppImageMaxDepth: 3,
	}
}

func orDefault(logger *log.Logger) *log.Logger {
	if logger == nil {
		return log.Default()
	}
	return logger
}

// Sources configures where the standard scanners look.
type Sources struct {
	DesktopDirs  []string
	AppImageDirs []string
	PathEnv      string
	Runner       pkgmgr.Runner
}

// Build returns the standard scanners in origin priority order: desktop
// entries, package managers, AppImages, then the search path. AppImage
// scanning is left out when the limits allow no bundles.
func Build(src Sources, limits Limits, logger *log.Logger) []Scanner {
	runner := src.Runner
	if runner == nil {
		runner = pkgmgr.NewExecRunner(pkgmgr.DefaultTimeout)
	}

	scanners := []Scanner{NewDesktop(src.DesktopDirs, limits, logger)}
	scanners = append(scanners, NewPackageScanners(pkgmgr.Defaults(runner), limits, logger)...)
	if limits.MaxAppImages > 0 {
		scanners = append(scanners, NewAppImage(src.AppImageDirs, limits, logger))
	}
	return append(scanners, NewPath(src.PathEnv, limits, logger))
}
