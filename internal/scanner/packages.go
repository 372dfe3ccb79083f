package scanner

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/reza-ygb/apex-launcher/internal/catalog"
	"github.com/reza-ygb/apex-launcher/internal/pkgmgr"
)

// PackageScanner turns the applications a package manager reports into
// records. A missing tool, a failed or timed-out invocation, or unparsable
// output all yield an empty set.
type PackageScanner struct {
	manager pkgmgr.Manager
	limits  Limits
	logger  *log.Logger
}

// NewPackage returns a scanner over m.
func NewPackage(m pkgmgr.Manager, limits Limits, logger *log.Logger) *PackageScanner {
	return &PackageScanner{manager: m, limits: limits, logger: orDefault(logger)}
}

func (s *PackageScanner) Name() string           { return s.manager.Name() }
func (s *PackageScanner) Origin() catalog.Origin { return s.manager.Origin() }

// Scan lists the manager's applications, keeping at most MaxPackages.
func (s *PackageScanner) Scan(ctx context.Context) catalog.Set {
	set := catalog.NewSet(s.manager.Origin())

	pkgs, err := s.manager.List(ctx)
	if err != nil {
		s.logger.Debug("package manager unavailable", "manager", s.manager.Name(), "err", err)
		return set
	}

	for _, pkg := range pkgs {
		if ctx.Err() != nil {
			break
		}
		if s.limits.MaxPackages > 0 && set.Len() >= s.limits.MaxPackages {
			break
		}
		set.Add(catalog.Record{
			Name:        pkg.Name,
			Command:     pkg.Command,
			Description: pkg.Description,
			Origin:      s.manager.Origin(),
		})
	}

	return set
}

// NewPackageScanners returns one scanner per manager.
func NewPackageScanners(managers []pkgmgr.Manager, limits Limits, logger *log.Logger) []Scanner {
	out := make([]Scanner, 0, len(managers))
	for _, m := range managers {
		out = append(out, NewPackage(m, limits, logger))
	}
	return out
}
