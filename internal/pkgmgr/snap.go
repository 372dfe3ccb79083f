package pkgmgr

import (
	"context"
	"strings"

	"github.com/reza-ygb/apex-launcher/internal/catalog"
)

// Snap lists installed snaps.
type Snap struct {
	runner Runner
}

// NewSnap returns a Snap manager that invokes snap through r.
func NewSnap(r Runner) *Snap {
	return &Snap{runner: r}
}

func (s *Snap) Name() string           { return "snap" }
func (s *Snap) Origin() catalog.Origin { return catalog.OriginSnap }

// List returns every installed snap except base and snapd snaps.
func (s *Snap) List(ctx context.Context) ([]Package, error) {
	output, err := s.runner.Run(ctx, "snap", "list")
	if err != nil {
		return nil, err
	}
	return parseSnapList(string(output)), nil
}

// parseSnapList parses the output of `snap list`.
// Example input:
//
//	Name     Version   Rev    Tracking       Publisher   Notes
//	core20   20230207  1828   latest/stable  canonical✓  base
//	spotify  1.2.26    67     latest/stable  spotify✓    -
func parseSnapList(output string) []Package {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) < 2 {
		return nil
	}

	var packages []Package
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		name := fields[0]
		if name == "snapd" {
			continue
		}
		if len(fields) >= 6 {
			notes := fields[5]
			if strings.Contains(notes, "base") || strings.Contains(notes, "snapd") {
				continue
			}
		}
		packages = append(packages, Package{
			Name:        name,
			ID:          name,
			Command:     name,
			Description: "Snap: " + name,
		})
	}
	return packages
}
