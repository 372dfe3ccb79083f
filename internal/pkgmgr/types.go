package pkgmgr

import (
	"context"

	"github.com/reza-ygb/apex-launcher/internal/catalog"
)

// Package is one application reported by a package manager.
type Package struct {
	Name        string
	ID          string // manager-specific identifier, e.g. a Flatpak app id
	Command     string
	Description string
}

// Manager lists the applications installed through one package manager.
type Manager interface {
	// Name is the manager's binary name, e.g. "snap".
	Name() string
	Origin() catalog.Origin
	List(ctx context.Context) ([]Package, error)
}

// Defaults returns the managers supported on this system, each using r.
func Defaults(r Runner) []Manager {
	return []Manager{
		NewFlatpak(r),
		NewSnap(r),
		NewBrew(r),
	}
}
