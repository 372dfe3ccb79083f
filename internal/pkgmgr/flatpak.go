package pkgmgr

import (
	"context"
	"strings"

	"github.com/reza-ygb/apex-launcher/internal/catalog"
)

// Flatpak lists installed Flatpak applications.
type Flatpak struct {
	runner Runner
}

// NewFlatpak returns a Flatpak manager that invokes flatpak through r.
func NewFlatpak(r Runner) *Flatpak {
	return &Flatpak{runner: r}
}

func (f *Flatpak) Name() string           { return "flatpak" }
func (f *Flatpak) Origin() catalog.Origin { return catalog.OriginFlatpak }

// List returns every installed Flatpak application (runtimes excluded).
func (f *Flatpak) List(ctx context.Context) ([]Package, error) {
	output, err := f.runner.Run(ctx, "flatpak", "list", "--app", "--columns=name,application")
	if err != nil {
		return nil, err
	}
	return parseFlatpakList(string(output)), nil
}

// parseFlatpakList parses tab-separated `flatpak list --app` output. Only
// the first two columns (name, application id) are used.
func parseFlatpakList(output string) []Package {
	var packages []Package
	for _, line := range strings.Split(output, "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) < 2 {
			continue
		}
		name := strings.TrimSpace(parts[0])
		id := strings.TrimSpace(parts[1])
		if name == "" || id == "" {
			continue
		}
		packages = append(packages, Package{
			Name:        name,
			ID:          id,
			Command:     "flatpak run " + id,
			Description: "Flatpak: " + name,
		})
	}
	return packages
}
