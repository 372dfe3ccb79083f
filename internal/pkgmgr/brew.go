package pkgmgr

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/reza-ygb/apex-launcher/internal/catalog"
)

// brewListOutput represents the structure of `brew list --json=v2` output
type brewListOutput struct {
	Formulae []brewFormula `json:"formulae"`
	Casks    []brewCask    `json:"casks"`
}

type brewFormula struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Desc     string `json:"desc"`
	Tap      string `json:"tap"`
}

type brewCask struct {
	Token     string   `json:"token"`
	FullToken string   `json:"full_token"`
	Name      []string `json:"name"`
	Desc      string   `json:"desc"`
	Tap       string   `json:"tap"`
}

// Brew lists Homebrew formulae and casks.
type Brew struct {
	runner Runner
}

// NewBrew returns a Homebrew manager that invokes brew through r.
func NewBrew(r Runner) *Brew {
	return &Brew{runner: r}
}

func (b *Brew) Name() string           { return "brew" }
func (b *Brew) Origin() catalog.Origin { return catalog.OriginBrew }

// List returns every installed formula and cask.
func (b *Brew) List(ctx context.Context) ([]Package, error) {
	output, err := b.runner.Run(ctx, "brew", "list", "--json=v2")
	if err != nil {
		return nil, err
	}
	return parseBrewList(output)
}

func parseBrewList(output []byte) ([]Package, error) {
	var listOutput brewListOutput
	if err := json.Unmarshal(output, &listOutput); err != nil {
		return nil, fmt.Errorf("failed to parse brew list output: %w", err)
	}

	var packages []Package

	for _, formula := range listOutput.Formulae {
		if formula.Name == "" {
			continue
		}
		desc := formula.Desc
		if desc == "" {
			desc = "Homebrew: " + formula.Name
		}
		packages = append(packages, Package{
			Name:        formula.Name,
			ID:          formula.FullName,
			Command:     formula.Name,
			Description: desc,
		})
	}

	for _, cask := range listOutput.Casks {
		if cask.Token == "" {
			continue
		}
		name := cask.Token
		if len(cask.Name) > 0 && cask.Name[0] != "" {
			name = cask.Name[0]
		}
		desc := cask.Desc
		if desc == "" {
			desc = "Homebrew cask: " + cask.Token
		}
		packages = append(packages, Package{
			Name:        name,
			ID:          cask.FullToken,
			Command:     cask.Token,
			Description: desc,
		})
	}

	return packages, nil
}
