package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reza-ygb/apex-launcher/internal/catalog"
	"github.com/reza-ygb/apex-launcher/internal/category"
	"github.com/reza-ygb/apex-launcher/internal/output"
)

var (
	listCategory string
	listOrigin   string
	listLimit    int

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List discovered applications",
		Long: `List discovered applications grouped by category.

Within a category, applications are ordered by how often they were launched
through apex, then by name. Cached results are used when fresh; otherwise a
scan runs first.

Categories can be given by name or by label, e.g. "System" or "System Tools".`,
		Example: `  # List everything
  apex list

  # List one category
  apex list --category Internet

  # List flatpak applications only
  apex list --origin flatpak

  # Show the first 20 entries
  apex list --limit 20`,
		Args: cobra.NoArgs,
		RunE: runList,
	}
)

func init() {
	listCmd.Flags().StringVarP(&listCategory, "category", "c", "", "only list this category")
	listCmd.Flags().StringVar(&listOrigin, "origin", "", "only list applications from this source (desktop, flatpak, snap, brew, appimage, path)")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "maximum number of applications to show (0 = all)")
}

func runList(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	recs, err := filterRecords(e.engine.Scan(cmd.Context(), false), listCategory, listOrigin, listLimit)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), output.RenderRecords(recs))
	return nil
}

// filterRecords selects records from res by category and origin, keeping
// category order, and truncates to limit when positive.
func filterRecords(res *catalog.Result, cat, origin string, limit int) ([]catalog.Record, error) {
	var recs []catalog.Record
	if cat != "" {
		c, err := resolveCategory(cat)
		if err != nil {
			return nil, err
		}
		recs = append(recs, res.Groups[c]...)
	} else {
		recs = res.Records()
	}

	if origin != "" {
		o, ok := catalog.ParseOrigin(origin)
		if !ok {
			return nil, fmt.Errorf("unknown origin %q", origin)
		}
		kept := recs[:0]
		for _, rec := range recs {
			if rec.Origin == o {
				kept = append(kept, rec)
			}
		}
		recs = kept
	}

	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// resolveCategory matches s against category names and labels,
// case-insensitively.
func resolveCategory(s string) (category.Category, error) {
	s = strings.TrimSpace(s)
	var names []string
	for _, info := range category.Infos() {
		if strings.EqualFold(string(info.Category), s) || strings.EqualFold(info.Label, s) {
			return info.Category, nil
		}
		names = append(names, string(info.Category))
	}
	return "", fmt.Errorf("unknown category %q (valid: %s)", s, strings.Join(names, ", "))
}
