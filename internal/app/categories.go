package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reza-ygb/apex-launcher/internal/output"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Show the category set and how many applications each holds",
	Long: `Show every category with its display label, icon hint and the number of
applications currently assigned to it.

The category set is fixed. Keyword scoring can be tuned in
~/.config/apex-launcher/keywords.yaml.`,
	Example: `  apex categories`,
	Args:    cobra.NoArgs,
	RunE:    runCategories,
}

func runCategories(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	res := e.engine.Scan(cmd.Context(), false)
	fmt.Fprint(cmd.OutOrStdout(), output.RenderCategories(e.engine.Categories(), res))
	return nil
}
