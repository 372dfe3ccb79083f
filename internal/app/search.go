package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reza-ygb/apex-launcher/internal/output"
)

var (
	searchLimit int

	searchCmd = &cobra.Command{
		Use:   "search <query>",
		Short: "Search applications by name, description or command",
		Long: `Search discovered applications.

Names are matched fuzzily, so "ffx" finds Firefox. Applications whose
description or command contains the query follow the name matches.`,
		Example: `  # Fuzzy name search
  apex search fire

  # Multi-word queries are joined
  apex search image editor`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearch,
	}
)

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 25, "maximum number of results (0 = all)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	query := strings.Join(args, " ")
	recs := e.engine.Search(cmd.Context(), query)
	if searchLimit > 0 && len(recs) > searchLimit {
		recs = recs[:searchLimit]
	}
	fmt.Fprint(cmd.OutOrStdout(), output.RenderRecords(recs))
	return nil
}
