package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reza-ygb/apex-launcher/internal/catalog"
)

var (
	launchCommand string
	launchOrigin  string

	launchCmd = &cobra.Command{
		Use:   "launch <name>",
		Short: "Start an application",
		Long: `Start a discovered application, detached from this terminal.

The name is looked up in the cached results; when it is not found exactly,
the best fuzzy match is used. Launches through apex are counted and used to
order listings.

With --command, the given command line is started directly as if it came from
--origin (default: path), without a catalog lookup.`,
		Example: `  # Launch by name
  apex launch Firefox

  # Launch a raw command line
  apex launch --command "gimp --new-instance"

  # Launch a snap
  apex launch --command spotify --origin snap`,
		Args: func(cmd *cobra.Command, args []string) error {
			if launchCommand != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.MinimumNArgs(1)(cmd, args)
		},
		RunE: runLaunch,
	}
)

func init() {
	launchCmd.Flags().StringVar(&launchCommand, "command", "", "command line to start instead of a named application")
	launchCmd.Flags().StringVar(&launchOrigin, "origin", string(catalog.OriginPath), "origin of --command (desktop, flatpak, snap, brew, appimage, path)")
}

func runLaunch(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	out := cmd.OutOrStdout()

	if launchCommand != "" {
		origin, ok := catalog.ParseOrigin(launchOrigin)
		if !ok {
			return fmt.Errorf("unknown origin %q", launchOrigin)
		}
		if err := e.engine.Launch(cmd.Context(), launchCommand, origin); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Started %s\n", launchCommand)
		return nil
	}

	name := strings.Join(args, " ")
	res := e.engine.Scan(cmd.Context(), false)
	rec, ok := res.Find(name)
	if !ok {
		matches := catalog.Search(res.Records(), name)
		if len(matches) == 0 {
			return fmt.Errorf("no application matches %q", name)
		}
		rec = matches[0]
	}

	if err := e.engine.LaunchRecord(cmd.Context(), rec); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Started %s (%s)\n", rec.Name, rec.Origin)
	return nil
}
