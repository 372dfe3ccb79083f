package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/reza-ygb/apex-launcher/internal/config"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	dbPath     string
	configFile string
	verbose    bool

	// RootCmd is the root command for apex
	RootCmd = &cobra.Command{
		Use:   "apex",
		Short: "Discover, categorize and launch installed applications",
		Long: `apex finds the applications installed on this machine and sorts them
into categories so they can be listed, searched and launched from one place.

Applications are discovered from:
  • Desktop entries (.desktop files)
  • Package managers (flatpak, snap, brew)
  • AppImage bundles
  • Executables on PATH

Results are cached in a local SQLite database and reused until they go stale.
Run 'apex watch --daemon' to rescan automatically when desktop entries change.

Examples:
  # Discover applications
  apex scan

  # Browse a category
  apex list --category Development

  # Find and start an application
  apex search fire
  apex launch Firefox`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "apex: application discovery and launcher")
			fmt.Fprintln(out)
			cfg, _, err := loadConfig()
			if err == nil {
				if _, statErr := os.Stat(cfg.DBPath); statErr == nil {
					fmt.Fprintln(out, "Tip: Run 'apex list' to browse applications.")
					fmt.Fprintln(out, "     Run 'apex --help' for all commands.")
					return nil
				}
			}
			fmt.Fprintln(out, "Run 'apex scan' to discover installed applications.")
			fmt.Fprintln(out, "Run 'apex --help' for the full reference.")
			return nil
		},
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: ~/.cache/apex-launcher/apps.db)")
	RootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: ~/.config/apex-launcher/config.yaml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2

	RootCmd.AddCommand(scanCmd)
	RootCmd.AddCommand(listCmd)
	RootCmd.AddCommand(searchCmd)
	RootCmd.AddCommand(launchCmd)
	RootCmd.AddCommand(categoriesCmd)
	RootCmd.AddCommand(statusCmd)
	RootCmd.AddCommand(watchCmd)
}

// versionString returns a formatted version string for display.
func versionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the root command. Interrupts cancel ctx.
func Execute(ctx context.Context) error {
	return fang.Execute(
		ctx,
		RootCmd,
		fang.WithVersion(versionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
}

// loadConfig returns the effective configuration with the --db and
// --config flags applied.
func loadConfig() (*config.Config, string, error) {
	cfg, path, err := config.Load(config.LoadOptions{File: configFile})
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if cfg.KeywordsFile == "" {
		if dir, err := config.Dir(); err == nil {
			cfg.KeywordsFile = filepath.Join(dir, "keywords.yaml")
		}
	}
	return cfg, path, nil
}

// newLogger returns the stderr logger at the configured level; --verbose
// forces debug.
func newLogger(cfg *config.Config) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "apex"})
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warn("unknown log level, using info", "level", cfg.LogLevel)
		level = log.InfoLevel
	}
	if verbose {
		level = log.DebugLevel
	}
	logger.SetLevel(level)
	return logger
}
