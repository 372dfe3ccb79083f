package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/reza-ygb/apex-launcher/internal/output"
	"github.com/reza-ygb/apex-launcher/internal/pkgmgr"
	"github.com/reza-ygb/apex-launcher/internal/store"
	"github.com/reza-ygb/apex-launcher/internal/watcher"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache freshness, package managers and watcher state",
	Long: `Display where apex keeps its data and how current it is.

Shows:
  • Config file and database location
  • Time of the last scan and whether it is still fresh
  • Which package managers are available
  • Whether the watch daemon is running

Status never triggers a scan.`,
	Example: `  # Check status
  apex status`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}

	st := output.Status{
		DBPath:     cfg.DBPath,
		ConfigFile: path,
		TTL:        cfg.CacheTTL,
	}

	if _, err := os.Stat(cfg.DBPath); err == nil {
		db, err := store.New(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		scanTime, err := db.LastScanTime(cmd.Context())
		if err != nil && !errors.Is(err, store.ErrNotInitialized) {
			return fmt.Errorf("failed to read last scan time: %w", err)
		}
		st.ScanTime = scanTime
		if !scanTime.IsZero() {
			if st.Count, err = db.CountApplications(cmd.Context()); err != nil {
				return fmt.Errorf("failed to count applications: %w", err)
			}
		}
	}

	for _, m := range pkgmgr.Defaults(nil) {
		st.Managers = append(st.Managers, output.ManagerStatus{Name: m.Name(), Available: pkgmgr.Available(m.Name())})
	}

	pidFile := cfg.PIDFile()
	running, err := watcher.IsDaemonRunning(pidFile)
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if running {
		st.Watching = true
		if data, err := os.ReadFile(pidFile); err == nil {
			st.WatchPID, _ = strconv.Atoi(strings.TrimSpace(string(data)))
		}
	}

	fmt.Fprint(cmd.OutOrStdout(), output.RenderStatus(st, time.Now()))
	return nil
}
