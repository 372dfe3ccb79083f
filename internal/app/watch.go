package app

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reza-ygb/apex-launcher/internal/catalog"
	"github.com/reza-ygb/apex-launcher/internal/output"
	"github.com/reza-ygb/apex-launcher/internal/watcher"
)

var (
	watchDaemon      bool
	watchDaemonChild bool
	watchPIDFile     string
	watchLogFile     string
	watchStop        bool

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Rescan automatically when desktop entries change",
		Long: `Watch the desktop entry directories and rescan when applications are
installed, changed or removed.

Watch modes:
  • Foreground (default): Run in current terminal with Ctrl+C to stop
  • Daemon: Run as a background process
  • Stop: Stop a running daemon

Changes are debounced: a burst of file events (for example a package
install writing several entries) causes a single rescan once things settle.
The debounce window is set by watch_debounce in the config file.`,
		Example: `  # Run in foreground (Ctrl+C to stop)
  apex watch

  # Run as background daemon
  apex watch --daemon

  # Stop running daemon
  apex watch --stop

  # Use custom PID and log files
  apex watch --daemon --pid-file /tmp/watch.pid --log-file /tmp/watch.log`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "run as background daemon")
	watchCmd.Flags().BoolVar(&watchDaemonChild, "daemon-child", false, "internal flag for daemon child process")
	watchCmd.Flags().StringVar(&watchPIDFile, "pid-file", "", "PID file path (default: ~/.cache/apex-launcher/watch.pid)")
	watchCmd.Flags().StringVar(&watchLogFile, "log-file", "", "log file path (default: ~/.cache/apex-launcher/watch.log)")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "stop running daemon")

	// Hide the internal daemon-child flag from help
	watchCmd.Flags().MarkHidden("daemon-child") //nolint:errcheck
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if watchPIDFile == "" {
		watchPIDFile = cfg.PIDFile()
	}
	if watchLogFile == "" {
		watchLogFile = cfg.LogFile()
	}

	if watchStop {
		return stopWatchDaemon(cmd)
	}
	if watchDaemon {
		return startWatchDaemon(cmd)
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	w, err := watcher.New(e.cache, e.cfg.DesktopDirs, watcher.Options{
		Debounce: e.cfg.WatchDebounce,
		Logger:   e.logger,
		OnRescan: func(res *catalog.Result) {
			e.logger.Info("catalog refreshed", "count", res.Count())
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if watchDaemonChild {
		// stdout and stderr are redirected to the log file here
		return w.RunDaemon(cmd.Context(), watchPIDFile)
	}
	return runWatchForeground(cmd, w)
}

func stopWatchDaemon(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	running, err := watcher.IsDaemonRunning(watchPIDFile)
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if !running {
		fmt.Fprintln(out, "Daemon is not running")
		return nil
	}

	spinner := output.NewSpinner("Stopping daemon")
	spinner.SetWriter(out)
	spinner.Start()
	if err := watcher.StopDaemon(watchPIDFile); err != nil {
		spinner.Stop()
		return fmt.Errorf("failed to stop daemon: %w", err)
	}
	spinner.StopWithMessage("✓ Daemon stopped")
	return nil
}

func startWatchDaemon(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	if err := os.MkdirAll(filepath.Dir(watchLogFile), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	spinner := output.NewSpinner("Starting daemon")
	spinner.SetWriter(out)
	spinner.Start()
	if err := watcher.StartDaemon(watchPIDFile, watchLogFile, daemonChildArgs()...); err != nil {
		spinner.Stop()
		return fmt.Errorf("failed to start daemon: %w", err)
	}
	spinner.StopWithMessage("✓ Daemon started")

	fmt.Fprintf(out, "\nWatch daemon started\n")
	fmt.Fprintf(out, "  PID file: %s\n", watchPIDFile)
	fmt.Fprintf(out, "  Log file: %s\n", watchLogFile)
	fmt.Fprintf(out, "\nTo stop: apex watch --stop\n")
	return nil
}

// daemonChildArgs returns the arguments the daemon child is started with,
// carrying over the flags that select its files.
func daemonChildArgs() []string {
	args := []string{"watch", "--daemon-child", "--pid-file", watchPIDFile, "--log-file", watchLogFile}
	if dbPath != "" {
		args = append(args, "--db", dbPath)
	}
	if configFile != "" {
		args = append(args, "--config", configFile)
	}
	if verbose {
		args = append(args, "--verbose")
	}
	return args
}

func runWatchForeground(cmd *cobra.Command, w *watcher.Watcher) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Watching for application changes (press Ctrl+C to stop)...")
	fmt.Fprintln(out)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	fmt.Fprintln(out, "✓ Watcher started")

	<-ctx.Done()
	fmt.Fprintln(out, "\nShutting down...")

	if err := w.Stop(); err != nil {
		return fmt.Errorf("failed to stop watcher: %w", err)
	}
	fmt.Fprintf(out, "✓ Watcher stopped after %d %s\n", w.Rescans(), rescanNoun(w.Rescans()))
	return nil
}

func rescanNoun(n int64) string {
	if n == 1 {
		return "rescan"
	}
	return "rescans"
}
