// Package watcher keeps the application cache current while a session runs.
//
// It watches the desktop entry directories with fsnotify. Any create, write,
// remove or rename of a *.desktop file invalidates the cache at once, and a
// forced rescan follows after the changes settle (DefaultDebounce).
//
// The watcher can run in the foreground or as a daemon managed through a PID
// file:
//
//	w, err := watcher.New(c, scanner.DefaultDesktopDirs(), watcher.Options{})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Foreground
//	if err := w.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer w.Stop()
//
//	// Or as a daemon
//	if err := watcher.StartDaemon(pidFile, logFile, "watch", "--daemon-child"); err != nil {
//		log.Fatal(err)
//	}
package watcher
