package app

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/reza-ygb/apex-launcher/internal/cache"
	"github.com/reza-ygb/apex-launcher/internal/category"
	"github.com/reza-ygb/apex-launcher/internal/config"
	"github.com/reza-ygb/apex-launcher/internal/discovery"
	"github.com/reza-ygb/apex-launcher/internal/launcher"
	"github.com/reza-ygb/apex-launcher/internal/pkgmgr"
	"github.com/reza-ygb/apex-launcher/internal/scanner"
	"github.com/reza-ygb/apex-launcher/internal/store"
)

// env is the wiring shared by every command that touches the catalog.
type env struct {
	cfg        *config.Config
	configPath string
	logger     *log.Logger
	db         *store.Store
	orch       *discovery.Orchestrator
	cache      *cache.Cache
	engine     *launcher.Engine
}

// openEnv loads the configuration and assembles store, scanners,
// orchestrator, cache and engine. Callers must Close the result.
func openEnv() (*env, error) {
	cfg, path, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	categorizer, err := category.LoadFile(cfg.KeywordsFile, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	scanners := scanner.Build(scanner.Sources{
		DesktopDirs:  cfg.DesktopDirs,
		AppImageDirs: cfg.AppImageDirs,
		PathEnv:      os.Getenv("PATH"),
		Runner:       pkgmgr.NewExecRunner(cfg.PackageTimeout),
	}, cfg.Limits(), logger)

	orch := discovery.New(scanners, discovery.Options{
		Workers:     cfg.Workers,
		Timeout:     cfg.ScannerTimeout,
		Categorizer: categorizer,
		Persister:   db,
		Logger:      logger,
	})
	c := cache.New(db, orch, cache.Options{TTL: cfg.CacheTTL, Logger: logger})

	return &env{
		cfg:        cfg,
		configPath: path,
		logger:     logger,
		db:         db,
		orch:       orch,
		cache:      c,
		engine:     launcher.New(c, launcher.Options{Logger: logger}),
	}, nil
}

// Close waits for pending writes and closes the database.
func (e *env) Close() error {
	e.orch.Flush()
	return e.db.Close()
}
