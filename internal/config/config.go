// Package config loads apex-launcher settings from defaults, an optional
// YAML file and APEX_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/reza-ygb/apex-launcher/internal/scanner"
)

const (
	// AppName names the config and cache directories.
	AppName = "apex-launcher"
	// FileName is the config file looked up in Dir.
	FileName = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. APEX_CACHE_TTL=10m.
	EnvPrefix = "APEX"
)

// Profile selects how much scanning effort a pass spends.
type Profile string

const (
	// ProfileFull scans every source with the default budgets.
	ProfileFull Profile = "full"
	// ProfileMinimal scans essential directories only, for slow machines.
	ProfileMinimal Profile = "minimal"
)

// Config is the effective configuration.
type Config struct {
	Profile        Profile       `mapstructure:"profile"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	ScannerTimeout time.Duration `mapstructure:"scanner_timeout"`
	PackageTimeout time.Duration `mapstructure:"package_timeout"`
	Workers        int           `mapstructure:"workers"`
	DBPath         string        `mapstructure:"db_path"`
	KeywordsFile   string        `mapstructure:"keywords_file"`
	DesktopDirs    []string      `mapstructure:"desktop_dirs"`
	AppImageDirs   []string      `mapstructure:"appimage_dirs"`
	WatchDebounce  time.Duration `mapstructure:"watch_debounce"`
	LogLevel       string        `mapstructure:"log_level"`
}

// LoadOptions controls where Load looks for a config file.
type LoadOptions struct {
	// File, when set, is the only config file read and must exist.
	File string
	// Dir overrides Dir() for the default config file lookup.
	Dir string
}

// Dir returns the apex-launcher config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/apex-launcher if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, AppName), nil
}

// CacheDir returns the directory holding the database and daemon files.
func CacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate cache directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Profile:        ProfileFull,
		ScannerTimeout: 15 * time.Second,
		PackageTimeout: 3 * time.Second,
		Workers:        3,
		WatchDebounce:  2 * time.Second,
		LogLevel:       "info",
	}
}

// Load builds the effective configuration and returns it with the path of
// the config file it read, or "" when defaults and environment were enough.
func Load(opts LoadOptions) (*Config, string, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("profile", string(defaults.Profile))
	v.SetDefault("cache_ttl", defaults.CacheTTL)
	v.SetDefault("scanner_timeout", defaults.ScannerTimeout)
	v.SetDefault("package_timeout", defaults.PackageTimeout)
	v.SetDefault("workers", defaults.Workers)
	v.SetDefault("db_path", "")
	v.SetDefault("keywords_file", "")
	v.SetDefault("desktop_dirs", []string{})
	v.SetDefault("appimage_dirs", []string{})
	v.SetDefault("watch_debounce", defaults.WatchDebounce)
	v.SetDefault("log_level", defaults.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := configFile(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.finalize(); err != nil {
		return nil, "", err
	}
	return &cfg, path, nil
}

// configFile resolves which file to read, if any.
func configFile(opts LoadOptions) (string, error) {
	if opts.File != "" {
		if _, err := os.Stat(opts.File); err != nil {
			return "", fmt.Errorf("config file not found: %s", opts.File)
		}
		return opts.File, nil
	}

	dir := opts.Dir
	if dir == "" {
		d, err := Dir()
		if err != nil {
			return "", fmt.Errorf("failed to locate config directory: %w", err)
		}
		dir = d
	}

	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to stat config file: %w", err)
	}
	return path, nil
}

// finalize validates cfg and fills values that depend on others.
func (c *Config) finalize() error {
	c.Profile = Profile(strings.ToLower(strings.TrimSpace(string(c.Profile))))
	switch c.Profile {
	case ProfileFull, ProfileMinimal:
	default:
		return fmt.Errorf("invalid profile %q: must be %q or %q", c.Profile, ProfileFull, ProfileMinimal)
	}

	if c.Workers < 1 {
		return fmt.Errorf("invalid workers %d: must be at least 1", c.Workers)
	}
	if c.ScannerTimeout <= 0 {
		return fmt.Errorf("invalid scanner_timeout %s: must be positive", c.ScannerTimeout)
	}
	if c.PackageTimeout <= 0 {
		return fmt.Errorf("invalid package_timeout %s: must be positive", c.PackageTimeout)
	}

	if c.CacheTTL <= 0 {
		c.CacheTTL = c.Profile.DefaultTTL()
	}
	if c.DBPath == "" {
		dir, err := CacheDir()
		if err != nil {
			return err
		}
		c.DBPath = filepath.Join(dir, "apps.db")
	}
	if len(c.DesktopDirs) == 0 {
		c.DesktopDirs = scanner.DefaultDesktopDirs()
	}
	if len(c.AppImageDirs) == 0 {
		c.AppImageDirs = scanner.DefaultAppImageDirs()
	}
	return nil
}

// DefaultTTL is the cache freshness window for the profile.
func (p Profile) DefaultTTL() time.Duration {
	if p == ProfileMinimal {
		return 10 * time.Minute
	}
	return 5 * time.Minute
}

// Limits returns the scanner budgets for the configured profile.
func (c *Config) Limits() scanner.Limits {
	if c.Profile == ProfileMinimal {
		return scanner.MinimalLimits()
	}
	return scanner.DefaultLimits()
}

// PIDFile is where the watch daemon records its PID.
func (c *Config) PIDFile() string {
	return filepath.Join(filepath.Dir(c.DBPath), "watch.pid")
}

// LogFile is where the watch daemon writes its output.
func (c *Config) LogFile() string {
	return filepath.Join(filepath.Dir(c.DBPath), "watch.log")
}
