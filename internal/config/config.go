package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/amm926616/april/internal/logging"
)

// Config holds April runtime configuration loaded from TOML.
type Config struct {
	Library LibraryConfig `toml:"library"`
	Lyrics  LyricsConfig  `toml:"lyrics"`
	Search  SearchConfig  `toml:"search"`
	Player  PlayerConfig  `toml:"player"`
	Log     LogConfig     `toml:"log"`
}

// LibraryConfig controls scanning and the metadata cache.
type LibraryConfig struct {
	Roots         []string `toml:"roots"`
	Extensions    []string `toml:"extensions"`
	CacheDB       string   `toml:"cache_db"`
	ScanOnStart   *bool    `toml:"scan_on_start"`
	ProbeDuration bool     `toml:"probe_duration"` // ffprobe for durations
	Watch         *bool    `toml:"watch"`
	Workers       int      `toml:"workers"`
}

type LyricsConfig struct {
	SyncThreshold float64 `toml:"sync_threshold"` // seconds
}

type SearchConfig struct {
	FuzzyThreshold int `toml:"fuzzy_threshold"` // 1-100
}

type PlayerConfig struct {
	MPVPath   string `toml:"mpv_path"`
	IPC       string `toml:"ipc"`
	SeekSmall int    `toml:"seek_small_seconds"`
}

type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text, json
}

// ScanOnStartEnabled reports whether the library is rescanned at startup.
func (l LibraryConfig) ScanOnStartEnabled() bool { return l.ScanOnStart == nil || *l.ScanOnStart }

// WatchEnabled reports whether filesystem changes trigger rescans.
func (l LibraryConfig) WatchEnabled() bool { return l.Watch == nil || *l.Watch }

// Environment overrides, applied after the file is read. A .env file in the
// working directory is loaded first.
const (
	EnvConfig   = "APRIL_CONFIG"
	EnvRoots    = "APRIL_ROOTS"
	EnvCacheDB  = "APRIL_CACHE_DB"
	EnvLogLevel = "APRIL_LOG_LEVEL"
)

// Load reads configuration from disk. If path is empty, APRIL_CONFIG or a
// default OS-specific location is used; a missing default file yields the
// defaults.
func Load(path string) (*Config, string, error) {
	_ = godotenv.Load()

	cfgPath := path
	if cfgPath == "" {
		cfgPath = os.Getenv(EnvConfig)
	}
	explicit := cfgPath != ""
	if !explicit {
		var err error
		cfgPath, err = defaultPath()
		if err != nil {
			return nil, "", fmt.Errorf("resolve config path: %w", err)
		}
	}

	var cfg Config
	data, err := os.ReadFile(cfgPath)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, cfgPath, fmt.Errorf("parse config: %w", err)
		}
	case !explicit && errors.Is(err, fs.ErrNotExist):
	default:
		return nil, cfgPath, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := Validate(cfg); err != nil {
		return nil, cfgPath, err
	}
	return &cfg, cfgPath, nil
}

// Default returns a validated-shape config with every default applied.
func Default() Config {
	var cfg Config
	applyDefaults(&cfg)
	return cfg
}

var userConfigDir = os.UserConfigDir

func defaultPath() (string, error) {
	dir, err := userConfigDir()
	if err != nil {
		return "", err
	}
	name := "april"
	if runtime.GOOS == "windows" {
		name = "April"
	}
	return filepath.Join(dir, name, "config.toml"), nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvRoots); v != "" {
		cfg.Library.Roots = filepath.SplitList(v)
	}
	if v := os.Getenv(EnvCacheDB); v != "" {
		cfg.Library.CacheDB = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
}

func applyDefaults(cfg *Config) {
	if len(cfg.Library.Roots) == 0 {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Library.Roots = []string{filepath.Join(home, "Music")}
		}
	}
	if len(cfg.Library.Extensions) == 0 {
		cfg.Library.Extensions = []string{".mp3", ".ogg", ".wav", ".flac", ".aac", ".m4a"}
	}
	for i, e := range cfg.Library.Extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" && !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		cfg.Library.Extensions[i] = e
	}
	if cfg.Library.CacheDB == "" {
		stateDir, err := logging.StateDir()
		if err != nil {
			stateDir = os.TempDir()
		}
		cfg.Library.CacheDB = filepath.Join(stateDir, "april.sqlite")
	}
	if cfg.Lyrics.SyncThreshold == 0 {
		cfg.Lyrics.SyncThreshold = 0.3
	}
	if cfg.Search.FuzzyThreshold == 0 {
		cfg.Search.FuzzyThreshold = 80
	}
	if cfg.Player.MPVPath == "" {
		cfg.Player.MPVPath = "mpv"
	}
	if cfg.Player.SeekSmall == 0 {
		cfg.Player.SeekSmall = 1
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// Validate performs semantic validation of config.
func Validate(cfg Config) error {
	if len(cfg.Library.Roots) == 0 {
		return errors.New("library.roots is required")
	}
	for _, r := range cfg.Library.Roots {
		if strings.TrimSpace(r) == "" {
			return errors.New("library.roots contains empty path")
		}
	}
	for _, e := range cfg.Library.Extensions {
		if e == "" || e == "." {
			return errors.New("library.extensions contains empty extension")
		}
	}
	if cfg.Library.Workers < 0 {
		return errors.New("library.workers must be >= 0")
	}
	if cfg.Lyrics.SyncThreshold < 0 {
		return fmt.Errorf("lyrics.sync_threshold must be >= 0, got %v", cfg.Lyrics.SyncThreshold)
	}
	if cfg.Search.FuzzyThreshold < 1 || cfg.Search.FuzzyThreshold > 100 {
		return fmt.Errorf("search.fuzzy_threshold must be 1-100, got %d", cfg.Search.FuzzyThreshold)
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", cfg.Log.Format)
	}
	return nil
}

// CheckMPV verifies the configured mpv binary can be found.
func (c Config) CheckMPV() error {
	if _, err := os.Stat(c.Player.MPVPath); err == nil {
		return nil
	}
	if _, err := execLookPath(c.Player.MPVPath); err != nil {
		return fmt.Errorf("mpv not found (%s): %w", c.Player.MPVPath, err)
	}
	return nil
}

// MissingRoots lists configured roots that do not exist.
func (c Config) MissingRoots() []string {
	var out []string
	for _, r := range c.Library.Roots {
		if info, err := os.Stat(r); err != nil || !info.IsDir() {
			out = append(out, r)
		}
	}
	return out
}

// execLookPath is a test seam.
var execLookPath = func(file string) (string, error) {
	return exec.LookPath(file)
}
