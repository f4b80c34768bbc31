package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestValidate(t *testing.T) {
	base := Default()
	base.Library.Roots = []string{"/music"}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "no roots", mutate: func(c *Config) { c.Library.Roots = nil }, wantErr: true},
		{name: "blank root", mutate: func(c *Config) { c.Library.Roots = []string{" "} }, wantErr: true},
		{name: "empty extension", mutate: func(c *Config) { c.Library.Extensions = []string{"."} }, wantErr: true},
		{name: "negative workers", mutate: func(c *Config) { c.Library.Workers = -1 }, wantErr: true},
		{name: "negative sync threshold", mutate: func(c *Config) { c.Lyrics.SyncThreshold = -0.1 }, wantErr: true},
		{name: "fuzzy too high", mutate: func(c *Config) { c.Search.FuzzyThreshold = 101 }, wantErr: true},
		{name: "fuzzy max", mutate: func(c *Config) { c.Search.FuzzyThreshold = 100 }},
		{name: "bad level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: true},
		{name: "bad format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: true},
		{name: "json format", mutate: func(c *Config) { c.Log.Format = "json" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			cfg.Library.Roots = append([]string(nil), base.Library.Roots...)
			cfg.Library.Extensions = append([]string(nil), base.Library.Extensions...)
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	data := `
[library]
roots = ["/srv/music"]
extensions = ["MP3", "flac"]
watch = false

[lyrics]
sync_threshold = 0.5

[search]
fuzzy_threshold = 70
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvRoots, "")
	t.Setenv(EnvCacheDB, filepath.Join(dir, "cache.sqlite"))
	t.Setenv(EnvLogLevel, "debug")

	cfg, got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != path {
		t.Fatalf("path = %q", got)
	}
	if len(cfg.Library.Roots) != 1 || cfg.Library.Roots[0] != "/srv/music" {
		t.Fatalf("roots = %v", cfg.Library.Roots)
	}
	if cfg.Library.Extensions[0] != ".mp3" || cfg.Library.Extensions[1] != ".flac" {
		t.Fatalf("extensions not normalized: %v", cfg.Library.Extensions)
	}
	if cfg.Library.WatchEnabled() {
		t.Fatalf("watch should be disabled")
	}
	if !cfg.Library.ScanOnStartEnabled() {
		t.Fatalf("scan_on_start should default to true")
	}
	if cfg.Lyrics.SyncThreshold != 0.5 || cfg.Search.FuzzyThreshold != 70 {
		t.Fatalf("lyrics/search = %+v %+v", cfg.Lyrics, cfg.Search)
	}
	if cfg.Library.CacheDB != filepath.Join(dir, "cache.sqlite") || cfg.Log.Level != "debug" {
		t.Fatalf("env overrides not applied: %+v %+v", cfg.Library, cfg.Log)
	}

	t.Setenv(EnvRoots, "/a"+string(os.PathListSeparator)+"/b")
	cfg, _, err = Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Library.Roots) != 2 || cfg.Library.Roots[1] != "/b" {
		t.Fatalf("APRIL_ROOTS not applied: %v", cfg.Library.Roots)
	}
}

func TestLoadMissingFiles(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvRoots, "/music")

	if _, _, err := Load(filepath.Join(dir, "nope.toml")); err == nil {
		t.Fatalf("explicit missing path should fail")
	}

	orig := userConfigDir
	userConfigDir = func() (string, error) { return dir, nil }
	defer func() { userConfigDir = orig }()

	cfg, path, err := Load("")
	if err != nil {
		t.Fatalf("missing default config should load defaults: %v", err)
	}
	if path != filepath.Join(dir, "april", "config.toml") {
		t.Fatalf("path = %q", path)
	}
	if cfg.Search.FuzzyThreshold != 80 || cfg.Lyrics.SyncThreshold != 0.3 || cfg.Player.MPVPath != "mpv" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoadParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[library\nroots = 1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestCheckMPV(t *testing.T) {
	cfg := Default()
	cfg.Player.MPVPath = "definitely-not-mpv"

	orig := execLookPath
	defer func() { execLookPath = orig }()

	execLookPath = func(string) (string, error) { return "", errors.New("not found") }
	if err := cfg.CheckMPV(); err == nil {
		t.Fatalf("expected missing mpv error")
	}

	execLookPath = func(string) (string, error) { return "/usr/bin/mpv", nil }
	if err := cfg.CheckMPV(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := os.CreateTemp(t.TempDir(), "mpv")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	execLookPath = func(string) (string, error) { return "", errors.New("not found") }
	cfg.Player.MPVPath = f.Name()
	if err := cfg.CheckMPV(); err != nil {
		t.Fatalf("existing path should pass: %v", err)
	}
}

func TestMissingRoots(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Library.Roots = []string{dir, filepath.Join(dir, "gone")}
	missing := cfg.MissingRoots()
	if len(missing) != 1 || missing[0] != filepath.Join(dir, "gone") {
		t.Fatalf("missing = %v", missing)
	}
}
