package cli

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	errs "github.com/matzehuels/pkgmirror/pkg/errors"
	"github.com/matzehuels/pkgmirror/pkg/integrations/pypi"
)

// isolate points every config source at empty locations.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	for _, k := range []string{"PATH", "INDEX_URL", "FIND_LINKS", "PYTHON", "SETUP_TIMEOUT", "WORKERS"} {
		t.Setenv(envPrefix+k, "")
	}
	t.Chdir(t.TempDir()) // no stray .env
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	isolate(t)
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path != "." || !cfg.SourceOnly || cfg.DevelopOK || cfg.Interpreter != "python3" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.SetupTimeout.Duration != 30*time.Second || cfg.CacheTTL.Duration != time.Hour || cfg.Workers != 4 {
		t.Errorf("unexpected default durations %+v", cfg)
	}
	if got := cfg.Indexes(); !slices.Equal(got, []string{pypi.DefaultIndexURL}) {
		t.Errorf("Indexes() = %v", got)
	}
	if err := cfg.validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	isolate(t)
	path := writeFile(t, filepath.Join(t.TempDir(), "config.toml"), `
path = "/srv/mirror"
index_urls = ["https://pypi.example.com/simple"]
find_links = ["/srv/dists"]
source_only = false
develop_ok = true
interpreter = "python3.12"
setup_timeout = "1m"
cache_ttl = "10m"
workers = 8
`)
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	want := Config{
		Path:         "/srv/mirror",
		IndexURLs:    []string{"https://pypi.example.com/simple"},
		FindLinks:    []string{"/srv/dists"},
		DevelopOK:    true,
		Interpreter:  "python3.12",
		SetupTimeout: duration{time.Minute},
		CacheTTL:     duration{10 * time.Minute},
		Workers:      8,
	}
	if cfg.Path != want.Path || !slices.Equal(cfg.IndexURLs, want.IndexURLs) || !slices.Equal(cfg.FindLinks, want.FindLinks) ||
		cfg.SourceOnly || !cfg.DevelopOK || cfg.Interpreter != want.Interpreter ||
		cfg.SetupTimeout != want.SetupTimeout || cfg.CacheTTL != want.CacheTTL || cfg.Workers != want.Workers {
		t.Errorf("got %+v, want %+v", cfg, want)
	}
	if p := cfg.Policy(); p.SourceOnly || !p.DevelopOK {
		t.Errorf("Policy() = %+v", p)
	}
}

func TestLoadConfigDefaultLocation(t *testing.T) {
	isolate(t)
	writeFile(t, filepath.Join(os.Getenv("XDG_CONFIG_HOME"), appName, "config.toml"), `workers = 2`)
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, want 2", cfg.Workers)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
		code errs.Code
	}{
		{"missing explicit file", filepath.Join(dir, "nope.toml"), errs.ErrCodeFileNotFound},
		{"syntax error", writeFile(t, filepath.Join(dir, "bad.toml"), `workers = `), errs.ErrCodeInvalidConfig},
		{"unknown key", writeFile(t, filepath.Join(dir, "unknown.toml"), `mirror = "x"`), errs.ErrCodeInvalidConfig},
		{"bad duration", writeFile(t, filepath.Join(dir, "dur.toml"), `setup_timeout = "soon"`), errs.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(tt.path)
			if !errs.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestLoadConfigDotEnv(t *testing.T) {
	isolate(t)
	os.Unsetenv(envPrefix + "WORKERS")
	writeFile(t, ".env", envPrefix+"WORKERS=6\n")
	t.Cleanup(func() { os.Unsetenv(envPrefix + "WORKERS") })

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Workers != 6 {
		t.Errorf("Workers = %d, want 6 from .env", cfg.Workers)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		envPrefix + "PATH":          "/data/mirror",
		envPrefix + "INDEX_URL":     "https://a.example.com/simple, https://b.example.com/simple,",
		envPrefix + "FIND_LINKS":    "/dists",
		envPrefix + "PYTHON":        "/usr/bin/python3.11",
		envPrefix + "SETUP_TIMEOUT": "45s",
		envPrefix + "WORKERS":       "",
	}
	lookup := func(k string) (string, bool) { v, ok := env[k]; return v, ok }

	cfg := defaultConfig()
	if err := cfg.applyEnv(lookup); err != nil {
		t.Fatal(err)
	}
	if cfg.Path != "/data/mirror" || cfg.Interpreter != "/usr/bin/python3.11" || cfg.SetupTimeout.Duration != 45*time.Second {
		t.Errorf("unexpected config %+v", cfg)
	}
	if want := []string{"https://a.example.com/simple", "https://b.example.com/simple"}; !slices.Equal(cfg.IndexURLs, want) {
		t.Errorf("IndexURLs = %v, want %v", cfg.IndexURLs, want)
	}
	if cfg.Workers != 4 {
		t.Errorf("empty variable changed Workers to %d", cfg.Workers)
	}
	if got := cfg.Indexes(); len(got) != 2 {
		t.Errorf("Indexes() = %v", got)
	}

	for _, k := range []string{"SETUP_TIMEOUT", "WORKERS"} {
		bad := func(key string) (string, bool) {
			if key == envPrefix+k {
				return "many", true
			}
			return "", false
		}
		cfg := defaultConfig()
		if err := cfg.applyEnv(bad); !errs.Is(err, errs.ErrCodeInvalidConfig) {
			t.Errorf("%s: error = %v, want INVALID_CONFIG", k, err)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad index url", func(c *Config) { c.IndexURLs = []string{"ftp://example.com/simple"} }},
		{"empty path", func(c *Config) { c.Path = "" }},
		{"empty interpreter", func(c *Config) { c.Interpreter = "" }},
		{"zero timeout", func(c *Config) { c.SetupTimeout.Duration = 0 }},
		{"no workers", func(c *Config) { c.Workers = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(&cfg)
			if err := cfg.validate(); !errs.Is(err, errs.ErrCodeInvalidConfig) {
				t.Errorf("validate() = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestIndexesFindLinksOnly(t *testing.T) {
	cfg := defaultConfig()
	cfg.FindLinks = []string{"/dists"}
	if got := cfg.Indexes(); len(got) != 0 {
		t.Errorf("find-links only config queried %v", got)
	}
}
