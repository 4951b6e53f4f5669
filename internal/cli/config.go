package cli

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/pkgmirror/pkg/cache"
	errs "github.com/matzehuels/pkgmirror/pkg/errors"
	"github.com/matzehuels/pkgmirror/pkg/integrations/pypi"
	"github.com/matzehuels/pkgmirror/pkg/metadata"
	"github.com/matzehuels/pkgmirror/pkg/selector"
)

// Config holds settings shared by the mirror commands. Values are layered:
// defaults, then the TOML config file, then .env and PKGMIRROR_*
// environment variables, then command-line flags.
type Config struct {
	Path         string   `toml:"path"`
	IndexURLs    []string `toml:"index_urls"`
	FindLinks    []string `toml:"find_links"`
	SourceOnly   bool     `toml:"source_only"`
	DevelopOK    bool     `toml:"develop_ok"`
	Interpreter  string   `toml:"interpreter"`
	SetupTimeout duration `toml:"setup_timeout"`
	CacheTTL     duration `toml:"cache_ttl"`
	Workers      int      `toml:"workers"`
}

// duration lets TOML files spell durations as "30s" or "1h".
type duration struct{ time.Duration }

func (d *duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func defaultConfig() Config {
	return Config{
		Path:         ".",
		SourceOnly:   true,
		Interpreter:  metadata.DefaultInterpreter,
		SetupTimeout: duration{metadata.DefaultTimeout},
		CacheTTL:     duration{cache.TTLIndexPage},
		Workers:      4,
	}
}

// Policy returns the selection policy the config describes.
func (c Config) Policy() selector.Policy {
	return selector.Policy{SourceOnly: c.SourceOnly, DevelopOK: c.DevelopOK}
}

// Indexes returns the configured index URLs, or the public index when
// neither index URLs nor find-links directories are configured.
func (c Config) Indexes() []string {
	if len(c.IndexURLs) == 0 && len(c.FindLinks) == 0 {
		return []string{pypi.DefaultIndexURL}
	}
	return c.IndexURLs
}

// loadConfig reads the config file at path. An empty path means the
// default location, which may be absent; an explicit path must exist.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	explicit := path != ""
	if !explicit {
		dir, err := configDir()
		if err == nil {
			path = filepath.Join(dir, "config.toml")
		}
	}
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		switch {
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		case errors.Is(err, fs.ErrNotExist):
			return cfg, errs.Wrap(errs.ErrCodeFileNotFound, err, "config file %s", path)
		case err != nil:
			return cfg, errs.Wrap(errs.ErrCodeInvalidConfig, err, "config file %s", path)
		default:
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				return cfg, errs.New(errs.ErrCodeInvalidConfig, "config file %s: unknown key %q", path, undecoded[0].String())
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, errs.Wrap(errs.ErrCodeInvalidConfig, err, "load .env")
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(envPrefix + "PATH"); ok && v != "" {
		c.Path = v
	}
	if v, ok := lookup(envPrefix + "INDEX_URL"); ok && v != "" {
		c.IndexURLs = splitList(v)
	}
	if v, ok := lookup(envPrefix + "FIND_LINKS"); ok && v != "" {
		c.FindLinks = splitList(v)
	}
	if v, ok := lookup(envPrefix + "PYTHON"); ok && v != "" {
		c.Interpreter = v
	}
	if v, ok := lookup(envPrefix + "SETUP_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errs.Wrap(errs.ErrCodeInvalidConfig, err, "%sSETUP_TIMEOUT", envPrefix)
		}
		c.SetupTimeout.Duration = d
	}
	if v, ok := lookup(envPrefix + "WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errs.Wrap(errs.ErrCodeInvalidConfig, err, "%sWORKERS", envPrefix)
		}
		c.Workers = n
	}
	return nil
}

// validate checks the final, fully layered config.
func (c Config) validate() error {
	for _, u := range c.IndexURLs {
		if err := errs.ValidateURL(u); err != nil {
			return errs.Wrap(errs.ErrCodeInvalidConfig, err, "index url %q", u)
		}
	}
	if c.Path == "" {
		return errs.New(errs.ErrCodeInvalidConfig, "mirror path cannot be empty")
	}
	if c.Interpreter == "" {
		return errs.New(errs.ErrCodeInvalidConfig, "interpreter cannot be empty")
	}
	if c.SetupTimeout.Duration <= 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "setup timeout must be positive")
	}
	if c.Workers < 1 {
		return errs.New(errs.ErrCodeInvalidConfig, "workers must be at least 1")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
