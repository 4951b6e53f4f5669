// Package cli implements the pkgmirror command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgmirror/pkg/buildinfo"
	"github.com/matzehuels/pkgmirror/pkg/cache"
	"github.com/matzehuels/pkgmirror/pkg/observability"
)

const (
	// appName is the application name used for directories and display.
	appName = "pkgmirror"

	// envPrefix prefixes every environment override.
	envPrefix = "PKGMIRROR_"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogWarn  = log.WarnLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	noCache    bool
	hooks      *logHooks
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	logger := newLogger(w, level)
	return &CLI{Logger: logger, hooks: &logHooks{logger: logger}}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "pkgmirror builds local mirrors of Python source distributions",
		Long: `pkgmirror queries package indexes for the distributions matching a set of
requirements, keeps the ones the policy allows (source distributions by
default), and inspects archives to recover their name and version when the
file name does not tell. The result can be fetched into a directory, indexed
as a PEP 503 simple repository, and served to pip.`,
		Version:       buildinfo.Current(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			observability.SetMirrorHooks(c.hooks)
			observability.SetInspectHooks(c.hooks)
			observability.SetCacheHooks(c.hooks)
			observability.SetHTTPHooks(c.hooks)
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/pkgmirror/config.toml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the response and metadata cache")

	root.AddCommand(c.showCommand())
	root.AddCommand(c.fetchCommand())
	root.AddCommand(c.indexCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newCache opens the shared file cache, or a null cache under --no-cache
// or when no cache directory can be determined.
func (c *CLI) newCache() (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		c.Logger.Warn("cache disabled", "error", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir is $XDG_CACHE_HOME/pkgmirror, or ~/.cache/pkgmirror.
func cacheDir() (string, error) { return userDir("XDG_CACHE_HOME", ".cache") }

// configDir is $XDG_CONFIG_HOME/pkgmirror, or ~/.config/pkgmirror.
func configDir() (string, error) { return userDir("XDG_CONFIG_HOME", ".config") }

func userDir(env, fallback string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, appName), nil
}
