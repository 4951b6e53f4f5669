package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgmirror/pkg/cache"
)

func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the index page and metadata cache",
		Long: `Index pages and archive metadata are cached under $XDG_CACHE_HOME/pkgmirror
(~/.cache/pkgmirror when unset). Use --no-cache on any command to bypass it.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove all cached entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("locate cache: %w", err)
			}
			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return err
			}
			defer fc.Close()

			n, err := fc.Clear(cmd.Context())
			out := cmd.OutOrStdout()
			switch {
			case err != nil:
				return fmt.Errorf("clear %s after %s: %w", dir, plural(n, "entry", "entries"), err)
			case n == 0:
				info(out, "Cache is empty")
			default:
				success(out, "Cleared %s", plural(n, "cached entry", "cached entries"))
				detail(out, "Directory: %s", dir)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("locate cache: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), dir)
			return err
		},
	})
	return cmd
}
