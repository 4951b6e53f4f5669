package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/pkgmirror/pkg/dist"
	errs "github.com/matzehuels/pkgmirror/pkg/errors"
	"github.com/matzehuels/pkgmirror/pkg/integrations"
	"github.com/matzehuels/pkgmirror/pkg/mirror"
	"github.com/matzehuels/pkgmirror/pkg/simpleindex"
)

// fetchCommand creates the fetch command, which downloads the accepted
// distributions into the mirror directory.
func (c *CLI) fetchCommand() *cobra.Command {
	var (
		opts    mirrorOpts
		all     bool
		force   bool
		noIndex bool
	)

	cmd := &cobra.Command{
		Use:   "fetch [requirement...]",
		Short: "Download matching distributions into the mirror directory",
		Long: `Query every configured index for each requirement and download the best
accepted distribution of each (or every accepted one with --all) into the
mirror directory. The simple index is rewritten afterwards unless
--no-index is given.`,
		Example: `  pkgmirror fetch -p ./mirror "requests>=2.31"
  pkgmirror fetch -r requirements.txt --all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, out := cmd.Context(), cmd.OutOrStdout()
			cfg, err := c.config(cmd, &opts)
			if err != nil {
				return err
			}
			report, err := c.build(ctx, cfg, &opts, args)
			if err != nil {
				return err
			}

			targets := fetchTargets(report, all)
			if len(targets) == 0 {
				warn(out, "No distributions accepted")
				return nil
			}

			f := &fetcher{
				dir:     cfg.Path,
				client:  integrations.NewClient(nil, "download", 0, nil),
				force:   force,
				workers: cfg.Workers,
				logger:  loggerFromContext(ctx),
			}
			prog := newProgress(c.Logger)
			fetched, failed := f.fetchAll(ctx, targets)
			if err := ctx.Err(); err != nil {
				return err
			}
			prog.done("Fetched " + plural(len(fetched), "file", "files"))
			for _, p := range fetched {
				fileLine(out, p)
			}

			if !noIndex {
				store, err := c.newCache()
				if err != nil {
					return err
				}
				defer store.Close()
				idx, err := simpleindex.New(cfg.Path, c.newInspector(cfg, store), c.Logger)
				if err != nil {
					return err
				}
				projects, err := idx.Write(ctx)
				if err != nil {
					return err
				}
				success(out, "Indexed %s", plural(len(projects), "project", "projects"))
				nextStep(out, "Serve it", "pkgmirror serve -p "+cfg.Path)
			}

			if failed > 0 {
				return errs.New(errs.ErrCodeNetwork, "%s failed", plural(failed, "download", "downloads"))
			}
			return nil
		},
	}

	opts.registerQuery(cmd)
	opts.registerPath(cmd)
	cmd.Flags().BoolVar(&all, "all", false, "fetch every accepted distribution, not only the best")
	cmd.Flags().BoolVar(&force, "force", false, "download files that already exist")
	cmd.Flags().BoolVar(&noIndex, "no-index", false, "skip rewriting the simple index")
	return cmd
}

// fetchTargets picks the distributions to download: the best accepted
// distribution of each result, or every accepted one. Duplicate file names
// keep the first occurrence; develop and checkout distributions have no
// archive to fetch and are skipped.
func fetchTargets(report *mirror.Report, all bool) []dist.Distribution {
	var out []dist.Distribution
	seen := make(map[string]bool)
	for _, res := range report.Results {
		var archives []dist.Distribution
		for _, d := range res.Accepted {
			if d.Precedence >= dist.Source {
				archives = append(archives, d)
			}
		}
		if !all {
			best, ok := mirror.Best(archives, nil)
			if !ok {
				continue
			}
			archives = []dist.Distribution{best}
		}
		for _, d := range archives {
			name, err := fileName(d)
			if err != nil {
				out = append(out, d) // rejected by fetch
				continue
			}
			if !seen[name] {
				seen[name] = true
				out = append(out, d)
			}
		}
	}
	return out
}

// fileName returns the name d is stored under in the mirror directory.
// Filename already decodes the URL path once; the result must be a single
// plain path element.
func fileName(d dist.Distribution) (string, error) {
	name := d.Filename()
	if err := errs.ValidateFilename(name); err != nil {
		return "", err
	}
	return name, nil
}

type fetcher struct {
	dir     string
	client  *integrations.Client
	force   bool
	workers int
	logger  *log.Logger
}

// fetchAll copies or downloads targets with at most f.workers in flight.
// A failed target is logged and counted; the others still run.
func (f *fetcher) fetchAll(ctx context.Context, targets []dist.Distribution) (fetched []string, failed int) {
	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	g.SetLimit(max(f.workers, 1))
	for _, d := range targets {
		g.Go(func() error {
			dest, err := f.fetch(ctx, d)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				f.logger.Error("fetch failed", "dist", d.String(), "location", d.Location, "error", err)
				failed++
				return nil
			}
			if dest != "" {
				fetched = append(fetched, dest)
			}
			return nil
		})
	}
	_ = g.Wait()
	return fetched, failed
}

// fetch stores d in the mirror directory and returns its path, or "" when
// the file was already present.
func (f *fetcher) fetch(ctx context.Context, d dist.Distribution) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name, err := fileName(d)
	if err != nil {
		return "", err
	}
	dest := filepath.Join(f.dir, name)
	if !f.force {
		if _, err := os.Stat(dest); err == nil {
			f.logger.Debug("already present", "path", dest)
			return "", nil
		}
	}

	if src, ok := d.LocalPath(); ok {
		same, err := samePath(src, dest)
		if err != nil || same {
			return "", err
		}
		f.logger.Debug("copying", "from", src, "to", dest)
		return dest, copyFile(src, dest)
	}
	f.logger.Debug("downloading", "url", d.Location, "to", dest)
	return dest, f.client.Download(ctx, d.Location, dest)
}

func samePath(a, b string) (bool, error) {
	sa, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	sb, err := os.Stat(b)
	if err != nil {
		return false, nil
	}
	return os.SameFile(sa, sb), nil
}

// copyFile copies src to dest through a temporary file in dest's directory.
func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".copy-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}
