// Package findlinks exposes a local directory of distributions as an index.
//
// The directory is listed on every query; nothing is cached. Files are
// recognized by name:
//
//   - archives, wheels, eggs and installers whose names parse are returned
//     when their key matches the query
//   - archives whose names do not parse are returned with an empty key and
//     version, for the mirror builder to inspect
//   - "*.egg-info" directories holding a PKG-INFO file are development
//     checkouts and are returned as dist.Develop
//
// Hidden entries and everything else are ignored.
package findlinks

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pkgmirror/pkg/archive"
	"github.com/matzehuels/pkgmirror/pkg/dist"
	errs "github.com/matzehuels/pkgmirror/pkg/errors"
	"github.com/matzehuels/pkgmirror/pkg/metadata"
)

// Source lists distributions found in one directory.
type Source struct {
	dir    string
	Logger *log.Logger
}

// New returns a Source for dir, which must be an existing directory.
func New(dir string) (*Source, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidPath, err, "find-links directory %s", dir)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "find-links directory %s", dir)
	}
	if !info.IsDir() {
		return nil, errs.New(errs.ErrCodeInvalidPath, "find-links path %s is not a directory", dir)
	}
	return &Source{dir: abs}, nil
}

// Name returns the absolute directory path.
func (s *Source) Name() string { return s.dir }

// FindCandidates lists the distributions in the directory that may belong
// to the project with the given key, in directory order.
func (s *Source) FindCandidates(ctx context.Context, key string) ([]dist.Distribution, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	key = dist.NormalizeName(key)

	var out []dist.Distribution
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(s.dir, name)

		if e.IsDir() {
			if d, ok := s.develop(path); ok && d.Key == key {
				out = append(out, d)
			}
			continue
		}

		if d, ok := dist.ParseFilename(name, path); ok {
			if d.Key == key {
				out = append(out, d)
			}
			continue
		}
		if archive.Supported(path) {
			s.logger().Debug("unrecognized archive name", "path", path)
			out = append(out, dist.Distribution{Precedence: dist.Source, Location: path})
		}
	}
	return out, nil
}

// develop reads name and version from an egg-info directory.
func (s *Source) develop(path string) (dist.Distribution, bool) {
	if !strings.HasSuffix(path, ".egg-info") {
		return dist.Distribution{}, false
	}
	data, err := os.ReadFile(filepath.Join(path, "PKG-INFO"))
	if err != nil {
		s.logger().Debug("egg-info without PKG-INFO", "path", path, "error", err)
		return dist.Distribution{}, false
	}
	md := metadata.ParsePKGInfo(strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n"))
	if !md.Found() {
		return dist.Distribution{}, false
	}
	return dist.Distribution{
		Key:        dist.NormalizeName(md.Name),
		Name:       md.Name,
		Version:    md.Version,
		Precedence: dist.Develop,
		Location:   path,
	}, true
}

func (s *Source) logger() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log.New(io.Discard)
}
