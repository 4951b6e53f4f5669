// Package simpleindex writes a PEP 503 "simple" index for a directory of
// distributions, so the directory can be served to pip as
// --index-url <base>/simple/.
//
// The layout is:
//
//	<dir>/foo-1.0.tar.gz
//	<dir>/simple/index.html        one link per project
//	<dir>/simple/foo/index.html    one link per file, "../../<file>#sha256=<hex>"
//
// Project keys come from the file names. Archives whose names cannot be
// parsed are inspected for PKG-INFO or setup.py metadata; files that yield
// nothing are left out of the index.
package simpleindex

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"html/template"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pkgmirror/pkg/archive"
	"github.com/matzehuels/pkgmirror/pkg/dist"
	errs "github.com/matzehuels/pkgmirror/pkg/errors"
	"github.com/matzehuels/pkgmirror/pkg/metadata"
)

// Dirname is the name of the index directory below the mirror root.
const Dirname = "simple"

// File is one distribution file of a project.
type File struct {
	Filename string `json:"filename" yaml:"filename"`
	Version  string `json:"version" yaml:"version"`
	SHA256   string `json:"sha256" yaml:"sha256"`
}

// Href is the link from the project page to the file.
func (f File) Href() string {
	return "../../" + url.PathEscape(f.Filename) + "#sha256=" + f.SHA256
}

// Project groups the files of one normalized project key.
type Project struct {
	Key   string `json:"key" yaml:"key"`
	Name  string `json:"name" yaml:"name"`
	Files []File `json:"files" yaml:"files"`
}

// Indexer builds the index for one directory.
type Indexer struct {
	Dir       string
	Inspector metadata.Inspector // nil skips unparseable archives
	Logger    *log.Logger
}

// New returns an Indexer for dir, which must be an existing directory.
func New(dir string, inspector metadata.Inspector, logger *log.Logger) (*Indexer, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidPath, err, "mirror path %s", dir)
	}
	if !info.IsDir() {
		return nil, errs.New(errs.ErrCodeInvalidPath, "mirror path %s is not a directory", dir)
	}
	return &Indexer{Dir: dir, Inspector: inspector, Logger: logger}, nil
}

// Scan lists the projects found in the directory, sorted by key, with
// files sorted by descending version.
func (ix *Indexer) Scan(ctx context.Context) ([]Project, error) {
	entries, err := os.ReadDir(ix.Dir)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]*Project)
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := e.Name()
		if !e.Type().IsRegular() || strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(ix.Dir, name)

		d, ok := ix.identify(ctx, name, path)
		if !ok {
			continue
		}
		sum, err := sha256File(path)
		if err != nil {
			return nil, err
		}
		p := byKey[d.Key]
		if p == nil {
			p = &Project{Key: d.Key, Name: d.Name}
			byKey[d.Key] = p
		}
		p.Files = append(p.Files, File{Filename: name, Version: d.Version, SHA256: sum})
	}

	projects := make([]Project, 0, len(byKey))
	for _, p := range byKey {
		slices.SortStableFunc(p.Files, func(a, b File) int {
			if c := dist.CompareVersions(b.Version, a.Version); c != 0 {
				return c
			}
			return strings.Compare(a.Filename, b.Filename)
		})
		projects = append(projects, *p)
	}
	slices.SortFunc(projects, func(a, b Project) int { return strings.Compare(a.Key, b.Key) })
	return projects, nil
}

func (ix *Indexer) identify(ctx context.Context, name, path string) (dist.Distribution, bool) {
	if d, ok := dist.ParseFilename(name, path); ok {
		return d, true
	}
	if ix.Inspector == nil || !archive.Supported(path) {
		return dist.Distribution{}, false
	}
	md, err := ix.Inspector.ExtractNameVersion(ctx, path)
	if err != nil {
		ix.logger().Warn("inspection failed", "file", name, "error", err)
		return dist.Distribution{}, false
	}
	if !md.Found() {
		ix.logger().Debug("no metadata found", "file", name)
		return dist.Distribution{}, false
	}
	return dist.Distribution{
		Key:        dist.NormalizeName(md.Name),
		Name:       md.Name,
		Version:    md.Version,
		Precedence: dist.Source,
		Location:   path,
	}, true
}

// Write scans the directory and replaces <dir>/simple with a fresh index.
// The new tree is built beside the old one and swapped in at the end.
func (ix *Indexer) Write(ctx context.Context) ([]Project, error) {
	projects, err := ix.Scan(ctx)
	if err != nil {
		return nil, err
	}

	tmp, err := os.MkdirTemp(ix.Dir, ".simple-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmp)

	if err := render(filepath.Join(tmp, "index.html"), rootTemplate, projects); err != nil {
		return nil, err
	}
	for _, p := range projects {
		if err := os.Mkdir(filepath.Join(tmp, p.Key), 0o755); err != nil {
			return nil, err
		}
		if err := render(filepath.Join(tmp, p.Key, "index.html"), projectTemplate, p); err != nil {
			return nil, err
		}
	}
	if err := os.Chmod(tmp, 0o755); err != nil {
		return nil, err
	}

	target := filepath.Join(ix.Dir, Dirname)
	if err := os.RemoveAll(target); err != nil {
		return nil, err
	}
	if err := os.Rename(tmp, target); err != nil {
		return nil, err
	}
	ix.logger().Info("index written", "path", target, "projects", len(projects))
	return projects, nil
}

func (ix *Indexer) logger() *log.Logger {
	if ix.Logger != nil {
		return ix.Logger
	}
	return log.New(io.Discard)
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

var rootTemplate = template.Must(template.New("root").Parse(`<!DOCTYPE html>
<html>
  <head><meta name="pypi:repository-version" content="1.0"><title>Simple index</title></head>
  <body>
{{- range .}}
    <a href="{{.Key}}/">{{.Name}}</a><br/>
{{- end}}
  </body>
</html>
`))

var projectTemplate = template.Must(template.New("project").Parse(`<!DOCTYPE html>
<html>
  <head><meta name="pypi:repository-version" content="1.0"><title>Links for {{.Name}}</title></head>
  <body>
    <h1>Links for {{.Name}}</h1>
{{- range .Files}}
    <a href="{{.Href}}">{{.Filename}}</a><br/>
{{- end}}
  </body>
</html>
`))

func render(path string, t *template.Template, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := t.Execute(f, data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
