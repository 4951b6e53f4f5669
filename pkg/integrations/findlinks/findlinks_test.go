package findlinks

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/matzehuels/pkgmirror/pkg/dist"
	errs "github.com/matzehuels/pkgmirror/pkg/errors"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFindCandidates(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "foo-1.0.tar.gz"), "")
	write(t, filepath.Join(dir, "Foo_Bar-2.0.zip"), "")
	write(t, filepath.Join(dir, "foo-1.1-py3-none-any.whl"), "")
	write(t, filepath.Join(dir, "bar-3.0.tar.gz"), "")
	write(t, filepath.Join(dir, "download.tar.bz2"), "")
	write(t, filepath.Join(dir, "notes.txt"), "")
	write(t, filepath.Join(dir, ".hidden-1.0.tar.gz"), "")
	write(t, filepath.Join(dir, "foo.egg-info", "PKG-INFO"), "Metadata-Version: 1.0\r\nName: foo\r\nVersion: 1.2.dev0\r\n")
	write(t, filepath.Join(dir, "broken.egg-info", "README"), "")

	src, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	got, err := src.FindCandidates(context.Background(), "foo")
	if err != nil {
		t.Fatal(err)
	}

	var summary []string
	for _, d := range got {
		summary = append(summary, filepath.Base(d.Location)+"|"+d.Key+"|"+d.Version+"|"+d.Precedence.String())
	}
	want := []string{
		"download.tar.bz2|||source",
		"foo-1.0.tar.gz|foo|1.0|source",
		"foo-1.1-py3-none-any.whl|foo|1.1|binary",
		"foo.egg-info|foo|1.2.dev0|develop",
	}
	if !slices.Equal(summary, want) {
		t.Errorf("FindCandidates() =\n%v\nwant\n%v", summary, want)
	}

	got, _ = src.FindCandidates(context.Background(), "foo.bar")
	if len(got) != 2 || got[0].Key != "foo-bar" || got[1].Key != "" {
		t.Errorf("normalized query returned %+v", got)
	}
	for _, d := range got {
		if _, ok := d.LocalPath(); !ok {
			t.Errorf("%s is not local", d.Location)
		}
	}
}

func TestFindCandidatesCancelled(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "foo-1.0.tar.gz"), "")
	src, _ := New(dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.FindCandidates(ctx, "foo"); err == nil {
		t.Error("FindCandidates() ignored cancelled context")
	}
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "foo-1.0.tar.gz")
	write(t, file, "")

	src, err := New(dir)
	if err != nil || src.Name() != dir {
		t.Errorf("New(%s) = %v, %v", dir, src, err)
	}
	if _, err := New(filepath.Join(dir, "missing")); !errs.Is(err, errs.ErrCodeFileNotFound) {
		t.Errorf("missing dir error = %v", err)
	}
	if _, err := New(file); !errs.Is(err, errs.ErrCodeInvalidPath) {
		t.Errorf("file error = %v", err)
	}
}

var _ interface {
	Name() string
	FindCandidates(context.Context, string) ([]dist.Distribution, error)
} = (*Source)(nil)
