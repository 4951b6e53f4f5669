package archive

import (
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
)

// zipReader implements Reader for zip archives (.zip, .egg).
type zipReader struct {
	path    string
	rc      *zip.ReadCloser
	names   []string
	members map[string]*zip.File // nil value marks a synthesized directory
}

// openZip opens the zip archive at p and indexes its members.
func openZip(p string) (*zipReader, error) {
	rc, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("open zip %s: %w", p, err)
	}
	z := &zipReader{path: p, rc: rc, members: make(map[string]*zip.File, len(rc.File))}
	z.index()
	return z, nil
}

// index records declared members in archive order, then adds any parent
// directory that has no explicit entry. When at least one directory had to
// be synthesized all names are sorted.
func (z *zipReader) index() {
	for _, f := range z.rc.File {
		if _, dup := z.members[f.Name]; dup {
			continue
		}
		z.members[f.Name] = f
		z.names = append(z.names, f.Name)
	}

	synthesized := false
	for _, name := range z.names {
		for dir := parentDir(name); dir != ""; dir = parentDir(dir) {
			if _, ok := z.members[dir]; ok {
				continue
			}
			z.members[dir] = nil
			z.names = append(z.names, dir)
			synthesized = true
		}
	}
	if synthesized {
		sort.Strings(z.names)
	}
}

// parentDir returns the directory entry name ("a/b/") containing name, or ""
// for top-level members.
func parentDir(name string) string {
	dir := path.Dir(strings.TrimSuffix(name, "/"))
	if dir == "." || dir == "/" {
		return ""
	}
	return dir + "/"
}

func (z *zipReader) Path() string { return z.path }
func (z *zipReader) Kind() Kind   { return KindZip }

func (z *zipReader) Names() ([]string, error) {
	if z.rc == nil {
		return nil, ErrClosed
	}
	return append([]string(nil), z.names...), nil
}

func (z *zipReader) Lines(name string) ([]string, error) {
	data, err := z.read(name)
	if err != nil {
		return nil, err
	}
	return splitLines(data), nil
}

func (z *zipReader) Extract(name, dir string) (string, error) {
	if z.rc == nil {
		return "", ErrClosed
	}
	if _, ok := z.members[name]; !ok {
		return "", fmt.Errorf("%w: %s", ErrMemberNotFound, name)
	}
	target, err := destination(name, dir)
	if err != nil {
		return "", err
	}
	if IsDir(name) {
		return writeMember(target, true, nil)
	}
	data, err := z.read(name)
	if err != nil {
		return "", err
	}
	return writeMember(target, false, data)
}

func (z *zipReader) Close() error {
	if z.rc == nil {
		return nil
	}
	err := z.rc.Close()
	z.rc = nil
	return err
}

// read returns the full content of a member. Directories read as empty.
func (z *zipReader) read(name string) ([]byte, error) {
	if z.rc == nil {
		return nil, ErrClosed
	}
	f, ok := z.members[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, name)
	}
	if f == nil || IsDir(name) {
		return nil, nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
