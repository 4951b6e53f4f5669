package archive

import (
	"archive/tar"
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mholt/archives"
)

// tarMember is one indexed tar header.
type tarMember struct {
	name     string // normalized: directories end with "/"
	typeflag byte
	pos      int // ordinal of the header in the stream
}

// tarReader implements Reader for plain and compressed (gzip, bzip2, xz,
// ...) tar archives. Tar is a streaming format, so every read rewinds the file and
// scans forward to the requested member.
type tarReader struct {
	path    string
	f       *os.File
	dec     archives.Decompressor // nil for a plain tar
	members []tarMember
	byName  map[string]int // name -> index into members, last occurrence wins
}

// openTar opens the tar archive at p and indexes its headers.
func openTar(p string) (*tarReader, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open tar %s: %w", p, err)
	}
	t := &tarReader{path: p, f: f, byName: make(map[string]int)}
	if err := t.index(); err != nil {
		f.Close()
		return nil, fmt.Errorf("read tar %s: %w", p, err)
	}
	return t, nil
}

// index detects the compression and records every header in stream order.
func (t *tarReader) index() error {
	dec, err := identifyCompression(t.f)
	if err != nil {
		return err
	}
	t.dec = dec

	return t.walk(func(pos int, hdr *tar.Header, _ io.Reader) (bool, error) {
		name := hdr.Name
		if hdr.Typeflag == tar.TypeDir && !IsDir(name) {
			name += "/"
		}
		t.byName[name] = len(t.members)
		t.members = append(t.members, tarMember{name: name, typeflag: hdr.Typeflag, pos: pos})
		return true, nil
	})
}

// walk rewinds the archive and calls fn for each header until fn returns
// false or the stream ends.
func (t *tarReader) walk(fn func(pos int, hdr *tar.Header, body io.Reader) (bool, error)) error {
	if _, err := t.f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	stream, closeStream, err := t.decompress(bufio.NewReader(t.f))
	if err != nil {
		return err
	}
	defer closeStream()

	tr := tar.NewReader(stream)
	for pos := 0; ; pos++ {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		more, err := fn(pos, hdr, tr)
		if err != nil || !more {
			return err
		}
	}
}

func (t *tarReader) decompress(r io.Reader) (io.Reader, func(), error) {
	if t.dec == nil {
		return r, func() {}, nil
	}
	rc, err := t.dec.OpenReader(r)
	if err != nil {
		return nil, nil, err
	}
	return rc, func() { rc.Close() }, nil
}

// identifyCompression sniffs the stream header of r. The caller has already
// chosen tar by file name, so only the compression layer is taken from the
// detected format; an unrecognized stream is read as a plain tar.
func identifyCompression(r io.Reader) (archives.Decompressor, error) {
	format, _, err := archives.Identify(context.Background(), "", r)
	if errors.Is(err, archives.NoMatch) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	switch f := format.(type) {
	case archives.CompressedArchive:
		return f.Compression, nil
	case *archives.CompressedArchive:
		return f.Compression, nil
	case archives.Decompressor:
		return f, nil
	}
	return nil, nil
}

func (t *tarReader) Path() string { return t.path }
func (t *tarReader) Kind() Kind   { return KindTar }

func (t *tarReader) Names() ([]string, error) {
	if t.f == nil {
		return nil, ErrClosed
	}
	names := make([]string, len(t.members))
	for i, m := range t.members {
		names[i] = m.name
	}
	return names, nil
}

func (t *tarReader) Lines(name string) ([]string, error) {
	data, err := t.read(name)
	if err != nil {
		return nil, err
	}
	return splitLines(data), nil
}

func (t *tarReader) Extract(name, dir string) (string, error) {
	if t.f == nil {
		return "", ErrClosed
	}
	m, err := t.member(name)
	if err != nil {
		return "", err
	}
	if m.typeflag == tar.TypeSymlink || m.typeflag == tar.TypeLink {
		return "", fmt.Errorf("%w %q", ErrLinkMember, name)
	}
	target, err := destination(name, dir)
	if err != nil {
		return "", err
	}
	if IsDir(m.name) {
		return writeMember(target, true, nil)
	}
	data, err := t.read(name)
	if err != nil {
		return "", err
	}
	return writeMember(target, false, data)
}

func (t *tarReader) Close() error {
	if t.f == nil {
		return nil
	}
	err := t.f.Close()
	t.f = nil
	return err
}

func (t *tarReader) member(name string) (tarMember, error) {
	i, ok := t.byName[name]
	if !ok {
		return tarMember{}, fmt.Errorf("%w: %s", ErrMemberNotFound, name)
	}
	return t.members[i], nil
}

// read returns the content of a member. Non-regular members read as empty.
func (t *tarReader) read(name string) ([]byte, error) {
	if t.f == nil {
		return nil, ErrClosed
	}
	m, err := t.member(name)
	if err != nil {
		return nil, err
	}
	if m.typeflag != tar.TypeReg && m.typeflag != tar.TypeGNUSparse {
		return nil, nil
	}

	var data []byte
	err = t.walk(func(pos int, _ *tar.Header, body io.Reader) (bool, error) {
		if pos != m.pos {
			return true, nil
		}
		var rerr error
		data, rerr = io.ReadAll(body)
		return false, rerr
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}
