package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrClosed is returned by every Reader operation after Close.
	ErrClosed = errors.New("archive closed")

	// ErrMemberNotFound is returned when a requested member name is absent.
	ErrMemberNotFound = errors.New("archive member not found")

	// ErrUnsupported is returned by Open for file names with an unknown suffix.
	ErrUnsupported = errors.New("unsupported archive")

	// ErrUnsafeMemberName is returned when a member name would be written
	// outside the extraction directory.
	ErrUnsafeMemberName = errors.New("unsafe archive member name")

	// ErrLinkMember is returned when extracting a symlink or hard link
	// member. Links are never written; the error also matches
	// ErrUnsafeMemberName.
	ErrLinkMember = fmt.Errorf("%w: link member", ErrUnsafeMemberName)
)

// Kind identifies the container format of an archive.
type Kind int

const (
	KindUnknown Kind = iota
	KindZip
	KindTar
)

// String returns the human-readable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindZip:
		return "zip"
	case KindTar:
		return "tar"
	default:
		return "unknown"
	}
}

// Reader is a read-only view over a single open archive file.
//
// A Reader owns the underlying file descriptor until Close. Readers are not
// safe for concurrent use; each inspection should open its own.
type Reader interface {
	// Names returns the member names. Directory members end with "/".
	Names() ([]string, error)

	// Lines reads a member fully and returns its text lines without
	// line terminators.
	Lines(name string) ([]string, error)

	// Extract writes a member below dir and returns the absolute path
	// written. Directory members are created; repeated calls overwrite
	// the previous result with identical content.
	Extract(name, dir string) (string, error)

	// Close releases the underlying file. It is idempotent.
	Close() error

	// Path returns the archive file path the reader was opened with.
	Path() string

	// Kind returns the container format.
	Kind() Kind
}

// IsDir reports whether a member name denotes a directory.
func IsDir(name string) bool {
	return strings.HasSuffix(name, "/")
}

// checkMemberName rejects names that could escape the extraction directory:
// absolute paths, ".." segments, backslashes and NUL bytes.
func checkMemberName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty name", ErrUnsafeMemberName)
	case strings.ContainsAny(name, "\\\x00"):
		return fmt.Errorf("%w: %q", ErrUnsafeMemberName, name)
	case strings.HasPrefix(name, "/"), filepath.IsAbs(name), filepath.VolumeName(name) != "":
		return fmt.Errorf("%w: absolute path %q", ErrUnsafeMemberName, name)
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return fmt.Errorf("%w: path traversal in %q", ErrUnsafeMemberName, name)
		}
	}
	return nil
}

// destination resolves where a member is written below dir.
func destination(name, dir string) (string, error) {
	if err := checkMemberName(name); err != nil {
		return "", err
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	target := filepath.Join(root, filepath.FromSlash(name))
	if target != root && !strings.HasPrefix(target, root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q escapes %s", ErrUnsafeMemberName, name, root)
	}
	return target, nil
}

// writeMember creates target (a directory when isDir) or writes data to it,
// creating parent directories as needed.
func writeMember(target string, isDir bool, data []byte) (string, error) {
	if isDir {
		if err := os.MkdirAll(target, 0o755); err != nil {
			return "", err
		}
		return target, nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", err
	}
	return target, nil
}

// splitLines decodes member bytes as text and splits them on line
// boundaries (\n, \r\n and \r), dropping the terminators.
func splitLines(data []byte) []string {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	if text == "" {
		return []string{}
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
