package metadata

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pkgmirror/pkg/archive"
	"github.com/matzehuels/pkgmirror/pkg/observability"
)

const (
	// DefaultInterpreter runs setup.py when none is configured.
	DefaultInterpreter = "python3"

	// DefaultTimeout bounds a single setup.py invocation.
	DefaultTimeout = 30 * time.Second

	// waitDelay is how long to wait for output pipes after the process is
	// killed before giving up on them.
	waitDelay = 2 * time.Second
)

// Inspection methods reported to observability hooks.
const (
	MethodPKGInfo = "pkg-info"
	MethodSetupPy = "setup.py"
)

// Extractor recovers metadata from archives. The zero value is usable.
type Extractor struct {
	// Interpreter runs setup.py. Defaults to DefaultInterpreter.
	Interpreter string

	// Timeout bounds the setup.py subprocess. Defaults to DefaultTimeout.
	Timeout time.Duration

	// TempDir is where private extraction directories are created.
	// Defaults to os.TempDir().
	TempDir string

	// Logger receives debug output. Nil discards it.
	Logger *log.Logger
}

// ExtractNameVersion recovers (name, version) from the archive at p.
//
// Files that are not recognized archives, cannot be opened or carry no
// usable metadata yield the absent Metadata and a nil error. An error is
// returned only for unsafe member names and closed readers.
func (e *Extractor) ExtractNameVersion(ctx context.Context, p string) (Metadata, error) {
	if !archive.Supported(p) {
		return Metadata{}, nil
	}

	start := time.Now()
	hooks := observability.Inspect()
	hooks.OnInspectStart(ctx, p)

	md, method, err := e.extract(ctx, p)
	hooks.OnInspectComplete(ctx, p, method, md.Found(), time.Since(start), err)
	return md, err
}

func (e *Extractor) extract(ctx context.Context, p string) (Metadata, string, error) {
	logger := e.logger()

	r, err := archive.Open(p)
	if err != nil {
		logger.Debug("cannot open archive", "path", p, "error", err)
		return Metadata{}, "", nil
	}
	defer r.Close()

	names, err := r.Names()
	if err != nil {
		return Metadata{}, "", fatal(err)
	}

	if member, ok := findMember(names, "PKG-INFO", true); ok {
		lines, err := r.Lines(member)
		if err != nil {
			if ferr := fatal(err); ferr != nil {
				return Metadata{}, "", ferr
			}
			logger.Debug("cannot read PKG-INFO", "path", p, "error", err)
		} else if md := ParsePKGInfo(lines); md.Found() {
			return md, MethodPKGInfo, nil
		}
	}

	if member, ok := findMember(names, "setup.py", false); ok {
		md, err := e.runSetup(ctx, r, names, member)
		if err != nil {
			return Metadata{}, "", err
		}
		if md.Found() {
			return md, MethodSetupPy, nil
		}
	}
	return Metadata{}, "", nil
}

// fatal filters the errors that must reach the caller; everything else is
// a best-effort failure.
func fatal(err error) error {
	if errors.Is(err, archive.ErrUnsafeMemberName) || errors.Is(err, archive.ErrClosed) {
		return err
	}
	return nil
}

// findMember returns the first member named base inside one top-level
// directory ("pkg-1.0/PKG-INFO"), or named exactly base when bare is set.
func findMember(names []string, base string, bare bool) (string, bool) {
	for _, name := range names {
		if bare && name == base {
			return name, true
		}
		dir, file, ok := strings.Cut(name, "/")
		if ok && dir != "" && file == base {
			return name, true
		}
	}
	return "", false
}

// runSetup extracts setup.py, plus whatever else of its package directory
// can be written safely, into a private temporary directory and runs
// "setup.py --name --version" there. Link members next to setup.py are
// skipped; an unsafe setup.py or an escaping member name is an error.
func (e *Extractor) runSetup(ctx context.Context, r archive.Reader, names []string, member string) (Metadata, error) {
	logger := e.logger()

	tmp, err := os.MkdirTemp(e.TempDir, "pkgmirror-setup-*")
	if err != nil {
		logger.Debug("cannot create temp dir", "error", err)
		return Metadata{}, nil
	}
	defer os.RemoveAll(tmp)

	if _, err := r.Extract(member, tmp); err != nil {
		if ferr := fatal(err); ferr != nil {
			return Metadata{}, ferr
		}
		logger.Debug("cannot extract setup.py", "member", member, "error", err)
		return Metadata{}, nil
	}

	pkgDir := path.Dir(member)
	for _, name := range names {
		if name == member || !strings.HasPrefix(name, pkgDir+"/") {
			continue
		}
		_, err := r.Extract(name, tmp)
		switch {
		case err == nil:
		case errors.Is(err, archive.ErrLinkMember):
			logger.Debug("skipping link member", "member", name)
		case fatal(err) != nil:
			return Metadata{}, err
		default:
			logger.Debug("cannot extract member", "member", name, "error", err)
		}
	}

	workDir := filepath.Join(tmp, filepath.FromSlash(pkgDir))
	out, err := e.run(ctx, workDir, tmp)
	if err != nil {
		logger.Debug("setup.py failed", "path", r.Path(), "error", err)
		return Metadata{}, nil
	}
	return parseSetupOutput(out), nil
}

// run executes the interpreter in dir with a scrubbed environment and a
// hard timeout, returning stdout.
func (e *Extractor) run(ctx context.Context, dir, home string) ([]byte, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.interpreter(), "setup.py", "--name", "--version")
	cmd.Dir = dir
	cmd.Env = scrubbedEnv(home)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if stderr.Len() > 0 {
		e.logger().Debug("setup.py stderr", "dir", dir, "output", strings.TrimSpace(stderr.String()))
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return stdout.Bytes(), nil
}

// scrubbedEnv keeps only what an interpreter needs to start.
func scrubbedEnv(home string) []string {
	env := []string{
		"HOME=" + home,
		"TMPDIR=" + home,
		"LANG=C.UTF-8",
		"PYTHONDONTWRITEBYTECODE=1",
		"PYTHONIOENCODING=utf-8",
	}
	if p, ok := os.LookupEnv("PATH"); ok {
		env = append(env, "PATH="+p)
	}
	if root, ok := os.LookupEnv("SYSTEMROOT"); ok {
		env = append(env, "SYSTEMROOT="+root)
	}
	return env
}

// parseSetupOutput expects exactly two non-blank lines: name then version.
func parseSetupOutput(out []byte) Metadata {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(string(out), "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) != 2 {
		return Metadata{}
	}
	return New(lines[0], lines[1])
}

func (e *Extractor) interpreter() string {
	if e.Interpreter != "" {
		return e.Interpreter
	}
	return DefaultInterpreter
}

func (e *Extractor) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.New(io.Discard)
}

// ExtractNameVersion runs a zero-value Extractor.
func ExtractNameVersion(ctx context.Context, p string) (Metadata, error) {
	return (&Extractor{}).ExtractNameVersion(ctx, p)
}
