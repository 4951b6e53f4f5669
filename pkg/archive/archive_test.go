package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/klauspost/compress/gzip"
)

const (
	text1 = "This is the first line of text file 1.\nThis is the second line of text file 1.\n"
	text2 = "This is the first line of text file 2.\nThis is the second line of text file 2.\n"
)

type member struct {
	name string
	body string
}

var fixtureFiles = []member{
	{"archive/1.txt", text1},
	{"archive/folder/2.txt", text2},
}

func writeZip(t *testing.T, path string, members []member) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, m := range members {
		w, err := zw.Create(m.name)
		if err != nil {
			t.Fatalf("create %s: %v", m.name, err)
		}
		if _, err := w.Write([]byte(m.body)); err != nil {
			t.Fatalf("write %s: %v", m.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func tarBytes(t *testing.T, members []member) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, m := range members {
		hdr := &tar.Header{Name: m.name, Mode: 0o644, Size: int64(len(m.body)), Typeflag: tar.TypeReg}
		if IsDir(m.name) {
			hdr = &tar.Header{Name: m.name, Mode: 0o755, Typeflag: tar.TypeDir}
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("header %s: %v", m.name, err)
		}
		if _, err := tw.Write([]byte(m.body)); err != nil {
			t.Fatalf("write %s: %v", m.name, err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	return buf.Bytes()
}

func writeTar(t *testing.T, path string, members []member) string {
	t.Helper()
	if err := os.WriteFile(path, tarBytes(t, members), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeTarGz(t *testing.T, path string, members []member) string {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(tarBytes(t, members)); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// fixtures returns one archive per supported compression, all holding
// fixtureFiles without explicit directory entries.
func fixtures(t *testing.T) map[string]string {
	dir := t.TempDir()
	return map[string]string{
		"zip":     writeZip(t, filepath.Join(dir, "archive.zip"), fixtureFiles),
		"tar":     writeTar(t, filepath.Join(dir, "archive.tar"), fixtureFiles),
		"tar.gz":  writeTarGz(t, filepath.Join(dir, "archive.tar.gz"), fixtureFiles),
		"tar.bz2": filepath.Join("testdata", "archive.tar.bz2"),
	}
}

func openT(t *testing.T, path string) Reader {
	t.Helper()
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open(%s): %v", path, err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestNames(t *testing.T) {
	want := map[string][]string{
		// zip synthesizes the missing parents and sorts
		"zip":     {"archive/", "archive/1.txt", "archive/folder/", "archive/folder/2.txt"},
		"tar":     {"archive/1.txt", "archive/folder/2.txt"},
		"tar.gz":  {"archive/1.txt", "archive/folder/2.txt"},
		"tar.bz2": {"archive/1.txt", "archive/folder/2.txt"},
	}
	for kind, path := range fixtures(t) {
		t.Run(kind, func(t *testing.T) {
			got, err := openT(t, path).Names()
			if err != nil {
				t.Fatalf("Names: %v", err)
			}
			if !slices.Equal(got, want[kind]) {
				t.Errorf("Names() = %v, want %v", got, want[kind])
			}
		})
	}
}

func TestNamesZipDeclaredOrder(t *testing.T) {
	path := writeZip(t, filepath.Join(t.TempDir(), "ordered.zip"), []member{
		{"pkg/", ""},
		{"pkg/z.txt", "z"},
		{"pkg/a.txt", "a"},
	})
	got, err := openT(t, path).Names()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"pkg/", "pkg/z.txt", "pkg/a.txt"}
	if !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestNamesTarDirectorySuffix(t *testing.T) {
	path := writeTar(t, filepath.Join(t.TempDir(), "dirs.tar"), []member{
		{"pkg/", ""},
		{"pkg/setup.py", "print('x')\n"},
	})
	got, err := openT(t, path).Names()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"pkg/", "pkg/setup.py"}
	if !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestLines(t *testing.T) {
	want := []string{
		"This is the first line of text file 2.",
		"This is the second line of text file 2.",
	}
	for kind, path := range fixtures(t) {
		t.Run(kind, func(t *testing.T) {
			got, err := openT(t, path).Lines("archive/folder/2.txt")
			if err != nil {
				t.Fatalf("Lines: %v", err)
			}
			if !slices.Equal(got, want) {
				t.Errorf("Lines() = %q, want %q", got, want)
			}
		})
	}
}

func TestLinesTerminators(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"empty", "", []string{}},
		{"no trailing newline", "a\nb", []string{"a", "b"}},
		{"crlf", "a\r\nb\r\n", []string{"a", "b"}},
		{"cr", "a\rb\r", []string{"a", "b"}},
		{"blank line kept", "a\n\nb\n", []string{"a", "", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := splitLines([]byte(tt.body)); !slices.Equal(got, tt.want) {
				t.Errorf("splitLines(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}

func TestExtract(t *testing.T) {
	for kind, path := range fixtures(t) {
		t.Run(kind, func(t *testing.T) {
			r := openT(t, path)
			dest := t.TempDir()

			for i := 0; i < 2; i++ {
				out, err := r.Extract("archive/1.txt", dest)
				if err != nil {
					t.Fatalf("Extract #%d: %v", i, err)
				}
				if want := filepath.Join(dest, "archive", "1.txt"); out != want {
					t.Errorf("Extract path = %s, want %s", out, want)
				}
				data, err := os.ReadFile(out)
				if err != nil {
					t.Fatal(err)
				}
				if string(data) != text1 {
					t.Errorf("extracted content = %q, want %q", data, text1)
				}
			}
		})
	}
}

func TestExtractDirectory(t *testing.T) {
	path := fixtures(t)["zip"]
	r := openT(t, path)
	dest := t.TempDir()

	out, err := r.Extract("archive/folder/", dest)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	info, err := os.Stat(out)
	if err != nil {
		t.Fatal(err)
	}
	if !info.IsDir() {
		t.Errorf("%s is not a directory", out)
	}
}

func TestMemberNotFound(t *testing.T) {
	for kind, path := range fixtures(t) {
		t.Run(kind, func(t *testing.T) {
			r := openT(t, path)
			if _, err := r.Lines("archive/missing.txt"); !errors.Is(err, ErrMemberNotFound) {
				t.Errorf("Lines error = %v, want ErrMemberNotFound", err)
			}
			if _, err := r.Extract("archive/missing.txt", t.TempDir()); !errors.Is(err, ErrMemberNotFound) {
				t.Errorf("Extract error = %v, want ErrMemberNotFound", err)
			}
		})
	}
}

func TestClosed(t *testing.T) {
	for kind, path := range fixtures(t) {
		t.Run(kind, func(t *testing.T) {
			r, err := Open(path)
			if err != nil {
				t.Fatal(err)
			}
			if err := r.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}
			if err := r.Close(); err != nil {
				t.Errorf("second Close: %v", err)
			}
			if _, err := r.Names(); !errors.Is(err, ErrClosed) {
				t.Errorf("Names error = %v, want ErrClosed", err)
			}
			if _, err := r.Lines("archive/1.txt"); !errors.Is(err, ErrClosed) {
				t.Errorf("Lines error = %v, want ErrClosed", err)
			}
			if _, err := r.Extract("archive/1.txt", t.TempDir()); !errors.Is(err, ErrClosed) {
				t.Errorf("Extract error = %v, want ErrClosed", err)
			}
			if r.Path() != path {
				t.Errorf("Path() = %s, want %s", r.Path(), path)
			}
		})
	}
}

func TestExtractUnsafe(t *testing.T) {
	dir := t.TempDir()
	evil := []member{{"../evil.txt", "pwned"}, {"/abs.txt", "pwned"}}
	paths := map[string]string{
		"zip": writeZip(t, filepath.Join(dir, "evil.zip"), evil),
		"tar": writeTar(t, filepath.Join(dir, "evil.tar"), evil),
	}
	for kind, path := range paths {
		t.Run(kind, func(t *testing.T) {
			r := openT(t, path)
			dest := filepath.Join(t.TempDir(), "out")
			for _, m := range evil {
				if _, err := r.Extract(m.name, dest); !errors.Is(err, ErrUnsafeMemberName) {
					t.Errorf("Extract(%q) error = %v, want ErrUnsafeMemberName", m.name, err)
				}
			}
			if _, err := os.Stat(filepath.Join(filepath.Dir(dest), "evil.txt")); !os.IsNotExist(err) {
				t.Errorf("evil.txt was written outside the destination")
			}
		})
	}
}

func TestExtractTarSymlink(t *testing.T) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	if err := tw.WriteHeader(&tar.Header{Name: "pkg/link", Linkname: "/etc/passwd", Typeflag: tar.TypeSymlink}); err != nil {
		t.Fatal(err)
	}
	tw.Close()
	path := filepath.Join(t.TempDir(), "link.tar")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	r := openT(t, path)
	if _, err := r.Extract("pkg/link", t.TempDir()); !errors.Is(err, ErrUnsafeMemberName) || !errors.Is(err, ErrLinkMember) {
		t.Errorf("Extract symlink error = %v, want ErrUnsafeMemberName", err)
	}
}

func TestCheckMemberName(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"pkg/setup.py", true},
		{"pkg/", true},
		{"pkg/..data/x", true},
		{"", false},
		{"../x", false},
		{"pkg/../../x", false},
		{"/etc/passwd", false},
		{`pkg\..\x`, false},
		{"pkg/\x00", false},
	}
	for _, tt := range tests {
		err := checkMemberName(tt.name)
		if (err == nil) != tt.ok {
			t.Errorf("checkMemberName(%q) = %v, want ok=%v", tt.name, err, tt.ok)
		}
	}
}

func TestIdentifyCompression(t *testing.T) {
	dir := t.TempDir()
	files := []member{{name: "pkg/PKG-INFO", body: "Name: pkg\n"}}
	bz2, err := os.ReadFile(filepath.Join("testdata", "archive.tar.bz2"))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		data       []byte
		compressed bool
	}{
		{"plain", tarBytes(t, files), false},
		{"gzip", mustRead(t, writeTarGz(t, filepath.Join(dir, "a.tgz"), files)), true},
		{"bzip2", bz2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, err := identifyCompression(bytes.NewReader(tt.data))
			if err != nil {
				t.Fatal(err)
			}
			if (dec != nil) != tt.compressed {
				t.Errorf("decompressor = %T, compressed = %v", dec, tt.compressed)
			}
		})
	}
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}
