package integrations

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/pkgmirror/pkg/cache"
	"github.com/matzehuels/pkgmirror/pkg/httputil"
)

// serve starts h and returns a client wired to it with the server's URL.
func serve(t *testing.T, h http.Handler, headers map[string]string) (*Client, string) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	client := NewClient(nil, "test", time.Hour, headers)
	client.http = srv.Client()
	return client, srv.URL
}

func TestClientCached(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer fc.Close()
	client := NewClient(fc, "test", time.Hour, nil)
	ctx := context.Background()

	type page struct{ Files []string }
	fetches := 0
	fetch := func(v *page) func() error {
		return func() error {
			fetches++
			v.Files = []string{"foo-1.0.tar.gz"}
			return nil
		}
	}

	for range 2 {
		var p page
		if err := client.Cached(ctx, "foo", false, &p, fetch(&p)); err != nil {
			t.Fatal(err)
		}
		if len(p.Files) != 1 {
			t.Errorf("page = %+v", p)
		}
	}
	if fetches != 1 {
		t.Errorf("fetched %d times, want 1", fetches)
	}
	if _, ok, _ := fc.Get(ctx, "http:test:foo"); !ok {
		t.Error("entry not stored under the namespaced key")
	}

	var p page
	if err := client.Cached(ctx, "foo", true, &p, fetch(&p)); err != nil {
		t.Fatal(err)
	}
	if fetches != 2 {
		t.Error("refresh did not bypass the cache")
	}
}

func TestClientCachedErrorNotStored(t *testing.T) {
	fc, _ := cache.NewFileCache(t.TempDir())
	defer fc.Close()
	client := NewClient(fc, "test", time.Hour, nil)

	var v string
	err := client.Cached(context.Background(), "gone", false, &v, func() error { return ErrNotFound })
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Cached() = %v, want ErrNotFound", err)
	}
	if _, ok, _ := fc.Get(context.Background(), "http:test:gone"); ok {
		t.Error("failed fetch was cached")
	}
}

func TestClientNilCache(t *testing.T) {
	client := NewClient(nil, "test", time.Hour, nil)
	calls := 0
	var v string
	for range 2 {
		if err := client.Cached(context.Background(), "k", false, &v, func() error { calls++; v = "x"; return nil }); err != nil {
			t.Fatal(err)
		}
	}
	if calls != 2 {
		t.Errorf("nil cache stored a value: %d fetches", calls)
	}
}

func TestClientHeaders(t *testing.T) {
	var got http.Header
	client, url := serve(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}), map[string]string{"Accept": "text/html", "X-Mirror": "a"})

	if _, err := client.GetDocument(context.Background(), url, map[string]string{"Accept": "application/json"}); err != nil {
		t.Fatal(err)
	}
	if got.Get("Accept") != "application/json" || got.Get("X-Mirror") != "a" {
		t.Errorf("headers = %v", got)
	}
	if !strings.HasPrefix(got.Get("User-Agent"), "pkgmirror/") {
		t.Errorf("User-Agent = %q", got.Get("User-Agent"))
	}
}

func TestClientGetDocumentFollowsRedirects(t *testing.T) {
	client, url := serve(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/simple/Foo/" {
			http.Redirect(w, r, "/simple/foo/", http.StatusMovedPermanently)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html></html>"))
	}), nil)

	doc, err := client.GetDocument(context.Background(), url+"/simple/Foo/", nil)
	if err != nil {
		t.Fatal(err)
	}
	if doc.URL != url+"/simple/foo/" {
		t.Errorf("URL = %q, want the redirect target", doc.URL)
	}
	if doc.ContentType != "text/html" || string(doc.Body) != "<html></html>" {
		t.Errorf("doc = %+v", doc)
	}
}

func TestClientStatusErrors(t *testing.T) {
	tests := []struct {
		status    int
		sentinel  error
		retryable bool
	}{
		{http.StatusNotFound, ErrNotFound, false},
		{http.StatusForbidden, ErrNetwork, false},
		{http.StatusBadRequest, ErrNetwork, false},
		{http.StatusTooManyRequests, ErrNetwork, true},
		{http.StatusInternalServerError, ErrNetwork, true},
		{http.StatusServiceUnavailable, ErrNetwork, true},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			client, url := serve(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "7")
				w.WriteHeader(tt.status)
			}), nil)

			_, err := client.GetDocument(context.Background(), url, nil)
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("error = %v, want %v", err, tt.sentinel)
			}
			var re *httputil.RetryableError
			if errors.As(err, &re) != tt.retryable {
				t.Fatalf("retryable = %v, want %v", !tt.retryable, tt.retryable)
			}
			if tt.retryable && re.After != 7*time.Second {
				t.Errorf("After = %v, want 7s from Retry-After", re.After)
			}
		})
	}

	if err := checkStatus(http.StatusOK); err != nil {
		t.Errorf("checkStatus(200) = %v", err)
	}
}

func TestClientCachedRetries(t *testing.T) {
	var hits atomic.Int32
	client, url := serve(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}), nil)

	var body string
	err := client.Cached(context.Background(), "page", false, &body, func() error {
		doc, err := client.GetDocument(context.Background(), url, nil)
		body = string(doc.Body)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if body != "ok" || hits.Load() != 2 {
		t.Errorf("body = %q after %d requests", body, hits.Load())
	}
}

func TestClientDownload(t *testing.T) {
	payload := []byte("archive bytes")
	sum := sha256.Sum256(payload)
	digest := hex.EncodeToString(sum[:])

	client, url := serve(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Fragment != "" {
			t.Errorf("fragment sent to server: %q", r.URL.Fragment)
		}
		w.Write(payload)
	}), nil)
	dir := t.TempDir()

	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{"no digest", url + "/foo-1.0.tar.gz", nil},
		{"matching digest", url + "/foo-1.0.tar.gz#sha256=" + digest, nil},
		{"upper-case digest", url + "/foo-1.0.tar.gz#sha256=" + strings.ToUpper(digest), nil},
		{"mismatch", url + "/foo-1.0.tar.gz#sha256=" + strings.Repeat("0", 64), ErrChecksum},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest := filepath.Join(dir, tt.name, "foo-1.0.tar.gz")
			err := client.Download(context.Background(), tt.url, dest)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Download() error = %v, want %v", err, tt.wantErr)
				}
				if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
					t.Error("failed download left a file behind")
				}
				return
			}
			if err != nil {
				t.Fatalf("Download() error: %v", err)
			}
			if got, _ := os.ReadFile(dest); string(got) != string(payload) {
				t.Errorf("content = %q", got)
			}
			if entries, _ := os.ReadDir(filepath.Dir(dest)); len(entries) != 1 {
				t.Errorf("temp files left behind: %v", entries)
			}
		})
	}
}

func TestClientDownloadNotFound(t *testing.T) {
	client, url := serve(t, http.NotFoundHandler(), nil)
	err := client.Download(context.Background(), url+"/missing.zip", filepath.Join(t.TempDir(), "missing.zip"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Download() error = %v, want ErrNotFound", err)
	}
}
