package integrations

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/matzehuels/pkgmirror/pkg/buildinfo"
	"github.com/matzehuels/pkgmirror/pkg/cache"
	"github.com/matzehuels/pkgmirror/pkg/httputil"
	"github.com/matzehuels/pkgmirror/pkg/observability"
)

// Client is the HTTP side of an index source: cached JSON documents,
// retried fetches, whole-body reads and verified downloads.
type Client struct {
	http      *http.Client
	cache     cache.Cache
	keyer     cache.Keyer
	namespace string
	ttl       time.Duration
	headers   map[string]string
}

// NewClient creates a Client that caches documents in c under namespace for
// ttl. A nil cache disables caching. Headers are applied to all requests;
// pass nil if no default headers are needed.
func NewClient(c cache.Cache, namespace string, ttl time.Duration, headers map[string]string) *Client {
	if c == nil {
		c = cache.NullCache{}
	}
	return &Client{
		http:      NewHTTPClient(),
		cache:     c,
		keyer:     cache.NewDefaultKeyer(),
		namespace: namespace,
		ttl:       ttl,
		headers:   headers,
	}
}

// Cached retrieves a value from cache or executes fetch and caches the result.
// If refresh is true, the cache is bypassed and fetch is always called.
// The fetch function should populate v; on success, v is stored as JSON.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) error {
	ck := c.keyer.HTTPKey(c.namespace, key)
	hooks := observability.Cache()
	if !refresh {
		if data, ok, _ := c.cache.Get(ctx, ck); ok && json.Unmarshal(data, v) == nil {
			hooks.OnCacheHit(ctx, "http")
			return nil
		}
		hooks.OnCacheMiss(ctx, "http")
	}
	if err := httputil.RetryWithBackoff(ctx, fetch); err != nil {
		return err
	}
	if data, err := json.Marshal(v); err == nil {
		if c.cache.Set(ctx, ck, data, c.ttl) == nil {
			hooks.OnCacheSet(ctx, "http", len(data))
		}
	}
	return nil
}

// Document is a fetched response body with the URL it was finally served
// from, after redirects.
type Document struct {
	URL         string
	ContentType string
	Body        []byte
}

// GetDocument performs an HTTP GET and reads the whole body.
func (c *Client) GetDocument(ctx context.Context, url string, headers map[string]string) (Document, error) {
	resp, err := c.doRequest(ctx, url, headers)
	if err != nil {
		return Document{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Document{}, &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	return Document{
		URL:         resp.Request.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// Download fetches rawURL into dest. The file is written next to dest and
// renamed into place once complete. When the URL carries a
// "#sha256=<hex>" fragment the content is verified first and a mismatch
// is reported as ErrChecksum.
func (c *Client) Download(ctx context.Context, rawURL, dest string) error {
	want := ""
	if u, err := url.Parse(rawURL); err == nil {
		if sum, ok := strings.CutPrefix(u.Fragment, "sha256="); ok {
			want = strings.ToLower(sum)
		}
		u.Fragment = ""
		rawURL = u.String()
	}

	return httputil.RetryWithBackoff(ctx, func() error {
		resp, err := c.doRequest(ctx, rawURL, nil)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
		if err != nil {
			return err
		}
		defer os.Remove(tmp.Name())

		h := sha256.New()
		if _, err := io.Copy(io.MultiWriter(tmp, h), resp.Body); err != nil {
			tmp.Close()
			return &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
		}
		if err := tmp.Close(); err != nil {
			return err
		}
		if got := hex.EncodeToString(h.Sum(nil)); want != "" && got != want {
			return fmt.Errorf("%w: %s: got %s, want %s", ErrChecksum, filepath.Base(dest), got, want)
		}
		return os.Rename(tmp.Name(), dest)
	})
}

func (c *Client) doRequest(ctx context.Context, rawURL string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		resp.Body.Close()
		var re *httputil.RetryableError
		if errors.As(err, &re) {
			re.After = httputil.RetryAfter(resp.Header, time.Now())
		}
		return nil, err
	}
	return resp, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusTooManyRequests || code >= 500:
		return &httputil.RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, code)}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
