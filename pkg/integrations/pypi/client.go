package pypi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/matzehuels/pkgmirror/pkg/cache"
	"github.com/matzehuels/pkgmirror/pkg/dist"
	errs "github.com/matzehuels/pkgmirror/pkg/errors"
	"github.com/matzehuels/pkgmirror/pkg/integrations"
)

// DefaultIndexURL is the public Python Package Index.
const DefaultIndexURL = "https://pypi.org/simple"

// memoSize bounds the number of project pages kept in memory per client.
const memoSize = 512

// accept prefers the JSON form of the simple API and falls back to HTML.
const accept = "application/vnd.pypi.simple.v1+json, application/vnd.pypi.simple.v1+html;q=0.2, text/html;q=0.1"

// Client reads project pages from a simple repository.
//
// Pages are cached twice: in the shared cache for cacheTTL, and in a small
// in-memory LRU for the lifetime of the client, so a build that asks for
// the same project under several requirements fetches its page once.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
	pages   *lru.Cache[string, *Page]

	// IncludeYanked keeps files the index marks as yanked.
	IncludeYanked bool

	// Logger receives debug output about skipped links.
	Logger *log.Logger
}

// NewClient creates a client for the repository rooted at baseURL, which
// must be an http or https URL. Responses are cached in backend for
// cacheTTL; pass cache.NewNullCache() to disable caching.
func NewClient(backend cache.Cache, baseURL string, cacheTTL time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if err := errs.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	pages, err := lru.New[string, *Page](memoSize)
	if err != nil {
		return nil, err
	}
	return &Client{
		Client:  integrations.NewClient(backend, "simple:"+baseURL, cacheTTL, nil),
		baseURL: baseURL,
		pages:   pages,
	}, nil
}

// Name returns the repository URL.
func (c *Client) Name() string { return c.baseURL }

// FetchPage retrieves the project page for key. Keys are normalized
// automatically. A project the index does not know is reported as
// [integrations.ErrNotFound].
//
// If refresh is true, both caches are bypassed.
func (c *Client) FetchPage(ctx context.Context, key string, refresh bool) (*Page, error) {
	key = dist.NormalizeName(key)
	if key == "" {
		return nil, errs.New(errs.ErrCodeInvalidPackage, "empty project name")
	}
	if !refresh {
		if p, ok := c.pages.Get(key); ok {
			return p, nil
		}
	}

	var page Page
	err := c.Cached(ctx, key, refresh, &page, func() error {
		return c.fetch(ctx, key, &page)
	})
	if err != nil {
		return nil, err
	}
	c.pages.Add(key, &page)
	return &page, nil
}

func (c *Client) fetch(ctx context.Context, key string, page *Page) error {
	url := c.baseURL + "/" + key + "/"
	doc, err := c.GetDocument(ctx, url, map[string]string{"Accept": accept})
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: project %s on %s", err, key, c.baseURL)
		}
		return err
	}

	var links []Link
	if isJSON(doc.ContentType) {
		links, err = parseJSON(doc.Body, doc.URL)
	} else {
		links, err = parseHTML(doc.Body, doc.URL)
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", url, err)
	}
	*page = Page{Project: key, URL: doc.URL, Links: links}
	return nil
}

// FindCandidates lists the distributions on the project page for key.
// Links whose file names cannot be parsed are skipped, as are yanked files
// unless IncludeYanked is set. A project missing from the index has no
// candidates and is not an error.
func (c *Client) FindCandidates(ctx context.Context, key string) ([]dist.Distribution, error) {
	page, err := c.FetchPage(ctx, key, false)
	if errors.Is(err, integrations.ErrNotFound) {
		c.logger().Debug("project not on index", "index", c.baseURL, "key", key)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []dist.Distribution
	for _, l := range page.Links {
		if l.Yanked && !c.IncludeYanked {
			c.logger().Debug("skipping yanked file", "file", l.Filename)
			continue
		}
		d, ok := dist.ParseFilename(l.Filename, l.URL)
		if !ok {
			c.logger().Debug("skipping unrecognized link", "file", l.Filename, "url", l.URL)
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (c *Client) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.New(io.Discard)
}
