package cli

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// logHooks reports library events through the CLI logger at debug level
// and mirrors query progress on the active spinner, if any.
type logHooks struct {
	logger *log.Logger

	mu      sync.Mutex
	spinner *Spinner
}

func (h *logHooks) attach(s *Spinner) {
	h.mu.Lock()
	h.spinner = s
	h.mu.Unlock()
}

func (h *logHooks) detach() { h.attach(nil) }

func (h *logHooks) OnQueryStart(_ context.Context, source, key string) {
	h.mu.Lock()
	if h.spinner != nil {
		h.spinner.SetMessage("Querying " + source + " for " + key)
	}
	h.mu.Unlock()
}

func (h *logHooks) OnQueryComplete(_ context.Context, source, key string, candidates int, d time.Duration, err error) {
	if err != nil {
		return // the builder warns
	}
	h.logger.Debug("query complete", "source", source, "key", key, "candidates", candidates, "elapsed", d.Round(time.Millisecond))
}

func (h *logHooks) OnSelected(context.Context, string, string, int) {}

func (h *logHooks) OnInspectStart(_ context.Context, path string) {
	h.logger.Debug("inspecting", "path", path)
}

func (h *logHooks) OnInspectComplete(_ context.Context, path, method string, found bool, d time.Duration, err error) {
	h.logger.Debug("inspected", "path", path, "method", method, "found", found, "elapsed", d.Round(time.Millisecond), "error", err)
}

func (h *logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logHooks) OnCacheSet(context.Context, string, int) {}

func (h *logHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h *logHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("http response", "method", method, "host", host, "path", path, "status", status, "elapsed", d.Round(time.Millisecond))
}

func (h *logHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("http error", "method", method, "host", host, "path", path, "error", err)
}
