// Package observability lets callers watch a mirror build without the
// libraries depending on a logging or metrics backend.
//
// Each area (mirror runs, archive inspection, caching, HTTP) has a hook
// interface with a no-op default. A program registers its own
// implementations once at startup; libraries fetch the current hooks at
// the point of the event:
//
//	observability.SetMirrorHooks(myHooks)
//
//	start := time.Now()
//	observability.Mirror().OnQueryStart(ctx, source, key)
//	dists, err := src.FindCandidates(ctx, key)
//	observability.Mirror().OnQueryComplete(ctx, source, key, len(dists), time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// MirrorHooks receives events from a mirror build run.
type MirrorHooks interface {
	// OnQueryStart fires before a source is asked for a requirement's candidates.
	OnQueryStart(ctx context.Context, source, key string)

	// OnQueryComplete fires after the query, with the number of candidates returned.
	OnQueryComplete(ctx context.Context, source, key string, candidates int, duration time.Duration, err error)

	// OnSelected fires once per (source, requirement) with the number accepted.
	OnSelected(ctx context.Context, source, key string, accepted int)
}

// InspectHooks receives events from archive metadata extraction.
type InspectHooks interface {
	OnInspectStart(ctx context.Context, path string)

	// OnInspectComplete fires when inspection ends. method is "pkg-info",
	// "setup.py" or "" when nothing was found.
	OnInspectComplete(ctx context.Context, path, method string, found bool, duration time.Duration, err error)
}

// CacheHooks receives cache lookups and writes. keyType is "http" for
// index pages and "metadata" for inspection results.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives outgoing requests made by the index clients.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError fires when no response was received at all.
	OnError(ctx context.Context, method, host, path string, err error)
}

type NoopMirrorHooks struct{}

func (NoopMirrorHooks) OnQueryStart(context.Context, string, string) {}
func (NoopMirrorHooks) OnQueryComplete(context.Context, string, string, int, time.Duration, error) {
}
func (NoopMirrorHooks) OnSelected(context.Context, string, string, int) {}

type NoopInspectHooks struct{}

func (NoopInspectHooks) OnInspectStart(context.Context, string) {}
func (NoopInspectHooks) OnInspectComplete(context.Context, string, string, bool, time.Duration, error) {
}

type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// registered holds the process-wide hooks.
var registered = struct {
	sync.RWMutex
	mirror  MirrorHooks
	inspect InspectHooks
	cache   CacheHooks
	http    HTTPHooks
}{
	mirror:  NoopMirrorHooks{},
	inspect: NoopInspectHooks{},
	cache:   NoopCacheHooks{},
	http:    NoopHTTPHooks{},
}

// set stores h in *slot unless h is nil.
func set[T any](slot *T, h T) {
	if any(h) == nil {
		return
	}
	registered.Lock()
	*slot = h
	registered.Unlock()
}

func get[T any](slot *T) T {
	registered.RLock()
	defer registered.RUnlock()
	return *slot
}

// SetMirrorHooks registers mirror hooks. Nil is ignored, as for all setters.
func SetMirrorHooks(h MirrorHooks)   { set(&registered.mirror, h) }
func SetInspectHooks(h InspectHooks) { set(&registered.inspect, h) }
func SetCacheHooks(h CacheHooks)     { set(&registered.cache, h) }
func SetHTTPHooks(h HTTPHooks)       { set(&registered.http, h) }

func Mirror() MirrorHooks   { return get(&registered.mirror) }
func Inspect() InspectHooks { return get(&registered.inspect) }
func Cache() CacheHooks     { return get(&registered.cache) }
func HTTP() HTTPHooks       { return get(&registered.http) }

// Reset restores the no-op hooks.
func Reset() {
	registered.Lock()
	defer registered.Unlock()
	registered.mirror = NoopMirrorHooks{}
	registered.inspect = NoopInspectHooks{}
	registered.cache = NoopCacheHooks{}
	registered.http = NoopHTTPHooks{}
}
