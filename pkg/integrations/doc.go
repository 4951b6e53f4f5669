// Package integrations provides the HTTP plumbing shared by package index
// sources.
//
// # Overview
//
// Sources that talk to a remote index live in subpackages:
//
//   - [pypi]: PEP 503 "simple" repositories such as https://pypi.org/simple
//   - [findlinks]: a local directory of archives (no HTTP, same contract)
//
// Both implement [mirror.Source] and can be mixed freely in one build.
//
// # Shared Infrastructure
//
// [Client] wraps an [http.Client] with:
//
//   - a User-Agent identifying pkgmirror
//   - retry with exponential backoff for network errors, 429 and 5xx
//   - response caching through a [cache.Cache], keyed per namespace
//   - verified downloads honoring "#sha256=" URL fragments
//
// Errors are classified with the sentinels [ErrNotFound], [ErrNetwork] and
// [ErrChecksum]; use [errors.Is] to test for them.
//
// [pypi]: github.com/matzehuels/pkgmirror/pkg/integrations/pypi
// [findlinks]: github.com/matzehuels/pkgmirror/pkg/integrations/findlinks
// [mirror.Source]: github.com/matzehuels/pkgmirror/pkg/mirror.Source
// [cache.Cache]: github.com/matzehuels/pkgmirror/pkg/cache.Cache
package integrations
