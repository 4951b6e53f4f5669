// Package pypi reads PEP 503 "simple" package repositories such as
// https://pypi.org/simple.
//
// # Usage
//
//	client, err := pypi.NewClient(fileCache, pypi.DefaultIndexURL, time.Hour)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	dists, err := client.FindCandidates(ctx, "requests")
//
// [Client] implements mirror.Source. Each project page is requested with an
// Accept header preferring the PEP 691 JSON form; servers that only speak
// HTML are parsed with golang.org/x/net/html. Anchor text is taken as the
// file name, hrefs are resolved against the page (or its <base> element),
// and the data-requires-python and data-yanked attributes are recorded.
//
// # Caching
//
// Parsed pages are stored in the shared cache under the repository URL, so
// two mirrors of the same project never collide. Pass refresh=true to
// [Client.FetchPage] to bypass the cache.
package pypi
