// Package pkg provides the libraries behind pkgmirror, a builder for local
// mirrors of Python source distributions.
//
// # Overview
//
// A mirror build takes a list of requirements, asks every configured source
// for the candidate distributions of each project, and keeps those the
// selection policy allows. The pkg directory is organized into:
//
//  1. [dist] - Distributions, requirements, PEP 440 versions and file names
//  2. [archive] and [metadata] - Reading sdists and recovering name/version
//  3. [selector] and [mirror] - Candidate filtering and build orchestration
//  4. [integrations] - Sources: PEP 503 indexes and find-links directories
//  5. [simpleindex] and [server] - Publishing the result to pip
//  6. [cache], [httputil], [errors], [observability] - Shared infrastructure
//
// # Architecture
//
// The typical data flow of a build:
//
//	requirements (args, requirements.txt)
//	         ↓
//	    [integrations/pypi], [integrations/findlinks] (list candidates)
//	         ↓
//	    [metadata] (inspect archives with unknown names)
//	         ↓
//	    [selector] (policy + version constraints)
//	         ↓
//	    [mirror.Report] → download → [simpleindex] → [server]
//
// # Quick Start
//
// List the source distributions of a project on PyPI:
//
//	import (
//	    "context"
//	    "time"
//
//	    "github.com/matzehuels/pkgmirror/pkg/cache"
//	    "github.com/matzehuels/pkgmirror/pkg/dist"
//	    "github.com/matzehuels/pkgmirror/pkg/integrations/pypi"
//	    "github.com/matzehuels/pkgmirror/pkg/mirror"
//	    "github.com/matzehuels/pkgmirror/pkg/selector"
//	)
//
//	index, _ := pypi.NewClient(cache.NewNullCache(), pypi.DefaultIndexURL, time.Hour)
//	b := &mirror.Builder{
//	    Sources: []mirror.Source{index},
//	    Policy:  selector.DefaultPolicy(),
//	}
//	report, err := b.Run(ctx, []dist.Requirement{dist.MustParseRequirement("requests>=2.31")})
//	for _, d := range report.Accepted() {
//	    fmt.Println(d.Filename(), d.Location)
//	}
//
// # Caching
//
// Index pages and recovered metadata share one [cache.Cache]. Index pages
// expire after a configurable TTL. Metadata is keyed by archive content
// digest and kept for [cache.TTLMetadata].
package pkg
