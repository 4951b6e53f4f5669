// Package mirror orchestrates a mirror build: every configured source is
// asked for the candidates of every requirement, local candidates with
// unknown metadata are inspected, and the selector decides what qualifies.
//
// A run is single-threaded. One (source, requirement) pair is completely
// processed before the next begins. A failure for one pair is recorded in
// its [Result] and logged, and the run continues; only cancellation of the
// context ends it early.
package mirror

import (
	"cmp"
	"context"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/pkgmirror/pkg/dist"
	"github.com/matzehuels/pkgmirror/pkg/metadata"
	"github.com/matzehuels/pkgmirror/pkg/observability"
	"github.com/matzehuels/pkgmirror/pkg/selector"
)

// Source lists the known distributions of a project.
type Source interface {
	// Name identifies the source in logs and reports, usually its URL.
	Name() string

	// FindCandidates returns every distribution of the project with the
	// given normalized key, in index order.
	FindCandidates(ctx context.Context, key string) ([]dist.Distribution, error)
}

// Inspector recovers metadata from a local archive.
type Inspector = metadata.Inspector

// Builder runs mirror builds.
type Builder struct {
	Sources   []Source
	Policy    selector.Policy
	Inspector Inspector // nil skips inspection
	Logger    *log.Logger
}

// Result is the outcome of one (source, requirement) pair.
type Result struct {
	Source      string              `json:"source" yaml:"source"`
	Requirement string              `json:"requirement" yaml:"requirement"`
	Key         string              `json:"key" yaml:"key"`
	Candidates  int                 `json:"candidates" yaml:"candidates"`
	Accepted    []dist.Distribution `json:"accepted" yaml:"accepted"`
	Err         error               `json:"-" yaml:"-"`
	Error       string              `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report collects the results of one run.
type Report struct {
	RunID    string        `json:"run_id" yaml:"run_id"`
	Started  time.Time     `json:"started" yaml:"started"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	Results  []Result      `json:"results" yaml:"results"`
}

// Accepted returns every accepted distribution across results, in run order.
func (r *Report) Accepted() []dist.Distribution {
	var out []dist.Distribution
	for _, res := range r.Results {
		out = append(out, res.Accepted...)
	}
	return out
}

// Failures returns the results whose query failed.
func (r *Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Run processes every requirement against every source. The returned
// report covers all pairs processed; the error is non-nil only when ctx
// was cancelled.
func (b *Builder) Run(ctx context.Context, reqs []dist.Requirement) (*Report, error) {
	report := &Report{RunID: uuid.NewString(), Started: time.Now()}
	logger := b.logger().With("run", report.RunID[:8])

	sel := selector.New(b.Policy, logger)
	for _, src := range b.Sources {
		for _, req := range reqs {
			if err := ctx.Err(); err != nil {
				report.Duration = time.Since(report.Started)
				return report, err
			}
			report.Results = append(report.Results, b.process(ctx, logger, sel, src, req))
		}
	}
	report.Duration = time.Since(report.Started)
	return report, nil
}

func (b *Builder) process(ctx context.Context, logger *log.Logger, sel *selector.Selector, src Source, req dist.Requirement) Result {
	res := Result{Source: src.Name(), Requirement: req.String(), Key: req.Key}
	hooks := observability.Mirror()

	start := time.Now()
	hooks.OnQueryStart(ctx, res.Source, req.Key)
	dists, err := src.FindCandidates(ctx, req.Key)
	hooks.OnQueryComplete(ctx, res.Source, req.Key, len(dists), time.Since(start), err)
	if err != nil {
		res.Err = err
		res.Error = err.Error()
		logger.Warn("query failed", "source", res.Source, "requirement", res.Requirement, "error", err)
		return res
	}
	res.Candidates = len(dists)

	dists = b.inspect(ctx, logger, dists)
	for d := range sel.Select(req, dists) {
		logger.Info("accepted", "dist", d.String(), "location", d.Location)
		res.Accepted = append(res.Accepted, d)
	}
	hooks.OnSelected(ctx, res.Source, req.Key, len(res.Accepted))
	logger.Debug("selected", "source", res.Source, "requirement", res.Requirement,
		"candidates", res.Candidates, "accepted", len(res.Accepted))
	return res
}

// inspect fills in name and version for local distributions that lack
// them. Distributions whose metadata cannot be recovered are dropped.
func (b *Builder) inspect(ctx context.Context, logger *log.Logger, dists []dist.Distribution) []dist.Distribution {
	if b.Inspector == nil {
		return dists
	}
	out := dists[:0:0]
	for _, d := range dists {
		if d.Key != "" && d.Version != "" {
			out = append(out, d)
			continue
		}
		path, ok := d.LocalPath()
		if !ok {
			out = append(out, d)
			continue
		}
		md, err := b.Inspector.ExtractNameVersion(ctx, path)
		if err != nil {
			logger.Warn("inspection failed", "path", path, "error", err)
			continue
		}
		if !md.Found() {
			logger.Debug("no metadata found", "path", path)
			continue
		}
		d.Name, d.Key, d.Version = md.Name, dist.NormalizeName(md.Name), md.Version
		out = append(out, d)
	}
	return out
}

func (b *Builder) logger() *log.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return log.New(io.Discard)
}

// Best returns the accepted distribution with the highest version, ties
// going to the lower precedence (closer to source) and then to the earlier
// entry. A nil comparator uses dist.CompareVersions.
func Best(accepted []dist.Distribution, compare dist.Comparator) (dist.Distribution, bool) {
	if len(accepted) == 0 {
		return dist.Distribution{}, false
	}
	if compare == nil {
		compare = dist.CompareVersions
	}
	best := accepted[0]
	for _, d := range accepted[1:] {
		c := compare(d.Version, best.Version)
		if c > 0 || (c == 0 && d.Precedence < best.Precedence) {
			best = d
		}
	}
	return best, true
}

// SortByVersion orders distributions by descending version in place.
func SortByVersion(dists []dist.Distribution, compare dist.Comparator) {
	if compare == nil {
		compare = dist.CompareVersions
	}
	slices.SortStableFunc(dists, func(a, b dist.Distribution) int {
		if c := compare(b.Version, a.Version); c != 0 {
			return c
		}
		return cmp.Compare(a.Precedence, b.Precedence)
	})
}
