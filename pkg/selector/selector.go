// Package selector decides which candidate distributions of a requirement
// qualify for the mirror.
//
// Filtering is applied per distribution, in the order the index returned
// them:
//
//   - Develop distributions are skipped unless the policy allows them. Each
//     skipped distribution is reported once per Selector, however many
//     requirements it shows up under.
//   - A distribution is accepted when the requirement contains it and it
//     is a source-level distribution, or the policy accepts binaries.
//   - Everything else is dropped silently.
//
// Results are produced lazily as an [iter.Seq]; stopping the range loop
// stops filtering. Ranging again re-runs the filter over the same input.
package selector

import (
	"io"
	"iter"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pkgmirror/pkg/dist"
)

// Policy controls which distributions are acceptable.
type Policy struct {
	// SourceOnly rejects distributions ranked above dist.Source.
	SourceOnly bool `json:"source_only" yaml:"source_only" toml:"source_only"`

	// DevelopOK accepts dist.Develop checkouts.
	DevelopOK bool `json:"develop_ok" yaml:"develop_ok" toml:"develop_ok"`
}

// DefaultPolicy accepts source distributions only and skips development
// checkouts.
func DefaultPolicy() Policy {
	return Policy{SourceOnly: true}
}

// Accepts reports whether the policy admits a distribution of precedence p,
// ignoring version constraints.
func (p Policy) Accepts(prec dist.Precedence) bool {
	if prec == dist.Develop && !p.DevelopOK {
		return false
	}
	return prec <= dist.Source || !p.SourceOnly
}

// Selector filters candidates for one logical run. It remembers which
// develop distributions it already reported so each is announced once.
// A Selector is not safe for concurrent use.
type Selector struct {
	Policy Policy

	// OnSkip is called the first time a develop distribution is skipped.
	// When nil, the skip is logged at info level.
	OnSkip func(dist.Distribution)

	// Logger receives skip notices when OnSkip is nil.
	Logger *log.Logger

	warned map[dist.Identity]struct{}
}

// New returns a Selector for policy.
func New(policy Policy, logger *log.Logger) *Selector {
	return &Selector{Policy: policy, Logger: logger}
}

// Select yields the distributions in dists that satisfy req under the
// selector's policy, preserving input order.
func (s *Selector) Select(req dist.Requirement, dists []dist.Distribution) iter.Seq[dist.Distribution] {
	return func(yield func(dist.Distribution) bool) {
		for _, d := range dists {
			if d.Precedence == dist.Develop && !s.Policy.DevelopOK {
				s.skip(d)
				continue
			}
			if !req.Contains(d) {
				continue
			}
			if !s.Policy.Accepts(d.Precedence) {
				continue
			}
			if !yield(d) {
				return
			}
		}
	}
}

// Collect drains Select into a slice.
func (s *Selector) Collect(req dist.Requirement, dists []dist.Distribution) []dist.Distribution {
	var out []dist.Distribution
	for d := range s.Select(req, dists) {
		out = append(out, d)
	}
	return out
}

func (s *Selector) skip(d dist.Distribution) {
	if s.warned == nil {
		s.warned = make(map[dist.Identity]struct{})
	}
	id := d.Identity()
	if _, seen := s.warned[id]; seen {
		return
	}
	s.warned[id] = struct{}{}

	if s.OnSkip != nil {
		s.OnSkip(d)
		return
	}
	s.logger().Info("skipping development distribution", "dist", d.String(), "location", d.Location)
}

func (s *Selector) logger() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log.New(io.Discard)
}

// Select filters dists with a fresh Selector, so skip notices are not
// shared with any other call.
func Select(req dist.Requirement, dists []dist.Distribution, policy Policy) iter.Seq[dist.Distribution] {
	return New(policy, nil).Select(req, dists)
}
