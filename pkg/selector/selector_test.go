package selector

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pkgmirror/pkg/dist"
)

func d(version string, prec dist.Precedence) dist.Distribution {
	return dist.Distribution{
		Key:        "foo",
		Name:       "foo",
		Version:    version,
		Precedence: prec,
		Location:   fmt.Sprintf("/mirror/foo-%s-%s", version, prec),
	}
}

var candidates = []dist.Distribution{
	d("1.0", dist.Source),
	d("1.5", dist.Develop),
	d("1.1", dist.Binary),
	d("2.0", dist.Source), // outside the constraint
	d("1.2", dist.Egg),
	d("1.3", dist.Checkout),
	d("2.1", dist.Develop), // outside the constraint
	{Key: "bar", Version: "1.0", Precedence: dist.Source, Location: "/mirror/bar-1.0.tar.gz"},
}

func versions(seq []dist.Distribution) []string {
	var out []string
	for _, x := range seq {
		out = append(out, x.Version)
	}
	return out
}

func TestSelectPolicies(t *testing.T) {
	req := dist.MustParseRequirement("foo<2")
	tests := []struct {
		name   string
		policy Policy
		want   []string
	}{
		{"default", DefaultPolicy(), []string{"1.0", "1.3"}},
		{"develop ok", Policy{SourceOnly: true, DevelopOK: true}, []string{"1.0", "1.5", "1.3"}},
		{"binaries ok", Policy{SourceOnly: false}, []string{"1.0", "1.1", "1.2", "1.3"}},
		{"everything", Policy{DevelopOK: true}, []string{"1.0", "1.5", "1.1", "1.2", "1.3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.policy, nil).Collect(req, candidates)
			if !slices.Equal(versions(got), tt.want) {
				t.Errorf("selected %v, want %v", versions(got), tt.want)
			}
		})
	}
}

func TestSelectSkipNoticeOnce(t *testing.T) {
	var skipped []string
	s := New(DefaultPolicy(), nil)
	s.OnSkip = func(x dist.Distribution) { skipped = append(skipped, x.Version) }

	// the same develop checkouts show up under two requirements
	for _, r := range []string{"foo<2", "foo>=1"} {
		s.Collect(dist.MustParseRequirement(r), candidates)
	}
	if want := []string{"1.5", "2.1"}; !slices.Equal(skipped, want) {
		t.Errorf("skip notices %v, want %v", skipped, want)
	}

	// a fresh selector reports again
	skipped = nil
	other := New(DefaultPolicy(), nil)
	other.OnSkip = s.OnSkip
	other.Collect(dist.MustParseRequirement("foo"), candidates)
	if len(skipped) != 2 {
		t.Errorf("fresh selector reported %d skips, want 2", len(skipped))
	}
}

func TestSelectSkipLogged(t *testing.T) {
	var buf bytes.Buffer
	s := New(DefaultPolicy(), log.New(&buf))
	s.Collect(dist.MustParseRequirement("foo"), candidates)
	s.Collect(dist.MustParseRequirement("foo"), candidates)
	if n := strings.Count(buf.String(), "skipping development distribution"); n != 2 {
		t.Errorf("logged %d skip notices, want 2:\n%s", n, buf.String())
	}
}

func TestSelectLazy(t *testing.T) {
	req := dist.MustParseRequirement("foo")
	seq := Select(req, candidates, Policy{})

	var first []string
	for x := range seq {
		first = append(first, x.Version)
		if len(first) == 2 {
			break
		}
	}
	if want := []string{"1.0", "1.1"}; !slices.Equal(first, want) {
		t.Errorf("early termination got %v, want %v", first, want)
	}

	var all []string
	for x := range seq {
		all = append(all, x.Version)
	}
	if want := []string{"1.0", "1.1", "2.0", "1.2", "1.3"}; !slices.Equal(all, want) {
		t.Errorf("re-ranging got %v, want %v", all, want)
	}
}

func TestSelectEmpty(t *testing.T) {
	for range Select(dist.MustParseRequirement("foo"), nil, DefaultPolicy()) {
		t.Fatal("empty input yielded a distribution")
	}
}

func TestPolicyAccepts(t *testing.T) {
	tests := []struct {
		policy Policy
		prec   dist.Precedence
		want   bool
	}{
		{DefaultPolicy(), dist.Develop, false},
		{DefaultPolicy(), dist.Checkout, true},
		{DefaultPolicy(), dist.Source, true},
		{DefaultPolicy(), dist.Binary, false},
		{DefaultPolicy(), dist.Egg, false},
		{Policy{SourceOnly: true, DevelopOK: true}, dist.Develop, true},
		{Policy{}, dist.Egg, true},
		{Policy{}, dist.Develop, false},
	}
	for _, tt := range tests {
		if got := tt.policy.Accepts(tt.prec); got != tt.want {
			t.Errorf("%+v.Accepts(%s) = %v, want %v", tt.policy, tt.prec, got, tt.want)
		}
	}
}

func ExampleSelect() {
	req := dist.MustParseRequirement("requests>=2.30")
	var dists []dist.Distribution
	for _, f := range []string{
		"requests-2.29.0.tar.gz",
		"requests-2.31.0-py3-none-any.whl",
		"requests-2.31.0.tar.gz",
	} {
		x, _ := dist.ParseFilename(f, "https://files.example.com/"+f)
		dists = append(dists, x)
	}
	for x := range Select(req, dists, DefaultPolicy()) {
		fmt.Println(x.Filename())
	}
	// Output: requests-2.31.0.tar.gz
}
