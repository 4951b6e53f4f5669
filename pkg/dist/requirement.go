package dist

import (
	"regexp"
	"strconv"
	"strings"

	errs "github.com/matzehuels/pkgmirror/pkg/errors"
)

// Specifier is a single version clause such as ">=1.0" or "==2.*".
type Specifier struct {
	Op      string
	Version string
}

// String returns the clause as written in a requirement.
func (s Specifier) String() string { return s.Op + s.Version }

// Requirement names a project and the versions acceptable for it.
type Requirement struct {
	Key        string
	Name       string
	Extras     []string
	Specifiers []Specifier
	Marker     string

	cmp Comparator
}

var (
	reqNameRE = regexp.MustCompile(`^([A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?)\s*`)
	specRE    = regexp.MustCompile(`^\s*(~=|===|==|!=|<=|>=|<|>)\s*([^\s,;)]+)\s*$`)
)

// ParseRequirement parses a PEP 508 style requirement. URL requirements
// ("name @ url") are rejected; environment markers are kept verbatim and
// not evaluated.
func ParseRequirement(s string) (Requirement, error) {
	text := strings.TrimSpace(s)
	var r Requirement
	if i := strings.IndexByte(text, ';'); i >= 0 {
		r.Marker = strings.TrimSpace(text[i+1:])
		text = strings.TrimSpace(text[:i])
	}

	m := reqNameRE.FindStringSubmatch(text)
	if m == nil {
		return Requirement{}, errs.New(errs.ErrCodeInvalidRequirement, "invalid requirement %q: missing project name", s)
	}
	r.Name = m[1]
	r.Key = NormalizeName(r.Name)
	rest := text[len(m[0]):]

	if strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return Requirement{}, errs.New(errs.ErrCodeInvalidRequirement, "invalid requirement %q: unterminated extras", s)
		}
		for _, e := range strings.Split(rest[1:end], ",") {
			if e = strings.TrimSpace(e); e != "" {
				r.Extras = append(r.Extras, e)
			}
		}
		rest = strings.TrimSpace(rest[end+1:])
	}
	if strings.HasPrefix(rest, "@") {
		return Requirement{}, errs.New(errs.ErrCodeUnsupported, "invalid requirement %q: URL requirements are not supported", s)
	}
	if strings.HasPrefix(rest, "(") && strings.HasSuffix(rest, ")") {
		rest = rest[1 : len(rest)-1]
	}
	if strings.TrimSpace(rest) != "" {
		for _, clause := range strings.Split(rest, ",") {
			sm := specRE.FindStringSubmatch(clause)
			if sm == nil {
				return Requirement{}, errs.New(errs.ErrCodeInvalidRequirement, "invalid requirement %q: bad version clause %q", s, strings.TrimSpace(clause))
			}
			r.Specifiers = append(r.Specifiers, Specifier{Op: sm[1], Version: sm[2]})
		}
	}
	return r, nil
}

// MustParseRequirement is like ParseRequirement but panics on error.
func MustParseRequirement(s string) Requirement {
	r, err := ParseRequirement(s)
	if err != nil {
		panic(err)
	}
	return r
}

// WithComparator returns a copy of r that orders versions with c.
func (r Requirement) WithComparator(c Comparator) Requirement {
	r.cmp = c
	return r
}

// Equal reports whether r and o name the same project.
func (r Requirement) Equal(o Requirement) bool { return r.Key == o.Key }

// String renders the requirement in canonical form.
func (r Requirement) String() string {
	var b strings.Builder
	b.WriteString(r.Name)
	if len(r.Extras) > 0 {
		b.WriteString("[" + strings.Join(r.Extras, ",") + "]")
	}
	for i, s := range r.Specifiers {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s.String())
	}
	if r.Marker != "" {
		b.WriteString("; " + r.Marker)
	}
	return b.String()
}

// Contains reports whether d is a distribution of the required project
// whose version satisfies every specifier. Pre-releases are accepted.
func (r Requirement) Contains(d Distribution) bool {
	if d.Key != r.Key {
		return false
	}
	return r.Allows(d.Version)
}

// Allows reports whether version satisfies every specifier.
func (r Requirement) Allows(version string) bool {
	for _, s := range r.Specifiers {
		if !r.match(s, version) {
			return false
		}
	}
	return true
}

func (r Requirement) compare(a, b string) int {
	if r.cmp != nil {
		return r.cmp(a, b)
	}
	return CompareVersions(a, b)
}

func (r Requirement) match(s Specifier, version string) bool {
	switch s.Op {
	case "===":
		return strings.EqualFold(strings.TrimSpace(version), s.Version)
	case "==":
		if prefix, ok := strings.CutSuffix(s.Version, ".*"); ok {
			return prefixMatch(prefix, version)
		}
		return r.compare(dropLocalUnless(version, s.Version), s.Version) == 0
	case "!=":
		if prefix, ok := strings.CutSuffix(s.Version, ".*"); ok {
			return !prefixMatch(prefix, version)
		}
		return r.compare(dropLocalUnless(version, s.Version), s.Version) != 0
	case "<":
		return r.compare(version, s.Version) < 0
	case "<=":
		return r.compare(version, s.Version) <= 0
	case ">":
		return r.compare(version, s.Version) > 0
	case ">=":
		return r.compare(version, s.Version) >= 0
	case "~=":
		return compatible(s.Version, version) && r.compare(version, s.Version) >= 0
	}
	return false
}

// dropLocalUnless strips the local label from version when the specifier
// version has none.
func dropLocalUnless(version, spec string) string {
	if strings.Contains(spec, "+") {
		return version
	}
	if i := strings.IndexByte(version, '+'); i >= 0 {
		return version[:i]
	}
	return version
}

// prefixMatch implements "==X.Y.*": the release of version, padded with
// zeros, starts with the release of prefix and the epochs agree.
func prefixMatch(prefix, version string) bool {
	p, err := ParseVersion(prefix)
	if err != nil {
		return false
	}
	v, err := ParseVersion(version)
	if err != nil || v.Epoch != p.Epoch {
		return false
	}
	for i, n := range p.Release {
		var got int
		if i < len(v.Release) {
			got = v.Release[i]
		}
		if got != n {
			return false
		}
	}
	return true
}

// compatible implements the prefix half of "~=X.Y": the version must match
// "==X.*".
func compatible(spec, version string) bool {
	p, err := ParseVersion(spec)
	if err != nil || len(p.Release) < 2 {
		return false
	}
	parts := make([]string, 0, len(p.Release)-1)
	for _, n := range p.Release[:len(p.Release)-1] {
		parts = append(parts, strconv.Itoa(n))
	}
	prefix := strings.Join(parts, ".")
	if p.Epoch != 0 {
		prefix = strconv.Itoa(p.Epoch) + "!" + prefix
	}
	return prefixMatch(prefix, version)
}
