package dist

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Comparator orders two version strings, returning a negative number when
// a < b, zero when equal and a positive number when a > b.
type Comparator func(a, b string) int

var versionRE = regexp.MustCompile(`(?i)^\s*v?` +
	`(?:(\d+)!)?` + // epoch
	`(\d+(?:\.\d+)*)` + // release
	`(?:[-_.]?(a|b|c|rc|alpha|beta|pre|preview)[-_.]?(\d+)?)?` + // pre
	`(?:-(\d+)|[-_.]?(post|rev|r)[-_.]?(\d+)?)?` + // post
	`(?:[-_.]?(dev)[-_.]?(\d+)?)?` + // dev
	`(?:\+([a-z0-9]+(?:[-_.][a-z0-9]+)*))?\s*$`) // local

// Pre-release phases in ascending order.
const (
	phaseAlpha = iota
	phaseBeta
	phaseRC
)

// Version is a parsed PEP 440 version.
type Version struct {
	Epoch   int
	Release []int
	// Pre is nil for final releases, otherwise {phase, number}.
	Pre   []int
	Post  *int
	Dev   *int
	Local []string
}

// ParseVersion parses s as a PEP 440 version, accepting the usual
// alternative spellings ("1.0-rc1", "1.0.post", "v2").
func ParseVersion(s string) (Version, error) {
	m := versionRE.FindStringSubmatch(s)
	if m == nil {
		return Version{}, fmt.Errorf("invalid version %q", s)
	}
	var v Version
	if m[1] != "" {
		v.Epoch = atoi(m[1])
	}
	for _, seg := range strings.Split(m[2], ".") {
		v.Release = append(v.Release, atoi(seg))
	}
	if m[3] != "" {
		v.Pre = []int{phase(m[3]), atoi(m[4])}
	}
	switch {
	case m[5] != "":
		n := atoi(m[5])
		v.Post = &n
	case m[6] != "":
		n := atoi(m[7])
		v.Post = &n
	}
	if m[8] != "" {
		n := atoi(m[9])
		v.Dev = &n
	}
	if m[10] != "" {
		v.Local = strings.FieldsFunc(strings.ToLower(m[10]), func(r rune) bool {
			return r == '-' || r == '_' || r == '.'
		})
	}
	return v, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func phase(s string) int {
	switch strings.ToLower(s) {
	case "a", "alpha":
		return phaseAlpha
	case "b", "beta":
		return phaseBeta
	default:
		return phaseRC
	}
}

// IsPrerelease reports whether v has a pre-release or dev segment.
func (v Version) IsPrerelease() bool {
	return v.Pre != nil || v.Dev != nil
}

// Public returns v without its local label.
func (v Version) Public() Version {
	v.Local = nil
	return v
}

// Compare orders v against w following PEP 440.
func (v Version) Compare(w Version) int {
	if c := cmp.Compare(v.Epoch, w.Epoch); c != 0 {
		return c
	}
	if c := compareRelease(v.Release, w.Release); c != 0 {
		return c
	}
	if c := comparePre(v, w); c != 0 {
		return c
	}
	if c := compareOptional(v.Post, w.Post, -1); c != 0 {
		return c
	}
	if c := compareOptional(v.Dev, w.Dev, 1); c != 0 {
		return c
	}
	return compareLocal(v.Local, w.Local)
}

// preKey ranks the pre-release slot: a dev-only release sorts before any
// pre-release, a final release after all of them.
func (v Version) preKey() int {
	switch {
	case v.Pre == nil && v.Post == nil && v.Dev != nil:
		return -1
	case v.Pre == nil:
		return 1
	default:
		return 0
	}
}

func comparePre(v, w Version) int {
	if c := cmp.Compare(v.preKey(), w.preKey()); c != 0 {
		return c
	}
	if v.Pre == nil || w.Pre == nil {
		return 0
	}
	return slices.Compare(v.Pre, w.Pre)
}

// compareOptional compares two optional numbers; absent sorts as missing
// (-1 before present values, 1 after).
func compareOptional(a, b *int, missing int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return missing
	case b == nil:
		return -missing
	default:
		return cmp.Compare(*a, *b)
	}
}

func compareRelease(a, b []int) int {
	n := max(len(a), len(b))
	for i := range n {
		var x, y int
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		if c := cmp.Compare(x, y); c != 0 {
			return c
		}
	}
	return 0
}

// compareLocal orders local labels segment by segment; numeric segments
// sort after alphanumeric ones and a longer label wins a shared prefix.
func compareLocal(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		x, xerr := strconv.Atoi(a[i])
		y, yerr := strconv.Atoi(b[i])
		var c int
		switch {
		case xerr == nil && yerr == nil:
			c = cmp.Compare(x, y)
		case xerr == nil:
			c = 1
		case yerr == nil:
			c = -1
		default:
			c = strings.Compare(a[i], b[i])
		}
		if c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

// CompareVersions orders two version strings. Invalid versions sort before
// valid ones and compare lexically among themselves.
func CompareVersions(a, b string) int {
	va, erra := ParseVersion(a)
	vb, errb := ParseVersion(b)
	switch {
	case erra != nil && errb != nil:
		return strings.Compare(a, b)
	case erra != nil:
		return -1
	case errb != nil:
		return 1
	default:
		return va.Compare(vb)
	}
}
