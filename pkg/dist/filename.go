package dist

import (
	"net/url"
	"strings"
)

// sdistSuffixes are the archive suffixes an sdist can be published with.
var sdistSuffixes = []string{".tar.gz", ".tgz", ".tar.bz2", ".tbz2", ".tbz", ".tar", ".zip"}

// ParseFilename derives a Distribution from a file name as it appears in an
// index link or a local directory listing. location is stored verbatim; if
// it carries an "#egg=name-version" fragment and the file name is not a
// recognized artifact, the result is a Checkout.
//
// The returned distribution has ok=false when the name cannot be split into
// project name and version.
func ParseFilename(filename, location string) (d Distribution, ok bool) {
	d.Location = location
	lower := strings.ToLower(filename)

	switch {
	case strings.HasSuffix(lower, ".egg"):
		return parseEgg(d, filename[:len(filename)-len(".egg")])
	case strings.HasSuffix(lower, ".whl"):
		return parseWheel(d, filename[:len(filename)-len(".whl")])
	case strings.HasSuffix(lower, ".exe"), strings.HasSuffix(lower, ".msi"):
		return parseInstaller(d, filename[:len(filename)-4])
	}
	for _, suffix := range sdistSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return parseSdist(d, filename[:len(filename)-len(suffix)])
		}
	}
	if frag := eggFragment(location); frag != "" {
		d.Precedence = Checkout
		return withNameVersion(d, frag)
	}
	return Distribution{}, false
}

func parseSdist(d Distribution, base string) (Distribution, bool) {
	d.Precedence = Source
	return withNameVersion(d, base)
}

// name-version-pyX.Y[-platform]
func parseEgg(d Distribution, base string) (Distribution, bool) {
	d.Precedence = Egg
	parts := strings.Split(base, "-")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Distribution{}, false
	}
	if len(parts) > 2 {
		d.PyVersion = strings.TrimPrefix(parts[2], "py")
	}
	if len(parts) > 3 {
		d.Platform = strings.Join(parts[3:], "-")
	}
	return setNameVersion(d, parts[0], strings.ReplaceAll(parts[1], "_", "-")), true
}

// name-version[-build]-pytag-abitag-platform
func parseWheel(d Distribution, base string) (Distribution, bool) {
	d.Precedence = Binary
	parts := strings.Split(base, "-")
	if len(parts) != 5 && len(parts) != 6 {
		return Distribution{}, false
	}
	d.PyVersion = parts[len(parts)-3]
	d.Platform = parts[len(parts)-1]
	return setNameVersion(d, parts[0], parts[1]), true
}

// name-version.platform[-pyX.Y]
func parseInstaller(d Distribution, base string) (Distribution, bool) {
	d.Precedence = Binary
	if i := strings.LastIndex(base, "-py"); i > 0 {
		d.PyVersion = base[i+3:]
		base = base[:i]
	}
	for _, plat := range []string{".win32", ".win-amd64", ".win-arm64"} {
		if strings.HasSuffix(strings.ToLower(base), plat) {
			d.Platform = plat[1:]
			base = base[:len(base)-len(plat)]
			break
		}
	}
	if d.Platform == "" {
		return Distribution{}, false
	}
	return withNameVersion(d, base)
}

// withNameVersion splits "name-version" at the first hyphen that is followed
// by a digit, so hyphenated project names survive.
func withNameVersion(d Distribution, base string) (Distribution, bool) {
	for i := 1; i < len(base)-1; i++ {
		if base[i] == '-' && base[i+1] >= '0' && base[i+1] <= '9' {
			return setNameVersion(d, base[:i], base[i+1:]), true
		}
	}
	return Distribution{}, false
}

func setNameVersion(d Distribution, name, version string) Distribution {
	d.Name = name
	d.Key = NormalizeName(name)
	d.Version = version
	return d
}

func eggFragment(location string) string {
	u, err := url.Parse(location)
	if err != nil {
		return ""
	}
	frag, ok := strings.CutPrefix(u.Fragment, "egg=")
	if !ok {
		return ""
	}
	return frag
}
