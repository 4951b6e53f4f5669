package dist

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

// Precedence ranks distributions by how they were produced. Lower values
// are closer to the original sources.
type Precedence int

const (
	Develop  Precedence = -1 // checkout on disk with an .egg-info directory
	Checkout Precedence = 0  // VCS checkout link (#egg= fragment)
	Source   Precedence = 1  // sdist archive
	Binary   Precedence = 2  // wheel or platform installer
	Egg      Precedence = 3  // built .egg
)

// String returns the lowercase name of the precedence.
func (p Precedence) String() string {
	switch p {
	case Develop:
		return "develop"
	case Checkout:
		return "checkout"
	case Source:
		return "source"
	case Binary:
		return "binary"
	case Egg:
		return "egg"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler for report output.
func (p Precedence) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Distribution is a candidate artifact for a project.
type Distribution struct {
	Key        string     `json:"key" yaml:"key"`
	Name       string     `json:"name" yaml:"name"`
	Version    string     `json:"version" yaml:"version"`
	Precedence Precedence `json:"precedence" yaml:"precedence"`
	Location   string     `json:"location" yaml:"location"`
	PyVersion  string     `json:"py_version,omitempty" yaml:"py_version,omitempty"`
	Platform   string     `json:"platform,omitempty" yaml:"platform,omitempty"`
}

// Identity is the comparable form of a Distribution used for duplicate
// suppression.
type Identity struct {
	Key        string
	Version    string
	Precedence Precedence
	Location   string
}

// Identity returns the value that identifies d across repeated queries.
func (d Distribution) Identity() Identity {
	return Identity{Key: d.Key, Version: d.Version, Precedence: d.Precedence, Location: d.Location}
}

// String returns "name version (precedence)".
func (d Distribution) String() string {
	name := d.Name
	if name == "" {
		name = d.Key
	}
	if d.Version == "" {
		return name + " (" + d.Precedence.String() + ")"
	}
	return name + " " + d.Version + " (" + d.Precedence.String() + ")"
}

// LocalPath returns the filesystem path of a distribution located on disk.
// Remote locations return ok=false.
func (d Distribution) LocalPath() (string, bool) {
	if d.Location == "" {
		return "", false
	}
	u, err := url.Parse(d.Location)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// single-letter schemes are Windows drive letters
		return d.Location, true
	}
	if u.Scheme == "file" {
		return filepath.FromSlash(u.Path), true
	}
	return "", false
}

// Filename returns the last path element of the location without any
// query or fragment.
func (d Distribution) Filename() string {
	loc := d.Location
	if u, err := url.Parse(loc); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		loc = u.Path
	}
	loc = strings.TrimRight(filepath.ToSlash(loc), "/")
	if i := strings.LastIndex(loc, "/"); i >= 0 {
		loc = loc[i+1:]
	}
	return loc
}

var nameSeparators = regexp.MustCompile(`[-_.]+`)

// NormalizeName returns the PEP 503 normalized form of a project name:
// lowercase with runs of "-", "_" and "." collapsed to a single "-".
func NormalizeName(name string) string {
	return nameSeparators.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}
