// Package metadata recovers the project name and version from a source
// archive.
//
// Two heuristics are tried in order. The first is a top-level PKG-INFO
// member, whose "Name:" and "Version:" headers are parsed. If there is none,
// or its headers are incomplete, the package's setup.py is run in a private
// temporary directory as "setup.py --name --version" and its output is
// read back.
//
// Discovery is best-effort. Unknown file types, corrupt archives, failing or
// hanging setup scripts and malformed output all yield the absent
// [Metadata]. Only unsafe member names and closed readers are reported as
// errors.
package metadata

import "strings"

// Metadata is a recovered (name, version) pair. Either both fields are set
// or neither is.
type Metadata struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
}

// New returns the pair, or the absent Metadata unless both values are
// non-empty.
func New(name, version string) Metadata {
	name, version = strings.TrimSpace(name), strings.TrimSpace(version)
	if name == "" || version == "" {
		return Metadata{}
	}
	return Metadata{Name: name, Version: version}
}

// Found reports whether both fields were recovered.
func (m Metadata) Found() bool { return m.Name != "" && m.Version != "" }

// String returns "name version", or "unknown" for the absent pair.
func (m Metadata) String() string {
	if !m.Found() {
		return "unknown"
	}
	return m.Name + " " + m.Version
}

// ParsePKGInfo scans PKG-INFO lines for the Name and Version headers. Keys
// are case-sensitive, the first colon separates key and value, and a later
// occurrence of a header replaces an earlier one.
func ParsePKGInfo(lines []string) Metadata {
	var name, version string
	for _, line := range lines {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch key {
		case "Name":
			name = strings.TrimSpace(value)
		case "Version":
			version = strings.TrimSpace(value)
		}
	}
	return New(name, version)
}
