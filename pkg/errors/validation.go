package errors

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

const (
	maxProjectName = 256
	maxFilename    = 255
)

// projectNameRE is the PEP 508 project name grammar.
var projectNameRE = regexp.MustCompile(`^([A-Za-z0-9]|[A-Za-z0-9][A-Za-z0-9._-]*[A-Za-z0-9])$`)

// ValidateProjectName checks a project name against PEP 508. Names that
// pass are safe to use as a single path element.
func ValidateProjectName(name string) error {
	switch {
	case name == "":
		return New(ErrCodeInvalidPackage, "project name cannot be empty")
	case len(name) > maxProjectName:
		return New(ErrCodeInvalidPackage, "project name too long (max %d characters)", maxProjectName)
	case !projectNameRE.MatchString(name):
		return New(ErrCodeInvalidPackage, "invalid project name %q", name)
	}
	return nil
}

// ValidateFilename checks that name is a plain, visible file name inside a
// directory: no separators, no control characters, no leading dot.
func ValidateFilename(name string) error {
	switch {
	case name == "":
		return New(ErrCodeInvalidPath, "file name cannot be empty")
	case len(name) > maxFilename:
		return New(ErrCodeInvalidPath, "file name too long (max %d characters)", maxFilename)
	case strings.HasPrefix(name, "."):
		return New(ErrCodeInvalidPath, "file name %q is hidden", name)
	case strings.ContainsAny(name, `/\`):
		return New(ErrCodeInvalidPath, "file name %q contains a path separator", name)
	case strings.IndexFunc(name, unicode.IsControl) >= 0:
		return New(ErrCodeInvalidPath, "file name contains control characters")
	}
	return nil
}

// ValidateURL checks that rawURL is an absolute http or https URL.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid URL %q", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidInput, "URL %q must use http or https", rawURL)
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "URL %q has no host", rawURL)
	}
	return nil
}
