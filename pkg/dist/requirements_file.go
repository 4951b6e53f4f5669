package dist

import (
	"bufio"
	"os"
	"strings"

	errs "github.com/matzehuels/pkgmirror/pkg/errors"
)

// ParseRequirementsFile reads requirements from a requirements.txt style
// file. Blank lines, comments, pip options ("-r", "--index-url", ...) and
// URL or VCS lines are skipped; backslash continuations are joined.
// Duplicate projects keep their first occurrence.
func ParseRequirementsFile(path string) ([]Requirement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "open requirements file %s", path)
	}
	defer f.Close()

	var (
		reqs    []Requirement
		seen    = make(map[string]bool)
		pending string
		lineNo  int
	)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if cont, ok := strings.CutSuffix(strings.TrimRight(line, " \t"), `\`); ok {
			pending += cont + " "
			continue
		}
		line = pending + line
		pending = ""

		if i := strings.Index(line, " #"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" || line[0] == '#' || line[0] == '-' {
			continue
		}
		if strings.Contains(line, "://") || strings.HasPrefix(line, "git+") {
			continue
		}

		req, err := ParseRequirement(line)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidRequirement, err, "%s:%d", path, lineNo)
		}
		if !seen[req.Key] {
			seen[req.Key] = true
			reqs = append(reqs, req)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return reqs, nil
}
