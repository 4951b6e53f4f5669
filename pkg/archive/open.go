package archive

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Suffixes are checked in order; the first match decides the kind.
var suffixKinds = []struct {
	suffix string
	kind   Kind
}{
	{".tar.gz", KindTar},
	{".tgz", KindTar},
	{".tar.bz2", KindTar},
	{".tbz2", KindTar},
	{".tbz", KindTar},
	{".tar", KindTar},
	{".gz", KindTar},
	{".bz2", KindTar},
	{".zip", KindZip},
	{".egg", KindZip},
}

// KindOf returns the archive kind implied by the file name, compared
// case-insensitively. It never looks at file content.
func KindOf(path string) Kind {
	name := strings.ToLower(filepath.Base(path))
	for _, s := range suffixKinds {
		if strings.HasSuffix(name, s.suffix) {
			return s.kind
		}
	}
	return KindUnknown
}

// Supported reports whether Open would accept the file name.
func Supported(path string) bool {
	return KindOf(path) != KindUnknown
}

// Open returns a Reader for the archive at path. The implementation is
// chosen from the file name suffix; unknown suffixes fail with
// [ErrUnsupported]. The caller must Close the returned Reader.
func Open(path string) (Reader, error) {
	switch KindOf(path) {
	case KindTar:
		return openTar(path)
	case KindZip:
		return openZip(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Base(path))
	}
}
