// Package buildinfo reports which pkgmirror build is running, for
// --version and for the User-Agent sent to package indexes.
//
// Release builds stamp the values with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/pkgmirror/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/pkgmirror/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/pkgmirror/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// A plain "go install" leaves them unset; the module version and VCS
// stamp recorded by the Go toolchain are used instead.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var fillOnce sync.Once

// fill replaces unset ldflags values with what debug.ReadBuildInfo knows.
func fill() {
	fillOnce.Do(func() {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		fromModule(info)
	})
}

func fromModule(info *debug.BuildInfo) {
	if v := info.Main.Version; Version == "dev" && v != "" && v != "(devel)" {
		Version = v
	}
	for _, s := range info.Settings {
		switch {
		case s.Key == "vcs.revision" && Commit == "none":
			Commit = s.Value
		case s.Key == "vcs.time" && Date == "unknown":
			Date = s.Value
		case s.Key == "vcs.modified" && s.Value == "true" && Version == "dev":
			Version = "dev+dirty"
		}
	}
}

// Current returns Version after filling it from the module build info.
func Current() string {
	fill()
	return Version
}

// Template is the cobra version template.
func Template() string {
	fill()
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\ngo: %s %s/%s\n",
		Version, Commit, Date, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// UserAgent is sent with every request to a package index, in the
// "name/version (details)" shape pip uses.
func UserAgent() string {
	fill()
	return fmt.Sprintf("pkgmirror/%s (%s; %s/%s)", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
