// Package version reports build information for the templmd binary,
// including the versions of the libraries that shape rendered output.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// These variables are set at build time using -ldflags, e.g.
//
//	-X github.com/conneroisu/templmd/internal/version.Version=v0.3.0
var (
	Version   = "dev"
	GitCommit = "unknown"
	// BuildTime is RFC3339.
	BuildTime = "unknown"
)

// renderStack are the modules whose versions change rendered HTML.
var renderStack = []string{
	"github.com/yuin/goldmark",
	"github.com/microcosm-cc/bluemonday",
	"github.com/alecthomas/chroma/v2",
	"github.com/a-h/templ",
	"go.abhg.dev/goldmark/mermaid",
}

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string            `json:"version"`
	GitCommit string            `json:"git_commit"`
	BuildTime time.Time         `json:"build_time"`
	GoVersion string            `json:"go_version"`
	Platform  string            `json:"platform"`
	Dirty     bool              `json:"dirty"`
	Modules   map[string]string `json:"modules,omitempty"`
}

// Get collects the build information of the running binary.
func Get() *BuildInfo {
	info := &BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: parseTime(BuildTime),
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	fromBuildInfo(info, bi)
	return info
}

func fromBuildInfo(info *BuildInfo, bi *debug.BuildInfo) {
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "unknown" {
				info.GitCommit = s.Value
			}
		case "vcs.time":
			if info.BuildTime.IsZero() {
				info.BuildTime = parseTime(s.Value)
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}

	for _, dep := range bi.Deps {
		for _, path := range renderStack {
			if dep.Path == path {
				if info.Modules == nil {
					info.Modules = make(map[string]string)
				}
				info.Modules[path] = dep.Version
			}
		}
	}
}

// Short returns the version with an abbreviated commit, e.g. "v1.2.0
// (1a2b3c4)" or "dev-1a2b3c4".
func (b *BuildInfo) Short() string {
	if len(b.GitCommit) < 7 || b.GitCommit == "unknown" {
		return b.Version
	}
	commit := b.GitCommit[:7]
	if b.Version == "dev" {
		return "dev-" + commit
	}
	return fmt.Sprintf("%s (%s)", b.Version, commit)
}

// IsRelease reports whether the binary was built from a tagged version.
func (b *BuildInfo) IsRelease() bool {
	return b.Version != "dev" && !strings.HasPrefix(b.Version, "dev-") && !strings.Contains(b.Version, "-0.")
}

// String returns a multi-line description.
func (b *BuildInfo) String() string {
	var lines []string
	lines = append(lines, "Version: "+b.Short())
	if !b.BuildTime.IsZero() {
		lines = append(lines, "Built: "+b.BuildTime.UTC().Format(time.RFC3339))
	}
	lines = append(lines, "Go: "+b.GoVersion, "Platform: "+b.Platform)
	if b.Dirty {
		lines = append(lines, "Working tree: dirty")
	}
	for _, path := range renderStack {
		if v, ok := b.Modules[path]; ok {
			lines = append(lines, fmt.Sprintf("%s %s", path, v))
		}
	}
	return strings.Join(lines, "\n")
}

func parseTime(s string) time.Time {
	if s == "" || s == "unknown" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
