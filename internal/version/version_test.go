package version

import (
	"runtime/debug"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShort(t *testing.T) {
	tests := []struct {
		name     string
		info     BuildInfo
		expected string
	}{
		{"release", BuildInfo{Version: "v1.2.0", GitCommit: "1a2b3c4d5e"}, "v1.2.0 (1a2b3c4)"},
		{"dev", BuildInfo{Version: "dev", GitCommit: "1a2b3c4d5e"}, "dev-1a2b3c4"},
		{"unknown commit", BuildInfo{Version: "v1.2.0", GitCommit: "unknown"}, "v1.2.0"},
		{"short commit", BuildInfo{Version: "dev", GitCommit: "abc"}, "dev"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.info.Short())
		})
	}
}

func TestIsRelease(t *testing.T) {
	assert.True(t, (&BuildInfo{Version: "v1.0.0"}).IsRelease())
	assert.False(t, (&BuildInfo{Version: "dev"}).IsRelease())
	assert.False(t, (&BuildInfo{Version: "v0.0.0-20250101000000-abcdef123456"}).IsRelease())
}

func TestFromBuildInfo(t *testing.T) {
	info := &BuildInfo{Version: "dev", GitCommit: "unknown"}
	fromBuildInfo(info, &debug.BuildInfo{
		Main: debug.Module{Version: "v0.4.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2025-06-01T10:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
		Deps: []*debug.Module{
			{Path: "github.com/yuin/goldmark", Version: "v1.7.13"},
			{Path: "github.com/spf13/cobra", Version: "v1.9.1"},
		},
	})

	assert.Equal(t, "v0.4.1", info.Version)
	assert.Equal(t, "0123456789abcdef", info.GitCommit)
	assert.Equal(t, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC), info.BuildTime)
	assert.True(t, info.Dirty)
	assert.Equal(t, map[string]string{"github.com/yuin/goldmark": "v1.7.13"}, info.Modules)

	out := info.String()
	assert.Contains(t, out, "Version: v0.4.1 (0123456)")
	assert.Contains(t, out, "Working tree: dirty")
	assert.Contains(t, out, "github.com/yuin/goldmark v1.7.13")
}

func TestFromBuildInfo_LdflagsWin(t *testing.T) {
	info := &BuildInfo{Version: "v2.0.0", GitCommit: "feedface00"}
	fromBuildInfo(info, &debug.BuildInfo{
		Main:     debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "0000000000"}},
	})

	assert.Equal(t, "v2.0.0", info.Version)
	assert.Equal(t, "feedface00", info.GitCommit)
}

func TestParseTime(t *testing.T) {
	assert.True(t, parseTime("unknown").IsZero())
	assert.True(t, parseTime("yesterday").IsZero())
	assert.Equal(t, 2024, parseTime("2024-03-04 05:06:07").Year())
}

func TestGet(t *testing.T) {
	info := Get()
	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}
