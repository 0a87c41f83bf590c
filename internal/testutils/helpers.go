// Package testutils holds helpers shared by the command and server tests.
package testutils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/conneroisu/templmd/internal/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// CreateMarkdown writes a markdown document into dir and returns its path.
func CreateMarkdown(t testing.TB, dir, name, content string) string {
	t.Helper()
	if filepath.Ext(name) == "" {
		name += ".md"
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// CreateTestConfig returns the default configuration, as loaded from an
// empty viper instance, so tests never see the caller's environment files.
func CreateTestConfig(t testing.TB) *config.Config {
	t.Helper()
	cfg, err := config.LoadFrom(viper.New())
	require.NoError(t, err)
	return cfg
}

// WaitForFileContent polls path until it exists and contains want.
func WaitForFileContent(t testing.TB, path, want string, timeout time.Duration) string {
	t.Helper()
	deadline := time.Now().Add(timeout)

	var last string
	for time.Now().Before(deadline) {
		data, err := os.ReadFile(path)
		if err == nil {
			last = string(data)
			if strings.Contains(last, want) {
				return last
			}
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("file %s did not contain %q within %v; last content: %q", path, want, timeout, last)
	return ""
}
