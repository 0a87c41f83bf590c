// Package validation checks the paths and origins that reach templmd from
// the command line and from browsers.
package validation

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// MarkdownExtensions are the file extensions treated as markdown documents.
var MarkdownExtensions = []string{".md", ".markdown", ".mdown", ".mkd", ".mdx"}

// ValidatePath rejects empty paths and paths holding NUL or other control
// characters.
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	for _, r := range path {
		if r < 32 || r == 127 {
			return fmt.Errorf("path contains control character %q", r)
		}
	}
	return nil
}

// ValidateFileExtension validates file extensions against an allowlist
func ValidateFileExtension(filename string, allowedExtensions []string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return fmt.Errorf("file must have an extension")
	}

	for _, allowed := range allowedExtensions {
		if ext == strings.ToLower(allowed) {
			return nil
		}
	}

	return fmt.Errorf("file extension '%s' is not allowed", ext)
}

// IsMarkdown reports whether path has a markdown extension.
func IsMarkdown(path string) bool {
	return ValidateFileExtension(path, MarkdownExtensions) == nil
}

// ValidateOutputPath rejects an output path that resolves to one of the
// inputs, so rendering never overwrites its own source.
func ValidateOutputPath(output string, inputs []string) error {
	if err := ValidatePath(output); err != nil {
		return err
	}
	out, err := filepath.Abs(output)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", output, err)
	}
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			continue
		}
		if abs == out {
			return fmt.Errorf("output %s would overwrite input %s", output, in)
		}
	}
	return nil
}

// ValidateOrigin validates a WebSocket origin against the allowed hosts.
// Only http and https origins are accepted.
func ValidateOrigin(origin string, allowedHosts []string) error {
	if origin == "" {
		return fmt.Errorf("origin header is required")
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("invalid origin format: %w", err)
	}

	if originURL.Scheme != "http" && originURL.Scheme != "https" {
		return fmt.Errorf("invalid origin scheme '%s': only http and https are allowed", originURL.Scheme)
	}

	for _, allowed := range allowedHosts {
		if allowed != "" && originURL.Host == allowed {
			return nil
		}
	}

	return fmt.Errorf("origin '%s' is not in allowed origins list", origin)
}
