package pipeline

import (
	"fmt"

	"github.com/conneroisu/templmd/internal/errors"
	"github.com/conneroisu/templmd/internal/highlight"
	"github.com/conneroisu/templmd/internal/registry"
)

// ShieldMode selects how code spans are kept away from the tag rewriter.
type ShieldMode string

const (
	// ShieldInline rewrites only the prose between code spans.
	ShieldInline ShieldMode = "inline"
	// ShieldPlaceholder swaps code spans for placeholders, rewrites, then
	// restores them.
	ShieldPlaceholder ShieldMode = "placeholder"
)

// ParseShieldMode validates a shield mode name. The empty string selects
// ShieldInline.
func ParseShieldMode(s string) (ShieldMode, error) {
	switch ShieldMode(s) {
	case "", ShieldInline:
		return ShieldInline, nil
	case ShieldPlaceholder:
		return ShieldPlaceholder, nil
	default:
		return "", errors.NewConfigError(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("unknown shield mode %q (want %q or %q)", s, ShieldInline, ShieldPlaceholder))
	}
}

// Options configures one render pass.
type Options struct {
	// Sanitize strips markup outside the allow-list. Disabling it is the
	// caller's explicit trust decision.
	Sanitize bool
	// GFM enables tables, strikethrough, autolinks and task lists.
	GFM bool
	// Math enables $...$ and $$ math.
	Math bool
	// Mermaid turns ```mermaid fences into <pre class="mermaid"> blocks.
	Mermaid bool

	ShieldMode ShieldMode
	// ClassName is the class of the wrapping <div>.
	ClassName string
	// Styles are partial overrides of the default style map.
	Styles map[string]string

	// Highlighter renders fenced code with a language. Nil selects chroma
	// with the default theme.
	Highlighter         highlight.Highlighter
	DisableHighlighting bool

	// Components are the injectable components; nil or empty takes the
	// fast path with no rewriting.
	Components *registry.Registry
	// ExtraAttributes are added to the sanitizer's global attribute list.
	ExtraAttributes []string
}

// DefaultOptions returns sanitized GFM rendering with math enabled.
func DefaultOptions() Options {
	return Options{
		Sanitize:   true,
		GFM:        true,
		Math:       true,
		ShieldMode: ShieldInline,
	}
}

// Validate reports invalid option values.
func (o Options) Validate() error {
	_, err := ParseShieldMode(string(o.ShieldMode))
	return err
}
