// Package sanitize builds the HTML allow-list applied to rendered markdown.
//
// A Schema is a plain value describing the elements and attributes allowed on
// top of bluemonday's UGC baseline. Extending a schema never mutates its
// input, so concurrent renders with different component sets cannot
// interfere.
package sanitize

import (
	"regexp"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/conneroisu/templmd/internal/tags"
)

// ComponentAttributes is the fixed attribute superset used by the built-in
// injectable components.
var ComponentAttributes = []string{
	"type", "color", "variant", "title", "initial", "step", "label",
	"value", "max", "defaultopen", "url", "width", "height",
}

var (
	attrNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)
	tagNamePattern  = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

	languageClass = regexp.MustCompile(`^language-[\w+#.-]+$`)
	mathClass     = regexp.MustCompile(`^math math-(inline|display)$`)
	mermaidClass  = regexp.MustCompile(`^mermaid$`)
	headingID     = regexp.MustCompile(`^[a-zA-Z0-9\-_]+$`)
	checkboxType  = regexp.MustCompile(`^checkbox$`)
)

// ValidAttribute reports whether name is accepted as an extra global
// attribute.
func ValidAttribute(name string) bool {
	return attrNamePattern.MatchString(name)
}

// Schema is an allow-list layered on the baseline policy.
type Schema struct {
	// Tags are extra elements allowed with or without attributes.
	Tags []string
	// Attributes are allowed on every element.
	Attributes []string
}

// Default returns the baseline schema: bluemonday's UGC policy plus the
// markup the renderer itself emits (language classes on code, math wrappers,
// mermaid blocks, heading ids and task-list checkboxes). It has no extra tags
// or global attributes.
func Default() Schema {
	return Schema{}
}

// Extend returns a fresh schema adding the canonical form of every name to
// the allowed tags, and ComponentAttributes plus extraAttrs to the global
// attributes. Names or attributes that are not valid lowercase HTML names
// after canonicalisation are skipped.
func Extend(base Schema, names []string, extraAttrs ...string) Schema {
	elements := make([]string, 0, len(base.Tags)+len(names))
	elements = append(elements, base.Tags...)
	for _, n := range names {
		elements = append(elements, tags.Canonical(n))
	}

	attrs := make([]string, 0, len(base.Attributes)+len(ComponentAttributes)+len(extraAttrs))
	attrs = append(attrs, base.Attributes...)
	attrs = append(attrs, ComponentAttributes...)
	for _, a := range extraAttrs {
		attrs = append(attrs, strings.ToLower(strings.TrimSpace(a)))
	}

	return Schema{
		Tags:       normalise(elements, tagNamePattern),
		Attributes: normalise(attrs, attrNamePattern),
	}
}

// AllowsTag reports whether tag was added to the schema.
func (s Schema) AllowsTag(tag string) bool {
	i := sort.SearchStrings(s.Tags, tag)
	return i < len(s.Tags) && s.Tags[i] == tag
}

// AllowsAttribute reports whether attr is allowed globally by the schema.
func (s Schema) AllowsAttribute(attr string) bool {
	i := sort.SearchStrings(s.Attributes, attr)
	return i < len(s.Attributes) && s.Attributes[i] == attr
}

// Key returns a stable identity for the schema content.
func (s Schema) Key() string {
	return strings.Join(s.Tags, ",") + "|" + strings.Join(s.Attributes, ",")
}

// Policy compiles the schema into a new bluemonday policy. The returned
// policy is safe for concurrent use.
func (s Schema) Policy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	p.AllowAttrs("class").Matching(languageClass).OnElements("code")
	p.AllowAttrs("class").Matching(mathClass).OnElements("span", "div")
	p.AllowAttrs("class").Matching(mermaidClass).OnElements("pre")
	p.AllowAttrs("id").Matching(headingID).OnElements("h1", "h2", "h3", "h4", "h5", "h6")

	// GFM task lists
	p.AllowAttrs("type").Matching(checkboxType).OnElements("input")
	p.AllowAttrs("checked", "disabled").OnElements("input")

	if len(s.Tags) > 0 {
		p.AllowElements(s.Tags...)
		p.AllowNoAttrs().OnElements(s.Tags...)
	}
	if len(s.Attributes) > 0 {
		p.AllowAttrs(s.Attributes...).Globally()
	}

	return p
}

// Sanitize is a convenience wrapper compiling the policy and applying it.
func (s Schema) Sanitize(html string) string {
	return s.Policy().Sanitize(html)
}

func normalise(values []string, valid *regexp.Regexp) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !valid.MatchString(v) {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
