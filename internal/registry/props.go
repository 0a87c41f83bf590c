package registry

import (
	"sort"
	"strconv"
	"strings"
)

// Props are the raw attribute values of an injected component tag. No
// coercion happens before a component sees them; the typed accessors below
// take the default each component documents for a missing or malformed
// value.
type Props map[string]string

// Has reports whether the attribute was present on the tag.
func (p Props) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// String returns the attribute value, or def when absent.
func (p Props) String(key, def string) string {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Int parses the attribute as a base 10 integer, or returns def.
func (p Props) Int(key string, def int) int {
	v, ok := p[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

// Float parses the attribute as a float, or returns def.
func (p Props) Float(key string, def float64) float64 {
	v, ok := p[key]
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def
	}
	return f
}

// Bool parses the attribute with strconv.ParseBool, or returns def. A present
// attribute with an empty value counts as true, as in HTML.
func (p Props) Bool(key string, def bool) bool {
	v, ok := p[key]
	if !ok {
		return def
	}
	if v == "" {
		return true
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}

// Keys returns the attribute names in sorted order.
func (p Props) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
