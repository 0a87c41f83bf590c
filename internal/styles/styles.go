// Package styles holds the CSS class applied to every rendered markdown
// element and a cache of merged style maps.
package styles

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// Element keys of the style map.
const (
	KeyCode       = "code"
	KeyPre        = "pre"
	KeyImg        = "img"
	KeyMath       = "math"
	KeyInlineMath = "inlineMath"
)

var defaultClasses = map[string]string{
	"h1":         "text-4xl font-bold mt-6 mb-4",
	"h2":         "text-3xl font-bold mt-5 mb-3",
	"h3":         "text-2xl font-semibold mt-4 mb-2",
	"h4":         "text-xl font-semibold mt-3 mb-2",
	"h5":         "text-lg font-semibold mt-2 mb-1",
	"h6":         "text-base font-semibold mt-2 mb-1",
	"p":          "my-3 leading-relaxed",
	"a":          "text-blue-600 hover:text-blue-800 underline",
	"ul":         "list-disc list-inside my-3 space-y-1",
	"ol":         "list-decimal list-inside my-3 space-y-1",
	"li":         "ml-4",
	"blockquote": "border-l-4 border-gray-300 pl-4 italic my-4 text-gray-700",
	"code":       "bg-gray-100 px-1.5 py-0.5 rounded text-sm font-mono",
	"pre":        "bg-gray-100 p-4 rounded-lg overflow-x-auto my-4",
	"strong":     "font-bold",
	"em":         "italic",
	"hr":         "my-6 border-t border-gray-300",
	"img":        "max-w-full h-auto max-h-64 object-contain rounded my-4",
	"table":      "min-w-full border-collapse my-4",
	"thead":      "bg-gray-100",
	"tbody":      "",
	"tr":         "border-b border-gray-200",
	"th":         "px-4 py-2 text-left font-semibold",
	"td":         "px-4 py-2",
	"del":        "line-through text-gray-500",
	"math":       "my-4 overflow-x-auto",
	"inlineMath": "mx-1",
}

// Styles is an immutable, complete element key to class mapping.
type Styles struct {
	classes map[string]string
}

var defaults = &Styles{classes: defaultClasses}

// Default returns the shared default styles.
func Default() *Styles {
	return defaults
}

// Keys returns every element key of the default map, sorted.
func Keys() []string {
	keys := make([]string, 0, len(defaultClasses))
	for k := range defaultClasses {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsKey reports whether key is a known element key.
func IsKey(key string) bool {
	_, ok := defaultClasses[key]
	return ok
}

// ValidateKeys returns an error naming the first override key that is not a
// known element key.
func ValidateKeys(overrides map[string]string) error {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !IsKey(k) {
			return fmt.Errorf("unknown style key %q", k)
		}
	}
	return nil
}

// Class returns the class for an element key, or "" when unset.
func (s *Styles) Class(key string) string {
	if s == nil {
		return defaultClasses[key]
	}
	return s.classes[key]
}

// Map returns a copy of the full mapping.
func (s *Styles) Map() map[string]string {
	out := make(map[string]string, len(s.classes))
	for k, v := range s.classes {
		out[k] = v
	}
	return out
}

// merge lays overrides over the defaults.
func merge(overrides map[string]string) *Styles {
	classes := make(map[string]string, len(defaultClasses)+len(overrides))
	for k, v := range defaultClasses {
		classes[k] = v
	}
	for k, v := range overrides {
		classes[k] = v
	}
	return &Styles{classes: classes}
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
}

// Manager memoises merged styles by the content of the override map. The
// cache never evicts: its size is bounded by the distinct override sets a
// host uses, not by document volume. A Manager is safe for concurrent use.
type Manager struct {
	cache map[string]*Styles
	mutex sync.RWMutex

	hits   int64
	misses int64
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{cache: make(map[string]*Styles)}
}

// Merge returns the defaults with overrides applied. Nil or empty overrides
// return Default(). Equal override maps return the same *Styles until Clear.
func (m *Manager) Merge(overrides map[string]string) *Styles {
	if len(overrides) == 0 {
		return defaults
	}

	key, err := cacheKey(overrides)
	if err != nil {
		atomic.AddInt64(&m.misses, 1)
		return merge(overrides)
	}

	m.mutex.RLock()
	cached, ok := m.cache[key]
	m.mutex.RUnlock()
	if ok {
		atomic.AddInt64(&m.hits, 1)
		return cached
	}

	atomic.AddInt64(&m.misses, 1)
	merged := merge(overrides)

	// Racing callers may both compute; the first store wins.
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if existing, ok := m.cache[key]; ok {
		return existing
	}
	m.cache[key] = merged
	return merged
}

// Clear drops every cached entry and resets the statistics.
func (m *Manager) Clear() {
	m.mutex.Lock()
	m.cache = make(map[string]*Styles)
	m.mutex.Unlock()

	atomic.StoreInt64(&m.hits, 0)
	atomic.StoreInt64(&m.misses, 0)
}

// Stats returns the current cache statistics.
func (m *Manager) Stats() Stats {
	m.mutex.RLock()
	entries := len(m.cache)
	m.mutex.RUnlock()

	return Stats{
		Hits:    atomic.LoadInt64(&m.hits),
		Misses:  atomic.LoadInt64(&m.misses),
		Entries: entries,
	}
}

// cacheKey serialises the overrides; encoding/json sorts map keys, so equal
// maps always produce the same key.
func cacheKey(overrides map[string]string) (string, error) {
	b, err := json.Marshal(overrides)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
