// Package registry holds the host-supplied components that may be injected
// into markdown with tag syntax.
package registry

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"sync"

	"github.com/a-h/templ"

	"github.com/conneroisu/templmd/internal/errors"
	"github.com/conneroisu/templmd/internal/tags"
)

// Component renders an injected component from its string props and its
// already rendered children. children may be nil.
type Component func(props Props, children templ.Component) templ.Component

// FromTempl adapts a templ-generated component that reads its children from
// the context with { children... }.
func FromTempl(fn func(props Props) templ.Component) Component {
	return func(props Props, children templ.Component) templ.Component {
		return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
			if children != nil {
				ctx = templ.WithChildren(ctx, children)
			}
			return fn(props).Render(ctx, w)
		})
	}
}

// Attribute documents one prop a component understands.
type Attribute struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Default     string `json:"default,omitempty" yaml:"default,omitempty"`
}

// Entry is one registered component.
type Entry struct {
	Name        string      `json:"name" yaml:"name"`
	Tag         string      `json:"tag" yaml:"tag"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Attributes  []Attribute `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Component   Component   `json:"-" yaml:"-"`
}

// EntryOption decorates an entry at registration time.
type EntryOption func(*Entry)

// WithDescription sets the human readable description of a component.
func WithDescription(description string) EntryOption {
	return func(e *Entry) {
		e.Description = description
	}
}

// WithAttributes documents the props of a component.
func WithAttributes(attrs ...Attribute) EntryOption {
	return func(e *Entry) {
		e.Attributes = append(e.Attributes, attrs...)
	}
}

// Option configures a Registry.
type Option func(*Registry)

// AllowCaseCollisions lets two names with the same canonical tag coexist.
// The later registration then owns the lowercase binding.
func AllowCaseCollisions() Option {
	return func(r *Registry) {
		r.allowCollisions = true
	}
}

var namePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)

// ValidName reports whether name can be used as a component tag.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// Registry maps component names to components, keeping insertion order.
type Registry struct {
	entries         map[string]*Entry
	order           []string
	canonical       map[string]string
	allowCollisions bool
	mutex           sync.RWMutex
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries:   make(map[string]*Entry),
		canonical: make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds or replaces a component. Registering a name that differs
// from an existing one only by case fails with ErrCaseCollision unless the
// registry allows collisions.
func (r *Registry) Register(name string, c Component, opts ...EntryOption) error {
	if !ValidName(name) {
		return errors.NewValidationError(errors.ErrCodeInvalidName,
			fmt.Sprintf("component name %q must start with a letter and contain only letters and digits", name)).
			WithComponent(name)
	}
	if c == nil {
		return errors.NewValidationError(errors.ErrCodeNilComponent, "component is nil").WithComponent(name)
	}

	tag := tags.Canonical(name)
	entry := &Entry{Name: name, Tag: tag, Component: c}
	for _, opt := range opts {
		opt(entry)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if owner, ok := r.canonical[tag]; ok && owner != name && !r.allowCollisions {
		return errors.NewValidationError(errors.ErrCodeCaseCollision,
			fmt.Sprintf("%q and %q share the tag <%s>", owner, name, tag)).
			WithComponent(name)
	}

	if _, exists := r.entries[name]; !exists {
		r.order = append(r.order, name)
	}
	r.entries[name] = entry
	r.canonical[tag] = name
	return nil
}

// MustRegister is like Register but panics on error. It is meant for
// package-level wiring of known-good components.
func (r *Registry) MustRegister(name string, c Component, opts ...EntryOption) *Registry {
	if err := r.Register(name, c, opts...); err != nil {
		panic(err)
	}
	return r
}

// Get retrieves a component by its registered name.
func (r *Registry) Get(name string) (Component, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	entry, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return entry.Component, true
}

// Lookup retrieves a component by its canonical tag.
func (r *Registry) Lookup(tag string) (Component, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	name, ok := r.canonical[tag]
	if !ok {
		return nil, false
	}
	return r.entries[name].Component, true
}

// Remove deletes a component. Removing an unknown name is a no-op.
func (r *Registry) Remove(name string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	entry, ok := r.entries[name]
	if !ok {
		return
	}
	delete(r.entries, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	if r.canonical[entry.Tag] != name {
		return
	}
	delete(r.canonical, entry.Tag)
	// Hand the tag back to the latest remaining registration sharing it.
	for i := len(r.order) - 1; i >= 0; i-- {
		if r.entries[r.order[i]].Tag == entry.Tag {
			r.canonical[entry.Tag] = r.order[i]
			break
		}
	}
}

// Names returns the registered names in insertion order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return append([]string(nil), r.order...)
}

// Entries returns copies of the registered entries in insertion order.
func (r *Registry) Entries() []Entry {
	if r == nil {
		return nil
	}
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]Entry, 0, len(r.order))
	for _, name := range r.order {
		e := *r.entries[name]
		e.Attributes = append([]Attribute(nil), e.Attributes...)
		result = append(result, e)
	}
	return result
}

// Len returns the number of registered components. A nil registry is empty.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.entries)
}

// Filter returns a new registry holding only the named components, in this
// registry's order. Unknown names are reported with ErrUnknownComponent.
func (r *Registry) Filter(names []string) (*Registry, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := r.entries[n]; !ok {
			return nil, errors.NewValidationError(errors.ErrCodeUnknownComponent,
				fmt.Sprintf("unknown component %q", n)).WithComponent(n)
		}
		want[n] = struct{}{}
	}

	filtered := New()
	filtered.allowCollisions = r.allowCollisions
	for _, name := range r.order {
		if _, ok := want[name]; !ok {
			continue
		}
		e := *r.entries[name]
		filtered.entries[name] = &e
		filtered.order = append(filtered.order, name)
		filtered.canonical[e.Tag] = name
	}
	return filtered, nil
}

// Without returns a new registry without the named components. Unknown names
// are reported with ErrUnknownComponent.
func (r *Registry) Without(names []string) (*Registry, error) {
	r.mutex.RLock()
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := r.entries[n]; !ok {
			r.mutex.RUnlock()
			return nil, errors.NewValidationError(errors.ErrCodeUnknownComponent,
				fmt.Sprintf("unknown component %q", n)).WithComponent(n)
		}
		drop[n] = struct{}{}
	}
	keep := make([]string, 0, len(r.order))
	for _, name := range r.order {
		if _, ok := drop[name]; !ok {
			keep = append(keep, name)
		}
	}
	r.mutex.RUnlock()

	return r.Filter(keep)
}
