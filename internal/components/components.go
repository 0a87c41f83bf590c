// Package components provides the built-in components that markdown
// documents can inject with HTML-like tags, such as
// <Alert type="warning">...</Alert> or <Counter initial="5" />.
//
// Every component reads its attributes as raw strings and falls back to a
// documented default when an attribute is missing or malformed.
package components

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/conneroisu/templmd/internal/registry"
)

// Builtins returns a new registry holding every built-in component in a
// fixed order.
func Builtins() *registry.Registry {
	r := registry.New()
	r.MustRegister("Alert", Alert,
		registry.WithDescription("Callout box for notes, tips and warnings (block, tags on their own lines)"),
		registry.WithAttributes(
			registry.Attribute{Name: "type", Description: "info, success, warning or error", Default: "info"},
		))
	r.MustRegister("Badge", Badge,
		registry.WithDescription("Rounded inline label"),
		registry.WithAttributes(
			registry.Attribute{Name: "color", Description: "Tailwind color name", Default: "blue"},
		))
	r.MustRegister("Card", Card,
		registry.WithDescription("Bordered content panel (block, tags on their own lines)"),
		registry.WithAttributes(
			registry.Attribute{Name: "title", Description: "Heading shown above the content"},
		))
	r.MustRegister("Button", Button,
		registry.WithDescription("Styled button"),
		registry.WithAttributes(
			registry.Attribute{Name: "variant", Description: "primary or secondary", Default: "primary"},
		))
	r.MustRegister("Collapsible", Collapsible,
		registry.WithDescription("Section that expands when its title is clicked (block, tags on their own lines)"),
		registry.WithAttributes(
			registry.Attribute{Name: "title", Description: "Summary line"},
			registry.Attribute{Name: "defaultopen", Description: "true, True or 1 to start expanded", Default: "false"},
		))
	r.MustRegister("ProgressBar", ProgressBar,
		registry.WithDescription("Horizontal bar showing value out of max"),
		registry.WithAttributes(
			registry.Attribute{Name: "value", Description: "Current value", Default: "0"},
			registry.Attribute{Name: "max", Description: "Value at 100%", Default: "100"},
			registry.Attribute{Name: "color", Description: "blue, green, red, yellow or purple", Default: "blue"},
			registry.Attribute{Name: "label", Description: "Caption above the bar"},
		))
	r.MustRegister("Counter", Counter,
		registry.WithDescription("Number with increment and decrement buttons"),
		registry.WithAttributes(
			registry.Attribute{Name: "initial", Description: "Starting value", Default: "0"},
			registry.Attribute{Name: "step", Description: "Amount added per click", Default: "1"},
			registry.Attribute{Name: "label", Description: "Caption before the value"},
		))
	r.MustRegister("Tabs", Tabs,
		registry.WithDescription("Tabbed container for Tab children"))
	r.MustRegister("Tab", Tab,
		registry.WithDescription("One panel of a Tabs container"),
		registry.WithAttributes(
			registry.Attribute{Name: "label", Description: "Tab button text", Default: "Tab <n>"},
		))
	r.MustRegister("Highlight", Highlight,
		registry.WithDescription("Marker-style highlighted text"),
		registry.WithAttributes(
			registry.Attribute{Name: "color", Description: "yellow, pink, green or blue", Default: "yellow"},
		))
	r.MustRegister("YoutubeVideo", YoutubeVideo,
		registry.WithDescription("Embedded YouTube player"),
		registry.WithAttributes(
			registry.Attribute{Name: "url", Description: "Video URL or 11 character id"},
			registry.Attribute{Name: "width", Description: "Player width", Default: "100%"},
			registry.Attribute{Name: "height", Description: "Player height", Default: "400"},
		))
	return r
}

// writer accumulates the first write error so markup can be emitted
// without checking every call.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) raw(parts ...string) {
	for _, p := range parts {
		if w.err != nil {
			return
		}
		_, w.err = io.WriteString(w.w, p)
	}
}

func (w *writer) text(s string) {
	w.raw(templ.EscapeString(s))
}

func (w *writer) render(ctx context.Context, c templ.Component) {
	if w.err != nil || c == nil {
		return
	}
	w.err = c.Render(ctx, w.w)
}

// wrap renders children between the open and end markup.
func wrap(open, end string, children templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out := &writer{w: w}
		out.raw(open)
		out.render(ctx, children)
		out.raw(end)
		return out.err
	})
}

func attr(s string) string {
	return templ.EscapeString(s)
}

func classes(parts ...string) string {
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
