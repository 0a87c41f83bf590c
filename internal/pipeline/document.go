package pipeline

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/conneroisu/templmd/internal/renderer"
)

// Document is the result of a render pass. It implements templ.Component and
// may be rendered any number of times.
type Document struct {
	body      templ.Component
	bindings  renderer.Bindings
	className string
	done      func(ctx context.Context, start time.Time)
}

var _ templ.Component = (*Document)(nil)

// Render writes the document wrapped in a <div> carrying the configured
// class. Errors raised by injected components are returned unchanged.
func (d *Document) Render(ctx context.Context, w io.Writer) error {
	start := time.Now()

	open := "<div>"
	if d.className != "" {
		open = `<div class="` + templ.EscapeString(d.className) + `">`
	}
	if _, err := io.WriteString(w, open); err != nil {
		return err
	}
	if err := d.body.Render(ctx, w); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "</div>"); err != nil {
		return err
	}

	if d.done != nil {
		d.done(ctx, start)
	}
	return nil
}

// HTML renders the document to a string.
func (d *Document) HTML(ctx context.Context) (string, error) {
	var b strings.Builder
	if err := d.Render(ctx, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Bindings returns the bindings the document dispatches on.
func (d *Document) Bindings() renderer.Bindings {
	return d.bindings
}
