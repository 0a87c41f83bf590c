package renderer

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/conneroisu/templmd/internal/registry"
)

var voidElements = map[string]struct{}{
	"area": {}, "base": {}, "br": {}, "col": {}, "embed": {}, "hr": {}, "img": {},
	"input": {}, "link": {}, "meta": {}, "source": {}, "track": {}, "wbr": {},
}

var rawTextElements = map[string]struct{}{
	"script": {}, "style": {},
}

// ParseFragment parses an HTML fragment in a <body> context.
func ParseFragment(r io.Reader) ([]*html.Node, error) {
	return html.ParseFragment(r, &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
}

// Dispatch renders nodes through bindings. Text is escaped, bound elements
// are handed to their binding, unbound elements are written back as they
// were parsed, and comments are dropped.
func Dispatch(nodes []*html.Node, bindings Bindings) templ.Component {
	d := dispatcher{bindings: bindings}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, n := range nodes {
			if err := d.render(ctx, w, n); err != nil {
				return err
			}
		}
		return nil
	})
}

type dispatcher struct {
	bindings Bindings
}

func (d dispatcher) render(ctx context.Context, w io.Writer, n *html.Node) error {
	switch n.Type {
	case html.TextNode:
		_, err := io.WriteString(w, templ.EscapeString(n.Data))
		return err
	case html.ElementNode:
		return d.renderElement(ctx, w, n)
	case html.DocumentNode:
		return d.renderChildren(ctx, w, n)
	default:
		// comments, doctypes
		return nil
	}
}

func (d dispatcher) renderChildren(ctx context.Context, w io.Writer, n *html.Node) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := d.render(ctx, w, c); err != nil {
			return err
		}
	}
	return nil
}

func (d dispatcher) renderElement(ctx context.Context, w io.Writer, n *html.Node) error {
	attrs := make([]Attr, 0, len(n.Attr))
	props := make(registry.Props, len(n.Attr))
	for _, a := range n.Attr {
		if a.Namespace != "" || !validAttrKey(a.Key) {
			continue
		}
		attrs = append(attrs, Attr{Key: a.Key, Val: a.Val})
		props[a.Key] = a.Val
	}

	if _, raw := rawTextElements[n.Data]; raw {
		return element(n.Data, attrs, rawChildren(n), false).Render(ctx, w)
	}

	var children templ.Component
	if n.FirstChild != nil {
		children = templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
			return d.renderChildren(ctx, w, n)
		})
	}

	binding, ok := d.bindings.Lookup(n.Data)
	if !ok {
		_, void := voidElements[n.Data]
		return element(n.Data, attrs, children, void).Render(ctx, w)
	}

	el := Element{
		Tag:      n.Data,
		Attrs:    attrs,
		Props:    props,
		Children: children,
		Inline:   n.Parent == nil || n.Parent.Type != html.ElementNode || n.Parent.Data != "pre",
	}
	if n.Data == "code" {
		el.Text = textContent(n)
	}

	c := binding.Render(el)
	if c == nil {
		return nil
	}
	return c.Render(ctx, w)
}

func validAttrKey(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == ':', r == '.':
		default:
			return false
		}
	}
	return true
}

func rawChildren(n *html.Node) templ.Component {
	if n.FirstChild == nil {
		return nil
	}
	return templ.Raw(textContent(n))
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// element writes <tag attrs>children</tag>, or <tag attrs> for void
// elements.
func element(tag string, attrs []Attr, children templ.Component, void bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteByte('<')
		b.WriteString(tag)
		for _, a := range attrs {
			b.WriteByte(' ')
			b.WriteString(a.Key)
			b.WriteString(`="`)
			b.WriteString(templ.EscapeString(a.Val))
			b.WriteByte('"')
		}
		b.WriteByte('>')
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
		if void {
			return nil
		}
		if children != nil {
			if err := children.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</"+tag+">")
		return err
	})
}
