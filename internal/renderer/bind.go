// Package renderer binds parsed HTML elements to render functions and walks
// the parsed tree to produce the final templ component.
//
// Built-in bindings apply the configured style classes to standard markdown
// elements. Injected components are bound under both their registered name
// and their canonical lowercase tag.
package renderer

import (
	"regexp"
	"strings"

	"github.com/a-h/templ"

	"github.com/conneroisu/templmd/internal/highlight"
	"github.com/conneroisu/templmd/internal/mathext"
	"github.com/conneroisu/templmd/internal/registry"
	"github.com/conneroisu/templmd/internal/styles"
)

const (
	blockCodeClass  = "font-mono text-sm"
	defaultImgClass = "max-w-full h-auto max-h-96 object-contain"
	linkTarget      = "_blank"
	linkRel         = "noopener noreferrer"
)

var languagePattern = regexp.MustCompile(`language-(\w+)`)

// Element is one parsed HTML element handed to a binding.
type Element struct {
	Tag string
	// Attrs keeps source order; Props is the same data keyed by name.
	Attrs    []Attr
	Props    registry.Props
	Children templ.Component
	// Inline is false only for code whose parent is <pre>.
	Inline bool
	// Text is the concatenated text content of the element.
	Text string
}

// Attr is one attribute of an element.
type Attr struct {
	Key string
	Val string
}

// RenderFunc renders an element.
type RenderFunc func(el Element) templ.Component

// Binding associates a tag with the function that renders it.
type Binding struct {
	Tag      string
	Name     string
	Injected bool
	// Component is the host component for injected bindings, nil otherwise.
	Component registry.Component
	Render    RenderFunc
}

// Bindings maps tag names to bindings. Injected components appear under both
// their registered name and their lowercase tag.
type Bindings map[string]Binding

// Lookup returns the binding for tag.
func (b Bindings) Lookup(tag string) (Binding, bool) {
	binding, ok := b[tag]
	return binding, ok
}

// Injected returns the number of injected component bindings, counting each
// key.
func (b Bindings) Injected() int {
	n := 0
	for _, binding := range b {
		if binding.Injected {
			n++
		}
	}
	return n
}

// Bind builds the bindings for one render pass. h may be nil to disable
// highlighting; reg may be nil when no components are injected. When two
// registered names share a tag, the later registration owns the lowercase
// key while both original names stay addressable.
func Bind(st *styles.Styles, h highlight.Highlighter, reg *registry.Registry) Bindings {
	if st == nil {
		st = styles.Default()
	}

	b := make(Bindings, 32+2*reg.Len())

	for _, tag := range []string{
		"h1", "h2", "h3", "h4", "h5", "h6", "p", "ul", "ol", "li", "blockquote",
		"pre", "strong", "em", "table", "thead", "tbody", "tr", "th", "td", "del",
	} {
		b[tag] = Binding{Tag: tag, Name: tag, Render: styled(tag, st.Class(tag))}
	}

	b["hr"] = Binding{Tag: "hr", Name: "hr", Render: voidStyled("hr", st.Class("hr"))}
	imgClass := st.Class(styles.KeyImg)
	if imgClass == "" {
		imgClass = defaultImgClass
	}
	b["img"] = Binding{Tag: "img", Name: "img", Render: voidStyled("img", imgClass)}
	b["a"] = Binding{Tag: "a", Name: "a", Render: link(st.Class("a"))}
	b["code"] = Binding{Tag: "code", Name: "code", Render: code(st.Class(styles.KeyCode), h)}
	b["div"] = Binding{Tag: "div", Name: "div", Render: mathWrapper("div", mathext.DisplayClass, st.Class(styles.KeyMath))}
	b["span"] = Binding{Tag: "span", Name: "span", Render: mathWrapper("span", mathext.InlineClass, st.Class(styles.KeyInlineMath))}

	for _, entry := range reg.Entries() {
		binding := Binding{
			Name:      entry.Name,
			Injected:  true,
			Component: entry.Component,
			Render:    injected(entry.Component),
		}
		binding.Tag = entry.Name
		b[entry.Name] = binding
		binding.Tag = entry.Tag
		b[entry.Tag] = binding
	}

	return b
}

func injected(c registry.Component) RenderFunc {
	return func(el Element) templ.Component {
		return c(el.Props, el.Children)
	}
}

// styled renders tag with the style class unless the element carries its
// own class.
func styled(tag, class string) RenderFunc {
	return func(el Element) templ.Component {
		return element(tag, withClass(class, el.Attrs), el.Children, false)
	}
}

func voidStyled(tag, class string) RenderFunc {
	return func(el Element) templ.Component {
		return element(tag, withClass(class, el.Attrs), nil, true)
	}
}

// link forces links to open in a new tab without leaking the opener.
func link(class string) RenderFunc {
	return func(el Element) templ.Component {
		attrs := make([]Attr, 0, len(el.Attrs)+3)
		for _, a := range withClass(class, el.Attrs) {
			if a.Key == "target" || a.Key == "rel" {
				continue
			}
			attrs = append(attrs, a)
		}
		attrs = append(attrs, Attr{Key: "target", Val: linkTarget}, Attr{Key: "rel", Val: linkRel})
		return element("a", attrs, el.Children, false)
	}
}

func code(inlineClass string, h highlight.Highlighter) RenderFunc {
	return func(el Element) templ.Component {
		language := ""
		if m := languagePattern.FindStringSubmatch(el.Props["class"]); m != nil {
			language = m[1]
		}

		if !el.Inline && language != "" && h != nil {
			if c, ok := h.Highlight(strings.TrimSuffix(el.Text, "\n"), language); ok {
				return c
			}
		}

		class := inlineClass
		if !el.Inline {
			class = blockCodeClass
		}
		attrs := make([]Attr, 0, len(el.Attrs)+1)
		attrs = append(attrs, Attr{Key: "class", Val: class})
		for _, a := range el.Attrs {
			if a.Key != "class" {
				attrs = append(attrs, a)
			}
		}
		return element("code", attrs, el.Children, false)
	}
}

// mathWrapper prepends the math style class to the wrappers emitted for math
// and leaves every other div or span as it was.
func mathWrapper(tag, marker, class string) RenderFunc {
	return func(el Element) templ.Component {
		if el.Props["class"] != marker {
			return element(tag, el.Attrs, el.Children, false)
		}
		attrs := make([]Attr, 0, len(el.Attrs))
		for _, a := range el.Attrs {
			if a.Key == "class" {
				a.Val = strings.TrimSpace(class + " " + marker)
			}
			attrs = append(attrs, a)
		}
		return element(tag, attrs, el.Children, false)
	}
}

func withClass(class string, attrs []Attr) []Attr {
	for _, a := range attrs {
		if a.Key == "class" {
			return attrs
		}
	}
	if class == "" {
		return attrs
	}
	out := make([]Attr, 0, len(attrs)+1)
	out = append(out, Attr{Key: "class", Val: class})
	return append(out, attrs...)
}
