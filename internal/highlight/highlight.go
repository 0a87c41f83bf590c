// Package highlight turns fenced code into highlighted markup.
package highlight

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Defaults used when no theme or class is configured.
const (
	DefaultTheme     = "onedark"
	DefaultClassName = "text-sm"
)

// Highlighter renders a block of code in a language. ok is false when the
// language is not supported, in which case the caller falls back to plain
// monospaced output.
type Highlighter interface {
	Highlight(code, language string) (c templ.Component, ok bool)
}

// Func lets a host supply its own renderer.
type Func func(code, language string) (templ.Component, bool)

// Highlight implements Highlighter.
func (f Func) Highlight(code, language string) (templ.Component, bool) {
	return f(code, language)
}

// Chroma highlights code with chroma using inline styles.
type Chroma struct {
	Theme     string
	ClassName string

	style     *chroma.Style
	formatter *chromahtml.Formatter
}

// NewChroma creates a chroma highlighter. Empty values take the defaults and
// an unknown theme falls back to chroma's fallback style.
func NewChroma(theme, className string) *Chroma {
	if theme == "" {
		theme = DefaultTheme
	}
	if className == "" {
		className = DefaultClassName
	}
	return &Chroma{
		Theme:     theme,
		ClassName: className,
		style:     styles.Get(theme),
		formatter: chromahtml.New(chromahtml.PreventSurroundingPre(true)),
	}
}

// Highlight implements Highlighter.
func (c *Chroma) Highlight(code, language string) (templ.Component, bool) {
	lexer := lexers.Get(language)
	if lexer == nil {
		return nil, false
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return nil, false
	}

	var b strings.Builder
	if err := c.formatter.Format(&b, c.style, iterator); err != nil {
		return nil, false
	}

	return block(c.ClassName, language, b.String()), true
}

// Themes lists the available chroma style names.
func Themes() []string {
	return styles.Names()
}

// KnownTheme reports whether chroma ships a style by that name.
func KnownTheme(name string) bool {
	_, ok := styles.Registry[name]
	return ok
}

func block(className, language, highlighted string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<div class="`+templ.EscapeString(className)+
			`" data-language="`+templ.EscapeString(language)+`"><code>`); err != nil {
			return err
		}
		if _, err := io.WriteString(w, highlighted); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</code></div>`)
		return err
	})
}
