package renderer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/templmd/internal/highlight"
	"github.com/conneroisu/templmd/internal/registry"
	"github.com/conneroisu/templmd/internal/styles"
)

func badge(props registry.Props, children templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		fmt.Fprintf(w, `<span data-badge="%s">`, props.String("color", "gray"))
		if children != nil {
			if err := children.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</span>")
		return err
	})
}

func counter(props registry.Props, children templ.Component) templ.Component {
	return templ.Raw(fmt.Sprintf(`<output data-children="%t">%d</output>`, children != nil, props.Int("initial", 0)))
}

func dispatchString(t *testing.T, src string, b Bindings) string {
	t.Helper()
	nodes, err := ParseFragment(strings.NewReader(src))
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, Dispatch(nodes, b).Render(context.Background(), &buf))
	return buf.String()
}

func TestBind_DualKey(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register("Alert", badge))

	b := Bind(styles.Default(), nil, reg)

	upper, ok := b.Lookup("Alert")
	require.True(t, ok)
	lower, ok := b.Lookup("alert")
	require.True(t, ok)

	assert.True(t, upper.Injected)
	assert.True(t, lower.Injected)
	assert.Equal(t, "Alert", upper.Tag)
	assert.Equal(t, "alert", lower.Tag)
	assert.Equal(t, "Alert", lower.Name)

	want := reflect.ValueOf(registry.Component(badge)).Pointer()
	assert.Equal(t, want, reflect.ValueOf(upper.Component).Pointer())
	assert.Equal(t, want, reflect.ValueOf(lower.Component).Pointer())
	assert.Equal(t, 2, b.Injected())
}

func TestBind_CaseCollisionLastWins(t *testing.T) {
	reg := registry.New(registry.AllowCaseCollisions())
	require.NoError(t, reg.Register("Alert", badge))
	require.NoError(t, reg.Register("ALERT", counter))

	b := Bind(nil, nil, reg)

	assert.Equal(t, "ALERT", b["alert"].Name)
	assert.Equal(t, "Alert", b["Alert"].Name)
	assert.Equal(t, "ALERT", b["ALERT"].Name)
}

func TestBind_BuiltinsWithoutRegistry(t *testing.T) {
	b := Bind(styles.Default(), nil, nil)
	for _, tag := range []string{"h1", "h6", "p", "a", "ul", "ol", "li", "blockquote", "code", "pre",
		"strong", "em", "hr", "img", "table", "thead", "tbody", "tr", "th", "td", "del", "div", "span"} {
		binding, ok := b.Lookup(tag)
		require.True(t, ok, tag)
		assert.False(t, binding.Injected, tag)
	}
	assert.Zero(t, b.Injected())
}

func TestDispatch_BuiltinElements(t *testing.T) {
	b := Bind(styles.Default(), nil, nil)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "heading",
			input:    "<h1>Title</h1>",
			expected: `<h1 class="text-4xl font-bold mt-6 mb-4">Title</h1>`,
		},
		{
			name:     "paragraph escapes text",
			input:    "<p>a &amp; b &lt;c&gt;</p>",
			expected: `<p class="my-3 leading-relaxed">a &amp; b &lt;c&gt;</p>`,
		},
		{
			name:     "link is forced to a new tab",
			input:    `<a href="https://example.com" target="_self" rel="nofollow">x</a>`,
			expected: `<a class="text-blue-600 hover:text-blue-800 underline" href="https://example.com" target="_blank" rel="noopener noreferrer">x</a>`,
		},
		{
			name:     "inline code",
			input:    "<p><code>x</code></p>",
			expected: `<p class="my-3 leading-relaxed"><code class="bg-gray-100 px-1.5 py-0.5 rounded text-sm font-mono">x</code></p>`,
		},
		{
			name:     "block code without language",
			input:    "<pre><code>x\n</code></pre>",
			expected: "<pre class=\"bg-gray-100 p-4 rounded-lg overflow-x-auto my-4\"><code class=\"font-mono text-sm\">x\n</code></pre>",
		},
		{
			name:     "block code with language but no highlighter",
			input:    `<pre><code class="language-go">x</code></pre>`,
			expected: `<pre class="bg-gray-100 p-4 rounded-lg overflow-x-auto my-4"><code class="font-mono text-sm">x</code></pre>`,
		},
		{
			name:     "image",
			input:    `<img src="a.png" alt="A">`,
			expected: `<img class="max-w-full h-auto max-h-64 object-contain rounded my-4" src="a.png" alt="A">`,
		},
		{
			name:     "rule",
			input:    "<hr>",
			expected: `<hr class="my-6 border-t border-gray-300">`,
		},
		{
			name:     "inline math wrapper",
			input:    `<span class="math math-inline">x^2</span>`,
			expected: `<span class="mx-1 math math-inline">x^2</span>`,
		},
		{
			name:     "display math wrapper",
			input:    `<div class="math math-display">x^2</div>`,
			expected: `<div class="my-4 overflow-x-auto math math-display">x^2</div>`,
		},
		{
			name:     "plain div passes through",
			input:    `<div class="note">x</div>`,
			expected: `<div class="note">x</div>`,
		},
		{
			name:     "mermaid keeps its class",
			input:    `<pre class="mermaid">graph TD</pre>`,
			expected: `<pre class="mermaid">graph TD</pre>`,
		},
		{
			name:     "empty style class is omitted",
			input:    "<table><tbody><tr><td>1</td></tr></tbody></table>",
			expected: `<table class="min-w-full border-collapse my-4"><tbody><tr class="border-b border-gray-200"><td class="px-4 py-2">1</td></tr></tbody></table>`,
		},
		{
			name:     "unbound void element",
			input:    "<p>a<br>b</p>",
			expected: `<p class="my-3 leading-relaxed">a<br>b</p>`,
		},
		{
			name:     "comments are dropped",
			input:    "<!-- hidden --><em>x</em>",
			expected: `<em class="italic">x</em>`,
		},
		{
			name:     "raw text elements are not escaped",
			input:    "<script>if (a < b) {}</script>",
			expected: "<script>if (a < b) {}</script>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, dispatchString(t, tt.input, b))
		})
	}
}

func TestDispatch_EmptyImageStyleFallsBack(t *testing.T) {
	st := styles.NewManager().Merge(map[string]string{"img": ""})
	out := dispatchString(t, `<img src="a.png">`, Bind(st, nil, nil))
	assert.Equal(t, `<img class="max-w-full h-auto max-h-96 object-contain" src="a.png">`, out)
}

func TestDispatch_HighlightedCode(t *testing.T) {
	var gotCode string
	h := highlight.Func(func(code, language string) (templ.Component, bool) {
		gotCode = code
		return templ.Raw("<div data-lang=\"" + language + "\">hl</div>"), true
	})
	b := Bind(styles.Default(), h, nil)

	out := dispatchString(t, "<pre><code class=\"language-go\">x := 1\n</code></pre>", b)

	assert.Equal(t, "x := 1", gotCode)
	assert.Contains(t, out, `<div data-lang="go">hl</div>`)
	assert.True(t, strings.HasPrefix(out, `<pre class="bg-gray-100`))

	// Inline code is never highlighted.
	gotCode = ""
	dispatchString(t, `<p><code class="language-go">y</code></p>`, b)
	assert.Empty(t, gotCode)
}

func TestDispatch_UnsupportedLanguageFallsBack(t *testing.T) {
	h := highlight.Func(func(string, string) (templ.Component, bool) { return nil, false })
	out := dispatchString(t, `<pre><code class="language-zz">x</code></pre>`, Bind(nil, h, nil))
	assert.Contains(t, out, `<code class="font-mono text-sm">x</code>`)
}

func TestDispatch_InjectedComponents(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register("Badge", badge))
	require.NoError(t, reg.Register("Counter", counter))
	b := Bind(styles.Default(), nil, reg)

	out := dispatchString(t, `<p>Status: <badge color="green"><strong>Active</strong></badge></p>`, b)
	assert.Equal(t, `<p class="my-3 leading-relaxed">Status: <span data-badge="green"><strong class="font-bold">Active</strong></span></p>`, out)

	out = dispatchString(t, `<counter initial="5"></counter>`, b)
	assert.Equal(t, `<output data-children="false">5</output>`, out)
}

func TestDispatch_ComponentErrorPropagates(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register("Broken", func(registry.Props, templ.Component) templ.Component {
		return templ.ComponentFunc(func(context.Context, io.Writer) error {
			return fmt.Errorf("bad props")
		})
	}))

	nodes, err := ParseFragment(strings.NewReader("<broken></broken>"))
	require.NoError(t, err)
	err = Dispatch(nodes, Bind(nil, nil, reg)).Render(context.Background(), io.Discard)
	assert.EqualError(t, err, "bad props")
}

func TestPage(t *testing.T) {
	var buf bytes.Buffer
	err := Page(templ.Raw("<p>doc</p>"), PageOptions{
		Title:      "Notes <1>",
		Math:       true,
		ReloadPath: "/ws",
		Head:       templ.Raw("<style>.x{}</style>"),
	}).Render(context.Background(), &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "<title>Notes &lt;1&gt;</title>")
	assert.Contains(t, out, "katex.min.js")
	assert.NotContains(t, out, "mermaid")
	assert.Contains(t, out, "<p>doc</p>")
	assert.Contains(t, out, "'/ws'")
	assert.Less(t, strings.Index(out, "<style>.x{}</style>"), strings.Index(out, "</head>"))
	assert.True(t, strings.HasSuffix(out, "</html>\n"))
}
