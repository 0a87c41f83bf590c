package mathext

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
)

func convert(t *testing.T, src string) string {
	t.Helper()
	md := goldmark.New(goldmark.WithExtensions(Math))
	var buf bytes.Buffer
	require.NoError(t, md.Convert([]byte(src), &buf))
	return buf.String()
}

func TestInlineMath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains string
	}{
		{"single dollars", "Energy $E=mc^2$ here", `<span class="math math-inline">E=mc^2</span>`},
		{"double dollars in a line", "so $$a+b$$ holds", `<span class="math math-inline">a+b</span>`},
		{"escapes html", "$a<b$", `<span class="math math-inline">a&lt;b</span>`},
		{"escaped dollar inside", `$a\$b$`, `<span class="math math-inline">a\$b</span>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, convert(t, tt.input), tt.contains)
		})
	}
}

func TestInlineMath_NotMath(t *testing.T) {
	for _, input := range []string{
		"costs $5 and $10 today",
		"a lone $ sign",
		"spaced $ x $ out",
		"empty $$ here",
	} {
		t.Run(input, func(t *testing.T) {
			assert.NotContains(t, convert(t, input), "math-inline")
		})
	}
}

func TestInlineMath_InsideCodeSpan(t *testing.T) {
	out := convert(t, "`$x$`")
	assert.NotContains(t, out, "math")
	assert.Contains(t, out, "<code>$x$</code>")
}

func TestMathBlock(t *testing.T) {
	out := convert(t, "before\n\n$$\n\\int_0^1 x\\,dx\n< 1\n$$\n\nafter")

	assert.Contains(t, out, `<div class="math math-display">\int_0^1 x\,dx
&lt; 1</div>`)
	assert.Contains(t, out, "<p>after</p>")
}

func TestMathBlock_SingleLine(t *testing.T) {
	out := convert(t, "$$x^2$$\n\nnext")
	assert.Contains(t, out, `<div class="math math-display">x^2</div>`)
	assert.Contains(t, out, "<p>next</p>")
}

func TestMathBlock_Unclosed(t *testing.T) {
	out := convert(t, "$$\na\nb")
	assert.True(t, strings.HasPrefix(out, `<div class="math math-display">a`))
}

func TestMathBlock_InterruptsParagraph(t *testing.T) {
	out := convert(t, "text\n$$\nx\n$$")
	assert.Contains(t, out, "<p>text</p>")
	assert.Contains(t, out, `<div class="math math-display">x</div>`)
}
