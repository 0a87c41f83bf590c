// Package mathext is a goldmark extension for TeX math delimited by dollar
// signs. It does not typeset: TeX is emitted HTML-escaped inside wrappers
// that a client-side renderer such as KaTeX picks up.
//
//	$x^2$          <span class="math math-inline">x^2</span>
//	$$x^2$$        <span class="math math-inline">x^2</span> (inside a line)
//	$$             <div class="math math-display">...</div>
//	...
//	$$
package mathext

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Class names of the emitted wrappers.
const (
	InlineClass  = "math math-inline"
	DisplayClass = "math math-display"
)

// KindInlineMath is the NodeKind of InlineMath.
var KindInlineMath = ast.NewNodeKind("InlineMath")

// InlineMath is a TeX fragment inside a line.
type InlineMath struct {
	ast.BaseInline
	Value []byte
}

// Kind implements ast.Node.
func (n *InlineMath) Kind() ast.NodeKind {
	return KindInlineMath
}

// Dump implements ast.Node.
func (n *InlineMath) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Value": string(n.Value)}, nil)
}

// KindMathBlock is the NodeKind of MathBlock.
var KindMathBlock = ast.NewNodeKind("MathBlock")

// MathBlock is display math between $$ fence lines.
type MathBlock struct {
	ast.BaseBlock
	closed bool
}

// Kind implements ast.Node.
func (n *MathBlock) Kind() ast.NodeKind {
	return KindMathBlock
}

// IsRaw implements ast.Node. Lines of a math block are not inline parsed.
func (n *MathBlock) IsRaw() bool {
	return true
}

// Dump implements ast.Node.
func (n *MathBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

type inlineParser struct{}

// NewInlineParser returns the parser for $...$ and $$...$$ within a line.
func NewInlineParser() parser.InlineParser {
	return &inlineParser{}
}

func (p *inlineParser) Trigger() []byte {
	return []byte{'$'}
}

func (p *inlineParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	open := 0
	for open < len(line) && line[open] == '$' {
		open++
	}
	if open > 2 {
		return nil
	}

	for i := open; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
			continue
		case '$':
		default:
			continue
		}

		j := i
		for j < len(line) && line[j] == '$' {
			j++
		}
		if j-i == open && validInline(line[open:i], open, line[j:]) {
			block.Advance(j)
			return &InlineMath{Value: append([]byte(nil), line[open:i]...)}
		}
		i = j - 1
	}
	return nil
}

// validInline rejects empty math and, for single dollars, content padded
// with spaces or a closer followed by a digit, so prices like "$5 and $10"
// stay text.
func validInline(content []byte, delim int, after []byte) bool {
	if len(bytes.TrimSpace(content)) == 0 {
		return false
	}
	if delim == 2 {
		return true
	}
	if util.IsSpace(content[0]) || util.IsSpace(content[len(content)-1]) {
		return false
	}
	return len(after) == 0 || after[0] < '0' || after[0] > '9'
}

type blockParser struct{}

// NewBlockParser returns the parser for $$ fenced display math.
func NewBlockParser() parser.BlockParser {
	return &blockParser{}
}

func (b *blockParser) Trigger() []byte {
	return []byte{'$'}
}

func (b *blockParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || pos+1 >= len(line) || line[pos] != '$' || line[pos+1] != '$' {
		return nil, parser.NoChildren
	}

	node := &MathBlock{}
	rest := util.TrimRightSpace(line[pos+2:])
	if len(rest) == 0 {
		return node, parser.NoChildren
	}

	// Single line $$...$$ closes on the spot.
	if len(rest) > 2 && bytes.HasSuffix(rest, []byte("$$")) {
		start := segment.Start - segment.Padding + pos + 2
		node.Lines().Append(text.NewSegment(start, start+len(rest)-2))
		node.closed = true
		return node, parser.NoChildren
	}
	return nil, parser.NoChildren
}

func (b *blockParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	mb := node.(*MathBlock)
	if mb.closed {
		return parser.Close
	}

	line, segment := reader.PeekLine()
	w, pos := util.IndentWidth(line, reader.LineOffset())
	if w < 4 && bytes.Equal(util.TrimRightSpace(line[pos:]), []byte("$$")) {
		newline := 1
		if line[len(line)-1] != '\n' {
			newline = 0
		}
		reader.Advance(segment.Stop - segment.Start - newline + segment.Padding)
		mb.closed = true
		return parser.Close
	}

	seg := segment
	seg.ForceNewline = true
	node.Lines().Append(seg)
	reader.AdvanceAndSetPadding(segment.Stop-segment.Start-1, segment.Padding)
	return parser.Continue | parser.NoChildren
}

func (b *blockParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (b *blockParser) CanInterruptParagraph() bool {
	return true
}

func (b *blockParser) CanAcceptIndentedLine() bool {
	return false
}

type htmlRenderer struct{}

// NewRenderer returns the HTML renderer for math nodes.
func NewRenderer() renderer.NodeRenderer {
	return &htmlRenderer{}
}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *htmlRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindInlineMath, r.renderInline)
	reg.Register(KindMathBlock, r.renderBlock)
}

func (r *htmlRenderer) renderInline(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	node := n.(*InlineMath)
	_, _ = w.WriteString(`<span class="` + InlineClass + `">`)
	_, _ = w.Write(util.EscapeHTML(node.Value))
	_, _ = w.WriteString(`</span>`)
	return ast.WalkSkipChildren, nil
}

func (r *htmlRenderer) renderBlock(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString(`<div class="` + DisplayClass + `">`)
	lines := n.Lines()
	var buf bytes.Buffer
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	_, _ = w.Write(util.EscapeHTML(bytes.TrimRight(buf.Bytes(), "\n")))
	_, _ = w.WriteString("</div>\n")
	return ast.WalkSkipChildren, nil
}

// Extender registers the math parsers and renderer with goldmark.
type Extender struct{}

// Math is a ready to use Extender.
var Math = &Extender{}

// Extend implements goldmark.Extender.
func (e *Extender) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(util.Prioritized(NewBlockParser(), 701)),
		parser.WithInlineParsers(util.Prioritized(NewInlineParser(), 501)),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(util.Prioritized(NewRenderer(), 500)),
	)
}
