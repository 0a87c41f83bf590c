package shield

import (
	"bytes"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	gtext "github.com/yuin/goldmark/text"
)

// codeParser is a plain CommonMark parser. It is only used to locate code,
// so no extension that changes block structure is registered.
var codeParser parser.Parser = goldmark.DefaultParser()

// Scan returns the sorted, non-overlapping code spans in text. A fence span
// runs from the opening fence marker to the end of the closing fence line;
// an unclosed fence runs to the end of its container. Quote markers of
// continuation lines are part of the span.
func Scan(text string) []Span {
	if !mayHoldCode(text) {
		return nil
	}

	src := []byte(text)
	doc := codeParser.Parse(gtext.NewReader(src))

	var spans []Span
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.FencedCodeBlock:
			if span, ok := fenceSpan(src, node); ok {
				spans = append(spans, span)
			}
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock:
			if span, ok := indentedSpan(src, node); ok {
				spans = append(spans, span)
			}
			return ast.WalkSkipChildren, nil
		case *ast.CodeSpan:
			if span, ok := inlineSpan(src, node); ok {
				spans = append(spans, span)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return normalize(spans)
}

// mayHoldCode reports whether text can contain any code construct at all.
func mayHoldCode(text string) bool {
	return strings.ContainsAny(text, "`~\t") || strings.Contains(text, "    ")
}

func fenceSpan(src []byte, n *ast.FencedCodeBlock) (Span, bool) {
	lines := n.Lines()

	var open int
	switch {
	case n.Info != nil:
		open = lineStart(src, n.Info.Segment.Start)
	case lines.Len() > 0:
		first := lineStart(src, lines.At(0).Start)
		if first == 0 {
			return Span{}, false
		}
		open = lineStart(src, first-1)
	default:
		return Span{}, false
	}

	openEnd := lineEnd(src, open)
	marker := bytes.IndexAny(src[open:openEnd], "`~")
	if marker < 0 {
		return Span{}, false
	}
	start := open + marker
	fence := src[start]
	width := 0
	for start+width < openEnd && src[start+width] == fence {
		width++
	}

	end := openEnd
	if lines.Len() > 0 {
		end = lineEnd(src, lines.At(lines.Len()-1).Start)
	}
	if end < len(src) {
		next := end + 1
		nextEnd := lineEnd(src, next)
		if closesFence(src[next:nextEnd], fence, width) {
			end = nextEnd
		}
	}
	return Span{Start: start, End: end, Kind: KindFence}, true
}

// closesFence reports whether line, after any indentation and quote markers,
// is a run of at least width fence characters.
func closesFence(line []byte, fence byte, width int) bool {
	line = bytes.TrimLeft(line, " \t>")
	run := 0
	for run < len(line) && line[run] == fence {
		run++
	}
	return run >= width && len(bytes.TrimRight(line[run:], " \t\r")) == 0
}

func indentedSpan(src []byte, n *ast.CodeBlock) (Span, bool) {
	lines := n.Lines()
	if lines.Len() == 0 {
		return Span{}, false
	}
	start := lines.At(0).Start
	end := lineEnd(src, lines.At(lines.Len()-1).Start)
	if start >= end {
		return Span{}, false
	}
	return Span{Start: start, End: end, Kind: KindIndented}, true
}

// inlineSpan widens the content of a code span to its back-tick runs. The
// parser drops one space on each side of padded content.
func inlineSpan(src []byte, n *ast.CodeSpan) (Span, bool) {
	first, ok := n.FirstChild().(*ast.Text)
	if !ok {
		return Span{}, false
	}
	last, ok := n.LastChild().(*ast.Text)
	if !ok {
		return Span{}, false
	}

	start, end := first.Segment.Start, last.Segment.Stop
	if end < len(src) && src[end] != '`' {
		end++
	}
	run := 0
	for end+run < len(src) && src[end+run] == '`' {
		run++
	}
	if start > 0 && src[start-1] != '`' {
		start--
	}
	start -= run
	if run == 0 || start < 0 {
		return Span{}, false
	}
	return Span{Start: start, End: end + run, Kind: KindInline}, true
}

// normalize sorts spans and clips any span that runs into its successor.
func normalize(spans []Span) []Span {
	if len(spans) == 0 {
		return nil
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })

	out := spans[:0]
	for _, s := range spans {
		if n := len(out); n > 0 && out[n-1].End > s.Start {
			out[n-1].End = s.Start
			if out[n-1].End <= out[n-1].Start {
				out = out[:n-1]
			}
		}
		if s.End > s.Start {
			out = append(out, s)
		}
	}
	return out
}

func lineStart(src []byte, i int) int {
	return bytes.LastIndexByte(src[:i], '\n') + 1
}

func lineEnd(src []byte, i int) int {
	if j := bytes.IndexByte(src[i:], '\n'); j >= 0 {
		return i + j
	}
	return len(src)
}
