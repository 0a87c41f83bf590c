// Package shield locates code blocks and inline code spans in markdown
// source so that text transforms can leave code untouched. Code is whatever
// goldmark parses as code, including fences nested in lists or blockquotes,
// tilde fences and indented blocks.
//
// Two strategies are offered. Shield/Unshield swap every code span for a
// reversible placeholder token. Segments splits the source into alternating
// prose and code pieces so a caller can transform the prose only, with no
// restore step.
package shield

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind identifies the flavour of a protected span.
type Kind int

const (
	// KindFence is a back-tick or tilde fenced block.
	KindFence Kind = iota
	// KindInline is a back-tick code span.
	KindInline
	// KindIndented is an indented code block.
	KindIndented
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindFence:
		return "fence"
	case KindInline:
		return "inline"
	case KindIndented:
		return "indented"
	default:
		return "unknown"
	}
}

// Span is a half-open byte range [Start, End) of protected code.
type Span struct {
	Start int
	End   int
	Kind  Kind
}

// Text returns the bytes of src covered by the span.
func (s Span) Text(src string) string {
	return src[s.Start:s.End]
}

// SentinelPrefix is the default placeholder prefix.
const SentinelPrefix = "___CODE_BLOCK_"

const sentinelSuffix = "___"

// Entry pairs a placeholder with the code it replaced.
type Entry struct {
	Placeholder string
	Original    string
}

// RestoreTable records the substitutions of one Shield call in discovery
// order.
type RestoreTable struct {
	prefix  string
	Entries []Entry
}

// Len returns the number of shielded spans.
func (t RestoreTable) Len() int {
	return len(t.Entries)
}

// Prefix returns the sentinel prefix used for the placeholders.
func (t RestoreTable) Prefix() string {
	return t.prefix
}

// Shield replaces every code span in text with a placeholder of the form
// ___CODE_BLOCK_<n>___, n being a dense 0-based index. The prefix is
// lengthened with leading underscores until it does not occur in text, so a
// placeholder never matches document text.
func Shield(text string) (string, RestoreTable) {
	spans := Scan(text)
	if len(spans) == 0 {
		return text, RestoreTable{prefix: SentinelPrefix}
	}

	prefix := SentinelPrefix
	for strings.Contains(text, prefix) {
		prefix = "_" + prefix
	}

	table := RestoreTable{prefix: prefix, Entries: make([]Entry, 0, len(spans))}

	var b strings.Builder
	b.Grow(len(text))
	cursor := 0
	for i, span := range spans {
		ph := prefix + strconv.Itoa(i) + sentinelSuffix
		b.WriteString(text[cursor:span.Start])
		b.WriteString(ph)
		table.Entries = append(table.Entries, Entry{Placeholder: ph, Original: span.Text(text)})
		cursor = span.End
	}
	b.WriteString(text[cursor:])

	return b.String(), table
}

// Unshield restores the code replaced by Shield. Each placeholder is replaced
// at most once; a placeholder that no longer appears in text is skipped.
// Text must not be restructured between Shield and Unshield.
func Unshield(text string, table RestoreTable) string {
	if len(table.Entries) == 0 {
		return text
	}

	prefix := table.prefix
	if prefix == "" {
		prefix = SentinelPrefix
	}

	originals := make(map[string]string, len(table.Entries))
	for _, e := range table.Entries {
		originals[e.Placeholder] = e.Original
	}

	// A single left-to-right pass consumes each real placeholder whole, so
	// a placeholder's trailing underscores can never seed a false match.
	pattern := regexp.MustCompile(regexp.QuoteMeta(prefix) + `[0-9]+` + sentinelSuffix)
	return pattern.ReplaceAllStringFunc(text, func(ph string) string {
		orig, ok := originals[ph]
		if !ok {
			return ph
		}
		delete(originals, ph)
		return orig
	})
}

// Segment is a run of source text that is either all prose or one code span.
type Segment struct {
	Text string
	Code bool
	Kind Kind
}

// Segments splits text into alternating prose and code segments. Joining the
// Text of every segment yields text again.
func Segments(text string) []Segment {
	spans := Scan(text)
	if len(spans) == 0 {
		if text == "" {
			return nil
		}
		return []Segment{{Text: text}}
	}

	segments := make([]Segment, 0, 2*len(spans)+1)
	cursor := 0
	for _, span := range spans {
		if span.Start > cursor {
			segments = append(segments, Segment{Text: text[cursor:span.Start]})
		}
		segments = append(segments, Segment{Text: span.Text(text), Code: true, Kind: span.Kind})
		cursor = span.End
	}
	if cursor < len(text) {
		segments = append(segments, Segment{Text: text[cursor:]})
	}
	return segments
}
