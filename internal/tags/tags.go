// Package tags rewrites registered component tags into their canonical
// lowercase form so the markdown parser passes them through as raw HTML.
package tags

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/conneroisu/templmd/internal/shield"
)

// Canonical returns the canonical tag name of a component name.
func Canonical(name string) string {
	// cases.Caser keeps state, so one is built per call.
	return cases.Lower(language.Und).String(name)
}

// Rewriter rewrites the opening, closing and self-closing tags of a fixed set
// of component names. All patterns are RE2 and run in linear time. A Rewriter
// is safe for concurrent use.
type Rewriter struct {
	names     []string
	selfClose *regexp.Regexp
	open      *regexp.Regexp
	close     *regexp.Regexp
}

// NewRewriter compiles the rewrite rules for names. Empty names are ignored.
func NewRewriter(names []string) *Rewriter {
	uniq := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		uniq = append(uniq, n)
	}

	r := &Rewriter{names: uniq}
	if len(uniq) == 0 {
		return r
	}

	// Longest first keeps the alternation readable; correctness comes from
	// the boundary that must follow the name.
	ordered := append([]string(nil), uniq...)
	sort.SliceStable(ordered, func(i, j int) bool { return len(ordered[i]) > len(ordered[j]) })
	quoted := make([]string, len(ordered))
	for i, n := range ordered {
		quoted[i] = regexp.QuoteMeta(n)
	}
	alt := "(" + strings.Join(quoted, "|") + ")"

	r.selfClose = regexp.MustCompile(`<` + alt + `(\s[^<>]*?)?\s*/>`)
	r.open = regexp.MustCompile(`<` + alt + `([\s>])`)
	r.close = regexp.MustCompile(`</` + alt + `\s*>`)
	return r
}

// Names returns the names the rewriter matches.
func (r *Rewriter) Names() []string {
	return append([]string(nil), r.names...)
}

// Empty reports whether the rewriter has no names to match.
func (r *Rewriter) Empty() bool {
	return len(r.names) == 0
}

// Rewrite applies the rules to text with no regard for code spans.
//
//	<N attrs />  ->  <n attrs></n>
//	<N           ->  <n   (followed by whitespace or '>')
//	</N>         ->  </n>
//
// Only exact, case-sensitive occurrences of a registered name are touched.
func (r *Rewriter) Rewrite(text string) string {
	if r.Empty() || !strings.Contains(text, "<") {
		return text
	}

	text = replaceSubmatch(r.selfClose, text, func(m []string) string {
		c := Canonical(m[1])
		return "<" + c + strings.TrimRightFunc(m[2], unicode.IsSpace) + "></" + c + ">"
	})
	text = replaceSubmatch(r.open, text, func(m []string) string {
		return "<" + Canonical(m[1]) + m[2]
	})
	return replaceSubmatch(r.close, text, func(m []string) string {
		return "</" + Canonical(m[1]) + ">"
	})
}

// RewriteProtected rewrites the prose between code spans and copies code
// spans through unchanged. No placeholder or restore step is involved.
func (r *Rewriter) RewriteProtected(text string) string {
	if r.Empty() || !strings.Contains(text, "<") {
		return text
	}

	segments := shield.Segments(text)
	var b strings.Builder
	b.Grow(len(text))
	for _, seg := range segments {
		if seg.Code {
			b.WriteString(seg.Text)
			continue
		}
		b.WriteString(r.Rewrite(seg.Text))
	}
	return b.String()
}

// RewriteShielded replaces code spans with placeholders, rewrites the result
// and restores the code. It agrees with RewriteProtected unless a tag
// straddles a code span, e.g. an unquoted attribute value holding inline code.
func (r *Rewriter) RewriteShielded(text string) string {
	if r.Empty() || !strings.Contains(text, "<") {
		return text
	}

	shielded, table := shield.Shield(text)
	return shield.Unshield(r.Rewrite(shielded), table)
}

// Rewrite is a convenience wrapper around NewRewriter(names).Rewrite.
func Rewrite(text string, names []string) string {
	return NewRewriter(names).Rewrite(text)
}

// RewriteProtected is a convenience wrapper around
// NewRewriter(names).RewriteProtected.
func RewriteProtected(text string, names []string) string {
	return NewRewriter(names).RewriteProtected(text)
}

// RewriteShielded is a convenience wrapper around
// NewRewriter(names).RewriteShielded.
func RewriteShielded(text string, names []string) string {
	return NewRewriter(names).RewriteShielded(text)
}

func replaceSubmatch(re *regexp.Regexp, text string, fn func(m []string) string) string {
	locs := re.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	cursor := 0
	m := make([]string, re.NumSubexp()+1)
	for _, loc := range locs {
		for i := range m {
			if loc[2*i] < 0 {
				m[i] = ""
				continue
			}
			m[i] = text[loc[2*i]:loc[2*i+1]]
		}
		b.WriteString(text[cursor:loc[0]])
		b.WriteString(fn(m))
		cursor = loc[1]
	}
	b.WriteString(text[cursor:])
	return b.String()
}
