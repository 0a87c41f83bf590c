//go:build property
// +build property

package shield

import (
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var fragments = []string{"`", "```", "\n", " ", "<Alert>", "</Alert>", "___CODE_BLOCK_", "0___", "_"}

// markdownPiece generates fragments that are likely to form code spans,
// fences and sentinel lookalikes when concatenated.
func markdownPiece() gopter.Gen {
	return gen.OneGenOf(
		gen.AlphaString(),
		gen.IntRange(0, len(fragments)-1).Map(func(i int) string { return fragments[i] }),
		gen.RegexMatch("`[a-z<>/ ]{1,8}`"),
		gen.RegexMatch("```[a-z]{0,4}\n[a-z`<> ]{0,12}\n```"),
	)
}

func TestShieldProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("unshield(shield(text)) == text", prop.ForAll(
		func(pieces []string) bool {
			text := strings.Join(pieces, "")
			shielded, table := Shield(text)
			return Unshield(shielded, table) == text
		},
		gen.SliceOf(markdownPiece()),
	))

	properties.Property("shielding removes the back-ticks of every span", prop.ForAll(
		func(pieces []string) bool {
			text := strings.Join(pieces, "")
			shielded, _ := Shield(text)
			return len(Scan(shielded)) == 0 || strings.Count(shielded, "`") < strings.Count(text, "`")
		},
		gen.SliceOf(markdownPiece()),
	))

	properties.Property("segments concatenate to the source", prop.ForAll(
		func(pieces []string) bool {
			text := strings.Join(pieces, "")
			var b strings.Builder
			for _, s := range Segments(text) {
				b.WriteString(s.Text)
			}
			return b.String() == text
		},
		gen.SliceOf(markdownPiece()),
	))

	properties.Property("placeholder indices are dense", prop.ForAll(
		func(pieces []string) bool {
			text := strings.Join(pieces, "")
			_, table := Shield(text)
			for i, e := range table.Entries {
				if !strings.HasPrefix(e.Placeholder, table.Prefix()) {
					return false
				}
				if e.Placeholder != table.Prefix()+strconv.Itoa(i)+"___" {
					return false
				}
			}
			return true
		},
		gen.SliceOf(markdownPiece()),
	))

	properties.TestingRun(t)
}
