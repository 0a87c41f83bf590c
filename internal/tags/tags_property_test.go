//go:build property
// +build property

package tags

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var componentNames = []string{"Tab", "Tabs", "Alert", "Badge", "Counter"}

func tagPiece() gopter.Gen {
	pieces := []string{
		"<Tab>", "</Tab>", "<Tabs>", "</Tabs>", "<Tab label=\"x\">", "<Tabs label=\"y\">",
		"<Alert type=\"info\">", "</Alert>", "<Counter />", "<Counter initial=\"5\"/>",
		"<Badge", ">", "/>", " ", "\n", "`", "```\n", "<Tabsx>", "<TabA>", "text",
	}
	return gen.IntRange(0, len(pieces)-1).Map(func(i int) string { return pieces[i] })
}

func TestRewriteProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("rewrite is idempotent", prop.ForAll(
		func(parts []string) bool {
			text := strings.Join(parts, "")
			once := Rewrite(text, componentNames)
			return Rewrite(once, componentNames) == once
		},
		gen.SliceOf(tagPiece()),
	))

	properties.Property("protected rewrite is idempotent", prop.ForAll(
		func(parts []string) bool {
			text := strings.Join(parts, "")
			once := RewriteProtected(text, componentNames)
			return RewriteProtected(once, componentNames) == once
		},
		gen.SliceOf(tagPiece()),
	))

	properties.Property("tags that only share a prefix survive", prop.ForAll(
		func(parts []string) bool {
			text := strings.Join(parts, "")
			out := Rewrite(text, componentNames)
			return strings.Count(out, "<Tabsx>") == strings.Count(text, "<Tabsx>") &&
				strings.Count(out, "<TabA>") == strings.Count(text, "<TabA>")
		},
		gen.SliceOf(tagPiece()),
	))

	properties.Property("no registered closing tag survives", prop.ForAll(
		func(parts []string) bool {
			text := strings.Join(parts, "")
			out := Rewrite(text, componentNames)
			return strings.Count(out, "</Tabs>") == 0 && strings.Count(out, "</Tab>") == 0
		},
		gen.SliceOf(tagPiece()),
	))

	properties.TestingRun(t)
}
