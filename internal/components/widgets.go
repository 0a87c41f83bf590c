package components

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/url"
	"regexp"
	"strconv"

	"github.com/a-h/templ"

	"github.com/conneroisu/templmd/internal/registry"
)

var colorName = regexp.MustCompile(`^[a-z]+$`)

var alertClasses = map[string]string{
	"info":    "bg-blue-50 border-blue-500 text-blue-900",
	"success": "bg-green-50 border-green-500 text-green-900",
	"warning": "bg-yellow-50 border-yellow-500 text-yellow-900",
	"error":   "bg-red-50 border-red-500 text-red-900",
}

// Alert renders a callout. Unknown types use the info styling but keep the
// given type in data-type. It is block-level: its tags belong on their own
// lines, since inside a paragraph the <div> would end up in a <p>.
func Alert(props registry.Props, children templ.Component) templ.Component {
	kind := props.String("type", "info")
	class, ok := alertClasses[kind]
	if !ok {
		class = alertClasses["info"]
	}
	open := fmt.Sprintf(`<div role="alert" data-type="%s" class="%s">`,
		attr(kind), attr(classes("border-l-4 p-4 my-4 rounded", class, "alert-"+kind)))
	return wrap(open, "</div>", children)
}

// Badge renders an inline pill. Colors that are not a plain lowercase word
// fall back to blue.
func Badge(props registry.Props, children templ.Component) templ.Component {
	color := props.String("color", "blue")
	if !colorName.MatchString(color) {
		color = "blue"
	}
	open := fmt.Sprintf(`<span data-color="%s" class="inline-block px-3 py-1 text-sm font-semibold rounded-full bg-%s-100 text-%s-800 mx-1">`,
		color, color, color)
	return wrap(open, "</span>", children)
}

// Card renders a bordered panel with an optional title. Like Alert it is
// block-level and must not be used inside a line of prose.
func Card(props registry.Props, children templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out := &writer{w: w}
		out.raw(`<div class="border border-gray-200 rounded-lg p-6 my-4 shadow-sm bg-white">`)
		if title := props.String("title", ""); title != "" {
			out.raw(`<h3 class="text-lg font-semibold mb-3 text-gray-900">`)
			out.text(title)
			out.raw(`</h3>`)
		}
		out.raw(`<div class="text-gray-700">`)
		out.render(ctx, children)
		out.raw(`</div></div>`)
		return out.err
	})
}

// Button renders a button. Any variant other than primary gets the
// secondary styling.
func Button(props registry.Props, children templ.Component) templ.Component {
	style := "bg-gray-200 hover:bg-gray-300 text-gray-800"
	if props.String("variant", "primary") == "primary" {
		style = "bg-blue-600 hover:bg-blue-700 text-white"
	}
	return wrap(`<button type="button" class="px-4 py-2 rounded font-medium transition `+style+`">`, "</button>", children)
}

// Collapsible renders a <details> element that starts open only when
// defaultopen is true, True or 1. It is block-level.
func Collapsible(props registry.Props, children templ.Component) templ.Component {
	open := ""
	switch props.String("defaultopen", "") {
	case "true", "True", "1":
		open = " open"
	}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out := &writer{w: w}
		out.raw(`<details class="border border-gray-300 rounded-lg my-4 overflow-hidden"`, open, `>`)
		out.raw(`<summary class="w-full px-4 py-3 bg-gray-50 hover:bg-gray-100 cursor-pointer font-medium transition"><span>`)
		out.text(props.String("title", ""))
		out.raw(`</span></summary><div class="p-4 bg-white">`)
		out.render(ctx, children)
		out.raw(`</div></details>`)
		return out.err
	})
}

var progressColors = map[string]string{
	"blue":   "bg-blue-600",
	"green":  "bg-green-600",
	"red":    "bg-red-600",
	"yellow": "bg-yellow-600",
	"purple": "bg-purple-600",
}

// Percentage returns value/max as a percentage clamped to [0, 100]. A
// non-positive max counts as 100.
func Percentage(value, limit float64) float64 {
	if limit <= 0 || math.IsNaN(limit) || math.IsInf(limit, 0) {
		limit = 100
	}
	if math.IsNaN(value) {
		value = 0
	}
	return math.Min(100, math.Max(0, value/limit*100))
}

// ProgressBar renders a bar filled to value/max. Malformed values count as
// 0 and malformed maxima as 100.
func ProgressBar(props registry.Props, _ templ.Component) templ.Component {
	pct := Percentage(props.Float("value", 0), props.Float("max", 100))
	fill, ok := progressColors[props.String("color", "blue")]
	if !ok {
		fill = progressColors["blue"]
	}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out := &writer{w: w}
		out.raw(`<div class="my-4">`)
		if label := props.String("label", ""); label != "" {
			out.raw(`<div class="text-sm font-medium mb-2 text-gray-700">`)
			out.text(label)
			out.raw(`</div>`)
		}
		out.raw(`<div class="w-full bg-gray-200 rounded-full h-4 overflow-hidden" role="progressbar" aria-valuenow="`,
			strconv.FormatFloat(pct, 'f', -1, 64), `" aria-valuemin="0" aria-valuemax="100">`)
		out.raw(`<div class="h-full `, fill, ` transition-all duration-300 flex items-center justify-end pr-2" style="width: `,
			strconv.FormatFloat(pct, 'f', -1, 64), `%">`)
		out.raw(`<span class="text-xs text-white font-semibold">`, strconv.Itoa(int(math.Round(pct))), `%</span>`)
		out.raw(`</div></div></div>`)
		return out.err
	})
}

// Counter renders a value with decrement and increment buttons. The buttons
// are driven by the page script. Malformed initial values count as 0 and a
// malformed or zero step as 1.
func Counter(props registry.Props, _ templ.Component) templ.Component {
	initial := props.Int("initial", 0)
	step := props.Int("step", 1)
	if step == 0 {
		step = 1
	}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out := &writer{w: w}
		out.raw(`<div class="inline-flex items-center gap-3 p-4 border border-gray-300 rounded-lg bg-white my-2" data-templmd-counter data-step="`,
			strconv.Itoa(step), `">`)
		if label := props.String("label", ""); label != "" {
			out.raw(`<span class="font-medium text-gray-700">`)
			out.text(label)
			out.raw(`:</span>`)
		}
		out.raw(`<button type="button" data-action="decrement" class="px-3 py-1 bg-red-500 hover:bg-red-600 text-white rounded font-bold transition">−</button>`)
		out.raw(`<span data-count class="text-2xl font-bold text-gray-900 min-w-[3rem] text-center">`, strconv.Itoa(initial), `</span>`)
		out.raw(`<button type="button" data-action="increment" class="px-3 py-1 bg-green-500 hover:bg-green-600 text-white rounded font-bold transition">+</button>`)
		out.raw(`</div>`)
		return out.err
	})
}

type tabsKey struct{}

// tabSet collects the labels of the Tab panels rendered inside one Tabs.
type tabSet struct {
	labels []string
}

// Tabs renders its Tab children as panels behind a row of buttons. Only the
// first panel is visible until the page script switches tabs.
func Tabs(_ registry.Props, children templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		set := &tabSet{}
		var panels bytes.Buffer
		if children != nil {
			if err := children.Render(context.WithValue(ctx, tabsKey{}, set), &panels); err != nil {
				return err
			}
		}

		out := &writer{w: w}
		out.raw(`<div class="border border-gray-300 rounded-lg my-4 overflow-hidden" data-templmd-tabs>`)
		out.raw(`<div role="tablist" class="flex border-b border-gray-300 bg-gray-50 overflow-x-auto">`)
		for i, label := range set.labels {
			class := "text-gray-600 hover:text-gray-900"
			selected := "false"
			if i == 0 {
				class = "bg-white border-b-2 border-blue-600 text-blue-600"
				selected = "true"
			}
			out.raw(`<button type="button" role="tab" data-tab-index="`, strconv.Itoa(i), `" aria-selected="`, selected,
				`" class="px-4 py-2 font-medium transition whitespace-nowrap `, class, `">`)
			out.text(label)
			out.raw(`</button>`)
		}
		out.raw(`</div><div class="p-4 bg-white">`)
		out.raw(panels.String())
		out.raw(`</div></div>`)
		return out.err
	})
}

// Tab renders one panel of the enclosing Tabs. Outside a Tabs it renders its
// children in a plain <div>.
func Tab(props registry.Props, children templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		set, ok := ctx.Value(tabsKey{}).(*tabSet)
		if !ok {
			return wrap("<div>", "</div>", children).Render(ctx, w)
		}

		index := len(set.labels)
		label := props.String("label", "")
		if label == "" {
			label = "Tab " + strconv.Itoa(index+1)
		}
		set.labels = append(set.labels, label)

		hidden := ""
		if index > 0 {
			hidden = " hidden"
		}
		open := `<div role="tabpanel" data-tab-panel="` + strconv.Itoa(index) + `"` + hidden + `>`
		// Nested Tabs get their own set.
		return wrap(open, "</div>", children).Render(ctx, w)
	})
}

var highlightClasses = map[string]string{
	"yellow": "bg-yellow-200 border-yellow-400",
	"pink":   "bg-pink-200 border-pink-400",
	"green":  "bg-green-200 border-green-400",
	"blue":   "bg-blue-200 border-blue-400",
}

// Highlight marks text with a colored background. Unknown colors are
// yellow.
func Highlight(props registry.Props, children templ.Component) templ.Component {
	class, ok := highlightClasses[props.String("color", "yellow")]
	if !ok {
		class = highlightClasses["yellow"]
	}
	return wrap(`<span class="px-2 py-1 `+class+` border-b-2 font-medium">`, "</span>", children)
}

var videoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([^&\n?#]+)`),
	regexp.MustCompile(`^([a-zA-Z0-9_-]{11})$`),
}

// VideoID extracts the video id from a watch, short or embed URL, or
// accepts a bare 11 character id.
func VideoID(u string) (string, bool) {
	for _, re := range videoPatterns {
		if m := re.FindStringSubmatch(u); m != nil && m[1] != "" {
			return m[1], true
		}
	}
	return "", false
}

// YoutubeVideo embeds a YouTube player, or renders an error box when the URL
// has no recognizable video id.
func YoutubeVideo(props registry.Props, _ templ.Component) templ.Component {
	raw := props.String("url", "")
	id, ok := VideoID(raw)
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out := &writer{w: w}
		if !ok {
			out.raw(`<div class="my-4 p-4 border border-red-300 bg-red-50 rounded text-red-800">Invalid YouTube URL: `)
			out.text(raw)
			out.raw(`</div>`)
			return out.err
		}
		out.raw(`<div class="my-4 relative" style="padding-bottom: 56.25%; height: 0; overflow: hidden;">`)
		out.raw(`<iframe class="absolute top-0 left-0 w-full h-full rounded-lg shadow-lg" src="https://www.youtube.com/embed/`,
			attr(url.PathEscape(id)), `" width="`, attr(props.String("width", "100%")), `" height="`, attr(props.String("height", "400")),
			`" title="YouTube video player" frameborder="0" allow="accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture" allowfullscreen></iframe>`)
		out.raw(`</div>`)
		return out.err
	})
}
