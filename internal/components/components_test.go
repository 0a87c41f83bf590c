package components

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/templmd/internal/pipeline"
	"github.com/conneroisu/templmd/internal/registry"
	"github.com/conneroisu/templmd/internal/sanitize"
)

func renderComponent(t *testing.T, c registry.Component, props registry.Props, children string) string {
	t.Helper()
	var kids templ.Component
	if children != "" {
		kids = templ.Raw(children)
	}
	var buf bytes.Buffer
	require.NoError(t, c(props, kids).Render(context.Background(), &buf))
	return buf.String()
}

func TestBuiltins(t *testing.T) {
	r := Builtins()

	assert.Equal(t, []string{
		"Alert", "Badge", "Card", "Button", "Collapsible", "ProgressBar",
		"Counter", "Tabs", "Tab", "Highlight", "YoutubeVideo",
	}, r.Names())

	for _, entry := range r.Entries() {
		assert.NotEmpty(t, entry.Description, entry.Name)
		for _, a := range entry.Attributes {
			assert.Contains(t, sanitize.ComponentAttributes, a.Name, "%s.%s must survive sanitizing", entry.Name, a.Name)
		}
	}

	assert.NotSame(t, r, Builtins())
}

func TestAlert(t *testing.T) {
	out := renderComponent(t, Alert, registry.Props{"type": "warning"}, "careful")
	assert.Contains(t, out, `data-type="warning"`)
	assert.Contains(t, out, "bg-yellow-50")
	assert.Contains(t, out, ">careful</div>")

	out = renderComponent(t, Alert, nil, "x")
	assert.Contains(t, out, `data-type="info"`)

	out = renderComponent(t, Alert, registry.Props{"type": `"><script>`}, "x")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "bg-blue-50")
}

func TestBadge(t *testing.T) {
	out := renderComponent(t, Badge, registry.Props{"color": "green"}, "Active")
	assert.Equal(t, `<span data-color="green" class="inline-block px-3 py-1 text-sm font-semibold rounded-full bg-green-100 text-green-800 mx-1">Active</span>`, out)

	out = renderComponent(t, Badge, registry.Props{"color": "red x"}, "x")
	assert.Contains(t, out, "bg-blue-100")
}

func TestCard(t *testing.T) {
	out := renderComponent(t, Card, registry.Props{"title": "A & B"}, "<p>body</p>")
	assert.Contains(t, out, `<h3 class="text-lg font-semibold mb-3 text-gray-900">A &amp; B</h3>`)
	assert.Contains(t, out, "<p>body</p>")

	out = renderComponent(t, Card, nil, "body")
	assert.NotContains(t, out, "<h3")
}

func TestButton(t *testing.T) {
	assert.Contains(t, renderComponent(t, Button, nil, "Go"), "bg-blue-600")
	assert.Contains(t, renderComponent(t, Button, registry.Props{"variant": "secondary"}, "Go"), "bg-gray-200")
	assert.Contains(t, renderComponent(t, Button, registry.Props{"variant": "danger"}, "Go"), "bg-gray-200")
}

func TestCollapsible(t *testing.T) {
	tests := []struct {
		value string
		open  bool
	}{
		{"true", true},
		{"True", true},
		{"1", true},
		{"TRUE", false},
		{"false", false},
		{"yes", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			out := renderComponent(t, Collapsible, registry.Props{"title": "More", "defaultopen": tt.value}, "hidden text")
			assert.Equal(t, tt.open, strings.Contains(out, " open>"))
			assert.Contains(t, out, "<span>More</span>")
			assert.Contains(t, out, "hidden text")
		})
	}

	assert.NotContains(t, renderComponent(t, Collapsible, nil, "x"), " open>")
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		name       string
		value, max float64
		expected   float64
	}{
		{"half", 50, 100, 50},
		{"custom max", 3, 4, 75},
		{"over", 150, 100, 100},
		{"negative value", -5, 100, 0},
		{"zero max", 50, 0, 50},
		{"negative max", 25, -1, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Percentage(tt.value, tt.max), 1e-9)
		})
	}
}

func TestProgressBar(t *testing.T) {
	out := renderComponent(t, ProgressBar, registry.Props{"value": "1", "max": "3", "color": "green", "label": "Done"}, "")
	assert.Contains(t, out, "bg-green-600")
	assert.Contains(t, out, ">Done</div>")
	assert.Contains(t, out, ">33%</span>")

	out = renderComponent(t, ProgressBar, registry.Props{"value": "abc", "max": "zero", "color": "teal"}, "")
	assert.Contains(t, out, "bg-blue-600")
	assert.Contains(t, out, `style="width: 0%"`)
	assert.Contains(t, out, ">0%</span>")
}

func TestCounter(t *testing.T) {
	out := renderComponent(t, Counter, registry.Props{"initial": "5", "step": "2", "label": "Clicks"}, "")
	assert.Contains(t, out, `data-step="2"`)
	assert.Contains(t, out, ">5</span>")
	assert.Contains(t, out, ">Clicks:</span>")

	out = renderComponent(t, Counter, registry.Props{"initial": "many", "step": "0"}, "")
	assert.Contains(t, out, `data-step="1"`)
	assert.Contains(t, out, ">0</span>")
	assert.NotContains(t, out, "font-medium text-gray-700")
}

func TestTabs(t *testing.T) {
	children := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := Tab(registry.Props{"label": "One"}, templ.Raw("first")).Render(ctx, w); err != nil {
			return err
		}
		return Tab(nil, templ.Raw("second")).Render(ctx, w)
	})

	var buf bytes.Buffer
	require.NoError(t, Tabs(nil, children).Render(context.Background(), &buf))
	out := buf.String()

	assert.Contains(t, out, `data-tab-index="0" aria-selected="true"`)
	assert.Contains(t, out, ">One</button>")
	assert.Contains(t, out, ">Tab 2</button>")
	assert.Contains(t, out, `<div role="tabpanel" data-tab-panel="0">first</div>`)
	assert.Contains(t, out, `<div role="tabpanel" data-tab-panel="1" hidden>second</div>`)
}

func TestTab_OutsideTabs(t *testing.T) {
	assert.Equal(t, "<div>alone</div>", renderComponent(t, Tab, registry.Props{"label": "x"}, "alone"))
}

func TestTabs_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	failing := templ.ComponentFunc(func(context.Context, io.Writer) error { return boom })

	err := Tabs(nil, failing).Render(context.Background(), io.Discard)
	assert.ErrorIs(t, err, boom)
}

func TestHighlight(t *testing.T) {
	assert.Contains(t, renderComponent(t, Highlight, registry.Props{"color": "pink"}, "x"), "bg-pink-200")
	assert.Contains(t, renderComponent(t, Highlight, registry.Props{"color": "orange"}, "x"), "bg-yellow-200")
}

func TestVideoID(t *testing.T) {
	tests := []struct {
		url string
		id  string
		ok  bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=10", "dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ?autoplay=1", "dQw4w9WgXcQ", true},
		{"dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://vimeo.com/123", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			id, ok := VideoID(tt.url)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.id, id)
		})
	}
}

func TestYoutubeVideo(t *testing.T) {
	out := renderComponent(t, YoutubeVideo, registry.Props{"url": "https://youtu.be/dQw4w9WgXcQ", "height": "300"}, "")
	assert.Contains(t, out, `src="https://www.youtube.com/embed/dQw4w9WgXcQ"`)
	assert.Contains(t, out, `height="300"`)
	assert.Contains(t, out, `width="100%"`)

	out = renderComponent(t, YoutubeVideo, registry.Props{"url": "<bad>"}, "")
	assert.Contains(t, out, "Invalid YouTube URL: &lt;bad&gt;")
	assert.NotContains(t, out, "<iframe")
}

func TestScript(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Script().Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "data-templmd-counter")
	assert.Contains(t, buf.String(), "data-templmd-tabs")
}

func TestBuiltins_ThroughPipeline(t *testing.T) {
	src := strings.Join([]string{
		`# Demo`,
		``,
		`<Alert type="success">`,
		`Saved`,
		`</Alert>`,
		``,
		`<Tabs>`,
		`<Tab label="One">First</Tab>`,
		`<Tab label="Two">Second</Tab>`,
		`</Tabs>`,
		``,
		`Progress: <ProgressBar value="3" max="4" />`,
		``,
		"Write `<Counter />` to get <Counter initial=\"5\" />.",
	}, "\n")

	opts := pipeline.DefaultOptions()
	opts.Components = Builtins()
	out, err := pipeline.New().RenderString(context.Background(), src, opts)
	require.NoError(t, err)

	assert.Contains(t, out, `data-type="success"`)
	assert.Contains(t, out, ">One</button>")
	assert.Contains(t, out, ">Two</button>")
	assert.Equal(t, 2, strings.Count(out, `role="tabpanel"`))
	assert.Contains(t, out, ">75%</span>")
	assert.Contains(t, out, "&lt;Counter /&gt;")
	assert.Equal(t, 1, strings.Count(out, "data-templmd-counter"))
}

func TestBlockWidgets_OnTheirOwnLines(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"alert", "<Alert type=\"info\">\nhi\n</Alert>\n", `role="alert"`},
		{"card", "<Card title=\"T\">\nbody\n</Card>\n", ">T</h3>"},
		{"collapsible", "<Collapsible title=\"More\">\nhidden\n</Collapsible>\n", "<details"},
		{"alert with markdown", "<Alert type=\"info\">\n\n**hi**\n\n</Alert>\n", "<strong>hi</strong>"},
	}

	opts := pipeline.DefaultOptions()
	opts.Components = Builtins()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := pipeline.New().RenderString(context.Background(), tt.src, opts)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
			assert.NotRegexp(t, `<p[^>]*>\s*<(div|details)`, out)
		})
	}
}
