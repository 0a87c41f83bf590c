package renderer

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// PageOptions controls the standalone page wrapped around a document.
type PageOptions struct {
	Title string
	// Math loads KaTeX and typesets the math wrappers on load.
	Math bool
	// Mermaid loads mermaid.js for <pre class="mermaid"> blocks.
	Mermaid bool
	// ReloadPath is the websocket path of the live reload endpoint; empty
	// disables live reload.
	ReloadPath string
	// Head is rendered at the end of <head>.
	Head templ.Component
}

const pageHead = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>`

const tailwindHead = `</title>
    <script src="https://cdn.tailwindcss.com"></script>
`

const katexHead = `    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/katex@0.16.11/dist/katex.min.css">
    <script defer src="https://cdn.jsdelivr.net/npm/katex@0.16.11/dist/katex.min.js"></script>
    <script>
        document.addEventListener('DOMContentLoaded', function () {
            document.querySelectorAll('.math').forEach(function (el) {
                katex.render(el.textContent, el, {
                    displayMode: el.classList.contains('math-display'),
                    throwOnError: false
                });
            });
        });
    </script>
`

const mermaidHead = `    <script type="module">
        import mermaid from 'https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.esm.min.mjs';
        mermaid.initialize({ startOnLoad: true });
    </script>
`

const bodyOpen = `</head>
<body class="bg-gray-50 p-8">
    <div class="max-w-4xl mx-auto">
        <div class="bg-white rounded-lg shadow-lg p-6">
`

const bodyClose = `
        </div>
    </div>
`

const reloadScript = `    <script>
        (function () {
            const scheme = window.location.protocol === 'https:' ? 'wss://' : 'ws://';
            const ws = new WebSocket(scheme + window.location.host + '%s');
            ws.onmessage = function (event) {
                const message = JSON.parse(event.data);
                if (message.type === 'full_reload') {
                    window.location.reload();
                }
            };
        })();
    </script>
`

// Page wraps body in a complete HTML page styled with Tailwind.
func Page(body templ.Component, opts PageOptions) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		title := opts.Title
		if title == "" {
			title = "Markdown Preview"
		}

		parts := []string{pageHead, templ.EscapeString(title), tailwindHead}
		if opts.Math {
			parts = append(parts, katexHead)
		}
		if opts.Mermaid {
			parts = append(parts, mermaidHead)
		}
		for _, p := range parts {
			if _, err := io.WriteString(w, p); err != nil {
				return err
			}
		}
		if opts.Head != nil {
			if err := opts.Head.Render(ctx, w); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, bodyOpen); err != nil {
			return err
		}

		if body != nil {
			if err := body.Render(ctx, w); err != nil {
				return err
			}
		}

		if _, err := io.WriteString(w, bodyClose); err != nil {
			return err
		}
		if opts.ReloadPath != "" {
			script := strings.Replace(reloadScript, "%s", templ.EscapeString(opts.ReloadPath), 1)
			if _, err := io.WriteString(w, script); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</body>\n</html>\n")
		return err
	})
}
