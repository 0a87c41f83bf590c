// Package pipeline renders markdown with injected components into a
// sanitized templ component.
//
// A render pass rewrites registered component tags to their canonical form
// (leaving code untouched), converts markdown with goldmark, sanitizes the
// HTML with an allow-list extended by the component names, and binds the
// parsed tree to the built-in and injected render functions.
package pipeline

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/mermaid"

	"github.com/conneroisu/templmd/internal/errors"
	"github.com/conneroisu/templmd/internal/highlight"
	"github.com/conneroisu/templmd/internal/logging"
	"github.com/conneroisu/templmd/internal/mathext"
	"github.com/conneroisu/templmd/internal/renderer"
	"github.com/conneroisu/templmd/internal/sanitize"
	"github.com/conneroisu/templmd/internal/styles"
	"github.com/conneroisu/templmd/internal/tags"
)

// Stage names reported to the trace hook.
const (
	StagePreprocess = "preprocess"
	StageParse      = "parse"
	StageSanitize   = "sanitize"
	StageBind       = "bind"
	StageDispatch   = "dispatch"
)

// Stage describes one completed step of a render pass.
type Stage struct {
	Name     string
	Duration time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. Stage timings are logged at debug level;
// document content is never logged.
func WithLogger(logger logging.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger.WithComponent("pipeline")
	}
}

// WithStyleManager shares a style cache between pipelines.
func WithStyleManager(m *styles.Manager) Option {
	return func(p *Pipeline) {
		p.styles = m
	}
}

// WithTrace registers a hook called after every stage. It may be called
// from several goroutines when the pipeline is shared.
func WithTrace(fn func(Stage)) Option {
	return func(p *Pipeline) {
		p.trace = fn
	}
}

type engineKey struct {
	gfm, math, mermaid bool
}

// Pipeline renders markdown documents. It is safe for concurrent use; the
// only state shared between renders is the style cache and the compiled
// goldmark and sanitizer instances, all keyed by their configuration.
type Pipeline struct {
	logger logging.Logger
	styles *styles.Manager
	trace  func(Stage)

	engines  sync.Map // engineKey -> goldmark.Markdown
	policies sync.Map // schema key -> *bluemonday.Policy

	defaultHighlighter highlight.Highlighter
}

// New creates a pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		logger:             logging.NewNopLogger(),
		defaultHighlighter: highlight.NewChroma(highlight.DefaultTheme, highlight.DefaultClassName),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.styles == nil {
		p.styles = styles.NewManager()
	}
	return p
}

// Styles returns the pipeline's style cache.
func (p *Pipeline) Styles() *styles.Manager {
	return p.styles
}

// Render runs a render pass. Malformed or unbalanced component markup never
// fails a render; it is left to the HTML parser's recovery rules. Errors are
// returned only for invalid options or a failing markdown engine.
func (p *Pipeline) Render(ctx context.Context, source string, opts Options) (*Document, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	names := opts.Components.Names()

	if len(names) > 0 {
		start := time.Now()
		rewriter := tags.NewRewriter(names)
		if opts.ShieldMode == ShieldPlaceholder {
			source = rewriter.RewriteShielded(source)
		} else {
			source = rewriter.RewriteProtected(source)
		}
		p.done(ctx, StagePreprocess, start)
	}

	start := time.Now()
	var buf bytes.Buffer
	if err := p.engine(opts).Convert([]byte(source), &buf); err != nil {
		return nil, errors.WrapRender(err, errors.ErrCodeParseFailed, "markdown conversion failed")
	}
	out := buf.String()
	p.done(ctx, StageParse, start)

	if opts.Sanitize {
		start = time.Now()
		schema := sanitize.Extend(sanitize.Default(), names, opts.ExtraAttributes...)
		out = p.policy(schema).Sanitize(out)
		p.done(ctx, StageSanitize, start)
	}

	start = time.Now()
	nodes, err := renderer.ParseFragment(strings.NewReader(out))
	if err != nil {
		return nil, errors.WrapRender(err, errors.ErrCodeParseFailed, "html parse failed")
	}

	var h highlight.Highlighter
	if !opts.DisableHighlighting {
		h = opts.Highlighter
		if h == nil {
			h = p.defaultHighlighter
		}
	}
	bindings := renderer.Bind(p.styles.Merge(opts.Styles), h, opts.Components)
	p.done(ctx, StageBind, start)

	return &Document{
		body:      renderer.Dispatch(nodes, bindings),
		bindings:  bindings,
		className: opts.ClassName,
		done: func(ctx context.Context, start time.Time) {
			p.done(ctx, StageDispatch, start)
		},
	}, nil
}

// RenderString renders source and returns the HTML.
func (p *Pipeline) RenderString(ctx context.Context, source string, opts Options) (string, error) {
	doc, err := p.Render(ctx, source, opts)
	if err != nil {
		return "", err
	}
	return doc.HTML(ctx)
}

func (p *Pipeline) done(ctx context.Context, name string, start time.Time) {
	stage := Stage{Name: name, Duration: time.Since(start)}
	p.logger.Debug(ctx, "render stage completed", "stage", name, "duration_ms", stage.Duration.Milliseconds())
	if p.trace != nil {
		p.trace(stage)
	}
}

// engine returns the goldmark instance for the options' extension set.
// Raw HTML always passes the markdown renderer; the sanitizer runs after.
func (p *Pipeline) engine(opts Options) goldmark.Markdown {
	key := engineKey{gfm: opts.GFM, math: opts.Math, mermaid: opts.Mermaid}
	if md, ok := p.engines.Load(key); ok {
		return md.(goldmark.Markdown)
	}

	var exts []goldmark.Extender
	if opts.GFM {
		exts = append(exts, extension.GFM)
	}
	if opts.Math {
		exts = append(exts, mathext.Math)
	}
	if opts.Mermaid {
		exts = append(exts, &mermaid.Extender{NoScript: true})
	}

	md := goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)
	actual, _ := p.engines.LoadOrStore(key, md)
	return actual.(goldmark.Markdown)
}

func (p *Pipeline) policy(schema sanitize.Schema) *bluemonday.Policy {
	key := schema.Key()
	if policy, ok := p.policies.Load(key); ok {
		return policy.(*bluemonday.Policy)
	}
	actual, _ := p.policies.LoadOrStore(key, schema.Policy())
	return actual.(*bluemonday.Policy)
}
