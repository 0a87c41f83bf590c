package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/a-h/templ"
	"github.com/conneroisu/templmd/internal/components"
	"github.com/conneroisu/templmd/internal/config"
	"github.com/conneroisu/templmd/internal/errors"
	"github.com/conneroisu/templmd/internal/logging"
	"github.com/conneroisu/templmd/internal/pipeline"
	"github.com/conneroisu/templmd/internal/renderer"
	"github.com/conneroisu/templmd/internal/validation"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:     "render [files...]",
	Aliases: []string{"r"},
	Short:   "Render markdown files to HTML",
	Long: `Render one or more markdown files to sanitized HTML. Custom tags that name
a registered component are replaced by the component's output.

With no files, or with "-", markdown is read from stdin. With several files
and --output, the output is a directory that receives one .html file per
input.

Examples:
  templmd render doc.md                  # HTML fragment to stdout
  templmd render --page -o doc.html doc.md
  templmd render -o site/ docs/*.md      # One page per file
  cat doc.md | templmd render --mermaid  # Read stdin`,
	RunE: runRender,
}

var (
	renderFlags  *RenderFlags
	renderOutput string
	renderPage   bool
	renderTitle  string
)

func init() {
	rootCmd.AddCommand(renderCmd)

	renderFlags = AddRenderFlags(renderCmd)
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Output file, or directory when rendering several files")
	renderCmd.Flags().BoolVar(&renderPage, "page", false, "Wrap the output in a standalone HTML page")
	renderCmd.Flags().StringVar(&renderTitle, "title", "", "Page title (defaults to the file name)")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if err := renderFlags.Apply(cfg); err != nil {
		return err
	}

	job := &renderJob{
		cfg:      cfg,
		pipeline: pipeline.New(pipeline.WithLogger(logger)),
		logger:   logger,
		page:     renderPage,
		title:    renderTitle,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		source, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return errors.NewIOError(errors.ErrCodeFileNotFound, "cannot read stdin", err)
		}
		if renderOutput == "" {
			return job.render(ctx, "", string(source), cmd.OutOrStdout())
		}
		var buf bytes.Buffer
		if err := job.render(ctx, "", string(source), &buf); err != nil {
			return err
		}
		return writeOutput(renderOutput, buf.Bytes())
	}

	return job.renderFiles(ctx, args, renderOutput, cmd.OutOrStdout())
}

// renderJob renders documents with one configuration. Options are rebuilt
// for every document so edits to the styles file are picked up by watch.
type renderJob struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	logger   logging.Logger
	page     bool
	title    string
}

// render writes the HTML for source to w. name is the input file, if any.
func (j *renderJob) render(ctx context.Context, name, source string, w io.Writer) error {
	opts, err := j.cfg.PipelineOptions()
	if err != nil {
		return err
	}
	doc, err := j.pipeline.Render(ctx, source, opts)
	if err != nil {
		return err
	}

	var c templ.Component = doc
	if j.page {
		title := j.title
		if title == "" && name != "" {
			title = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
		}
		c = renderer.Page(doc, renderer.PageOptions{
			Title:   title,
			Math:    opts.Math,
			Mermaid: opts.Mermaid,
			Head:    components.Script(),
		})
	}

	if err := c.Render(ctx, w); err != nil {
		return errors.WrapRender(err, errors.ErrCodeRenderFailed, "rendering document").WithFile(name)
	}
	return nil
}

// renderFile renders the markdown file at path into memory.
func (j *renderJob) renderFile(ctx context.Context, path string) ([]byte, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotFound, "cannot read markdown file", err).WithFile(path)
	}
	var buf bytes.Buffer
	if err := j.render(ctx, path, string(source), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderFiles renders every file, continuing past failures. Without an
// output the results are written to stdout in order. A single file with an
// output that is not a directory is written to that path; otherwise output
// is a directory receiving <name>.html per input.
func (j *renderJob) renderFiles(ctx context.Context, files []string, output string, stdout io.Writer) error {
	op := logging.StartOperation(j.logger, "render")
	collector := errors.NewErrorCollector()

	intoDir := output != "" && (len(files) > 1 || isDirPath(output))
	if intoDir {
		if err := os.MkdirAll(output, 0o755); err != nil {
			return errors.NewIOError(errors.ErrCodeWriteFailed, "cannot create output directory", err).WithFile(output)
		}
	}

	for _, file := range files {
		dest := output
		if intoDir {
			dest = filepath.Join(output, htmlName(file))
		}
		if dest != "" {
			if err := validation.ValidateOutputPath(dest, files); err != nil {
				collector.Add(file, err)
				continue
			}
		}

		html, err := j.renderFile(ctx, file)
		if err != nil {
			collector.Add(file, err)
			continue
		}

		if dest == "" {
			_, err = stdout.Write(html)
		} else {
			err = writeOutput(dest, html)
		}
		collector.Add(file, err)
	}

	if err := collector.Err(); err != nil {
		op.EndWithError(ctx, err)
		return fmt.Errorf("%d of %d files failed:\n%w", len(collector.GetErrors()), len(files), err)
	}
	op.End(ctx, "files", len(files))
	return nil
}

func htmlName(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".html"
}

func isDirPath(path string) bool {
	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(filepath.Separator)) {
		return true
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// writeOutput writes data to path, creating parent directories.
func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.NewIOError(errors.ErrCodeWriteFailed, "cannot create output directory", err).WithFile(dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewIOError(errors.ErrCodeWriteFailed, "cannot write output", err).WithFile(path)
	}
	return nil
}
