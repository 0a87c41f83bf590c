package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/conneroisu/templmd/internal/config"
	"github.com/conneroisu/templmd/internal/errors"
	"github.com/conneroisu/templmd/internal/logging"
	"github.com/conneroisu/templmd/internal/pipeline"
	"github.com/conneroisu/templmd/internal/validation"
	"github.com/conneroisu/templmd/internal/watcher"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:     "watch <file.md|dir>",
	Aliases: []string{"w"},
	Short:   "Re-render markdown whenever it changes",
	Long: `Render a markdown file to --output, then render it again every time the
file or the configured styles file is saved. Render errors are logged and
the previous output is kept.

Given a directory, every markdown file directly inside it is rendered to
<name>.html in the --output directory and re-rendered when saved. Hidden
files and editor backups are ignored. A change to the styles file renders
the whole directory again.

Examples:
  templmd watch doc.md -o doc.html
  templmd watch docs/ -o site/
  templmd watch --page --mermaid notes.md -o notes.html`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var (
	watchFlags  *RenderFlags
	watchOutput string
	watchPage   bool
)

func init() {
	rootCmd.AddCommand(watchCmd)

	watchFlags = AddRenderFlags(watchCmd)
	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", "", "Output HTML file (required)")
	watchCmd.Flags().BoolVar(&watchPage, "page", false, "Wrap the output in a standalone HTML page")
	_ = watchCmd.MarkFlagRequired("output")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if err := watchFlags.Apply(cfg); err != nil {
		return err
	}

	if err := validation.ValidateOutputPath(watchOutput, args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	job := &renderJob{
		cfg:      cfg,
		pipeline: pipeline.New(pipeline.WithLogger(logger)),
		logger:   logger,
		page:     watchPage,
	}
	source := args[0]
	newWatcher := newDocumentWatcher
	build := job.rebuild
	if info, err := os.Stat(source); err == nil && info.IsDir() {
		newWatcher = newDirectoryWatcher
		build = job.rebuildDir
	}

	if err := build(ctx, source, watchOutput); err != nil {
		return err
	}

	fw, err := newWatcher(cfg, job, source, watchOutput, logger)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		fw.Stop()
		return fmt.Errorf("starting watcher: %w", err)
	}
	logger.Info(ctx, "watching for changes", "source", source, "output", watchOutput)

	<-ctx.Done()
	return fw.Stop()
}

// newDocumentWatcher returns a watcher that re-renders file into output
// when the file or the styles file changes.
func newDocumentWatcher(cfg *config.Config, job *renderJob, file, output string, logger logging.Logger) (*watcher.FileWatcher, error) {
	fw, err := watcher.NewFileWatcher(cfg.Server.Debounce, logger)
	if err != nil {
		return nil, err
	}

	files := []string{file}
	if cfg.Render.StylesFile != "" {
		files = append(files, cfg.Render.StylesFile)
	}
	if err := fw.WatchFiles(files...); err != nil {
		fw.Stop()
		return nil, err
	}

	fw.AddHandler(func(ctx context.Context, events []watcher.ChangeEvent) error {
		for _, event := range events {
			logger.Debug(ctx, "file changed", "path", event.Path, "type", event.Type.String())
		}
		if err := job.rebuild(ctx, file, output); err != nil {
			logger.Error(ctx, err, "render failed, keeping previous output", "file", file)
			return nil
		}
		logger.Info(ctx, "rendered", "file", file, "output", output)
		return nil
	})
	return fw, nil
}

// rebuild renders file and replaces output only when rendering succeeds.
func (j *renderJob) rebuild(ctx context.Context, file, output string) error {
	html, err := j.renderFile(ctx, file)
	if err != nil {
		return err
	}
	return writeOutput(output, html)
}

// newDirectoryWatcher returns a watcher that re-renders the markdown files
// saved in dir into the output directory. A styles change renders them all.
func newDirectoryWatcher(cfg *config.Config, job *renderJob, dir, output string, logger logging.Logger) (*watcher.FileWatcher, error) {
	fw, err := watcher.NewFileWatcher(cfg.Server.Debounce, logger)
	if err != nil {
		return nil, err
	}

	var styles string
	var extra []string
	if cfg.Render.StylesFile != "" {
		if styles, err = filepath.Abs(cfg.Render.StylesFile); err != nil {
			fw.Stop()
			return nil, err
		}
		extra = append(extra, styles)
	}
	if err := fw.WatchDir(dir, extra...); err != nil {
		fw.Stop()
		return nil, err
	}

	fw.AddHandler(func(ctx context.Context, events []watcher.ChangeEvent) error {
		var changed []string
		restyled := false
		for _, event := range events {
			logger.Debug(ctx, "file changed", "path", event.Path, "type", event.Type.String())
			switch {
			case event.Path == styles:
				restyled = true
			case event.Type == watcher.EventTypeDeleted || event.Type == watcher.EventTypeRenamed:
				// the source is gone; its last output stays
			default:
				changed = append(changed, event.Path)
			}
		}

		var err error
		switch {
		case restyled:
			err = job.rebuildDir(ctx, dir, output)
		case len(changed) > 0:
			err = job.renderFiles(ctx, changed, output, io.Discard)
		default:
			return nil
		}
		if err != nil {
			logger.Error(ctx, err, "render failed, keeping previous output", "dir", dir)
			return nil
		}
		logger.Info(ctx, "rendered", "dir", dir, "output", output)
		return nil
	})
	return fw, nil
}

// rebuildDir renders every visible markdown file directly inside dir into
// the output directory.
func (j *renderJob) rebuildDir(ctx context.Context, dir, output string) error {
	files, err := markdownFiles(dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(output, 0o755); err != nil {
		return errors.NewIOError(errors.ErrCodeWriteFailed, "cannot create output directory", err).WithFile(output)
	}
	if len(files) == 0 {
		j.logger.Warn(ctx, nil, "no markdown files found", "dir", dir)
		return nil
	}
	return j.renderFiles(ctx, files, output, io.Discard)
}

func markdownFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotFound, "cannot read directory", err).WithFile(dir)
	}
	visible := watcher.All(watcher.NoHiddenFilter, watcher.MarkdownFilter)
	var files []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if !entry.IsDir() && visible(path) {
			files = append(files, path)
		}
	}
	return files, nil
}
