package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/conneroisu/templmd/internal/errors"
	"github.com/conneroisu/templmd/internal/pipeline"
	"github.com/conneroisu/templmd/internal/server"
	"github.com/conneroisu/templmd/internal/validation"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:     "serve <file.md>",
	Aliases: []string{"s"},
	Short:   "Preview a markdown file with live reload",
	Long: `Serve a rendered markdown file and reload the browser whenever the file,
or the configured styles file, changes.

Examples:
  templmd serve README.md
  templmd serve -p 3000 --mermaid docs/design.md`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

var serveFlags *RenderFlags

func init() {
	rootCmd.AddCommand(serveCmd)

	serveFlags = AddRenderFlags(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().Duration("debounce", 0, "Delay used to coalesce file changes")

	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.debounce", serveCmd.Flags().Lookup("debounce"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if err := serveFlags.Apply(cfg); err != nil {
		return err
	}

	file := args[0]
	if err := validation.ValidatePath(file); err != nil {
		return err
	}
	if err := validation.ValidateFileExtension(file, validation.MarkdownExtensions); err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	if _, err := os.Stat(file); err != nil {
		return errors.NewIOError(errors.ErrCodeFileNotFound, "cannot open markdown file", err).WithFile(file)
	}
	// Fail before listening when the flags produce unusable render options.
	if _, err := cfg.PipelineOptions(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, file, pipeline.New(pipeline.WithLogger(logger)), logger)
	return srv.Start(ctx)
}
