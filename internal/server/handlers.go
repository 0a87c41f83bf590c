package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/a-h/templ"

	"github.com/conneroisu/templmd/internal/components"
	"github.com/conneroisu/templmd/internal/errors"
	"github.com/conneroisu/templmd/internal/pipeline"
	"github.com/conneroisu/templmd/internal/registry"
	"github.com/conneroisu/templmd/internal/renderer"
)

func (s *PreviewServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	doc, opts, err := s.render(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	page := renderer.Page(doc, renderer.PageOptions{
		Title:      filepath.Base(s.file),
		Math:       opts.Math,
		Mermaid:    opts.Mermaid,
		ReloadPath: "/ws",
		Head:       components.Script(),
	})
	s.writeComponent(w, r, page)
}

// handleFragment serves the rendered document without the page layout.
func (s *PreviewServer) handleFragment(w http.ResponseWriter, r *http.Request) {
	doc, _, err := s.render(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeComponent(w, r, doc)
}

func (s *PreviewServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "healthy",
		"file":    s.file,
		"clients": s.ClientCount(),
	})
}

func (s *PreviewServer) handleComponents(w http.ResponseWriter, r *http.Request) {
	reg, err := s.config.Registry()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	entries := reg.Entries()
	if entries == nil {
		entries = []registry.Entry{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entries)
}

func (s *PreviewServer) render(ctx context.Context) (*pipeline.Document, pipeline.Options, error) {
	opts, err := s.config.PipelineOptions()
	if err != nil {
		return nil, opts, err
	}

	source, err := os.ReadFile(s.file)
	if err != nil {
		return nil, opts, errors.NewIOError(errors.ErrCodeFileNotFound, "cannot read document", err).WithFile(s.file)
	}

	doc, err := s.pipeline.Render(ctx, string(source), opts)
	return doc, opts, err
}

func (s *PreviewServer) writeComponent(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		s.logger.Error(r.Context(), err, "render failed", "file", s.file)
	}
}

func (s *PreviewServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error(r.Context(), err, "cannot render preview", "file", s.file)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
