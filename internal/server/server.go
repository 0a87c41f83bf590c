// Package server serves a live preview of one markdown document. The page is
// re-rendered on every request and connected browsers reload over a
// websocket when the document or its styles file changes.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/templmd/internal/config"
	"github.com/conneroisu/templmd/internal/logging"
	"github.com/conneroisu/templmd/internal/middleware"
	"github.com/conneroisu/templmd/internal/pipeline"
	"github.com/conneroisu/templmd/internal/watcher"
)

const shutdownTimeout = 5 * time.Second

// Client represents a WebSocket client
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	server *PreviewServer
}

// PreviewServer serves one markdown file with live reload
type PreviewServer struct {
	config   *config.Config
	file     string
	pipeline *pipeline.Pipeline
	logger   logging.Logger

	httpServer  *http.Server
	serverMutex sync.RWMutex

	clients      map[*websocket.Conn]*Client
	clientsMutex sync.RWMutex
	broadcast    chan []byte
	register     chan *Client
	unregister   chan *websocket.Conn
	done         chan struct{}
	shutdownOnce sync.Once
}

// UpdateMessage represents a message sent to the browser
type UpdateMessage struct {
	Type      string    `json:"type"`
	Target    string    `json:"target,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// New creates a preview server for file.
func New(cfg *config.Config, file string, p *pipeline.Pipeline, logger logging.Logger) *PreviewServer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if p == nil {
		p = pipeline.New(pipeline.WithLogger(logger))
	}
	return &PreviewServer{
		config:     cfg,
		file:       file,
		pipeline:   p,
		logger:     logger.WithComponent("server"),
		clients:    make(map[*websocket.Conn]*Client),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
	}
}

// Handler returns the HTTP routes of the preview.
func (s *PreviewServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/components", s.handleComponents)
	mux.HandleFunc("/fragment", s.handleFragment)
	mux.HandleFunc("/", s.handleIndex)
	return middleware.NewChain(
		middleware.Recover(s.logger),
		middleware.Logging(s.logger),
		middleware.SecurityHeaders(),
		middleware.NoCache(),
	).Apply(mux)
}

// Start watches the document, runs the websocket hub and serves HTTP until
// ctx is cancelled.
func (s *PreviewServer) Start(ctx context.Context) error {
	fw, err := s.setupFileWatcher(ctx)
	if err != nil {
		return err
	}
	defer fw.Stop()

	go s.runWebSocketHub(ctx)

	addr := s.config.Server.Address()
	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(shutdownCtx, err, "shutdown failed")
		}
	}()

	s.logger.Info(ctx, "preview server listening", "url", "http://"+addr, "file", s.file)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP server and disconnects websocket clients.
func (s *PreviewServer) Shutdown(ctx context.Context) error {
	s.serverMutex.RLock()
	server := s.httpServer
	s.serverMutex.RUnlock()

	s.shutdownOnce.Do(func() { close(s.done) })

	s.clientsMutex.Lock()
	for conn, client := range s.clients {
		delete(s.clients, conn)
		close(client.send)
		conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
	s.clientsMutex.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

func (s *PreviewServer) setupFileWatcher(ctx context.Context) (*watcher.FileWatcher, error) {
	fw, err := watcher.NewFileWatcher(s.config.Server.Debounce, s.logger)
	if err != nil {
		return nil, err
	}

	files := []string{s.file}
	if s.config.Render.StylesFile != "" {
		files = append(files, s.config.Render.StylesFile)
	}
	if err := fw.WatchFiles(files...); err != nil {
		fw.Stop()
		return nil, err
	}
	fw.AddHandler(s.handleFileChange)

	if err := fw.Start(ctx); err != nil {
		fw.Stop()
		return nil, err
	}
	return fw, nil
}

func (s *PreviewServer) handleFileChange(ctx context.Context, events []watcher.ChangeEvent) error {
	for _, event := range events {
		s.logger.Info(ctx, "file changed", "path", event.Path, "type", event.Type.String())
	}
	target := ""
	if len(events) == 1 {
		target = filepath.Base(events[0].Path)
	}
	s.NotifyReload(ctx, target)
	return nil
}

// NotifyReload asks every connected browser to reload.
func (s *PreviewServer) NotifyReload(ctx context.Context, target string) {
	s.broadcastMessage(ctx, UpdateMessage{
		Type:      "full_reload",
		Target:    target,
		Timestamp: time.Now(),
	})
}

func (s *PreviewServer) broadcastMessage(ctx context.Context, msg UpdateMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error(ctx, err, "failed to marshal message")
		data = []byte(`{"type":"full_reload"}`)
	}

	select {
	case s.broadcast <- data:
	case <-ctx.Done():
	case <-s.done:
	}
}

// ClientCount returns the number of connected websocket clients.
func (s *PreviewServer) ClientCount() int {
	s.clientsMutex.RLock()
	defer s.clientsMutex.RUnlock()
	return len(s.clients)
}
