// Package watcher notifies handlers about changes to markdown sources.
//
// Editors often save by writing a temporary file and renaming it over the
// original, which removes the watch on the original inode. Files are
// therefore watched through their parent directory and matched by path.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/conneroisu/templmd/internal/logging"
	"github.com/conneroisu/templmd/internal/validation"
)

// FileWatcher watches files and directories and hands debounced batches of
// changes to its handlers.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	logger    logging.Logger
	filters   []FileFilter
	handlers  []ChangeHandler
	mutex     sync.RWMutex
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// ChangeEvent represents a file change event
type ChangeEvent struct {
	Type EventType
	Path string
}

// EventType represents the type of file change
type EventType int

const (
	EventTypeCreated EventType = iota
	EventTypeModified
	EventTypeDeleted
	EventTypeRenamed
)

// String returns the string representation of the EventType
func (e EventType) String() string {
	switch e {
	case EventTypeCreated:
		return "created"
	case EventTypeModified:
		return "modified"
	case EventTypeDeleted:
		return "deleted"
	case EventTypeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// FileFilter reports whether a changed path is of interest. All filters
// must accept a path for its events to be delivered.
type FileFilter func(path string) bool

// ChangeHandler handles a debounced batch of events
type ChangeHandler func(ctx context.Context, events []ChangeEvent) error

// NewFileWatcher creates a watcher that coalesces changes arriving within
// debounceDelay of each other.
func NewFileWatcher(debounceDelay time.Duration, logger logging.Logger) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &FileWatcher{
		watcher:   w,
		debouncer: NewDebouncer(debounceDelay),
		logger:    logger.WithComponent("watcher"),
	}, nil
}

// AddFilter adds a file filter
func (fw *FileWatcher) AddFilter(filter FileFilter) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.filters = append(fw.filters, filter)
}

// AddHandler adds a change handler
func (fw *FileWatcher) AddHandler(handler ChangeHandler) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.handlers = append(fw.handlers, handler)
}

// AddPath watches a directory, or the directory holding a file.
func (fw *FileWatcher) AddPath(path string) error {
	dir, err := watchDir(path)
	if err != nil {
		return err
	}
	return fw.watcher.Add(dir)
}

// WatchFiles watches the given files and only reports events for them.
func (fw *FileWatcher) WatchFiles(paths ...string) error {
	abs := make([]string, 0, len(paths))
	for _, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", p, err)
		}
		if err := fw.AddPath(a); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
		abs = append(abs, a)
	}
	fw.AddFilter(PathFilter(abs...))
	return nil
}

// WatchDir watches the markdown sources directly inside dir plus the extra
// files. Hidden and editor backup files in dir are ignored.
func (fw *FileWatcher) WatchDir(dir string, extra ...string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", dir, err)
	}
	if !isDir(absDir) {
		return fmt.Errorf("watching %s: not a directory", dir)
	}
	if err := fw.watcher.Add(absDir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	abs := make([]string, 0, len(extra))
	for _, p := range extra {
		a, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", p, err)
		}
		if err := fw.AddPath(a); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
		abs = append(abs, a)
	}

	fw.AddFilter(NoGitFilter)
	fw.AddFilter(Any(
		PathFilter(abs...),
		All(DirFilter(absDir), NoHiddenFilter, MarkdownFilter),
	))
	return nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func watchDir(path string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("getting absolute path: %w", err)
	}
	if isDir(abs) {
		return abs, nil
	}
	return filepath.Dir(abs), nil
}

// Start runs the watcher until ctx is cancelled or Stop is called.
func (fw *FileWatcher) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	fw.mutex.Lock()
	fw.cancel = cancel
	fw.mutex.Unlock()

	fw.wg.Add(3)
	go func() {
		defer fw.wg.Done()
		fw.debouncer.Run(ctx)
	}()
	go func() {
		defer fw.wg.Done()
		fw.processEvents(ctx)
	}()
	go func() {
		defer fw.wg.Done()
		fw.watchLoop(ctx)
	}()
	return nil
}

// Stop stops the goroutines started by Start and closes the underlying
// watcher.
func (fw *FileWatcher) Stop() error {
	fw.mutex.RLock()
	cancel := fw.cancel
	fw.mutex.RUnlock()
	if cancel != nil {
		cancel()
	}
	fw.wg.Wait()
	fw.debouncer.Stop()
	return fw.watcher.Close()
}

func (fw *FileWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleFsnotifyEvent(event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn(ctx, err, "file watcher error")
		}
	}
}

func (fw *FileWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}

	fw.mutex.RLock()
	filters := fw.filters
	fw.mutex.RUnlock()

	for _, filter := range filters {
		if !filter(event.Name) {
			return
		}
	}

	fw.debouncer.Add(ChangeEvent{Type: eventType(event.Op), Path: event.Name})
}

func eventType(op fsnotify.Op) EventType {
	switch {
	case op.Has(fsnotify.Create):
		return EventTypeCreated
	case op.Has(fsnotify.Write):
		return EventTypeModified
	case op.Has(fsnotify.Remove):
		return EventTypeDeleted
	case op.Has(fsnotify.Rename):
		return EventTypeRenamed
	default:
		return EventTypeModified
	}
}

func (fw *FileWatcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case events := <-fw.debouncer.Output():
			fw.mutex.RLock()
			handlers := fw.handlers
			fw.mutex.RUnlock()

			fw.logger.Debug(ctx, "dispatching file changes", "events", len(events))
			for _, handler := range handlers {
				if err := handler(ctx, events); err != nil {
					fw.logger.Warn(ctx, err, "file change handler failed")
				}
			}
		}
	}
}

// Debouncer groups rapid file changes together. Only the last event per
// path is kept; batches are sorted by path.
type Debouncer struct {
	delay   time.Duration
	events  chan ChangeEvent
	output  chan []ChangeEvent
	timer   *time.Timer
	pending map[string]ChangeEvent
	mutex   sync.Mutex
}

// NewDebouncer creates a debouncer that emits a batch delay after the last
// event.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:   delay,
		events:  make(chan ChangeEvent, 100),
		output:  make(chan []ChangeEvent, 10),
		pending: make(map[string]ChangeEvent),
	}
}

// Add queues an event. It never blocks; events are dropped when the queue
// is full.
func (d *Debouncer) Add(event ChangeEvent) {
	select {
	case d.events <- event:
	default:
	}
}

// Output returns the channel of debounced batches.
func (d *Debouncer) Output() <-chan []ChangeEvent {
	return d.output
}

// Run moves queued events into the pending batch until ctx is done.
func (d *Debouncer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.Stop()
			return
		case event := <-d.events:
			d.addEvent(event)
		}
	}
}

// Stop cancels a pending flush.
func (d *Debouncer) Stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}

func (d *Debouncer) addEvent(event ChangeEvent) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.pending[event.Path] = event

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.flush)
}

func (d *Debouncer) flush() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if len(d.pending) == 0 {
		return
	}

	events := make([]ChangeEvent, 0, len(d.pending))
	for _, event := range d.pending {
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Path < events[j].Path })

	select {
	case d.output <- events:
	default:
		// consumer is behind; the next batch carries the latest state
	}

	d.pending = make(map[string]ChangeEvent)
}

// MarkdownFilter accepts markdown sources by extension.
func MarkdownFilter(path string) bool {
	return validation.IsMarkdown(path)
}

// Any accepts a path accepted by at least one of filters.
func Any(filters ...FileFilter) FileFilter {
	return func(path string) bool {
		for _, f := range filters {
			if f(path) {
				return true
			}
		}
		return false
	}
}

// All accepts a path accepted by every one of filters.
func All(filters ...FileFilter) FileFilter {
	return func(path string) bool {
		for _, f := range filters {
			if !f(path) {
				return false
			}
		}
		return true
	}
}

// DirFilter accepts paths directly inside dir.
func DirFilter(dir string) FileFilter {
	dir = filepath.Clean(dir)
	return func(path string) bool {
		return filepath.Dir(filepath.Clean(path)) == dir
	}
}

// PathFilter accepts only the given paths, compared after cleaning.
func PathFilter(paths ...string) FileFilter {
	allowed := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		allowed[filepath.Clean(p)] = struct{}{}
	}
	return func(path string) bool {
		_, ok := allowed[filepath.Clean(path)]
		return ok
	}
}

// NoHiddenFilter rejects dot files and editor swap or backup files.
func NoHiddenFilter(path string) bool {
	base := filepath.Base(path)
	return !strings.HasPrefix(base, ".") && !strings.HasSuffix(base, "~") && !strings.HasSuffix(base, ".swp")
}

// NoGitFilter rejects a .git directory and anything inside one.
func NoGitFilter(path string) bool {
	path = filepath.ToSlash(path)
	return filepath.Base(path) != ".git" && !strings.HasPrefix(path, ".git/") && !strings.Contains(path, "/.git/")
}
