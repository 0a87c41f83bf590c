package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeCreated, "created"},
		{EventTypeModified, "modified"},
		{EventTypeDeleted, "deleted"},
		{EventTypeRenamed, "renamed"},
		{EventType(99), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
		})
	}
}

func TestEventTypeFromOp(t *testing.T) {
	assert.Equal(t, EventTypeCreated, eventType(fsnotify.Create))
	assert.Equal(t, EventTypeModified, eventType(fsnotify.Write))
	assert.Equal(t, EventTypeDeleted, eventType(fsnotify.Remove))
	assert.Equal(t, EventTypeRenamed, eventType(fsnotify.Rename))
	assert.Equal(t, EventTypeCreated, eventType(fsnotify.Create|fsnotify.Write))
}

func TestNewFileWatcher(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.NotNil(t, watcher.watcher)
	assert.NotNil(t, watcher.debouncer)
	assert.Empty(t, watcher.filters)
	assert.Empty(t, watcher.handlers)
}

func TestFilters(t *testing.T) {
	tests := []struct {
		name     string
		filter   FileFilter
		path     string
		expected bool
	}{
		{"markdown", MarkdownFilter, "docs/readme.md", true},
		{"markdown upper", MarkdownFilter, "NOTES.MARKDOWN", true},
		{"not markdown", MarkdownFilter, "main.go", false},
		{"hidden", NoHiddenFilter, "docs/.readme.md", false},
		{"backup", NoHiddenFilter, "readme.md~", false},
		{"swap", NoHiddenFilter, "readme.md.swp", false},
		{"visible", NoHiddenFilter, "readme.md", true},
		{"git", NoGitFilter, "repo/.git/HEAD", false},
		{"git dir", NoGitFilter, "/repo/.git", false},
		{"not git", NoGitFilter, "repo/doc.md", true},
		{"any", Any(MarkdownFilter, PathFilter("styles.yml")), "styles.yml", true},
		{"any none", Any(MarkdownFilter, PathFilter("styles.yml")), "main.go", false},
		{"all", All(NoHiddenFilter, MarkdownFilter), "doc.md", true},
		{"all hidden", All(NoHiddenFilter, MarkdownFilter), ".doc.md", false},
		{"dir", DirFilter("/tmp/a"), "/tmp/a/doc.md", true},
		{"nested dir", DirFilter("/tmp/a"), "/tmp/a/b/doc.md", false},
		{"path", PathFilter("/tmp/a/doc.md"), "/tmp/a/./doc.md", true},
		{"other path", PathFilter("/tmp/a/doc.md"), "/tmp/a/other.md", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.filter(tt.path))
		})
	}
}

func TestDebouncer_CoalescesByPath(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Add(ChangeEvent{Type: EventTypeCreated, Path: "b.md"})
	d.Add(ChangeEvent{Type: EventTypeModified, Path: "a.md"})
	d.Add(ChangeEvent{Type: EventTypeModified, Path: "b.md"})

	select {
	case events := <-d.Output():
		require.Len(t, events, 2)
		assert.Equal(t, "a.md", events[0].Path)
		assert.Equal(t, "b.md", events[1].Path)
		assert.Equal(t, EventTypeModified, events[1].Type)
	case <-time.After(2 * time.Second):
		t.Fatal("no batch emitted")
	}
}

func TestFileWatcher_HandleEventFilters(t *testing.T) {
	watcher, err := NewFileWatcher(10*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	watcher.AddFilter(MarkdownFilter)
	watcher.handleFsnotifyEvent(fsnotify.Event{Name: "main.go", Op: fsnotify.Write})
	watcher.handleFsnotifyEvent(fsnotify.Event{Name: "doc.md", Op: fsnotify.Chmod})
	watcher.handleFsnotifyEvent(fsnotify.Event{Name: "doc.md", Op: fsnotify.Write})

	require.Len(t, watcher.debouncer.events, 1)
	event := <-watcher.debouncer.events
	assert.Equal(t, "doc.md", event.Path)
	assert.Equal(t, EventTypeModified, event.Type)
}

func TestFileWatcher_WatchFiles(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "doc.md")
	other := filepath.Join(dir, "other.md")
	require.NoError(t, os.WriteFile(doc, []byte("# one"), 0o644))

	watcher, err := NewFileWatcher(20*time.Millisecond, nil)
	require.NoError(t, err)

	var (
		mu      sync.Mutex
		batches [][]ChangeEvent
	)
	got := make(chan struct{}, 10)
	watcher.AddHandler(func(_ context.Context, events []ChangeEvent) error {
		mu.Lock()
		batches = append(batches, events)
		mu.Unlock()
		got <- struct{}{}
		return errors.New("handler errors are logged, not fatal")
	})
	require.NoError(t, watcher.WatchFiles(doc))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))

	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(doc, []byte("# two"), 0o644))

	select {
	case <-got:
	case <-time.After(5 * time.Second):
		t.Fatal("no change delivered")
	}
	require.NoError(t, watcher.Stop())

	mu.Lock()
	defer mu.Unlock()
	for _, batch := range batches {
		for _, event := range batch {
			assert.Equal(t, doc, event.Path)
		}
	}
}

func TestFileWatcher_WatchDir(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "doc.md")
	require.NoError(t, os.WriteFile(doc, []byte("# one"), 0o644))
	styles := filepath.Join(t.TempDir(), "styles.yml")
	require.NoError(t, os.WriteFile(styles, []byte("h1: text-xl"), 0o644))

	watcher, err := NewFileWatcher(20*time.Millisecond, nil)
	require.NoError(t, err)

	var (
		mu   sync.Mutex
		seen []string
	)
	watcher.AddHandler(func(_ context.Context, events []ChangeEvent) error {
		mu.Lock()
		for _, event := range events {
			seen = append(seen, event.Path)
		}
		mu.Unlock()
		return nil
	})
	require.NoError(t, watcher.WatchDir(dir, styles))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))

	for _, name := range []string{".doc.md.swp", "doc.md~", ".hidden.md", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.WriteFile(doc, []byte("# two"), 0o644))
	require.NoError(t, os.WriteFile(styles, []byte("h1: text-2xl"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return contains(seen, doc) && contains(seen, styles)
	}, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, watcher.Stop())

	mu.Lock()
	defer mu.Unlock()
	for _, path := range seen {
		assert.Contains(t, []string{doc, styles}, path)
	}
}

func contains(paths []string, want string) bool {
	for _, p := range paths {
		if p == want {
			return true
		}
	}
	return false
}

func TestFileWatcher_WatchDirRejectsFile(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "doc.md")
	require.NoError(t, os.WriteFile(doc, []byte("# one"), 0o644))

	watcher, err := NewFileWatcher(time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.Error(t, watcher.WatchDir(doc))
}

func TestFileWatcher_StopWithoutStart(t *testing.T) {
	watcher, err := NewFileWatcher(time.Millisecond, nil)
	require.NoError(t, err)
	assert.NoError(t, watcher.Stop())
}
