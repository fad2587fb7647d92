package watch

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func nopConvert(context.Context, string) error { return nil }

func newQuiet(t *testing.T, opts Options, convert ConvertFunc) *Watcher {
	t.Helper()
	w, err := New(opts, convert)
	if err != nil {
		t.Fatal(err)
	}
	w.SetLogger(log.New(io.Discard, "", 0))
	t.Cleanup(func() { w.Close() })
	return w
}

// runWatcher starts w in the background and waits for it to subscribe.
func runWatcher(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(100 * time.Millisecond)
}

func TestNewAppliesDefaults(t *testing.T) {
	w := newQuiet(t, Options{}, nopConvert)
	if got := w.Options().Debounce; got != DefaultDebounce {
		t.Errorf("debounce = %s, want %s", got, DefaultDebounce)
	}
	if !w.Accepts("notes.mkd") {
		t.Error("default extension set should include .mkd")
	}
}

func TestNewRejectsNilConvert(t *testing.T) {
	if _, err := New(Options{}, nil); err == nil {
		t.Error("expected error for nil convert function")
	}
}

func TestAccepts(t *testing.T) {
	w := newQuiet(t, Options{}, nopConvert)
	cases := map[string]bool{
		"/docs/guide.md":       true,
		"/docs/GUIDE.MARKDOWN": true,
		"notes.mkd":            true,
		"/docs/guide.docx":     false,
		"/docs/.#guide.md":     false,
		"/docs/~$guide.md":     false,
		"/docs/.~lock.md":      false,
		"/docs/guide.md~":      false,
		"/docs/guide.md.swp":   false,
		"/docs/README":         false,
	}
	for path, want := range cases {
		if got := w.Accepts(path); got != want {
			t.Errorf("Accepts(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestAcceptsCustomExtensions(t *testing.T) {
	w := newQuiet(t, Options{Extensions: []string{"md", ".TXT"}}, nopConvert)
	if !w.Accepts("/tmp/readme.md") {
		t.Error("extension without dot should still match")
	}
	if !w.Accepts("/tmp/notes.txt") {
		t.Error("extensions should match case-insensitively")
	}
	if w.Accepts("/tmp/notes.markdown") {
		t.Error(".markdown is not in the custom set")
	}
}

func TestAcceptsPattern(t *testing.T) {
	w := newQuiet(t, Options{Pattern: "chapter-*.md"}, nopConvert)
	if !w.Accepts("/book/chapter-01.md") {
		t.Error("should match chapter-01.md")
	}
	if w.Accepts("/book/appendix.md") {
		t.Error("should not match appendix.md")
	}
}

func TestConvertsOnCreate(t *testing.T) {
	dir := t.TempDir()
	handled := make(chan string, 4)
	w := newQuiet(t, Options{Dirs: []string{dir}, Debounce: 50 * time.Millisecond},
		func(_ context.Context, src string) error {
			handled <- src
			return nil
		})
	runWatcher(t, w)

	src := filepath.Join(dir, "note.md")
	if err := os.WriteFile(src, []byte("# hi"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-handled:
		if got != src {
			t.Errorf("converted %q, want %q", got, src)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for conversion")
	}

	time.Sleep(50 * time.Millisecond)
	if s := w.Stats(); s.Converted < 1 {
		t.Errorf("converted = %d, want at least 1", s.Converted)
	}
}

func TestDebouncesRapidWrites(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	w := newQuiet(t, Options{Dirs: []string{dir}, Debounce: 200 * time.Millisecond},
		func(context.Context, string) error {
			calls.Add(1)
			return nil
		})
	runWatcher(t, w)

	src := filepath.Join(dir, "draft.md")
	for i := 0; i < 5; i++ {
		os.WriteFile(src, []byte("# rev"), 0644)
		time.Sleep(20 * time.Millisecond)
	}
	time.Sleep(600 * time.Millisecond)

	if got := calls.Load(); got != 1 {
		t.Errorf("convert called %d times, want 1", got)
	}
}

func TestIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	var called atomic.Bool
	w := newQuiet(t, Options{Dirs: []string{dir}, Debounce: 50 * time.Millisecond},
		func(context.Context, string) error {
			called.Store(true)
			return nil
		})
	runWatcher(t, w)

	os.WriteFile(filepath.Join(dir, "output.docx"), []byte("zip"), 0644)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("text"), 0644)
	time.Sleep(300 * time.Millisecond)

	if called.Load() {
		t.Error("convert should not run for non-Markdown files")
	}
}

func TestRecursiveWatchesNewSubdirectories(t *testing.T) {
	dir := t.TempDir()
	handled := make(chan string, 4)
	w := newQuiet(t, Options{Dirs: []string{dir}, Recursive: true, Debounce: 50 * time.Millisecond},
		func(_ context.Context, src string) error {
			handled <- src
			return nil
		})
	runWatcher(t, w)

	sub := filepath.Join(dir, "part1")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)

	src := filepath.Join(sub, "intro.md")
	os.WriteFile(src, []byte("# intro"), 0644)

	select {
	case got := <-handled:
		if got != src {
			t.Errorf("converted %q, want %q", got, src)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("file in new subdirectory was not converted")
	}
}

func TestFireRecordsOutcome(t *testing.T) {
	w := newQuiet(t, Options{}, func(_ context.Context, src string) error {
		if filepath.Base(src) == "ch2.md" {
			return errors.New("disk full")
		}
		return nil
	})

	ctx := context.Background()
	w.fire(ctx, "/book/ch1.md")
	w.fire(ctx, "/book/ch2.md")

	s := w.Stats()
	if s.Converted != 1 || s.Failed != 1 {
		t.Errorf("stats = %+v", s)
	}
	if len(s.Recent) != 2 {
		t.Fatalf("expected 2 records, got %d", len(s.Recent))
	}
	if s.Recent[0].Outcome != Converted {
		t.Errorf("record 0 = %+v", s.Recent[0])
	}
	if s.Recent[1].Outcome != Failed || s.Recent[1].Err != "disk full" {
		t.Errorf("record 1 = %+v", s.Recent[1])
	}
}

func TestHistoryIsBounded(t *testing.T) {
	w := newQuiet(t, Options{}, nopConvert)
	for i := 0; i < historySize+10; i++ {
		w.fire(context.Background(), "/x.md")
	}
	s := w.Stats()
	if len(s.Recent) != historySize {
		t.Errorf("history = %d, want %d", len(s.Recent), historySize)
	}
	if s.Converted != historySize+10 {
		t.Errorf("converted = %d", s.Converted)
	}
}

func TestCloseDropsPending(t *testing.T) {
	var called atomic.Bool
	w := newQuiet(t, Options{Debounce: time.Hour}, func(context.Context, string) error {
		called.Store(true)
		return nil
	})
	w.schedule(context.Background(), "/a.md")
	if got := w.Stats().Pending; got != 1 {
		t.Fatalf("pending = %d, want 1", got)
	}

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if got := w.Stats().Pending; got != 0 {
		t.Errorf("pending after close = %d", got)
	}

	w.schedule(context.Background(), "/b.md")
	if got := w.Stats().Pending; got != 0 {
		t.Errorf("schedule after close should be ignored, pending = %d", got)
	}
	if called.Load() {
		t.Error("convert should not run after close")
	}
}

func TestFiredTimerKeepsNewerPendingEntry(t *testing.T) {
	var calls atomic.Int32
	w := newQuiet(t, Options{Debounce: 20 * time.Millisecond}, func(context.Context, string) error {
		calls.Add(1)
		return nil
	})
	w.schedule(context.Background(), "/a.md")

	// Hold mu past the deadline so the first timer fires and waits, then
	// install a newer timer the way a second write would.
	w.mu.Lock()
	time.Sleep(80 * time.Millisecond)
	newer := time.AfterFunc(time.Hour, func() {})
	w.pending["/a.md"] = newer
	w.mu.Unlock()

	time.Sleep(80 * time.Millisecond)
	if got := w.Stats().Pending; got != 1 {
		t.Errorf("pending = %d, want the newer timer to remain", got)
	}
	if got := calls.Load(); got != 0 {
		t.Errorf("superseded timer converted %d time(s)", got)
	}

	w.Close()
	if newer.Stop() {
		t.Error("Close should have stopped the newer timer")
	}
}
