// Package watch reconverts Markdown sources when they are created or saved.
//
// A Watcher subscribes to directory events through fsnotify, waits for a
// file to settle for the debounce interval, and hands it to a ConvertFunc.
// Conversions run one at a time.
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Options.Debounce is not positive.
const DefaultDebounce = 500 * time.Millisecond

const historySize = 50

// Options configure a Watcher.
type Options struct {
	Dirs       []string      `json:"dirs"`
	Recursive  bool          `json:"recursive"`
	Debounce   time.Duration `json:"debounce"`
	Extensions []string      `json:"extensions,omitempty"` // empty means the Markdown set
	Pattern    string        `json:"pattern,omitempty"`    // glob on the base name, e.g. "chapter-*.md"
	OutDir     string        `json:"outDir,omitempty"`
}

// ConvertFunc converts one settled source file.
type ConvertFunc func(ctx context.Context, src string) error

// Outcome of a single conversion attempt.
type Outcome string

const (
	Converted Outcome = "converted"
	Failed    Outcome = "failed"
)

// Record describes one conversion attempt.
type Record struct {
	Source  string        `json:"source"`
	Outcome Outcome       `json:"outcome"`
	Err     string        `json:"error,omitempty"`
	At      time.Time     `json:"at"`
	Took    time.Duration `json:"took"`
}

// Stats is a snapshot of watcher activity.
type Stats struct {
	Dirs      []string `json:"dirs"`
	Pending   int      `json:"pending"`
	Converted int      `json:"converted"`
	Failed    int      `json:"failed"`
	Recent    []Record `json:"recent,omitempty"`
}

// Watcher monitors directories and converts Markdown files once they settle.
type Watcher struct {
	opts    Options
	exts    map[string]bool
	convert ConvertFunc
	logger  *log.Logger
	fsw     *fsnotify.Watcher

	mu        sync.Mutex
	pending   map[string]*time.Timer
	stopped   bool
	converted int
	failed    int
	history   []Record

	running sync.WaitGroup
	serial  sync.Mutex
}

var markdownExtensions = []string{".md", ".markdown", ".mdown", ".mkd"}

// New creates a Watcher. Nothing is watched until Run is called.
func New(opts Options, convert ConvertFunc) (*Watcher, error) {
	if convert == nil {
		return nil, fmt.Errorf("watch: nil convert function")
	}
	if opts.Pattern != "" {
		if _, err := filepath.Match(opts.Pattern, ""); err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", opts.Pattern, err)
		}
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create file watcher: %w", err)
	}

	exts := opts.Extensions
	if len(exts) == 0 {
		exts = markdownExtensions
	}
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		set[e] = true
	}

	return &Watcher{
		opts:    opts,
		exts:    set,
		convert: convert,
		logger:  log.New(os.Stderr, "[watch] ", log.LstdFlags),
		fsw:     fsw,
		pending: make(map[string]*time.Timer),
	}, nil
}

// SetLogger replaces the default stderr logger.
func (w *Watcher) SetLogger(l *log.Logger) {
	w.logger = l
}

// Options returns the effective options, with defaults applied.
func (w *Watcher) Options() Options {
	return w.opts
}

// Run watches the configured directories until ctx is cancelled. Pending
// debounce timers are dropped on shutdown and in-flight conversions are
// allowed to finish.
func (w *Watcher) Run(ctx context.Context) error {
	for _, dir := range w.opts.Dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("could not resolve %s: %w", dir, err)
		}
		if err := w.add(abs); err != nil {
			w.Close()
			return err
		}
	}

	w.logger.Printf("Watching %d directory(ies), debounce %s", len(w.opts.Dirs), w.opts.Debounce)

	for {
		select {
		case <-ctx.Done():
			w.logger.Println("Stopping watcher")
			return w.Close()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Printf("Error: %v", err)
		}
	}
}

// Close stops pending conversions, waits for running ones and releases the
// fsnotify handle. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	w.running.Wait()
	return w.fsw.Close()
}

func (w *Watcher) add(dir string) error {
	if !w.opts.Recursive {
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("could not watch %s: %w", dir, err)
		}
		return nil
	}
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("could not watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}

	if w.opts.Recursive && ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.add(ev.Name); err != nil {
				w.logger.Printf("Error: %v", err)
			}
			return
		}
	}

	if !w.Accepts(ev.Name) {
		return
	}
	w.schedule(ctx, ev.Name)
}

// schedule (re)starts the debounce timer for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(w.opts.Debounce, func() {
		w.mu.Lock()
		// A newer write may have replaced this timer while it waited for mu.
		if w.pending[path] != t {
			w.mu.Unlock()
			return
		}
		delete(w.pending, path)
		if w.stopped {
			w.mu.Unlock()
			return
		}
		w.running.Add(1)
		w.mu.Unlock()

		defer w.running.Done()
		w.fire(ctx, path)
	})
	w.pending[path] = t
}

func (w *Watcher) fire(ctx context.Context, path string) {
	w.serial.Lock()
	defer w.serial.Unlock()

	start := time.Now()
	err := w.convert(ctx, path)
	rec := Record{Source: path, Outcome: Converted, At: start, Took: time.Since(start)}
	if err != nil {
		rec.Outcome = Failed
		rec.Err = err.Error()
		w.logger.Printf("Error converting %s: %v", path, err)
	} else {
		w.logger.Printf("Converted %s in %s", path, rec.Took.Round(time.Millisecond))
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.failed++
	} else {
		w.converted++
	}
	w.history = append(w.history, rec)
	if len(w.history) > historySize {
		w.history = w.history[len(w.history)-historySize:]
	}
}

// Accepts reports whether path is a source this watcher converts: it must
// carry one of the configured extensions, match the pattern if one is set,
// and not be an editor lock or swap file.
func (w *Watcher) Accepts(path string) bool {
	base := filepath.Base(path)
	for _, prefix := range []string{".#", "~$", ".~"} {
		if strings.HasPrefix(base, prefix) {
			return false
		}
	}
	if !w.exts[strings.ToLower(filepath.Ext(base))] {
		return false
	}
	if w.opts.Pattern != "" {
		ok, _ := filepath.Match(w.opts.Pattern, base)
		return ok
	}
	return true
}

// Stats returns a snapshot of counters and the most recent conversions.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	recent := make([]Record, len(w.history))
	copy(recent, w.history)
	return Stats{
		Dirs:      w.opts.Dirs,
		Pending:   len(w.pending),
		Converted: w.converted,
		Failed:    w.failed,
		Recent:    recent,
	}
}
