// Package watch keeps a directory of saved websites upgraded: file events and
// a periodic sweep feed document names to a small pool of upgrade workers.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sitemigrate/internal/logfields"
	"git.home.luguber.info/inful/sitemigrate/internal/runner"
	"git.home.luguber.info/inful/sitemigrate/internal/storage"
)

// Source is a document store backed by a directory.
type Source interface {
	storage.DocumentStore
	Dir() string
	NameFromPath(path string) (string, bool)
}

// Config tunes a Watcher.
type Config struct {
	Schedule string        // cron expression for the sweep; empty disables it
	Debounce time.Duration // quiet period after the last file event
	Workers  int
}

// Watcher upgrades documents as they appear or change.
type Watcher struct {
	source Source
	runner *runner.Runner
	cfg    Config
	logger *slog.Logger

	scheduler *Scheduler
	fsw       *fsnotify.Watcher
	workers   pool
	queue     chan string
	cancel    context.CancelFunc

	mu       sync.Mutex
	timers   map[string]*time.Timer
	seen     map[string]string // name -> hash after the last run
	inflight map[string]bool
	dirty    map[string]bool
}

// New returns a Watcher. The runner must operate on source.
func New(source Source, r *runner.Runner, cfg Config, logger *slog.Logger) *Watcher {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		source:   source,
		runner:   r,
		cfg:      cfg,
		logger:   logger,
		queue:    make(chan string, 256),
		timers:   make(map[string]*time.Timer),
		seen:     make(map[string]string),
		inflight: make(map[string]bool),
		dirty:    make(map[string]bool),
	}
}

// Start begins watching. It runs one sweep before returning.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(w.source.Dir()); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("failed to watch %s: %w", w.source.Dir(), err)
	}
	w.fsw = fsw
	w.workers.reopen()

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	if w.cfg.Schedule != "" {
		s, err := NewScheduler()
		if err != nil {
			cancel()
			_ = fsw.Close()
			return err
		}
		if _, err := s.ScheduleCron("sweep", w.cfg.Schedule, func() { w.Sweep(ctx) }); err != nil {
			cancel()
			_ = fsw.Close()
			return err
		}
		w.scheduler = s
		s.Start(ctx)
	}

	for range w.cfg.Workers {
		w.workers.spawn(func() { w.worker(ctx) })
	}
	w.workers.spawn(func() { w.watchLoop(ctx) })

	w.logger.Info("Watching saved websites", slog.String("dir", w.source.Dir()),
		slog.Int("workers", w.cfg.Workers), slog.String("schedule", w.cfg.Schedule))
	w.Sweep(ctx)
	return nil
}

// Stop halts watching and waits for workers, bounded by ctx.
func (w *Watcher) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}
	var errs []error
	if w.scheduler != nil {
		errs = append(errs, w.scheduler.Stop(ctx))
	}
	if w.fsw != nil {
		errs = append(errs, w.fsw.Close())
	}
	w.mu.Lock()
	for name, t := range w.timers {
		t.Stop()
		delete(w.timers, name)
	}
	w.mu.Unlock()
	errs = append(errs, w.workers.close(ctx))
	return errors.Join(errs...)
}

// Sweep queues every stored document.
func (w *Watcher) Sweep(ctx context.Context) {
	names, err := w.source.List(ctx)
	if err != nil {
		w.logger.Error("Sweep failed to list documents", logfields.Error(err))
		return
	}
	w.logger.Debug("Sweeping saved websites", logfields.Count(len(names)))
	for _, name := range names {
		w.enqueue(ctx, name)
	}
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			name, ok := w.source.NameFromPath(event.Name)
			if !ok {
				continue
			}
			w.logger.Debug("Saved website changed", logfields.Document(name), slog.String("op", event.Op.String()))
			w.debounce(ctx, name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", logfields.Error(err))
		}
	}
}

// debounce queues name once events for it have been quiet for cfg.Debounce.
func (w *Watcher) debounce(ctx context.Context, name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[name]; ok {
		t.Reset(w.cfg.Debounce)
		return
	}
	w.timers[name] = time.AfterFunc(w.cfg.Debounce, func() {
		w.mu.Lock()
		delete(w.timers, name)
		w.mu.Unlock()
		w.enqueue(ctx, name)
	})
}

func (w *Watcher) enqueue(ctx context.Context, name string) {
	select {
	case w.queue <- name:
	case <-ctx.Done():
	}
}

func (w *Watcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case name := <-w.queue:
			w.process(ctx, name)
		}
	}
}

func (w *Watcher) process(ctx context.Context, name string) {
	w.mu.Lock()
	if w.inflight[name] {
		w.dirty[name] = true
		w.mu.Unlock()
		return
	}
	w.inflight[name] = true
	w.mu.Unlock()

	w.processOnce(ctx, name)

	w.mu.Lock()
	delete(w.inflight, name)
	again := w.dirty[name]
	delete(w.dirty, name)
	w.mu.Unlock()
	if again {
		w.enqueue(ctx, name)
	}
}

func (w *Watcher) processOnce(ctx context.Context, name string) {
	log := w.logger.With(logfields.Document(name))
	b, err := w.source.Load(ctx, name)
	if err != nil {
		if !storage.IsNotFound(err) {
			log.Warn("Could not load saved website", logfields.Error(err))
		}
		return
	}
	w.mu.Lock()
	unchanged := w.seen[name] == b.Hash
	w.mu.Unlock()
	if unchanged {
		return
	}

	out, err := w.runner.Upgrade(ctx, name, false)
	if err != nil {
		log.Warn("Upgrade failed", logfields.Error(err))
	} else if out.Saved {
		log.Info("Upgraded saved website", slog.String("outcome", out.Run.Outcome))
	}
	// Failed documents are remembered too so they are retried only once edited.
	hash := b.Hash
	if out != nil && out.Hash != "" {
		hash = out.Hash
	}
	w.mu.Lock()
	w.seen[name] = hash
	w.mu.Unlock()
}
