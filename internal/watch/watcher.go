// Package watch rebuilds the content tree whenever the registry changes.
//
// A filesystem watcher covers the registry root (index and archives), with
// rapid event bursts debounced into a single rebuild. An optional gocron job
// forces periodic full rebuilds as a safety net for missed events.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"github.com/formulary/formdocs/internal/logfields"
)

// RebuildFunc performs one full content rebuild.
type RebuildFunc func(ctx context.Context) error

// Watcher drives rebuilds from filesystem events and an optional schedule.
type Watcher struct {
	root     string
	exclude  []string
	debounce time.Duration
	interval time.Duration
	rebuild  RebuildFunc
	kick     chan struct{}
}

// New creates a watcher over root. Paths under any exclude entry (the output
// tree, state directories) never trigger rebuilds; watching your own output
// would rebuild forever.
func New(root string, exclude []string, debounce, interval time.Duration, rebuild RebuildFunc) (*Watcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve watch root: %w", err)
	}
	absExclude := make([]string, 0, len(exclude))
	for _, e := range exclude {
		abs, err := filepath.Abs(e)
		if err != nil {
			return nil, fmt.Errorf("resolve exclude path %s: %w", e, err)
		}
		absExclude = append(absExclude, abs)
	}
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &Watcher{
		root:     absRoot,
		exclude:  absExclude,
		debounce: debounce,
		interval: interval,
		rebuild:  rebuild,
		kick:     make(chan struct{}, 1),
	}, nil
}

// Run blocks until ctx is canceled, rebuilding on registry changes.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addRecursive(fsw, w.root); err != nil {
		return err
	}
	slog.Info("Watching registry", logfields.Path(w.root))

	if w.interval > 0 {
		sched, err := gocron.NewScheduler()
		if err != nil {
			return fmt.Errorf("create scheduler: %w", err)
		}
		_, err = sched.NewJob(
			gocron.DurationJob(w.interval),
			gocron.NewTask(w.requestRebuild),
			gocron.WithName("periodic-rebuild"),
		)
		if err != nil {
			return fmt.Errorf("schedule periodic rebuild: %w", err)
		}
		sched.Start()
		defer func() { _ = sched.Shutdown() }()
		slog.Info("Periodic rebuild scheduled", slog.Duration("interval", w.interval))
	}

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.excluded(ev.Name) {
				continue
			}
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(fsw, ev.Name); err != nil {
						slog.Warn("Failed to watch new directory", logfields.Path(ev.Name), logfields.Error(err))
					}
				}
			}
			slog.Debug("Registry change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("File watcher error", logfields.Error(err))

		case <-w.kick:
			w.doRebuild(ctx)

		case <-timerC:
			timer = nil
			timerC = nil
			w.doRebuild(ctx)
		}
	}
}

func (w *Watcher) requestRebuild() {
	select {
	case w.kick <- struct{}{}:
	default:
		// A rebuild is already pending.
	}
}

func (w *Watcher) doRebuild(ctx context.Context) {
	if err := w.rebuild(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		slog.Error("Rebuild failed", logfields.Error(err))
	}
}

func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.excluded(p) || strings.HasPrefix(d.Name(), ".") && p != dir {
			return filepath.SkipDir
		}
		if err := fsw.Add(p); err != nil {
			return fmt.Errorf("watch directory %s: %w", p, err)
		}
		return nil
	})
}

func (w *Watcher) excluded(p string) bool {
	abs, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	for _, e := range w.exclude {
		if abs == e || strings.HasPrefix(abs, e+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
