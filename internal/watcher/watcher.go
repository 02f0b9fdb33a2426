package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"photobooth/internal/domain"
	"photobooth/internal/usecase/composer"

	"github.com/fsnotify/fsnotify"
	"github.com/wb-go/wbf/zlog"
)

var supportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
}

// Watcher turns new capture files in a directory into CaptureEvents. Every
// file runs through detect, settle, overlay and notify exactly once.
type Watcher struct {
	dir        string
	prefix     string
	settle     time.Duration
	compositor compositor
	publisher  publisher
	logger     *zlog.Zerolog

	mu   sync.Mutex
	seen map[string]struct{}

	fsw    *fsnotify.Watcher
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Watcher)

func WithSettleDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.settle = d
		}
	}
}

func WithProcessedPrefix(prefix string) Option {
	return func(w *Watcher) {
		if prefix != "" {
			w.prefix = prefix
		}
	}
}

func New(dir string, comp compositor, pub publisher, logger *zlog.Zerolog, opts ...Option) *Watcher {
	w := &Watcher{
		dir:        dir,
		prefix:     domain.ProcessedPrefix,
		settle:     domain.DefaultSettleDelay * time.Millisecond,
		compositor: comp,
		publisher:  pub,
		logger:     logger,
		seen:       make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Watcher) Dir() string { return w.dir }

// Start registers the directory watch and returns once events are being
// received. Call Stop to release the watch handle.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create capture dir: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fs watcher: %w", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	w.fsw = fsw
	w.cancel = cancel

	w.wg.Add(1)
	go w.loop(ctx)

	w.logger.Info().
		Str("dir", w.dir).
		Dur("settle", w.settle).
		Bool("overlay", w.compositor != nil).
		Msg("Capture watcher started")
	return nil
}

// Stop closes the watch and waits for in-flight files to finish.
func (w *Watcher) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	w.fsw.Close()
	w.wg.Wait()
	w.logger.Info().Str("dir", w.dir).Msg("Capture watcher stopped")
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !w.accept(event.Name) {
				continue
			}

			w.wg.Add(1)
			go func(path string) {
				defer w.wg.Done()
				w.process(ctx, path)
			}(event.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Str("dir", w.dir).Msg("Watcher error")
		}
	}
}

// accept filters by extension and prefix and claims the file so that later
// events for the same name are ignored.
func (w *Watcher) accept(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, w.prefix) {
		return false
	}
	if !supportedExtensions[strings.ToLower(filepath.Ext(name))] {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, dup := w.seen[name]; dup {
		return false
	}
	w.seen[name] = struct{}{}
	return true
}

// release forgets a claimed name so a later file with the same name is
// processed.
func (w *Watcher) release(name string) {
	w.mu.Lock()
	delete(w.seen, name)
	w.mu.Unlock()
}

func (w *Watcher) process(ctx context.Context, path string) {
	detectedAt := time.Now()
	name := filepath.Base(path)
	w.logger.Debug().Str("file", name).Msg("Capture file detected")

	if err := sleepContext(ctx, w.settle); err != nil {
		return
	}

	if _, err := os.Stat(path); err != nil {
		w.release(name)
		w.logger.Warn().Err(err).Str("file", name).Msg("Capture file vanished while settling")
		return
	}

	event := domain.CaptureEvent{
		Original:   name,
		Processed:  name,
		Outcome:    domain.OutcomeUnavailable,
		DetectedAt: detectedAt,
	}

	if w.compositor != nil {
		processed := w.prefix + name
		err := w.compositor.Apply(ctx, path, filepath.Join(filepath.Dir(path), processed))
		switch {
		case err == nil:
			event.Processed = processed
			event.Outcome = domain.OutcomeApplied
		case errors.Is(err, composer.ErrOverlayMissing):
			w.logger.Warn().Err(err).Str("file", name).Msg("Overlay asset missing, using original")
		default:
			event.Outcome = domain.OutcomeFailed
			w.logger.Error().Err(err).Str("file", name).Msg("Failed to apply overlay, using original")
		}
	}

	if ctx.Err() != nil {
		return
	}

	w.publisher.Publish(event)

	w.logger.Info().
		Str("file", name).
		Str("processed", event.Processed).
		Str("outcome", string(event.Outcome)).
		Dur("took", time.Since(detectedAt)).
		Msg("Capture ready")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
