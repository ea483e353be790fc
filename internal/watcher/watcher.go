// Package watcher ingests documents dropped into a directory.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
	"github.com/akolanti/StudyRAG/internal/rag/ingest"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 500 * time.Millisecond

// Ingester is the part of the engine the watcher drives.
type Ingester interface {
	Ingest(ctx context.Context, filePath string, filename string) (commonModels.IngestResult, error)
}

// Watcher waits until a file has stopped changing for the debounce period,
// then ingests it under its base name. Files are ingested one at a time.
type Watcher struct {
	dir      string
	ingester Ingester
	debounce time.Duration
	onResult func(path string, result commonModels.IngestResult, err error)
	watcher  *fsnotify.Watcher
	logger   *logger_i.Logger

	pendingMu sync.Mutex
	pending   map[string]time.Time
}

type Config struct {
	Dir      string
	Ingester Ingester
	// Debounce defaults to 500ms.
	Debounce time.Duration
	// OnResult, when set, is called after every ingestion attempt.
	OnResult func(path string, result commonModels.IngestResult, err error)
}

func New(cfg Config) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Watcher{
		dir:      cfg.Dir,
		ingester: cfg.Ingester,
		debounce: debounce,
		onResult: cfg.OnResult,
		watcher:  fw,
		logger:   logger_i.NewLogger("watcher").With("dir", cfg.Dir),
		pending:  make(map[string]time.Time),
	}, nil
}

// IngestExisting ingests every supported file already in the directory, in name order.
func (w *Watcher) IngestExisting(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && ingest.Supported(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.ingest(ctx, filepath.Join(w.dir, name))
	}
	return nil
}

// Watch blocks until ctx is cancelled and any ingestion it started has returned.
func (w *Watcher) Watch(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		w.watcher.Close()
		return err
	}
	w.logger.Info("watching for new documents")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.processDebounced(ctx)
	}()
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stopping watcher")
			return w.watcher.Close()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !ingest.Supported(event.Name) {
		return
	}
	w.pendingMu.Lock()
	w.pending[event.Name] = time.Now()
	w.pendingMu.Unlock()
	w.logger.Debug("file changed", "path", event.Name, "op", event.Op.String())
}

func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, path := range w.due(time.Now()) {
				w.ingest(ctx, path)
			}
		}
	}
}

// due removes and returns the paths that have been quiet for the debounce period.
func (w *Watcher) due(now time.Time) []string {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	var ready []string
	for path, changedAt := range w.pending {
		if now.Sub(changedAt) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	sort.Strings(ready)
	return ready
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, config.IngestJobTimeout)
	defer cancel()

	log := w.logger.With("path", path)
	log.Info("ingesting")
	result, err := w.ingester.Ingest(ctx, path, filepath.Base(path))
	if err != nil {
		log.Error("ingestion failed", "error", err)
	} else {
		log.Info("ingested", "chunks", result.TotalChunks, "replaced", result.Replaced)
		if result.Images.Warning != "" {
			log.Warn("image stage incomplete", "warning", result.Images.Warning)
		}
	}
	if w.onResult != nil {
		w.onResult(path, result, err)
	}
}
