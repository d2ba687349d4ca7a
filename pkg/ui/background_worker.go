// This file implements the BackgroundWorker: it watches the data source on
// disk and reloads the dataset off the UI goroutine when it changes.
package ui

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/contentcrush/crush/pkg/model"
)

// WorkerState represents the current state of the background worker.
type WorkerState int

const (
	// WorkerIdle means the worker is waiting for file changes.
	WorkerIdle WorkerState = iota
	// WorkerProcessing means the worker is reloading the dataset.
	WorkerProcessing
	// WorkerStopped means the worker has been stopped.
	WorkerStopped
)

func (s WorkerState) String() string {
	switch s {
	case WorkerIdle:
		return "idle"
	case WorkerProcessing:
		return "processing"
	case WorkerStopped:
		return "stopped"
	}
	return fmt.Sprintf("WorkerState(%d)", int(s))
}

// WorkerError wraps errors with phase and retry context.
type WorkerError struct {
	Phase   string    // "load", "hash"
	Cause   error     // The underlying error
	Time    time.Time // When the error occurred
	Retries int       // Consecutive failures including this one
}

func (e WorkerError) Error() string {
	return fmt.Sprintf("%s failed: %v (retries: %d)", e.Phase, e.Cause, e.Retries)
}

func (e WorkerError) Unwrap() error {
	return e.Cause
}

// BackgroundWorker watches the source file, coalesces bursts of changes and
// posts a DatasetMsg when the content actually changed.
type BackgroundWorker struct {
	sourcePath string
	source     DataSource
	debounce   time.Duration
	send       func(tea.Msg)
	logger     *zap.Logger

	mu         sync.RWMutex
	state      WorkerState
	dirty      bool // A change came in while processing
	dataset    *model.Dataset
	started    bool
	lastHash   string
	lastError  *WorkerError
	errorCount int

	watcher *fsnotify.Watcher
	wg      sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// WorkerConfig configures the BackgroundWorker.
type WorkerConfig struct {
	SourcePath string        // File to watch; empty disables watching
	Source     DataSource    // Reloaded on change
	Debounce   time.Duration // Quiet period before reloading; default 200ms
	Send       func(tea.Msg) // Usually (*tea.Program).Send; nil drops messages
	Logger     *zap.Logger
}

// NewBackgroundWorker creates a new background worker. The watch is set up
// here so a missing directory fails early.
func NewBackgroundWorker(cfg WorkerConfig) (*BackgroundWorker, error) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = 200 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &BackgroundWorker{
		sourcePath: cfg.SourcePath,
		source:     cfg.Source,
		debounce:   cfg.Debounce,
		send:       cfg.Send,
		logger:     cfg.Logger,
		state:      WorkerIdle,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}

	if cfg.SourcePath != "" {
		fw, err := fsnotify.NewWatcher()
		if err != nil {
			cancel()
			return nil, fmt.Errorf("creating watcher: %w", err)
		}
		// Watch the directory: atomic saves replace the file, and sqlite
		// writes land in the -wal sidecar first.
		if err := fw.Add(filepath.Dir(cfg.SourcePath)); err != nil {
			fw.Close()
			cancel()
			return nil, fmt.Errorf("watching %s: %w", cfg.SourcePath, err)
		}
		w.watcher = fw
	}

	return w, nil
}

// Start begins watching for file changes. Start is idempotent.
func (w *BackgroundWorker) Start() error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	w.started = true
	w.mu.Unlock()

	if w.watcher != nil {
		go w.processLoop()
	} else {
		close(w.done)
	}
	return nil
}

// Stop halts the worker and waits for in-flight reloads. Stop is idempotent.
func (w *BackgroundWorker) Stop() {
	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	w.state = WorkerStopped
	wasStarted := w.started
	w.mu.Unlock()

	w.cancel()

	if w.watcher != nil {
		w.watcher.Close()
	}

	if wasStarted {
		select {
		case <-w.done:
		case <-time.After(2 * time.Second):
			w.logger.Warn("background worker did not stop in time")
		}
	}
	w.wg.Wait()
}

// TriggerRefresh reloads now, outside the debounce. If a reload is running
// another one follows it.
func (w *BackgroundWorker) TriggerRefresh() {
	w.mu.Lock()
	switch w.state {
	case WorkerStopped:
		w.mu.Unlock()
		return
	case WorkerProcessing:
		w.dirty = true
		w.mu.Unlock()
		return
	}
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()
		w.process()
	}()
}

// Dataset returns the last dataset the worker loaded (may be nil).
func (w *BackgroundWorker) Dataset() *model.Dataset {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.dataset
}

// State returns the current worker state.
func (w *BackgroundWorker) State() WorkerState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// processLoop turns bursts of relevant file events into one reload.
func (w *BackgroundWorker) processLoop() {
	defer close(w.done)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.ctx.Done():
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			w.process()
		}
	}
}

// relevant reports whether ev touches the source file or its sqlite
// journal. The -shm index is skipped since reads update it.
func (w *BackgroundWorker) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return false
	}
	base := filepath.Base(w.sourcePath)
	name := filepath.Base(ev.Name)
	if name == base {
		return true
	}
	suffix, ok := strings.CutPrefix(name, base)
	return ok && (suffix == "-wal" || suffix == "-journal")
}

// process reloads the dataset and posts it when it changed.
func (w *BackgroundWorker) process() {
	w.mu.Lock()
	if w.state != WorkerIdle {
		if w.state == WorkerProcessing {
			w.dirty = true
		}
		w.mu.Unlock()
		return
	}
	w.state = WorkerProcessing
	w.dirty = false
	w.mu.Unlock()

	d := w.reload()

	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	if d != nil {
		w.dataset = d
	}
	wasDirty := w.dirty
	w.state = WorkerIdle
	w.mu.Unlock()

	if d != nil {
		w.post(DatasetMsg{Dataset: d, FromWatcher: true})
	}

	if wasDirty {
		w.process()
	}
}

// reload loads and hashes the dataset. It returns nil when loading failed
// or the content is unchanged.
func (w *BackgroundWorker) reload() *model.Dataset {
	if w.source == nil {
		return nil
	}
	start := time.Now()

	var d *model.Dataset
	if werr := w.safeCompute("load", func() error {
		var err error
		d, err = w.source.LoadDataset(w.ctx)
		return err
	}); werr != nil {
		w.recordError(werr)
		w.logger.Warn("reload failed", zap.String("phase", werr.Phase), zap.Int("retries", werr.Retries), zap.Error(werr.Cause))
		w.post(DatasetMsg{Err: werr, FromWatcher: true})
		return nil
	}

	var hash string
	if werr := w.safeCompute("hash", func() error {
		var err error
		hash, err = datasetHash(d)
		return err
	}); werr != nil {
		w.recordError(werr)
		w.logger.Warn("hashing dataset", zap.Error(werr.Cause))
		return nil
	}

	w.mu.RLock()
	lastHash := w.lastHash
	w.mu.RUnlock()

	w.recordError(nil)
	if hash == lastHash && lastHash != "" {
		w.logger.Debug("dataset unchanged, skipping", zap.String("hash", hashPrefix(hash)))
		return nil
	}

	w.mu.Lock()
	w.lastHash = hash
	w.mu.Unlock()

	w.logger.Info("reloaded dataset",
		zap.Int("clients", len(d.Clients)),
		zap.Int("attachments", len(d.Attachments)),
		zap.Duration("took", time.Since(start)),
		zap.String("hash", hashPrefix(hash)))
	return d
}

func (w *BackgroundWorker) post(msg tea.Msg) {
	if w.send != nil {
		w.send(msg)
	}
}

// safeCompute executes fn and recovers from any panics.
// Returns a WorkerError if fn fails or panics, nil otherwise.
func (w *BackgroundWorker) safeCompute(phase string, fn func() error) *WorkerError {
	var result *WorkerError
	func() {
		defer func() {
			if r := recover(); r != nil {
				result = &WorkerError{
					Phase: phase,
					Cause: fmt.Errorf("panic: %v\n%s", r, debug.Stack()),
					Time:  time.Now(),
				}
			}
		}()
		if err := fn(); err != nil {
			result = &WorkerError{
				Phase: phase,
				Cause: err,
				Time:  time.Now(),
			}
		}
	}()
	return result
}

// recordError tracks an error and updates error state. nil resets it.
func (w *BackgroundWorker) recordError(err *WorkerError) {
	w.mu.Lock()
	w.lastError = err
	if err != nil {
		w.errorCount++
		err.Retries = w.errorCount
	} else {
		w.errorCount = 0
	}
	w.mu.Unlock()
}

// LastError returns the most recent error (nil if last operation succeeded).
func (w *BackgroundWorker) LastError() *WorkerError {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastError
}

// LastHash returns the content hash of the last dataset posted.
func (w *BackgroundWorker) LastHash() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastHash
}

// ResetHash clears the stored content hash, forcing the next reload to be
// posted even if content is unchanged.
func (w *BackgroundWorker) ResetHash() {
	w.mu.Lock()
	w.lastHash = ""
	w.mu.Unlock()
}

// datasetHash is a content hash of d's canonical JSON encoding.
func datasetHash(d *model.Dataset) (string, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// hashPrefix returns up to 16 characters of hash for logging.
func hashPrefix(hash string) string {
	if len(hash) > 16 {
		return hash[:16]
	}
	return hash
}
