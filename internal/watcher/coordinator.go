package watcher

import (
	"context"
	"log"
	"sort"
	"sync"
)

// WatchCoordinator routes debounced file changes to re-analysis runs. At most
// one run is active at a time: the file watcher is paused for the duration of
// a run and changes seen meanwhile trigger one follow-up run.
type WatchCoordinator struct {
	files   FileWatcher
	analyze AnalyzeFunc

	pendingMu sync.Mutex
	pending   map[string]bool
	signal    chan struct{}
}

// NewWatchCoordinator creates a new watch coordinator.
func NewWatchCoordinator(files FileWatcher, analyze AnalyzeFunc) *WatchCoordinator {
	return &WatchCoordinator{
		files:   files,
		analyze: analyze,
		pending: make(map[string]bool),
		signal:  make(chan struct{}, 1),
	}
}

// Start begins watching and re-analyzing on change.
// Blocks until context is cancelled and returns the context error.
func (c *WatchCoordinator) Start(ctx context.Context) error {
	if err := c.files.Start(ctx, c.handleFileChange); err != nil {
		c.cleanup()
		return err
	}
	defer c.cleanup()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.signal:
			c.runAnalysis(ctx)
		}
	}
}

func (c *WatchCoordinator) cleanup() {
	if err := c.files.Stop(); err != nil {
		log.Printf("Warning: file watcher stop failed: %v", err)
	}
}

// handleFileChange queues changed files for the next run. It never blocks
// the watcher.
func (c *WatchCoordinator) handleFileChange(files []string) {
	if len(files) == 0 {
		return
	}

	c.pendingMu.Lock()
	for _, file := range files {
		c.pending[file] = true
	}
	c.pendingMu.Unlock()

	select {
	case c.signal <- struct{}{}:
	default:
	}
}

func (c *WatchCoordinator) takePending() []string {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()

	files := make([]string, 0, len(c.pending))
	for file := range c.pending {
		files = append(files, file)
	}
	c.pending = make(map[string]bool)
	sort.Strings(files)
	return files
}

func (c *WatchCoordinator) runAnalysis(ctx context.Context) {
	files := c.takePending()
	if len(files) == 0 {
		return
	}

	c.files.Pause()
	defer c.files.Resume()

	log.Printf("Detected %d changed file(s), re-analyzing...", len(files))
	if err := c.analyze(ctx, files); err != nil && ctx.Err() == nil {
		log.Printf("Error: analysis failed: %v", err)
	}
}
