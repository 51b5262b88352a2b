package watcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for WatchCoordinator:
// - File change event triggers one analysis run with the sorted changed files
// - The watcher is paused during a run and resumed afterwards
// - Changes arriving during a run are batched into a single follow-up run
// - Analysis errors are logged and watching continues
// - File watcher Start() failure is propagated and cleanup runs
// - Context cancellation returns the context error and stops the watcher

// mockFileWatcher implements FileWatcher for testing.
type mockFileWatcher struct {
	startErr          error
	stopErr           error
	startCallback     func(files []string)
	pauseCount        int
	resumeCount       int
	stopCalled        bool
	paused            bool
	accumulatedEvents [][]string
	mu                sync.Mutex
}

func (m *mockFileWatcher) Start(ctx context.Context, callback func(files []string)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return m.startErr
	}
	m.startCallback = callback
	return nil
}

func (m *mockFileWatcher) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalled = true
	return m.stopErr
}

func (m *mockFileWatcher) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauseCount++
	m.paused = true
}

func (m *mockFileWatcher) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resumeCount++
	m.paused = false

	for _, files := range m.accumulatedEvents {
		m.startCallback(files)
	}
	m.accumulatedEvents = nil
}

func (m *mockFileWatcher) triggerFileChange(files []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.paused {
		m.accumulatedEvents = append(m.accumulatedEvents, files)
		return
	}
	if m.startCallback != nil {
		m.startCallback(files)
	}
}

func (m *mockFileWatcher) started() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startCallback != nil
}

func (m *mockFileWatcher) isPaused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

// mockAnalyzer records analysis runs.
type mockAnalyzer struct {
	err     error
	calls   [][]string
	release chan struct{} // when set, each run blocks until it receives
	running chan struct{}
	done    chan struct{}
	mu      sync.Mutex
}

func newMockAnalyzer() *mockAnalyzer {
	return &mockAnalyzer{
		running: make(chan struct{}, 10),
		done:    make(chan struct{}, 10),
	}
}

func (m *mockAnalyzer) analyze(ctx context.Context, changed []string) error {
	m.mu.Lock()
	m.calls = append(m.calls, changed)
	err := m.err
	release := m.release
	m.mu.Unlock()

	m.running <- struct{}{}
	if release != nil {
		<-release
	}
	m.done <- struct{}{}
	return err
}

func (m *mockAnalyzer) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func startCoordinator(t *testing.T, files *mockFileWatcher, analyzer *mockAnalyzer) (context.CancelFunc, <-chan error) {
	t.Helper()

	coord := NewWatchCoordinator(files, analyzer.analyze)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- coord.Start(ctx)
	}()

	require.Eventually(t, files.started, time.Second, 10*time.Millisecond)
	return cancel, errCh
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

// Test: File change event triggers one analysis run with the sorted changed files
func TestWatchCoordinator_FileChangeTriggersAnalysis(t *testing.T) {
	t.Parallel()

	files := &mockFileWatcher{}
	analyzer := newMockAnalyzer()
	cancel, errCh := startCoordinator(t, files, analyzer)
	defer cancel()

	files.triggerFileChange([]string{"/p/b.py", "/p/a.ts"})
	waitFor(t, analyzer.done, "analysis")

	analyzer.mu.Lock()
	assert.Equal(t, [][]string{{"/p/a.ts", "/p/b.py"}}, analyzer.calls)
	analyzer.mu.Unlock()

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
}

// Test: The watcher is paused during a run and resumed afterwards
func TestWatchCoordinator_PausesDuringRun(t *testing.T) {
	t.Parallel()

	files := &mockFileWatcher{}
	analyzer := newMockAnalyzer()
	analyzer.release = make(chan struct{})
	cancel, _ := startCoordinator(t, files, analyzer)
	defer cancel()

	files.triggerFileChange([]string{"/p/a.py"})
	waitFor(t, analyzer.running, "run start")
	assert.True(t, files.isPaused(), "watcher paused while analysis runs")

	analyzer.release <- struct{}{}
	waitFor(t, analyzer.done, "run end")

	require.Eventually(t, func() bool { return !files.isPaused() }, time.Second, 10*time.Millisecond)
	files.mu.Lock()
	assert.Equal(t, 1, files.pauseCount)
	assert.Equal(t, 1, files.resumeCount)
	files.mu.Unlock()
}

// Test: Changes arriving during a run are batched into a single follow-up run
func TestWatchCoordinator_ChangesDuringRunAreBatched(t *testing.T) {
	t.Parallel()

	files := &mockFileWatcher{}
	analyzer := newMockAnalyzer()
	analyzer.release = make(chan struct{}, 10)
	cancel, _ := startCoordinator(t, files, analyzer)
	defer cancel()

	files.triggerFileChange([]string{"/p/first.py"})
	waitFor(t, analyzer.running, "first run")

	files.triggerFileChange([]string{"/p/second.py"})
	files.triggerFileChange([]string{"/p/third.py", "/p/second.py"})

	analyzer.release <- struct{}{}
	waitFor(t, analyzer.done, "first run end")

	waitFor(t, analyzer.running, "follow-up run")
	analyzer.release <- struct{}{}
	waitFor(t, analyzer.done, "follow-up run end")

	// no third run
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 2, analyzer.callCount())

	analyzer.mu.Lock()
	defer analyzer.mu.Unlock()
	assert.Equal(t, []string{"/p/first.py"}, analyzer.calls[0])
	assert.Equal(t, []string{"/p/second.py", "/p/third.py"}, analyzer.calls[1])
}

// Test: Analysis errors are logged and watching continues
func TestWatchCoordinator_AnalysisErrorContinues(t *testing.T) {
	t.Parallel()

	files := &mockFileWatcher{}
	analyzer := newMockAnalyzer()
	analyzer.err = errors.New("boom")
	cancel, _ := startCoordinator(t, files, analyzer)
	defer cancel()

	files.triggerFileChange([]string{"/p/a.py"})
	waitFor(t, analyzer.done, "first run")

	files.triggerFileChange([]string{"/p/b.py"})
	waitFor(t, analyzer.done, "second run")

	assert.Equal(t, 2, analyzer.callCount())
}

// Test: File watcher Start() failure is propagated and cleanup runs
func TestWatchCoordinator_StartError(t *testing.T) {
	t.Parallel()

	files := &mockFileWatcher{startErr: errors.New("watch failed")}
	coord := NewWatchCoordinator(files, newMockAnalyzer().analyze)

	err := coord.Start(context.Background())
	assert.EqualError(t, err, "watch failed")

	files.mu.Lock()
	defer files.mu.Unlock()
	assert.True(t, files.stopCalled)
}

// Test: Context cancellation returns the context error and stops the watcher
func TestWatchCoordinator_ContextCancellation(t *testing.T) {
	t.Parallel()

	files := &mockFileWatcher{stopErr: errors.New("already closed")}
	cancel, errCh := startCoordinator(t, files, newMockAnalyzer())

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("coordinator did not stop")
	}

	files.mu.Lock()
	defer files.mu.Unlock()
	assert.True(t, files.stopCalled)
}

// Test: Empty change sets are ignored
func TestWatchCoordinator_EmptyChange(t *testing.T) {
	t.Parallel()

	files := &mockFileWatcher{}
	analyzer := newMockAnalyzer()
	cancel, _ := startCoordinator(t, files, analyzer)
	defer cancel()

	files.triggerFileChange(nil)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, analyzer.callCount())
}
