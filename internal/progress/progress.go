// Package progress reports pipeline stage transitions, row counters, and
// warnings. Three implementations: mpb bars for interactive terminals,
// throttled log lines for non-TTY runs, and a noop for tests.
package progress

import (
	"fmt"
	"sync/atomic"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Tracker tracks a single pipeline stage.
type Tracker interface {
	SetStage(stage string)
	SetCounter(name string, value int64)
	LogWarning(msg string)
	Done()
}

// Manager creates trackers for pipeline stages.
type Manager interface {
	NewTracker(index, total int, name string) Tracker
	Wait()
}

// MPBManager implements Manager using the mpb multi-progress-bar library.
type MPBManager struct {
	container *mpb.Progress
}

// NewMPBManager creates a new mpb-based progress manager.
func NewMPBManager() *MPBManager {
	return &MPBManager{container: mpb.New(mpb.WithWidth(60))}
}

// NewTracker creates a progress bar for one pipeline stage.
func (m *MPBManager) NewTracker(index, total int, name string) Tracker {
	status := &atomic.Value{}
	status.Store("")
	bar := m.container.AddBar(100,
		mpb.PrependDecorators(
			decor.Name(fmt.Sprintf("[%d/%d] %s ", index+1, total, name), decor.WCSyncSpaceR),
		),
		mpb.AppendDecorators(
			decor.Any(func(s decor.Statistics) string {
				return status.Load().(string)
			}),
		),
	)
	return &mpbTracker{bar: bar, status: status}
}

// Wait waits for all bars to finish rendering.
func (m *MPBManager) Wait() {
	m.container.Wait()
}

type mpbTracker struct {
	bar    *mpb.Bar
	status *atomic.Value
}

func (t *mpbTracker) SetStage(stage string) {
	t.status.Store(stage)
	t.bar.SetCurrent(0)
}

func (t *mpbTracker) SetCounter(name string, value int64) {
	t.status.Store(fmt.Sprintf("%s: %s", name, humanCount(value)))
}

func (t *mpbTracker) LogWarning(msg string) {
	t.status.Store("WARN: " + msg)
}

func (t *mpbTracker) Done() {
	t.bar.SetCurrent(100)
	t.bar.SetTotal(100, true) // mark complete so Wait can return
}

// NoopManager is a no-op progress manager for tests and quiet runs.
type NoopManager struct{}

func (m *NoopManager) NewTracker(index, total int, name string) Tracker { return &noopTracker{} }

func (m *NoopManager) Wait() {}

type noopTracker struct{}

func (t *noopTracker) SetStage(stage string)               {}
func (t *noopTracker) SetCounter(name string, value int64) {}
func (t *noopTracker) LogWarning(msg string)               {}
func (t *noopTracker) Done()                               {}
