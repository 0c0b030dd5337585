package progress

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// LogManager implements Manager with throttled line-based output for
// non-TTY environments (CI, batch hosts). Prints periodic status lines
// instead of interactive progress bars.
type LogManager struct {
	mu sync.Mutex
}

// NewLogManager creates a new log-based progress manager.
func NewLogManager() *LogManager {
	return &LogManager{}
}

func (m *LogManager) NewTracker(index, total int, name string) Tracker {
	return &logTracker{
		mgr:   m,
		index: index,
		total: total,
		name:  name,
		start: time.Now(),
	}
}

func (m *LogManager) Wait() {}

const logInterval = 10 * time.Second

// logTracker implements Tracker with throttled log output.
type logTracker struct {
	mgr     *LogManager
	index   int
	total   int
	name    string
	start   time.Time
	stage   string
	lastLog time.Time
}

func (t *logTracker) log(msg string) {
	t.mgr.mu.Lock()
	defer t.mgr.mu.Unlock()
	ts := time.Now().Format("15:04:05")
	fmt.Fprintf(os.Stderr, "%s [%d/%d] %s  %s\n", ts, t.index+1, t.total, t.name, msg)
}

func (t *logTracker) SetStage(stage string) {
	t.stage = stage
	t.lastLog = time.Time{} // reset throttle so next counter update prints
	t.log(stage)
}

func (t *logTracker) SetCounter(name string, value int64) {
	if time.Since(t.lastLog) < logInterval {
		return
	}
	t.lastLog = time.Now()
	if t.stage != "" {
		t.log(fmt.Sprintf("%s  %s: %s", t.stage, name, humanCount(value)))
	} else {
		t.log(fmt.Sprintf("%s: %s", name, humanCount(value)))
	}
}

func (t *logTracker) LogWarning(msg string) {
	t.log("WARN: " + msg)
}

func (t *logTracker) Done() {
	elapsed := time.Since(t.start).Truncate(time.Second)
	t.log(fmt.Sprintf("Finished in %s", elapsed))
}

// humanCount renders large counts as 1.2K / 3.4M / 5.6B.
func humanCount(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
