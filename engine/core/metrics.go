package core

import (
	"sync"
	"time"

	"github.com/spaghettifunk/fusen/engine/containers"
)

const AVG_COUNT uint8 = 30

// SessionMetrics counts what the mesh pipeline did with each anchor event.
// It is safe for concurrent use.
type SessionMetrics struct {
	mu sync.Mutex

	received           uint64
	added              uint64
	updated            uint64
	removed            uint64
	dropped            uint64
	stale              uint64
	violations         uint64
	markers            uint64
	buildTimes         *containers.RingQueue[time.Duration]
	averageBuildTimeMS float64
}

// MetricsSnapshot is a point in time copy of SessionMetrics.
type MetricsSnapshot struct {
	Received   uint64
	Added      uint64
	Updated    uint64
	Removed    uint64
	Dropped    uint64
	Stale      uint64
	Violations uint64
	Markers    uint64
	// Rolling average over the last AVG_COUNT geometry builds.
	AverageBuildMS float64
}

func NewSessionMetrics() *SessionMetrics {
	return &SessionMetrics{
		buildTimes: containers.NewRingQueue[time.Duration](int(AVG_COUNT)),
	}
}

func (m *SessionMetrics) EventReceived() { m.inc(&m.received) }
func (m *SessionMetrics) AnchorAdded() { m.inc(&m.added) }
func (m *SessionMetrics) AnchorUpdated() { m.inc(&m.updated) }
func (m *SessionMetrics) AnchorRemoved() { m.inc(&m.removed) }
func (m *SessionMetrics) EventDropped() { m.inc(&m.dropped) }
func (m *SessionMetrics) BuildDiscarded() { m.inc(&m.stale) }
func (m *SessionMetrics) ConsistencyViolation() { m.inc(&m.violations) }
func (m *SessionMetrics) MarkerPlaced() { m.inc(&m.markers) }

func (m *SessionMetrics) inc(counter *uint64) {
	m.mu.Lock()
	*counter++
	m.mu.Unlock()
}

// BuildFinished records how long a single static mesh generation took.
func (m *SessionMetrics) BuildFinished(elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.buildTimes.Push(elapsed)
	total := float64(0)
	m.buildTimes.Each(func(d time.Duration) {
		total += float64(d) / float64(time.Millisecond)
	})
	m.averageBuildTimeMS = total / float64(m.buildTimes.Len())
}

func (m *SessionMetrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		Received:       m.received,
		Added:          m.added,
		Updated:        m.updated,
		Removed:        m.removed,
		Dropped:        m.dropped,
		Stale:          m.stale,
		Violations:     m.violations,
		Markers:        m.markers,
		AverageBuildMS: m.averageBuildTimeMS,
	}
}
