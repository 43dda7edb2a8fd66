// Package yield implements C8: frame-paced cooperative yielding plus the
// periodic process-memory probe and the global abort flag it drives. On a
// host that already parallelizes workers across OS threads the yield is a
// no-op for correctness and exists only so an embedding host that
// multiplexes this engine with UI work (e.g. the bubbletea live view in
// C14) gets a predictable suspension point, per §9's cooperative-yielding
// design note.
package yield

import (
	"runtime"
	"sync/atomic"
	"time"
)

// FrameBudget is the default cooperative-yield pacing, one 60Hz frame.
const FrameBudget = time.Second / 60

// Monitor owns the process-wide memory probe and abort flag. Build one with
// NewMonitor: the zero value has no memory reader, so ProbeAndCheck panics
// on it. How often to probe is left to the caller (§4.3's K=500 ops).
type Monitor struct {
	thresholdBytes uint64
	aborted        atomic.Bool
	lastHeapBytes  atomic.Uint64
	reader         func() uint64
}

// NewMonitor builds a monitor that aborts once process memory reaches
// thresholdGB gigabytes.
func NewMonitor(thresholdGB float64) *Monitor {
	return &Monitor{
		thresholdBytes: uint64(thresholdGB * (1 << 30)),
		reader:         readHeapAlloc,
	}
}

func readHeapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.HeapAlloc
}

// ProbeAndCheck samples process memory and reports whether the threshold
// has been crossed, latching the abort flag permanently once it has (a
// memory-exceeded run never un-aborts).
func (m *Monitor) ProbeAndCheck() bool {
	if m == nil {
		return false
	}
	if m.aborted.Load() {
		return true
	}
	heap := m.reader()
	m.lastHeapBytes.Store(heap)
	if heap >= m.thresholdBytes {
		m.aborted.Store(true)
		return true
	}
	return false
}

// Aborted reports the current abort state without sampling memory again.
func (m *Monitor) Aborted() bool {
	if m == nil {
		return false
	}
	return m.aborted.Load()
}

// LastHeapBytes returns the most recently sampled heap size, for telemetry.
func (m *Monitor) LastHeapBytes() uint64 {
	if m == nil {
		return 0
	}
	return m.lastHeapBytes.Load()
}

// Reset clears the abort flag so the engine remains usable for a
// subsequent, smaller run after a MemoryExceeded failure (§7).
func (m *Monitor) Reset() {
	if m == nil {
		return
	}
	m.aborted.Store(false)
}

// Yielder paces cooperative suspension points to FrameBudget.
type Yielder struct {
	budget time.Duration
	last   time.Time
	noop   bool
}

// NewYielder builds a yielder with the given frame budget. A zero budget
// makes every call to Yield an immediate no-op, matching §9's "make it a
// no-op" guidance for parallel-thread hosts that don't need pacing.
func NewYielder(budget time.Duration) *Yielder {
	return &Yielder{budget: budget, last: time.Now(), noop: budget <= 0}
}

// Yield sleeps just long enough to respect the frame budget if the last
// suspension point was less than one frame ago; otherwise it returns
// immediately. Safe to call at every suspension point named in §5.
func (y *Yielder) Yield() {
	if y == nil || y.noop {
		return
	}
	elapsed := time.Since(y.last)
	if elapsed < y.budget {
		time.Sleep(y.budget - elapsed)
	}
	y.last = time.Now()
}
