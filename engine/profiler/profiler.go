package profiler

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-anim/common"
)

// Snapshot is one logged summary of the ticks recorded during an interval.
type Snapshot struct {
	TicksPerSecond float64
	MeanTick       time.Duration
	MaxTick        time.Duration
	HeapMB         float64
	AllocRateMB    float64
	GCCount        uint32
	MaxGCPauseUs   uint64
}

// Profiler tracks animation tick durations and memory statistics for performance monitoring.
// Outputs stats to the log at a configurable interval. It is safe for concurrent use.
type Profiler struct {
	mu *sync.Mutex

	tickCount      int
	tickTotal      time.Duration
	tickMax        time.Duration
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	last           Snapshot

	now func() time.Time
}

// NewProfiler creates a new Profiler.
//
// Parameters:
//   - interval: how often a summary is logged; non-positive values default to 1 second
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(interval time.Duration) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Profiler{
		mu:             &sync.Mutex{},
		lastTime:       time.Now(),
		updateInterval: interval,
		now:            time.Now,
	}
}

// Record should be called once per animation tick with the time the tick took.
// Logs performance statistics when the update interval has elapsed.
//
// Parameters:
//   - d: the duration of the tick
//
// Returns:
//   - bool: true if stats were logged by this call, false otherwise
func (p *Profiler) Record(d time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tickCount++
	p.tickTotal += d
	p.tickMax = max(p.tickMax, d)

	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	seconds := elapsed.Seconds()

	// Alloc is live heap; TotalAlloc only grows, so its delta is the allocation churn.
	s := Snapshot{
		TicksPerSecond: float64(p.tickCount) / seconds,
		MeanTick:       p.tickTotal / time.Duration(p.tickCount),
		MaxTick:        p.tickMax,
		HeapMB:         float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB:    float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / seconds,
		GCCount:        p.memStats.NumGC,
	}

	// PauseNs is a circular buffer of the last 256 GC pauses.
	startIdx := p.lastGCCount
	if s.GCCount-startIdx > 256 {
		startIdx = s.GCCount - 256
	}
	for i := startIdx; i < s.GCCount; i++ {
		s.MaxGCPauseUs = max(s.MaxGCPauseUs, p.memStats.PauseNs[i%256]/1000)
	}

	common.LogInfo("[Profiler] ticks/s: %.2f | tick mean: %s max: %s | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (max pause: %d µs)",
		s.TicksPerSecond, s.MeanTick, s.MaxTick, s.HeapMB, s.AllocRateMB, s.GCCount, s.MaxGCPauseUs)

	p.last = s
	p.tickCount = 0
	p.tickTotal = 0
	p.tickMax = 0
	p.lastTime = currentTime
	p.lastGCCount = s.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Snapshot returns the most recently logged summary, or the zero value before the first interval elapsed.
func (p *Profiler) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}
