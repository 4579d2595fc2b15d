package profiler

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-quads/common"
)

// Stats is the snapshot taken at the end of the last completed interval.
type Stats struct {
	// FPS is the number of frames per second over the interval.
	FPS float64
	// FrameTime is the mean time per frame over the interval.
	FrameTime time.Duration
	// HeapMB is the live heap in megabytes.
	HeapMB float64
	// AllocRateMB is the heap allocation rate in megabytes per second.
	AllocRateMB float64
	// GCCount is the total number of completed GC cycles.
	GCCount uint32
	// MaxPause is the longest GC pause during the interval.
	MaxPause time.Duration
}

// Profiler tracks frame rate and memory statistics for performance monitoring.
// Logs a summary at Debug level once per interval and keeps it for Stats.
type Profiler struct {
	mu *sync.Mutex

	now            func() time.Time
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	stats          Stats
}

// NewProfiler creates a new Profiler. The interval defaults to 1 second.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		mu:             &sync.Mutex{},
		now:            time.Now,
		updateInterval: time.Second,
	}
	for _, option := range options {
		option(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per presented frame.
// When the interval has elapsed it samples memory statistics, logs them and updates Stats.
//
// Returns:
//   - bool: true if a new snapshot was taken this tick
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	seconds := elapsed.Seconds()
	gcCount := p.memStats.NumGC

	p.stats = Stats{
		FPS:         float64(p.frameCount) / seconds,
		FrameTime:   elapsed / time.Duration(p.frameCount),
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / seconds,
		GCCount:     gcCount,
		MaxPause:    maxPause(&p.memStats, p.lastGCCount, gcCount),
	}

	common.Logger().Debug("profiler",
		"fps", p.stats.FPS,
		"frame_time", p.stats.FrameTime,
		"heap_mb", p.stats.HeapMB,
		"alloc_rate_mb", p.stats.AllocRateMB,
		"gc", gcCount,
		"max_pause", p.stats.MaxPause,
		"sys_mb", float64(p.memStats.Sys)/1024/1024,
	)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Stats returns the snapshot from the last completed interval. It is zero until the first
// interval has elapsed.
func (p *Profiler) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// maxPause returns the longest GC pause among cycles [from, to). PauseNs is a ring of the
// last 256 pauses, so older cycles are not available.
func maxPause(m *runtime.MemStats, from, to uint32) time.Duration {
	if to-from > 256 {
		from = to - 256
	}
	var longest uint64
	for i := from; i < to; i++ {
		longest = max(longest, m.PauseNs[i%256])
	}
	return time.Duration(longest)
}
