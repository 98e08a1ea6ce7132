package profiling

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Lightweight per-tick CPU profiler for streaming insights.

// Sample is the accumulated cost of one named operation within a tick.
type Sample struct {
	Name  string
	Total time.Duration
	Count int
}

var (
	mu         sync.Mutex
	tickTotals = make(map[string]*Sample)
)

// Track returns a stop function that records the elapsed time under the given name.
// Usage: defer profiling.Track("subsystem.Operation")()
func Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		mu.Lock()
		s, ok := tickTotals[name]
		if !ok {
			s = &Sample{Name: name}
			tickTotals[name] = s
		}
		s.Total += d
		s.Count++
		mu.Unlock()
	}
}

// ResetTick clears current per-tick totals. Call at the start of each tick.
func ResetTick() {
	mu.Lock()
	clear(tickTotals)
	mu.Unlock()
}

// Snapshot returns the current per-tick samples, most expensive first.
func Snapshot() []Sample {
	mu.Lock()
	out := make([]Sample, 0, len(tickTotals))
	for _, s := range tickTotals {
		out = append(out, *s)
	}
	mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TopN formats the n most expensive operations of the current tick.
// Example: "terrain.Generate:4.2ms×27, terrain.DistanceField:2.1ms×27"
func TopN(n int) string {
	samples := Snapshot()
	if n > len(samples) {
		n = len(samples)
	}
	parts := make([]string, 0, n)
	for _, s := range samples[:n] {
		ms := float64(s.Total.Microseconds()) / 1000.0
		parts = append(parts, fmt.Sprintf("%s:%.1fms×%d", s.Name, ms, s.Count))
	}
	return strings.Join(parts, ", ")
}
