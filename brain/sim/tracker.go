package sim

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Firing records a single region activation during a simulation run.
type Firing struct {
	Region    string    // Region label, e.g. "Region_L1"
	Step      int       // Simulation step at which the region fired
	Timestamp time.Time // Wall-clock time of recording
}

// ActivityTracker accumulates firing activity across a simulation run,
// attributing activity to regions for post-hoc analysis.
//
// Features:
//   - Per-region firing counts
//   - Full firing log with step attribution
//   - Most-active ranking for quick hub comparison
//   - Thread-safe concurrent recording
//
// Usage:
//
//	tracker := NewActivityTracker("run-123")
//	result, err := sim.Run(ctx, g, cfg, tracker)
//
//	total := tracker.TotalFirings()
//	top := tracker.MostActive(5)
//
// Thread-safe: all methods use mutex protection for concurrent access.
type ActivityTracker struct {
	// RunID associates activity with a specific simulation run
	RunID string

	// CreatedAt marks when activity tracking began
	CreatedAt time.Time

	mu sync.RWMutex

	firings      []Firing
	regionCounts map[string]int
	enabled      bool
}

// NewActivityTracker creates a tracker for a simulation run.
func NewActivityTracker(runID string) *ActivityTracker {
	return &ActivityTracker{
		RunID:        runID,
		CreatedAt:    time.Now(),
		firings:      make([]Firing, 0, 128),
		regionCounts: make(map[string]int),
		enabled:      true,
	}
}

// RecordFiring records that a region fired at the given step.
func (at *ActivityTracker) RecordFiring(region string, step int) {
	at.mu.Lock()
	defer at.mu.Unlock()

	if !at.enabled {
		return
	}

	at.firings = append(at.firings, Firing{
		Region:    region,
		Step:      step,
		Timestamp: time.Now(),
	})
	at.regionCounts[region]++
}

// TotalFirings returns the number of firings recorded so far.
func (at *ActivityTracker) TotalFirings() int {
	at.mu.RLock()
	defer at.mu.RUnlock()
	return len(at.firings)
}

// FiringsByRegion returns a copy of the per-region firing counts.
func (at *ActivityTracker) FiringsByRegion() map[string]int {
	at.mu.RLock()
	defer at.mu.RUnlock()

	out := make(map[string]int, len(at.regionCounts))
	for region, n := range at.regionCounts {
		out[region] = n
	}
	return out
}

// MostActive returns up to n region labels ordered by firing count,
// descending, with label order breaking ties so the ranking is stable.
func (at *ActivityTracker) MostActive(n int) []string {
	at.mu.RLock()
	defer at.mu.RUnlock()

	labels := make([]string, 0, len(at.regionCounts))
	for region := range at.regionCounts {
		labels = append(labels, region)
	}
	sort.Slice(labels, func(i, j int) bool {
		ci, cj := at.regionCounts[labels[i]], at.regionCounts[labels[j]]
		if ci != cj {
			return ci > cj
		}
		return labels[i] < labels[j]
	})

	if n < len(labels) {
		labels = labels[:n]
	}
	return labels
}

// Log returns a copy of the full firing log in recording order.
func (at *ActivityTracker) Log() []Firing {
	at.mu.RLock()
	defer at.mu.RUnlock()

	out := make([]Firing, len(at.firings))
	copy(out, at.firings)
	return out
}

// String summarizes the tracked activity in one line.
func (at *ActivityTracker) String() string {
	at.mu.RLock()
	defer at.mu.RUnlock()
	return fmt.Sprintf("ActivityTracker(run=%s, firings=%d, regions=%d)",
		at.RunID, len(at.firings), len(at.regionCounts))
}

// Disable stops recording (useful for dry runs); Enable resumes it.
func (at *ActivityTracker) Disable() {
	at.mu.Lock()
	defer at.mu.Unlock()
	at.enabled = false
}

// Enable resumes recording after Disable.
func (at *ActivityTracker) Enable() {
	at.mu.Lock()
	defer at.mu.Unlock()
	at.enabled = true
}
