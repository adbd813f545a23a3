// Package zones maintains long-horizon per-zone risk profiles. Each camera
// feeds one zone; every assessment blends into the zone's running value with
// an exponential moving average so the profile tracks the recent past without
// unbounded history.
package zones

import (
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/watchher-data/risk.report/internal/timeutil"
)

// cell is the mutable state for one zone.
type cell struct {
	mu      sync.Mutex
	value   float64
	samples uint64
	updated time.Time
	recent  []float64 // ring of recent scores for summary stats
	next    int
}

// recentWindow is how many raw scores each zone retains for dispersion stats.
const recentWindow = 64

// Snapshot is a point-in-time view of one zone's profile.
type Snapshot struct {
	Zone    string        `json:"zone"`
	Value   float64       `json:"value"`
	Samples uint64        `json:"samples"`
	Age     time.Duration `json:"age_ns"`

	// Mean and StdDev summarize the recent raw scores feeding the zone.
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
}

// Accumulator blends per-frame scores into per-zone risk values. Safe for
// concurrent use; each zone updates independently.
type Accumulator struct {
	mu    sync.RWMutex
	cells map[string]*cell

	decay float64
	clock timeutil.Clock
}

// NewAccumulator returns an Accumulator with the given decay factor in (0,1).
// Higher decay means longer memory.
func NewAccumulator(decay float64, clock timeutil.Clock) *Accumulator {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Accumulator{
		cells: make(map[string]*cell),
		decay: decay,
		clock: clock,
	}
}

// Update blends score into the named zone. The first score for a zone seeds
// the value directly so a new zone never has to climb from zero.
func (a *Accumulator) Update(zone string, score float64) {
	c := a.cell(zone)
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.samples == 0 {
		c.value = score
	} else {
		c.value = a.decay*c.value + (1-a.decay)*score
	}
	c.samples++
	c.updated = a.clock.Now()

	if len(c.recent) < recentWindow {
		c.recent = append(c.recent, score)
	} else {
		c.recent[c.next] = score
		c.next = (c.next + 1) % recentWindow
	}
}

func (a *Accumulator) cell(zone string) *cell {
	a.mu.RLock()
	c, ok := a.cells[zone]
	a.mu.RUnlock()
	if ok {
		return c
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if c, ok = a.cells[zone]; ok {
		return c
	}
	c = &cell{}
	a.cells[zone] = c
	return c
}

// Zone returns a snapshot of one zone, or ok=false when the zone has never
// been updated.
func (a *Accumulator) Zone(zone string) (Snapshot, bool) {
	a.mu.RLock()
	c, ok := a.cells[zone]
	a.mu.RUnlock()
	if !ok {
		return Snapshot{}, false
	}
	return a.snapshot(zone, c), true
}

// Snapshots returns a snapshot of every known zone, sorted by zone name so
// output ordering is stable.
func (a *Accumulator) Snapshots() []Snapshot {
	a.mu.RLock()
	names := make([]string, 0, len(a.cells))
	for name := range a.cells {
		names = append(names, name)
	}
	a.mu.RUnlock()
	sort.Strings(names)

	out := make([]Snapshot, 0, len(names))
	for _, name := range names {
		if snap, ok := a.Zone(name); ok {
			out = append(out, snap)
		}
	}
	return out
}

func (a *Accumulator) snapshot(zone string, c *cell) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Zone:    zone,
		Value:   c.value,
		Samples: c.samples,
		Age:     a.clock.Since(c.updated),
	}
	if len(c.recent) > 0 {
		snap.Mean = stat.Mean(c.recent, nil)
		if len(c.recent) > 1 {
			snap.StdDev = stat.StdDev(c.recent, nil)
		}
	}
	return snap
}
