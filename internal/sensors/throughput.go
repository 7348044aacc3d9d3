package sensors

import (
	"math"
	"time"

	"github.com/jonboulle/clockwork"
)

// Throughput turns cumulative byte counters into per-second rates.
type Throughput struct {
	clock   clockwork.Clock
	valid   bool
	at      time.Time
	lastIn  uint64
	lastOut uint64
}

func NewThroughput(clock clockwork.Clock) *Throughput {
	return &Throughput{clock: clock}
}

// Sample records the counters and returns the rates since the previous
// sample. Without a usable baseline both rates are NaN.
func (t *Throughput) Sample(in, out uint64) (rateIn, rateOut float64) {
	now := t.clock.Now()
	defer func() {
		t.valid = true
		t.at = now
		t.lastIn = in
		t.lastOut = out
	}()

	elapsed := now.Sub(t.at).Seconds()
	// Counters wrap or reset when interfaces go away
	if !t.valid || elapsed <= 0 || in < t.lastIn || out < t.lastOut {
		return math.NaN(), math.NaN()
	}

	return float64(in-t.lastIn) / elapsed, float64(out-t.lastOut) / elapsed
}

// Reset drops the baseline.
func (t *Throughput) Reset() {
	t.valid = false
}
