// Package snowflake generates the public ticket identifiers: 64-bit,
// globally unique, and time-ordered so that ids sort by issuance time.
// The layout is 41 bits of milliseconds since a fixed epoch, 10 bits of
// worker id and 12 bits of per-millisecond sequence.  The timestamp
// occupies the high bits, which is what gives the natural sort order.
package snowflake

import (
	"errors"
	"sync"
	"time"
)

// Epoch is 2021-01-01 00:00:00 UTC in milliseconds.  41 bits on top of
// this epoch last until the year 2090.
const Epoch int64 = 1609459200000

const (
	workerBits   = 10
	sequenceBits = 12

	maxWorker   = (1 << workerBits) - 1   // 1023
	maxSequence = (1 << sequenceBits) - 1 // 4095

	workerShift    = sequenceBits
	timestampShift = workerBits + sequenceBits
)

// ErrClockRewind is returned when the wall clock moves backwards past
// the last millisecond an id was generated in.  Emitting an id anyway
// could duplicate or reorder identifiers, so the generator refuses.
// The condition is fatal for this generator instance until the clock
// catches up; callers should not retry locally.
var ErrClockRewind = errors.New("snowflake: clock moved backwards")

// Generator produces snowflake ids.  All mutable state (last timestamp
// and sequence) is guarded by a single mutex, making Next safe for
// concurrent callers.
type Generator struct {
	mu       sync.Mutex
	worker   uint64
	lastMs   int64
	sequence uint64
	nowMs    func() int64 // injectable for tests
}

// New returns a Generator for the given worker id.  The worker id is
// masked to 10 bits; deployments running multiple instances must give
// each a distinct value.
func New(worker uint64) *Generator {
	return &Generator{
		worker: worker & maxWorker,
		lastMs: -1,
		nowMs:  func() int64 { return time.Now().UnixMilli() },
	}
}

// Next returns the next id.  Within one millisecond ids are ordered by
// the sequence counter; when the counter overflows, Next spins until
// the clock advances.  If the clock has moved backwards it returns
// ErrClockRewind instead of risking a duplicate.
func (g *Generator) Next() (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ts := g.nowMs()
	if ts < g.lastMs {
		return 0, ErrClockRewind
	}
	if ts == g.lastMs {
		g.sequence = (g.sequence + 1) & maxSequence
		if g.sequence == 0 {
			// Sequence exhausted for this millisecond; wait for the next one.
			for ts <= g.lastMs {
				ts = g.nowMs()
			}
		}
	} else {
		g.sequence = 0
	}
	g.lastMs = ts

	id := uint64(ts-Epoch)<<timestampShift | g.worker<<workerShift | g.sequence
	return id, nil
}
