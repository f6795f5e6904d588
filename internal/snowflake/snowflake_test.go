package snowflake

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext_MonotonicSingleCaller(t *testing.T) {
	g := New(1)
	var prev uint64
	for i := 0; i < 10000; i++ {
		id, err := g.Next()
		require.NoError(t, err)
		assert.Greater(t, id, prev, "ids must strictly increase")
		prev = id
	}
}

func TestNext_UniqueUnderConcurrency(t *testing.T) {
	g := New(7)

	const workers = 8
	const perWorker = 2000

	var mu sync.Mutex
	seen := make(map[uint64]struct{}, workers*perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]uint64, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				id, err := g.Next()
				if err != nil {
					t.Error(err)
					return
				}
				local = append(local, id)
			}
			mu.Lock()
			for _, id := range local {
				seen[id] = struct{}{}
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker, "no duplicates across goroutines")
}

func TestNext_ClockRewind(t *testing.T) {
	g := New(1)
	now := int64(Epoch + 1000)
	g.nowMs = func() int64 { return now }

	_, err := g.Next()
	require.NoError(t, err)

	now -= 5
	_, err = g.Next()
	assert.ErrorIs(t, err, ErrClockRewind)
}

func TestNext_SequenceOverflowWaitsForNextMillisecond(t *testing.T) {
	g := New(1)
	now := int64(Epoch + 2000)
	calls := 0
	g.nowMs = func() int64 {
		calls++
		// Advance the fake clock after the overflow spin has polled a few times.
		if calls > maxSequence+10 {
			return now + 1
		}
		return now
	}

	ids := make([]uint64, 0, maxSequence+2)
	for i := 0; i <= maxSequence+1; i++ {
		id, err := g.Next()
		require.NoError(t, err)
		ids = append(ids, id)
	}

	assert.True(t, sort.SliceIsSorted(ids, func(i, j int) bool { return ids[i] < ids[j] }))
	// The id after the overflow must come from the next millisecond.
	assert.Greater(t, ids[maxSequence+1]>>timestampShift, ids[0]>>timestampShift)
}

func TestNext_TimestampDominatesOrdering(t *testing.T) {
	// A later millisecond on a low worker id must still outrank an
	// earlier millisecond on a high worker id.
	early := New(maxWorker)
	late := New(0)
	ts := int64(Epoch + 5000)
	early.nowMs = func() int64 { return ts }
	late.nowMs = func() int64 { return ts + 1 }

	a, err := early.Next()
	require.NoError(t, err)
	b, err := late.Next()
	require.NoError(t, err)
	assert.Greater(t, b, a)
}
