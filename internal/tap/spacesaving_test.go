package tap

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpaceSavingExactUnderCapacity(t *testing.T) {
	sk := newSpaceSaving(8)
	for i := 0; i < 5; i++ {
		sk.Incr("a")
	}
	for i := 0; i < 3; i++ {
		sk.Incr("b")
	}
	sk.Incr("c")

	top := sk.Top(3)
	require.Len(t, top, 3)
	assert.Equal(t, TopEntry{Key: "a", Count: 5}, top[0])
	assert.Equal(t, TopEntry{Key: "b", Count: 3}, top[1])
	assert.Equal(t, TopEntry{Key: "c", Count: 1}, top[2])
}

func TestSpaceSavingReplacesMinimum(t *testing.T) {
	sk := newSpaceSaving(2)
	sk.Incr("a")
	sk.Incr("a")
	sk.Incr("b")
	// sketch full; "c" must evict "b" and inherit its count as error
	sk.Incr("c")

	top := sk.Top(0)
	require.Len(t, top, 2)
	assert.Equal(t, TopEntry{Key: "a", Count: 2}, top[0])
	assert.Equal(t, TopEntry{Key: "c", Count: 2, Err: 1}, top[1])
}

func TestSpaceSavingHeavyHitterSurvivesChurn(t *testing.T) {
	sk := newSpaceSaving(4)
	for i := 0; i < 100; i++ {
		sk.Incr("heavy")
		sk.Incr("noise" + strconv.Itoa(i))
	}

	top := sk.Top(1)
	require.Len(t, top, 1)
	assert.Equal(t, "heavy", top[0].Key)
	assert.GreaterOrEqual(t, top[0].Count, int64(100))
}

func TestSpaceSavingConcurrentIncr(t *testing.T) {
	sk := newSpaceSaving(4)

	const workers = 8
	const perWorker = 200
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				sk.Incr("heavy")
				sk.Incr("noise" + strconv.Itoa(w) + "_" + strconv.Itoa(i))
				sk.Top(2)
			}
		}(w)
	}
	wg.Wait()

	top := sk.Top(1)
	require.Len(t, top, 1)
	assert.Equal(t, "heavy", top[0].Key)
	assert.GreaterOrEqual(t, top[0].Count, int64(workers*perWorker))
}

func TestSpaceSavingReset(t *testing.T) {
	sk := newSpaceSaving(4)
	sk.Incr("a")
	sk.Reset()
	assert.Empty(t, sk.Top(0))
}

func TestErrRingWraps(t *testing.T) {
	r := newErrRing()
	for i := 0; i < errRingCap+5; i++ {
		r.Add("g", strconv.Itoa(i))
	}

	got := r.Recent()
	require.Len(t, got, errRingCap)
	assert.Equal(t, "5", got[0].Msg)
	assert.Equal(t, strconv.Itoa(errRingCap+4), got[len(got)-1].Msg)
}

func TestErrRingPartial(t *testing.T) {
	r := newErrRing()
	r.Add("g", "first")
	r.Add("g", "second")

	got := r.Recent()
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Msg)
	assert.Equal(t, "second", got[1].Msg)
}
