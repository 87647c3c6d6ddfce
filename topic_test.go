package switchboard

import (
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/illixr/switchboard/internal/logging"
	"github.com/illixr/switchboard/metrics"
)

func intTopic() *topic {
	var zero int
	return newTopic("counter", reflect.TypeOf(&zero), logging.NopLogger{}, metrics.NopHooks{})
}

func TestTopicGetBeforeAnyPut(t *testing.T) {
	top := intTopic()
	_, ok := top.get()
	require.False(t, ok)
}

func TestTopicPutThenGetReturnsLatest(t *testing.T) {
	top := intTopic()
	for i := 1; i <= 5; i++ {
		v := i
		top.put(&v)
	}

	er, ok := top.get()
	require.True(t, ok)
	require.Equal(t, 5, *er.payload.(*int))
	require.Equal(t, uint64(5), er.serialNo)
}

// S2 — latest-value reader races with writer: a reader polling get()
// while a writer publishes 1..100 as fast as possible observes a
// monotonic subsequence of serial numbers ending at 100.
func TestTopicGetDuringConcurrentPutsIsMonotonic(t *testing.T) {
	top := intTopic()

	const n = 100
	done := make(chan struct{})
	var observed []uint64

	go func() {
		defer close(done)
		last := uint64(0)
		for {
			if er, ok := top.get(); ok {
				require.GreaterOrEqual(t, er.serialNo, last)
				if er.serialNo != last {
					observed = append(observed, er.serialNo)
					last = er.serialNo
				}
				er.release()
				if last == n {
					return
				}
			}
		}
	}()

	for i := 1; i <= n; i++ {
		v := i
		top.put(&v)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reader never observed the final publish")
	}

	require.Equal(t, uint64(n), observed[len(observed)-1])
	for i := 1; i < len(observed); i++ {
		require.Less(t, observed[i-1], observed[i])
	}
}

func TestTopicSerialNoWrapsRingWithoutCorruption(t *testing.T) {
	top := intTopic()

	const n = ringSize*2 + 7
	for i := 1; i <= n; i++ {
		v := i
		top.put(&v)
	}

	er, ok := top.get()
	require.True(t, ok)
	require.Equal(t, n, *er.payload.(*int))
	require.Equal(t, uint64(n), top.serialNo.Load())
}

// Event lifetime: a Managed payload is told to release its resource
// exactly once, when the eventRef wrapping it drops to zero observers
// (the ring slot itself counts as one observer until overwritten).
type managedInt struct {
	val      int
	refCalls atomic.Int32
	cleanup  func()
}

func (m *managedInt) Ref() { m.refCalls.Add(1) }
func (m *managedInt) Release() {
	if m.cleanup != nil {
		m.cleanup()
	}
}

func TestEventRefcountReachesZeroAfterRingOverwriteAndReaderRelease(t *testing.T) {
	top := intManagedTopic()

	var cleaned atomic.Bool
	first := &managedInt{val: 1, cleanup: func() { cleaned.Store(true) }}

	top.put(first)

	h, ok := top.get()
	require.True(t, ok)

	// ringSize more puts wrap the ring back to first's slot, overwriting
	// it and dropping the topic's ref.
	for i := 0; i < ringSize; i++ {
		top.put(&managedInt{val: i + 2})
	}

	require.False(t, cleaned.Load(), "outstanding reader handle keeps it alive")

	h.release()
	require.True(t, cleaned.Load())
}

func intManagedTopic() *topic {
	var zero *managedInt
	return newTopic("managed", reflect.TypeOf(zero), logging.NopLogger{}, metrics.NopHooks{})
}

func TestTopicStopStopsDeliveryButKeepsRingReadable(t *testing.T) {
	top := intTopic()

	var delivered int32
	var wg sync.WaitGroup
	wg.Add(1)
	sub := top.schedule("acct", DefaultSubscriptionConfig, func(payload any, iteration uint64) {
		atomic.AddInt32(&delivered, 1)
		wg.Done()
	})
	_ = sub

	v := 1
	top.put(&v)
	wg.Wait()

	top.stop()

	v2 := 2
	top.put(&v2)
	time.Sleep(20 * time.Millisecond)

	require.Equal(t, int32(1), atomic.LoadInt32(&delivered))

	er, ok := top.get()
	require.True(t, ok)
	require.Equal(t, 2, *er.payload.(*int))
}
