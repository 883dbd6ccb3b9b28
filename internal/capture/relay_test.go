package capture

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelayPreservesPostOrder(t *testing.T) {
	var mu sync.Mutex
	var got []float32

	r := NewRelay(func(samples []float32) {
		mu.Lock()
		got = append(got, samples[0])
		mu.Unlock()
	}, 256)

	for i := 0; i < 100; i++ {
		r.Post([]float32{float32(i)})
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 100
	}, time.Second, time.Millisecond)
	r.Shutdown()

	for i, v := range got {
		require.Equal(t, float32(i), v, "delivery out of order at %d", i)
	}
	assert.Equal(t, uint64(0), r.Dropped())
}

func TestRelayPostNeverBlocks(t *testing.T) {
	gate := make(chan struct{})
	var delivered atomic.Int32

	r := NewRelay(func([]float32) {
		delivered.Add(1)
		<-gate
	}, 4)

	// First post is consumed and blocks the dispatcher; the queue then
	// fills and the rest must drop without blocking this goroutine.
	finished := make(chan struct{})
	go func() {
		for i := 0; i < 20; i++ {
			r.Post([]float32{0})
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Post blocked the producer")
	}

	close(gate)
	r.Shutdown()
	assert.Greater(t, r.Dropped(), uint64(0))
}

func TestRelayNilConsumerIsNoOp(t *testing.T) {
	r := NewRelay(nil, 4)
	for i := 0; i < 100; i++ {
		r.Post([]float32{0})
	}

	assert.Equal(t, uint64(0), r.Dropped())
	assert.Empty(t, r.queue, "buffers must not accumulate without a consumer")
	r.Shutdown()
}

func TestRelayShutdownStopsDispatch(t *testing.T) {
	var delivered atomic.Int32
	r := NewRelay(func([]float32) {
		delivered.Add(1)
	}, 64)

	quit := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-quit:
				return
			default:
				r.Post([]float32{0})
			}
		}
	}()

	require.Eventually(t, func() bool { return delivered.Load() > 0 },
		time.Second, time.Millisecond)

	r.Shutdown()
	atShutdown := delivered.Load()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, atShutdown, delivered.Load(), "dispatch after Shutdown returned")

	close(quit)
	wg.Wait()
}

func TestRelayShutdownIdempotent(t *testing.T) {
	r := NewRelay(func([]float32) {}, 4)
	r.Shutdown()
	r.Shutdown()
}
