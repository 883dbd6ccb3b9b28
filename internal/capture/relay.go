package capture

import (
	"sync"
	"sync/atomic"
)

// defaultQueueDepth bounds how many undelivered buffers a relay holds.
// At 48 kHz with typical 10 ms device periods this is roughly a third of
// a second of backlog before drops begin.
const defaultQueueDepth = 32

// FrameFunc receives one interleaved sample buffer. The slice is owned by
// the receiver; it is never retained or reused by the relay.
type FrameFunc func(samples []float32)

// Relay bridges the backend's producer thread to the consumer callback.
// Post never blocks the producer; a dedicated dispatch goroutine delivers
// buffers in post order on its own context.
type Relay struct {
	consumer atomic.Pointer[FrameFunc]
	queue    chan []float32
	quit     chan struct{}
	done     chan struct{}
	stop     sync.Once
	dropped  atomic.Uint64
}

// NewRelay creates a relay dispatching to consumer. A nil consumer makes
// Post a cheap no-op; buffers are never accumulated for a consumer that
// does not exist.
func NewRelay(consumer FrameFunc, depth int) *Relay {
	if depth <= 0 {
		depth = defaultQueueDepth
	}
	r := &Relay{
		queue: make(chan []float32, depth),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	if consumer != nil {
		r.consumer.Store(&consumer)
	}
	go r.dispatch()
	return r
}

// Post hands one buffer toward the consumer. It never blocks: with no
// consumer attached the buffer is discarded immediately, and with a full
// queue it is dropped and counted. Drops are policy, not errors.
func (r *Relay) Post(samples []float32) {
	if r.consumer.Load() == nil {
		return
	}
	select {
	case r.queue <- samples:
	default:
		r.dropped.Add(1)
	}
}

func (r *Relay) dispatch() {
	defer close(r.done)
	for {
		select {
		case <-r.quit:
			return
		case buf := <-r.queue:
			if cb := r.consumer.Load(); cb != nil {
				(*cb)(buf)
			}
		}
	}
}

// Dropped reports how many buffers were discarded under backpressure.
func (r *Relay) Dropped() uint64 {
	return r.dropped.Load()
}

// Shutdown detaches the consumer and waits for the dispatcher to exit.
// After it returns no dispatch occurs: a Post racing Shutdown either
// completed delivery already or its buffer is discarded. Safe to call
// more than once.
func (r *Relay) Shutdown() {
	r.stop.Do(func() {
		r.consumer.Store(nil)
		close(r.quit)
	})
	<-r.done
}
