// Package capture delivers a host machine's system audio output (loopback
// capture, not microphone input) as a stream of decoded PCM sample buffers.
//
// A Session drives one capture lifecycle: it resolves a device, fixes the
// sample format, starts the platform backend and relays buffers produced
// on the platform audio thread to a consumer callback running on its own
// context. Stop guarantees the producer is quiesced before any shared
// resource is released.
package capture

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// State is the capture lifecycle state of a Session.
type State int32

const (
	StateIdle State = iota
	StateStarting
	StateCapturing
	StateStopping
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateCapturing:
		return "capturing"
	case StateStopping:
		return "stopping"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session orchestrates one capture lifecycle. Start and Stop must not be
// called concurrently with each other on the same session; both are safe
// against in-flight producer callbacks and against the implicit stop that
// follows a device loss.
type Session struct {
	log        zerolog.Logger
	dir        Directory
	newBackend BackendFactory
	requested  Format
	queueDepth int

	state atomic.Int32

	mu      sync.Mutex // guards the fields below against the implicit stop path
	backend Backend
	relay   *Relay
	format  Format
	done    chan struct{}
}

// Option configures a Session.
type Option func(*Session)

// WithLogger attaches a logger; the default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithFormat overrides the requested capture format. Unset fields fall
// back to the defaults during negotiation.
func WithFormat(f Format) Option {
	return func(s *Session) { s.requested = f }
}

// WithQueueDepth bounds the relay queue between producer and consumer.
func WithQueueDepth(n int) Option {
	return func(s *Session) { s.queueDepth = n }
}

// WithDirectory substitutes the device directory, for tests.
func WithDirectory(dir Directory) Option {
	return func(s *Session) { s.dir = dir }
}

// WithBackendFactory substitutes the backend constructor, for tests.
func WithBackendFactory(f BackendFactory) Option {
	return func(s *Session) { s.newBackend = f }
}

// NewSession creates an idle session. A session that is never started
// owns no resources and needs no teardown.
func NewSession(opts ...Option) *Session {
	s := &Session{
		log:        zerolog.Nop(),
		dir:        systemDirectory{},
		newBackend: newSystemBackend,
		requested:  DefaultFormat(),
		queueDepth: defaultQueueDepth,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start resolves the device (the system default when deviceID is empty),
// fixes the session format, starts the platform backend and begins
// relaying sample buffers to onSamples. A nil onSamples is accepted:
// capture proceeds and every buffer is discarded by the relay.
//
// It returns the effective format on success. Starting an already active
// session fails with ErrAlreadyCapturing and leaves the running stream
// untouched; any backend failure rolls the session back to idle so a
// corrected retry is possible.
func (s *Session) Start(deviceID string, onSamples FrameFunc) (Format, error) {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateStarting)) {
		return Format{}, ErrAlreadyCapturing
	}

	dev, err := s.resolveDevice(deviceID)
	if err != nil {
		s.state.Store(int32(StateIdle))
		return Format{}, err
	}

	format := negotiateFormat(s.requested)
	relay := NewRelay(onSamples, s.queueDepth)
	backend := s.newBackend(s.log)

	bound, err := backend.Start(dev, format, relay.Post, s.onStreamLost)
	if err != nil {
		relay.Shutdown()
		s.state.Store(int32(StateIdle))
		return Format{}, err
	}

	s.mu.Lock()
	s.backend = backend
	s.relay = relay
	s.format = bound
	s.done = make(chan struct{})
	s.mu.Unlock()

	s.state.Store(int32(StateCapturing))
	s.log.Info().
		Str("device", dev.Name).
		Int("sample_rate", bound.SampleRate).
		Int("channels", bound.Channels).
		Str("sample_format", string(bound.SampleFormat)).
		Msg("capture started")
	return bound, nil
}

// Stop halts capture and releases all owned resources. It is idempotent:
// stopping an idle session succeeds trivially, and it always leaves the
// session idle. When Stop returns, no further consumer invocation occurs.
func (s *Session) Stop() error {
	for {
		switch State(s.state.Load()) {
		case StateIdle:
			return nil
		case StateFailed:
			s.state.CompareAndSwap(int32(StateFailed), int32(StateIdle))
			return nil
		case StateStopping:
			// An implicit stop is already tearing down; wait it out so
			// the post-stop silence guarantee holds for this caller too.
			if done := s.doneChan(); done != nil {
				<-done
			}
			return nil
		case StateStarting:
			// A Start is still in flight; let it settle before tearing down.
			time.Sleep(time.Millisecond)
		case StateCapturing:
			if s.state.CompareAndSwap(int32(StateCapturing), int32(StateStopping)) {
				s.teardown(false)
				return nil
			}
		}
	}
}

// teardown quiesces the producer, then releases the relay and the OS
// stream in reverse acquisition order, and finally re-enters idle.
func (s *Session) teardown(implicit bool) {
	s.mu.Lock()
	backend := s.backend
	relay := s.relay
	done := s.done
	s.backend = nil
	s.relay = nil
	s.format = Format{}
	s.mu.Unlock()

	var stopErr error
	if backend != nil {
		stopErr = backend.Stop()
		if stopErr != nil {
			s.log.Warn().Err(stopErr).Msg("backend release")
		}
	}
	if relay != nil {
		relay.Shutdown()
		if n := relay.Dropped(); n > 0 {
			s.log.Debug().Uint64("buffers", n).Msg("dropped under backpressure")
		}
	}

	if implicit && stopErr != nil {
		// The platform took the stream down and we could not release it
		// cleanly; park in failed until the caller acknowledges via Stop.
		s.state.Store(int32(StateFailed))
	} else {
		s.state.Store(int32(StateIdle))
	}
	if done != nil {
		close(done)
	}
	s.log.Info().Bool("implicit", implicit).Msg("capture stopped")
}

// onStreamLost handles a platform-initiated stream halt (device unplugged,
// stream failure). It runs on the backend's notification path and must not
// block there, so teardown happens on a fresh goroutine through the same
// quiescence path as an explicit stop. Callers observe it via Done.
func (s *Session) onStreamLost() {
	go func() {
		for {
			switch State(s.state.Load()) {
			case StateCapturing:
				if s.state.CompareAndSwap(int32(StateCapturing), int32(StateStopping)) {
					s.log.Warn().Msg("stream lost, stopping capture")
					s.teardown(true)
					return
				}
			case StateStarting:
				time.Sleep(time.Millisecond)
			default:
				// A stop already took over.
				return
			}
		}
	}()
}

// Format returns the session's fixed format while capturing, or the
// negotiated default otherwise. It never fails.
func (s *Session) Format() Format {
	s.mu.Lock()
	defer s.mu.Unlock()
	if State(s.state.Load()) == StateCapturing && s.format.SampleRate > 0 {
		return s.format
	}
	return negotiateFormat(s.requested)
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Done returns a channel closed when the current capture ends, whether by
// an explicit Stop or a platform-initiated stream loss. For a session that
// is not capturing it returns an already closed channel.
func (s *Session) Done() <-chan struct{} {
	if done := s.doneChan(); done != nil {
		return done
	}
	closed := make(chan struct{})
	close(closed)
	return closed
}

func (s *Session) doneChan() chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Dropped reports buffers discarded under backpressure during the current
// capture. Zero when idle.
func (s *Session) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.relay == nil {
		return 0
	}
	return s.relay.Dropped()
}

// resolveDevice maps a selector onto an enumerated device. An empty
// selector resolves to the system default; when no default is enumerable
// the backend binds the platform default itself.
func (s *Session) resolveDevice(selector string) (Device, error) {
	if selector == "" {
		if dev, ok := s.dir.Default(); ok {
			return dev, nil
		}
		return Device{}, nil
	}

	devices, err := s.dir.Devices()
	if err != nil {
		s.log.Warn().Err(err).Msg("device enumeration")
		return Device{}, &DeviceError{Selector: selector}
	}
	for _, d := range devices {
		if d.ID == selector || d.Name == selector {
			return d, nil
		}
	}
	// Partial matches as a convenience, after exact ones.
	for _, d := range devices {
		if containsFold(d.Name, selector) {
			return d, nil
		}
	}
	return Device{}, &DeviceError{Selector: selector}
}
