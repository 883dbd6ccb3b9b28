package capture

import (
	"strings"
	"sync/atomic"

	"github.com/gen2brain/malgo"
	"github.com/rs/zerolog"
)

// Backend owns the OS stream handle for one capture session.
type Backend interface {
	// Start binds the device, fixes the format, registers the frame hook
	// and starts the stream, in that order. On any step failure every
	// resource acquired so far is released before returning, in reverse
	// acquisition order. onStopped fires when the platform halts the
	// stream on its own (device unplugged, stream failure); it does not
	// fire for a session-initiated Stop.
	Start(dev Device, format Format, onFrames FrameFunc, onStopped func()) (Format, error)

	// Stop halts the stream and releases it. When Stop returns the frame
	// hook can no longer be invoked.
	Stop() error
}

// BackendFactory constructs the platform backend for one session.
// Sessions construct a fresh backend per Start so no stream state
// survives across capture lifecycles.
type BackendFactory func(log zerolog.Logger) Backend

// newSystemBackend builds the miniaudio-based backend for the current
// platform (WASAPI loopback, PulseAudio monitor source or CoreAudio).
func newSystemBackend(log zerolog.Logger) Backend {
	return &malgoBackend{log: log}
}

type malgoBackend struct {
	log        zerolog.Logger
	ctx        *malgo.AllocatedContext
	device     *malgo.Device
	shouldStop atomic.Bool
}

func (b *malgoBackend) Start(dev Device, format Format, onFrames FrameFunc, onStopped func()) (Format, error) {
	ctx, err := malgo.InitContext(platformBackends(), malgo.ContextConfig{}, func(message string) {
		b.log.Debug().Str("source", "miniaudio").Msg(strings.TrimSpace(message))
	})
	if err != nil {
		return Format{}, &InitError{Step: "context", Err: err}
	}

	cfg := malgo.DefaultDeviceConfig(captureDeviceType())
	cfg.Capture.Format = malgoFormat(format.SampleFormat)
	cfg.Capture.Channels = uint32(format.Channels)
	cfg.SampleRate = uint32(format.SampleRate)
	cfg.Alsa.NoMMap = 1

	if dev.ID != "" {
		id, err := malgoDeviceID(dev.ID)
		if err != nil {
			_ = ctx.Uninit()
			ctx.Free()
			return Format{}, &InitError{Step: "device binding", Err: err}
		}
		cfg.Capture.DeviceID = id.Pointer()
	}

	callbacks := malgo.DeviceCallbacks{
		// Runs on the platform audio thread. No blocking, no locks shared
		// with Stop: decode, hand off, return.
		Data: func(_, input []byte, frameCount uint32) {
			if b.shouldStop.Load() || frameCount == 0 {
				return
			}
			samples := bytesToFloat32(input, format.SampleFormat)
			if len(samples) == 0 {
				return
			}
			onFrames(samples)
		},
		Stop: func() {
			if b.shouldStop.Load() {
				return
			}
			onStopped()
		},
	}

	device, err := malgo.InitDevice(ctx.Context, cfg, callbacks)
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return Format{}, &InitError{Step: "stream binding", Err: err}
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		_ = ctx.Uninit()
		ctx.Free()
		return Format{}, &InitError{Step: "stream start", Err: err}
	}

	b.ctx = ctx
	b.device = device
	return format, nil
}

func (b *malgoBackend) Stop() error {
	// Flag first: any data callback entered after this point returns
	// without posting, closing the race between stop and in-flight frames.
	b.shouldStop.Store(true)

	if b.device != nil {
		// miniaudio joins its audio thread before Stop returns, so the
		// producer is quiesced once these calls complete.
		if err := b.device.Stop(); err != nil {
			b.log.Warn().Err(err).Msg("device stop")
		}
		b.device.Uninit()
		b.device = nil
	}
	if b.ctx != nil {
		err := b.ctx.Uninit()
		b.ctx.Free()
		b.ctx = nil
		if err != nil {
			return err
		}
	}
	return nil
}

func malgoFormat(f SampleFormat) malgo.FormatType {
	if f == SampleFormatInt16 {
		return malgo.FormatS16
	}
	return malgo.FormatF32
}
