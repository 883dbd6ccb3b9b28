package capture

// SampleFormat identifies the in-memory representation of one sample.
type SampleFormat string

const (
	SampleFormatFloat32 SampleFormat = "float32"
	SampleFormatInt16   SampleFormat = "int16"
)

// BitsPerSample returns the width of one sample in bits.
func (f SampleFormat) BitsPerSample() int {
	if f == SampleFormatInt16 {
		return 16
	}
	return 32
}

// Format is the fixed sample-rate/channel/representation tuple governing
// every buffer delivered during a session. It is immutable once a session
// has started.
type Format struct {
	SampleRate   int
	Channels     int
	SampleFormat SampleFormat
}

// BytesPerFrame returns the size of one interleaved frame in bytes.
func (f Format) BytesPerFrame() int {
	return f.Channels * f.SampleFormat.BitsPerSample() / 8
}

// DefaultFormat returns the format requested from every backend unless
// overridden: 48 kHz stereo float32, matching the system mix format on
// all supported platforms.
func DefaultFormat() Format {
	return Format{
		SampleRate:   48000,
		Channels:     2,
		SampleFormat: SampleFormatFloat32,
	}
}

// negotiateFormat fixes the session format from a requested one, filling
// unset fields from the default. miniaudio converts whatever the device
// natively produces into the negotiated format, so the result is
// authoritative for every delivered buffer.
func negotiateFormat(req Format) Format {
	def := DefaultFormat()
	if req.SampleRate <= 0 {
		req.SampleRate = def.SampleRate
	}
	if req.Channels <= 0 {
		req.Channels = def.Channels
	}
	if req.SampleFormat != SampleFormatFloat32 && req.SampleFormat != SampleFormatInt16 {
		req.SampleFormat = def.SampleFormat
	}
	return req
}
