package capture

import (
	"encoding/binary"
	"math"
)

// bytesToFloat32 decodes raw interleaved PCM of the given representation
// into float32 samples in [-1, 1]. Incomplete trailing samples are dropped.
func bytesToFloat32(data []byte, format SampleFormat) []float32 {
	switch format {
	case SampleFormatInt16:
		n := len(data) / 2
		out := make([]float32, n)
		for i := 0; i < n; i++ {
			s := int16(binary.LittleEndian.Uint16(data[i*2:]))
			out[i] = float32(s) / 32768
		}
		return out
	default:
		n := len(data) / 4
		out := make([]float32, n)
		for i := 0; i < n; i++ {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		}
		return out
	}
}
