// Package wavio persists captured sample buffers to WAV files. Samples
// are staged through a ring buffer and written by a dedicated goroutine,
// so a stalling disk never blocks the capture consumer context.
package wavio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/smallnest/ringbuffer"
)

const (
	bitDepth = 16
	// ringCapacity holds a few seconds of stereo 48 kHz int16 audio.
	ringCapacity = 1 << 20
)

// Writer encodes interleaved float32 buffers into a 16-bit PCM WAV file.
type Writer struct {
	file     *os.File
	enc      *wav.Encoder
	ring     *ringbuffer.RingBuffer
	channels int
	done     chan struct{}
	dropped  atomic.Uint64
	writeErr atomic.Pointer[error]
}

// Create opens path for writing and starts the drain goroutine.
func Create(path string, sampleRate, channels int) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create wav file: %w", err)
	}

	w := &Writer{
		file:     f,
		enc:      wav.NewEncoder(f, sampleRate, bitDepth, channels, 1),
		ring:     ringbuffer.New(ringCapacity).SetBlocking(true),
		channels: channels,
		done:     make(chan struct{}),
	}
	go w.drain()
	return w, nil
}

// Append stages one buffer of interleaved float32 samples. It never
// blocks: when the ring is full the buffer is dropped and counted.
func (w *Writer) Append(samples []float32) {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(clampInt16(s)))
	}
	// All-or-nothing keeps sample alignment in the ring.
	if w.ring.Free() < len(buf) {
		w.dropped.Add(1)
		return
	}
	if _, err := w.ring.TryWrite(buf); err != nil {
		w.dropped.Add(1)
	}
}

func (w *Writer) drain() {
	defer close(w.done)
	chunk := make([]byte, 32*1024)
	var leftover []byte

	for {
		n, err := w.ring.Read(chunk)
		if n > 0 {
			data := chunk[:n]
			if len(leftover) > 0 {
				data = append(leftover, data...)
				leftover = nil
			}
			if rem := len(data) % 2; rem != 0 {
				leftover = append(leftover, data[len(data)-rem:]...)
				data = data[:len(data)-rem]
			}
			if encErr := w.encode(data); encErr != nil {
				w.writeErr.Store(&encErr)
				return
			}
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			w.writeErr.Store(&err)
			return
		}
	}
}

func (w *Writer) encode(data []byte) error {
	ints := make([]int, len(data)/2)
	for i := range ints {
		ints[i] = int(int16(binary.LittleEndian.Uint16(data[i*2:])))
	}
	return w.enc.Write(&audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: w.channels,
			SampleRate:  w.enc.SampleRate,
		},
		Data:           ints,
		SourceBitDepth: bitDepth,
	})
}

// Dropped reports buffers discarded because the ring was full.
func (w *Writer) Dropped() uint64 {
	return w.dropped.Load()
}

// Close drains staged samples, finalizes the WAV header and closes the
// file. No Append may run concurrently with or after Close.
func (w *Writer) Close() error {
	w.ring.CloseWriter()
	<-w.done

	var firstErr error
	if errp := w.writeErr.Load(); errp != nil {
		firstErr = *errp
	}
	if err := w.enc.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("finalize wav: %w", err)
	}
	if err := w.file.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func clampInt16(s float32) int16 {
	v := s * 32767
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	default:
		return int16(v)
	}
}
