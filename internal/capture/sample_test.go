package capture

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestBytesToFloat32FromFloat32(t *testing.T) {
	want := []float32{0.0, 1.0, -0.5, 0.25}
	data := make([]byte, len(want)*4)
	for i, v := range want {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}

	got := bytesToFloat32(data, SampleFormatFloat32)
	if len(got) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d mismatch: expected %f, got %f", i, want[i], got[i])
		}
	}
}

func TestBytesToFloat32FromInt16(t *testing.T) {
	in := []int16{0, 32767, -32768, 16384}
	data := make([]byte, len(in)*2)
	for i, v := range in {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(v))
	}

	got := bytesToFloat32(data, SampleFormatInt16)
	if len(got) != len(in) {
		t.Fatalf("expected %d samples, got %d", len(in), len(got))
	}

	if got[0] != 0 {
		t.Fatalf("expected silence, got %f", got[0])
	}
	if got[1] < 0.999 || got[1] > 1.0 {
		t.Fatalf("expected near full scale, got %f", got[1])
	}
	if got[2] != -1.0 {
		t.Fatalf("expected -1.0, got %f", got[2])
	}
	if got[3] != 0.5 {
		t.Fatalf("expected 0.5, got %f", got[3])
	}
}

func TestBytesToFloat32DropsTrailingBytes(t *testing.T) {
	data := []byte{0, 0, 0, 0, 0xFF} // one full float32 sample plus a stray byte
	got := bytesToFloat32(data, SampleFormatFloat32)
	if len(got) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(got))
	}
}
