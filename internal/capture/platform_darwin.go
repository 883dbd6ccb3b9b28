//go:build darwin

package capture

import (
	"strings"

	"github.com/gen2brain/malgo"
)

// CoreAudio has no native loopback mode; system audio is captured through
// a virtual loopback driver (BlackHole, Soundflower, Loopback) that
// mirrors output to a capture device.

func platformBackends() []malgo.Backend {
	return []malgo.Backend{malgo.BackendCoreaudio}
}

func enumDeviceType() malgo.DeviceType {
	return malgo.Capture
}

func captureDeviceType() malgo.DeviceType {
	return malgo.Capture
}

// Known virtual loopback driver names, lowercase.
var loopbackDrivers = []string{
	"blackhole",
	"soundflower",
	"loopback",
	"vb-cable",
}

// isLoopbackSource reports whether a capture device is a virtual loopback
// driver rather than a physical microphone.
func isLoopbackSource(asciiID, name string) bool {
	lower := strings.ToLower(name)
	for _, driver := range loopbackDrivers {
		if strings.Contains(lower, driver) {
			return true
		}
	}
	return false
}
