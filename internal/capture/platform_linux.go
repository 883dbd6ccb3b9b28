//go:build linux

package capture

import (
	"strings"

	"github.com/gen2brain/malgo"
)

// PulseAudio exposes each sink's output as a ".monitor" capture source;
// loopback capture opens the monitor source as an ordinary capture device.

func platformBackends() []malgo.Backend {
	return []malgo.Backend{malgo.BackendPulseaudio}
}

func enumDeviceType() malgo.DeviceType {
	return malgo.Capture
}

func captureDeviceType() malgo.DeviceType {
	return malgo.Capture
}

// isLoopbackSource reports whether an enumerated capture source is a sink
// monitor. PulseAudio names monitors "<sink>.monitor" and describes them
// as "Monitor of <sink>"; plain microphones are excluded.
func isLoopbackSource(asciiID, name string) bool {
	return strings.HasSuffix(asciiID, ".monitor") ||
		strings.HasPrefix(name, "Monitor of ")
}
