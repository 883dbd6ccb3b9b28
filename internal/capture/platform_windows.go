//go:build windows

package capture

import "github.com/gen2brain/malgo"

// WASAPI captures render endpoints directly through its loopback mode:
// devices are enumerated as playback endpoints and opened with the
// loopback device type.

func platformBackends() []malgo.Backend {
	return []malgo.Backend{malgo.BackendWasapi}
}

func enumDeviceType() malgo.DeviceType {
	return malgo.Playback
}

func captureDeviceType() malgo.DeviceType {
	return malgo.Loopback
}

// isLoopbackSource reports whether an enumerated endpoint can serve as a
// loopback source. Every active render endpoint qualifies on WASAPI.
func isLoopbackSource(asciiID, name string) bool {
	return true
}
