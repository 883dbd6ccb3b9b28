package capture

import "strings"

// Device identifies one capturable audio endpoint. Identity is the ID, an
// opaque backend-defined string; two Device values name the same endpoint
// iff their IDs match. Values are produced fresh on every directory query
// and never cached.
type Device struct {
	ID   string
	Name string
}

// Directory enumerates capturable endpoints. Implementations are pure
// queries with no retained process-wide state.
type Directory interface {
	// Devices lists every enumerable loopback-capturable endpoint.
	Devices() ([]Device, error)
	// Default reports the system default endpoint, if one is enumerable.
	Default() (Device, bool)
}

// ListDevices lists the system's capturable endpoints. Enumeration is
// advisory: on query failure it degrades to an empty list rather than
// propagating the error.
func ListDevices() []Device {
	devices, err := systemDirectory{}.Devices()
	if err != nil {
		return nil
	}
	return devices
}

// DefaultDevice reports the system default endpoint, if any.
func DefaultDevice() (Device, bool) {
	return systemDirectory{}.Default()
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
