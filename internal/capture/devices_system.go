package capture

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gen2brain/malgo"
)

// systemDirectory queries the platform audio subsystem through a fresh
// miniaudio context per call. Nothing is retained between queries.
type systemDirectory struct{}

func (systemDirectory) Devices() ([]Device, error) {
	infos, err := enumerate()
	if err != nil {
		return nil, err
	}

	devices := make([]Device, 0, len(infos))
	for i := range infos {
		dev, ok := newDevice(infos[i].ID, infos[i].Name())
		if !ok {
			// A device that cannot be named is skipped, not fatal.
			continue
		}
		if !isLoopbackSource(asciiDeviceID(infos[i].ID), dev.Name) {
			continue
		}
		devices = append(devices, dev)
	}
	return devices, nil
}

func (systemDirectory) Default() (Device, bool) {
	infos, err := enumerate()
	if err != nil {
		return Device{}, false
	}
	var first Device
	var haveFirst bool
	for i := range infos {
		if !isLoopbackSource(asciiDeviceID(infos[i].ID), infos[i].Name()) {
			continue
		}
		dev, ok := newDevice(infos[i].ID, infos[i].Name())
		if !ok {
			continue
		}
		if infos[i].IsDefault != 0 {
			return dev, true
		}
		if !haveFirst {
			first, haveFirst = dev, true
		}
	}
	// PulseAudio flags the default source, which is a microphone, not a
	// monitor; fall back to the first loopback-capable endpoint.
	return first, haveFirst
}

func enumerate() ([]malgo.DeviceInfo, error) {
	ctx, err := malgo.InitContext(platformBackends(), malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}
	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	infos, err := ctx.Devices(enumDeviceType())
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	return infos, nil
}

// newDevice builds the public Device value for one enumerated endpoint.
// The public ID is the hex encoding of the backend's raw identifier,
// reversible via malgoDeviceID.
func newDevice(id malgo.DeviceID, name string) (Device, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Device{}, false
	}
	return Device{
		ID:   hex.EncodeToString(id[:]),
		Name: name,
	}, true
}

// malgoDeviceID decodes a public device ID back into the backend's raw
// identifier.
func malgoDeviceID(id string) (malgo.DeviceID, error) {
	var devID malgo.DeviceID
	raw, err := hex.DecodeString(id)
	if err != nil {
		return devID, fmt.Errorf("malformed device id: %w", err)
	}
	if len(raw) > len(devID) {
		return devID, fmt.Errorf("device id too long: %d bytes", len(raw))
	}
	copy(devID[:], raw)
	return devID, nil
}

// asciiDeviceID renders the printable prefix of a raw device identifier.
// PulseAudio and ALSA store the device name as a C string in the ID;
// other backends yield opaque bytes, which is fine for filtering.
func asciiDeviceID(id malgo.DeviceID) string {
	for i := range id {
		if id[i] == 0 {
			return string(id[:i])
		}
	}
	return string(id[:])
}
