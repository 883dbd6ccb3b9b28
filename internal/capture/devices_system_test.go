package capture

import (
	"testing"

	"github.com/gen2brain/malgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceIDRoundTrip(t *testing.T) {
	var raw malgo.DeviceID
	copy(raw[:], "alsa_output.pci-0000_00_1f.3.analog-stereo.monitor")

	dev, ok := newDevice(raw, "Monitor of Built-in Audio")
	require.True(t, ok)
	assert.Equal(t, "Monitor of Built-in Audio", dev.Name)

	decoded, err := malgoDeviceID(dev.ID)
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)
}

func TestDeviceIDRejectsMalformed(t *testing.T) {
	_, err := malgoDeviceID("not-hex!")
	assert.Error(t, err)
}

func TestNewDeviceSkipsUnnamed(t *testing.T) {
	var raw malgo.DeviceID
	_, ok := newDevice(raw, "  ")
	assert.False(t, ok)
}

func TestASCIIDeviceID(t *testing.T) {
	var raw malgo.DeviceID
	copy(raw[:], "front:CARD=PCH,DEV=0")
	assert.Equal(t, "front:CARD=PCH,DEV=0", asciiDeviceID(raw))
}
