//go:build linux

package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsLoopbackSource(t *testing.T) {
	assert.True(t, isLoopbackSource(
		"alsa_output.pci-0000_00_1f.3.analog-stereo.monitor",
		"Monitor of Built-in Audio Analog Stereo"))
	assert.True(t, isLoopbackSource(
		"", "Monitor of HDMI Audio"))
	assert.False(t, isLoopbackSource(
		"alsa_input.pci-0000_00_1f.3.analog-stereo",
		"Built-in Audio Analog Stereo"))
}
