package config

import (
	"runtime"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	setConfigHome(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Audio.SampleRate != 48000 {
		t.Errorf("expected default sample rate 48000, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.Channels != 2 {
		t.Errorf("expected default channels 2, got %d", cfg.Audio.Channels)
	}
	if cfg.Audio.SampleFormat != "float32" {
		t.Errorf("expected default sample format float32, got %s", cfg.Audio.SampleFormat)
	}
	if cfg.Audio.DeviceID != "" {
		t.Errorf("expected empty default device, got %s", cfg.Audio.DeviceID)
	}
}

func TestSaveAndReload(t *testing.T) {
	setConfigHome(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.Audio.DeviceID = "mon-42"
	cfg.Audio.SampleRate = 44100
	cfg.LogLevel = "debug"
	if err := cfg.Save(); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	reloaded, err := Load()
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Audio.DeviceID != "mon-42" {
		t.Errorf("expected device mon-42, got %s", reloaded.Audio.DeviceID)
	}
	if reloaded.Audio.SampleRate != 44100 {
		t.Errorf("expected sample rate 44100, got %d", reloaded.Audio.SampleRate)
	}
	if reloaded.LogLevel != "debug" {
		t.Errorf("expected log level debug, got %s", reloaded.LogLevel)
	}
}

// setConfigHome redirects the platform config path into a temp dir.
func setConfigHome(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	switch runtime.GOOS {
	case "darwin":
		t.Setenv("HOME", dir)
	case "windows":
		t.Setenv("APPDATA", dir)
	default:
		t.Setenv("XDG_CONFIG_HOME", dir)
	}
}
