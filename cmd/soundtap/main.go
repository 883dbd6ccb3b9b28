package main

import (
	"fmt"
	"math"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/petems/soundtap/internal/capture"
	"github.com/petems/soundtap/internal/config"
	"github.com/petems/soundtap/internal/logging"
	"github.com/petems/soundtap/internal/permissions"
	"github.com/petems/soundtap/internal/wavio"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "soundtap",
		Short:         "Capture system audio output (loopback) to WAV",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")

	root.AddCommand(
		newDevicesCmd(&logLevel),
		newRecordCmd(&logLevel),
		newVersionCmd(),
	)
	return root
}

func newLogger(flagLevel string) (zerolog.Logger, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return logging.New(), nil, fmt.Errorf("load config: %w", err)
	}
	level := cfg.LogLevel
	if flagLevel != "" {
		level = flagLevel
	}
	return logging.NewWithLevel(level), cfg, nil
}

func newDevicesCmd(logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List capturable loopback devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := newLogger(*logLevel); err != nil {
				return err
			}

			devices := capture.ListDevices()
			if len(devices) == 0 {
				fmt.Println("No loopback devices found.")
				return nil
			}

			def, haveDefault := capture.DefaultDevice()
			for _, d := range devices {
				marker := " "
				if haveDefault && d.ID == def.ID {
					marker = "*"
				}
				fmt.Printf("%s %s\n    id: %s\n", marker, d.Name, d.ID)
			}
			return nil
		},
	}
}

func newRecordCmd(logLevel *string) *cobra.Command {
	var (
		output   string
		device   string
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record system audio output to a WAV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, cfg, err := newLogger(*logLevel)
			if err != nil {
				return err
			}
			if device == "" {
				device = cfg.Audio.DeviceID
			}
			if err := permissions.EnsureCapture(); err != nil {
				return err
			}

			session := capture.NewSession(
				capture.WithLogger(log),
				capture.WithFormat(capture.Format{
					SampleRate:   cfg.Audio.SampleRate,
					Channels:     cfg.Audio.Channels,
					SampleFormat: capture.SampleFormat(cfg.Audio.SampleFormat),
				}),
				capture.WithQueueDepth(cfg.Audio.QueueDepth),
			)

			format := session.Format()
			sink, err := wavio.Create(output, format.SampleRate, format.Channels)
			if err != nil {
				return err
			}

			meter := newLevelMeter(log, format)
			var buffers atomic.Uint64

			started, err := session.Start(device, func(samples []float32) {
				buffers.Add(1)
				meter.observe(samples)
				sink.Append(samples)
			})
			if err != nil {
				_ = sink.Close()
				_ = os.Remove(output)
				return err
			}

			log.Info().
				Str("output", output).
				Int("sample_rate", started.SampleRate).
				Int("channels", started.Channels).
				Msg("recording")

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sig)

			var timeout <-chan time.Time
			if duration > 0 {
				timeout = time.After(duration)
			}

			select {
			case <-sig:
				log.Info().Msg("interrupted")
			case <-timeout:
			case <-session.Done():
				log.Warn().Msg("capture ended by the platform")
			}

			if err := session.Stop(); err != nil {
				log.Error().Err(err).Msg("stop")
			}
			if err := sink.Close(); err != nil {
				return fmt.Errorf("close wav: %w", err)
			}

			log.Info().
				Uint64("buffers", buffers.Load()).
				Uint64("dropped", sink.Dropped()).
				Msg("recording finished")
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "capture.wav", "output WAV file")
	cmd.Flags().StringVar(&device, "device", "", "device id or name (default: system default)")
	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "stop after this long (0 = until interrupted)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("soundtap %s (%s)\n", Version, Commit)
		},
	}
}

// levelMeter tracks peak and RMS over roughly one second of samples and
// logs the result, so a silent recording is diagnosable while it runs.
type levelMeter struct {
	log    zerolog.Logger
	window int
	count  int
	sumSq  float64
	peak   float64
}

func newLevelMeter(log zerolog.Logger, format capture.Format) *levelMeter {
	return &levelMeter{
		log:    log,
		window: format.SampleRate * format.Channels,
	}
}

func (m *levelMeter) observe(samples []float32) {
	for _, s := range samples {
		v := float64(s)
		m.sumSq += v * v
		if a := math.Abs(v); a > m.peak {
			m.peak = a
		}
	}
	m.count += len(samples)
	if m.count < m.window {
		return
	}

	rms := math.Sqrt(m.sumSq / float64(m.count))
	m.log.Debug().
		Float64("rms_db", toDB(rms)).
		Float64("peak_db", toDB(m.peak)).
		Msg("level")
	m.count, m.sumSq, m.peak = 0, 0, 0
}

func toDB(v float64) float64 {
	if v <= 0 {
		return -96
	}
	db := 20 * math.Log10(v)
	if db < -96 {
		return -96
	}
	return math.Round(db*10) / 10
}
