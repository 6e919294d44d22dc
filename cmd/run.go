// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"specviz/internal/audio"
	"specviz/internal/config"
	"specviz/internal/decode"
	applog "specviz/internal/log"
	"specviz/internal/metadata"
	"specviz/internal/session"
	"specviz/internal/transport"
	"specviz/internal/transport/udp"
	"specviz/internal/tui"

	"gopkg.in/yaml.v3"
)

// Run executes the parsed invocation.
func Run(inv *Invocation) error {
	if inv.Command == "" {
		return nil
	}

	// The terminal UI owns the screen, so logs go to a file.
	tuiMode := !inv.Headless && (inv.Command == CommandPlay || inv.Command == CommandCapture || inv.Command == CommandDevices)
	closeLog, err := setupLogging(inv.Config.Log, tuiMode)
	if err != nil {
		return err
	}
	defer closeLog()

	switch inv.Command {
	case CommandInfo:
		return printInfo(os.Stdout, inv.File)
	case CommandList:
		return withPortAudio(func() error {
			return audio.ListDevices(os.Stdout)
		})
	case CommandDevices:
		return withPortAudio(func() error {
			return pickDevice(os.Stdout)
		})
	case CommandPlay, CommandCapture:
		return withPortAudio(func() error {
			return visualize(inv)
		})
	default:
		return fmt.Errorf("unknown command %q", inv.Command)
	}
}

// setupLogging configures the global logger and returns a function that
// releases the log file, if any.
func setupLogging(cfg config.LogConfig, tuiMode bool) (func(), error) {
	level, _ := applog.ParseLevel(cfg.Level)
	applog.Configure(applog.Config{Level: level, Format: cfg.Format})

	if !tuiMode || cfg.File == "" {
		applog.SetOutput(os.Stderr)
		return func() {}, nil
	}

	file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	applog.SetOutput(file)
	return func() {
		applog.SetOutput(os.Stderr)
		file.Close()
	}, nil
}

func withPortAudio(fn func() error) error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()
	return fn()
}

// printInfo writes the tags and stream format of the file at path.
func printInfo(w io.Writer, path string) error {
	if !decode.Supported(path) {
		return fmt.Errorf("%s: %w", path, decode.ErrUnsupportedFormat)
	}

	for _, line := range metadata.Read(path).Lines() {
		fmt.Fprintln(w, line)
	}

	track, err := decode.Open(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Sample rate: %d Hz\n", track.SampleRate)
	fmt.Fprintf(w, "Frames: %d\n", len(track.Frames))
	fmt.Fprintf(w, "Duration: %s\n", tui.FormatTime(track.Duration()))
	return nil
}

// pickDevice runs the device picker and prints the chosen device as a
// configuration snippet.
func pickDevice(w io.Writer) error {
	sel, err := tui.StartDeviceListUI()
	if err != nil || sel == nil {
		return err
	}

	section := map[string]any{"sample_rate": sel.SampleRate}
	if sel.Device.CanCapture() {
		section["input_device"] = sel.Device.ID
	}
	if sel.Device.CanPlay() {
		section["output_device"] = sel.Device.ID
	}
	out, err := yaml.Marshal(map[string]any{"audio": section})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "# %s\n%s", sel.Device.Name, out)
	return nil
}

// visualize runs a playback or capture session until the user quits, the
// process is signalled or, when headless, the track ends.
func visualize(inv *Invocation) error {
	cfg := inv.Config

	var (
		track *decode.Track
		meta  metadata.Metadata
	)
	sampleRate := cfg.Audio.SampleRate
	if inv.Command == CommandPlay {
		var err error
		track, err = decode.Open(inv.File)
		if err != nil {
			if !inv.Headless {
				if uiErr := tui.Run(tui.Options{Err: err}); uiErr != nil {
					applog.Errorf("TUI: %v", uiErr)
				}
			}
			return err
		}
		meta = metadata.Read(inv.File)
		sampleRate = float64(track.SampleRate)
	}

	analyzerOpts, err := cfg.AnalyzerOptions(sampleRate)
	if err != nil {
		return err
	}
	opts := session.DefaultOptions()
	opts.Capacity = cfg.Buffer.Capacity
	opts.NumBars = cfg.Analysis.Bars
	opts.Analyzer = analyzerOpts
	s, err := session.New(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	stopPublisher, err := attachTransports(s, cfg.Transport, inv.Headless)
	if err != nil {
		return err
	}
	defer stopPublisher()

	var engine *audio.Engine
	if track != nil {
		engine, err = audio.NewPlaybackEngine(cfg.Audio, track, s.Producer())
	} else {
		engine, err = audio.NewCaptureEngine(cfg.Audio, s.Producer())
	}
	if err != nil {
		return err
	}
	var recordingPath string
	defer func() {
		// Close finalizes the recording, if any.
		if err := engine.Close(); err != nil {
			applog.Errorf("Error closing audio engine: %v", err)
		}
		if recordingPath != "" {
			fmt.Fprintf(os.Stderr, "Recording saved to: %s\n", recordingPath)
		}
	}()

	if cfg.Recording.Enabled {
		if err := os.MkdirAll(cfg.Recording.OutputDir, 0o755); err != nil {
			return fmt.Errorf("creating recording directory: %w", err)
		}
		path := audio.RecordingPath(cfg.Recording.OutputDir, time.Now())
		if err := engine.StartRecording(path, cfg.Recording.BitDepth); err != nil {
			return err
		}
		recordingPath = path
	}

	if err := engine.Start(); err != nil {
		return err
	}

	if inv.Headless {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if track != nil {
			go func() {
				select {
				case <-engine.Done():
					stop()
				case <-ctx.Done():
				}
			}()
		}
		return s.Run(ctx, cfg.FrameInterval())
	}

	uiOpts := tui.Options{
		Session:  s,
		Metadata: meta,
		Source:   engine.DeviceName(),
		FPS:      cfg.Analysis.FPS,
	}
	if track != nil {
		uiOpts.Player = engine
	}
	return tui.Run(uiOpts)
}

// attachTransports connects the configured transports to s. Headless runs
// without any network transport log their frames instead. The returned
// function stops the UDP publisher.
func attachTransports(s *session.Session, cfg config.TransportConfig, headless bool) (func(), error) {
	stop := func() {}

	if cfg.WSEnabled {
		ws, err := transport.NewWebSocketTransport(cfg.WSAddress)
		if err != nil {
			return stop, err
		}
		s.Attach(ws)
	}

	if cfg.UDPEnabled {
		sender, err := udp.NewUDPSender(cfg.UDPTargetAddress)
		if err != nil {
			return stop, err
		}
		publisher, err := udp.NewUDPPublisher(cfg.UDPSendInterval, sender, s)
		if err != nil {
			return stop, errors.Join(err, sender.Close())
		}
		publisher.Start()
		stop = func() {
			publisher.Stop()
			sender.Close()
		}
	}

	if headless && !cfg.WSEnabled && !cfg.UDPEnabled {
		s.Attach(transport.NewLoggingTransport())
	}
	return stop, nil
}
