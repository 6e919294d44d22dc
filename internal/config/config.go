// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"time"

	"specviz/internal/analysis"
	"specviz/internal/frames"
)

// Core configuration constants that define the boundaries and defaults
// for the visualizer.
const (
	DefaultDeviceID        = MinDeviceID // Default to system default device
	DefaultFramesPerBuffer = 512         // Balanced latency/performance
	DefaultSampleRate      = analysis.DefaultSampleRate
	DefaultInputChannels   = 2
	DefaultGateThreshold   = 0.01
	DefaultBitDepth        = 16
	DefaultUDPAddress      = "127.0.0.1:9090"
	DefaultUDPInterval     = 33 * time.Millisecond // ~30Hz
	DefaultWSAddress       = "127.0.0.1:8080"

	// Hardware and processing limits
	MinDeviceID     = -1     // -1 represents system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxBufferFrames = 8192   // Maximum frames per buffer (power of 2)
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Log       LogConfig       `yaml:"log"`       // Logging settings.
	Audio     AudioConfig     `yaml:"audio"`     // Audio device settings.
	Buffer    BufferConfig    `yaml:"buffer"`    // Ring buffer settings.
	Analysis  AnalysisConfig  `yaml:"analysis"`  // Spectrum analysis settings.
	Recording RecordingConfig `yaml:"recording"` // Audio recording settings.
	Transport TransportConfig `yaml:"transport"` // Bar streaming settings.
}

// LogConfig holds settings for the global logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn" or "error".
	Format string `yaml:"format"` // "text" or "json".
	File   string `yaml:"file"`   // Log file used while the terminal UI is active.
}

// AudioConfig holds settings related to audio input/output.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index for capture (-1 for default).
	OutputDevice    int     `yaml:"output_device"`     // PortAudio device index for playback (-1 for default).
	SampleRate      float64 `yaml:"sample_rate"`       // Capture sample rate in Hz; playback uses the file's rate.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per device callback.
	LowLatency      bool    `yaml:"low_latency"`       // Request low latency settings from PortAudio.
	InputChannels   int     `yaml:"input_channels"`    // Capture channels, 1 or 2.
	GateEnabled     bool    `yaml:"gate_enabled"`      // Silence captured batches below GateThreshold.
	GateThreshold   float64 `yaml:"gate_threshold"`    // Peak amplitude in [0, 1].
}

// BufferConfig holds settings of the frame ring buffer.
type BufferConfig struct {
	Capacity int `yaml:"capacity"` // Number of frames retained.
}

// AnalysisConfig holds settings of the spectrum analyzer.
type AnalysisConfig struct {
	FFTSize int     `yaml:"fft_size"`    // Power of two.
	Bars    int     `yaml:"bars"`        // 1..fft_size/2.
	Window  string  `yaml:"window"`      // Window function name.
	Backend string  `yaml:"fft_backend"` // "recursive" or "gonum".
	Rise    float64 `yaml:"rise"`        // Smoothing factor when a bar grows.
	Fall    float64 `yaml:"fall"`        // Smoothing factor when a bar decays.
	FPS     int     `yaml:"fps"`         // Analysis ticks per second.
}

// RecordingConfig holds settings related to audio recording functionality.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`    // Record the visualized stream to WAV.
	OutputDir string `yaml:"output_dir"` // Directory to save recorded audio files.
	BitDepth  int    `yaml:"bit_depth"`  // 16 or 24.
}

// TransportConfig holds settings related to sending bars over the network.
type TransportConfig struct {
	UDPEnabled       bool          `yaml:"udp_enabled"`        // Enable sending bars over UDP.
	UDPTargetAddress string        `yaml:"udp_target_address"` // Target address and port for UDP packets.
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`  // Interval between sending UDP packets.
	WSEnabled        bool          `yaml:"ws_enabled"`         // Serve bars over WebSocket.
	WSAddress        string        `yaml:"ws_address"`         // Listen address of the WebSocket server.
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File:   "specviz.log",
		},
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			OutputDevice:    DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			InputChannels:   DefaultInputChannels,
			GateThreshold:   DefaultGateThreshold,
		},
		Buffer: BufferConfig{
			Capacity: frames.DefaultCapacity,
		},
		Analysis: AnalysisConfig{
			FFTSize: analysis.DefaultFFTSize,
			Bars:    analysis.DefaultNumBars,
			Window:  analysis.Hann.String(),
			Backend: analysis.BackendRecursive.String(),
			Rise:    analysis.DefaultSmoothingFactor,
			Fall:    analysis.DefaultSmoothingFactor,
			FPS:     analysis.DefaultFramesPerSecond,
		},
		Recording: RecordingConfig{
			OutputDir: "./recordings",
			BitDepth:  DefaultBitDepth,
		},
		Transport: TransportConfig{
			UDPTargetAddress: DefaultUDPAddress,
			UDPSendInterval:  DefaultUDPInterval,
			WSAddress:        DefaultWSAddress,
		},
	}
}

// AnalyzerOptions converts the analysis section into analyzer options for
// audio at sampleRate.
func (c *Config) AnalyzerOptions(sampleRate float64) (analysis.Options, error) {
	window, err := analysis.ParseWindowFunc(c.Analysis.Window)
	if err != nil {
		return analysis.Options{}, err
	}
	backend, err := analysis.ParseFFTBackend(c.Analysis.Backend)
	if err != nil {
		return analysis.Options{}, err
	}
	return analysis.Options{
		FFTSize:    c.Analysis.FFTSize,
		Window:     window,
		Backend:    backend,
		Smoothing:  analysis.Smoothing{Rise: c.Analysis.Rise, Fall: c.Analysis.Fall},
		SampleRate: sampleRate,
	}, nil
}

// FrameInterval is the time between two analysis ticks.
func (c *Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.Analysis.FPS)
}
