// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"specviz/internal/analysis"
	applog "specviz/internal/log"
	"specviz/pkg/bitint"

	"gopkg.in/yaml.v3"
)

// searchPaths are tried in order when LoadConfig is given no path.
var searchPaths = []string{"specviz.yaml", "config.yaml"}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations. If no file is found, it uses built-in defaults.
// After loading defaults or from file, it applies environment variable overrides
// and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		for _, candidate := range searchPaths {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values the analyzer and devices cannot recover from.
// Every error wraps ErrInvalid.
func (c *Config) Validate() error {
	if _, ok := applog.ParseLevel(c.Log.Level); !ok {
		return invalid("log.level %q is not a known level", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid("log.format must be text or json, got %q", c.Log.Format)
	}

	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return invalid("audio.sample_rate must be in [%d, %d], got %g", MinSampleRate, MaxSampleRate, c.Audio.SampleRate)
	}
	if c.Audio.FramesPerBuffer < 1 || c.Audio.FramesPerBuffer > MaxBufferFrames {
		return invalid("audio.frames_per_buffer must be in [1, %d], got %d", MaxBufferFrames, c.Audio.FramesPerBuffer)
	}
	if c.Audio.InputChannels != 1 && c.Audio.InputChannels != 2 {
		return invalid("audio.input_channels must be 1 or 2, got %d", c.Audio.InputChannels)
	}
	if c.Audio.InputDevice < MinDeviceID || c.Audio.OutputDevice < MinDeviceID {
		return invalid("audio device indices must be >= %d", MinDeviceID)
	}
	if c.Audio.GateThreshold < 0 || c.Audio.GateThreshold > 1 {
		return invalid("audio.gate_threshold must be in [0, 1], got %g", c.Audio.GateThreshold)
	}

	if c.Buffer.Capacity < 1 {
		return invalid("buffer.capacity must be >= 1, got %d", c.Buffer.Capacity)
	}

	a := c.Analysis
	if !bitint.IsPowerOfTwo(a.FFTSize) || a.FFTSize < 2 {
		return invalid("analysis.fft_size must be a power of 2 >= 2, got %d", a.FFTSize)
	}
	if a.Bars < 1 || a.Bars > a.FFTSize/2 {
		return invalid("analysis.bars must be in [1, %d], got %d", a.FFTSize/2, a.Bars)
	}
	if _, err := analysis.ParseWindowFunc(a.Window); err != nil {
		return invalid("analysis.window: %v", err)
	}
	if _, err := analysis.ParseFFTBackend(a.Backend); err != nil {
		return invalid("analysis.fft_backend: %v", err)
	}
	if err := (analysis.Smoothing{Rise: a.Rise, Fall: a.Fall}).Validate(); err != nil {
		return invalid("analysis: %v", err)
	}
	if a.FPS <= 0 {
		return invalid("analysis.fps must be positive, got %d", a.FPS)
	}

	if c.Recording.BitDepth != 16 && c.Recording.BitDepth != 24 {
		return invalid("recording.bit_depth must be 16 or 24, got %d", c.Recording.BitDepth)
	}

	if c.Transport.UDPEnabled {
		if c.Transport.UDPTargetAddress == "" {
			return invalid("transport.udp_target_address must be set when UDP is enabled")
		}
		if c.Transport.UDPSendInterval <= 0 {
			return invalid("transport.udp_send_interval must be positive when UDP is enabled")
		}
	}
	if c.Transport.WSEnabled && c.Transport.WSAddress == "" {
		return invalid("transport.ws_address must be set when WebSocket is enabled")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// applyEnvOverrides applies ENV_* variables on top of the file values.
// Malformed values are ignored.
func (c *Config) applyEnvOverrides() {
	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil && bVal {
			c.Log.Level = "debug"
			applog.Debugf("configuration: Overriding log.level from env: debug")
		}
	}
	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		c.Log.Level = val
		applog.Debugf("configuration: Overriding log.level from env: %s", val)
	}

	// ENV_FFT_SIZE
	if val, ok := os.LookupEnv("ENV_FFT_SIZE"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			c.Analysis.FFTSize = n
			applog.Debugf("configuration: Overriding analysis.fft_size from env: %d", n)
		}
	}
	// ENV_BARS
	if val, ok := os.LookupEnv("ENV_BARS"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			c.Analysis.Bars = n
			applog.Debugf("configuration: Overriding analysis.bars from env: %d", n)
		}
	}

	// ENV_UDP_{...}
	// These are specific to the transport layer.

	// ENV_UDP_ENABLED
	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Transport.UDPEnabled = bVal
			applog.Debugf("configuration: Overriding transport.udp_enabled from env: %v", bVal)
		}
	}
	// ENV_UDP_TARGET_ADDRESS
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		c.Transport.UDPTargetAddress = val
		applog.Debugf("configuration: Overriding transport.udp_target_address from env: %s", val)
	}
	// ENV_UDP_SEND_INTERVAL
	if val, ok := os.LookupEnv("ENV_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			c.Transport.UDPSendInterval = dur
			applog.Debugf("configuration: Overriding transport.udp_send_interval from env: %s", dur)
		}
	}

	// ENV_WS_ENABLED
	if val, ok := os.LookupEnv("ENV_WS_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Transport.WSEnabled = bVal
			applog.Debugf("configuration: Overriding transport.ws_enabled from env: %v", bVal)
		}
	}
	// ENV_WS_ADDRESS
	if val, ok := os.LookupEnv("ENV_WS_ADDRESS"); ok {
		c.Transport.WSAddress = val
		applog.Debugf("configuration: Overriding transport.ws_address from env: %s", val)
	}
}
