// SPDX-License-Identifier: MIT

// Package decode loads an audio file fully into memory as stereo frames.
// Playback then only copies frames, so the device callback never waits on
// file I/O.
package decode

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"specviz/internal/frames"
	applog "specviz/internal/log"
)

// ErrUnsupportedFormat is returned for file extensions without a decoder.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Track is a decoded audio file.
type Track struct {
	Path       string
	SampleRate int
	Frames     []frames.Frame // Stereo, samples in [-1, 1].
}

// Duration returns the playing time of the whole track.
func (t *Track) Duration() time.Duration {
	return t.TimeAt(len(t.Frames))
}

// TimeAt converts a frame index to a playing position.
func (t *Track) TimeAt(frame int) time.Duration {
	if t.SampleRate <= 0 {
		return 0
	}
	return time.Duration(int64(frame) * int64(time.Second) / int64(t.SampleRate))
}

// FrameAt converts a playing position to a frame index, clamped to
// [0, len(Frames)].
func (t *Track) FrameAt(d time.Duration) int {
	frame := int(int64(d) * int64(t.SampleRate) / int64(time.Second))
	return min(max(frame, 0), len(t.Frames))
}

// decoderFunc decodes the file at path into interleaved float32 samples.
type decoderFunc func(path string) (samples []float32, channels, sampleRate int, err error)

var decoders = map[string]decoderFunc{
	".mp3":  decodeMP3,
	".wav":  decodeWAV,
	".flac": decodeFLAC,
	".ogg":  decodeOGG,
}

// Supported reports whether path has an extension Open can decode.
func Supported(path string) bool {
	_, ok := decoders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Open detects the format by file extension and decodes the whole file.
func Open(path string) (*Track, error) {
	ext := strings.ToLower(filepath.Ext(path))
	decode, ok := decoders[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	samples, channels, sampleRate, err := decode(path)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	if channels < 1 || sampleRate <= 0 {
		return nil, fmt.Errorf("decoding %s: invalid stream (%d channels, %d Hz)", filepath.Base(path), channels, sampleRate)
	}

	track := &Track{
		Path:       path,
		SampleRate: sampleRate,
		Frames:     toStereo(samples, channels),
	}
	applog.Debugf("Decode: Loaded %s (%d frames, %d Hz, %d channels, %s)",
		filepath.Base(path), len(track.Frames), sampleRate, channels, track.Duration().Round(time.Millisecond))
	return track, nil
}

// toStereo converts interleaved samples with any channel count to frames.
// Mono is duplicated to both channels; channels past the second are dropped.
func toStereo(samples []float32, channels int) []frames.Frame {
	n := len(samples) / channels
	out := make([]frames.Frame, n)
	switch channels {
	case 1:
		for i, s := range samples[:n] {
			out[i] = frames.Frame{Left: s, Right: s}
		}
	case 2:
		frames.FromInterleaved(out, samples)
	default:
		for i := range out {
			base := i * channels
			out[i] = frames.Frame{Left: samples[base], Right: samples[base+1]}
		}
	}
	return out
}

// clamp limits a sample to [-1, 1].
func clamp(s float32) float32 {
	return min(max(s, -1), 1)
}
