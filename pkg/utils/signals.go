// SPDX-License-Identifier: MIT

// Package utils holds signal generators and fakes shared by tests.
package utils

import (
	"math"
	"sync"

	"specviz/internal/frames"
)

// SineFrames returns n stereo frames of a sine wave with amplitude amp.
func SineFrames(n int, sampleRate, frequency, amp float64) []frames.Frame {
	out := make([]frames.Frame, n)
	for i := range out {
		t := float64(i) / sampleRate
		s := float32(amp * math.Sin(2*math.Pi*frequency*t))
		out[i] = frames.Frame{Left: s, Right: s}
	}
	return out
}

// CosineFrames returns n stereo frames of a cosine wave with amplitude amp.
func CosineFrames(n int, sampleRate, frequency, amp float64) []frames.Frame {
	out := make([]frames.Frame, n)
	for i := range out {
		t := float64(i) / sampleRate
		s := float32(amp * math.Cos(2*math.Pi*frequency*t))
		out[i] = frames.Frame{Left: s, Right: s}
	}
	return out
}

// ComplexWaveFrames returns a 440 Hz fundamental with its 2nd and 3rd
// harmonics.
func ComplexWaveFrames(n int, sampleRate float64) []frames.Frame {
	out := make([]frames.Frame, n)
	for i := range out {
		t := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*t)*0.5 +
			math.Sin(2*math.Pi*880*t)*0.3 +
			math.Sin(2*math.Pi*1320*t)*0.2
		s := float32(signal * 0.9)
		out[i] = frames.Frame{Left: s, Right: s}
	}
	return out
}

// ImpulseFrames returns n silent frames with a unit impulse at index at.
func ImpulseFrames(n, at int) []frames.Frame {
	out := make([]frames.Frame, n)
	if at >= 0 && at < n {
		out[at] = frames.Frame{Left: 1, Right: 1}
	}
	return out
}

// BinFrequency returns the centre frequency of FFT bin k, for generating
// signals that land exactly on a bin.
func BinFrequency(k, fftSize int, sampleRate float64) float64 {
	return float64(k) * sampleRate / float64(fftSize)
}

// FindPeakBin returns the index of the largest value in
// values[startBin:endBin+1], with both bounds clamped to the slice.
func FindPeakBin(values []float64, startBin, endBin int) int {
	if len(values) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(values) {
		endBin = len(values) - 1
	}

	peakBin := startBin
	peakValue := values[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if values[bin] > peakValue {
			peakValue = values[bin]
			peakBin = bin
		}
	}

	return peakBin
}

// MockTransport records every message it is sent. It satisfies
// transport.Transport.
type MockTransport struct {
	mu       sync.Mutex
	messages []any
	closed   bool

	// Err is returned by Send when set.
	Err error
}

// Send stores data for later inspection instead of transmitting.
func (m *MockTransport) Send(data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.messages = append(m.messages, data)
	return nil
}

// Messages returns the messages sent so far.
func (m *MockTransport) Messages() []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]any(nil), m.messages...)
}

// Close marks the transport closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockTransport) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
