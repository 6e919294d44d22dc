// SPDX-License-Identifier: MIT
package audio

import "time"

// Device represents an audio device
type Device struct {
	ID                int
	Name              string
	HostAPI           string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
	LowOutputLatency  time.Duration
	HighOutputLatency time.Duration
	LowInputLatency   time.Duration
	HighInputLatency  time.Duration
	IsDefaultInput    bool
	IsDefaultOutput   bool
}

// Type describes the directions the device supports.
func (d Device) Type() string {
	switch {
	case d.MaxInputChannels > 0 && d.MaxOutputChannels > 0:
		return "Input/Output"
	case d.MaxInputChannels > 0:
		return "Input"
	case d.MaxOutputChannels > 0:
		return "Output"
	default:
		return "None"
	}
}

// CanPlay reports whether the device can play stereo audio.
func (d Device) CanPlay() bool {
	return d.MaxOutputChannels >= 2
}

// CanCapture reports whether the device has any input channel.
func (d Device) CanCapture() bool {
	return d.MaxInputChannels > 0
}
