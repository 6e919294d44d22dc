// SPDX-License-Identifier: MIT
package analysis

import (
	"math"

	"specviz/internal/frames"
)

// BeatDetector flags kick-like onsets from jumps in short-term energy.
type BeatDetector struct {
	threshold      float64 // Minimum RMS for a beat.
	minEnergyRatio float64 // Required increase over the previous RMS.
	window         int     // Number of newest frames measured.
	lastEnergy     float64
	detected       bool
}

var _ FrameProcessor = (*BeatDetector)(nil)

// NewBeatDetector measures the newest window frames of each snapshot.
func NewBeatDetector(threshold, minEnergyRatio float64, window int) *BeatDetector {
	if window < 1 {
		window = DefaultFFTSize
	}
	return &BeatDetector{
		threshold:      threshold,
		minEnergyRatio: minEnergyRatio,
		window:         window,
	}
}

// Process updates the detector with the latest snapshot.
func (d *BeatDetector) Process(snapshot []frames.Frame) {
	if len(snapshot) > d.window {
		snapshot = snapshot[len(snapshot)-d.window:]
	}
	energy := RMS(snapshot)

	d.detected = energy > d.threshold &&
		(d.lastEnergy == 0 || energy/d.lastEnergy > d.minEnergyRatio)
	d.lastEnergy = energy
}

// Detected reports whether the last processed snapshot contained an onset.
func (d *BeatDetector) Detected() bool {
	return d.detected
}

// RMS calculates the root mean square of the left channel.
func RMS(batch []frames.Frame) float64 {
	if len(batch) == 0 {
		return 0.0
	}

	var sumSquare float64
	for _, f := range batch {
		s := float64(f.Left)
		sumSquare += s * s
	}
	return math.Sqrt(sumSquare / float64(len(batch)))
}
