// SPDX-License-Identifier: MIT
package analysis

import (
	"testing"

	"specviz/internal/frames"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBandLevelsFindsToneBand(t *testing.T) {
	a := newTestAnalyzer(t, nil)
	a.Analyze(sineFrames(testFFTSize, 1000, testSampleRate, 1), DefaultNumBars)

	levels := NewBandLevels(nil).Compute(a)
	require.Len(t, levels, len(DefaultBands))

	loudest := levels[0]
	for _, l := range levels {
		if l.Level > loudest.Level {
			loudest = l
		}
	}
	assert.Equal(t, "mid", loudest.Name)
}

func TestBandLevelsEmptyBandIsSilent(t *testing.T) {
	a := newTestAnalyzer(t, nil)
	a.Analyze(sineFrames(testFFTSize, 1000, testSampleRate, 1), DefaultNumBars)

	// Narrower than one bin (~43 Hz), between bin centres.
	levels := NewBandLevels([]FrequencyBand{{Name: "gap", LowHz: 50, HighHz: 60}}).Compute(a)
	assert.Equal(t, SilenceDB, levels[0].Level)
}

func TestBeatDetector(t *testing.T) {
	d := NewBeatDetector(0.1, 1.5, 256)
	quiet := make([]frames.Frame, 512)
	loud := sineFrames(512, 440, testSampleRate, 0.9)

	d.Process(quiet)
	assert.False(t, d.Detected())

	d.Process(loud)
	assert.True(t, d.Detected())

	d.Process(loud)
	assert.False(t, d.Detected(), "steady energy is not an onset")
}

func TestRMS(t *testing.T) {
	assert.Equal(t, 0.0, RMS(nil))
	batch := []frames.Frame{{Left: 1}, {Left: -1}, {Left: 1}, {Left: -1}}
	assert.InDelta(t, 1.0, RMS(batch), 1e-12)
}
