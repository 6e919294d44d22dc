// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"testing"

	"specviz/internal/frames"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnalyzer(t testing.TB, mutate func(*Options)) *Analyzer {
	t.Helper()
	opts := DefaultOptions()
	if mutate != nil {
		mutate(&opts)
	}
	a, err := NewAnalyzer(opts)
	require.NoError(t, err)
	return a
}

func sineFrames(n int, freq, sampleRate, amp float64) []frames.Frame {
	batch := make([]frames.Frame, n)
	for i := range batch {
		s := float32(amp * math.Sin(2*math.Pi*freq*float64(i)/sampleRate))
		batch[i] = frames.Frame{Left: s, Right: s}
	}
	return batch
}

func TestNewAnalyzerValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"size not power of two", func(o *Options) { o.FFTSize = 1000 }},
		{"size too small", func(o *Options) { o.FFTSize = 1 }},
		{"zero rise", func(o *Options) { o.Smoothing.Rise = 0 }},
		{"fall above one", func(o *Options) { o.Smoothing.Fall = 1.5 }},
		{"zero sample rate", func(o *Options) { o.SampleRate = 0 }},
		{"unknown backend", func(o *Options) { o.Backend = FFTBackend(9) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			_, err := NewAnalyzer(opts)
			assert.Error(t, err)
		})
	}
}

func TestAnalyzeSmallEndToEnd(t *testing.T) {
	ring := frames.NewRingBuffer(8)
	one := frames.Frame{Left: 1, Right: 1}
	ring.Push([]frames.Frame{one, one, one, one})
	snapshot, _ := ring.Snapshot()

	a := newTestAnalyzer(t, func(o *Options) { o.FFTSize = 4 })
	bars := a.Analyze(snapshot, 2)
	require.Len(t, bars, 2)

	// Windowed input [0, .75, .75, 0]: |X0| = 1.5, |X1| = |-.75-.75i|.
	wantBar0 := DefaultSmoothingFactor * Decibels(1.5)
	wantBar1 := DefaultSmoothingFactor * Decibels(math.Hypot(0.75, 0.75))
	assert.InDelta(t, wantBar0, bars[0], 1e-9)
	assert.InDelta(t, wantBar1, bars[1], 1e-9)
	assert.Greater(t, bars[0], bars[1])
	assert.Greater(t, bars[1], 0.0)
}

func TestAnalyzeSilenceConvergesToFloor(t *testing.T) {
	a := newTestAnalyzer(t, nil)
	silence := make([]frames.Frame, testFFTSize)

	bars := a.Analyze(silence, DefaultNumBars)
	for _, v := range bars {
		assert.InDelta(t, DefaultSmoothingFactor*SilenceDB, v, 1e-9)
	}

	for range 200 {
		bars = a.Analyze(silence, DefaultNumBars)
	}
	for _, v := range bars {
		assert.InDelta(t, SilenceDB, v, 1e-6)
	}
}

func TestAnalyzeEmptySnapshotIsSilence(t *testing.T) {
	a := newTestAnalyzer(t, nil)
	bars := a.Analyze(nil, 8)
	for _, v := range bars {
		assert.InDelta(t, DefaultSmoothingFactor*SilenceDB, v, 1e-9)
	}
}

func TestAnalyzeUsesLeadingFrames(t *testing.T) {
	a := newTestAnalyzer(t, func(o *Options) { o.FFTSize = 8 })
	b := newTestAnalyzer(t, func(o *Options) { o.FFTSize = 8 })

	leading := sineFrames(8, 1000, testSampleRate, 0.5)
	trailing := make([]frames.Frame, 16)
	copy(trailing, leading)

	assert.Equal(t, a.Analyze(leading, 4), b.Analyze(trailing, 4))
}

func TestAnalyzeIgnoresRightChannel(t *testing.T) {
	a := newTestAnalyzer(t, nil)
	b := newTestAnalyzer(t, nil)

	left := sineFrames(testFFTSize, 440, testSampleRate, 0.8)
	noisyRight := make([]frames.Frame, len(left))
	for i, f := range left {
		noisyRight[i] = frames.Frame{Left: f.Left, Right: float32(i%7) - 3}
	}

	assert.Equal(t, a.Analyze(left, 32), b.Analyze(noisyRight, 32))
}

func TestAnalyzeSineLandsInExpectedBar(t *testing.T) {
	a := newTestAnalyzer(t, nil)
	const numBars = 32
	// Bin 100 sits in bar 100*32/512 = 6.
	freq := 100 * float64(testSampleRate) / testFFTSize
	snapshot := sineFrames(testFFTSize, freq, testSampleRate, 1)

	var bars []float64
	for range 50 {
		bars = a.Analyze(snapshot, numBars)
	}

	loudest := 0
	for i, v := range bars {
		if v > bars[loudest] {
			loudest = i
		}
	}
	assert.Equal(t, 6, loudest)

	lo, hi := a.BarFrequencyRange(loudest, numBars)
	assert.LessOrEqual(t, lo, freq)
	assert.Greater(t, hi, freq)
}

func TestSmoothingBoundsEachStep(t *testing.T) {
	a := newTestAnalyzer(t, nil)
	loud := sineFrames(testFFTSize, 2000, testSampleRate, 1)
	quiet := make([]frames.Frame, testFFTSize)

	prev := make([]float64, 16)
	inputs := [][]frames.Frame{loud, loud, quiet, loud, quiet, quiet}
	for _, in := range inputs {
		bars := a.Analyze(in, 16)
		raw := a.rawBarsForTest(16)
		for i, v := range bars {
			lo, hi := math.Min(prev[i], raw[i]), math.Max(prev[i], raw[i])
			assert.GreaterOrEqual(t, v, lo-1e-9)
			assert.LessOrEqual(t, v, hi+1e-9)
		}
		copy(prev, bars)
	}
}

func TestSmoothingConvergesToConstantInput(t *testing.T) {
	a := newTestAnalyzer(t, nil)
	snapshot := sineFrames(testFFTSize, 3000, testSampleRate, 0.6)

	a.Analyze(snapshot, 8)
	raw := append([]float64(nil), a.rawBarsForTest(8)...)

	var bars []float64
	for range 300 {
		bars = a.Analyze(snapshot, 8)
	}
	for i := range bars {
		assert.InDelta(t, raw[i], bars[i], 1e-6)
	}
}

func TestAsymmetricSmoothing(t *testing.T) {
	a := newTestAnalyzer(t, func(o *Options) {
		o.Smoothing = Smoothing{Rise: 1, Fall: 0.5}
	})
	loud := sineFrames(testFFTSize, 1000, testSampleRate, 1)
	quiet := make([]frames.Frame, testFFTSize)

	// A single bar holds the loudest bin, well above the initial zero.
	bars := a.Analyze(loud, 1)
	raw := a.rawBarsForTest(1)
	assert.InDelta(t, raw[0], bars[0], 1e-9)

	peak := bars[0]
	bars = a.Analyze(quiet, 1)
	assert.InDelta(t, 0.5*peak+0.5*SilenceDB, bars[0], 1e-9)
}

func TestBarCountChangeResetsHistory(t *testing.T) {
	a := newTestAnalyzer(t, nil)
	b := newTestAnalyzer(t, nil)
	snapshot := sineFrames(testFFTSize, 500, testSampleRate, 0.9)

	for range 10 {
		a.Analyze(snapshot, 16)
	}
	assert.Equal(t, b.Analyze(snapshot, 32), a.Analyze(snapshot, 32))

	a.Reset()
	b.Reset()
	assert.Equal(t, b.Analyze(snapshot, 32), a.Analyze(snapshot, 32))
}

func TestAnalyzePanicsOnBadBarCount(t *testing.T) {
	a := newTestAnalyzer(t, nil)
	assert.Panics(t, func() { a.Analyze(nil, 0) })
	assert.Panics(t, func() { a.Analyze(nil, a.MaxBars()+1) })
	assert.NotPanics(t, func() { a.Analyze(nil, a.MaxBars()) })
}

func TestAnalyzeInto(t *testing.T) {
	a := newTestAnalyzer(t, nil)
	snapshot := sineFrames(testFFTSize, 440, testSampleRate, 1)

	dst := a.AnalyzeInto(nil, snapshot, 8)
	require.Len(t, dst, 8)
	dst2 := a.AnalyzeInto(dst, snapshot, 8)
	assert.Same(t, &dst[0], &dst2[0])
}

func TestGonumBackendMatchesRecursive(t *testing.T) {
	a := newTestAnalyzer(t, nil)
	b := newTestAnalyzer(t, func(o *Options) { o.Backend = BackendGonum })
	snapshot := sineFrames(testFFTSize, 1234, testSampleRate, 0.7)

	assert.InDeltaSlice(t, a.Analyze(snapshot, 64), b.Analyze(snapshot, 64), 1e-6)
}

func TestFrequencyForBin(t *testing.T) {
	a := newTestAnalyzer(t, nil)
	assert.Equal(t, 0.0, a.FrequencyForBin(0))
	assert.InDelta(t, testSampleRate/4.0, a.FrequencyForBin(testFFTSize/4), 1e-9)
	assert.Equal(t, 0.0, a.FrequencyForBin(-1))
	assert.Equal(t, 0.0, a.FrequencyForBin(testFFTSize/2))

	lo, hi := a.BarFrequencyRange(0, 0)
	assert.Zero(t, lo)
	assert.Zero(t, hi)
}

func TestDecibelsIsMonotonic(t *testing.T) {
	prev := Decibels(0)
	assert.InDelta(t, -120.0, prev, 1e-6)
	for _, m := range []float64{1e-9, 1e-3, 0.5, 1, 10, 1e6} {
		db := Decibels(m)
		assert.Greater(t, db, prev)
		prev = db
	}
}

func TestAnalyzeHotPath(t *testing.T) {
	a := newTestAnalyzer(t, nil)
	snapshot := sineFrames(frames.DefaultCapacity, 440, testSampleRate, 0.5)

	// Warm-up call so the first bar layout does not count.
	a.Analyze(snapshot, DefaultNumBars)
	allocs := testing.AllocsPerRun(100, func() {
		a.Analyze(snapshot, DefaultNumBars)
	})

	if allocs > 0 {
		t.Errorf("Expected zero allocations in Analyze hot path, got %.1f", allocs)
	}
}

func TestFrequencyForBinZeroAllocs(t *testing.T) {
	a := newTestAnalyzer(t, nil)

	allocs := testing.AllocsPerRun(100, func() {
		_ = a.FrequencyForBin(0)               // DC component
		_ = a.FrequencyForBin(10)              // Low frequency
		_ = a.FrequencyForBin(testFFTSize / 4) // Mid frequency
	})

	if allocs > 0 {
		t.Errorf("Expected zero allocations in FrequencyForBin, got %.1f", allocs)
	}
}

func BenchmarkAnalyze(b *testing.B) {
	a := newTestAnalyzer(b, nil)
	snapshot := sineFrames(frames.DefaultCapacity, 440, testSampleRate, 0.5)

	b.ReportAllocs()

	for b.Loop() {
		a.Analyze(snapshot, DefaultNumBars)
	}
}

// rawBarsForTest recomputes the unsmoothed bar heights of the latest spectrum.
func (a *Analyzer) rawBarsForTest(numBars int) []float64 {
	half := len(a.spectrum)
	raw := make([]float64, numBars)
	for i := range raw {
		lo := i * half / numBars
		hi := (i + 1) * half / numBars
		raw[i] = a.spectrum[lo]
		for _, v := range a.spectrum[lo+1 : hi] {
			raw[i] = max(raw[i], v)
		}
	}
	return raw
}
