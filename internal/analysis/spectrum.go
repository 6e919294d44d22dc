// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"

	"specviz/internal/frames"
	applog "specviz/internal/log"
	"specviz/pkg/bitint"
)

// Contract constants shared with the audio and rendering collaborators.
const (
	DefaultFFTSize         = 1024
	DefaultNumBars         = 64
	DefaultSmoothingFactor = 0.15
	DefaultSampleRate      = 44100.0
	DefaultFramesPerSecond = 60
)

// Smoothing is the temporal blend policy applied to every bar:
//
//	smoothed = prev*(1-α) + raw*α
//
// where α is Rise when the raw height is above the previous smoothed height
// and Fall otherwise. Rise == Fall gives symmetric smoothing.
type Smoothing struct {
	Rise float64
	Fall float64
}

// DefaultSmoothing returns the symmetric policy with α = 0.15.
func DefaultSmoothing() Smoothing {
	return Smoothing{Rise: DefaultSmoothingFactor, Fall: DefaultSmoothingFactor}
}

// Validate checks that both factors are in (0, 1].
func (s Smoothing) Validate() error {
	if s.Rise <= 0 || s.Rise > 1 {
		return fmt.Errorf("rise smoothing factor must be in (0, 1], got %g", s.Rise)
	}
	if s.Fall <= 0 || s.Fall > 1 {
		return fmt.Errorf("fall smoothing factor must be in (0, 1], got %g", s.Fall)
	}
	return nil
}

func (s Smoothing) blend(prev, raw float64) float64 {
	alpha := s.Fall
	if raw > prev {
		alpha = s.Rise
	}
	return prev*(1-alpha) + raw*alpha
}

// Options configures an Analyzer.
type Options struct {
	FFTSize    int        // Window length F, a power of two.
	Window     WindowFunc // Window applied before the transform.
	Backend    FFTBackend // Transform implementation.
	Smoothing  Smoothing  // Bar smoothing policy.
	SampleRate float64    // Only used to label bins with frequencies.
}

// DefaultOptions returns a 1024-point Hann analysis with the recursive FFT.
func DefaultOptions() Options {
	return Options{
		FFTSize:    DefaultFFTSize,
		Window:     Hann,
		Backend:    BackendRecursive,
		Smoothing:  DefaultSmoothing(),
		SampleRate: DefaultSampleRate,
	}
}

// Analyzer turns a ring buffer snapshot into smoothed per-bar dB levels.
// It owns all of its working arrays, allocates nothing per call and is not
// safe for concurrent use; it is driven from the render tick only.
type Analyzer struct {
	fftSize    int
	sampleRate float64
	smoothing  Smoothing
	transform  Transform

	window   []float64    // Pre-calculated window coefficients.
	input    []float64    // Windowed left-channel samples.
	output   []complex128 // Full transform output.
	spectrum []float64    // dB level of the first F/2 bins.
	prev     []float64    // Smoothed heights from the previous call.
	bars     []float64    // Returned to the caller.
	numBars  int          // Bar layout prev belongs to, 0 before the first call.
}

var _ SpectrumProvider = (*Analyzer)(nil)

// NewAnalyzer validates opts and pre-allocates the analysis workspace.
func NewAnalyzer(opts Options) (*Analyzer, error) {
	if !bitint.IsPowerOfTwo(opts.FFTSize) || opts.FFTSize < 2 {
		return nil, fmt.Errorf("fft size must be a power of 2 >= 2, got %d", opts.FFTSize)
	}
	if err := opts.Smoothing.Validate(); err != nil {
		return nil, err
	}
	if opts.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", opts.SampleRate)
	}
	transform, err := NewTransform(opts.Backend, opts.FFTSize)
	if err != nil {
		return nil, err
	}

	half := opts.FFTSize / 2
	applog.Infof("Analysis: Initializing Analyzer (Size: %d, Window: %v, Backend: %v, Rise: %.2f, Fall: %.2f)",
		opts.FFTSize, opts.Window, opts.Backend, opts.Smoothing.Rise, opts.Smoothing.Fall)

	return &Analyzer{
		fftSize:    opts.FFTSize,
		sampleRate: opts.SampleRate,
		smoothing:  opts.Smoothing,
		transform:  transform,
		window:     NewWindow(opts.FFTSize, opts.Window),
		input:      make([]float64, opts.FFTSize),
		output:     make([]complex128, opts.FFTSize),
		spectrum:   make([]float64, half),
		prev:       make([]float64, half),
		bars:       make([]float64, half),
	}, nil
}

// MaxBars returns F/2, the largest bar count Analyze accepts.
func (a *Analyzer) MaxBars() int {
	return a.fftSize / 2
}

// Analyze runs one analysis pass over snapshot and returns numBars smoothed
// heights in dB. Only the left channel of the first F frames is used; shorter
// snapshots are zero-padded. The returned slice is owned by the Analyzer and
// is overwritten by the next call.
//
// numBars outside [1, F/2] is a configuration error and panics. Calling with
// a different numBars than the previous call restarts smoothing from zero.
func (a *Analyzer) Analyze(snapshot []frames.Frame, numBars int) []float64 {
	if numBars < 1 || numBars > a.MaxBars() {
		panic(fmt.Sprintf("analysis: numBars must be in [1, %d], got %d", a.MaxBars(), numBars))
	}
	if numBars != a.numBars {
		clear(a.prev)
		a.numBars = numBars
	}

	// 1. Extract + 2. Window.
	n := min(len(snapshot), a.fftSize)
	for i := range n {
		a.input[i] = float64(snapshot[i].Left) * a.window[i]
	}
	clear(a.input[n:])

	// 3. Transform.
	a.transform.Transform(a.output, a.input)

	// 4. Magnitude -> dB.
	for k := range a.spectrum {
		a.spectrum[k] = Decibels(Magnitude(a.output[k]))
	}

	// 5. Bucket (max) + 6. Smooth.
	half := len(a.spectrum)
	bars := a.bars[:numBars]
	for i := range bars {
		lo := i * half / numBars
		hi := (i + 1) * half / numBars
		raw := a.spectrum[lo]
		for _, v := range a.spectrum[lo+1 : hi] {
			raw = max(raw, v)
		}
		bars[i] = a.smoothing.blend(a.prev[i], raw)
		a.prev[i] = bars[i]
	}
	return bars
}

// AnalyzeInto runs Analyze and copies the result into dst, growing it if
// needed, for callers that keep results across calls.
func (a *Analyzer) AnalyzeInto(dst []float64, snapshot []frames.Frame, numBars int) []float64 {
	bars := a.Analyze(snapshot, numBars)
	if cap(dst) < len(bars) {
		dst = make([]float64, len(bars))
	}
	dst = dst[:len(bars)]
	copy(dst, bars)
	return dst
}

// Reset clears the smoothing history, as at session start.
func (a *Analyzer) Reset() {
	clear(a.prev)
	a.numBars = 0
}

// Spectrum returns the dB levels of the first F/2 bins from the latest call.
// The slice is owned by the Analyzer and must not be modified.
func (a *Analyzer) Spectrum() []float64 {
	return a.spectrum
}

// FFTSize returns F.
func (a *Analyzer) FFTSize() int {
	return a.fftSize
}

// SampleRate returns the sample rate used to label bins.
func (a *Analyzer) SampleRate() float64 {
	return a.sampleRate
}

// FrequencyForBin returns the centre frequency (Hz) of bin, or 0 when bin is
// outside [0, F/2).
func (a *Analyzer) FrequencyForBin(bin int) float64 {
	if bin < 0 || bin >= len(a.spectrum) {
		return 0.0
	}
	return float64(bin) * a.sampleRate / float64(a.fftSize)
}

// BarFrequencyRange returns the frequency span [lowHz, highHz) covered by
// bar i of numBars.
func (a *Analyzer) BarFrequencyRange(i, numBars int) (lowHz, highHz float64) {
	half := a.fftSize / 2
	if numBars < 1 || numBars > half || i < 0 || i >= numBars {
		return 0, 0
	}
	resolution := a.sampleRate / float64(a.fftSize)
	lo := i * half / numBars
	hi := (i + 1) * half / numBars
	return float64(lo) * resolution, float64(hi) * resolution
}
