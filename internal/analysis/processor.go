// SPDX-License-Identifier: MIT
package analysis

import "specviz/internal/frames"

// SpectrumProvider is implemented by components that expose the latest
// spectrum. It decouples consumers such as BandLevels from the Analyzer.
type SpectrumProvider interface {
	Spectrum() []float64             // dB level of the first FFTSize()/2 bins.
	FrequencyForBin(bin int) float64 // Centre frequency (Hz) of a bin.
	FFTSize() int                    // Number of points of the transform.
	SampleRate() float64             // Sample rate used to label bins.
}

// FrameProcessor analyzes a snapshot of recent frames. Implementations run on
// the render tick and should not allocate.
type FrameProcessor interface {
	Process(snapshot []frames.Frame)
}
