// SPDX-License-Identifier: MIT
package analysis

// FrequencyBand names a frequency range.
type FrequencyBand struct {
	Name   string
	LowHz  float64
	HighHz float64
}

// BandLevel is the level of one named band for the current frame.
type BandLevel struct {
	Name  string  `json:"name"`
	Level float64 `json:"level"` // Loudest bin in the band, dB.
}

// DefaultBands are the conventional mixing bands. The treble band is open
// ended and stops at the Nyquist frequency of the provider.
var DefaultBands = []FrequencyBand{
	{Name: "sub", LowHz: 20, HighHz: 60},
	{Name: "bass", LowHz: 60, HighHz: 250},
	{Name: "lowMid", LowHz: 250, HighHz: 500},
	{Name: "mid", LowHz: 500, HighHz: 2000},
	{Name: "highMid", LowHz: 2000, HighHz: 4000},
	{Name: "treble", LowHz: 4000, HighHz: 1e9},
}

// BandLevels reduces a spectrum to the level of each named band.
type BandLevels struct {
	bands  []FrequencyBand
	levels []BandLevel
}

// NewBandLevels creates a reducer for bands; nil selects DefaultBands.
func NewBandLevels(bands []FrequencyBand) *BandLevels {
	if bands == nil {
		bands = DefaultBands
	}
	levels := make([]BandLevel, len(bands))
	for i, b := range bands {
		levels[i].Name = b.Name
	}
	return &BandLevels{bands: bands, levels: levels}
}

// Compute returns the loudest bin of every band. A band that covers no bin
// at the provider's resolution reports SilenceDB. The returned slice is
// reused by the next call.
func (b *BandLevels) Compute(p SpectrumProvider) []BandLevel {
	for i := range b.levels {
		b.levels[i].Level = SilenceDB
	}

	spectrum := p.Spectrum()
	for bin, level := range spectrum {
		freq := p.FrequencyForBin(bin)
		for i, band := range b.bands {
			if freq >= band.LowHz && freq < band.HighHz {
				b.levels[i].Level = max(b.levels[i].Level, level)
				break
			}
		}
	}
	return b.levels
}
