// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
)

// Epsilon keeps Decibels finite for silent bins: 20*log10(1e-6) = -120 dB.
const Epsilon = 1e-6

// SilenceDB is the level reported for a bin with zero magnitude.
var SilenceDB = Decibels(0)

// Magnitude returns sqrt(re² + im²).
func Magnitude(c complex128) float64 {
	re, im := real(c), imag(c)
	return math.Sqrt(re*re + im*im)
}

// Decibels converts a linear magnitude to 20*log10(m + Epsilon).
func Decibels(m float64) float64 {
	return 20 * math.Log10(m+Epsilon)
}

// twiddleTable returns exp(-2πi·k/size) for k in [0, size/2).
func twiddleTable(size int) []complex128 {
	table := make([]complex128, size/2)
	for k := range table {
		angle := -2 * math.Pi * float64(k) / float64(size)
		table[k] = complex(math.Cos(angle), math.Sin(angle))
	}
	return table
}
