// SPDX-License-Identifier: MIT
/*
Package bitint provides the power-of-two helpers used to size FFT windows
and to validate the analysis configuration.

Design Principles:
- Zero Allocations: all operations use stack memory only
- O(1): every helper is a handful of bit operations
- Real-Time Safe: no locks, syscalls, or blocking operations

Usage:

	// Round a requested window length up to a valid FFT size
	fftSize := bitint.NextPowerOfTwo(1000) // Returns 1024

	// Number of radix-2 stages for a valid FFT size
	stages, ok := bitint.Log2(fftSize) // Returns 10, true

----------------------------------------------------------------------

NextPowerOfTwo subtracts one before taking the bit length so that
exact powers of two are preserved:

	size = 8, size-1 = 7 (0111), bits.Len(7) = 3, 1<<3 = 8
	without the subtraction bits.Len(8) = 4 and 1<<4 = 16
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size.
//
// Examples:
//
//	Input  Output
//	4      4
//	5      8
//	0      1
//	-1     1
func NextPowerOfTwo(size int) int {
	if size <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2.
// Powers of 2 have exactly one bit set, so n&(n-1) clears it to zero.
//
//	Input  Output  Binary
//	8      true    1000 & 0111 = 0000
//	7      false   0111 & 0110 = 0110
//	0      false   Not positive
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// Log2 returns the base-2 logarithm of n when n is a power of two.
// The second result is false for any other input.
func Log2(n int) (int, bool) {
	if !IsPowerOfTwo(n) {
		return 0, false
	}
	return bits.TrailingZeros(uint(n)), true
}
