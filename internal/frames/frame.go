// SPDX-License-Identifier: MIT
package frames

// Frame is one stereo sample as delivered by the decoder: interleaved
// 32-bit float, left then right.
type Frame struct {
	Left  float32
	Right float32
}

// FromInterleaved converts stereo interleaved samples into dst and returns
// the filled prefix. dst must hold len(samples)/2 frames; a trailing odd
// sample is ignored. No allocations.
func FromInterleaved(dst []Frame, samples []float32) []Frame {
	n := len(samples) / 2
	if n > len(dst) {
		n = len(dst)
	}
	for i := range n {
		dst[i] = Frame{Left: samples[2*i], Right: samples[2*i+1]}
	}
	return dst[:n]
}

// Interleave writes frames into dst as stereo interleaved samples and
// returns the number of frames written.
func Interleave(dst []float32, src []Frame) int {
	n := len(dst) / 2
	if n > len(src) {
		n = len(src)
	}
	for i := range n {
		dst[2*i] = src[i].Left
		dst[2*i+1] = src[i].Right
	}
	return n
}

// Peak returns the largest absolute sample value over both channels.
func Peak(batch []Frame) float32 {
	var peak float32
	for _, f := range batch {
		l, r := f.Left, f.Right
		if l < 0 {
			l = -l
		}
		if r < 0 {
			r = -r
		}
		peak = max(peak, l, r)
	}
	return peak
}
