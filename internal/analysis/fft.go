// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math/cmplx"
	"strings"

	"specviz/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
)

// FFTBackend selects the implementation behind a Transform.
type FFTBackend int

const (
	// BackendRecursive is the recursive radix-2 decimation-in-time FFT.
	BackendRecursive FFTBackend = iota
	// BackendGonum delegates to gonum's real FFT.
	BackendGonum
)

func (b FFTBackend) String() string {
	switch b {
	case BackendRecursive:
		return "recursive"
	case BackendGonum:
		return "gonum"
	default:
		return fmt.Sprintf("FFTBackend(%d)", int(b))
	}
}

// ParseFFTBackend converts a backend name (case-insensitive) to an FFTBackend.
func ParseFFTBackend(name string) (FFTBackend, error) {
	switch strings.ToLower(name) {
	case "", "recursive", "radix2":
		return BackendRecursive, nil
	case "gonum":
		return BackendGonum, nil
	default:
		return BackendRecursive, fmt.Errorf("unknown FFT backend: '%s'", name)
	}
}

// Transform computes the full discrete Fourier transform of a real sequence.
// len(src) must equal Size() and len(dst) must be at least Size().
type Transform interface {
	Size() int
	Transform(dst []complex128, src []float64)
}

// NewTransform builds the transform for backend. size must be a power of two.
func NewTransform(backend FFTBackend, size int) (Transform, error) {
	if !bitint.IsPowerOfTwo(size) || size < 2 {
		return nil, fmt.Errorf("fft size must be a power of 2 >= 2, got %d", size)
	}
	switch backend {
	case BackendRecursive:
		return NewRecursiveFFT(size), nil
	case BackendGonum:
		return NewGonumFFT(size), nil
	default:
		return nil, fmt.Errorf("unsupported FFT backend %v", backend)
	}
}

// strided is a read-only view over a backing array: element i lives at
// data[offset+i*stride]. Splitting into even and odd halves only doubles the
// stride, so the recursion never copies the input.
type strided struct {
	data   []float64
	offset int
	stride int
}

func (v strided) at(i int) float64 {
	return v.data[v.offset+i*v.stride]
}

func (v strided) even() strided {
	return strided{data: v.data, offset: v.offset, stride: 2 * v.stride}
}

func (v strided) odd() strided {
	return strided{data: v.data, offset: v.offset + v.stride, stride: 2 * v.stride}
}

// RecursiveFFT is a recursive radix-2 decimation-in-time FFT with a
// pre-computed twiddle table. It performs no allocations per transform.
type RecursiveFFT struct {
	size     int
	twiddles []complex128
}

var _ Transform = (*RecursiveFFT)(nil)

// NewRecursiveFFT panics if size is not a power of two; the recursion is
// undefined for any other length.
func NewRecursiveFFT(size int) *RecursiveFFT {
	if !bitint.IsPowerOfTwo(size) {
		panic(fmt.Sprintf("analysis: FFT size must be a power of 2, got %d", size))
	}
	return &RecursiveFFT{
		size:     size,
		twiddles: twiddleTable(size),
	}
}

// Size returns the transform length.
func (f *RecursiveFFT) Size() int {
	return f.size
}

// Transform writes the DFT of src into dst[:Size()].
func (f *RecursiveFFT) Transform(dst []complex128, src []float64) {
	if len(src) != f.size || len(dst) < f.size {
		panic(fmt.Sprintf("analysis: transform of size %d given src %d, dst %d", f.size, len(src), len(dst)))
	}
	f.transform(dst[:f.size], strided{data: src, stride: 1})
}

func (f *RecursiveFFT) transform(out []complex128, in strided) {
	n := len(out)
	if n == 1 {
		out[0] = complex(in.at(0), 0)
		return
	}

	half := n / 2
	f.transform(out[:half], in.even())
	f.transform(out[half:], in.odd())

	// exp(-2πi·k/n) == twiddles[k*(size/n)]
	step := f.size / n
	for k := range half {
		t := f.twiddles[k*step] * out[k+half]
		e := out[k]
		out[k] = e + t
		out[k+half] = e - t
	}
}

// GonumFFT adapts gonum's real FFT to the Transform interface. gonum returns
// only the N/2+1 non-redundant coefficients; the upper half is restored from
// conjugate symmetry.
type GonumFFT struct {
	size  int
	fft   *fourier.FFT
	coeff []complex128
}

var _ Transform = (*GonumFFT)(nil)

// NewGonumFFT pre-allocates a gonum FFT of the given size.
func NewGonumFFT(size int) *GonumFFT {
	return &GonumFFT{
		size:  size,
		fft:   fourier.NewFFT(size),
		coeff: make([]complex128, size/2+1),
	}
}

// Size returns the transform length.
func (g *GonumFFT) Size() int {
	return g.size
}

// Transform writes the DFT of src into dst[:Size()].
func (g *GonumFFT) Transform(dst []complex128, src []float64) {
	if len(src) != g.size || len(dst) < g.size {
		panic(fmt.Sprintf("analysis: transform of size %d given src %d, dst %d", g.size, len(src), len(dst)))
	}
	g.fft.Coefficients(g.coeff, src)
	copy(dst, g.coeff)
	for k := 1; k < g.size/2; k++ {
		dst[g.size-k] = cmplx.Conj(g.coeff[k])
	}
}
