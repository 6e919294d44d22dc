// SPDX-License-Identifier: MIT
package utils

import (
	"errors"
	"math"
	"os"
	"testing"

	"specviz/internal/frames"
)

const (
	testSize       = 1024
	testSampleRate = 44100
	testFrequency  = 440.0 // A4 note
)

var testMagnitudes []float64

func TestMain(m *testing.M) {
	testMagnitudes = make([]float64, testSize)

	// Creates a "hill" with peak at position testSize/4.
	for i := range testMagnitudes {
		testMagnitudes[i] = math.Exp(-0.01 * math.Pow(float64(i-testSize/4), 2))
	}

	os.Exit(m.Run())
}

func TestSineFrames(t *testing.T) {
	tests := []struct {
		name       string
		size       int
		sampleRate float64
		frequency  float64
	}{
		{"A4 Note", 1024, 44100, 440.0},
		{"Middle C", 1024, 44100, 261.63},
		{"High Sample Rate", 1024, 192000, 440.0},
		{"Low Sample Rate", 1024, 8000, 440.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SineFrames(tt.size, tt.sampleRate, tt.frequency, 1)

			if len(result) != tt.size {
				t.Fatalf("SineFrames() size = %d, want %d", len(result), tt.size)
			}
			if result[0].Left != 0 {
				t.Errorf("SineFrames() should start at zero, got %f", result[0].Left)
			}

			// Two zero crossings per cycle.
			samplesPerCycle := tt.sampleRate / tt.frequency
			crossCount := 0
			for i := 1; i < tt.size; i++ {
				if (result[i-1].Left < 0) != (result[i].Left < 0) {
					crossCount++
				}
			}
			expectedCrossings := float64(tt.size) / (samplesPerCycle / 2)
			tolerance := 0.2 * expectedCrossings

			if math.Abs(float64(crossCount)-expectedCrossings) > tolerance {
				t.Errorf("SineFrames() zero crossings = %d, expected approximately %.1f±%.1f",
					crossCount, expectedCrossings, tolerance)
			}
		})
	}
}

func TestCosineFrames(t *testing.T) {
	result := CosineFrames(4, 4, 1, 0.5)
	want := []float32{0.5, 0, -0.5, 0}
	for i, w := range want {
		if math.Abs(float64(result[i].Left-w)) > 1e-6 || result[i].Left != result[i].Right {
			t.Errorf("CosineFrames()[%d] = %+v, want %f on both channels", i, result[i], w)
		}
	}
}

func TestComplexWaveFrames(t *testing.T) {
	result := ComplexWaveFrames(testSize, testSampleRate)
	if len(result) != testSize {
		t.Fatalf("ComplexWaveFrames() size = %d, want %d", len(result), testSize)
	}
	if peak := frames.Peak(result); peak <= 0 || peak > 0.9 {
		t.Errorf("ComplexWaveFrames() peak = %f, want (0, 0.9]", peak)
	}
}

func TestImpulseFrames(t *testing.T) {
	result := ImpulseFrames(8, 3)
	for i, f := range result {
		want := float32(0)
		if i == 3 {
			want = 1
		}
		if f.Left != want || f.Right != want {
			t.Errorf("ImpulseFrames()[%d] = %+v, want %f", i, f, want)
		}
	}

	if frames.Peak(ImpulseFrames(8, 8)) != 0 {
		t.Error("ImpulseFrames() out of range index should give silence")
	}
}

func TestBinFrequency(t *testing.T) {
	if got := BinFrequency(64, 1024, 44100); got != 2756.25 {
		t.Errorf("BinFrequency() = %f, want 2756.25", got)
	}
}

func TestFindPeakBin(t *testing.T) {
	tests := []struct {
		name     string
		mags     []float64
		start    int
		end      int
		expected int
	}{
		{"Full Range", testMagnitudes, 0, testSize - 1, testSize / 4},
		{"Partial Range Start", testMagnitudes, testSize / 8, testSize - 1, testSize / 4},
		{"Partial Range End", testMagnitudes, 0, testSize / 3, testSize / 4},
		{"Negative Start", testMagnitudes, -10, testSize - 1, testSize / 4},
		{"Out of Range End", testMagnitudes, 0, testSize * 2, testSize / 4},
		{"Empty Slice", []float64{}, 0, 10, 0},
		{"Single Value", []float64{1.0}, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FindPeakBin(tt.mags, tt.start, tt.end)
			if result != tt.expected {
				t.Errorf("FindPeakBin() = %d, want %d", result, tt.expected)
			}
		})
	}

	allocs := testing.AllocsPerRun(100, func() {
		FindPeakBin(testMagnitudes, 0, len(testMagnitudes)-1)
	})

	if allocs > 0 {
		t.Errorf("FindPeakBin allocated memory: got %.1f allocs, want 0", allocs)
	}
}

func TestMockTransport(t *testing.T) {
	mt := &MockTransport{}

	if err := mt.Send("a"); err != nil {
		t.Fatalf("MockTransport.Send() error = %v", err)
	}
	mt.Err = errors.New("boom")
	if err := mt.Send("b"); err == nil {
		t.Error("MockTransport.Send() should return Err")
	}

	msgs := mt.Messages()
	if len(msgs) != 1 || msgs[0] != "a" {
		t.Errorf("MockTransport.Messages() = %v, want [a]", msgs)
	}

	if mt.Closed() {
		t.Error("MockTransport should not start closed")
	}
	mt.Close()
	if !mt.Closed() {
		t.Error("MockTransport.Close() not recorded")
	}
}

func BenchmarkSineFrames(b *testing.B) {
	benchmarks := []struct {
		name string
		size int
	}{
		{"Small", 64},
		{"Standard", 1024},
		{"Large", 8192},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			b.ReportAllocs()

			for b.Loop() {
				SineFrames(bm.size, testSampleRate, testFrequency, 1)
			}
		})
	}
}

func BenchmarkFindPeakBin(b *testing.B) {
	mags := make([]float64, 8192)
	for i := range mags {
		mags[i] = math.Exp(-0.01 * math.Pow(float64(i-4096), 2))
	}

	b.ReportAllocs()

	for b.Loop() {
		FindPeakBin(mags, 0, len(mags)-1)
	}
}
