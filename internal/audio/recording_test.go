// SPDX-License-Identifier: MIT
package audio

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"specviz/internal/decode"
	"specviz/internal/frames"
	"specviz/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderRoundTrip(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	path := filepath.Join(t.TempDir(), "take.wav")
	rec, err := NewRecorder(path, testSampleRate, 16, 4)
	require.NoError(t, err)

	rec.Write([]frames.Frame{{Left: 0.5, Right: -0.5}, {Left: 0.25, Right: 0}})
	rec.Write([]frames.Frame{{Left: -1, Right: 1}})
	require.NoError(t, rec.Close())
	require.NoError(t, rec.Close(), "Close is idempotent")

	assert.Equal(t, int64(3), rec.Written())
	assert.Zero(t, rec.Dropped())

	track, err := decode.Open(path)
	require.NoError(t, err)
	assert.Equal(t, testSampleRate, track.SampleRate)
	require.Len(t, track.Frames, 3)

	const tol = 1.0 / 16384
	assert.InDelta(t, 0.5, track.Frames[0].Left, tol)
	assert.InDelta(t, -0.5, track.Frames[0].Right, tol)
	assert.InDelta(t, 0.25, track.Frames[1].Left, tol)
	assert.InDelta(t, -1.0, track.Frames[2].Left, tol)
	assert.InDelta(t, 1.0, track.Frames[2].Right, tol)
}

func TestRecorderTruncatesLongBatches(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	rec, err := NewRecorder(filepath.Join(t.TempDir(), "short.wav"), testSampleRate, 24, 2)
	require.NoError(t, err)

	rec.Write(make([]frames.Frame, 5))
	require.NoError(t, rec.Close())
	assert.Equal(t, int64(2), rec.Written())
}

func TestRecorderIgnoresWritesAfterClose(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	rec, err := NewRecorder(filepath.Join(t.TempDir(), "closed.wav"), testSampleRate, 16, 8)
	require.NoError(t, err)
	require.NoError(t, rec.Close())

	rec.Write(make([]frames.Frame, 3))
	assert.Zero(t, rec.Written())
	assert.Zero(t, rec.Dropped())
}

func TestRecordingErrorCases(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		desc     string
		path     string
		bitDepth int
	}{
		{"Invalid path", filepath.Join(dir, "missing", "file.wav"), 16},
		{"Invalid bit depth", filepath.Join(dir, "file.wav"), 12},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			engine := newEngine(testAudioConfig(), ModeCapture, nil)
			if err := engine.StartRecording(tt.path, tt.bitDepth); err == nil {
				t.Error("Expected error but got none")
			}
			if engine.Recording() {
				t.Error("Engine should not be recording after a failed start")
			}
		})
	}
}

func TestEngineRecordingLifecycle(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	path := filepath.Join(t.TempDir(), "engine.wav")
	c := &collector{}
	engine := newEngine(testAudioConfig(), ModeCapture, c.push)

	require.NoError(t, engine.StartRecording(path, 16))
	assert.True(t, engine.Recording())
	assert.ErrorIs(t, engine.StartRecording(path, 16), ErrAlreadyRecording)

	engine.processInputStream([]float32{0.1, 0.2, 0.3, 0.4})

	// Close stops the recording; a second stop is a no-op.
	require.NoError(t, engine.Close())
	assert.False(t, engine.Recording())
	assert.NoError(t, engine.StopRecording())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(44))

	track, err := decode.Open(path)
	require.NoError(t, err)
	assert.Len(t, track.Frames, 2)
}

func TestRecordingPath(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	assert.Equal(t, filepath.Join("out", "specviz-20240309-140507.wav"), RecordingPath("out", now))
}

func TestRecordingNoAllocsHotPath(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	rec, err := NewRecorder(filepath.Join(t.TempDir(), "alloc.wav"), testSampleRate, 16, testFrameSize)
	require.NoError(t, err)
	defer rec.Close()

	batch := make([]frames.Frame, testFrameSize)
	allocs := testing.AllocsPerRun(100, func() {
		rec.Write(batch)
	})

	if allocs > 0 {
		t.Errorf("Recording hot path allocated memory: got %.1f allocs, want 0", allocs)
	}
}

func BenchmarkRecorderWrite(b *testing.B) {
	rec, err := NewRecorder(filepath.Join(b.TempDir(), "bench.wav"), testSampleRate, 16, testFrameSize)
	if err != nil {
		b.Fatal(err)
	}
	defer rec.Close()
	batch := make([]frames.Frame, testFrameSize)

	b.ReportAllocs()

	for b.Loop() {
		rec.Write(batch)
	}
}
