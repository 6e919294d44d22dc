// SPDX-License-Identifier: MIT
package decode

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"specviz/internal/frames"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWAV(t *testing.T, channels, sampleRate int, data []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		SourceBitDepth: 16,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	return path
}

func TestOpenStereoWAV(t *testing.T) {
	path := writeWAV(t, 2, 8000, []int{16384, -16384, 0, 32767, -32768, 8192})

	track, err := Open(path)
	require.NoError(t, err)

	assert.Equal(t, 8000, track.SampleRate)
	require.Len(t, track.Frames, 3)
	assert.InDelta(t, 0.5, track.Frames[0].Left, 1e-6)
	assert.InDelta(t, -0.5, track.Frames[0].Right, 1e-6)
	assert.InDelta(t, 0.0, track.Frames[1].Left, 1e-6)
	assert.InDelta(t, 32767.0/32768, track.Frames[1].Right, 1e-6)
	assert.InDelta(t, -1.0, track.Frames[2].Left, 1e-6)
	assert.InDelta(t, 0.25, track.Frames[2].Right, 1e-6)
}

func TestOpenMonoWAVDuplicatesChannel(t *testing.T) {
	path := writeWAV(t, 1, 4000, []int{16384, -8192})

	track, err := Open(path)
	require.NoError(t, err)
	require.Len(t, track.Frames, 2)
	for _, f := range track.Frames {
		assert.Equal(t, f.Left, f.Right)
	}
	assert.InDelta(t, -0.25, track.Frames[1].Left, 1e-6)
}

func TestOpenUnsupported(t *testing.T) {
	_, err := Open("song.aiff")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.False(t, Supported("song.aiff"))
	assert.True(t, Supported("SONG.MP3"))
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnsupportedFormat)
}

func TestToStereoDropsExtraChannels(t *testing.T) {
	got := toStereo([]float32{1, 2, 3, 4, 5, 6, 7}, 3)
	require.Len(t, got, 2)
	assert.Equal(t, float32(1), got[0].Left)
	assert.Equal(t, float32(2), got[0].Right)
	assert.Equal(t, float32(4), got[1].Left)
	assert.Equal(t, float32(5), got[1].Right)
}

func TestTrackTiming(t *testing.T) {
	track := &Track{SampleRate: 1000, Frames: make([]frames.Frame, 2500)}
	assert.Equal(t, 2500*time.Millisecond, track.Duration())
	assert.Equal(t, 1200, track.FrameAt(1200*time.Millisecond))
	assert.Equal(t, 0, track.FrameAt(-time.Second))
	assert.Equal(t, 2500, track.FrameAt(time.Hour))
	assert.Equal(t, 500*time.Millisecond, track.TimeAt(500))
}
