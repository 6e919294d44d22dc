// SPDX-License-Identifier: MIT
package decode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// --- MP3 decoder ---

// decodeMP3 reads go-mp3's 16-bit little-endian stereo output.
func decodeMP3(path string) ([]float32, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, 0, 0, err
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, 0, 0, err
	}

	samples := make([]float32, len(raw)/2)
	for i := range samples {
		samples[i] = float32(int16(binary.LittleEndian.Uint16(raw[2*i:]))) / 32768
	}
	return samples, 2, dec.SampleRate(), nil
}

// --- WAV decoder ---

func decodeWAV(path string) ([]float32, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, 0, errors.New("invalid WAV file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth < 8 || bitDepth > 32 {
		return nil, 0, 0, fmt.Errorf("unsupported WAV bit depth %d", bitDepth)
	}
	scale := float32(int64(1) << (bitDepth - 1))

	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		if bitDepth == 8 {
			// 8-bit WAV is unsigned
			v -= 128
		}
		samples[i] = clamp(float32(v) / scale)
	}
	return samples, int(dec.NumChans), int(dec.SampleRate), nil
}

// --- FLAC decoder ---

func decodeFLAC(path string) ([]float32, int, int, error) {
	stream, err := flac.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	scale := float32(int64(1) << (info.BitsPerSample - 1))
	samples := make([]float32, 0, int(info.NSamples)*channels)

	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, 0, err
		}
		n := int(frame.Subframes[0].NSamples)
		for i := range n {
			for ch := range channels {
				samples = append(samples, clamp(float32(frame.Subframes[ch].Samples[i])/scale))
			}
		}
	}
	return samples, channels, int(info.SampleRate), nil
}

// --- OGG Vorbis decoder ---

func decodeOGG(path string) ([]float32, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()

	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, 0, 0, err
	}

	channels := reader.Channels()
	samples := make([]float32, 0, max(reader.Length(), 0)*int64(channels))
	chunk := make([]float32, 4096*channels)
	for {
		n, err := reader.Read(chunk)
		for _, s := range chunk[:n] {
			samples = append(samples, clamp(s))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, 0, err
		}
	}
	return samples, channels, reader.SampleRate(), nil
}
