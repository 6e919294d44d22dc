// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"specviz/internal/frames"
	applog "specviz/internal/log"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrAlreadyRecording is returned when a recording is started twice.
var ErrAlreadyRecording = errors.New("already recording")

// recorderQueueDepth is the number of batches buffered between the audio
// thread and the encoder goroutine.
const recorderQueueDepth = 32

// Recorder writes batches of frames to a stereo WAV file. Write is called
// from the audio thread: it copies into a pre-allocated buffer and hands it
// to an encoder goroutine, dropping the batch when all buffers are in use.
type Recorder struct {
	path     string
	file     *os.File
	encoder  *wav.Encoder
	bitDepth int
	maxBatch int

	free  chan []frames.Frame // Buffers available to Write.
	queue chan []frames.Frame // Filled buffers waiting for the encoder.
	stop  chan struct{}
	wg    sync.WaitGroup

	active  atomic.Bool
	written atomic.Int64 // Frames encoded.
	dropped atomic.Int64 // Frames dropped because the queue was full.

	sampleBuf *audio.IntBuffer // Reusable buffer for format conversion.
	err       error            // First encoder error, read after wg.Wait.
	closeOnce sync.Once
	closeErr  error
}

// NewRecorder creates path and starts the encoder goroutine. maxBatch is the
// largest batch Write accepts without truncation.
func NewRecorder(path string, sampleRate, bitDepth, maxBatch int) (*Recorder, error) {
	if bitDepth != 16 && bitDepth != 24 {
		return nil, fmt.Errorf("unsupported recording bit depth %d", bitDepth)
	}
	if maxBatch < 1 {
		maxBatch = 1
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	r := &Recorder{
		path:     path,
		file:     file,
		encoder:  wav.NewEncoder(file, sampleRate, bitDepth, 2, 1),
		bitDepth: bitDepth,
		maxBatch: maxBatch,
		free:     make(chan []frames.Frame, recorderQueueDepth),
		queue:    make(chan []frames.Frame, recorderQueueDepth),
		stop:     make(chan struct{}),
		sampleBuf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: 2,
				SampleRate:  sampleRate,
			},
			Data:           make([]int, 2*maxBatch),
			SourceBitDepth: bitDepth,
		},
	}
	for range recorderQueueDepth {
		r.free <- make([]frames.Frame, 0, maxBatch)
	}

	r.active.Store(true)
	r.wg.Add(1)
	go r.run()

	applog.Infof("Recording: Writing %d-bit WAV to %s", bitDepth, path)
	return r, nil
}

// Path returns the file being written.
func (r *Recorder) Path() string {
	return r.path
}

// Write queues batch for encoding without blocking. Batches longer than
// maxBatch are truncated.
func (r *Recorder) Write(batch []frames.Frame) {
	if !r.active.Load() || len(batch) == 0 {
		return
	}
	select {
	case buf := <-r.free:
		buf = append(buf[:0], batch[:min(len(batch), r.maxBatch)]...)
		r.queue <- buf
	default:
		r.dropped.Add(int64(len(batch)))
	}
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for {
		select {
		case buf := <-r.queue:
			r.encode(buf)
		case <-r.stop:
			// Drain what the audio thread queued before Close.
			for {
				select {
				case buf := <-r.queue:
					r.encode(buf)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) encode(buf []frames.Frame) {
	defer func() { r.free <- buf[:0] }()
	if r.err != nil {
		return
	}

	scale := float64(int64(1)<<(r.bitDepth-1) - 1)
	data := r.sampleBuf.Data[:2*len(buf)]
	for i, f := range buf {
		data[2*i] = int(math.Round(float64(f.Left) * scale))
		data[2*i+1] = int(math.Round(float64(f.Right) * scale))
	}
	r.sampleBuf.Data = data

	if err := r.encoder.Write(r.sampleBuf); err != nil {
		r.err = err
		applog.Errorf("Recording: Error writing to WAV file: %v", err)
		return
	}
	r.written.Add(int64(len(buf)))
}

// Written returns the number of frames encoded so far.
func (r *Recorder) Written() int64 {
	return r.written.Load()
}

// Dropped returns the number of frames lost to a full queue.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Close flushes queued batches and finalizes the WAV header.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.active.Store(false)
		close(r.stop)
		r.wg.Wait()

		r.closeErr = errors.Join(r.err, r.encoder.Close(), r.file.Close())
		applog.Infof("Recording: Closed %s (%d frames written, %d dropped)", r.path, r.Written(), r.Dropped())
	})
	return r.closeErr
}

// StartRecording records everything the engine hands to its producer into a
// new WAV file at path.
func (e *Engine) StartRecording(path string, bitDepth int) error {
	if e.recorder.Load() != nil {
		return ErrAlreadyRecording
	}

	rec, err := NewRecorder(path, int(e.SampleRate()), bitDepth, max(e.cfg.FramesPerBuffer, 1)*2)
	if err != nil {
		return err
	}
	if !e.recorder.CompareAndSwap(nil, rec) {
		_ = rec.Close()
		_ = os.Remove(path)
		return ErrAlreadyRecording
	}
	return nil
}

// StopRecording finalizes the active recording, if any.
func (e *Engine) StopRecording() error {
	rec := e.recorder.Swap(nil)
	if rec == nil {
		return nil
	}
	return rec.Close()
}

// Recording reports whether a recording is active.
func (e *Engine) Recording() bool {
	return e.recorder.Load() != nil
}

// RecordingPath returns a timestamped WAV path in dir.
func RecordingPath(dir string, now time.Time) string {
	return filepath.Join(dir, "specviz-"+now.Format("20060102-150405")+".wav")
}
