// SPDX-License-Identifier: MIT
/*
Package audio drives the sound device and feeds the visualizer:
- Playback of a decoded track through a PortAudio output stream
- Live capture from a PortAudio input stream
- Noise gate on captured audio
- WAV recording of everything the visualizer sees

The stream callback is the producer of the frame ring buffer. It runs on the
audio thread and must not block, allocate or log:
- Uses atomic operations for transport state (cursor, pause)
- Pre-allocates buffers to avoid GC in hot path
- Locks OS thread during audio processing
*/
package audio

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"specviz/internal/config"
	"specviz/internal/decode"
	"specviz/internal/frames"
	applog "specviz/internal/log"

	"github.com/gordonklaus/portaudio"
)

// Producer receives every batch of frames the engine plays or captures.
// It is called on the audio thread; the batch is only valid for the call.
type Producer func(batch []frames.Frame)

// Mode selects the stream direction of an Engine.
type Mode int

const (
	ModePlayback Mode = iota
	ModeCapture
)

func (m Mode) String() string {
	if m == ModeCapture {
		return "capture"
	}
	return "playback"
}

// ErrNoTrack is returned by playback controls of a capture engine.
var ErrNoTrack = errors.New("no track loaded")

type Engine struct {
	// Core configuration and state.
	cfg      config.AudioConfig
	mode     Mode
	producer Producer

	// Stream handling.
	device  *portaudio.DeviceInfo
	latency time.Duration
	stream  *portaudio.Stream
	batch   []frames.Frame // Pre-allocated conversion buffer for capture.

	// Playback transport.
	track    *decode.Track
	cursor   atomic.Int64 // Next frame to play.
	playing  atomic.Bool
	done     chan struct{}
	doneOnce sync.Once

	// Noise gate for signal conditioning.
	gateEnabled   bool
	gateThreshold float32 // Peak amplitude threshold (0-1)

	// Recording state.
	recorder atomic.Pointer[Recorder]
}

// newEngine builds an engine without touching PortAudio.
func newEngine(cfg config.AudioConfig, mode Mode, producer Producer) *Engine {
	if producer == nil {
		producer = func([]frames.Frame) {}
	}
	e := &Engine{
		cfg:      cfg,
		mode:     mode,
		producer: producer,
		batch:    make([]frames.Frame, max(cfg.FramesPerBuffer, 1)),
		done:     make(chan struct{}),
	}
	e.SetGateThreshold(cfg.GateThreshold)
	e.gateEnabled = cfg.GateEnabled
	return e
}

// NewPlaybackEngine prepares playback of track on the configured output
// device. PortAudio must be initialized.
func NewPlaybackEngine(cfg config.AudioConfig, track *decode.Track, producer Producer) (*Engine, error) {
	device, err := OutputDevice(cfg.OutputDevice)
	if err != nil {
		return nil, err
	}
	if device.MaxOutputChannels < 2 {
		return nil, fmt.Errorf("output device %s is not stereo", device.Name)
	}

	e := newEngine(cfg, ModePlayback, producer)
	e.track = track
	e.device = device
	if cfg.LowLatency {
		e.latency = device.DefaultLowOutputLatency
	} else {
		e.latency = device.DefaultHighOutputLatency
	}
	return e, nil
}

// NewCaptureEngine prepares live capture from the configured input device.
// PortAudio must be initialized.
func NewCaptureEngine(cfg config.AudioConfig, producer Producer) (*Engine, error) {
	device, err := InputDevice(cfg.InputDevice)
	if err != nil {
		return nil, err
	}
	if device.MaxInputChannels < cfg.InputChannels {
		cfg.InputChannels = device.MaxInputChannels
	}

	e := newEngine(cfg, ModeCapture, producer)
	e.device = device
	if cfg.LowLatency {
		e.latency = device.DefaultLowInputLatency
	} else {
		e.latency = device.DefaultHighInputLatency
	}
	return e, nil
}

// Mode returns the stream direction.
func (e *Engine) Mode() Mode {
	return e.mode
}

// SampleRate returns the rate of the frames handed to the producer.
func (e *Engine) SampleRate() float64 {
	if e.track != nil {
		return float64(e.track.SampleRate)
	}
	return e.cfg.SampleRate
}

// DeviceName returns the name of the opened device.
func (e *Engine) DeviceName() string {
	if e.device == nil {
		return ""
	}
	return e.device.Name
}

// Start opens and starts the stream. Playback starts unpaused.
func (e *Engine) Start() error {
	if e.stream != nil {
		return nil
	}

	var (
		stream *portaudio.Stream
		err    error
	)
	switch e.mode {
	case ModePlayback:
		params := portaudio.StreamParameters{
			Output: portaudio.StreamDeviceParameters{
				Channels: 2,
				Device:   e.device,
				Latency:  e.latency,
			},
			FramesPerBuffer: e.cfg.FramesPerBuffer,
			SampleRate:      e.SampleRate(),
		}
		e.playing.Store(true)
		stream, err = portaudio.OpenStream(params, e.processOutputStream)
	case ModeCapture:
		params := portaudio.StreamParameters{
			Input: portaudio.StreamDeviceParameters{
				Channels: e.cfg.InputChannels,
				Device:   e.device,
				Latency:  e.latency,
			},
			FramesPerBuffer: e.cfg.FramesPerBuffer,
			SampleRate:      e.cfg.SampleRate,
		}
		stream, err = portaudio.OpenStream(params, e.processInputStream)
	}
	if err != nil {
		return fmt.Errorf("opening %s stream on %s: %w", e.mode, e.DeviceName(), err)
	}
	e.stream = stream

	if err := e.stream.Start(); err != nil {
		e.stream.Close()
		e.stream = nil
		return fmt.Errorf("starting %s stream: %w", e.mode, err)
	}

	applog.Infof("Audio: Started %s on %s (%.0f Hz, %d frames/buffer, latency %s)",
		e.mode, e.DeviceName(), e.SampleRate(), e.cfg.FramesPerBuffer, e.latency)
	return nil
}

// Stop stops and closes the stream.
func (e *Engine) Stop() error {
	if e.stream != nil {
		if err := e.stream.Stop(); err != nil {
			return err
		}

		if err := e.stream.Close(); err != nil {
			return err
		}

		e.stream = nil
	}

	return nil
}

// processOutputStream is the playback callback. It copies the next frames
// of the track into out, hands the same frames to the producer and marks
// the engine done at the end of the track.
// Performance Critical:
// - Uses track memory directly, no dynamic allocations
// - Never waits on the consumer
func (e *Engine) processOutputStream(out []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if e.track == nil || !e.playing.Load() {
		clear(out)
		return
	}

	total := len(e.track.Frames)
	pos := int(e.cursor.Load())
	n := min(len(out)/2, max(total-pos, 0))
	played := e.track.Frames[pos : pos+n]

	frames.Interleave(out, played)
	clear(out[2*n:])

	// A concurrent Seek wins over the advance.
	e.cursor.CompareAndSwap(int64(pos), int64(pos+n))

	if n > 0 {
		e.producer(played)
		if rec := e.recorder.Load(); rec != nil {
			rec.Write(played)
		}
	}
	if pos+n >= total {
		e.playing.Store(false)
		e.doneOnce.Do(e.closeDone)
	}
}

// processInputStream is the capture callback. It converts the interleaved
// input to frames in the pre-allocated batch, applies the noise gate and
// hands the batch to the producer.
func (e *Engine) processInputStream(in []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	channels := max(e.cfg.InputChannels, 1)
	for len(in) >= channels {
		n := min(len(in)/channels, len(e.batch))
		batch := e.batch[:n]
		switch channels {
		case 1:
			for i := range batch {
				batch[i] = frames.Frame{Left: in[i], Right: in[i]}
			}
		case 2:
			frames.FromInterleaved(batch, in[:2*n])
		default:
			for i := range batch {
				batch[i] = frames.Frame{Left: in[i*channels], Right: in[i*channels+1]}
			}
		}
		in = in[n*channels:]

		if !e.gateOpen(batch) {
			clear(batch)
		}
		e.producer(batch)
		if rec := e.recorder.Load(); rec != nil {
			rec.Write(batch)
		}
	}
}

func (e *Engine) closeDone() {
	close(e.done)
}

// Play resumes playback.
func (e *Engine) Play() error {
	if e.track == nil {
		return ErrNoTrack
	}
	if int(e.cursor.Load()) >= len(e.track.Frames) {
		e.cursor.Store(0)
	}
	e.playing.Store(true)
	return nil
}

// Pause silences the output and stops feeding the producer.
func (e *Engine) Pause() {
	e.playing.Store(false)
}

// TogglePause flips between playing and paused and reports whether the
// engine is now playing.
func (e *Engine) TogglePause() bool {
	if e.playing.Load() {
		e.Pause()
		return false
	}
	return e.Play() == nil
}

// Playing reports whether playback is running.
func (e *Engine) Playing() bool {
	return e.playing.Load()
}

// Done is closed the first time playback reaches the end of the track.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Position returns the current playing position.
func (e *Engine) Position() time.Duration {
	if e.track == nil {
		return 0
	}
	return e.track.TimeAt(int(e.cursor.Load()))
}

// Duration returns the length of the track, or zero while capturing.
func (e *Engine) Duration() time.Duration {
	if e.track == nil {
		return 0
	}
	return e.track.Duration()
}

// Progress returns the playing position as a fraction in [0, 1].
func (e *Engine) Progress() float64 {
	if e.track == nil || len(e.track.Frames) == 0 {
		return 0
	}
	return float64(e.cursor.Load()) / float64(len(e.track.Frames))
}

// Seek moves the playing position to d, clamped to the track.
func (e *Engine) Seek(d time.Duration) error {
	if e.track == nil {
		return ErrNoTrack
	}
	e.cursor.Store(int64(e.track.FrameAt(d)))
	return nil
}

// SeekFraction moves the playing position to fraction f of the track, as
// when the progress bar is clicked.
func (e *Engine) SeekFraction(f float64) error {
	if e.track == nil {
		return ErrNoTrack
	}
	f = min(max(f, 0), 1)
	e.cursor.Store(int64(f * float64(len(e.track.Frames))))
	return nil
}

// Close stops any recording and the stream.
func (e *Engine) Close() error {
	if err := e.StopRecording(); err != nil {
		return err
	}

	if err := e.Stop(); err != nil {
		return err
	}

	return nil
}
