// SPDX-License-Identifier: MIT
/*
Package session wires one visualizer session together: the frame ring buffer
filled by the audio engine, the spectrum analyzer reading it once per visual
frame, and the transports publishing the resulting bars.

A Session has exactly one producer (the engine callback returned by Producer)
and one consumer (whoever calls Tick, usually the TUI or Run). Latest and
BarsInto may be called from any goroutine.
*/
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"specviz/internal/analysis"
	"specviz/internal/frames"
	applog "specviz/internal/log"
	"specviz/internal/transport"
)

const (
	DefaultBeatThreshold = 0.1 // Minimum RMS for a beat.
	DefaultBeatRatio     = 1.5 // Required RMS increase over the previous tick.
)

// BarFrame is the result of one analysis tick.
type BarFrame struct {
	Seq       uint64               `json:"seq"`
	Timestamp time.Time            `json:"ts"`
	Bars      []float64            `json:"bars"` // Smoothed heights, dB.
	Bands     []analysis.BandLevel `json:"bands,omitempty"`
	Beat      bool                 `json:"beat"`
}

// Clone returns a deep copy of f.
func (f BarFrame) Clone() BarFrame {
	f.Bars = append([]float64(nil), f.Bars...)
	f.Bands = append([]analysis.BandLevel(nil), f.Bands...)
	return f
}

// Options configures a Session.
type Options struct {
	Capacity      int                      // Ring buffer capacity in frames.
	NumBars       int                      // Initial bar count.
	Analyzer      analysis.Options         // Spectrum analysis settings.
	Bands         []analysis.FrequencyBand // nil selects analysis.DefaultBands.
	BeatThreshold float64
	BeatRatio     float64
}

// DefaultOptions returns the default session layout.
func DefaultOptions() Options {
	return Options{
		Capacity:      frames.DefaultCapacity,
		NumBars:       analysis.DefaultNumBars,
		Analyzer:      analysis.DefaultOptions(),
		BeatThreshold: DefaultBeatThreshold,
		BeatRatio:     DefaultBeatRatio,
	}
}

type Session struct {
	ring     *frames.RingBuffer
	analyzer *analysis.Analyzer
	bands    *analysis.BandLevels
	beat     *analysis.BeatDetector
	numBars  atomic.Int32
	seq      uint64 // Consumer side only.

	mu     sync.Mutex // Protects latest.
	latest BarFrame   // Copy of the last tick, backed by session-owned slices.

	transportsMu sync.RWMutex
	transports   []transport.Transport
	closeOnce    sync.Once
	closeErr     error
}

// New creates a session. It fails if the analyzer options are invalid or the
// bar count does not fit the FFT size.
func New(opts Options) (*Session, error) {
	if opts.Capacity < 1 {
		return nil, fmt.Errorf("ring buffer capacity must be >= 1, got %d", opts.Capacity)
	}
	analyzer, err := analysis.NewAnalyzer(opts.Analyzer)
	if err != nil {
		return nil, err
	}
	if opts.NumBars < 1 || opts.NumBars > analyzer.MaxBars() {
		return nil, fmt.Errorf("bars must be in [1, %d], got %d", analyzer.MaxBars(), opts.NumBars)
	}

	s := &Session{
		ring:     frames.NewRingBuffer(opts.Capacity),
		analyzer: analyzer,
		bands:    analysis.NewBandLevels(opts.Bands),
		beat:     analysis.NewBeatDetector(opts.BeatThreshold, opts.BeatRatio, opts.Analyzer.FFTSize),
	}
	s.numBars.Store(int32(opts.NumBars))

	// Sized for the widest layout so ticks never grow them.
	nbands := len(analysis.DefaultBands)
	if opts.Bands != nil {
		nbands = len(opts.Bands)
	}
	s.latest.Bars = make([]float64, 0, analyzer.MaxBars())
	s.latest.Bands = make([]analysis.BandLevel, 0, nbands)

	applog.Infof("Session: Created (Capacity: %d, Bars: %d, FFT: %d)", opts.Capacity, opts.NumBars, opts.Analyzer.FFTSize)
	return s, nil
}

// Producer returns the callback the audio engine pushes frames through.
func (s *Session) Producer() func(batch []frames.Frame) {
	return s.ring.Push
}

// Ring returns the session's ring buffer.
func (s *Session) Ring() *frames.RingBuffer {
	return s.ring
}

// Analyzer returns the session's analyzer. Consumer side only.
func (s *Session) Analyzer() *analysis.Analyzer {
	return s.analyzer
}

// NumBars returns the current bar count.
func (s *Session) NumBars() int {
	return int(s.numBars.Load())
}

// SetNumBars changes the bar count, for example when the terminal is
// resized. The value is clamped to [1, FFTSize/2]; smoothing restarts on the
// next tick.
func (s *Session) SetNumBars(n int) {
	n = min(max(n, 1), s.analyzer.MaxBars())
	s.numBars.Store(int32(n))
}

// Attach adds a transport that receives a copy of every tick's BarFrame.
// The session closes attached transports in Close.
func (s *Session) Attach(t transport.Transport) {
	s.transportsMu.Lock()
	defer s.transportsMu.Unlock()
	s.transports = append(s.transports, t)
}

// Tick runs one snapshot-analyze pass and publishes the result. The returned
// frame shares its slices with the analyzer and is only valid until the next
// Tick; use Clone to keep it. Without attached transports Tick does not
// allocate.
func (s *Session) Tick(now time.Time) BarFrame {
	snapshot, _ := s.ring.Snapshot()
	bars := s.analyzer.Analyze(snapshot, s.NumBars())
	bands := s.bands.Compute(s.analyzer)
	s.beat.Process(snapshot)

	s.seq++
	frame := BarFrame{
		Seq:       s.seq,
		Timestamp: now,
		Bars:      bars,
		Bands:     bands,
		Beat:      s.beat.Detected(),
	}

	s.mu.Lock()
	s.latest.Seq = frame.Seq
	s.latest.Timestamp = frame.Timestamp
	s.latest.Beat = frame.Beat
	s.latest.Bars = append(s.latest.Bars[:0], bars...)
	s.latest.Bands = append(s.latest.Bands[:0], bands...)
	s.mu.Unlock()

	s.publish(frame)
	return frame
}

func (s *Session) publish(frame BarFrame) {
	s.transportsMu.RLock()
	defer s.transportsMu.RUnlock()
	if len(s.transports) == 0 {
		return
	}

	// Transports may queue the frame, so they get their own copy.
	owned := frame.Clone()
	for _, t := range s.transports {
		if err := t.Send(owned); err != nil {
			applog.Debugf("Session: Transport %T failed to send frame %d: %v", t, frame.Seq, err)
		}
	}
}

// Latest returns a copy of the most recent tick. Seq is zero before the
// first tick.
func (s *Session) Latest() BarFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest.Clone()
}

// BarsInto copies the most recent bar heights into dst as float32, growing
// it if needed. It implements udp.BarSource.
func (s *Session) BarsInto(dst []float32) []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cap(dst) < len(s.latest.Bars) {
		dst = make([]float32, len(s.latest.Bars))
	}
	dst = dst[:len(s.latest.Bars)]
	for i, v := range s.latest.Bars {
		dst[i] = float32(v)
	}
	return dst
}

// Run calls Tick every interval until ctx is cancelled. It is the render loop
// of headless sessions.
func (s *Session) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	applog.Infof("Session: Ticking every %s", interval)
	for {
		select {
		case now := <-ticker.C:
			s.Tick(now)
		case <-ctx.Done():
			return nil
		}
	}
}

// Close closes every attached transport.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.transportsMu.Lock()
		defer s.transportsMu.Unlock()

		var errs []error
		for _, t := range s.transports {
			errs = append(errs, t.Close())
		}
		s.transports = nil
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}
