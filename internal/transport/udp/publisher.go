// SPDX-License-Identifier: MIT
/*
Package udp streams bar heights to remote renderers as binary datagrams.

Packet layout, all fields big endian:

	offset  size  field
	0       4     sequence number (uint32, starts at 1)
	4       8     timestamp (int64, Unix nanoseconds)
	12      2     bar count N (uint16)
	14      4*N   bar heights in dB (float32)
*/
package udp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	applog "specviz/internal/log"
)

// HeaderSize is the size of the fixed packet header in bytes.
const HeaderSize = 4 + 8 + 2

// DefaultInterval is used when the configured send interval is not positive.
const DefaultInterval = 16 * time.Millisecond

// ErrShortPacket is returned by DecodePacket for truncated datagrams.
var ErrShortPacket = errors.New("udp: short packet")

// BarSource provides the latest bar heights. BarsInto copies them into dst,
// growing it if needed, and returns the filled slice.
type BarSource interface {
	BarsInto(dst []float32) []float32
}

// Packet is a decoded bar datagram.
type Packet struct {
	Seq       uint32
	Timestamp time.Time
	Bars      []float32
}

// UDPPublisher periodically fetches bar heights from a BarSource, packs them
// into the binary format above and sends them with a UDPSender.
// It runs in a separate goroutine managed by Start and Stop.
type UDPPublisher struct {
	sender   *UDPSender
	source   BarSource
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker and doneChan during Start/Stop.

	sequenceNum uint32

	// Reused on every tick.
	bars   []float32
	packet []byte
}

// NewUDPPublisher creates a publisher sending the bars of source through
// sender every interval.
func NewUDPPublisher(interval time.Duration, sender *UDPSender, source BarSource) (*UDPPublisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("UDPPublisher: UDP sender cannot be nil")
	}
	if source == nil {
		return nil, fmt.Errorf("UDPPublisher: bar source cannot be nil")
	}

	if interval <= 0 {
		interval = DefaultInterval
		applog.Warnf("UDPPublisher: Invalid interval provided, defaulting to %s", interval)
	}

	applog.Infof("UDPPublisher: Initializing (Interval: %s, Target: %s)", interval, sender.Target())

	return &UDPPublisher{
		sender:   sender,
		source:   source,
		interval: interval,
	}, nil
}

// Start launches the publishing goroutine. Calling Start on a running
// publisher is a no-op.
func (p *UDPPublisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("UDPPublisher: Start called but already running.")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})

	// Captured so the goroutine never reads the fields Stop resets.
	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Debugf("UDPPublisher: Publisher goroutine started (Interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.publish(time.Now())
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the publishing goroutine to terminate and waits for it to
// exit. It is safe to call Stop multiple times.
func (p *UDPPublisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	p.ticker.Stop()
	close(p.doneChan)
	p.ticker = nil
	p.doneChan = nil
	p.mu.Unlock()

	p.wg.Wait()
	applog.Infof("UDPPublisher: Stopped after %d packets", p.sequenceNum)
	return nil
}

// publish builds one packet from the current bars and sends it. Only the
// publisher goroutine (or a test holding no goroutine) calls it.
func (p *UDPPublisher) publish(now time.Time) {
	p.bars = p.source.BarsInto(p.bars)
	if len(p.bars) > math.MaxUint16 {
		applog.Errorf("UDPPublisher: %d bars do not fit in a packet", len(p.bars))
		return
	}

	p.sequenceNum++
	p.packet = AppendPacket(p.packet[:0], p.sequenceNum, now, p.bars)

	if err := p.sender.Send(p.packet); err != nil {
		return // Already logged by the sender.
	}
	applog.Debugf("UDPPublisher: Sent packet %d (%d bytes)", p.sequenceNum, len(p.packet))
}

// Close stops the publisher. The sender is owned by the caller.
func (p *UDPPublisher) Close() error {
	return p.Stop()
}

// AppendPacket appends the encoded packet to dst.
func AppendPacket(dst []byte, seq uint32, ts time.Time, bars []float32) []byte {
	dst = binary.BigEndian.AppendUint32(dst, seq)
	dst = binary.BigEndian.AppendUint64(dst, uint64(ts.UnixNano()))
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(bars)))
	for _, b := range bars {
		dst = binary.BigEndian.AppendUint32(dst, math.Float32bits(b))
	}
	return dst
}

// DecodePacket parses a datagram produced by AppendPacket.
func DecodePacket(b []byte) (Packet, error) {
	if len(b) < HeaderSize {
		return Packet{}, fmt.Errorf("%w: %d bytes", ErrShortPacket, len(b))
	}
	count := int(binary.BigEndian.Uint16(b[12:14]))
	if len(b) < HeaderSize+4*count {
		return Packet{}, fmt.Errorf("%w: %d bars need %d bytes, got %d", ErrShortPacket, count, HeaderSize+4*count, len(b))
	}

	pkt := Packet{
		Seq:       binary.BigEndian.Uint32(b[0:4]),
		Timestamp: time.Unix(0, int64(binary.BigEndian.Uint64(b[4:12]))),
		Bars:      make([]float32, count),
	}
	payload := b[HeaderSize:]
	for i := range pkt.Bars {
		pkt.Bars[i] = math.Float32frombits(binary.BigEndian.Uint32(payload[4*i:]))
	}
	return pkt, nil
}

var _ interface{ Close() error } = (*UDPPublisher)(nil)
