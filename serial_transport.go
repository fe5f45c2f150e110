// Copyright 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package modbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
)

// farFuture stands in for "no timer armed yet": the inactivity timer is set
// this far out until the first byte of a frame arrives, per §4.D.
const farFuture = 24 * time.Hour

// readResult is one chunk handed from the background reader goroutine to
// Recv, or the I/O error that ended the read loop.
type readResult struct {
	data []byte
	err  error
}

// SerialTransport is the RTU serial-line implementation of Transport. It
// owns exactly one background goroutine, whose only job is moving bytes
// out of the blocking port.Read into readCh; all framing, timing, and
// state-machine logic lives in Recv, which is the channel's sole consumer
// (§5).
type SerialTransport struct {
	port   serial.Port
	timing Timing

	mu        sync.Mutex
	slaveAddr byte

	scratch []byte

	readCh  chan readResult
	closeCh chan struct{}
	closed  sync.Once

	sendAdu Adu
}

// SerialTransportBuilder configures and opens a SerialTransport.
type SerialTransportBuilder struct {
	path   string
	baud   uint32
	parity Parity
}

// NewSerialTransport begins configuring an RTU serial transport over path
// at the given baud rate. Default parity is even, matching the Modbus
// over Serial Line specification's recommended default; data bits are
// fixed at 8 and flow control is disabled (§6).
func NewSerialTransport(path string, baud uint32) *SerialTransportBuilder {
	return &SerialTransportBuilder{path: path, baud: baud, parity: EvenParity}
}

// WithParity overrides the parity mode. Stop bits follow automatically:
// two when parity is None, one otherwise, to preserve the 11-bit Modbus
// character (§6).
func (b *SerialTransportBuilder) WithParity(p Parity) *SerialTransportBuilder {
	b.parity = p
	return b
}

// Build opens the serial port and starts the transport's background
// reader.
func (b *SerialTransportBuilder) Build() (*SerialTransport, error) {
	mode := &serial.Mode{
		BaudRate: int(b.baud),
		DataBits: 8,
		StopBits: toSerialStopBits(b.parity.StopBits()),
		Parity:   toSerialParity(b.parity),
	}
	port, err := serial.Open(b.path, mode)
	if err != nil {
		return nil, &IoError{Err: err}
	}
	if err := port.SetReadTimeout(50 * time.Millisecond); err != nil {
		port.Close()
		return nil, &IoError{Err: err}
	}

	t := &SerialTransport{
		port:    port,
		timing:  NewTiming(b.baud),
		readCh:  make(chan readResult, 16),
		closeCh: make(chan struct{}),
	}
	go t.readLoop()
	return t, nil
}

func toSerialStopBits(n int) serial.StopBits {
	if n == 2 {
		return serial.TwoStopBits
	}
	return serial.OneStopBit
}

func toSerialParity(p Parity) serial.Parity {
	switch p {
	case NoParity:
		return serial.NoParity
	case OddParity:
		return serial.OddParity
	default:
		return serial.EvenParity
	}
}

// SetSlaveAddress sets the address this transport targets on send and
// filters on during recv. 0 is the broadcast/promiscuous-listener sentinel;
// 1..=247 are legal unicast addresses; 248..=255 are reserved by the
// Modbus specification and rejected here (§9, open question).
func (t *SerialTransport) SetSlaveAddress(addr byte) error {
	if addr > 247 {
		return &InvalidSlaveAddressError{Addr: addr}
	}
	t.mu.Lock()
	t.slaveAddr = addr
	t.mu.Unlock()
	return nil
}

// Close stops the background reader and releases the serial port.
func (t *SerialTransport) Close() error {
	var err error
	t.closed.Do(func() {
		close(t.closeCh)
		err = t.port.Close()
	})
	return err
}

// readLoop moves bytes from the blocking port into readCh. It performs no
// framing: a short read timeout on the port (set in Build) just means an
// empty, non-error read, which this loop treats as "nothing yet" and
// retries.
func (t *SerialTransport) readLoop() {
	buf := make([]byte, 256)
	for {
		n, err := t.port.Read(buf)
		if n == 0 && err == nil {
			select {
			case <-t.closeCh:
				return
			default:
				continue
			}
		}
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case t.readCh <- readResult{data: chunk}:
			case <-t.closeCh:
				return
			}
		}
		if err != nil {
			select {
			case t.readCh <- readResult{err: err}:
			case <-t.closeCh:
			}
			return
		}
	}
}

// Send builds the RTU ADU for pdu and writes it to the port in one call.
// No framing delay is inserted; the following idle gap is what correctly
// configured receivers on the bus key their own framing off of (§4.D).
func (t *SerialTransport) Send(ctx context.Context, pdu *Buffer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	addr := t.slaveAddr
	t.mu.Unlock()

	if err := EncodeFrame(&t.sendAdu, addr, pdu); err != nil {
		return err
	}
	if _, err := t.port.Write(t.sendAdu.Bytes()); err != nil {
		return &IoError{Err: err}
	}
	return nil
}

// Recv implements the inter-character timing state machine of §4.D:
//
//	IDLE --byte--> RECEIVING (record t0)
//	RECEIVING --byte, elapsed<=t1_5--> RECEIVING (extend)
//	RECEIVING --byte, elapsed>t1_5--> ABORT (emit FrameIncomplete)
//	RECEIVING --t3_5 elapsed--> COMPLETE (parse; emit PDU or Timeout)
func (t *SerialTransport) Recv(ctx context.Context) (*Buffer, error) {
	t.scratch = t.scratch[:0]
	t.mu.Lock()
	addr := t.slaveAddr
	t.mu.Unlock()

	timer := time.NewTimer(farFuture)
	defer timer.Stop()

	var lastByteTime time.Time

	for {
		select {
		case res, ok := <-t.readCh:
			if !ok || res.err != nil {
				if res.err != nil {
					return nil, &IoError{Err: res.err}
				}
				return nil, fmt.Errorf("%w: reader closed", ErrTimeout)
			}

			now := time.Now()
			if len(t.scratch) > 0 {
				if now.Sub(lastByteTime) > t.timing.T1_5 {
					t.scratch = t.scratch[:0]
					return nil, ErrFrameIncomplete
				}
			}
			t.scratch = append(t.scratch, res.data...)
			lastByteTime = now

			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(t.timing.T3_5)

			// Opportunistic parse: if a valid frame is already present we
			// don't need to wait out the rest of t3_5. Optional per §4.D.
			if len(t.scratch) >= rtuMinSize {
				buf, err := DecodeFrame(t.scratch, addr)
				if err == nil {
					return buf, nil
				}
				if addrErr, ok := err.(*InvalidSlaveAddressError); ok {
					_ = addrErr
					t.scratch = t.scratch[:0]
				}
				// CRC/length failure on the opportunistic path: discard
				// the attempt, not the buffer, and keep accumulating.
			}

		case <-timer.C:
			if len(t.scratch) == 0 {
				timer.Reset(farFuture)
				continue
			}
			buf, err := DecodeFrame(t.scratch, addr)
			t.scratch = t.scratch[:0]
			if err != nil {
				return nil, ErrTimeout
			}
			return buf, nil

		case <-ctx.Done():
			t.scratch = t.scratch[:0]
			return nil, ctx.Err()
		}
	}
}
