// Copyright 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package modbus

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

// fakePort is a go.bug.st/serial.Port double over an in-memory pipe, in the
// style of the inherited nopCloser fake, extended with a drip-fed reader so
// tests can control inter-byte timing.
type fakePort struct {
	mu     sync.Mutex
	toPort bytes.Buffer // bytes written by the transport (requests)

	fromPort chan byte // bytes the test feeds in, one at a time
	closed   bool
}

func newFakePort() *fakePort {
	return &fakePort{fromPort: make(chan byte, 256)}
}

func (p *fakePort) Read(b []byte) (int, error) {
	select {
	case c, ok := <-p.fromPort:
		if !ok {
			return 0, io.EOF
		}
		b[0] = c
		return 1, nil
	case <-time.After(50 * time.Millisecond):
		return 0, nil
	}
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.toPort.Write(b)
}

func (p *fakePort) feed(data []byte, gap time.Duration) {
	for _, b := range data {
		if gap > 0 {
			time.Sleep(gap)
		}
		p.fromPort <- b
	}
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	close(p.fromPort)
	return nil
}

func (p *fakePort) SetMode(_ *serial.Mode) error         { return nil }
func (p *fakePort) Drain() error                         { return nil }
func (p *fakePort) ResetInputBuffer() error              { return nil }
func (p *fakePort) ResetOutputBuffer() error             { return nil }
func (p *fakePort) SetDTR(_ bool) error                  { return nil }
func (p *fakePort) SetRTS(_ bool) error                  { return nil }
func (p *fakePort) SetReadTimeout(_ time.Duration) error { return nil }
func (p *fakePort) Break(_ time.Duration) error          { return nil }
func (p *fakePort) GetModemStatusBits() (*serial.ModemStatusBits, error) {
	return &serial.ModemStatusBits{}, nil
}

func newTestTransport(port serial.Port, baud uint32) *SerialTransport {
	t := &SerialTransport{
		port:    port,
		timing:  NewTiming(baud),
		readCh:  make(chan readResult, 16),
		closeCh: make(chan struct{}),
	}
	go t.readLoop()
	return t
}

func TestSerialTransportRecvCompleteFrame(t *testing.T) {
	port := newFakePort()
	tr := newTestTransport(port, 19200)
	defer tr.Close()
	require.NoError(t, tr.SetSlaveAddress(0x11))

	pdu, err := NewBuffer(FuncCodeReadCoils)
	require.NoError(t, err)
	require.NoError(t, pdu.PutUint16BE(0))
	require.NoError(t, pdu.PutUint16BE(1))
	var adu Adu
	require.NoError(t, EncodeFrame(&adu, 0x11, pdu))

	go port.feed(adu.Bytes(), 0)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := tr.Recv(ctx)
	require.NoError(t, err)
	require.Equal(t, pdu.Bytes(), resp.Bytes())
}

func TestSerialTransportRecvFrameIncompleteOnLongGap(t *testing.T) {
	port := newFakePort()
	tr := newTestTransport(port, 19200)
	defer tr.Close()
	require.NoError(t, tr.SetSlaveAddress(0x11))

	pdu, err := NewBuffer(FuncCodeReadCoils)
	require.NoError(t, err)
	require.NoError(t, pdu.PutUint16BE(0))
	require.NoError(t, pdu.PutUint16BE(1))
	var adu Adu
	require.NoError(t, EncodeFrame(&adu, 0x11, pdu))

	go func() {
		full := adu.Bytes()
		port.feed(full[:len(full)/2], 0)
		time.Sleep((tr.timing.T1_5 + tr.timing.T3_5) / 2) // beyond t1.5, short of t3.5
		port.feed(full[len(full)/2:], 0)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = tr.Recv(ctx)
	require.ErrorIs(t, err, ErrFrameIncomplete)
}

func TestSerialTransportRecvContextCancel(t *testing.T) {
	port := newFakePort()
	tr := newTestTransport(port, 19200)
	defer tr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := tr.Recv(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSerialTransportSetSlaveAddressRejectsReserved(t *testing.T) {
	port := newFakePort()
	tr := newTestTransport(port, 19200)
	defer tr.Close()

	require.NoError(t, tr.SetSlaveAddress(0))
	require.NoError(t, tr.SetSlaveAddress(247))
	err := tr.SetSlaveAddress(248)
	var addrErr *InvalidSlaveAddressError
	require.ErrorAs(t, err, &addrErr)
}

func TestToSerialParityAndStopBits(t *testing.T) {
	require.Equal(t, serial.OneStopBit, toSerialStopBits(EvenParity.StopBits()))
	require.Equal(t, serial.TwoStopBits, toSerialStopBits(NoParity.StopBits()))

	require.Equal(t, serial.EvenParity, toSerialParity(EvenParity))
	require.Equal(t, serial.OddParity, toSerialParity(OddParity))
	require.Equal(t, serial.NoParity, toSerialParity(NoParity))
}
