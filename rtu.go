// Copyright 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package modbus

import (
	"fmt"
	"time"
)

const (
	rtuMinSize = 4
	rtuMaxSize = 256

	// rtuBitsPerChar is a Modbus character's width on the wire: start + 8
	// data + parity + stop, or start + 8 data + 2 stop when parity is
	// disabled — either way 11 bits (§4.C).
	rtuBitsPerChar = 11
)

// Adu is a fixed-capacity container for a Modbus RTU Application Data Unit:
// slave address, PDU, and little-endian CRC trailer. Its 256-byte capacity
// matches the maximum RTU frame size.
type Adu struct {
	data [rtuMaxSize]byte
	n    int
}

func (a *Adu) clear() { a.n = 0 }

func (a *Adu) putUint8(v byte) error {
	if a.n >= rtuMaxSize {
		return fmt.Errorf("%w: appending 1 byte at length %d", ErrNoSpaceLeft, a.n)
	}
	a.data[a.n] = v
	a.n++
	return nil
}

func (a *Adu) putUint16LE(v uint16) error {
	if a.n+2 > rtuMaxSize {
		return fmt.Errorf("%w: appending 2 bytes at length %d", ErrNoSpaceLeft, a.n)
	}
	a.data[a.n] = byte(v)
	a.data[a.n+1] = byte(v >> 8)
	a.n += 2
	return nil
}

func (a *Adu) putBytes(src []byte) error {
	if a.n+len(src) > rtuMaxSize {
		return fmt.Errorf("%w: appending %d bytes at length %d", ErrNoSpaceLeft, len(src), a.n)
	}
	copy(a.data[a.n:], src)
	a.n += len(src)
	return nil
}

// Bytes returns the whole frame built so far.
func (a *Adu) Bytes() []byte { return a.data[:a.n] }

// Len reports how many bytes have been written to the frame so far.
func (a *Adu) Len() int { return a.n }

// EncodeFrame writes `slaveAddr | pdu | crc_lo | crc_hi` into a, replacing
// any prior contents.
func EncodeFrame(a *Adu, slaveAddr byte, pdu *Buffer) error {
	a.clear()
	if err := a.putUint8(slaveAddr); err != nil {
		return err
	}
	if err := a.putBytes(pdu.Bytes()); err != nil {
		return err
	}
	checksum := calcCRC(a.Bytes())
	return a.putUint16LE(checksum)
}

// DecodeFrame validates frame as a complete RTU ADU addressed to
// expectedAddr (0 accepts any address, acting as a broadcast listener) and
// returns the PDU it carries.
func DecodeFrame(frame []byte, expectedAddr byte) (*Buffer, error) {
	if len(frame) < rtuMinSize || len(frame) > rtuMaxSize {
		return nil, fmt.Errorf("%w: length %d not in %d..=%d", ErrInvalidFrameLength, len(frame), rtuMinSize, rtuMaxSize)
	}
	if expectedAddr != 0 && frame[0] != expectedAddr {
		return nil, &InvalidSlaveAddressError{Addr: frame[0]}
	}

	pduEnd := len(frame) - 2
	want := uint16(frame[pduEnd]) | uint16(frame[pduEnd+1])<<8
	if got := calcCRC(frame[:pduEnd]); got != want {
		return nil, fmt.Errorf("%w: computed 0x%04X, frame carries 0x%04X", ErrCrcValidation, got, want)
	}

	buf, err := NewBuffer(frame[1])
	if err != nil {
		return nil, err
	}
	if err := buf.PutBytes(frame[2:pduEnd]); err != nil {
		return nil, err
	}
	return buf, nil
}

// Timing holds the inter-character (t1_5) and inter-frame (t3_5) idle
// intervals a receiver uses to decide when a byte stream constitutes a
// complete RTU frame (§4.C).
type Timing struct {
	T1_5 time.Duration
	T3_5 time.Duration
}

// NewTiming derives t1_5/t3_5 from a baud rate per the Modbus over Serial
// Line specification: below 19200 baud the intervals scale with character
// time; above it, they're pinned to 750µs/1750µs.
func NewTiming(baudRate uint32) Timing {
	if baudRate == 0 || baudRate > 19200 {
		return Timing{T1_5: 750 * time.Microsecond, T3_5: 1750 * time.Microsecond}
	}
	secPerChar := float64(rtuBitsPerChar) / float64(baudRate)
	return Timing{
		T1_5: time.Duration(secPerChar * 1.5 * float64(time.Second)),
		T3_5: time.Duration(secPerChar * 3.5 * float64(time.Second)),
	}
}

// Parity selects the serial line's parity mode.
type Parity int

const (
	EvenParity Parity = iota
	OddParity
	NoParity
)

// StopBits derives the stop-bit count that preserves the 11-bit Modbus
// character when parity is disabled (§6).
func (p Parity) StopBits() int {
	if p == NoParity {
		return 2
	}
	return 1
}
