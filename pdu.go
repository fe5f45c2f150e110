// Copyright 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package modbus

import "fmt"

// maxPduSize is the largest a Modbus PDU may be: one function-code byte plus
// up to 252 bytes of payload (Modbus Application Protocol v1.1b3, §4.1).
const maxPduSize = 253

// Buffer is a fixed-capacity, byte-oriented container for a Protocol Data
// Unit. It never allocates beyond its inline array, and every accessor is
// fallible or returns an absent value rather than panicking: out-of-bounds
// reads return ok=false, and writes past capacity return ErrNoSpaceLeft.
//
// Byte 0 holds the function code once NewBuffer has run; it is never
// rewritten by Put* methods, which only append.
type Buffer struct {
	data [maxPduSize]byte
	n    int
}

// NewBuffer initializes a Buffer with the given function code as its first
// byte.
func NewBuffer(functionCode byte) (*Buffer, error) {
	b := &Buffer{}
	if err := b.PutUint8(functionCode); err != nil {
		return nil, err
	}
	return b, nil
}

// FunctionCode returns the first byte of the buffer.
func (b *Buffer) FunctionCode() byte {
	return b.data[0]
}

// Data returns the payload region, i.e. everything after the function code.
func (b *Buffer) Data() []byte {
	if b.n == 0 {
		return nil
	}
	return b.data[1:b.n]
}

// Bytes returns the whole buffer, function code included.
func (b *Buffer) Bytes() []byte {
	return b.data[:b.n]
}

// Len returns the total length of the buffer, function code included.
func (b *Buffer) Len() int {
	return b.n
}

// PutUint8 appends a single byte.
func (b *Buffer) PutUint8(v byte) error {
	if b.n >= maxPduSize {
		return fmt.Errorf("%w: appending 1 byte at length %d", ErrNoSpaceLeft, b.n)
	}
	b.data[b.n] = v
	b.n++
	return nil
}

// PutUint16BE appends a 16-bit value, big-endian — the Modbus wire default.
func (b *Buffer) PutUint16BE(v uint16) error {
	if b.n+2 > maxPduSize {
		return fmt.Errorf("%w: appending 2 bytes at length %d", ErrNoSpaceLeft, b.n)
	}
	b.data[b.n] = byte(v >> 8)
	b.data[b.n+1] = byte(v)
	b.n += 2
	return nil
}

// PutUint16LE appends a 16-bit value, little-endian. Reserved for CRC
// placement on the wire; ordinary PDU fields use PutUint16BE.
func (b *Buffer) PutUint16LE(v uint16) error {
	if b.n+2 > maxPduSize {
		return fmt.Errorf("%w: appending 2 bytes at length %d", ErrNoSpaceLeft, b.n)
	}
	b.data[b.n] = byte(v)
	b.data[b.n+1] = byte(v >> 8)
	b.n += 2
	return nil
}

// PutBytes appends a slice verbatim.
func (b *Buffer) PutBytes(src []byte) error {
	if b.n+len(src) > maxPduSize {
		return fmt.Errorf("%w: appending %d bytes at length %d", ErrNoSpaceLeft, len(src), b.n)
	}
	copy(b.data[b.n:], src)
	b.n += len(src)
	return nil
}

// Uint8At reads a byte from the payload region; index 0 is the byte
// immediately after the function code.
func (b *Buffer) Uint8At(index int) (v byte, ok bool) {
	i := index + 1
	if i < 1 || i >= b.n {
		return 0, false
	}
	return b.data[i], true
}

// Uint16BEAt reads a big-endian 16-bit value from the payload region.
func (b *Buffer) Uint16BEAt(index int) (v uint16, ok bool) {
	i := index + 1
	if i < 1 || i+1 >= b.n {
		return 0, false
	}
	return uint16(b.data[i])<<8 | uint16(b.data[i+1]), true
}

// Uint16LEAt reads a little-endian 16-bit value from the payload region.
func (b *Buffer) Uint16LEAt(index int) (v uint16, ok bool) {
	i := index + 1
	if i < 1 || i+1 >= b.n {
		return 0, false
	}
	return uint16(b.data[i]) | uint16(b.data[i+1])<<8, true
}
