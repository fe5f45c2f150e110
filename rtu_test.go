// Copyright 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package modbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeFrameRoundTrip(t *testing.T) {
	pdu, err := NewBuffer(FuncCodeReadHoldingRegisters)
	require.NoError(t, err)
	require.NoError(t, pdu.PutUint16BE(0x006B))
	require.NoError(t, pdu.PutUint16BE(0x0003))

	var adu Adu
	require.NoError(t, EncodeFrame(&adu, 0x11, pdu))
	require.Equal(t, 9, adu.Len())

	decoded, err := DecodeFrame(adu.Bytes(), 0x11)
	require.NoError(t, err)
	require.Equal(t, pdu.Bytes(), decoded.Bytes())
}

func TestDecodeFrameRejectsBadCRC(t *testing.T) {
	pdu, err := NewBuffer(FuncCodeReadCoils)
	require.NoError(t, err)
	require.NoError(t, pdu.PutUint16BE(0))
	require.NoError(t, pdu.PutUint16BE(1))

	var adu Adu
	require.NoError(t, EncodeFrame(&adu, 0x01, pdu))
	corrupt := append([]byte(nil), adu.Bytes()...)
	corrupt[len(corrupt)-1] ^= 0xFF

	_, err = DecodeFrame(corrupt, 0x01)
	require.ErrorIs(t, err, ErrCrcValidation)
}

func TestDecodeFrameAddressFilter(t *testing.T) {
	pdu, err := NewBuffer(FuncCodeReadCoils)
	require.NoError(t, err)
	require.NoError(t, pdu.PutUint16BE(0))
	require.NoError(t, pdu.PutUint16BE(1))

	var adu Adu
	require.NoError(t, EncodeFrame(&adu, 0x05, pdu))

	_, err = DecodeFrame(adu.Bytes(), 0x06)
	var addrErr *InvalidSlaveAddressError
	require.ErrorAs(t, err, &addrErr)
	require.Equal(t, byte(0x05), addrErr.Addr)

	_, err = DecodeFrame(adu.Bytes(), 0)
	require.NoError(t, err, "address 0 is the promiscuous broadcast listener and accepts any sender")
}

func TestDecodeFrameLengthBounds(t *testing.T) {
	_, err := DecodeFrame([]byte{0x01, 0x02, 0x03}, 0x01)
	require.ErrorIs(t, err, ErrInvalidFrameLength)
}

func TestNewTimingLowBaud(t *testing.T) {
	timing := NewTiming(9600)
	// 11 bits / 9600 baud ~= 1.1458ms/char; 1.5 chars ~= 1.7188ms.
	require.InDelta(t, 1718.75, float64(timing.T1_5)/float64(time.Microsecond), 1)
	require.InDelta(t, 4010.42, float64(timing.T3_5)/float64(time.Microsecond), 1)
}

func TestNewTimingHighBaudPinned(t *testing.T) {
	timing := NewTiming(115200)
	require.Equal(t, 750*time.Microsecond, timing.T1_5)
	require.Equal(t, 1750*time.Microsecond, timing.T3_5)
}

func TestParityStopBits(t *testing.T) {
	require.Equal(t, 1, EvenParity.StopBits())
	require.Equal(t, 1, OddParity.StopBits())
	require.Equal(t, 2, NoParity.StopBits())
}
