// Copyright 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package modbus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewReadCoilsRequestRange(t *testing.T) {
	_, err := NewReadCoilsRequest(0, 0)
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = NewReadCoilsRequest(0, 2001)
	require.ErrorIs(t, err, ErrOutOfRange)

	req, err := NewReadCoilsRequest(0x0013, 2000)
	require.NoError(t, err)
	require.Equal(t, uint16(0x0013), req.StartAddress())
	require.Equal(t, uint16(2000), req.Quantity())
	require.Equal(t, FuncCodeReadCoils, req.Buffer().FunctionCode())
}

func TestNewReadHoldingRegistersRequestRange(t *testing.T) {
	_, err := NewReadHoldingRegistersRequest(0, 126)
	require.ErrorIs(t, err, ErrOutOfRange)

	req, err := NewReadHoldingRegistersRequest(0x006B, 3)
	require.NoError(t, err)
	require.Equal(t, uint16(0x006B), req.StartAddress())
	require.Equal(t, uint16(3), req.Quantity())
}

func TestNewWriteSingleCoilRequestEncodesOnOff(t *testing.T) {
	on, err := NewWriteSingleCoilRequest(0x00AC, true)
	require.NoError(t, err)
	require.True(t, on.On())
	v, ok := on.Buffer().Uint16BEAt(2)
	require.True(t, ok)
	require.Equal(t, uint16(0xFF00), v)

	off, err := NewWriteSingleCoilRequest(0x00AC, false)
	require.NoError(t, err)
	require.False(t, off.On())
	v, ok = off.Buffer().Uint16BEAt(2)
	require.True(t, ok)
	require.Equal(t, uint16(0x0000), v)
}

func TestNewWriteSingleRegisterRequest(t *testing.T) {
	req, err := NewWriteSingleRegisterRequest(0x0001, 0x0003)
	require.NoError(t, err)
	require.Equal(t, uint16(0x0001), req.Address())
	require.Equal(t, uint16(0x0003), req.Value())
}

func TestNewUserDefinedRequest(t *testing.T) {
	req, err := NewUserDefinedRequest(0x41, []byte{0x01, 0x02})
	require.NoError(t, err)
	require.Equal(t, byte(0x41), req.FunctionCode())
	require.Equal(t, []byte{0x01, 0x02}, req.Data())

	_, err = NewUserDefinedRequest(0x41, make([]byte, maxPduSize))
	require.ErrorIs(t, err, ErrOutOfRange)
}
