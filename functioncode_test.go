// Copyright 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package modbus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaskException(t *testing.T) {
	fc, isExc := maskException(FuncCodeReadCoils)
	require.False(t, isExc)
	require.Equal(t, FuncCodeReadCoils, fc)

	fc, isExc = maskException(FuncCodeReadCoils | 0x80)
	require.True(t, isExc)
	require.Equal(t, FuncCodeReadCoils, fc)
}

func TestIsPublic(t *testing.T) {
	require.True(t, IsPublic(FuncCodeReadHoldingRegisters))
	require.False(t, IsPublic(0x99))
}

func TestParseFunctionCode(t *testing.T) {
	fc, err := ParseFunctionCode(FuncCodeReadCoils)
	require.NoError(t, err)
	require.Equal(t, PublicFunctionCode(FuncCodeReadCoils), fc)

	_, err = ParseFunctionCode(0x99)
	var undef *UndefinedFunctionCodeError
	require.ErrorAs(t, err, &undef)
	require.Equal(t, byte(0x99), undef.Code)
}

func TestPublicFunctionCodeString(t *testing.T) {
	require.Equal(t, "ReadCoils", PublicFunctionCode(FuncCodeReadCoils).String())
	require.Equal(t, "unknown", PublicFunctionCode(0x99).String())
}

func TestParseExceptionCode(t *testing.T) {
	code, err := parseExceptionCode(byte(ExIllegalDataAddress))
	require.NoError(t, err)
	require.Equal(t, ExIllegalDataAddress, code)

	_, err = parseExceptionCode(0x7F)
	var undef *UndefinedExceptionCodeError
	require.ErrorAs(t, err, &undef)
}

func TestExceptionResponseRoundTrip(t *testing.T) {
	exc, err := NewExceptionResponse(FuncCodeReadHoldingRegisters, ExIllegalDataAddress)
	require.NoError(t, err)

	decoded, err := exceptionResponseFromBuffer(exc.Buffer())
	require.NoError(t, err)

	require.Equal(t, FuncCodeReadHoldingRegisters, decoded.FunctionCode())
	code, err := decoded.ExceptionCode()
	require.NoError(t, err)
	require.Equal(t, ExIllegalDataAddress, code)
	require.Equal(t, "modbus: exception - function 0x03, ILLEGAL DATA ADDRESS", decoded.Error())
}
