// Copyright 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package modbus

import "fmt"

// Raw function code values (Modbus Application Protocol v1.1b3, §5).
const (
	FuncCodeReadCoils                  byte = 0x01
	FuncCodeReadDiscreteInputs         byte = 0x02
	FuncCodeReadHoldingRegisters       byte = 0x03
	FuncCodeReadInputRegisters         byte = 0x04
	FuncCodeWriteSingleCoil            byte = 0x05
	FuncCodeWriteSingleRegister        byte = 0x06
	FuncCodeReadExceptionStatus        byte = 0x07
	FuncCodeDiagnostics                byte = 0x08
	FuncCodeGetCommEventCounter        byte = 0x0B
	FuncCodeGetCommEventLog            byte = 0x0C
	FuncCodeWriteMultipleCoils         byte = 0x0F
	FuncCodeWriteMultipleRegisters     byte = 0x10
	FuncCodeReportServerID             byte = 0x11
	FuncCodeReadFileRecord             byte = 0x14
	FuncCodeWriteFileRecord            byte = 0x15
	FuncCodeMaskWriteRegister          byte = 0x16
	FuncCodeReadWriteMultipleRegisters byte = 0x17
	FuncCodeReadFifoQueue              byte = 0x18
	FuncCodeEncapsulatedInterface      byte = 0x2B

	// exceptionBit marks a response as an exception: the MSB of the
	// function code, per Modbus Application Protocol v1.1b3, §7.
	exceptionBit byte = 0x80
)

// PublicFunctionCode is one of the function codes enumerated by the Modbus
// Application Protocol specification.
type PublicFunctionCode byte

// String renders the public function code name, or "unknown" if the value
// isn't one of the enumerated constants (callers should check IsPublic
// first).
func (f PublicFunctionCode) String() string {
	switch byte(f) {
	case FuncCodeReadCoils:
		return "ReadCoils"
	case FuncCodeReadDiscreteInputs:
		return "ReadDiscreteInputs"
	case FuncCodeReadHoldingRegisters:
		return "ReadHoldingRegisters"
	case FuncCodeReadInputRegisters:
		return "ReadInputRegisters"
	case FuncCodeWriteSingleCoil:
		return "WriteSingleCoil"
	case FuncCodeWriteSingleRegister:
		return "WriteSingleRegister"
	case FuncCodeReadExceptionStatus:
		return "ReadExceptionStatus"
	case FuncCodeDiagnostics:
		return "Diagnostics"
	case FuncCodeGetCommEventCounter:
		return "GetCommEventCounter"
	case FuncCodeGetCommEventLog:
		return "GetCommEventLog"
	case FuncCodeWriteMultipleCoils:
		return "WriteMultipleCoils"
	case FuncCodeWriteMultipleRegisters:
		return "WriteMultipleRegisters"
	case FuncCodeReportServerID:
		return "ReportServerId"
	case FuncCodeReadFileRecord:
		return "ReadFileRecord"
	case FuncCodeWriteFileRecord:
		return "WriteFileRecord"
	case FuncCodeMaskWriteRegister:
		return "MaskWriteRegister"
	case FuncCodeReadWriteMultipleRegisters:
		return "ReadWriteMultipleRegisters"
	case FuncCodeReadFifoQueue:
		return "ReadFifoQueue"
	case FuncCodeEncapsulatedInterface:
		return "EncapsulatedInterfaceTransport"
	default:
		return "unknown"
	}
}

// IsPublic reports whether code is one of the enumerated public function
// codes.
func IsPublic(code byte) bool {
	switch code {
	case FuncCodeReadCoils, FuncCodeReadDiscreteInputs, FuncCodeReadHoldingRegisters,
		FuncCodeReadInputRegisters, FuncCodeWriteSingleCoil, FuncCodeWriteSingleRegister,
		FuncCodeReadExceptionStatus, FuncCodeDiagnostics, FuncCodeGetCommEventCounter,
		FuncCodeGetCommEventLog, FuncCodeWriteMultipleCoils, FuncCodeWriteMultipleRegisters,
		FuncCodeReportServerID, FuncCodeReadFileRecord, FuncCodeWriteFileRecord,
		FuncCodeMaskWriteRegister, FuncCodeReadWriteMultipleRegisters, FuncCodeReadFifoQueue,
		FuncCodeEncapsulatedInterface:
		return true
	default:
		return false
	}
}

// ParseFunctionCode validates code as one of the enumerated public function
// codes, returning UndefinedFunctionCodeError otherwise. Use this where a
// caller needs a strict parse rather than IsPublic's boolean check — e.g.
// decoding a function code from an untrusted source into a
// PublicFunctionCode value.
func ParseFunctionCode(code byte) (PublicFunctionCode, error) {
	if !IsPublic(code) {
		return 0, &UndefinedFunctionCodeError{Code: code}
	}
	return PublicFunctionCode(code), nil
}

// maskException strips the exception bit off a response function code,
// returning the underlying function code and whether the bit was set.
func maskException(code byte) (fc byte, isException bool) {
	return code &^ exceptionBit, code&exceptionBit != 0
}

// ExceptionCode is one of the exception codes a server may report in place
// of a normal response (Modbus Application Protocol v1.1b3, §7).
type ExceptionCode byte

const (
	ExIllegalFunction                    ExceptionCode = 0x01
	ExIllegalDataAddress                 ExceptionCode = 0x02
	ExIllegalDataValue                   ExceptionCode = 0x03
	ExServerDeviceFailure                ExceptionCode = 0x04
	ExAcknowledge                        ExceptionCode = 0x05
	ExServerDeviceBusy                   ExceptionCode = 0x06
	ExMemoryParityError                  ExceptionCode = 0x08
	ExGatewayPathUnavailable             ExceptionCode = 0x0A
	ExGatewayTargetDeviceFailedToRespond ExceptionCode = 0x0B
)

// parseExceptionCode validates a raw byte as a known exception code.
func parseExceptionCode(raw byte) (ExceptionCode, error) {
	switch ExceptionCode(raw) {
	case ExIllegalFunction, ExIllegalDataAddress, ExIllegalDataValue, ExServerDeviceFailure,
		ExAcknowledge, ExServerDeviceBusy, ExMemoryParityError, ExGatewayPathUnavailable,
		ExGatewayTargetDeviceFailedToRespond:
		return ExceptionCode(raw), nil
	default:
		return 0, &UndefinedExceptionCodeError{Code: raw}
	}
}

// String renders the exception name, as used in the "modbus: exception - …"
// message of ExceptionResponse.Error.
func (e ExceptionCode) String() string {
	switch e {
	case ExIllegalFunction:
		return "ILLEGAL FUNCTION"
	case ExIllegalDataAddress:
		return "ILLEGAL DATA ADDRESS"
	case ExIllegalDataValue:
		return "ILLEGAL DATA VALUE"
	case ExServerDeviceFailure:
		return "SERVER DEVICE FAILURE"
	case ExAcknowledge:
		return "ACKNOWLEDGE"
	case ExServerDeviceBusy:
		return "SERVER DEVICE BUSY"
	case ExMemoryParityError:
		return "MEMORY PARITY ERROR"
	case ExGatewayPathUnavailable:
		return "GATEWAY PATH UNAVAILABLE"
	case ExGatewayTargetDeviceFailedToRespond:
		return "GATEWAY TARGET DEVICE FAILED TO RESPOND"
	default:
		return fmt.Sprintf("CODE 0x%02X UNDEFINED", byte(e))
	}
}

// ExceptionResponse is the application-level surfacing of a server-reported
// exception: a response PDU whose function code has the exception bit set,
// followed by one exception-code byte. It is not a wire/transport error —
// recv succeeds and returns this value; interpreting it is the caller's
// responsibility.
type ExceptionResponse struct {
	buf *Buffer
}

// NewExceptionResponse builds the PDU `[fc|0x80, exc]`.
func NewExceptionResponse(functionCode byte, exceptionCode ExceptionCode) (*ExceptionResponse, error) {
	buf, err := NewBuffer(functionCode | exceptionBit)
	if err != nil {
		return nil, err
	}
	if err := buf.PutUint8(byte(exceptionCode)); err != nil {
		return nil, err
	}
	return &ExceptionResponse{buf: buf}, nil
}

// exceptionResponseFromBuffer interprets an already-received PDU as an
// exception response. Callers should only do this once maskException has
// reported the exception bit set.
func exceptionResponseFromBuffer(buf *Buffer) (*ExceptionResponse, error) {
	if _, err := parseExceptionCode(mustGetFirstDataByte(buf)); err != nil {
		return nil, err
	}
	return &ExceptionResponse{buf: buf}, nil
}

func mustGetFirstDataByte(buf *Buffer) byte {
	v, ok := buf.Uint8At(0)
	if !ok {
		return 0
	}
	return v
}

// FunctionCode returns the function this exception was reported against,
// with the exception bit stripped off.
func (e *ExceptionResponse) FunctionCode() byte {
	fc, _ := maskException(e.buf.FunctionCode())
	return fc
}

// ExceptionCode decodes the exception-code byte following the function code.
func (e *ExceptionResponse) ExceptionCode() (ExceptionCode, error) {
	raw, ok := e.buf.Uint8At(0)
	if !ok {
		return 0, ErrMissingData
	}
	return parseExceptionCode(raw)
}

// Error implements error so an ExceptionResponse can be returned or wrapped
// wherever the caller prefers to treat it as a failure.
func (e *ExceptionResponse) Error() string {
	code, err := e.ExceptionCode()
	if err != nil {
		return fmt.Sprintf("modbus: exception - function 0x%02X, %v", e.FunctionCode(), err)
	}
	return fmt.Sprintf("modbus: exception - function 0x%02X, %s", e.FunctionCode(), code)
}

// Buffer exposes the underlying PDU buffer.
func (e *ExceptionResponse) Buffer() *Buffer {
	return e.buf
}
