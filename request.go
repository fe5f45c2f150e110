// Copyright 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package modbus

import "fmt"

// Each typed request below wraps a Buffer built once at construction time;
// accessors re-decode from that buffer rather than caching the constructor
// arguments, so the buffer is always the single source of truth (§3).

// ReadCoilsRequest is the 0x01 ReadCoils request.
type ReadCoilsRequest struct{ buf *Buffer }

// NewReadCoilsRequest builds a ReadCoils request. quantity must be in 1..=2000.
func NewReadCoilsRequest(startAddress, quantity uint16) (*ReadCoilsRequest, error) {
	if quantity < 1 || quantity > 2000 {
		return nil, fmt.Errorf("%w: quantity of coils %d not in 1..=2000", ErrOutOfRange, quantity)
	}
	buf, err := newStartQuantityBuffer(FuncCodeReadCoils, startAddress, quantity)
	if err != nil {
		return nil, err
	}
	return &ReadCoilsRequest{buf: buf}, nil
}

func (r *ReadCoilsRequest) StartAddress() uint16 { v, _ := r.buf.Uint16BEAt(0); return v }
func (r *ReadCoilsRequest) Quantity() uint16     { v, _ := r.buf.Uint16BEAt(2); return v }
func (r *ReadCoilsRequest) Buffer() *Buffer      { return r.buf }

// ReadDiscreteInputsRequest is the 0x02 ReadDiscreteInputs request.
type ReadDiscreteInputsRequest struct{ buf *Buffer }

// NewReadDiscreteInputsRequest builds a ReadDiscreteInputs request. quantity
// must be in 1..=2000.
func NewReadDiscreteInputsRequest(startAddress, quantity uint16) (*ReadDiscreteInputsRequest, error) {
	if quantity < 1 || quantity > 2000 {
		return nil, fmt.Errorf("%w: quantity of inputs %d not in 1..=2000", ErrOutOfRange, quantity)
	}
	buf, err := newStartQuantityBuffer(FuncCodeReadDiscreteInputs, startAddress, quantity)
	if err != nil {
		return nil, err
	}
	return &ReadDiscreteInputsRequest{buf: buf}, nil
}

func (r *ReadDiscreteInputsRequest) StartAddress() uint16 { v, _ := r.buf.Uint16BEAt(0); return v }
func (r *ReadDiscreteInputsRequest) Quantity() uint16     { v, _ := r.buf.Uint16BEAt(2); return v }
func (r *ReadDiscreteInputsRequest) Buffer() *Buffer      { return r.buf }

// ReadHoldingRegistersRequest is the 0x03 ReadHoldingRegisters request.
type ReadHoldingRegistersRequest struct{ buf *Buffer }

// NewReadHoldingRegistersRequest builds a ReadHoldingRegisters request.
// quantity must be in 1..=125.
func NewReadHoldingRegistersRequest(startAddress, quantity uint16) (*ReadHoldingRegistersRequest, error) {
	if quantity < 1 || quantity > 125 {
		return nil, fmt.Errorf("%w: quantity of registers %d not in 1..=125", ErrOutOfRange, quantity)
	}
	buf, err := newStartQuantityBuffer(FuncCodeReadHoldingRegisters, startAddress, quantity)
	if err != nil {
		return nil, err
	}
	return &ReadHoldingRegistersRequest{buf: buf}, nil
}

func (r *ReadHoldingRegistersRequest) StartAddress() uint16 { v, _ := r.buf.Uint16BEAt(0); return v }
func (r *ReadHoldingRegistersRequest) Quantity() uint16     { v, _ := r.buf.Uint16BEAt(2); return v }
func (r *ReadHoldingRegistersRequest) Buffer() *Buffer      { return r.buf }

// ReadInputRegistersRequest is the 0x04 ReadInputRegisters request.
type ReadInputRegistersRequest struct{ buf *Buffer }

// NewReadInputRegistersRequest builds a ReadInputRegisters request. quantity
// must be in 1..=125.
func NewReadInputRegistersRequest(startAddress, quantity uint16) (*ReadInputRegistersRequest, error) {
	if quantity < 1 || quantity > 125 {
		return nil, fmt.Errorf("%w: quantity of registers %d not in 1..=125", ErrOutOfRange, quantity)
	}
	buf, err := newStartQuantityBuffer(FuncCodeReadInputRegisters, startAddress, quantity)
	if err != nil {
		return nil, err
	}
	return &ReadInputRegistersRequest{buf: buf}, nil
}

func (r *ReadInputRegistersRequest) StartAddress() uint16 { v, _ := r.buf.Uint16BEAt(0); return v }
func (r *ReadInputRegistersRequest) Quantity() uint16     { v, _ := r.buf.Uint16BEAt(2); return v }
func (r *ReadInputRegistersRequest) Buffer() *Buffer      { return r.buf }

// WriteSingleCoilRequest is the 0x05 WriteSingleCoil request. The ON/OFF
// state is encoded on the wire as 0xFF00/0x0000 (§4.B).
type WriteSingleCoilRequest struct{ buf *Buffer }

// NewWriteSingleCoilRequest builds a WriteSingleCoil request.
func NewWriteSingleCoilRequest(address uint16, on bool) (*WriteSingleCoilRequest, error) {
	value := uint16(0x0000)
	if on {
		value = 0xFF00
	}
	buf, err := newStartQuantityBuffer(FuncCodeWriteSingleCoil, address, value)
	if err != nil {
		return nil, err
	}
	return &WriteSingleCoilRequest{buf: buf}, nil
}

func (r *WriteSingleCoilRequest) Address() uint16 { v, _ := r.buf.Uint16BEAt(0); return v }

// On decodes the coil state: 0xFF00 -> true, anything else -> false.
func (r *WriteSingleCoilRequest) On() bool {
	v, _ := r.buf.Uint16BEAt(2)
	return v == 0xFF00
}
func (r *WriteSingleCoilRequest) Buffer() *Buffer { return r.buf }

// WriteSingleRegisterRequest is the 0x06 WriteSingleRegister request.
type WriteSingleRegisterRequest struct{ buf *Buffer }

// NewWriteSingleRegisterRequest builds a WriteSingleRegister request.
func NewWriteSingleRegisterRequest(address, value uint16) (*WriteSingleRegisterRequest, error) {
	buf, err := newStartQuantityBuffer(FuncCodeWriteSingleRegister, address, value)
	if err != nil {
		return nil, err
	}
	return &WriteSingleRegisterRequest{buf: buf}, nil
}

func (r *WriteSingleRegisterRequest) Address() uint16 { v, _ := r.buf.Uint16BEAt(0); return v }
func (r *WriteSingleRegisterRequest) Value() uint16   { v, _ := r.buf.Uint16BEAt(2); return v }
func (r *WriteSingleRegisterRequest) Buffer() *Buffer { return r.buf }

// UserDefinedRequest carries an arbitrary function code and payload for
// function codes this library does not model directly — the escape hatch
// named in spec.md §1.
type UserDefinedRequest struct{ buf *Buffer }

// NewUserDefinedRequest builds a request with the given function code and
// raw payload. data must be at most 252 bytes.
func NewUserDefinedRequest(functionCode byte, data []byte) (*UserDefinedRequest, error) {
	if len(data) > maxPduSize-1 {
		return nil, fmt.Errorf("%w: user-defined payload %d bytes exceeds %d", ErrOutOfRange, len(data), maxPduSize-1)
	}
	buf, err := NewBuffer(functionCode)
	if err != nil {
		return nil, err
	}
	if err := buf.PutBytes(data); err != nil {
		return nil, err
	}
	return &UserDefinedRequest{buf: buf}, nil
}

func (r *UserDefinedRequest) FunctionCode() byte { return r.buf.FunctionCode() }
func (r *UserDefinedRequest) Data() []byte       { return r.buf.Data() }
func (r *UserDefinedRequest) Buffer() *Buffer    { return r.buf }

// newStartQuantityBuffer is the common shape shared by every request whose
// payload is two big-endian uint16 fields following the function code.
func newStartQuantityBuffer(functionCode byte, a, b uint16) (*Buffer, error) {
	buf, err := NewBuffer(functionCode)
	if err != nil {
		return nil, err
	}
	if err := buf.PutUint16BE(a); err != nil {
		return nil, err
	}
	if err := buf.PutUint16BE(b); err != nil {
		return nil, err
	}
	return buf, nil
}
