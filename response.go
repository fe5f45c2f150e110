// Copyright 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package modbus

// bitsResponse is the shared shape of ReadCoils and ReadDiscreteInputs
// responses: a byte count followed by that many bytes of packed bits.
type bitsResponse struct{ buf *Buffer }

// ByteCount returns the response's byte-count field (the first payload
// byte).
func (r *bitsResponse) ByteCount() (byte, bool) {
	return r.buf.Uint8At(0)
}

// BitIterator returns a fresh, finite iterator over the response's packed
// bits, LSB-first within each byte, across ByteCount bytes. Each call
// returns a new, non-restartable iterator.
func (r *bitsResponse) BitIterator() *BitIterator {
	count, _ := r.buf.Uint8At(0)
	return &BitIterator{buf: r.buf, total: int(count) * 8}
}

// BitIterator walks packed coil/discrete-input bits LSB-first within each
// byte. It is finite and not restartable; call BitIterator again on the
// response for a fresh pass.
type BitIterator struct {
	buf   *Buffer
	total int
	index int
}

// Next returns the next bit and true, or false once every byte in the
// response's byte-count region has been consumed.
func (it *BitIterator) Next() (bit bool, ok bool) {
	if it.index >= it.total {
		return false, false
	}
	byteIdx := it.index / 8
	bitIdx := uint(it.index % 8)
	v, present := it.buf.Uint8At(1 + byteIdx)
	if !present {
		return false, false
	}
	it.index++
	return (v>>bitIdx)&0x01 == 0x01, true
}

// ReadCoilsResponse is the 0x01 ReadCoils response.
type ReadCoilsResponse struct{ bitsResponse }

func newReadCoilsResponse(buf *Buffer) *ReadCoilsResponse {
	return &ReadCoilsResponse{bitsResponse{buf: buf}}
}

// ReadDiscreteInputsResponse is the 0x02 ReadDiscreteInputs response.
type ReadDiscreteInputsResponse struct{ bitsResponse }

func newReadDiscreteInputsResponse(buf *Buffer) *ReadDiscreteInputsResponse {
	return &ReadDiscreteInputsResponse{bitsResponse{buf: buf}}
}

// registersResponse is the shared shape of ReadHoldingRegisters and
// ReadInputRegisters responses: a byte count followed by that many bytes,
// decoded as big-endian uint16 values.
type registersResponse struct{ buf *Buffer }

// ByteCount returns the response's byte-count field.
func (r *registersResponse) ByteCount() (byte, bool) {
	return r.buf.Uint8At(0)
}

// Register returns the i-th register value, or false if i is past the end
// of the response. A half-register tail byte (an odd byte count) is never
// surfaced.
func (r *registersResponse) Register(i int) (uint16, bool) {
	return r.buf.Uint16BEAt(1 + i*2)
}

// RegisterIterator returns a fresh iterator over the response's register
// values, decoded big-endian in sequence.
func (r *registersResponse) RegisterIterator() *RegisterIterator {
	count, _ := r.buf.Uint8At(0)
	return &RegisterIterator{buf: r.buf, total: int(count) / 2}
}

// RegisterIterator walks big-endian register values in sequence. It is
// finite and not restartable.
type RegisterIterator struct {
	buf   *Buffer
	total int
	index int
}

// Next returns the next register value and true, or false once every
// register has been consumed.
func (it *RegisterIterator) Next() (value uint16, ok bool) {
	if it.index >= it.total {
		return 0, false
	}
	v, present := it.buf.Uint16BEAt(1 + it.index*2)
	if !present {
		return 0, false
	}
	it.index++
	return v, true
}

// ReadHoldingRegistersResponse is the 0x03 ReadHoldingRegisters response.
type ReadHoldingRegistersResponse struct{ registersResponse }

func newReadHoldingRegistersResponse(buf *Buffer) *ReadHoldingRegistersResponse {
	return &ReadHoldingRegistersResponse{registersResponse{buf: buf}}
}

// ReadInputRegistersResponse is the 0x04 ReadInputRegisters response.
type ReadInputRegistersResponse struct{ registersResponse }

func newReadInputRegistersResponse(buf *Buffer) *ReadInputRegistersResponse {
	return &ReadInputRegistersResponse{registersResponse{buf: buf}}
}

// WriteSingleCoilResponse is the 0x05 WriteSingleCoil echo response.
type WriteSingleCoilResponse struct{ buf *Buffer }

func newWriteSingleCoilResponse(buf *Buffer) *WriteSingleCoilResponse {
	return &WriteSingleCoilResponse{buf: buf}
}

func (r *WriteSingleCoilResponse) Address() uint16 { v, _ := r.buf.Uint16BEAt(0); return v }

// On decodes the echoed coil state: 0xFF00 -> true, anything else -> false.
func (r *WriteSingleCoilResponse) On() bool {
	v, _ := r.buf.Uint16BEAt(2)
	return v == 0xFF00
}

// WriteSingleRegisterResponse is the 0x06 WriteSingleRegister echo response.
type WriteSingleRegisterResponse struct{ buf *Buffer }

func newWriteSingleRegisterResponse(buf *Buffer) *WriteSingleRegisterResponse {
	return &WriteSingleRegisterResponse{buf: buf}
}

func (r *WriteSingleRegisterResponse) Address() uint16 { v, _ := r.buf.Uint16BEAt(0); return v }
func (r *WriteSingleRegisterResponse) Value() uint16   { v, _ := r.buf.Uint16BEAt(2); return v }

// UserDefinedResponse is the response counterpart of UserDefinedRequest. The
// caller supplies the function code it expects; ParseUserDefinedResponse
// checks the decoded PDU's function code (after exception-bit masking)
// against it.
type UserDefinedResponse struct{ buf *Buffer }

func (r *UserDefinedResponse) FunctionCode() byte { return r.buf.FunctionCode() }
func (r *UserDefinedResponse) Data() []byte       { return r.buf.Data() }

// ParseUserDefinedResponse decodes buf as a response to a user-defined
// request for expectedFunctionCode. It returns UnexpectedCodeError if the
// decoded (unmasked) function code doesn't match.
func ParseUserDefinedResponse(expectedFunctionCode byte, buf *Buffer) (*UserDefinedResponse, error) {
	got, _ := maskException(buf.FunctionCode())
	if got != expectedFunctionCode {
		return nil, &UnexpectedCodeError{Expected: expectedFunctionCode, Got: got}
	}
	return &UserDefinedResponse{buf: buf}, nil
}

// matchFunctionCode masks the exception bit off buf's function code and
// compares it against requestFunctionCode. If the exception bit was set it
// returns the decoded *ExceptionResponse instead of an error — a
// server-reported exception is not a wire error (§7); the caller decides how
// to treat it. Every typed Client method in client.go calls this before
// constructing its specific response type.
func matchFunctionCode(requestFunctionCode byte, buf *Buffer) (exc *ExceptionResponse, err error) {
	got, isException := maskException(buf.FunctionCode())
	if isException {
		exc, err = exceptionResponseFromBuffer(buf)
		return exc, err
	}
	if got != requestFunctionCode {
		return nil, &UnexpectedCodeError{Expected: requestFunctionCode, Got: got}
	}
	return nil, nil
}
