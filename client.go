// Copyright 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package modbus

import (
	"context"
	"fmt"
)

// Client issues typed Modbus requests over a Transport and interprets the
// matching typed response. One method per modeled function (0x01..0x06),
// plus UserDefinedRequest for any other function code, per §4.D; each
// method validates its own inputs, sends, receives, and either returns a
// typed response, an *ExceptionResponse, or an error.
//
// A Client owns its Transport exclusively. Concurrent calls on one Client
// are forbidden and are not defended against beyond this documentation
// (§5) — the bus is half-duplex and send/recv pairs do not interleave.
type Client struct {
	transport Transport
}

// NewClient creates a Client backed by the given Transport.
func NewClient(transport Transport) *Client {
	return &Client{transport: transport}
}

// roundTrip sends pdu and returns the raw response buffer, without
// interpreting it as any particular typed response yet.
func (c *Client) roundTrip(ctx context.Context, pdu *Buffer) (*Buffer, error) {
	if err := c.transport.Send(ctx, pdu); err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	resp, err := c.transport.Recv(ctx)
	if err != nil {
		return nil, fmt.Errorf("receiving response: %w", err)
	}
	return resp, nil
}

// ReadCoils reads 1..=2000 contiguous coils starting at startAddress (0x01).
func (c *Client) ReadCoils(ctx context.Context, startAddress, quantity uint16) (*ReadCoilsResponse, *ExceptionResponse, error) {
	req, err := NewReadCoilsRequest(startAddress, quantity)
	if err != nil {
		return nil, nil, err
	}
	resp, err := c.roundTrip(ctx, req.Buffer())
	if err != nil {
		return nil, nil, err
	}
	exc, err := matchFunctionCode(FuncCodeReadCoils, resp)
	if exc != nil || err != nil {
		return nil, exc, err
	}
	return newReadCoilsResponse(resp), nil, nil
}

// ReadDiscreteInputs reads 1..=2000 contiguous discrete inputs starting at
// startAddress (0x02).
func (c *Client) ReadDiscreteInputs(ctx context.Context, startAddress, quantity uint16) (*ReadDiscreteInputsResponse, *ExceptionResponse, error) {
	req, err := NewReadDiscreteInputsRequest(startAddress, quantity)
	if err != nil {
		return nil, nil, err
	}
	resp, err := c.roundTrip(ctx, req.Buffer())
	if err != nil {
		return nil, nil, err
	}
	exc, err := matchFunctionCode(FuncCodeReadDiscreteInputs, resp)
	if exc != nil || err != nil {
		return nil, exc, err
	}
	return newReadDiscreteInputsResponse(resp), nil, nil
}

// ReadHoldingRegisters reads 1..=125 contiguous holding registers starting
// at startAddress (0x03).
func (c *Client) ReadHoldingRegisters(ctx context.Context, startAddress, quantity uint16) (*ReadHoldingRegistersResponse, *ExceptionResponse, error) {
	req, err := NewReadHoldingRegistersRequest(startAddress, quantity)
	if err != nil {
		return nil, nil, err
	}
	resp, err := c.roundTrip(ctx, req.Buffer())
	if err != nil {
		return nil, nil, err
	}
	exc, err := matchFunctionCode(FuncCodeReadHoldingRegisters, resp)
	if exc != nil || err != nil {
		return nil, exc, err
	}
	return newReadHoldingRegistersResponse(resp), nil, nil
}

// ReadInputRegisters reads 1..=125 contiguous input registers starting at
// startAddress (0x04).
func (c *Client) ReadInputRegisters(ctx context.Context, startAddress, quantity uint16) (*ReadInputRegistersResponse, *ExceptionResponse, error) {
	req, err := NewReadInputRegistersRequest(startAddress, quantity)
	if err != nil {
		return nil, nil, err
	}
	resp, err := c.roundTrip(ctx, req.Buffer())
	if err != nil {
		return nil, nil, err
	}
	exc, err := matchFunctionCode(FuncCodeReadInputRegisters, resp)
	if exc != nil || err != nil {
		return nil, exc, err
	}
	return newReadInputRegistersResponse(resp), nil, nil
}

// WriteSingleCoil sets the coil at address to on/off (0x05).
func (c *Client) WriteSingleCoil(ctx context.Context, address uint16, on bool) (*WriteSingleCoilResponse, *ExceptionResponse, error) {
	req, err := NewWriteSingleCoilRequest(address, on)
	if err != nil {
		return nil, nil, err
	}
	resp, err := c.roundTrip(ctx, req.Buffer())
	if err != nil {
		return nil, nil, err
	}
	exc, err := matchFunctionCode(FuncCodeWriteSingleCoil, resp)
	if exc != nil || err != nil {
		return nil, exc, err
	}
	return newWriteSingleCoilResponse(resp), nil, nil
}

// WriteSingleRegister writes value to the holding register at address
// (0x06).
func (c *Client) WriteSingleRegister(ctx context.Context, address, value uint16) (*WriteSingleRegisterResponse, *ExceptionResponse, error) {
	req, err := NewWriteSingleRegisterRequest(address, value)
	if err != nil {
		return nil, nil, err
	}
	resp, err := c.roundTrip(ctx, req.Buffer())
	if err != nil {
		return nil, nil, err
	}
	exc, err := matchFunctionCode(FuncCodeWriteSingleRegister, resp)
	if exc != nil || err != nil {
		return nil, exc, err
	}
	return newWriteSingleRegisterResponse(resp), nil, nil
}

// UserDefinedRequest issues a request for a function code this library
// doesn't model directly, verifying that the response's (unmasked)
// function code matches what was sent.
func (c *Client) UserDefinedRequest(ctx context.Context, functionCode byte, data []byte) (*UserDefinedResponse, *ExceptionResponse, error) {
	req, err := NewUserDefinedRequest(functionCode, data)
	if err != nil {
		return nil, nil, err
	}
	resp, err := c.roundTrip(ctx, req.Buffer())
	if err != nil {
		return nil, nil, err
	}
	exc, err := matchFunctionCode(functionCode, resp)
	if exc != nil {
		return nil, exc, nil
	}
	if err != nil {
		return nil, nil, err
	}
	userResp, err := ParseUserDefinedResponse(functionCode, resp)
	return userResp, nil, err
}
