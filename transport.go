// Copyright 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package modbus

import "context"

// Transport abstracts the two suspension points a Modbus client needs:
// writing a request PDU and awaiting the matching response PDU. A
// Transport is owned exclusively by one Client; concurrent calls on a
// single instance are forbidden (§5) and are not defended against beyond
// documentation.
//
// Implementations include the RTU serial driver in this package and, for
// tests, in-memory doubles; a TCP driver is an external collaborator
// outside this module's scope (spec.md §1).
type Transport interface {
	// Send transmits pdu and returns once the bytes have been handed to
	// the underlying medium.
	Send(ctx context.Context, pdu *Buffer) error
	// Recv blocks until a complete response PDU has been framed, ctx is
	// canceled, or framing fails.
	Recv(ctx context.Context) (*Buffer, error)
}
