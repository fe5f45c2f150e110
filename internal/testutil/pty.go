// Copyright 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris
// +build darwin dragonfly freebsd linux netbsd openbsd solaris

// Package testutil provides a real pseudo-terminal pair for byte-by-byte
// timing tests of the RTU inter-character state machine, where a fake
// io.Reader can't reproduce actual OS scheduling jitter.
package testutil

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/creack/pty"
)

// PtyPair is a pseudo-terminal pair: Slave is opened as a go.bug.st/serial
// port by the transport under test, Master is driven directly by the test
// to inject bytes at controlled intervals.
type PtyPair struct {
	mu         sync.Mutex
	Master     *os.File
	Slave      *os.File
	MasterPath string
	SlavePath  string
}

// NewPtyPair opens a fresh master/slave pty pair.
func NewPtyPair() (*PtyPair, error) {
	master, slave, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("opening pty: %w", err)
	}
	return &PtyPair{
		Master:     master,
		Slave:      slave,
		MasterPath: master.Name(),
		SlavePath:  slave.Name(),
	}, nil
}

// Close closes both ends of the pair.
func (p *PtyPair) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	if p.Master != nil {
		if e := p.Master.Close(); e != nil && err == nil {
			err = e
		}
		p.Master = nil
	}
	if p.Slave != nil {
		if e := p.Slave.Close(); e != nil && err == nil {
			err = e
		}
		p.Slave = nil
	}
	return err
}

// WriteByteAt blocks until deadline, then writes b to the master side —
// used to drip-feed a frame with deliberate inter-character gaps.
func (p *PtyPair) WriteByteAt(b byte, deadline time.Time) error {
	time.Sleep(time.Until(deadline))
	p.mu.Lock()
	master := p.Master
	p.mu.Unlock()
	if master == nil {
		return os.ErrClosed
	}
	_, err := master.Write([]byte{b})
	return err
}

// Write writes to the master side immediately.
func (p *PtyPair) Write(b []byte) (int, error) {
	p.mu.Lock()
	master := p.Master
	p.mu.Unlock()
	if master == nil {
		return 0, os.ErrClosed
	}
	return master.Write(b)
}
