// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1351

import (
	"context"
	"fmt"
	"log"
	"os"

	"golang.org/x/sync/semaphore"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

var debug = os.Getenv("SSD1351_DEBUG") != ""

// Transport sends command and data phases to the controller, blocking until
// each transfer completes.
//
// Errors are returned to the caller unchanged; retrying is left to the
// transport.
type Transport interface {
	SendCommands(cmd []byte) error
	SendData(data []byte) error
}

// AsyncTransport is the context-aware form of Transport. A call may be
// abandoned when ctx is done, in which case the controller address pointer
// is unspecified until the next window is set.
type AsyncTransport interface {
	SendCommands(ctx context.Context, cmd []byte) error
	SendData(ctx context.Context, data []byte) error
}

// Async returns an AsyncTransport issuing each phase on t once ctx is
// checked. It is the suspending binding for buses without native
// cancellation.
func Async(t Transport) AsyncTransport {
	return &asyncTransport{t: t}
}

type asyncTransport struct {
	t Transport
}

func (a *asyncTransport) SendCommands(ctx context.Context, cmd []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.t.SendCommands(cmd)
}

func (a *asyncTransport) SendData(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.t.SendData(data)
}

// Shared returns an AsyncTransport holding lock while each phase is issued
// on t, so that sessions on different chip selects can share a bus.
//
// lock must be created by the caller with semaphore.NewWeighted(1) and
// passed to every session on the bus. Waiting for the lock is a suspension
// point.
func Shared(t Transport, lock *semaphore.Weighted) AsyncTransport {
	return &sharedTransport{t: t, lock: lock}
}

type sharedTransport struct {
	t    Transport
	lock *semaphore.Weighted
}

func (s *sharedTransport) SendCommands(ctx context.Context, cmd []byte) error {
	if err := s.lock.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.lock.Release(1)
	return s.t.SendCommands(cmd)
}

func (s *sharedTransport) SendData(ctx context.Context, data []byte) error {
	if err := s.lock.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.lock.Release(1)
	return s.t.SendData(data)
}

// syncLink binds a blocking Transport to the session. Contexts are never
// done on this path.
type syncLink struct {
	t Transport
}

func (l syncLink) SendCommands(_ context.Context, cmd []byte) error { return l.t.SendCommands(cmd) }
func (l syncLink) SendData(_ context.Context, data []byte) error   { return l.t.SendData(data) }

// SPIMode is the bus mode of the SSD1351 4-wire serial interface: clock
// idle low, data captured on the first edge.
const SPIMode = spi.Mode0

// SPIFrequency is the maximum serial clock (50ns cycle time).
const SPIFrequency = 20 * physic.MegaHertz

// SPI is a 4-wire SPI Transport: the D/C pin is driven low for command
// phases and high for data phases.
type SPI struct {
	c     conn.Conn
	dc    gpio.PinOut
	maxTx int
}

// NewSPITransport returns a Transport on an already connected SPI conn.
func NewSPITransport(c conn.Conn, dc gpio.PinOut) (*SPI, error) {
	if dc == nil || dc == gpio.INVALID {
		return nil, fmt.Errorf("ssd1351: data/command (DC) GPIO pin is invalid: %w", ErrInvalidOpts)
	}
	t := &SPI{c: c, dc: dc}
	if l, ok := c.(conn.Limits); ok {
		t.maxTx = l.MaxTxSize()
	}
	return t, nil
}

// ConnectSPI connects p with the controller's bus parameters and returns the
// Transport.
func ConnectSPI(p spi.Port, dc gpio.PinOut) (*SPI, error) {
	if dc == nil || dc == gpio.INVALID {
		return nil, fmt.Errorf("ssd1351: data/command (DC) GPIO pin is invalid: %w", ErrInvalidOpts)
	}
	if err := dc.Out(gpio.Low); err != nil {
		return nil, err
	}
	c, err := p.Connect(SPIFrequency, SPIMode, 8)
	if err != nil {
		return nil, err
	}
	return NewSPITransport(c, dc)
}

func (t *SPI) String() string {
	return fmt.Sprintf("ssd1351.SPI{%s, %s}", t.c, t.dc)
}

// SendCommands implements Transport.
func (t *SPI) SendCommands(cmd []byte) error {
	if err := t.dc.Out(gpio.Low); err != nil {
		return err
	}
	return t.write(cmd)
}

// SendData implements Transport.
func (t *SPI) SendData(data []byte) error {
	if err := t.dc.Out(gpio.High); err != nil {
		return err
	}
	return t.write(data)
}

// write splits b in transfers no larger than the conn accepts.
func (t *SPI) write(b []byte) error {
	if t.maxTx <= 0 || len(b) <= t.maxTx {
		return t.c.Tx(b, nil)
	}
	if debug {
		log.Printf("ssd1351: write %d bytes in %d chunks", len(b), (len(b)+t.maxTx-1)/t.maxTx)
	}
	for len(b) > 0 {
		n := t.maxTx
		if n > len(b) {
			n = len(b)
		}
		if err := t.c.Tx(b[:n], nil); err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

var (
	_ Transport      = (*SPI)(nil)
	_ AsyncTransport = (*asyncTransport)(nil)
	_ AsyncTransport = (*sharedTransport)(nil)
	_ AsyncTransport = syncLink{}
)
