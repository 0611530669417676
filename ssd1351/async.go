// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1351

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"periph.io/x/conn/v3/gpio"
	"tinygo.org/x/drivers"

	"github.com/GermanBionicSystems/oled/ssd1351/image565"
)

// AsyncDev is the context-aware form of Dev.
//
// Each method waits on the transport, or on a timer for Reset, until ctx is
// done. Validation and state checks are the same as Dev's and happen before
// any I/O. When ctx is done mid-operation the error of the transport is
// returned and the state is left unchanged; the next write re-issues its
// window.
type AsyncDev struct {
	s *session
}

// NewAsync returns an AsyncDev writing through t. No I/O is done.
func NewAsync(t AsyncTransport, opts *Opts) (*AsyncDev, error) {
	o, err := validateOpts(opts)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("ssd1351: nil transport: %w", ErrInvalidOpts)
	}
	return &AsyncDev{s: newSession(t, o)}, nil
}

func (d *AsyncDev) String() string {
	return d.s.describe("AsyncDev")
}

// ColorModel returns the native color model.
func (d *AsyncDev) ColorModel() color.Model {
	return image565.Model
}

// Bounds returns the logical size. Min is guaranteed to be {0, 0}.
func (d *AsyncDev) Bounds() image.Rectangle {
	return d.s.bounds()
}

// Size returns the panel geometry.
func (d *AsyncDev) Size() Size {
	return d.s.size
}

// Rotation returns the current rotation.
func (d *AsyncDev) Rotation() Rotation {
	return d.s.rotation
}

// State returns the session state.
func (d *AsyncDev) State() State {
	return d.s.state
}

// Reset pulses the hardware reset line, waiting the settle times on a timer.
func (d *AsyncDev) Reset(ctx context.Context, rst gpio.PinOut) error {
	return d.s.reset(ctx, rst, sleepContext)
}

// Init is Dev.Init.
func (d *AsyncDev) Init(ctx context.Context) error {
	return d.s.init(ctx)
}

// SetPixel is Dev.SetPixel.
func (d *AsyncDev) SetPixel(ctx context.Context, x, y int, c Color) error {
	return d.s.setPixel(ctx, x, y, c)
}

// FillRect is Dev.FillRect.
func (d *AsyncDev) FillRect(ctx context.Context, r image.Rectangle, c Color) error {
	return d.s.fillRect(ctx, r, c)
}

// WriteRegion is Dev.WriteRegion.
func (d *AsyncDev) WriteRegion(ctx context.Context, r image.Rectangle, pix []byte) error {
	return d.s.writeRegion(ctx, r, pix)
}

// Clear is Dev.Clear.
func (d *AsyncDev) Clear(ctx context.Context, c Color) error {
	return d.s.clear(ctx, c)
}

// Draw is Dev.Draw.
func (d *AsyncDev) Draw(ctx context.Context, r image.Rectangle, src image.Image, sp image.Point) error {
	return d.s.draw(ctx, r, src, sp)
}

// Sleep is Dev.Sleep.
func (d *AsyncDev) Sleep(ctx context.Context) error {
	return d.s.sleep(ctx)
}

// Wake is Dev.Wake.
func (d *AsyncDev) Wake(ctx context.Context) error {
	return d.s.wake(ctx)
}

// Halt is Dev.Halt.
func (d *AsyncDev) Halt(ctx context.Context) error {
	return d.s.halt(ctx)
}

// SetRotation is Dev.SetRotation.
func (d *AsyncDev) SetRotation(ctx context.Context, r Rotation) error {
	return d.s.setRotation(ctx, r)
}

// SetContrast is Dev.SetContrast.
func (d *AsyncDev) SetContrast(ctx context.Context, level byte) error {
	return d.s.setContrast(ctx, level)
}

// Invert is Dev.Invert.
func (d *AsyncDev) Invert(ctx context.Context, blackOnWhite bool) error {
	return d.s.invert(ctx, blackOnWhite)
}

// AsyncBuffered is the context-aware form of Buffered.
type AsyncBuffered struct {
	AsyncDev
	f *frame
}

// NewAsyncBuffered returns an AsyncBuffered writing through t.
func NewAsyncBuffered(t AsyncTransport, opts *Opts) (*AsyncBuffered, error) {
	d, err := NewAsync(t, opts)
	if err != nil {
		return nil, err
	}
	o, _ := validateOpts(opts)
	return &AsyncBuffered{AsyncDev: *d, f: newFrame(d.s, o.Background)}, nil
}

func (b *AsyncBuffered) String() string {
	return b.s.describe("AsyncBuffered")
}

// Reset is AsyncDev.Reset. The next FlushChanged sends the whole frame.
func (b *AsyncBuffered) Reset(ctx context.Context, rst gpio.PinOut) error {
	if err := b.AsyncDev.Reset(ctx, rst); err != nil {
		return err
	}
	b.f.invalidate()
	return nil
}

// Init is AsyncDev.Init. The next FlushChanged sends the whole frame.
func (b *AsyncBuffered) Init(ctx context.Context) error {
	if err := b.AsyncDev.Init(ctx); err != nil {
		return err
	}
	b.f.invalidate()
	return nil
}

// SetPixel is Buffered.SetPixel. It never waits and takes no context.
func (b *AsyncBuffered) SetPixel(x, y int, c Color) error {
	return b.f.setPixel(x, y, c)
}

// FillRect is Buffered.FillRect.
func (b *AsyncBuffered) FillRect(r image.Rectangle, c Color) error {
	return b.f.fillRect(r, c)
}

// WriteRegion is Buffered.WriteRegion.
func (b *AsyncBuffered) WriteRegion(r image.Rectangle, pix []byte) error {
	return b.f.writeRegion(r, pix)
}

// Fill is Buffered.Fill.
func (b *AsyncBuffered) Fill(c Color) {
	b.f.img.Fill(c)
}

// Clear is Buffered.Clear.
func (b *AsyncBuffered) Clear(ctx context.Context, flush bool) error {
	return b.f.clear(ctx, flush)
}

// Flush is Buffered.Flush.
func (b *AsyncBuffered) Flush(ctx context.Context) error {
	return b.f.flush(ctx)
}

// FlushChanged is Buffered.FlushChanged.
func (b *AsyncBuffered) FlushChanged(ctx context.Context) error {
	return b.f.flushChanged(ctx)
}

// Draw is Buffered.Draw.
func (b *AsyncBuffered) Draw(ctx context.Context, r image.Rectangle, src image.Image, sp image.Point) error {
	return b.f.draw(ctx, r, src, sp)
}

// SetRotation is Buffered.SetRotation.
func (b *AsyncBuffered) SetRotation(ctx context.Context, r Rotation) error {
	return b.f.setRotation(ctx, r)
}

// Image returns the framebuffer.
func (b *AsyncBuffered) Image() *image565.Image {
	return b.f.img
}

// Displayer returns a tinygo drivers.Displayer view of the framebuffer.
// Display flushes with ctx.
func (b *AsyncBuffered) Displayer(ctx context.Context) drivers.Displayer {
	return displayer{f: b.f, display: func() error { return b.Flush(ctx) }}
}
