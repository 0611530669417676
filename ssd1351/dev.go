// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1351

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/spi"
	"tinygo.org/x/drivers"

	"github.com/GermanBionicSystems/oled/ssd1351/image565"
)

// Color is the native 16 bits 5-6-5 pixel value.
type Color = image565.RGB565

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	Size:       Size128x128,
	Rotation:   Rotate0,
	Background: image565.Black,
}

// Opts defines the options for the device.
type Opts struct {
	Size     Size
	Rotation Rotation
	// Background is the color the framebuffer is cleared to. It is not used
	// by Dev.
	Background Color
}

// validateOpts returns DefaultOpts for nil.
func validateOpts(opts *Opts) (*Opts, error) {
	if opts == nil {
		o := DefaultOpts
		return &o, nil
	}
	if !opts.Size.valid() {
		return nil, fmt.Errorf("ssd1351: unsupported size %s: %w", opts.Size, ErrInvalidOpts)
	}
	if !opts.Rotation.valid() {
		return nil, fmt.Errorf("ssd1351: unsupported rotation %s: %w", opts.Rotation, ErrInvalidOpts)
	}
	return opts, nil
}

// Dev is an open handle to the display controller writing directly to the
// controller RAM.
//
// Every call blocks until the transport completes. Dev is not safe for
// concurrent use.
type Dev struct {
	s *session
}

// New returns a Dev writing through t. No I/O is done; call Init before
// drawing.
func New(t Transport, opts *Opts) (*Dev, error) {
	o, err := validateOpts(opts)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("ssd1351: nil transport: %w", ErrInvalidOpts)
	}
	return &Dev{s: newSession(syncLink{t}, o)}, nil
}

// NewSPI returns a Dev object that communicates over SPI to a SSD1351
// display controller.
//
// The SSD1351 can operate at up to 20MHz. dc is the data/command select
// pin and must be valid.
func NewSPI(p spi.Port, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	if _, err := validateOpts(opts); err != nil {
		return nil, err
	}
	t, err := ConnectSPI(p, dc)
	if err != nil {
		return nil, err
	}
	return New(t, opts)
}

func (d *Dev) String() string {
	return d.s.describe("Dev")
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return image565.Model
}

// Bounds implements display.Drawer. Min is guaranteed to be {0, 0}.
func (d *Dev) Bounds() image.Rectangle {
	return d.s.bounds()
}

// Size returns the panel geometry.
func (d *Dev) Size() Size {
	return d.s.size
}

// Rotation returns the current rotation.
func (d *Dev) Rotation() Rotation {
	return d.s.rotation
}

// State returns the session state.
func (d *Dev) State() State {
	return d.s.state
}

// Reset pulses the hardware reset line. delay is used for the settle times;
// nil means time.Sleep.
//
// After a successful reset the controller lost its configuration and Init
// must be called again.
func (d *Dev) Reset(rst gpio.PinOut, delay func(time.Duration)) error {
	return d.s.reset(context.Background(), rst, delayWait(delay))
}

// Init sends the power-on configuration, clears the RAM to black and turns
// the display on.
func (d *Dev) Init() error {
	return d.s.init(context.Background())
}

// SetPixel writes a single pixel.
func (d *Dev) SetPixel(x, y int, c Color) error {
	return d.s.setPixel(context.Background(), x, y, c)
}

// FillRect fills r with c in a single transfer. An empty r sends nothing.
func (d *Dev) FillRect(r image.Rectangle, c Color) error {
	return d.s.fillRect(context.Background(), r, c)
}

// WriteRegion writes raw pixels to r. pix must hold r.Dx()*r.Dy() big
// endian RGB565 pixels in row-major order.
func (d *Dev) WriteRegion(r image.Rectangle, pix []byte) error {
	return d.s.writeRegion(context.Background(), r, pix)
}

// Clear fills the whole display with c.
func (d *Dev) Clear(c Color) error {
	return d.s.clear(context.Background(), c)
}

// Draw implements display.Drawer.
//
// src is converted to RGB565 and r is written in a single transfer.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	return d.s.draw(context.Background(), r, src, sp)
}

// Sleep turns the display off. The RAM content is kept.
func (d *Dev) Sleep() error {
	return d.s.sleep(context.Background())
}

// Wake turns the display back on after Sleep.
func (d *Dev) Wake() error {
	return d.s.wake(context.Background())
}

// Halt implements conn.Resource.
//
// It turns the display off when it is on.
func (d *Dev) Halt() error {
	return d.s.halt(context.Background())
}

// SetRotation changes the rotation of subsequent writes. Content already on
// the display is not redrawn.
func (d *Dev) SetRotation(r Rotation) error {
	return d.s.setRotation(context.Background(), r)
}

// SetContrast sets the master current, from 0 to 15.
func (d *Dev) SetContrast(level byte) error {
	return d.s.setContrast(context.Background(), level)
}

// Invert the display (black on white vs white on black).
func (d *Dev) Invert(blackOnWhite bool) error {
	return d.s.invert(context.Background(), blackOnWhite)
}

// Buffered is a Dev drawing into a local framebuffer. Only Flush,
// FlushChanged, Clear(true) and Draw do I/O.
type Buffered struct {
	Dev
	f *frame
}

// NewBuffered returns a Buffered writing through t.
func NewBuffered(t Transport, opts *Opts) (*Buffered, error) {
	d, err := New(t, opts)
	if err != nil {
		return nil, err
	}
	o, _ := validateOpts(opts)
	return &Buffered{Dev: *d, f: newFrame(d.s, o.Background)}, nil
}

func (b *Buffered) String() string {
	return b.s.describe("Buffered")
}

// Reset is Dev.Reset. The next FlushChanged sends the whole frame.
func (b *Buffered) Reset(rst gpio.PinOut, delay func(time.Duration)) error {
	if err := b.Dev.Reset(rst, delay); err != nil {
		return err
	}
	b.f.invalidate()
	return nil
}

// Init is Dev.Init. The framebuffer is left as is; the next FlushChanged
// sends the whole frame.
func (b *Buffered) Init() error {
	if err := b.Dev.Init(); err != nil {
		return err
	}
	b.f.invalidate()
	return nil
}

// SetPixel sets a pixel in the framebuffer. It does no I/O.
func (b *Buffered) SetPixel(x, y int, c Color) error {
	return b.f.setPixel(x, y, c)
}

// FillRect fills r in the framebuffer. It does no I/O.
func (b *Buffered) FillRect(r image.Rectangle, c Color) error {
	return b.f.fillRect(r, c)
}

// WriteRegion copies raw pixels into r of the framebuffer. pix must hold
// r.Dx()*r.Dy() big endian RGB565 pixels in row-major order. It does no I/O;
// the next FlushChanged sends the region.
func (b *Buffered) WriteRegion(r image.Rectangle, pix []byte) error {
	return b.f.writeRegion(r, pix)
}

// Fill sets every pixel of the framebuffer to c. It does no I/O.
func (b *Buffered) Fill(c Color) {
	b.f.img.Fill(c)
}

// Clear resets the framebuffer to the background color and flushes it when
// flush is true. When flush is true and the display is not ready, the
// framebuffer is left untouched.
func (b *Buffered) Clear(flush bool) error {
	return b.f.clear(context.Background(), flush)
}

// Flush sends the whole framebuffer in a single transfer.
func (b *Buffered) Flush() error {
	return b.f.flush(context.Background())
}

// FlushChanged sends the smallest rectangle holding every pixel changed
// since the last flush. Nothing is sent when nothing changed.
func (b *Buffered) FlushChanged() error {
	return b.f.flushChanged(context.Background())
}

// Draw implements display.Drawer.
//
// src is drawn into the framebuffer then the changed area is flushed.
func (b *Buffered) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	return b.f.draw(context.Background(), r, src, sp)
}

// SetRotation is Dev.SetRotation. The framebuffer keeps its bytes under the
// new dimensions and the next FlushChanged sends the whole frame.
func (b *Buffered) SetRotation(r Rotation) error {
	return b.f.setRotation(context.Background(), r)
}

// Image returns the framebuffer.
func (b *Buffered) Image() *image565.Image {
	return b.f.img
}

// Displayer returns a tinygo drivers.Displayer view of the framebuffer.
// Display is Flush.
func (b *Buffered) Displayer() drivers.Displayer {
	return displayer{f: b.f, display: b.Flush}
}

var (
	_ conn.Resource  = &Dev{}
	_ display.Drawer = &Dev{}
	_ display.Drawer = &Buffered{}
)
