// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1351

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"

	"tinygo.org/x/drivers"

	"github.com/GermanBionicSystems/oled/ssd1351/image565"
)

// frame is the buffered mode shared by Buffered and AsyncBuffered.
//
// img mirrors the controller RAM in logical (rotated) row-major order. last
// is a copy of what was last flushed successfully; nil forces the next
// changed-region flush to send the whole frame.
type frame struct {
	s          *session
	img        *image565.Image
	last       []byte
	background image565.RGB565
}

func newFrame(s *session, background image565.RGB565) *frame {
	f := &frame{
		s:          s,
		img:        image565.New(s.bounds()),
		background: background,
	}
	f.img.Fill(background)
	return f
}

// invalidate forgets what the controller holds.
func (f *frame) invalidate() {
	f.last = nil
}

// setPixel never performs I/O and does not depend on the session state.
func (f *frame) setPixel(x, y int, c image565.RGB565) error {
	if _, err := resolve(x, y, f.s.rotation, f.s.size); err != nil {
		return err
	}
	f.img.SetRGB565(x, y, c)
	return nil
}

func (f *frame) fillRect(r image.Rectangle, c image565.RGB565) error {
	if r.Empty() {
		return nil
	}
	if _, err := resolveRect(r, f.s.rotation, f.s.size); err != nil {
		return err
	}
	f.img.FillRect(r, c)
	return nil
}

// writeRegion copies raw row-major pixels into r. No I/O.
func (f *frame) writeRegion(r image.Rectangle, pix []byte) error {
	if _, err := f.s.checkRegion(r, pix); err != nil {
		return err
	}
	n := 2 * r.Dx()
	for y := 0; y < r.Dy(); y++ {
		copy(f.img.Pix[f.img.PixOffset(r.Min.X, r.Min.Y+y):], pix[y*n:(y+1)*n])
	}
	return nil
}

// clear leaves the buffer untouched when a requested flush cannot happen.
func (f *frame) clear(ctx context.Context, flush bool) error {
	if flush {
		if err := f.s.ready(); err != nil {
			return err
		}
	}
	f.img.Fill(f.background)
	if flush {
		return f.flush(ctx)
	}
	return nil
}

// flush sends the whole buffer as one data phase.
func (f *frame) flush(ctx context.Context) error {
	if err := f.s.ready(); err != nil {
		return err
	}
	w, err := resolveRect(f.img.Rect, f.s.rotation, f.s.size)
	if err != nil {
		return err
	}
	if err := f.s.writeWindow(ctx, w, f.img.Pix); err != nil {
		return err
	}
	f.remember()
	return nil
}

// flushChanged sends the smallest rectangle covering every pixel changed
// since the last flush.
func (f *frame) flushChanged(ctx context.Context) error {
	if err := f.s.ready(); err != nil {
		return err
	}
	if f.last == nil {
		return f.flush(ctx)
	}
	r := f.changed()
	if r.Empty() {
		return nil
	}
	if err := f.s.writeRegion(ctx, r, f.img.SubPix(r)); err != nil {
		return err
	}
	f.remember()
	return nil
}

func (f *frame) remember() {
	if f.last == nil {
		f.last = make([]byte, len(f.img.Pix))
	}
	copy(f.last, f.img.Pix)
}

// changed returns the bounding box of pixels differing from last.
func (f *frame) changed() image.Rectangle {
	w, h := f.img.Rect.Dx(), f.img.Rect.Dy()
	stride := f.img.Stride
	top, bottom := 0, h
	for ; top < bottom; top++ {
		i := top * stride
		if !bytes.Equal(f.last[i:i+stride], f.img.Pix[i:i+stride]) {
			break
		}
	}
	if top == bottom {
		return image.Rectangle{}
	}
	for ; bottom > top; bottom-- {
		i := (bottom - 1) * stride
		if !bytes.Equal(f.last[i:i+stride], f.img.Pix[i:i+stride]) {
			break
		}
	}
	left, right := 0, w
	for ; left < right; left++ {
		if !f.columnEqual(left, top, bottom) {
			break
		}
	}
	for ; right > left; right-- {
		if !f.columnEqual(right-1, top, bottom) {
			break
		}
	}
	return image.Rect(left, top, right, bottom)
}

func (f *frame) columnEqual(x, top, bottom int) bool {
	for y := top; y < bottom; y++ {
		i := f.img.PixOffset(x, y)
		if f.last[i] != f.img.Pix[i] || f.last[i+1] != f.img.Pix[i+1] {
			return false
		}
	}
	return true
}

func (f *frame) draw(ctx context.Context, r image.Rectangle, src image.Image, sp image.Point) error {
	if err := f.s.ready(); err != nil {
		return err
	}
	draw.Src.Draw(f.img, r, src, sp)
	return f.flushChanged(ctx)
}

// setRotation keeps the pixel bytes and reinterprets them with the new
// logical dimensions; the next changed-region flush sends the whole frame.
func (f *frame) setRotation(ctx context.Context, r Rotation) error {
	if err := f.s.setRotation(ctx, r); err != nil {
		return err
	}
	b := f.s.bounds()
	f.img.Rect = b
	f.img.Stride = 2 * b.Dx()
	f.invalidate()
	return nil
}

// displayer adapts a frame to the tinygo drivers.Displayer interface.
type displayer struct {
	f       *frame
	display func() error
}

// Size implements drivers.Displayer.
func (d displayer) Size() (x, y int16) {
	r := d.f.img.Rect
	return int16(r.Dx()), int16(r.Dy())
}

// SetPixel implements drivers.Displayer. Points outside the display are
// ignored.
func (d displayer) SetPixel(x, y int16, c color.RGBA) {
	d.f.img.SetRGB565(int(x), int(y), image565.FromRGB(c.R, c.G, c.B))
}

// Display implements drivers.Displayer.
func (d displayer) Display() error {
	return d.display()
}

var _ drivers.Displayer = displayer{}
