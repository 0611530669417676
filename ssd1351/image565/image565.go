// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package image565 implements a 16-bit 5-6-5 RGB image format matching the
// SSD1351 65k color mode.
//
// Pixels are stored row-major, two bytes per pixel, most significant byte
// first, which is the exact order the controller expects in its data phase.
package image565

import (
	"image"
	"image/color"
	"image/draw"
)

// RGB565 is a 16-bit color: 5 bits red, 6 bits green, 5 bits blue.
type RGB565 uint16

// Common colors.
const (
	Black RGB565 = 0x0000
	White RGB565 = 0xFFFF
	Red   RGB565 = 0xF800
	Green RGB565 = 0x07E0
	Blue  RGB565 = 0x001F
)

// FromRGB packs 8-bit components.
func FromRGB(r, g, b uint8) RGB565 {
	return RGB565(uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3))
}

// RGBA implements color.Color.
func (c RGB565) RGBA() (r, g, b, a uint32) {
	// Build a 5- or 6-bit value at the top of the low byte of each component.
	red := uint32(c&0xF800) >> 8
	grn := uint32(c&0x07E0) >> 3
	blu := uint32(c&0x001F) << 3
	// Duplicate the high bits in the low bits.
	red |= red >> 5
	grn |= grn >> 6
	blu |= blu >> 5
	// Duplicate the whole value in the high byte.
	red |= red << 8
	grn |= grn << 8
	blu |= blu << 8
	return red, grn, blu, 0xffff
}

// RGBA8 returns the color as 8-bit components with full opacity.
func (c RGB565) RGBA8() color.RGBA {
	r, g, b, _ := c.RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 0xff}
}

func convert(c color.Color) color.Color {
	switch c := c.(type) {
	case RGB565:
		return c
	case color.RGBA:
		return FromRGB(c.R, c.G, c.B)
	default:
		r, g, b, _ := c.RGBA()
		return RGB565(r&0xF800 | (g&0xFC00)>>5 | (b&0xF800)>>11)
	}
}

// Model converts colors to RGB565.
var Model = color.ModelFunc(convert)

// Image is an in-memory image of RGB565 pixels.
type Image struct {
	// Pix holds the pixels, big-endian, row-major.
	Pix []byte
	// Stride is the byte distance between vertically adjacent pixels.
	Stride int
	// Rect is the image bounds.
	Rect image.Rectangle
}

// New returns an Image with the given bounds, all pixels black.
func New(r image.Rectangle) *Image {
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return &Image{Rect: r}
	}
	return &Image{
		Pix:    make([]byte, 2*w*h),
		Stride: 2 * w,
		Rect:   r,
	}
}

// ColorModel implements image.Image.
func (p *Image) ColorModel() color.Model {
	return Model
}

// Bounds implements image.Image.
func (p *Image) Bounds() image.Rectangle {
	return p.Rect
}

// At implements image.Image.
func (p *Image) At(x, y int) color.Color {
	return p.RGB565At(x, y)
}

// RGB565At returns the pixel at (x, y), or black outside the bounds.
func (p *Image) RGB565At(x, y int) RGB565 {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return Black
	}
	i := p.PixOffset(x, y)
	return RGB565(p.Pix[i])<<8 | RGB565(p.Pix[i+1])
}

// Set implements draw.Image.
func (p *Image) Set(x, y int, c color.Color) {
	p.SetRGB565(x, y, Model.Convert(c).(RGB565))
}

// SetRGB565 sets the pixel at (x, y). Points outside the bounds are ignored.
func (p *Image) SetRGB565(x, y int, c RGB565) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	i := p.PixOffset(x, y)
	p.Pix[i] = byte(c >> 8)
	p.Pix[i+1] = byte(c)
}

// PixOffset returns the index of the first byte of the pixel at (x, y).
func (p *Image) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*2
}

// Fill sets every pixel to c.
func (p *Image) Fill(c RGB565) {
	hi, lo := byte(c>>8), byte(c)
	for i := 0; i+1 < len(p.Pix); i += 2 {
		p.Pix[i] = hi
		p.Pix[i+1] = lo
	}
}

// FillRect sets every pixel of r, clipped to the bounds, to c.
func (p *Image) FillRect(r image.Rectangle, c RGB565) {
	r = r.Intersect(p.Rect)
	hi, lo := byte(c>>8), byte(c)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := p.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x++ {
			p.Pix[i] = hi
			p.Pix[i+1] = lo
			i += 2
		}
	}
}

// SubPix returns a copy of the pixel bytes of r, clipped to the bounds, in
// row-major order.
func (p *Image) SubPix(r image.Rectangle) []byte {
	r = r.Intersect(p.Rect)
	if r.Empty() {
		return nil
	}
	row := 2 * r.Dx()
	out := make([]byte, 0, row*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := p.PixOffset(r.Min.X, y)
		out = append(out, p.Pix[i:i+row]...)
	}
	return out
}

var _ draw.Image = (*Image)(nil)
