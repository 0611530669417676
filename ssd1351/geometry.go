// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1351

import (
	"fmt"
	"image"
)

// Size is a supported panel geometry.
type Size uint8

// Supported panel geometries.
const (
	Size128x128 Size = iota
	Size128x96
)

// Dimensions returns the native width and height in pixels, before rotation.
func (s Size) Dimensions() (w, h int) {
	switch s {
	case Size128x96:
		return 128, 96
	default:
		return 128, 128
	}
}

// NumPixels returns width×height.
func (s Size) NumPixels() int {
	w, h := s.Dimensions()
	return w * h
}

func (s Size) valid() bool {
	return s <= Size128x96
}

func (s Size) String() string {
	w, h := s.Dimensions()
	if !s.valid() {
		return fmt.Sprintf("Size(%d)", uint8(s))
	}
	return fmt.Sprintf("%dx%d", w, h)
}

// Rotation defines pixel rotation.
type Rotation uint8

// Supported rotations.
const (
	Rotate0   Rotation = iota
	Rotate90           // Rotate 90° clock wise
	Rotate180          // Rotate 180°
	Rotate270          // Rotate 270° clock wise
)

func (r Rotation) String() string {
	switch r {
	case Rotate0:
		return "0°"
	case Rotate90:
		return "90°"
	case Rotate180:
		return "180°"
	case Rotate270:
		return "270°"
	default:
		return fmt.Sprintf("Rotation(%d)", uint8(r))
	}
}

func (r Rotation) valid() bool {
	return r <= Rotate270
}

// swapsAxes is true for 90° and 270°.
func (r Rotation) swapsAxes() bool {
	return r == Rotate90 || r == Rotate270
}

// logicalSize returns the width and height seen by callers under rotation r.
func logicalSize(s Size, r Rotation) (w, h int) {
	w, h = s.Dimensions()
	if r.swapsAxes() {
		return h, w
	}
	return w, h
}

// Window is the inclusive controller address range the next RAM write goes
// to, in native column and row units.
type Window struct {
	ColStart, ColEnd byte
	RowStart, RowEnd byte
}

// Dx returns the number of columns.
func (w Window) Dx() int { return int(w.ColEnd) - int(w.ColStart) + 1 }

// Dy returns the number of rows.
func (w Window) Dy() int { return int(w.RowEnd) - int(w.RowStart) + 1 }

// resolve returns the 1×1 window of the logical pixel (x, y).
func resolve(x, y int, r Rotation, s Size) (Window, error) {
	return resolveRegion(x, y, x, y, r, s)
}

// resolveRegion returns the window covering the logical rectangle with
// inclusive corners (x0, y0) and (x1, y1).
//
// For 0° and 180° columns follow x; for 90° and 270° columns follow y. The
// controller is put in vertical increment mode for the latter so the data
// stream is logical row-major in every rotation.
func resolveRegion(x0, y0, x1, y1 int, r Rotation, s Size) (Window, error) {
	w, h := logicalSize(s, r)
	if x0 < 0 || y0 < 0 || x1 >= w || y1 >= h || x0 > x1 || y0 > y1 {
		return Window{}, fmt.Errorf("ssd1351: region (%d,%d)-(%d,%d) outside %dx%d at %s: %w", x0, y0, x1, y1, w, h, r, ErrOutOfBounds)
	}
	if r.swapsAxes() {
		x0, y0, x1, y1 = y0, x0, y1, x1
	}
	return Window{
		ColStart: byte(x0), ColEnd: byte(x1),
		RowStart: byte(y0), RowEnd: byte(y1),
	}, nil
}

// resolveRect is resolveRegion for a half-open image.Rectangle.
func resolveRect(rect image.Rectangle, r Rotation, s Size) (Window, error) {
	return resolveRegion(rect.Min.X, rect.Min.Y, rect.Max.X-1, rect.Max.Y-1, r, s)
}
