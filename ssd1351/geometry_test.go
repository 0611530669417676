// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1351

import (
	"errors"
	"image"
	"testing"
)

var (
	allSizes     = []Size{Size128x128, Size128x96}
	allRotations = []Rotation{Rotate0, Rotate90, Rotate180, Rotate270}
)

func TestResolveSpanOne(t *testing.T) {
	for _, s := range allSizes {
		for _, r := range allRotations {
			w, h := logicalSize(s, r)
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					win, err := resolve(x, y, r, s)
					if err != nil {
						t.Fatalf("resolve(%d, %d, %s, %s): %v", x, y, r, s, err)
					}
					if win.ColStart != win.ColEnd || win.RowStart != win.RowEnd {
						t.Fatalf("resolve(%d, %d, %s, %s) = %+v, want span 1", x, y, r, s, win)
					}
					gx, gy := int(win.ColStart), int(win.RowStart)
					if r.swapsAxes() {
						gx, gy = gy, gx
					}
					if gx != x || gy != y {
						t.Fatalf("resolve(%d, %d, %s, %s) = %+v, inverse is (%d, %d)", x, y, r, s, win, gx, gy)
					}
				}
			}
		}
	}
}

func TestResolveOutOfBounds(t *testing.T) {
	for _, s := range allSizes {
		for _, r := range allRotations {
			w, h := logicalSize(s, r)
			for _, p := range []image.Point{{-1, 0}, {0, -1}, {w, 0}, {0, h}, {w, h}, {1000, 5}} {
				if _, err := resolve(p.X, p.Y, r, s); !errors.Is(err, ErrOutOfBounds) {
					t.Errorf("resolve(%d, %d, %s, %s) = %v, want %v", p.X, p.Y, r, s, err, ErrOutOfBounds)
				}
			}
		}
	}
}

func TestResolveRegion(t *testing.T) {
	for _, tc := range []struct {
		name           string
		x0, y0, x1, y1 int
		r              Rotation
		s              Size
		want           Window
		err            error
	}{
		{"full", 0, 0, 127, 127, Rotate0, Size128x128, Window{0, 127, 0, 127}, nil},
		{"full 96", 0, 0, 127, 95, Rotate180, Size128x96, Window{0, 127, 0, 95}, nil},
		{"full 96 rotated", 0, 0, 95, 127, Rotate90, Size128x96, Window{0, 127, 0, 95}, nil},
		{"rect", 2, 3, 5, 4, Rotate0, Size128x128, Window{2, 5, 3, 4}, nil},
		{"rect rotated", 2, 3, 5, 4, Rotate270, Size128x128, Window{3, 4, 2, 5}, nil},
		{"inverted x", 5, 0, 2, 0, Rotate0, Size128x128, Window{}, ErrOutOfBounds},
		{"inverted y", 0, 5, 0, 2, Rotate0, Size128x128, Window{}, ErrOutOfBounds},
		{"too tall", 0, 0, 127, 96, Rotate0, Size128x96, Window{}, ErrOutOfBounds},
		{"too wide rotated", 0, 0, 96, 0, Rotate90, Size128x96, Window{}, ErrOutOfBounds},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := resolveRegion(tc.x0, tc.y0, tc.x1, tc.y1, tc.r, tc.s)
			if !errors.Is(err, tc.err) {
				t.Fatalf("resolveRegion() error = %v, want %v", err, tc.err)
			}
			if got != tc.want {
				t.Errorf("resolveRegion() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestLogicalSize(t *testing.T) {
	if w, h := logicalSize(Size128x96, Rotate90); w != 96 || h != 128 {
		t.Errorf("logicalSize(128x96, 90°) = %dx%d", w, h)
	}
	if w, h := logicalSize(Size128x96, Rotate180); w != 128 || h != 96 {
		t.Errorf("logicalSize(128x96, 180°) = %dx%d", w, h)
	}
	if got := Size(5).String(); got != "Size(5)" {
		t.Errorf("Size(5).String() = %q", got)
	}
	if got := Rotation(7).String(); got != "Rotation(7)" {
		t.Errorf("Rotation(7).String() = %q", got)
	}
}
