// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package termscreen

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/maruel/ansi256"
)

func TestDraw(t *testing.T) {
	var buf bytes.Buffer
	d := New(&Opts{W: 3, H: 2, Out: &buf})
	if got := d.String(); got != "TermScreen{3x2}" {
		t.Errorf("String() = %q", got)
	}
	red := color.NRGBA{255, 0, 0, 255}
	if err := d.Draw(d.Bounds(), &image.Uniform{red}, image.Point{}); err != nil {
		t.Fatal(err)
	}
	block := ansi256.Default.Block(red)
	want := strings.Repeat("\r"+strings.Repeat(block, 3)+"\033[0m\n", 2)
	if got := buf.String(); got != want {
		t.Errorf("Draw() = %q, want %q", got, want)
	}

	// The next frame is drawn over the previous one.
	buf.Reset()
	if err := d.Draw(image.Rect(0, 0, 1, 1), &image.Uniform{color.NRGBA{0, 0, 0, 255}}, image.Point{}); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); !strings.HasPrefix(got, "\033[2A\r") {
		t.Errorf("Draw() = %q, want a cursor up prefix", got)
	}
}

func TestScale(t *testing.T) {
	var buf bytes.Buffer
	d := New(&Opts{W: 4, H: 4, Scale: 2, Out: &buf})
	if err := d.Draw(d.Bounds(), &image.Uniform{color.NRGBA{0, 0, 255, 255}}, image.Point{}); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(buf.String(), "\n"); n != 2 {
		t.Errorf("%d lines, want 2", n)
	}
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
}
