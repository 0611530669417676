// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package videosink serves a live view of a display over HTTP. Client
// requests get an initial snapshot of the pixel buffer and are updated on
// every Draw.
//
// The stream is "MJPEG" (https://en.wikipedia.org/wiki/Motion_JPEG), as used
// by IP cameras, so any browser can show it. PNG is the default format since
// it reproduces RGB565 pixels exactly; JPEG can be selected with Opts.Format
// or the "format" URL parameter. A single image is returned when the
// "snapshot" parameter is present.
//
// The buffer stores RGB565 pixels, so what is served is exactly what a
// SSD1351 panel can show. The typical source is the emulator's Glass().
package videosink

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"net/http"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"

	"github.com/GermanBionicSystems/oled/ssd1351/image565"
)

// Opts for videosink devices.
type Opts struct {
	// Width and height of the pixel buffer.
	Width, Height int
	// Scale enlarges each pixel to Scale×Scale in served images. 0 means 1.
	Scale int
	// Format sent to clients that do not ask for one.
	Format ImageFormat
	// JPEGQuality between 1 and 100. 0 means jpeg.DefaultQuality.
	JPEGQuality int
	// Keepalive resends the current frame after this long without a Draw.
	// 0 disables it.
	Keepalive time.Duration
}

// Sink is a display.Drawer whose content is served over HTTP.
type Sink struct {
	opts Opts

	mu       sync.Mutex
	buffer   *image565.Image
	clients  map[*client]struct{}
	snapshot map[ImageFormat][]byte
}

// New returns a Sink with a black buffer.
func New(opts *Opts) (*Sink, error) {
	o := *opts
	if o.Width <= 0 || o.Height <= 0 {
		return nil, fmt.Errorf("videosink: invalid size %dx%d", o.Width, o.Height)
	}
	if o.Scale < 0 {
		return nil, fmt.Errorf("videosink: invalid scale %d", o.Scale)
	}
	if o.Scale == 0 {
		o.Scale = 1
	}
	if o.JPEGQuality < 0 || o.JPEGQuality > 100 {
		return nil, fmt.Errorf("videosink: invalid JPEG quality %d", o.JPEGQuality)
	}
	if o.Format.mimeType() == "application/octet-stream" {
		return nil, fmt.Errorf("videosink: invalid format %s", o.Format)
	}
	return &Sink{
		opts:     o,
		buffer:   image565.New(image.Rect(0, 0, o.Width, o.Height)),
		clients:  map[*client]struct{}{},
		snapshot: map[ImageFormat][]byte{},
	}, nil
}

func (s *Sink) String() string {
	return fmt.Sprintf("videosink.Sink{%dx%d}", s.opts.Width, s.opts.Height)
}

// Halt implements conn.Resource and terminates all running client requests
// asynchronously.
func (s *Sink) Halt() error {
	s.mu.Lock()
	s.terminateClientsLocked()
	s.mu.Unlock()
	return nil
}

// ColorModel implements display.Drawer.
func (s *Sink) ColorModel() color.Model {
	return image565.Model
}

// Bounds implements display.Drawer.
func (s *Sink) Bounds() image.Rectangle {
	return s.buffer.Rect
}

// Draw implements display.Drawer. Clients are notified once the pixels are
// in the buffer.
func (s *Sink) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	s.mu.Lock()
	if img, ok := src.(*image565.Image); ok && r == s.buffer.Rect && img.Rect == r && sp == r.Min {
		copy(s.buffer.Pix, img.Pix)
	} else {
		draw.Draw(s.buffer, r, src, sp, draw.Src)
	}
	s.bufferChangedLocked()
	s.mu.Unlock()
	return nil
}

var (
	_ conn.Resource  = (*Sink)(nil)
	_ display.Drawer = (*Sink)(nil)
	_ http.Handler   = (*Sink)(nil)
)
