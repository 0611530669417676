// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package videosink

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"sync"

	xdraw "golang.org/x/image/draw"
)

type pngEncoderBufferPool sync.Pool

func (p *pngEncoderBufferPool) Get() *png.EncoderBuffer {
	buf, _ := (*sync.Pool)(p).Get().(*png.EncoderBuffer)
	return buf
}

func (p *pngEncoderBufferPool) Put(buf *png.EncoderBuffer) {
	(*sync.Pool)(p).Put(buf)
}

// Frames are small and frequent.
var pngEncoder = png.Encoder{
	CompressionLevel: png.BestSpeed,
	BufferPool:       &pngEncoderBufferPool{},
}

// bufferPool stores reusable []byte instances.
var bufferPool = sync.Pool{
	New: func() any {
		return []byte(nil)
	},
}

// scaledLocked returns the buffer enlarged by the scale factor.
func (s *Sink) scaledLocked() image.Image {
	if s.opts.Scale == 1 {
		return s.buffer
	}
	r := s.buffer.Rect
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx()*s.opts.Scale, r.Dy()*s.opts.Scale))
	xdraw.NearestNeighbor.Scale(dst, dst.Rect, s.buffer, r, xdraw.Src, nil)
	return dst
}

func (s *Sink) encodeLocked(format ImageFormat) ([]byte, error) {
	img := s.scaledLocked()
	buf := bytes.NewBuffer(bufferPool.Get().([]byte)[:0])
	switch format {
	case PNG:
		if err := pngEncoder.Encode(buf, img); err != nil {
			return nil, err
		}
	case JPEG:
		q := s.opts.JPEGQuality
		if q == 0 {
			q = jpeg.DefaultQuality
		}
		if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: q}); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("videosink: unhandled image format %s", format)
	}
	return buf.Bytes(), nil
}

// grabSnapshot returns a copy of the encoded buffer, encoding it at most
// once per change and format. The caller puts the copy back into bufferPool.
func (s *Sink) grabSnapshot(format ImageFormat) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	encoded, ok := s.snapshot[format]
	if !ok {
		var err error
		if encoded, err = s.encodeLocked(format); err != nil {
			return nil, err
		}
		s.snapshot[format] = encoded
	}
	return append(bufferPool.Get().([]byte)[:0], encoded...), nil
}
