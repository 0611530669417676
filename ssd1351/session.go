// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1351

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/GermanBionicSystems/oled/ssd1351/image565"
)

// Errors.
var (
	ErrOutOfBounds    = errors.New("ssd1351: out of display bounds")
	ErrNotInitialized = errors.New("ssd1351: display not initialized")
	ErrDisplayAsleep  = errors.New("ssd1351: display asleep")
	ErrNotAsleep      = errors.New("ssd1351: display not asleep")
	ErrInvalidOpts    = errors.New("ssd1351: invalid options")
	ErrResetPin       = errors.New("ssd1351: reset GPIO pin is invalid")
)

// State is the session state.
type State uint8

// Session states.
const (
	Uninitialized State = iota
	Ready
	Sleeping
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Sleeping:
		return "sleeping"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Reset line timings.
const (
	resetHighTime = time.Millisecond
	resetLowTime  = 10 * time.Millisecond
)

// waitFunc waits d, returning early with an error only when ctx is done.
type waitFunc func(ctx context.Context, d time.Duration) error

// session is the single implementation behind Dev, AsyncDev, Buffered and
// AsyncBuffered. Every transport call goes through l; validation never
// depends on which binding is used.
type session struct {
	l        AsyncTransport
	size     Size
	rotation Rotation
	state    State
}

func newSession(l AsyncTransport, opts *Opts) *session {
	return &session{l: l, size: opts.Size, rotation: opts.Rotation}
}

func (s *session) describe(name string) string {
	w, h := logicalSize(s.size, s.rotation)
	return fmt.Sprintf("ssd1351.%s{%dx%d, %s, %s}", name, w, h, s.rotation, s.state)
}

func (s *session) bounds() image.Rectangle {
	w, h := logicalSize(s.size, s.rotation)
	return image.Rect(0, 0, w, h)
}

// send transmits commands in order and stops at the first error, which is
// returned as is.
func (s *session) send(ctx context.Context, cmds ...command) error {
	for _, c := range cmds {
		if err := s.l.SendCommands(ctx, []byte{c.op}); err != nil {
			return err
		}
		if len(c.args) != 0 {
			if err := s.l.SendData(ctx, c.args); err != nil {
				return err
			}
		}
	}
	return nil
}

// ready returns the precondition error for drawing, if any.
func (s *session) ready() error {
	switch s.state {
	case Uninitialized:
		return ErrNotInitialized
	case Sleeping:
		return ErrDisplayAsleep
	}
	return nil
}

func (s *session) reset(ctx context.Context, rst gpio.PinOut, wait waitFunc) error {
	if rst == nil || rst == gpio.INVALID {
		return ErrResetPin
	}
	if err := rst.Out(gpio.High); err != nil {
		return err
	}
	if err := wait(ctx, resetHighTime); err != nil {
		return err
	}
	if err := rst.Out(gpio.Low); err != nil {
		return err
	}
	if err := wait(ctx, resetLowTime); err != nil {
		return err
	}
	if err := rst.Out(gpio.High); err != nil {
		return err
	}
	s.state = Uninitialized
	return nil
}

func (s *session) init(ctx context.Context) error {
	if err := s.send(ctx, cmdsInit(s.size, s.rotation)...); err != nil {
		return err
	}
	w, h := s.size.Dimensions()
	full := Window{ColEnd: byte(w - 1), RowEnd: byte(h - 1)}
	if err := s.writeWindow(ctx, full, fillPixels(image565.Black, w*h)); err != nil {
		return err
	}
	if err := s.send(ctx, cmdDisplayOn(true)); err != nil {
		return err
	}
	s.state = Ready
	return nil
}

// writeWindow selects w then streams data in a single data phase.
func (s *session) writeWindow(ctx context.Context, w Window, data []byte) error {
	if err := s.send(ctx, cmdsWindow(w)...); err != nil {
		return err
	}
	return s.l.SendData(ctx, data)
}

func (s *session) setPixel(ctx context.Context, x, y int, c image565.RGB565) error {
	if err := s.ready(); err != nil {
		return err
	}
	w, err := resolve(x, y, s.rotation, s.size)
	if err != nil {
		return err
	}
	return s.writeWindow(ctx, w, []byte{byte(c >> 8), byte(c)})
}

// fillRect treats an empty r as a no-op, like draw.
func (s *session) fillRect(ctx context.Context, r image.Rectangle, c image565.RGB565) error {
	if err := s.ready(); err != nil {
		return err
	}
	if r.Empty() {
		return nil
	}
	w, err := resolveRect(r, s.rotation, s.size)
	if err != nil {
		return err
	}
	return s.writeWindow(ctx, w, fillPixels(c, w.Dx()*w.Dy()))
}

func (s *session) writeRegion(ctx context.Context, r image.Rectangle, pix []byte) error {
	if err := s.ready(); err != nil {
		return err
	}
	w, err := s.checkRegion(r, pix)
	if err != nil {
		return err
	}
	return s.writeWindow(ctx, w, pix)
}

// checkRegion resolves r and verifies pix holds exactly its pixels.
func (s *session) checkRegion(r image.Rectangle, pix []byte) (Window, error) {
	w, err := resolveRect(r, s.rotation, s.size)
	if err != nil {
		return Window{}, err
	}
	if want := 2 * w.Dx() * w.Dy(); len(pix) != want {
		return Window{}, fmt.Errorf("ssd1351: invalid pixel stream length; expected %d bytes, got %d bytes", want, len(pix))
	}
	return w, nil
}

func (s *session) clear(ctx context.Context, c image565.RGB565) error {
	return s.fillRect(ctx, s.bounds(), c)
}

// draw renders src into r and writes the result as one region.
func (s *session) draw(ctx context.Context, r image.Rectangle, src image.Image, sp image.Point) error {
	if err := s.ready(); err != nil {
		return err
	}
	clipped := r.Intersect(s.bounds())
	if clipped.Empty() {
		return nil
	}
	sp = sp.Add(clipped.Min.Sub(r.Min))
	r = clipped
	img := image565.New(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Src.Draw(img, img.Rect, src, sp)
	return s.writeRegion(ctx, r, img.Pix)
}

func (s *session) sleep(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.send(ctx, cmdDisplayOn(false)); err != nil {
		return err
	}
	s.state = Sleeping
	return nil
}

func (s *session) wake(ctx context.Context) error {
	switch s.state {
	case Uninitialized:
		return ErrNotInitialized
	case Ready:
		return ErrNotAsleep
	}
	if err := s.send(ctx, cmdDisplayOn(true)); err != nil {
		return err
	}
	s.state = Ready
	return nil
}

// halt puts a ready display to sleep and is a no-op otherwise.
func (s *session) halt(ctx context.Context) error {
	if s.state != Ready {
		return nil
	}
	return s.sleep(ctx)
}

func (s *session) setRotation(ctx context.Context, r Rotation) error {
	if !r.valid() {
		return fmt.Errorf("ssd1351: rotation %s: %w", r, ErrInvalidOpts)
	}
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.send(ctx, cmdRotation(r)); err != nil {
		return err
	}
	s.rotation = r
	return nil
}

func (s *session) setContrast(ctx context.Context, level byte) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.send(ctx, cmdMasterCurrent(level))
}

func (s *session) invert(ctx context.Context, invert bool) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.send(ctx, cmdInvert(invert))
}

// fillPixels returns n pixels of c in transmission order.
func fillPixels(c image565.RGB565, n int) []byte {
	b := make([]byte, 2*n)
	hi, lo := byte(c>>8), byte(c)
	for i := 0; i < len(b); i += 2 {
		b[i] = hi
		b[i+1] = lo
	}
	return b
}

// sleepContext is the cooperative timer used by the suspending bindings.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// delayWait adapts a blocking delay provider. A nil delay uses time.Sleep.
func delayWait(delay func(time.Duration)) waitFunc {
	if delay == nil {
		delay = time.Sleep
	}
	return func(_ context.Context, d time.Duration) error {
		delay(d)
		return nil
	}
}
