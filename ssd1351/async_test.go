// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1351

import (
	"context"
	"errors"
	"fmt"
	"image"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"golang.org/x/sync/semaphore"
	"periph.io/x/conn/v3/gpio"

	"github.com/GermanBionicSystems/oled/ssd1351/image565"
	"github.com/GermanBionicSystems/oled/ssd1351/ssd1351test"
)

// errs compares error sequences by message.
func errs(got, want []error) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if fmt.Sprint(got[i]) != fmt.Sprint(want[i]) {
			return false
		}
	}
	return true
}

func TestParity(t *testing.T) {
	opts := &Opts{Size: Size128x96, Rotation: Rotate270}
	src := image565.New(image.Rect(0, 0, 8, 8))
	src.FillRect(image.Rect(2, 2, 6, 6), image565.Green)

	syncRec := &ssd1351test.Recorder{}
	d, err := New(syncRec, opts)
	if err != nil {
		t.Fatal(err)
	}
	syncErrs := []error{
		d.SetPixel(0, 0, image565.Red),
		d.Init(),
		d.SetPixel(3, 4, image565.Red),
		d.SetPixel(96, 0, image565.Red),
		d.FillRect(image.Rect(10, 10, 20, 12), image565.Blue),
		d.Draw(image.Rect(40, 40, 48, 48), src, image.Point{}),
		d.WriteRegion(image.Rect(0, 0, 1, 2), []byte{1, 2, 3, 4}),
		d.SetContrast(7),
		d.Invert(true),
		d.Sleep(),
		d.Clear(image565.White),
		d.Wake(),
		d.Wake(),
		d.SetRotation(Rotate90),
		d.Clear(image565.White),
		d.Halt(),
	}

	ctx := context.Background()
	asyncRec := &ssd1351test.AsyncRecorder{}
	a, err := NewAsync(asyncRec, opts)
	if err != nil {
		t.Fatal(err)
	}
	asyncErrs := []error{
		a.SetPixel(ctx, 0, 0, image565.Red),
		a.Init(ctx),
		a.SetPixel(ctx, 3, 4, image565.Red),
		a.SetPixel(ctx, 96, 0, image565.Red),
		a.FillRect(ctx, image.Rect(10, 10, 20, 12), image565.Blue),
		a.Draw(ctx, image.Rect(40, 40, 48, 48), src, image.Point{}),
		a.WriteRegion(ctx, image.Rect(0, 0, 1, 2), []byte{1, 2, 3, 4}),
		a.SetContrast(ctx, 7),
		a.Invert(ctx, true),
		a.Sleep(ctx),
		a.Clear(ctx, image565.White),
		a.Wake(ctx),
		a.Wake(ctx),
		a.SetRotation(ctx, Rotate90),
		a.Clear(ctx, image565.White),
		a.Halt(ctx),
	}

	if !errs(syncErrs, asyncErrs) {
		t.Errorf("errors differ:\nsync:  %v\nasync: %v", syncErrs, asyncErrs)
	}
	if diff := cmp.Diff(syncRec.Ops, asyncRec.Ops, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("byte streams differ (-sync +async):\n%s", diff)
	}
	if d.String()[len("ssd1351.Dev"):] != a.String()[len("ssd1351.AsyncDev"):] {
		t.Errorf("%s != %s", d, a)
	}
}

func TestParityBuffered(t *testing.T) {
	opts := &Opts{Rotation: Rotate90, Background: image565.Blue}

	syncRec := &ssd1351test.Recorder{}
	b, err := NewBuffered(syncRec, opts)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	asyncRec := &ssd1351test.AsyncRecorder{}
	a, err := NewAsyncBuffered(asyncRec, opts)
	if err != nil {
		t.Fatal(err)
	}

	syncErrs := []error{
		b.Flush(),
		b.Init(),
		b.SetPixel(1, 2, image565.Red),
		b.FlushChanged(),
		b.SetPixel(100, 20, image565.Red),
		b.FlushChanged(),
		b.FlushChanged(),
		b.FillRect(image.Rect(0, 0, 3, 3), image565.Green),
		b.WriteRegion(image.Rect(4, 4, 5, 6), []byte{1, 2, 3, 4}),
		b.FlushChanged(),
		b.Flush(),
		b.Clear(true),
		b.SetRotation(Rotate0),
		b.Draw(image.Rect(5, 5, 9, 9), &image.Uniform{image565.Red}, image.Point{}),
	}
	asyncErrs := []error{
		a.Flush(ctx),
		a.Init(ctx),
		a.SetPixel(1, 2, image565.Red),
		a.FlushChanged(ctx),
		a.SetPixel(100, 20, image565.Red),
		a.FlushChanged(ctx),
		a.FlushChanged(ctx),
		a.FillRect(image.Rect(0, 0, 3, 3), image565.Green),
		a.WriteRegion(image.Rect(4, 4, 5, 6), []byte{1, 2, 3, 4}),
		a.FlushChanged(ctx),
		a.Flush(ctx),
		a.Clear(ctx, true),
		a.SetRotation(ctx, Rotate0),
		a.Draw(ctx, image.Rect(5, 5, 9, 9), &image.Uniform{image565.Red}, image.Point{}),
	}
	if !errs(syncErrs, asyncErrs) {
		t.Errorf("errors differ:\nsync:  %v\nasync: %v", syncErrs, asyncErrs)
	}
	if diff := cmp.Diff(syncRec.Ops, asyncRec.Ops, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("byte streams differ (-sync +async):\n%s", diff)
	}
	if diff := cmp.Diff(b.Image().Pix, a.Image().Pix); diff != "" {
		t.Errorf("framebuffers differ (-sync +async):\n%s", diff)
	}
}

func TestAsyncCanceled(t *testing.T) {
	rec := &ssd1351test.AsyncRecorder{}
	a, err := NewAsync(rec, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.Init(ctx); err != context.Canceled {
		t.Fatalf("Init() = %v, want %v", err, context.Canceled)
	}
	if a.State() != Uninitialized {
		t.Fatalf("State() = %s after canceled Init()", a.State())
	}
	// Validation happens before waiting.
	if err := a.SetPixel(ctx, 0, 0, 0); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("SetPixel() = %v, want %v", err, ErrNotInitialized)
	}
	if len(rec.Ops) != 0 {
		t.Fatalf("%d transfers with a canceled context", len(rec.Ops))
	}
}

func TestAsyncReset(t *testing.T) {
	a, err := NewAsync(&ssd1351test.AsyncRecorder{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := a.Init(ctx); err != nil {
		t.Fatal(err)
	}
	pin := &ssd1351test.Pin{}
	start := time.Now()
	if err := a.Reset(ctx, pin); err != nil {
		t.Fatal(err)
	}
	if d := time.Since(start); d < 11*time.Millisecond {
		t.Errorf("Reset() took %s", d)
	}
	if diff := cmp.Diff(pin.Levels, []gpio.Level{gpio.High, gpio.Low, gpio.High}); diff != "" {
		t.Errorf("Reset() levels difference (-got +want):\n%s", diff)
	}
	if a.State() != Uninitialized {
		t.Errorf("State() = %s after Reset()", a.State())
	}

	if err := a.Init(ctx); err != nil {
		t.Fatal(err)
	}
	canceled, cancel := context.WithCancel(ctx)
	cancel()
	pin = &ssd1351test.Pin{}
	if err := a.Reset(canceled, pin); err != context.Canceled {
		t.Fatalf("Reset() = %v, want %v", err, context.Canceled)
	}
	if diff := cmp.Diff(pin.Levels, []gpio.Level{gpio.High}); diff != "" {
		t.Errorf("Reset() levels difference (-got +want):\n%s", diff)
	}
	if a.State() != Ready {
		t.Errorf("State() = %s after canceled Reset()", a.State())
	}
}

func TestAsyncTransport(t *testing.T) {
	rec := &ssd1351test.Recorder{}
	at := Async(rec)
	ctx, cancel := context.WithCancel(context.Background())
	if err := at.SendCommands(ctx, []byte{0xAF}); err != nil {
		t.Fatal(err)
	}
	cancel()
	if err := at.SendData(ctx, []byte{1}); err != context.Canceled {
		t.Fatalf("SendData() = %v, want %v", err, context.Canceled)
	}
	want := []ssd1351test.Op{{Command: true, Data: []byte{0xAF}}}
	if diff := cmp.Diff(rec.Ops, want); diff != "" {
		t.Errorf("difference (-got +want):\n%s", diff)
	}
}

func TestShared(t *testing.T) {
	rec := &ssd1351test.Recorder{}
	lock := semaphore.NewWeighted(1)
	a, err := NewAsync(Shared(rec, lock), nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := a.Init(ctx); err != nil {
		t.Fatal(err)
	}
	rec.Reset()

	// Another session holds the bus.
	if err := lock.Acquire(ctx, 1); err != nil {
		t.Fatal(err)
	}
	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if err := a.SetPixel(short, 0, 0, image565.Red); err != context.DeadlineExceeded {
		t.Fatalf("SetPixel() = %v, want %v", err, context.DeadlineExceeded)
	}
	if len(rec.Ops) != 0 {
		t.Fatalf("%d transfers while the bus is held", len(rec.Ops))
	}
	lock.Release(1)

	if err := a.SetPixel(ctx, 0, 0, image565.Red); err != nil {
		t.Fatal(err)
	}
	if len(rec.Ops) != 6 {
		t.Errorf("SetPixel() sent %d transfers, want 6", len(rec.Ops))
	}
	if !lock.TryAcquire(1) {
		t.Error("lock not released")
	}
}

func TestSharedConcurrent(t *testing.T) {
	lock := semaphore.NewWeighted(1)
	recs := []*ssd1351test.Recorder{{}, {}}
	done := make(chan error, len(recs))
	for _, rec := range recs {
		a, err := NewAsync(Shared(rec, lock), nil)
		if err != nil {
			t.Fatal(err)
		}
		go func() {
			ctx := context.Background()
			if err := a.Init(ctx); err != nil {
				done <- err
				return
			}
			done <- a.Clear(ctx, image565.Red)
		}()
	}
	for range recs {
		if err := <-done; err != nil {
			t.Fatal(err)
		}
	}
	if diff := cmp.Diff(recs[0].Ops, recs[1].Ops); diff != "" {
		t.Errorf("sessions differ (-0 +1):\n%s", diff)
	}
}
