// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ssd1351test implements fake transports and pins to test code
// using the ssd1351 package.
package ssd1351test

import (
	"context"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// Op is one recorded transfer.
type Op struct {
	// Command is true for a command phase, false for a data phase.
	Command bool
	Data    []byte
}

// Cmd is a command with its parameters, as grouped by Recorder.Commands.
type Cmd struct {
	Op   byte
	Data []byte
}

// Recorder implements ssd1351.Transport and records every transfer.
//
// When Err is set, the transfer at index FailAt and every transfer after it
// return Err and are not recorded.
type Recorder struct {
	sync.Mutex
	Ops    []Op
	Err    error
	FailAt int

	calls int
}

// SendCommands implements ssd1351.Transport.
func (r *Recorder) SendCommands(cmd []byte) error {
	return r.record(true, cmd)
}

// SendData implements ssd1351.Transport.
func (r *Recorder) SendData(data []byte) error {
	return r.record(false, data)
}

func (r *Recorder) record(command bool, b []byte) error {
	r.Lock()
	defer r.Unlock()
	n := r.calls
	r.calls++
	if r.Err != nil && n >= r.FailAt {
		return r.Err
	}
	r.Ops = append(r.Ops, Op{Command: command, Data: append([]byte(nil), b...)})
	return nil
}

// Reset forgets the recorded transfers and the call count.
func (r *Recorder) Reset() {
	r.Lock()
	defer r.Unlock()
	r.Ops = nil
	r.calls = 0
}

// Commands groups the recorded transfers by command: the data phases
// following a command phase are appended to it. Each byte of a command phase
// is a separate Cmd. Data sent before any command is dropped.
func (r *Recorder) Commands() []Cmd {
	r.Lock()
	defer r.Unlock()
	var out []Cmd
	for _, op := range r.Ops {
		if op.Command {
			for _, c := range op.Data {
				out = append(out, Cmd{Op: c})
			}
			continue
		}
		if len(out) != 0 {
			last := &out[len(out)-1]
			last.Data = append(last.Data, op.Data...)
		}
	}
	return out
}

// AsyncRecorder implements ssd1351.AsyncTransport on top of a Recorder.
//
// A transfer with a done context returns the context error and is not
// recorded.
type AsyncRecorder struct {
	Recorder
}

// SendCommands implements ssd1351.AsyncTransport.
func (r *AsyncRecorder) SendCommands(ctx context.Context, cmd []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.Recorder.SendCommands(cmd)
}

// SendData implements ssd1351.AsyncTransport.
func (r *AsyncRecorder) SendData(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.Recorder.SendData(data)
}

// Pin is a gpiotest.Pin recording every level it is set to.
type Pin struct {
	gpiotest.Pin
	Levels []gpio.Level
	// Err, when set, is returned by Out.
	Err error
}

// Out implements gpio.PinOut.
func (p *Pin) Out(l gpio.Level) error {
	if p.Err != nil {
		return p.Err
	}
	p.Levels = append(p.Levels, l)
	return p.Pin.Out(l)
}

// Delays records requested delays without sleeping.
type Delays []time.Duration

// Sleep is a drop-in replacement for time.Sleep.
func (d *Delays) Sleep(t time.Duration) {
	*d = append(*d, t)
}
