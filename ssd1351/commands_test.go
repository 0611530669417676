// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1351

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/GermanBionicSystems/oled/ssd1351/ssd1351test"
)

func TestCmdRemap(t *testing.T) {
	for _, tc := range []struct {
		rot  Rotation
		want byte
	}{
		{Rotate0, 0x34},
		{Rotate90, 0x37},
		{Rotate180, 0x26},
		{Rotate270, 0x25},
	} {
		t.Run(tc.rot.String(), func(t *testing.T) {
			got := cmdRotation(tc.rot)
			if got.op != setRemap {
				t.Fatalf("cmdRotation(%s).op = %#x, want %#x", tc.rot, got.op, setRemap)
			}
			if diff := cmp.Diff(got.args, []byte{tc.want}); diff != "" {
				t.Errorf("cmdRotation(%s) difference (-got +want):\n%s", tc.rot, diff)
			}
		})
	}
}

func TestCmdMasterCurrent(t *testing.T) {
	if got := cmdMasterCurrent(0xFA).args; !bytes.Equal(got, []byte{0x0A}) {
		t.Errorf("cmdMasterCurrent(0xFA) = %#v", got)
	}
}

func wantInit(s Size, r Rotation) []ssd1351test.Cmd {
	w, h := s.Dimensions()
	return []ssd1351test.Cmd{
		{Op: setCommandLock, Data: []byte{0x12}},
		{Op: setCommandLock, Data: []byte{0xB1}},
		{Op: setDisplayOff},
		{Op: setClockDiv, Data: []byte{0xF1}},
		{Op: setMultiplexRatio, Data: []byte{byte(h - 1)}},
		{Op: setDisplayOffset, Data: []byte{0}},
		{Op: setStartLine, Data: []byte{0}},
		{Op: setGPIO, Data: []byte{0}},
		{Op: setFunction, Data: []byte{0x01}},
		{Op: setVSL, Data: []byte{0xA0, 0xB5, 0x55}},
		{Op: setContrastABC, Data: []byte{0xC8, 0x8F, 0xC8}},
		{Op: setMasterCurrent, Data: []byte{0x0F}},
		{Op: setPhaseLength, Data: []byte{0x32}},
		{Op: setSecondPrecharge, Data: []byte{0x01}},
		{Op: setVCOMH, Data: []byte{0x05}},
		{Op: setNormalDisplay},
		{Op: setRemap, Data: cmdRotation(r).args},
		{Op: setColumnAddress, Data: []byte{0, byte(w - 1)}},
		{Op: setRowAddress, Data: []byte{0, byte(h - 1)}},
		{Op: writeRAM, Data: make([]byte, 2*w*h)},
		{Op: setDisplayOn},
	}
}

func TestInitSequence(t *testing.T) {
	for _, s := range []Size{Size128x128, Size128x96} {
		for _, r := range []Rotation{Rotate0, Rotate90, Rotate180, Rotate270} {
			t.Run(s.String()+"/"+r.String(), func(t *testing.T) {
				rec := &ssd1351test.Recorder{}
				d, err := New(rec, &Opts{Size: s, Rotation: r})
				if err != nil {
					t.Fatal(err)
				}
				if len(rec.Ops) != 0 {
					t.Fatalf("New() sent %d transfers", len(rec.Ops))
				}
				if err := d.Init(); err != nil {
					t.Fatal(err)
				}
				if diff := cmp.Diff(rec.Commands(), wantInit(s, r), cmpopts.EquateEmpty()); diff != "" {
					t.Errorf("Init() difference (-got +want):\n%s", diff)
				}
				if d.State() != Ready {
					t.Errorf("State() = %s, want %s", d.State(), Ready)
				}
			})
		}
	}
}

// Each command is one command phase, then one data phase when it has
// parameters.
func TestInitPhases(t *testing.T) {
	rec := &ssd1351test.Recorder{}
	d, err := New(rec, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	for i, op := range rec.Ops {
		if op.Command && len(op.Data) != 1 {
			t.Errorf("op %d: command phase of %d bytes", i, len(op.Data))
		}
		if !op.Command && (i == 0 || !rec.Ops[i-1].Command) {
			t.Errorf("op %d: data phase not following a command phase", i)
		}
	}
}
