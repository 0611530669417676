// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1351

// Commands, from the SSD1351 datasheet command table.
const (
	setColumnAddress    byte = 0x15
	writeRAM            byte = 0x5C
	setRowAddress       byte = 0x75
	setRemap            byte = 0xA0
	setStartLine        byte = 0xA1
	setDisplayOffset    byte = 0xA2
	setNormalDisplay    byte = 0xA6
	setInverseDisplay   byte = 0xA7
	setFunction         byte = 0xAB
	setDisplayOff       byte = 0xAE
	setDisplayOn        byte = 0xAF
	setPhaseLength      byte = 0xB1
	setClockDiv         byte = 0xB3
	setVSL              byte = 0xB4
	setGPIO             byte = 0xB5
	setSecondPrecharge  byte = 0xB6
	setVCOMH            byte = 0xBE
	setContrastABC      byte = 0xC1
	setMasterCurrent    byte = 0xC7
	setMultiplexRatio   byte = 0xCA
	setCommandLock      byte = 0xFD
	commandLockUnlock   byte = 0x12
	commandLockAccessAB byte = 0xB1
)

// Remap and color depth (0xA0) bit fields.
const (
	remapVerticalIncrement byte = 1 << 0 // A[0]: vertical address increment
	remapColumn            byte = 1 << 1 // A[1]: column address 0 mapped to SEG127
	remapCOMReverse        byte = 1 << 4 // A[4]: scan from COM[N-1] to COM0
	remapBase              byte = 0x24   // A[2] COM split odd/even, A[7:6]=00 65k color
)

// command is an opcode and its parameters.
//
// It is transmitted as a command phase holding the opcode, then, when args is
// not empty, a data phase holding the parameters.
type command struct {
	op   byte
	args []byte
}

func cmdCommandLock(v byte) command { return command{setCommandLock, []byte{v}} }

func cmdDisplayOn(on bool) command {
	if on {
		return command{op: setDisplayOn}
	}
	return command{op: setDisplayOff}
}

func cmdClockDiv(v byte) command       { return command{setClockDiv, []byte{v}} }
func cmdMuxRatio(v byte) command       { return command{setMultiplexRatio, []byte{v}} }
func cmdStartLine(v byte) command      { return command{setStartLine, []byte{v}} }
func cmdDisplayOffset(v byte) command  { return command{setDisplayOffset, []byte{v}} }
func cmdGPIO(v byte) command           { return command{setGPIO, []byte{v}} }
func cmdFunctionSelect(v byte) command { return command{setFunction, []byte{v}} }
func cmdPrecharge(v byte) command      { return command{setPhaseLength, []byte{v}} }
func cmdPrecharge2(v byte) command     { return command{setSecondPrecharge, []byte{v}} }
func cmdVCOMH(v byte) command          { return command{setVCOMH, []byte{v}} }
func cmdVSL() command                  { return command{setVSL, []byte{0xA0, 0xB5, 0x55}} }
func cmdWriteRAM() command             { return command{op: writeRAM} }

// cmdContrast sets the color B contrast; A and C stay at 0xC8.
func cmdContrast(v byte) command { return command{setContrastABC, []byte{0xC8, v, 0xC8}} }

// cmdMasterCurrent uses only the low nibble.
func cmdMasterCurrent(v byte) command { return command{setMasterCurrent, []byte{v & 0x0F}} }

func cmdInvert(invert bool) command {
	if invert {
		return command{op: setInverseDisplay}
	}
	return command{op: setNormalDisplay}
}

func cmdRemap(vertical, column, comReverse bool) command {
	v := remapBase
	if vertical {
		v |= remapVerticalIncrement
	}
	if column {
		v |= remapColumn
	}
	if comReverse {
		v |= remapCOMReverse
	}
	return command{setRemap, []byte{v}}
}

func cmdColumn(start, end byte) command { return command{setColumnAddress, []byte{start, end}} }
func cmdRow(start, end byte) command    { return command{setRowAddress, []byte{start, end}} }

// cmdRotation returns the remap command for r. Only the reflection part of a
// rotation is done by the controller; the axis swap of 90° and 270° is done
// by the window computation together with the vertical address increment.
func cmdRotation(r Rotation) command {
	switch r {
	case Rotate90:
		return cmdRemap(true, true, true)
	case Rotate180:
		return cmdRemap(false, true, false)
	case Rotate270:
		return cmdRemap(true, false, false)
	default:
		return cmdRemap(false, false, true)
	}
}

// cmdsWindow selects w and enables RAM writes.
func cmdsWindow(w Window) []command {
	return []command{
		cmdColumn(w.ColStart, w.ColEnd),
		cmdRow(w.RowStart, w.RowEnd),
		cmdWriteRAM(),
	}
}

// cmdsInit returns the power-on configuration, up to and including the
// remap for r. The caller clears RAM and turns the display on afterward.
func cmdsInit(s Size, r Rotation) []command {
	_, h := s.Dimensions()
	return []command{
		cmdCommandLock(commandLockUnlock),
		cmdCommandLock(commandLockAccessAB),
		cmdDisplayOn(false),
		cmdClockDiv(0xF1),
		cmdMuxRatio(byte(h - 1)),
		cmdDisplayOffset(0),
		cmdStartLine(0),
		cmdGPIO(0x00),
		cmdFunctionSelect(0x01), // internal VDD regulator
		cmdVSL(),
		cmdContrast(0x8F),
		cmdMasterCurrent(0x0F),
		cmdPrecharge(0x32),
		cmdPrecharge2(0x01),
		cmdVCOMH(0x05),
		cmdInvert(false),
		cmdRotation(r),
	}
}
