// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package emulator implements a SSD1351 controller in memory.
//
// Panel decodes the command and data phases sent by the ssd1351 package and
// keeps the display RAM, so the output of a driver can be checked as it
// would appear on the glass, without hardware.
//
// The emulation covers addressing (column and row windows, horizontal and
// vertical increment), the remap register, the MUX ratio, display on/off and
// the display modes. Timing, gray scale tables, scrolling and the analog
// settings are accepted and ignored.
package emulator

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/GermanBionicSystems/oled/ssd1351/image565"
)

// Columns and Rows are the dimensions of the display RAM.
const (
	Columns = 128
	Rows    = 128
)

// ErrUnexpectedData is returned when a data phase is received while the
// controller expects neither parameters nor pixels.
var ErrUnexpectedData = errors.New("emulator: unexpected data phase")

// Mode is the display mode.
type Mode uint8

// Display modes.
const (
	Normal Mode = iota
	AllOff
	AllOn
	Inverse
)

func (m Mode) String() string {
	switch m {
	case Normal:
		return "normal"
	case AllOff:
		return "all off"
	case AllOn:
		return "all on"
	case Inverse:
		return "inverse"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// paramCount is the number of parameters of each known opcode.
var paramCount = map[byte]int{
	0x15: 2,  // column address
	0x5C: 0,  // write RAM
	0x5D: 0,  // read RAM
	0x75: 2,  // row address
	0xA0: 1,  // remap and color depth
	0xA1: 1,  // start line
	0xA2: 1,  // display offset
	0xA4: 0,  // all off
	0xA5: 0,  // all on
	0xA6: 0,  // normal
	0xA7: 0,  // inverse
	0xAB: 1,  // function selection
	0xAD: 1,  // reserved
	0xAE: 0,  // sleep mode on
	0xAF: 0,  // sleep mode off
	0xB0: 1,  // reserved
	0xB1: 1,  // phase length
	0xB2: 3,  // display enhancement
	0xB3: 1,  // clock divider
	0xB4: 3,  // VSL
	0xB5: 1,  // GPIO
	0xB6: 1,  // second precharge
	0xB8: 63, // gray scale table
	0xB9: 0,  // built-in linear LUT
	0xBB: 1,  // precharge voltage
	0xBE: 1,  // VCOMH
	0xC1: 3,  // contrast ABC
	0xC7: 1,  // master current
	0xCA: 1,  // MUX ratio
	0xFD: 1,  // command lock
	0x96: 5,  // horizontal scroll
	0x9E: 0,  // stop scrolling
	0x9F: 0,  // start scrolling
}

// Panel is an emulated SSD1351 with its glass.
//
// Panel implements ssd1351.Transport. It is safe for concurrent use.
type Panel struct {
	mu sync.Mutex

	ram [Columns * Rows]image565.RGB565

	colStart, colEnd byte
	rowStart, rowEnd byte
	col, row         byte

	remap     byte
	startLine byte
	offset    byte
	mux       byte
	on        bool
	mode      Mode
	contrast  [3]byte
	master    byte
	locked    bool

	// Decoder state.
	op      byte
	args    []byte
	need    int
	writing bool
	hi      byte
	odd     bool

	commands int
	pixels   int
}

// New returns a Panel in its power-on state: display off, full window,
// MUX ratio 128.
func New() *Panel {
	p := &Panel{}
	p.powerOn()
	return p
}

func (p *Panel) powerOn() {
	p.ram = [Columns * Rows]image565.RGB565{}
	p.colStart, p.colEnd = 0, Columns-1
	p.rowStart, p.rowEnd = 0, Rows-1
	p.col, p.row = 0, 0
	p.remap = 0
	p.startLine = 0
	p.offset = 0
	p.mux = Rows - 1
	p.on = false
	p.mode = Normal
	p.contrast = [3]byte{0x8A, 0x51, 0x8A}
	p.master = 0x0F
	p.locked = false
	p.op, p.args, p.need = 0, nil, 0
	p.writing, p.odd = false, false
	p.commands, p.pixels = 0, 0
}

// Reset returns the panel to its power-on state, as pulsing RES does. RAM
// content is lost.
func (p *Panel) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.powerOn()
}

func (p *Panel) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fmt.Sprintf("emulator.Panel{%dx%d, on=%t, %s}", Columns, int(p.mux)+1, p.on, p.mode)
}

// SendCommands implements ssd1351.Transport. Each byte is an opcode.
func (p *Panel) SendCommands(cmd []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range cmd {
		if err := p.command(c); err != nil {
			return err
		}
	}
	return nil
}

// SendData implements ssd1351.Transport. Data completes the parameters of
// the last opcode, then, after a write RAM, is pixel data.
func (p *Panel) SendData(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(data) != 0 && p.need != 0 {
		p.args = append(p.args, data[0])
		data = data[1:]
		p.need--
		if p.need == 0 {
			p.execute()
		}
	}
	if len(data) == 0 {
		return nil
	}
	if !p.writing {
		return fmt.Errorf("%w: %d bytes after command %#02x", ErrUnexpectedData, len(data), p.op)
	}
	p.write(data)
	return nil
}

func (p *Panel) command(c byte) error {
	if p.need != 0 {
		return fmt.Errorf("emulator: command %#02x received with %d parameters of %#02x missing", c, p.need, p.op)
	}
	n, ok := paramCount[c]
	if !ok {
		return fmt.Errorf("emulator: unknown command %#02x", c)
	}
	p.commands++
	p.writing = false
	p.odd = false
	p.op = c
	p.args = p.args[:0]
	p.need = n
	if p.locked && c != 0xFD {
		// Ignored until unlocked; parameters are still consumed.
		p.op = 0
		return nil
	}
	if n == 0 {
		p.execute()
	}
	return nil
}

func (p *Panel) execute() {
	a := p.args
	switch p.op {
	case 0x15:
		p.colStart, p.colEnd = clamp(a[0], Columns), clamp(a[1], Columns)
	case 0x75:
		p.rowStart, p.rowEnd = clamp(a[0], Rows), clamp(a[1], Rows)
	case 0x5C:
		p.writing = true
		p.col, p.row = p.colStart, p.rowStart
	case 0xA0:
		p.remap = a[0]
	case 0xA1:
		p.startLine = clamp(a[0], Rows)
	case 0xA2:
		p.offset = clamp(a[0], Rows)
	case 0xA4:
		p.mode = AllOff
	case 0xA5:
		p.mode = AllOn
	case 0xA6:
		p.mode = Normal
	case 0xA7:
		p.mode = Inverse
	case 0xAE:
		p.on = false
	case 0xAF:
		p.on = true
	case 0xC1:
		copy(p.contrast[:], a)
	case 0xC7:
		p.master = a[0] & 0x0F
	case 0xCA:
		if a[0] >= 15 {
			p.mux = clamp(a[0], Rows)
		}
	case 0xFD:
		switch a[0] {
		case 0x16:
			p.locked = true
		case 0x12:
			p.locked = false
		}
	}
}

func clamp(v byte, n int) byte {
	if int(v) >= n {
		return byte(n - 1)
	}
	return v
}

// write stores pixels at the address pointer. An odd trailing byte is kept
// for the next data phase.
func (p *Panel) write(data []byte) {
	for _, b := range data {
		if !p.odd {
			p.hi, p.odd = b, true
			continue
		}
		p.odd = false
		p.ram[int(p.row)*Columns+int(p.col)] = image565.RGB565(p.hi)<<8 | image565.RGB565(b)
		p.pixels++
		p.advance()
	}
}

func (p *Panel) advance() {
	if p.remap&0x01 != 0 {
		if p.row++; p.row > p.rowEnd || int(p.row) >= Rows {
			p.row = p.rowStart
			if p.col++; p.col > p.colEnd || int(p.col) >= Columns {
				p.col = p.colStart
			}
		}
		return
	}
	if p.col++; p.col > p.colEnd || int(p.col) >= Columns {
		p.col = p.colStart
		if p.row++; p.row > p.rowEnd || int(p.row) >= Rows {
			p.row = p.rowStart
		}
	}
}

// RAM returns the pixel stored at the RAM address (col, row).
func (p *Panel) RAM(col, row int) image565.RGB565 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if col < 0 || col >= Columns || row < 0 || row >= Rows {
		return image565.Black
	}
	return p.ram[row*Columns+col]
}

// On reports whether the display is on.
func (p *Panel) On() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.on
}

// Mode returns the display mode.
func (p *Panel) Mode() Mode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

// Remap returns the remap and color depth register.
func (p *Panel) Remap() byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.remap
}

// MasterCurrent returns the master contrast current, from 0 to 15.
func (p *Panel) MasterCurrent() byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.master
}

// Stats returns the number of commands and pixels received.
func (p *Panel) Stats() (commands, pixels int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.commands, p.pixels
}

// Bounds returns the glass size: 128 columns by MUX ratio rows.
func (p *Panel) Bounds() image.Rectangle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return image.Rect(0, 0, Columns, int(p.mux)+1)
}

// Glass returns what the panel shows. It is black when the display is off.
//
// SEG0 is the leftmost column and COM0 the bottom row of the glass; the
// remap register selects which RAM column drives SEG0 and the COM scan
// direction.
func (p *Panel) Glass() *image565.Image {
	p.mu.Lock()
	defer p.mu.Unlock()
	h := int(p.mux) + 1
	img := image565.New(image.Rect(0, 0, Columns, h))
	if !p.on {
		return img
	}
	switch p.mode {
	case AllOff:
		return img
	case AllOn:
		img.Fill(image565.White)
		return img
	}
	colRemap := p.remap&0x02 != 0
	comReverse := p.remap&0x10 != 0
	for row := 0; row < h; row++ {
		// Display line row shows RAM row (row+startLine) and is driven on
		// COM (row+offset).
		ramRow := (row + int(p.startLine)) % Rows
		com := (row + int(p.offset)) % h
		gy := h - 1 - com
		if comReverse {
			gy = com
		}
		for col := 0; col < Columns; col++ {
			gx := col
			if colRemap {
				gx = Columns - 1 - col
			}
			c := p.ram[ramRow*Columns+col]
			if p.mode == Inverse {
				c = ^c
			}
			img.SetRGB565(gx, gy, c)
		}
	}
	return img
}

// Async returns the context-aware view of p, implementing
// ssd1351.AsyncTransport.
func (p *Panel) Async() *AsyncPanel {
	return &AsyncPanel{p: p}
}

// AsyncPanel is a Panel taking a context on each transfer.
type AsyncPanel struct {
	p *Panel
}

// SendCommands implements ssd1351.AsyncTransport.
func (a *AsyncPanel) SendCommands(ctx context.Context, cmd []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.p.SendCommands(cmd)
}

// SendData implements ssd1351.AsyncTransport.
func (a *AsyncPanel) SendData(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.p.SendData(data)
}

// Panel returns the underlying panel.
func (a *AsyncPanel) Panel() *Panel {
	return a.p
}
