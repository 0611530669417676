// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ssd1351 controls a 128x128 or 128x96 RGB OLED display via a
// SSD1351 controller.
//
// The controller is driven over 4-wire SPI: every transfer is either a
// command phase, with the D/C pin Low, or a data phase, with the D/C pin
// High. Pixels are 16 bits 5-6-5 and sent big endian.
//
// Dev writes to the controller RAM directly: each SetPixel selects a one
// pixel window then sends 2 bytes, and FillRect, WriteRegion and Draw send a
// whole rectangle in a single transfer. Buffered draws into a local
// framebuffer instead and sends it with Flush, or with FlushChanged which
// only sends the smallest rectangle holding the modified pixels.
//
// AsyncDev and AsyncBuffered expose the same operations taking a
// context.Context. Both forms share one implementation and produce the same
// byte stream.
//
// The RES pin must be High for the controller to run. When wired, Reset
// pulses it; Init must be called again afterward.
//
// # Datasheet
//
// https://cdn-shop.adafruit.com/datasheets/SSD1351-Revision+1.3.pdf
package ssd1351
