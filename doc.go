// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package oled is a container for the SSD1351 color OLED driver and the
// tools to preview its output on a host.
//
// The driver lives in ssd1351. termscreen and videosink show an emulated
// panel in a terminal or a browser; cmd/ssd1351 ties them together.
package oled
