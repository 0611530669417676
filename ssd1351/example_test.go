// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1351_test

import (
	"context"
	"fmt"
	"image"
	"log"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/oled/ssd1351"
	"github.com/GermanBionicSystems/oled/ssd1351/emulator"
	"github.com/GermanBionicSystems/oled/ssd1351/image565"
)

func Example() {
	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}

	// Use spireg SPI port registry to find the first available SPI bus.
	p, err := spireg.Open("")
	if err != nil {
		log.Fatal(err)
	}
	defer p.Close()

	dev, err := ssd1351.NewSPI(p, gpioreg.ByName("GPIO25"), &ssd1351.DefaultOpts)
	if err != nil {
		log.Fatalf("failed to initialize ssd1351: %v", err)
	}
	if err := dev.Reset(gpioreg.ByName("GPIO24"), nil); err != nil {
		log.Fatal(err)
	}
	if err := dev.Init(); err != nil {
		log.Fatal(err)
	}
	if err := dev.FillRect(image.Rect(16, 16, 112, 112), image565.Blue); err != nil {
		log.Fatal(err)
	}
}

func ExampleBuffered() {
	panel := emulator.New()
	dev, err := ssd1351.NewBuffered(panel, &ssd1351.Opts{Size: ssd1351.Size128x96, Rotation: ssd1351.Rotate90})
	if err != nil {
		log.Fatal(err)
	}
	if err := dev.Init(); err != nil {
		log.Fatal(err)
	}
	fmt.Println(dev.Bounds())
	for i := 0; i < 96; i++ {
		if err := dev.SetPixel(i, i, image565.White); err != nil {
			log.Fatal(err)
		}
	}
	if err := dev.FlushChanged(); err != nil {
		log.Fatal(err)
	}
	fmt.Println(panel)
	// Output:
	// (0,0)-(96,128)
	// emulator.Panel{128x96, on=true, normal}
}

func ExampleAsyncDev() {
	panel := emulator.New()
	dev, err := ssd1351.NewAsync(panel.Async(), nil)
	if err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()
	if err := dev.Init(ctx); err != nil {
		log.Fatal(err)
	}
	if err := dev.SetPixel(ctx, 10, 20, image565.Red); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%#04x\n", uint16(panel.Glass().RGB565At(10, 20)))
	// Output:
	// 0xf800
}
