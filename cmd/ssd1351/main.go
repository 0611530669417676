// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// ssd1351 draws a test scene on a SSD1351 display, or on an emulated one
// previewed in the terminal or served over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/mattn/go-isatty"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
	"golang.org/x/sync/semaphore"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"

	"github.com/GermanBionicSystems/oled/ssd1351"
	"github.com/GermanBionicSystems/oled/ssd1351/emulator"
	"github.com/GermanBionicSystems/oled/termscreen"
	"github.com/GermanBionicSystems/oled/videosink"
)

func parseSize(s string) (ssd1351.Size, error) {
	switch s {
	case "128x128":
		return ssd1351.Size128x128, nil
	case "128x96":
		return ssd1351.Size128x96, nil
	}
	return 0, fmt.Errorf("unsupported size %q", s)
}

func parseRotation(deg int) (ssd1351.Rotation, error) {
	switch deg {
	case 0:
		return ssd1351.Rotate0, nil
	case 90:
		return ssd1351.Rotate90, nil
	case 180:
		return ssd1351.Rotate180, nil
	case 270:
		return ssd1351.Rotate270, nil
	}
	return 0, fmt.Errorf("unsupported rotation %d", deg)
}

// scene renders shapes and text with gg, the Go TrueType font and the
// basic bitmap font.
func scene(w, h int) (image.Image, error) {
	dc := gg.NewContext(w, h)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.SetRGB(0.1, 0.3, 1)
	dc.DrawRectangle(0, 0, float64(w), float64(h)/4)
	dc.Fill()
	for i := 0; i < 6; i++ {
		dc.SetRGB(float64(i)/6, 1-float64(i)/6, 0.5)
		dc.DrawCircle(float64(10+i*(w-20)/5), float64(h)*0.6, 6)
		dc.Fill()
	}
	dc.SetRGB(1, 1, 1)
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(1, 1, float64(w-2), float64(h-2), 6)
	dc.Stroke()

	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: 14}))
	dc.DrawStringAnchored("SSD1351", float64(w)/2, float64(h)/8, 0.5, 0.5)

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), dc.Image(), image.Point{}, draw.Src)
	face := basicfont.Face7x13
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{255, 200, 0, 255}),
		Face: face,
		Dot:  fixed.P(4, h-4-face.Descent),
	}
	d.DrawString(fmt.Sprintf("%dx%d", w, h))
	return img, nil
}

// label writes s with a bitmap font through the tinygo display interface.
func label(b drivers.Displayer, s string) error {
	tinyfont.WriteLine(b, &proggy.TinySZ8pt7b, 4, 36, s, color.RGBA{0, 255, 0, 255})
	return b.Display()
}

func runDev(d *ssd1351.Dev, rst gpio.PinOut, img image.Image, contrast int, invert bool) error {
	if rst != nil {
		if err := d.Reset(rst, nil); err != nil {
			return err
		}
	}
	if err := d.Init(); err != nil {
		return err
	}
	if contrast >= 0 {
		if err := d.SetContrast(byte(contrast)); err != nil {
			return err
		}
	}
	if err := d.Invert(invert); err != nil {
		return err
	}
	if err := d.Draw(d.Bounds(), img, image.Point{}); err != nil {
		return err
	}
	b := d.Bounds()
	for _, p := range []image.Point{{0, 0}, {b.Max.X - 1, 0}, {0, b.Max.Y - 1}, {b.Max.X - 1, b.Max.Y - 1}} {
		if err := d.SetPixel(p.X, p.Y, ssd1351.Color(0xFFFF)); err != nil {
			return err
		}
	}
	return nil
}

func runBuffered(d *ssd1351.Buffered, rst gpio.PinOut, img image.Image, contrast int, invert bool) error {
	if rst != nil {
		if err := d.Reset(rst, nil); err != nil {
			return err
		}
	}
	if err := d.Init(); err != nil {
		return err
	}
	if contrast >= 0 {
		if err := d.SetContrast(byte(contrast)); err != nil {
			return err
		}
	}
	if err := d.Invert(invert); err != nil {
		return err
	}
	if err := d.Clear(false); err != nil {
		return err
	}
	draw.Draw(d.Image(), d.Bounds(), img, image.Point{}, draw.Src)
	if err := label(d.Displayer(), "buffered"); err != nil {
		return err
	}
	// Only the marker is sent.
	if err := d.FillRect(image.Rect(60, 60, 68, 68), ssd1351.Color(0xF800)); err != nil {
		return err
	}
	return d.FlushChanged()
}

func runAsync(ctx context.Context, d *ssd1351.AsyncDev, rst gpio.PinOut, img image.Image, contrast int, invert bool) error {
	if rst != nil {
		if err := d.Reset(ctx, rst); err != nil {
			return err
		}
	}
	if err := d.Init(ctx); err != nil {
		return err
	}
	if contrast >= 0 {
		if err := d.SetContrast(ctx, byte(contrast)); err != nil {
			return err
		}
	}
	if err := d.Invert(ctx, invert); err != nil {
		return err
	}
	return d.Draw(ctx, d.Bounds(), img, image.Point{})
}

func runAsyncBuffered(ctx context.Context, d *ssd1351.AsyncBuffered, rst gpio.PinOut, img image.Image, contrast int, invert bool) error {
	if rst != nil {
		if err := d.Reset(ctx, rst); err != nil {
			return err
		}
	}
	if err := d.Init(ctx); err != nil {
		return err
	}
	if contrast >= 0 {
		if err := d.SetContrast(ctx, byte(contrast)); err != nil {
			return err
		}
	}
	if err := d.Invert(ctx, invert); err != nil {
		return err
	}
	draw.Draw(d.Image(), d.Bounds(), img, image.Point{}, draw.Src)
	return label(d.Displayer(ctx), "async")
}

func mainImpl() error {
	spiName := flag.String("spi", "", "SPI port to use")
	dcName := flag.String("dc", "GPIO25", "D/C pin")
	rstName := flag.String("rst", "", "RES pin, optional")
	size := flag.String("size", "128x128", "panel size: 128x128 or 128x96")
	rotate := flag.Int("rotate", 0, "rotation in degrees: 0, 90, 180 or 270")
	buffered := flag.Bool("buffered", false, "draw in a framebuffer")
	async := flag.Bool("async", false, "use the context-aware API")
	emulate := flag.Bool("emulate", false, "draw on an emulated panel instead of hardware")
	scale := flag.Int("scale", 2, "preview downscale factor with -emulate")
	contrast := flag.Int("contrast", -1, "master contrast 0-15, -1 keeps the default")
	invert := flag.Bool("invert", false, "invert the display")
	timeout := flag.Duration("timeout", 10*time.Second, "timeout with -async")
	halt := flag.Bool("halt", false, "turn the display off before exiting")
	httpAddr := flag.String("http", "", "serve the emulated panel on this address with -emulate, e.g. :8080")
	format := flag.String("format", "png", "image format served with -http: png or jpeg")
	zoom := flag.Int("zoom", 3, "pixel size of the image served with -http")
	flag.Parse()
	if flag.NArg() != 0 {
		return fmt.Errorf("unexpected argument: %q", flag.Args())
	}

	opts := ssd1351.DefaultOpts
	var err error
	if opts.Size, err = parseSize(*size); err != nil {
		return err
	}
	if opts.Rotation, err = parseRotation(*rotate); err != nil {
		return err
	}

	var t ssd1351.Transport
	var panel *emulator.Panel
	var rst gpio.PinOut
	if *emulate {
		panel = emulator.New()
		t = panel
	} else {
		if _, err := host.Init(); err != nil {
			return err
		}
		p, err := spireg.Open(*spiName)
		if err != nil {
			return err
		}
		defer p.Close()
		dc := gpioreg.ByName(*dcName)
		if dc == nil {
			return fmt.Errorf("unknown D/C pin %q", *dcName)
		}
		if *rstName != "" {
			if rst = gpioreg.ByName(*rstName); rst == nil {
				return fmt.Errorf("unknown RES pin %q", *rstName)
			}
		}
		if t, err = ssd1351.ConnectSPI(p, dc); err != nil {
			return err
		}
	}
	w, h := opts.Size.Dimensions()
	if opts.Rotation == ssd1351.Rotate90 || opts.Rotation == ssd1351.Rotate270 {
		w, h = h, w
	}
	img, err := scene(w, h)
	if err != nil {
		return err
	}

	if *httpAddr != "" && !*emulate {
		return fmt.Errorf("-http requires -emulate")
	}

	sigCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx, cancel := context.WithTimeout(sigCtx, *timeout)
	defer cancel()
	// A single session here; Shared shows how several on the same bus
	// would take turns.
	at := ssd1351.Shared(t, semaphore.NewWeighted(1))

	start := time.Now()
	var halter func() error
	switch {
	case *async && *buffered:
		d, err := ssd1351.NewAsyncBuffered(at, &opts)
		if err != nil {
			return err
		}
		log.Printf("%s", d)
		err = runAsyncBuffered(ctx, d, rst, img, *contrast, *invert)
		halter = func() error { return d.Halt(context.Background()) }
		if err != nil {
			return err
		}
	case *async:
		d, err := ssd1351.NewAsync(at, &opts)
		if err != nil {
			return err
		}
		log.Printf("%s", d)
		err = runAsync(ctx, d, rst, img, *contrast, *invert)
		halter = func() error { return d.Halt(context.Background()) }
		if err != nil {
			return err
		}
	case *buffered:
		d, err := ssd1351.NewBuffered(t, &opts)
		if err != nil {
			return err
		}
		log.Printf("%s", d)
		if err := runBuffered(d, rst, img, *contrast, *invert); err != nil {
			return err
		}
		halter = d.Halt
	default:
		d, err := ssd1351.New(t, &opts)
		if err != nil {
			return err
		}
		log.Printf("%s", d)
		if err := runDev(d, rst, img, *contrast, *invert); err != nil {
			return err
		}
		halter = d.Halt
	}
	log.Printf("drawn in %s", time.Since(start))

	if panel != nil {
		cmds, pixels := panel.Stats()
		log.Printf("%s: %d commands, %d pixels", panel, cmds, pixels)
		if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			glass := panel.Glass()
			s := termscreen.New(&termscreen.Opts{W: glass.Rect.Dx(), H: glass.Rect.Dy(), Scale: *scale})
			if err := s.Draw(s.Bounds(), glass, image.Point{}); err != nil {
				return err
			}
			if err := s.Halt(); err != nil {
				return err
			}
		}
	}
	if *httpAddr != "" {
		if err := preview(sigCtx, panel, *httpAddr, *format, *zoom); err != nil {
			return err
		}
	}
	if *halt {
		return halter()
	}
	return nil
}

// preview serves the emulated panel until ctx is canceled.
func preview(ctx context.Context, panel *emulator.Panel, addr, format string, zoom int) error {
	f, err := videosink.ParseFormat(format)
	if err != nil {
		return err
	}
	glass := panel.Glass()
	sink, err := videosink.New(&videosink.Opts{
		Width:     glass.Rect.Dx(),
		Height:    glass.Rect.Dy(),
		Scale:     zoom,
		Format:    f,
		Keepalive: 5 * time.Second,
	})
	if err != nil {
		return err
	}
	if err := sink.Draw(sink.Bounds(), glass, image.Point{}); err != nil {
		return err
	}
	srv := &http.Server{Addr: addr, Handler: sink}
	go func() {
		<-ctx.Done()
		_ = sink.Halt()
		_ = srv.Close()
	}()
	log.Printf("serving %s on http://%s/", sink, addr)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		log.Fatalf("ssd1351: %v", err)
	}
}
