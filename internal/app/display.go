package app

import (
	"fmt"
	"image"
	"log"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// ShowSplash initializes the OLED and draws the static monitoring banner.
// The display is only touched once, at startup; per-iteration updates are
// deliberately not part of the sampling loop. The ssd1306 driver fixes the
// bus address at 0x3C.
func ShowSplash(bus i2c.Bus) error {
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Println("display: initialized at 0x3C")

	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	// Blank image
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	drawer.Dot = fixed.P(25, 26)
	drawer.DrawBytes([]byte("Enviro+"))

	drawer.Dot = fixed.P(20, 43)
	drawer.DrawBytes([]byte("Monitoring!"))

	return dev.Draw(dev.Bounds(), img, image.Point{})
}
