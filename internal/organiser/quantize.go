package organiser

import (
	"fmt"
	"image"
	"image/color"

	"github.com/makeworld-the-better-one/dither"

	"github.com/crowfoot/goorganiser/devices/epd4in2"
)

// A Quantizer reduces a full-color image to the panel's four grey levels.
// The exact policy is configurable; threshold is the faithful default and
// the ditherers trade banding for grain.
type Quantizer func(image.Image) image.Image

// Threshold maps every pixel to its nearest grey level independently.
func Threshold(img image.Image) image.Image {
	b := img.Bounds()
	dst := image.NewPaletted(b, color.Palette(epd4in2.Palette))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := epd4in2.Model.Convert(img.At(x, y)).(epd4in2.Gray2)
			dst.SetColorIndex(x, y, g.Level())
		}
	}
	return dst
}

// FloydSteinberg applies serpentine error-diffusion dithering over the
// four grey levels.
func FloydSteinberg(img image.Image) image.Image {
	d := dither.NewDitherer(epd4in2.Palette)
	d.Matrix = dither.FloydSteinberg
	d.Serpentine = true
	return d.DitherPaletted(img)
}

// Bayer applies 8x8 ordered dithering over the four grey levels.
func Bayer(img image.Image) image.Image {
	d := dither.NewDitherer(epd4in2.Palette)
	d.Mapper = dither.Bayer(8, 8, 1.0)
	return d.DitherPaletted(img)
}

// QuantizerFor resolves a configuration name to a Quantizer.
func QuantizerFor(name string) (Quantizer, error) {
	switch name {
	case "", "threshold", "none":
		return Threshold, nil
	case "floyd-steinberg":
		return FloydSteinberg, nil
	case "bayer":
		return Bayer, nil
	}
	return nil, fmt.Errorf("organiser: unknown dither mode %q", name)
}
