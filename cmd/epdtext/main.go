// Binary epdtext displays a line of text on a Waveshare 4.2 inch
// e-paper panel.
package main

import (
	"flag"
	"image/color"
	"log"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/opentype"

	"github.com/crowfoot/goorganiser/devices/epd4in2"
	"github.com/crowfoot/goorganiser/internal/organiser"
)

var (
	text   = flag.String("text", "Hello, world!", "Text to display.")
	size   = flag.Float64("size", 48, "Font size in points.")
	rotate = flag.Float64("rotate", 0.0, "Image rotation in degrees.")
)

func main() {
	flag.Parse()

	img := imaging.New(epd4in2.DisplayWidth, epd4in2.DisplayHeight, color.White)
	ctx := gg.NewContextForImage(img)
	ctx.SetFontFace(fontFace(*size))
	ctx.SetColor(epd4in2.Black)
	ctx.DrawStringWrapped(*text, epd4in2.DisplayWidth/2, epd4in2.DisplayHeight/2, 0.5, 0.5, epd4in2.DisplayWidth-40, 1.2, gg.AlignCenter)

	rot := imaging.Rotate(ctx.Image(), *rotate, color.White)
	fit := imaging.Fit(rot, epd4in2.DisplayWidth, epd4in2.DisplayHeight, imaging.Lanczos)
	final := imaging.PasteCenter(imaging.New(epd4in2.DisplayWidth, epd4in2.DisplayHeight, color.White), fit)

	frame, err := epd4in2.Encode(organiser.Threshold(final))
	if err != nil {
		log.Fatal(err)
	}

	d, err := epd4in2.New(epd4in2.DefaultPins)
	if err != nil {
		log.Fatal(err)
	}
	log.Println("Initializing")
	if err := d.PowerOn(); err != nil {
		log.Fatal(err)
	}
	log.Println("Displaying text")
	if err := d.WriteFrame(frame); err != nil {
		log.Fatal(err)
	}
	if err := d.Refresh(); err != nil {
		log.Fatal(err)
	}
	if err := d.Sleep(); err != nil {
		log.Fatal(err)
	}
}

func fontFace(size float64) font.Face {
	f, err := opentype.Parse(gomonobold.TTF)
	if err != nil {
		log.Fatal(err)
	}
	ff, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		log.Fatal(err)
	}
	return ff
}
