// Binary epdimage displays an image file on a Waveshare 4.2 inch
// e-paper panel. Useful for checking wiring and dither settings.
package main

import (
	"flag"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"

	"github.com/disintegration/imaging"

	"github.com/crowfoot/goorganiser/devices/epd4in2"
	"github.com/crowfoot/goorganiser/internal/organiser"
)

var (
	rotate = flag.Float64("rotate", 0.0, "Image rotation in degrees.")
	dith   = flag.String("dither", "floyd-steinberg", "Grey reduction: threshold, floyd-steinberg or bayer.")
	sleep  = flag.Bool("sleep", true, "Put the panel to sleep after displaying.")
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatalf("usage: %s [flags] image.png", os.Args[0])
	}

	quantize, err := organiser.QuantizerFor(*dith)
	if err != nil {
		log.Fatal(err)
	}
	img, err := loadImage(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	frame, err := epd4in2.Encode(quantize(img))
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
	log.Println("Displaying image")
	if err := d.WriteFrame(frame); err != nil {
		log.Fatal(err)
	}
	if err := d.Refresh(); err != nil {
		log.Fatal(err)
	}
	if *sleep {
		log.Println("Powering off")
		if err := d.Sleep(); err != nil {
			log.Fatal(err)
		}
	}
}

// loadImage decodes, rotates and letterboxes the file onto a white
// canvas at the panel's native size.
func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	rot := imaging.Rotate(img, *rotate, color.White)
	fit := imaging.Fit(rot, epd4in2.DisplayWidth, epd4in2.DisplayHeight, imaging.Lanczos)
	return imaging.PasteCenter(imaging.New(epd4in2.DisplayWidth, epd4in2.DisplayHeight, color.White), fit), nil
}
