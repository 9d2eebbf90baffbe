package epd4in2

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
)

// The panel's four grey levels, brightest to darkest. The byte values are
// the top two bits of an 8-bit intensity, matching the controller's 2-bit
// pixel codes.
var (
	White = Gray2{0xC0}
	Light = Gray2{0x80}
	Dark  = Gray2{0x40}
	Black = Gray2{0x00}

	// Model quantizes any color to the nearest of the four grey levels.
	Model = color.ModelFunc(model)

	// Palette lists the four levels, useful for ditherers.
	Palette = []color.Color{Black, Dark, Light, White}
)

// Gray2 is a 2-bit grey color. Y holds the level in its top two bits; the
// lower six bits are always zero.
type Gray2 struct {
	Y uint8
}

// Level returns the pixel code, 0 (black) through 3 (white).
func (c Gray2) Level() uint8 {
	return c.Y >> 6
}

func (c Gray2) RGBA() (r, g, b, a uint32) {
	// Spread the 2-bit level over the full 16-bit range: 0, 0x5555,
	// 0xAAAA, 0xFFFF.
	y := uint32(c.Level()) * 0x5555
	return y, y, y, 0xFFFF
}

func model(c color.Color) color.Color {
	if g, ok := c.(Gray2); ok {
		return Gray2{g.Y & 0xC0}
	}
	r, g, b, _ := c.RGBA()
	y := (299*r + 587*g + 114*b) / 1000
	// Round to the nearest of four evenly spaced levels.
	level := uint8((y*3 + 0x7FFF) / 0xFFFF)
	return Gray2{level << 6}
}

// Image is a 2-bit-per-pixel greyscale image in the controller's RAM
// layout: four pixels per byte, most significant bits first, rows padded
// to whole bytes. A new Image is all white.
type Image struct {
	// Pix holds the packed pixel codes.
	Pix []byte
	// Stride is the Pix distance in bytes between rows.
	Stride int
	Rect   image.Rectangle
}

// NewImage returns a white Image with the given bounds.
func NewImage(r image.Rectangle) *Image {
	stride := (r.Dx() + 3) / 4
	return &Image{
		Pix:    bytes.Repeat([]byte{0xFF}, stride*r.Dy()),
		Stride: stride,
		Rect:   r,
	}
}

func (p *Image) ColorModel() color.Model {
	return Model
}

func (p *Image) Bounds() image.Rectangle {
	return p.Rect
}

func (p *Image) At(x, y int) color.Color {
	return p.Gray2At(x, y)
}

// Gray2At returns the grey level at (x, y). Out of bounds pixels are
// white, the panel's rest state.
func (p *Image) Gray2At(x, y int) Gray2 {
	if !(image.Point{x, y}.In(p.Rect)) {
		return White
	}
	idx, shift := p.pixOffset(x, y)
	return Gray2{((p.Pix[idx] >> shift) & 0x03) << 6}
}

func (p *Image) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(p.Rect)) {
		return
	}
	g := Model.Convert(c).(Gray2)
	idx, shift := p.pixOffset(x, y)
	p.Pix[idx] = p.Pix[idx]&^(0x03<<shift) | g.Level()<<shift
}

// pixOffset returns the byte index and bit shift for pixel (x, y).
func (p *Image) pixOffset(x, y int) (idx int, shift uint) {
	x -= p.Rect.Min.X
	y -= p.Rect.Min.Y
	return y*p.Stride + x/4, uint(6 - 2*(x%4))
}

// Frame is a packed frame ready for the controller's image RAM: two 1-bit
// planes of PlaneSize bytes, MSB-first along each row. DTM1 carries the
// high bit of each pixel code and is sent with data start transmission 1
// (0x10); DTM2 carries the low bit and goes to register 0x13. The plane
// bit pairs per level are white 1/1, light 1/0, dark 0/1, black 0/0.
type Frame struct {
	DTM1 []byte
	DTM2 []byte
}

// Encode packs img into the two RAM planes. It is deterministic and has
// no side effects: equal pixel data yields byte-identical frames.
//
// The image bounds must be exactly 400x300, the panel's native landscape
// resolution; anything else is rejected with ErrUnsupportedDimensions
// before any work is done. Non-Gray2 colors are quantized through Model;
// callers wanting dithering should apply it before encoding.
func Encode(img image.Image) (*Frame, error) {
	b := img.Bounds()
	if b.Dx() != DisplayWidth || b.Dy() != DisplayHeight {
		return nil, fmt.Errorf("%w: got %dx%d, want %dx%d",
			ErrUnsupportedDimensions, b.Dx(), b.Dy(), DisplayWidth, DisplayHeight)
	}
	f := &Frame{
		DTM1: make([]byte, PlaneSize),
		DTM2: make([]byte, PlaneSize),
	}
	native, _ := img.(*Image)
	for y := 0; y < DisplayHeight; y++ {
		row := y * DisplayWidthBytes
		for x := 0; x < DisplayWidth; x++ {
			var level uint8
			if native != nil {
				level = native.Gray2At(b.Min.X+x, b.Min.Y+y).Level()
			} else {
				level = Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(Gray2).Level()
			}
			bit := byte(0x80 >> (uint(x) % 8))
			if level&0x02 != 0 {
				f.DTM1[row+x/8] |= bit
			}
			if level&0x01 != 0 {
				f.DTM2[row+x/8] |= bit
			}
		}
	}
	return f, nil
}
