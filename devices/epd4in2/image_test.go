package epd4in2

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestModel(t *testing.T) {
	cases := []struct {
		desc string
		in   color.Color
		want Gray2
	}{
		{desc: "white", in: color.White, want: White},
		{desc: "black", in: color.Black, want: Black},
		{desc: "low grey rounds to dark", in: color.Gray{0x55}, want: Dark},
		{desc: "high grey rounds to light", in: color.Gray{0xAB}, want: Light},
		{desc: "gray2 passes through", in: Light, want: Light},
		{desc: "gray2 low bits masked", in: Gray2{0x7F}, want: Dark},
		{desc: "red weighs darker than green", in: color.RGBA{0xFF, 0, 0, 0xFF}, want: Dark},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			if got := Model.Convert(c.in); got != c.want {
				t.Errorf("Model.Convert(%v) = %v, want %v", c.in, got, c.want)
			}
		})
	}
}

func TestImageSetAt(t *testing.T) {
	img := NewImage(image.Rect(0, 0, 8, 2))
	if got := img.Gray2At(3, 0); got != White {
		t.Errorf("new image pixel = %v, want %v", got, White)
	}

	img.Set(0, 0, Black)
	img.Set(1, 0, Dark)
	img.Set(2, 0, Light)
	img.Set(3, 0, White)
	img.Set(4, 1, color.Black)

	if got, want := img.Pix[0], byte(0b00_01_10_11); got != want {
		t.Errorf("Pix[0] = %08b, want %08b", got, want)
	}
	if got, want := img.Pix[3], byte(0b00_11_11_11); got != want {
		t.Errorf("Pix[3] = %08b, want %08b", got, want)
	}
	for _, c := range []struct {
		x, y int
		want Gray2
	}{
		{0, 0, Black}, {1, 0, Dark}, {2, 0, Light}, {3, 0, White}, {4, 1, Black}, {5, 1, White},
	} {
		if got := img.Gray2At(c.x, c.y); got != c.want {
			t.Errorf("Gray2At(%d, %d) = %v, want %v", c.x, c.y, got, c.want)
		}
	}

	// Out of bounds reads are white, out of bounds writes are dropped.
	img.Set(8, 0, Black)
	if got := img.Gray2At(8, 0); got != White {
		t.Errorf("Gray2At(8, 0) = %v, want %v", got, White)
	}
}

func TestImageStridePadding(t *testing.T) {
	// Width not a multiple of the 4-pixel pack ratio pads each row to a
	// whole byte.
	img := NewImage(image.Rect(0, 0, 5, 3))
	if img.Stride != 2 {
		t.Fatalf("Stride = %d, want 2", img.Stride)
	}
	if got, want := len(img.Pix), 6; got != want {
		t.Fatalf("len(Pix) = %d, want %d", got, want)
	}
	img.Set(4, 2, Black)
	if got, want := img.Pix[5], byte(0b00_11_11_11); got != want {
		t.Errorf("Pix[5] = %08b, want %08b", got, want)
	}
}

// decodeLevel recovers the 2-bit code for pixel (x, y) from the packed
// planes. Test-only inverse of Encode.
func decodeLevel(f *Frame, x, y int) uint8 {
	idx := y*DisplayWidthBytes + x/8
	bit := byte(0x80 >> (uint(x) % 8))
	var level uint8
	if f.DTM1[idx]&bit != 0 {
		level |= 0x02
	}
	if f.DTM2[idx]&bit != 0 {
		level |= 0x01
	}
	return level
}

func fullImage(c color.Color) *Image {
	img := NewImage(image.Rect(0, 0, DisplayWidth, DisplayHeight))
	for y := 0; y < DisplayHeight; y++ {
		for x := 0; x < DisplayWidth; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestEncodeUniform(t *testing.T) {
	cases := []struct {
		desc   string
		c      Gray2
		p1, p2 byte
	}{
		{desc: "all white", c: White, p1: 0xFF, p2: 0xFF},
		{desc: "all light", c: Light, p1: 0xFF, p2: 0x00},
		{desc: "all dark", c: Dark, p1: 0x00, p2: 0xFF},
		{desc: "all black", c: Black, p1: 0x00, p2: 0x00},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			f, err := Encode(fullImage(c.c))
			if err != nil {
				t.Fatalf("Encode() = %v", err)
			}
			if got, want := len(f.DTM1), PlaneSize; got != want {
				t.Fatalf("len(DTM1) = %d, want %d", got, want)
			}
			if got, want := len(f.DTM2), PlaneSize; got != want {
				t.Fatalf("len(DTM2) = %d, want %d", got, want)
			}
			if !bytes.Equal(f.DTM1, bytes.Repeat([]byte{c.p1}, PlaneSize)) {
				t.Errorf("DTM1 not uniformly %#02x", c.p1)
			}
			if !bytes.Equal(f.DTM2, bytes.Repeat([]byte{c.p2}, PlaneSize)) {
				t.Errorf("DTM2 not uniformly %#02x", c.p2)
			}
		})
	}
}

func checkerboard() *Image {
	img := NewImage(image.Rect(0, 0, DisplayWidth, DisplayHeight))
	for y := 0; y < DisplayHeight; y++ {
		for x := 0; x < DisplayWidth; x++ {
			img.Set(x, y, Palette[(x+y)%4])
		}
	}
	return img
}

func TestEncodeRoundTrip(t *testing.T) {
	cases := []struct {
		desc string
		img  *Image
	}{
		{desc: "checkerboard", img: checkerboard()},
		{desc: "all white", img: fullImage(White)},
		{desc: "all black", img: fullImage(Black)},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			f, err := Encode(c.img)
			if err != nil {
				t.Fatalf("Encode() = %v", err)
			}
			for y := 0; y < DisplayHeight; y++ {
				for x := 0; x < DisplayWidth; x++ {
					got := decodeLevel(f, x, y)
					want := c.img.Gray2At(x, y).Level()
					if got != want {
						t.Fatalf("decodeLevel(%d, %d) = %d, want %d", x, y, got, want)
					}
				}
			}
		})
	}
}

func TestEncodeDeterministic(t *testing.T) {
	img := checkerboard()
	a, err := Encode(img)
	if err != nil {
		t.Fatalf("Encode() = %v", err)
	}
	b, err := Encode(img)
	if err != nil {
		t.Fatalf("Encode() = %v", err)
	}
	if !bytes.Equal(a.DTM1, b.DTM1) || !bytes.Equal(a.DTM2, b.DTM2) {
		t.Error("two encodes of the same image differ")
	}
}

func TestEncodeRejectsDimensions(t *testing.T) {
	cases := []struct {
		desc string
		r    image.Rectangle
	}{
		{desc: "one too wide", r: image.Rect(0, 0, DisplayWidth+1, DisplayHeight)},
		{desc: "one too tall", r: image.Rect(0, 0, DisplayWidth, DisplayHeight+1)},
		{desc: "unrotated portrait", r: image.Rect(0, 0, DisplayHeight, DisplayWidth)},
		{desc: "empty", r: image.Rectangle{}},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			if _, err := Encode(NewImage(c.r)); !errors.Is(err, ErrUnsupportedDimensions) {
				t.Errorf("Encode() = %v, want ErrUnsupportedDimensions", err)
			}
		})
	}
}

func TestEncodeQuantizesForeignImages(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, DisplayWidth, DisplayHeight))
	for y := 0; y < DisplayHeight; y++ {
		for x := 0; x < DisplayWidth; x++ {
			src.SetGray(x, y, color.Gray{uint8(x % 256)})
		}
	}
	f, err := Encode(src)
	if err != nil {
		t.Fatalf("Encode() = %v", err)
	}
	for x := 0; x < DisplayWidth; x++ {
		want := Model.Convert(src.GrayAt(x, 0)).(Gray2).Level()
		if got := decodeLevel(f, x, 0); got != want {
			t.Fatalf("decodeLevel(%d, 0) = %d, want %d", x, got, want)
		}
	}
}

func BenchmarkEncode(b *testing.B) {
	img := checkerboard()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Encode(img); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEncodeForeign(b *testing.B) {
	img := image.NewRGBA(image.Rect(0, 0, DisplayWidth, DisplayHeight))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Encode(img); err != nil {
			b.Fatal(err)
		}
	}
}
