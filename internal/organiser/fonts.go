package organiser

import (
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

// faceCache lazily builds font faces per point size. The organiser is
// single-threaded, so no locking.
type faceCache struct {
	fnt   *opentype.Font
	faces map[float64]font.Face
}

func newFaceCache(ttf []byte) (*faceCache, error) {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("organiser: parsing font: %w", err)
	}
	return &faceCache{fnt: f, faces: map[float64]font.Face{}}, nil
}

func (c *faceCache) face(size float64) font.Face {
	if f, ok := c.faces[size]; ok {
		return f
	}
	f, err := opentype.NewFace(c.fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		// NewFace only fails on invalid options; the sizes used here are
		// all fixed constants.
		panic(err)
	}
	c.faces[size] = f
	return f
}
