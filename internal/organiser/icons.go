package organiser

import (
	"math"

	"github.com/fogleman/gg"

	"github.com/crowfoot/goorganiser/devices/epd4in2"
	"github.com/crowfoot/goorganiser/internal/openweather"
)

// drawIcon draws a weather glyph into the square at (x, y) with side s.
// The glyphs are drawn, not shipped as bitmaps, so the binary carries no
// assets.
func drawIcon(dc *gg.Context, c openweather.Condition, x, y, s float64) {
	cx, cy := x+s/2, y+s/2
	switch c {
	case openweather.ClearDay:
		drawSun(dc, cx, cy, s*0.40)
	case openweather.ClearNight:
		drawMoon(dc, cx, cy, s*0.34)
	case openweather.PartlyCloudyDay:
		drawSun(dc, x+s*0.35, y+s*0.32, s*0.26)
		drawCloud(dc, cx, y+s*0.62, s*0.42)
	case openweather.PartlyCloudyNight:
		drawMoon(dc, x+s*0.35, y+s*0.30, s*0.20)
		drawCloud(dc, cx, y+s*0.62, s*0.42)
	case openweather.Cloudy:
		drawCloud(dc, cx, cy, s*0.46)
	case openweather.Fog:
		drawCloud(dc, cx, y+s*0.40, s*0.38)
		dc.SetColor(epd4in2.Dark)
		dc.SetLineWidth(2)
		for i := 0.0; i < 3; i++ {
			ly := y + s*(0.68+0.12*i)
			dc.DrawLine(x+s*0.12, ly, x+s*0.88, ly)
			dc.Stroke()
		}
	case openweather.Rain:
		drawCloud(dc, cx, y+s*0.40, s*0.38)
		dc.SetColor(epd4in2.Black)
		dc.SetLineWidth(2)
		for i := 0.0; i < 3; i++ {
			lx := x + s*(0.28+0.22*i)
			dc.DrawLine(lx, y+s*0.68, lx-s*0.08, y+s*0.92)
			dc.Stroke()
		}
	case openweather.Snow:
		drawCloud(dc, cx, y+s*0.40, s*0.38)
		dc.SetColor(epd4in2.Black)
		for i := 0.0; i < 3; i++ {
			dc.DrawCircle(x+s*(0.28+0.22*i), y+s*0.80, s*0.05)
			dc.Fill()
		}
	case openweather.Thunderstorm:
		drawCloud(dc, cx, y+s*0.40, s*0.38)
		dc.SetColor(epd4in2.Black)
		dc.MoveTo(cx+s*0.06, y+s*0.58)
		dc.LineTo(cx-s*0.10, y+s*0.78)
		dc.LineTo(cx+s*0.02, y+s*0.78)
		dc.LineTo(cx-s*0.08, y+s*0.98)
		dc.LineTo(cx+s*0.16, y+s*0.72)
		dc.LineTo(cx+s*0.04, y+s*0.72)
		dc.ClosePath()
		dc.Fill()
	default:
		// Unknown conditions get an empty box rather than a wrong glyph.
		dc.SetColor(epd4in2.Dark)
		dc.SetLineWidth(1)
		dc.DrawRectangle(x+s*0.2, y+s*0.2, s*0.6, s*0.6)
		dc.Stroke()
	}
}

func drawSun(dc *gg.Context, cx, cy, r float64) {
	dc.SetColor(epd4in2.Black)
	dc.SetLineWidth(2)
	dc.DrawCircle(cx, cy, r*0.55)
	dc.Stroke()
	for i := 0; i < 8; i++ {
		a := float64(i) * math.Pi / 4
		dc.DrawLine(cx+math.Cos(a)*r*0.7, cy+math.Sin(a)*r*0.7,
			cx+math.Cos(a)*r, cy+math.Sin(a)*r)
		dc.Stroke()
	}
}

func drawMoon(dc *gg.Context, cx, cy, r float64) {
	dc.SetColor(epd4in2.Black)
	dc.DrawCircle(cx, cy, r)
	dc.Fill()
	// Bite a crescent out with the background color.
	dc.SetColor(epd4in2.White)
	dc.DrawCircle(cx+r*0.5, cy-r*0.3, r*0.85)
	dc.Fill()
}

func drawCloud(dc *gg.Context, cx, cy, r float64) {
	fill := func() {
		dc.DrawCircle(cx-r*0.8, cy+r*0.2, r*0.55)
		dc.DrawCircle(cx, cy-r*0.25, r*0.75)
		dc.DrawCircle(cx+r*0.8, cy+r*0.2, r*0.55)
		dc.DrawRectangle(cx-r*0.8, cy+r*0.15, r*1.6, r*0.6)
	}
	dc.SetColor(epd4in2.Light)
	fill()
	dc.Fill()
	dc.SetColor(epd4in2.Black)
	dc.SetLineWidth(1.5)
	fill()
	dc.Stroke()
}
