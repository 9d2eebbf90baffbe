package organiser

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/fogleman/gg"

	"github.com/crowfoot/goorganiser/devices/epd4in2"
	"github.com/crowfoot/goorganiser/internal/gcal"
	"github.com/crowfoot/goorganiser/internal/openweather"
)

// Layout constants for the portrait screen, sized for the 300px width.
const (
	barCellWidth  = 13
	barHeight     = 8
	agendaTop     = 70
	agendaTimeX   = 44
	agendaTextX   = 83
	agendaWrap    = 217
	agendaBottom  = 396
	agendaLine    = 11.0
	agendaSpacing = 14.0
)

// compose renders the full screen: hourly bar, current conditions and the
// agenda. Pure drawing; no I/O.
func (o *Organiser) compose(f *openweather.Forecast, events []gcal.Event, now time.Time) image.Image {
	loc, err := f.Location()
	if err != nil {
		loc = now.Location()
	}

	dc := gg.NewContext(ScreenWidth, ScreenHeight)
	dc.SetColor(epd4in2.White)
	dc.Clear()

	o.drawForecastBar(dc, f, loc)
	o.drawForecastDetail(dc, f, loc)
	o.drawAgenda(dc, events)

	return dc.Image()
}

// severityColor shades an hourly cell: the nicer the weather, the lighter
// the cell.
func severityColor(c openweather.Condition) color.Color {
	switch c {
	case openweather.ClearDay, openweather.ClearNight,
		openweather.PartlyCloudyDay, openweather.PartlyCloudyNight:
		return epd4in2.White
	case openweather.Fog, openweather.Rain, openweather.Snow, openweather.Thunderstorm:
		return epd4in2.Dark
	}
	return epd4in2.Light
}

func hourlyCondition(f *openweather.Forecast, i int) openweather.Condition {
	if i >= len(f.Hourly) || len(f.Hourly[i].Weather) == 0 {
		return openweather.ConditionUnknown
	}
	return f.Hourly[i].Weather[0].Condition()
}

// drawForecastBar draws the next 23 hours as shaded cells with a 3-hour
// tick scale underneath.
func (o *Organiser) drawForecastBar(dc *gg.Context, f *openweather.Forecast, loc *time.Location) {
	for i := 0; i < 23; i++ {
		dc.SetColor(severityColor(hourlyCondition(f, i)))
		dc.DrawRectangle(float64(i*barCellWidth), 0, barCellWidth, barHeight)
		dc.Fill()
	}

	dc.SetColor(epd4in2.Black)
	dc.SetLineWidth(1)
	dc.SetFontFace(o.regular.face(8))
	for i := 0; i <= 23; i++ {
		x := float64(i * barCellWidth)
		dc.DrawLine(x, barHeight, x, barHeight+2)
		dc.Stroke()
		if i > 0 && i%3 == 0 && i < len(f.Hourly) {
			t := time.Unix(f.Hourly[i].At, 0).In(loc)
			dc.DrawString(fmt.Sprintf("%02d", t.Hour()), x-4, barHeight+10)
		}
	}
	dc.DrawLine(0, barHeight, ScreenWidth, barHeight)
	dc.Stroke()
}

// drawForecastDetail draws the current conditions block under the bar.
func (o *Organiser) drawForecastDetail(dc *gg.Context, f *openweather.Forecast, loc *time.Location) {
	cond := openweather.ConditionUnknown
	if len(f.Current.Weather) > 0 {
		cond = f.Current.Weather[0].Condition()
	}
	drawIcon(dc, cond, 4, 20, 48)

	dc.SetColor(epd4in2.Black)
	dc.SetFontFace(o.bold.face(22))
	dc.DrawString(fmt.Sprintf("%d°C", round(f.Current.Temp)), 55, 40)

	dc.SetColor(epd4in2.Dark)
	dc.SetFontFace(o.regular.face(14))
	if len(f.Daily) > 0 {
		dc.DrawString(fmt.Sprintf("%d°/%d°", round(f.Daily[0].Temp.Min), round(f.Daily[0].Temp.Max)), 55, 58)
	}

	dc.SetFontFace(o.regular.face(12))
	if len(f.Daily) > 0 {
		sunrise := time.Unix(f.Daily[0].Sunrise, 0).In(loc)
		sunset := time.Unix(f.Daily[0].Sunset, 0).In(loc)
		dc.DrawString("SR:"+sunrise.Format("15:04"), 175, 32)
		dc.DrawString("SS:"+sunset.Format("15:04"), 175, 44)
	}
	dc.DrawString(fmt.Sprintf("UV:%.0f", f.Current.UVIndex), 175, 56)

	dc.DrawString(fmt.Sprintf("P:%6.1f", f.Current.Pressure), 236, 32)
	dc.DrawString(fmt.Sprintf("H:%.0f%%", f.Current.Humidity), 236, 44)
	dc.DrawString(fmt.Sprintf("W:%.0f %s", f.Current.WindSpeed,
		openweather.CompassDirection(f.Current.WindDeg)), 236, 56)
}

// agendaColors picks text shades by attendance: declined events fade out,
// unanswered ones sit in between.
func agendaColors(s gcal.Status) (main, extras color.Color) {
	switch s {
	case gcal.StatusNo:
		return epd4in2.Light, epd4in2.Light
	case gcal.StatusUnknown, gcal.StatusMaybe:
		return epd4in2.Dark, epd4in2.Light
	}
	return epd4in2.Black, epd4in2.Dark
}

// drawAgenda lists upcoming events from agendaTop down, one rule per
// entry, a date gutter on the first entry of each day. Entries that would
// cross the bottom edge are dropped whole.
func (o *Organiser) drawAgenda(dc *gg.Context, events []gcal.Event) {
	dc.SetFontFace(o.regular.face(12))

	y := float64(agendaTop)
	lastDate := ""
	for _, ev := range events {
		label := ev.Date
		if t, err := time.Parse("2006-01-02", ev.Date); err == nil {
			label = t.Format("02/01")
		}

		title := dc.WordWrap(ev.Title, agendaWrap)
		var extras []string
		if ev.Description != "" {
			extras = append(extras, dc.WordWrap(ev.Description, agendaWrap)...)
		}
		if ev.Location != "" {
			extras = append(extras, dc.WordWrap(ev.Location, agendaWrap)...)
		}
		height := agendaLine*float64(len(title)+len(extras)) + agendaSpacing - agendaLine
		if y+height > agendaBottom {
			break
		}

		if label != lastDate {
			dc.SetColor(epd4in2.Black)
			dc.DrawString(label, 5, y+10)
			dc.SetColor(epd4in2.Dark)
			dc.DrawLine(0, y+2, ScreenWidth, y+2)
			dc.Stroke()
		} else {
			dc.SetColor(epd4in2.Light)
			dc.DrawLine(agendaTimeX-2, y+2, ScreenWidth, y+2)
			dc.Stroke()
		}

		main, extra := agendaColors(ev.Status)
		if ev.Time != "" {
			dc.SetColor(main)
			dc.DrawString(ev.Time, agendaTimeX, y+10)
		}
		dc.SetColor(main)
		for i, line := range title {
			dc.DrawString(line, agendaTextX, y+10+agendaLine*float64(i))
		}
		dc.SetColor(extra)
		for i, line := range extras {
			dc.DrawString(line, agendaTextX, y+10+agendaLine*float64(len(title)+i))
		}

		y += height
		lastDate = label
	}

	dc.SetColor(epd4in2.Dark)
	dc.DrawLine(0, y+2, ScreenWidth, y+2)
	dc.Stroke()
}

func round(v float64) int {
	return int(math.Round(v))
}
