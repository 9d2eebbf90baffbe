package organiser

import (
	"context"
	"errors"
	"image"
	"image/color"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/crowfoot/goorganiser/devices/epd4in2"
	"github.com/crowfoot/goorganiser/internal/gcal"
	"github.com/crowfoot/goorganiser/internal/openweather"
)

type fakeDisplay struct {
	ops    []string
	frames []*epd4in2.Frame
	failOn string
}

func (d *fakeDisplay) call(op string) error {
	d.ops = append(d.ops, op)
	if d.failOn == op {
		return errors.New(op + " failed")
	}
	return nil
}

func (d *fakeDisplay) Reset() error   { return d.call("Reset") }
func (d *fakeDisplay) PowerOn() error { return d.call("PowerOn") }
func (d *fakeDisplay) Refresh() error { return d.call("Refresh") }
func (d *fakeDisplay) Sleep() error   { return d.call("Sleep") }

func (d *fakeDisplay) WriteFrame(f *epd4in2.Frame) error {
	d.frames = append(d.frames, f)
	return d.call("WriteFrame")
}

type fakeWeather struct {
	f   *openweather.Forecast
	err error
}

func (w *fakeWeather) Forecast(ctx context.Context) (*openweather.Forecast, error) {
	return w.f, w.err
}

type fakeAgenda struct {
	events []gcal.Event
	err    error
}

func (a *fakeAgenda) Events(ctx context.Context, count int) ([]gcal.Event, error) {
	return a.events, a.err
}

func sampleForecast() *openweather.Forecast {
	f := &openweather.Forecast{
		Timezone: "UTC",
		Current: openweather.Conditions{
			At:        1618317040,
			Temp:      11.3,
			Pressure:  1019,
			Humidity:  62,
			UVIndex:   3.1,
			WindSpeed: 4.6,
			WindDeg:   250,
			Weather:   []openweather.Weather{{Icon: "03d"}},
		},
		Daily: []openweather.Daily{{
			Sunrise: 1618282134,
			Sunset:  1618333901,
			Temp:    openweather.DayTemp{Min: 4.2, Max: 13.9},
			Weather: []openweather.Weather{{Icon: "01d"}},
		}},
	}
	icons := []string{"01d", "02d", "04d", "10d", "11d", "13d", "50d", "01n"}
	for i := 0; i < 24; i++ {
		f.Hourly = append(f.Hourly, openweather.Conditions{
			At:      1618317040 + int64(i)*3600,
			Temp:    11,
			Weather: []openweather.Weather{{Icon: icons[i%len(icons)]}},
		})
	}
	return f
}

func sampleEvents() []gcal.Event {
	return []gcal.Event{
		{Title: "Holiday", Date: "2021-04-14", Status: gcal.StatusYes},
		{Title: "Dentist appointment with a title long enough to wrap over the column",
			Date: "2021-04-14", Time: "09:30", Location: "12 High Street", Status: gcal.StatusYes},
		{Title: "Standup", Date: "2021-04-15", Time: "09:00", Status: gcal.StatusNo, Recurring: true},
	}
}

func newTestOrganiser(t *testing.T, d Display, w WeatherSource, a AgendaSource) *Organiser {
	t.Helper()
	o, err := New(Options{Display: d, Weather: w, Agenda: a})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	return o
}

func TestUpdateDrivesPanel(t *testing.T) {
	d := &fakeDisplay{}
	o := newTestOrganiser(t, d, &fakeWeather{f: sampleForecast()}, &fakeAgenda{events: sampleEvents()})

	if err := o.Update(context.Background()); err != nil {
		t.Fatalf("Update() = %v", err)
	}

	want := []string{"Reset", "PowerOn", "WriteFrame", "Refresh", "Sleep"}
	if !reflect.DeepEqual(d.ops, want) {
		t.Errorf("display ops = %v, want %v", d.ops, want)
	}
	if len(d.frames) != 1 {
		t.Fatalf("wrote %d frames, want 1", len(d.frames))
	}
	f := d.frames[0]
	if len(f.DTM1) != epd4in2.PlaneSize || len(f.DTM2) != epd4in2.PlaneSize {
		t.Errorf("frame planes %d+%d bytes, want %d each", len(f.DTM1), len(f.DTM2), epd4in2.PlaneSize)
	}
}

func TestUpdatePropagatesSourceErrors(t *testing.T) {
	cases := []struct {
		desc    string
		weather WeatherSource
		agenda  AgendaSource
		want    string
	}{
		{
			desc:    "weather down",
			weather: &fakeWeather{err: errors.New("socket timeout")},
			agenda:  &fakeAgenda{events: sampleEvents()},
			want:    "forecast",
		},
		{
			desc:    "calendar down",
			weather: &fakeWeather{f: sampleForecast()},
			agenda:  &fakeAgenda{err: errors.New("401")},
			want:    "agenda",
		},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			d := &fakeDisplay{}
			o := newTestOrganiser(t, d, c.weather, c.agenda)
			err := o.Update(context.Background())
			if err == nil {
				t.Fatal("Update() succeeded with a failing source")
			}
			if !strings.Contains(err.Error(), c.want) {
				t.Errorf("Update() = %q, want mention of %q", err, c.want)
			}
			if len(d.ops) != 0 {
				t.Errorf("display touched (%v) despite fetch failure", d.ops)
			}
		})
	}
}

func TestShowStopsOnDisplayError(t *testing.T) {
	d := &fakeDisplay{failOn: "Refresh"}
	o := newTestOrganiser(t, d, &fakeWeather{f: sampleForecast()}, &fakeAgenda{})

	err := o.Update(context.Background())
	if err == nil {
		t.Fatal("Update() swallowed a refresh failure")
	}
	want := []string{"Reset", "PowerOn", "WriteFrame", "Refresh"}
	if !reflect.DeepEqual(d.ops, want) {
		t.Errorf("display ops = %v, want %v (no Sleep after failure)", d.ops, want)
	}
}

func TestComposeLayout(t *testing.T) {
	o := newTestOrganiser(t, &fakeDisplay{}, &fakeWeather{}, &fakeAgenda{})

	img := o.compose(sampleForecast(), sampleEvents(), time.Now())
	if got, want := img.Bounds().Size(), image.Pt(ScreenWidth, ScreenHeight); got != want {
		t.Fatalf("compose bounds = %v, want %v", got, want)
	}

	var inked int
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if epd4in2.Model.Convert(img.At(x, y)) != epd4in2.White {
				inked++
			}
		}
	}
	if inked == 0 {
		t.Error("composed screen is entirely white")
	}
}

func TestComposeDeterministic(t *testing.T) {
	o := newTestOrganiser(t, &fakeDisplay{}, &fakeWeather{}, &fakeAgenda{})
	now := time.Unix(1618317040, 0)

	a := o.compose(sampleForecast(), sampleEvents(), now)
	b := o.compose(sampleForecast(), sampleEvents(), now)
	if !reflect.DeepEqual(a, b) {
		t.Error("two composes of the same data differ")
	}
}

func gradient() image.Image {
	img := image.NewGray(image.Rect(0, 0, ScreenWidth, ScreenHeight))
	for y := 0; y < ScreenHeight; y++ {
		for x := 0; x < ScreenWidth; x++ {
			img.SetGray(x, y, color.Gray{uint8((x * 255) / ScreenWidth)})
		}
	}
	return img
}

func TestQuantizersStayInPalette(t *testing.T) {
	for _, c := range []struct {
		desc string
		q    Quantizer
	}{
		{desc: "threshold", q: Threshold},
		{desc: "floyd-steinberg", q: FloydSteinberg},
		{desc: "bayer", q: Bayer},
	} {
		t.Run(c.desc, func(t *testing.T) {
			out := c.q(gradient())
			if got, want := out.Bounds().Size(), image.Pt(ScreenWidth, ScreenHeight); got != want {
				t.Fatalf("bounds = %v, want %v", got, want)
			}
			pal, ok := out.(*image.Paletted)
			if !ok {
				t.Fatalf("quantizer returned %T, want *image.Paletted", out)
			}
			if len(pal.Palette) != len(epd4in2.Palette) {
				t.Errorf("palette has %d colors, want %d", len(pal.Palette), len(epd4in2.Palette))
			}
		})
	}
}

func TestThresholdMatchesModel(t *testing.T) {
	src := gradient()
	out := Threshold(src).(*image.Paletted)
	for _, x := range []int{0, ScreenWidth / 3, ScreenWidth / 2, ScreenWidth - 1} {
		want := epd4in2.Model.Convert(src.At(x, 0)).(epd4in2.Gray2).Level()
		if got := out.ColorIndexAt(x, 0); got != want {
			t.Errorf("index at x=%d is %d, want %d", x, got, want)
		}
	}
}

func TestQuantizerFor(t *testing.T) {
	for _, name := range []string{"", "none", "threshold", "floyd-steinberg", "bayer"} {
		if _, err := QuantizerFor(name); err != nil {
			t.Errorf("QuantizerFor(%q) = %v", name, err)
		}
	}
	if _, err := QuantizerFor("ordered-3x3"); err == nil {
		t.Error("QuantizerFor accepted an unknown mode")
	}
}
