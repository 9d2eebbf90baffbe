// Package organiser composes the weather-and-agenda screen and pushes it
// to the e-paper panel.
package organiser

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"

	"github.com/crowfoot/goorganiser/devices/epd4in2"
	"github.com/crowfoot/goorganiser/internal/gcal"
	"github.com/crowfoot/goorganiser/internal/openweather"
)

// Screen dimensions: the panel mounts in portrait, so the layout is
// 300x400 and rotates before encoding.
const (
	ScreenWidth  = epd4in2.DisplayHeight
	ScreenHeight = epd4in2.DisplayWidth
)

// Display is the subset of the panel driver the organiser drives.
type Display interface {
	Reset() error
	PowerOn() error
	WriteFrame(*epd4in2.Frame) error
	Refresh() error
	Sleep() error
}

// WeatherSource supplies the forecast, normally *openweather.Client.
type WeatherSource interface {
	Forecast(ctx context.Context) (*openweather.Forecast, error)
}

// AgendaSource supplies upcoming events, normally *gcal.Client.
type AgendaSource interface {
	Events(ctx context.Context, count int) ([]gcal.Event, error)
}

// Options configures an Organiser. Display, Weather and Agenda are
// required.
type Options struct {
	Display Display
	Weather WeatherSource
	Agenda  AgendaSource
	// Quantizer selects the grey reduction policy; Threshold if nil.
	Quantizer Quantizer
	// MaxEvents caps the agenda fetch; 50 if zero.
	MaxEvents int
}

// Organiser owns one screen's refresh cycle. Not safe for concurrent use;
// the scheduler must serialize Update calls.
type Organiser struct {
	display   Display
	weather   WeatherSource
	agenda    AgendaSource
	quantize  Quantizer
	maxEvents int

	regular *faceCache
	bold    *faceCache
}

func New(opts Options) (*Organiser, error) {
	if opts.Display == nil || opts.Weather == nil || opts.Agenda == nil {
		return nil, fmt.Errorf("organiser: display, weather and agenda sources are all required")
	}
	regular, err := newFaceCache(gomono.TTF)
	if err != nil {
		return nil, err
	}
	bold, err := newFaceCache(gomonobold.TTF)
	if err != nil {
		return nil, err
	}
	o := &Organiser{
		display:   opts.Display,
		weather:   opts.Weather,
		agenda:    opts.Agenda,
		quantize:  opts.Quantizer,
		maxEvents: opts.MaxEvents,
		regular:   regular,
		bold:      bold,
	}
	if o.quantize == nil {
		o.quantize = Threshold
	}
	if o.maxEvents == 0 {
		o.maxEvents = 50
	}
	return o, nil
}

// Update fetches fresh data, renders the screen and refreshes the panel.
// On failure the panel keeps its previous image; retry policy is the
// caller's.
func (o *Organiser) Update(ctx context.Context) error {
	events, err := o.agenda.Events(ctx, o.maxEvents)
	if err != nil {
		return fmt.Errorf("organiser: fetching agenda: %w", err)
	}
	forecast, err := o.weather.Forecast(ctx)
	if err != nil {
		return fmt.Errorf("organiser: fetching forecast: %w", err)
	}

	screen := o.compose(forecast, events, time.Now())
	return o.Show(screen)
}

// Show quantizes, rotates and displays an already composed 300x400
// screen, then puts the panel back to sleep.
func (o *Organiser) Show(screen image.Image) error {
	reduced := o.quantize(screen)
	landscape := imaging.Rotate90(reduced)

	frame, err := epd4in2.Encode(landscape)
	if err != nil {
		return fmt.Errorf("organiser: %w", err)
	}

	// The panel sleeps between updates; a reset brings it back to a known
	// power-off state before init.
	if err := o.display.Reset(); err != nil {
		return fmt.Errorf("organiser: %w", err)
	}
	if err := o.display.PowerOn(); err != nil {
		return fmt.Errorf("organiser: %w", err)
	}
	if err := o.display.WriteFrame(frame); err != nil {
		return fmt.Errorf("organiser: %w", err)
	}
	if err := o.display.Refresh(); err != nil {
		return fmt.Errorf("organiser: %w", err)
	}
	if err := o.display.Sleep(); err != nil {
		return fmt.Errorf("organiser: %w", err)
	}
	return nil
}
