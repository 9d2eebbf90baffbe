// Package epd4in2 drives the Waveshare 4.2 inch e-Paper module (UC8176
// controller) in 4-level greyscale mode.
//
// The driver is a thin state machine over the controller's documented
// command set: PowerOn runs the init sequence, WriteFrame pushes a packed
// frame into the controller RAM, Refresh triggers the (slow) electrophoretic
// update, and Sleep enters deep sleep. All failures are returned to the
// caller; the driver never logs or retries on its own.
package epd4in2

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi"
	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/host"
)

const (
	// Device width in pixels, landscape orientation.
	DisplayWidth = 400
	// Device width in bytes at one bit per pixel.
	DisplayWidthBytes = 400 / 8
	// Device height in pixels.
	DisplayHeight = 300
	// PlaneSize is the byte length of one 1-bit RAM plane.
	PlaneSize = DisplayWidthBytes * DisplayHeight
)

// Errors returned by driver operations. Operations wrap these with context;
// match with errors.Is.
var (
	// ErrBusUnavailable means the SPI port or a GPIO line could not be
	// acquired. There is no recovery without host intervention.
	ErrBusUnavailable = errors.New("epd4in2: bus unavailable")
	// ErrHardwareTimeout means a busy-wait did not see the controller go
	// idle within its deadline.
	ErrHardwareTimeout = errors.New("epd4in2: busy-wait timed out")
	// ErrInitFailed means the power-on sequence did not reach idle.
	ErrInitFailed = errors.New("epd4in2: init sequence failed")
	// ErrRefreshTimeout means a refresh did not complete within
	// RefreshTimeout. The panel keeps its previous image.
	ErrRefreshTimeout = errors.New("epd4in2: refresh timed out")
	// ErrInvalidFrameSize means a frame's plane lengths do not match the
	// panel's RAM window. Nothing is sent to the controller.
	ErrInvalidFrameSize = errors.New("epd4in2: packed frame size mismatch")
	// ErrUnsupportedDimensions means an image does not match the panel's
	// fixed 400x300 resolution.
	ErrUnsupportedDimensions = errors.New("epd4in2: unsupported image dimensions")
	// ErrInvalidState means the operation is not legal in the panel's
	// current state.
	ErrInvalidState = errors.New("epd4in2: operation not valid in current state")
)

// PanelState tracks the controller's power and refresh state machine.
type PanelState int

const (
	PoweredOff PanelState = iota
	Initializing
	Idle
	Writing
	Refreshing
	Sleeping
)

func (s PanelState) String() string {
	switch s {
	case PoweredOff:
		return "PoweredOff"
	case Initializing:
		return "Initializing"
	case Idle:
		return "Idle"
	case Writing:
		return "Writing"
	case Refreshing:
		return "Refreshing"
	case Sleeping:
		return "Sleeping"
	}
	return fmt.Sprintf("PanelState(%d)", int(s))
}

// Pins names the GPIO lines wired to the panel.
//
// Standard pin locations are as follows:
//  Busy - Busy      - Pin 18 (GPIO 24)
//  CLK  - SPI0 SCLK - Pin 23 (GPIO 11)
//  CS   - SPI0 CE0  - Pin 24 (GPIO 8)
//  DC   - Data/Cmd  - Pin 22 (GPIO 25)
//  DIN  - SPI0 MOSI - Pin 19 (GPIO 10)
//  RST  - Reset     - Pin 11 (GPIO 17)
//  LED  - optional  - Pin 13 (GPIO 27)
type Pins struct {
	// Busy pin name, typically "P1_18"
	Busy string
	// CS pin name, typically "P1_24"
	CS string
	// DC pin name, typically "P1_22"
	DC string
	// RST pin name, typically "P1_11"
	RST string
	// LED pin name for the status light; empty disables it.
	LED string
	// SPI port name for spireg.Open; empty selects the first available
	// port.
	SPI string
}

var DefaultPins = Pins{
	Busy: "P1_18",
	CS:   "P1_24",
	DC:   "P1_22",
	RST:  "P1_11",
	LED:  "P1_13",
}

// Default deadlines for busy-waits. A full 4-level refresh takes on the
// order of ten seconds on this panel.
var (
	DefaultInitTimeout    = 10 * time.Second
	DefaultRefreshTimeout = 45 * time.Second
)

// Display is a client for the e-Paper panel. It exclusively owns the SPI
// connection and control lines for its lifetime; methods must not be
// called concurrently.
type Display struct {
	hw    *hardware
	state PanelState
	// framePending is set once a frame has been written and cleared when a
	// refresh completes; a refresh is only legal in between.
	framePending bool

	// InitTimeout bounds the busy-waits inside PowerOn.
	InitTimeout time.Duration
	// RefreshTimeout bounds the busy-wait after a refresh trigger.
	RefreshTimeout time.Duration
}

// New opens the SPI port and control lines and returns a powered-off
// Display. Acquisition failures wrap ErrBusUnavailable.
//
// Pin names are gpioreg.ByName() values, such as "P1_22".
func New(p Pins) (*Display, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: host.Init() = %v", ErrBusUnavailable, err)
	}

	dc := gpioreg.ByName(p.DC)
	if dc == nil {
		return nil, fmt.Errorf("%w: invalid dc pin %q", ErrBusUnavailable, p.DC)
	}
	if err := dc.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("%w: dc.Out(%v) = %v", ErrBusUnavailable, gpio.Low, err)
	}

	cs := gpioreg.ByName(p.CS)
	if cs == nil {
		return nil, fmt.Errorf("%w: invalid cs pin %q", ErrBusUnavailable, p.CS)
	}
	if err := cs.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("%w: cs.Out(%v) = %v", ErrBusUnavailable, gpio.High, err)
	}

	rst := gpioreg.ByName(p.RST)
	if rst == nil {
		return nil, fmt.Errorf("%w: invalid rst pin %q", ErrBusUnavailable, p.RST)
	}
	if err := rst.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("%w: rst.Out(%v) = %v", ErrBusUnavailable, gpio.Low, err)
	}

	busy := gpioreg.ByName(p.Busy)
	if busy == nil {
		return nil, fmt.Errorf("%w: invalid busy pin %q", ErrBusUnavailable, p.Busy)
	}
	if err := busy.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("%w: busy.In(%v, %v) = %v", ErrBusUnavailable, gpio.PullNoChange, gpio.NoEdge, err)
	}

	var led gpio.PinOut
	if p.LED != "" {
		l := gpioreg.ByName(p.LED)
		if l == nil {
			return nil, fmt.Errorf("%w: invalid led pin %q", ErrBusUnavailable, p.LED)
		}
		if err := l.Out(gpio.High); err != nil {
			return nil, fmt.Errorf("%w: led.Out(%v) = %v", ErrBusUnavailable, gpio.High, err)
		}
		led = l
	}

	port, err := spireg.Open(p.SPI)
	if err != nil {
		return nil, fmt.Errorf("%w: spireg.Open(%q) = %v", ErrBusUnavailable, p.SPI, err)
	}
	// The UC8176 is specified up to 10Mhz for writes; 4Mhz is the vendor
	// reference rate and tolerates long HAT wiring.
	c, err := port.Connect(4*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		connerr := fmt.Errorf("%w: port.Connect(%v, %v, %v) = %v", ErrBusUnavailable, 4*physic.MegaHertz, spi.Mode0, 8, err)
		if err := port.Close(); err != nil {
			return nil, fmt.Errorf("port.Close() = %v while handling %q", err, connerr)
		}
		return nil, connerr
	}

	return &Display{
		hw: &hardware{
			txLimit:      2048,
			c:            c,
			dc:           dc,
			cs:           cs,
			rst:          rst,
			busy:         busy,
			led:          led,
			pollInterval: 10 * time.Millisecond,
		},
		state:          PoweredOff,
		InitTimeout:    DefaultInitTimeout,
		RefreshTimeout: DefaultRefreshTimeout,
	}, nil
}

// State reports the panel's current state.
func (d *Display) State() PanelState {
	return d.state
}

// Reset pulses the RST line and returns the state machine to PoweredOff.
// It is legal in any state and is the recovery path out of Sleeping, a
// failed init, or a timed-out refresh.
func (d *Display) Reset() error {
	if err := d.hw.reset(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	d.state = PoweredOff
	d.framePending = false
	return nil
}

// PowerOn resets the controller and runs the documented init sequence:
// supply voltages, booster, panel mode, PLL, resolution window, VCOM and
// the grey waveform tables. On success the panel is Idle.
func (d *Display) PowerOn() error {
	if d.state != PoweredOff {
		return fmt.Errorf("%w: PowerOn in %v", ErrInvalidState, d.state)
	}
	d.state = Initializing
	if err := d.hw.reset(); err != nil {
		return fmt.Errorf("%w: %v", ErrInitFailed, err)
	}
	for _, step := range initSequence {
		if err := d.sendCommand(step.cmd, step.data...); err != nil {
			return fmt.Errorf("%w: command %#02x: %v", ErrInitFailed, byte(step.cmd), err)
		}
		if step.cmd == powerOn {
			if err := d.hw.waitUntilIdle(d.InitTimeout); err != nil {
				return fmt.Errorf("%w: waiting after power on: %v", ErrInitFailed, err)
			}
		}
	}
	if err := d.hw.waitUntilIdle(d.InitTimeout); err != nil {
		return fmt.Errorf("%w: %v", ErrInitFailed, err)
	}
	d.state = Idle
	return nil
}

// WriteFrame loads a packed frame into the controller's image RAM. The
// frame size is validated before any bus activity so a mismatched frame
// cannot leave the controller mid-write. The panel shows nothing until
// Refresh.
func (d *Display) WriteFrame(f *Frame) error {
	if f == nil || len(f.DTM1) != PlaneSize || len(f.DTM2) != PlaneSize {
		return fmt.Errorf("%w: got %d+%d bytes, want %d per plane",
			ErrInvalidFrameSize, frameLen(f, 0), frameLen(f, 1), PlaneSize)
	}
	if d.state != Idle {
		return fmt.Errorf("%w: WriteFrame in %v", ErrInvalidState, d.state)
	}
	d.state = Writing
	if err := d.sendCommand(dataStartTransmission1, f.DTM1...); err != nil {
		return fmt.Errorf("writing plane 1: %w", err)
	}
	if err := d.sendCommand(dataStartTransmission2, f.DTM2...); err != nil {
		return fmt.Errorf("writing plane 2: %w", err)
	}
	d.state = Idle
	d.framePending = true
	return nil
}

// Refresh triggers the electrophoretic update and blocks until the busy
// line clears. On timeout the state stays Refreshing: the caller may call
// Refresh again to keep waiting, or Reset to power-cycle. A refresh is
// only legal once a frame has been written since the last one.
func (d *Display) Refresh() error {
	switch d.state {
	case Refreshing:
		// Retrying after a timeout; the trigger was already sent.
	case Idle:
		if !d.framePending {
			return fmt.Errorf("%w: Refresh without a written frame", ErrInvalidState)
		}
		d.state = Refreshing
		if err := d.sendCommand(displayRefresh); err != nil {
			return fmt.Errorf("refresh trigger: %w", err)
		}
	default:
		return fmt.Errorf("%w: Refresh in %v", ErrInvalidState, d.state)
	}
	if err := d.hw.waitUntilIdle(d.RefreshTimeout); err != nil {
		return fmt.Errorf("%w: %v", ErrRefreshTimeout, err)
	}
	d.state = Idle
	d.framePending = false
	return nil
}

// Clear writes an all-white frame and refreshes. The panel retains white
// with no power, so this is the polite state to leave it in.
func (d *Display) Clear() error {
	white := bytes.Repeat([]byte{0xFF}, PlaneSize)
	if err := d.WriteFrame(&Frame{DTM1: white, DTM2: white}); err != nil {
		return err
	}
	return d.Refresh()
}

// Sleep powers off the charge pumps and enters deep sleep. No operation is
// valid afterwards until Reset and PowerOn.
func (d *Display) Sleep() error {
	if d.state != Idle {
		return fmt.Errorf("%w: Sleep in %v", ErrInvalidState, d.state)
	}
	if err := d.sendCommand(powerOff); err != nil {
		return fmt.Errorf("power off: %w", err)
	}
	if err := d.sendCommand(deepSleep, deepSleepCheck); err != nil {
		return fmt.Errorf("deep sleep: %w", err)
	}
	d.state = Sleeping
	return nil
}

func (d *Display) sendCommand(cmd command, data ...byte) error {
	_, err := d.hw.CommandWriter().Write(append([]byte{byte(cmd)}, data...))
	return err
}

func frameLen(f *Frame, plane int) int {
	if f == nil {
		return 0
	}
	if plane == 0 {
		return len(f.DTM1)
	}
	return len(f.DTM2)
}
