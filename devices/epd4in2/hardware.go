package epd4in2

import (
	"fmt"
	"io"
	"sync"
	"time"

	"periph.io/x/periph/conn"
	"periph.io/x/periph/conn/gpio"
)

// hardware owns the SPI connection and the control lines for one driver
// session. It must not be shared across displays; all transfers are
// serialized by the mutex.
type hardware struct {
	txLimit int

	mut sync.Mutex
	// c is a periph conn.Conn.
	c conn.Conn

	// busy is the controller's busy output. The UC8176 holds it low while
	// an operation is in progress.
	busy gpio.PinIO
	// cs is the Chip Enable pin.
	cs gpio.PinOut
	// dc is the data/command pin.
	dc gpio.PinOut
	// rst is the hardware reset pin.
	rst gpio.PinOut
	// led is an optional status pin, blinked during busy-waits. May be nil.
	led gpio.PinOut

	// pollInterval is the sleep between busy line samples.
	pollInterval time.Duration
}

func (h *hardware) DataWriter() io.Writer {
	return &batchedWriter{&dataWriter{h}, h.txLimit}
}

func (h *hardware) CommandWriter() io.Writer {
	return &commandWriter{h}
}

// reset drives the documented low pulse on the RST line. It is the only
// way to leave deep sleep.
func (h *hardware) reset() error {
	if err := h.rst.Out(gpio.High); err != nil {
		return fmt.Errorf("%v.Out(%v) = %w", h.rst.String(), gpio.High.String(), err)
	}
	time.Sleep(200 * time.Millisecond)
	if err := h.rst.Out(gpio.Low); err != nil {
		return fmt.Errorf("%v.Out(%v) = %w", h.rst.String(), gpio.Low.String(), err)
	}
	time.Sleep(200 * time.Millisecond)
	if err := h.rst.Out(gpio.High); err != nil {
		return fmt.Errorf("%v.Out(%v) = %w", h.rst.String(), gpio.High.String(), err)
	}
	time.Sleep(200 * time.Millisecond)
	return nil
}

// waitUntilIdle polls the busy line until the controller reports idle or
// the deadline passes. The loop is bounded so a wedged controller surfaces
// as ErrHardwareTimeout instead of a hang.
func (h *hardware) waitUntilIdle(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	blink := gpio.Low
	for h.busy.Read() == gpio.Low {
		if time.Now().After(deadline) {
			h.ledOut(gpio.High)
			return fmt.Errorf("%w after %v", ErrHardwareTimeout, timeout)
		}
		h.ledOut(blink)
		blink = !blink
		time.Sleep(h.pollInterval)
	}
	h.ledOut(gpio.High)
	return nil
}

func (h *hardware) ledOut(l gpio.Level) {
	if h.led == nil {
		return
	}
	// Best effort; a dead status LED must not fail the transfer.
	h.led.Out(l)
}

type dataWriter struct {
	*hardware
}

func (w *dataWriter) Write(p []byte) (n int, err error) {
	w.mut.Lock()
	defer w.mut.Unlock()
	if len(p) == 0 {
		return 0, nil
	}
	if err := w.cs.Out(gpio.Low); err != nil {
		return 0, fmt.Errorf("%v.Out(%v) = %w", w.cs.String(), gpio.Low.String(), err)
	}
	if err := w.dc.Out(gpio.High); err != nil {
		return 0, fmt.Errorf("%v.Out(%v) = %w", w.dc.String(), gpio.High.String(), err)
	}
	defer func() {
		if e := w.cs.Out(gpio.High); e != nil && err == nil {
			err = fmt.Errorf("%v.Out(%v) = %w", w.cs.String(), gpio.High.String(), e)
		}
	}()
	if w.txLimit <= 0 {
		return 0, io.ErrShortWrite
	}
	if len(p) > w.txLimit {
		if err := w.c.Tx(p[:w.txLimit], nil); err != nil {
			return 0, err
		}
		return w.txLimit, io.ErrShortWrite
	}
	if err := w.c.Tx(p, nil); err != nil {
		return 0, err
	}
	return len(p), nil
}

type commandWriter struct {
	*hardware
}

func (w *commandWriter) writeCommand(p byte) (err error) {
	w.mut.Lock()
	defer w.mut.Unlock()
	if err := w.dc.Out(gpio.Low); err != nil {
		return fmt.Errorf("%v.Out(%v) = %w", w.dc.String(), gpio.Low.String(), err)
	}
	if err := w.cs.Out(gpio.Low); err != nil {
		return fmt.Errorf("%v.Out(%v) = %w", w.cs.String(), gpio.Low.String(), err)
	}
	defer func() {
		if e := w.cs.Out(gpio.High); e != nil && err == nil {
			err = fmt.Errorf("%v.Out(%v) = %w", w.cs.String(), gpio.High.String(), e)
		}
	}()
	if err := w.c.Tx([]byte{p}, nil); err != nil {
		return fmt.Errorf("sending command %#02x: %w", p, err)
	}
	return nil
}

// Write sends p[0] as a command byte and the remainder as payload data.
func (w *commandWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	cmd, data := p[0], p[1:]
	if err := w.writeCommand(cmd); err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 1, nil
	}
	n, err := w.DataWriter().Write(data)
	return 1 + n, err
}

// batchedWriter splits writes into chunks no larger than the SPI driver's
// transfer limit.
type batchedWriter struct {
	dst       io.Writer
	batchSize int
}

func (b *batchedWriter) Write(p []byte) (int, error) {
	var sent int
	for i := 0; i < len(p); i += b.batchSize {
		j := i + b.batchSize
		if j > len(p) {
			j = len(p)
		}
		n, err := b.dst.Write(p[i:j])
		sent += n
		if err != nil {
			return sent, err
		}
	}
	return sent, nil
}
