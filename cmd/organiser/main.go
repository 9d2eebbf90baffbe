// Binary organiser keeps a weather and agenda dashboard on a Waveshare
// 4.2 inch e-paper panel, updating it on a cron schedule.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/crowfoot/goorganiser/devices/epd4in2"
	"github.com/crowfoot/goorganiser/internal/config"
	"github.com/crowfoot/goorganiser/internal/gcal"
	"github.com/crowfoot/goorganiser/internal/openweather"
	"github.com/crowfoot/goorganiser/internal/organiser"
)

var (
	configPath = flag.String("config", "organiser.json", "Path to the configuration file.")
	authorize  = flag.Bool("authorize", false, "Run the Google Calendar authorization flow and exit.")
	once       = flag.Bool("once", false, "Update the screen once and exit.")
)

// retryDelay is how soon a failed update is retried, ahead of the
// regular schedule.
const retryDelay = 5 * time.Minute

func main() {
	flag.Parse()
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if *authorize {
		if err := runAuthorize(ctx, cfg); err != nil {
			log.Fatal(err)
		}
		return
	}

	org, d, err := build(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	if *once {
		if err := org.Update(ctx); err != nil {
			log.Fatal(err)
		}
		return
	}

	// Validate has already accepted the expression.
	sched, err := cron.ParseStandard(cfg.Schedule)
	if err != nil {
		log.Fatal(err)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	// The first update runs immediately. Failures never kill the daemon:
	// the device may boot before the network is up, so a failed update
	// just schedules a retry.
	next := time.Now()
	for {
		timer := time.NewTimer(time.Until(next))
		select {
		case s := <-c:
			timer.Stop()
			log.Printf("Got signal %q, clearing display and quitting", s.String())
			if err := clearPanel(d); err != nil {
				log.Print(err)
			}
			return
		case <-timer.C:
			log.Println("Updating display")
			err := org.Update(ctx)
			if err != nil {
				log.Printf("Update failed: %v", err)
			}
			next = nextUpdate(sched, time.Now(), err != nil)
			log.Printf("Next update at %v", next.Format(time.RFC822))
		}
	}
}

// nextUpdate picks the wake-up after an update attempt: the schedule's
// next slot, or a short retry when the attempt failed.
func nextUpdate(sched cron.Schedule, now time.Time, failed bool) time.Time {
	if failed {
		return now.Add(retryDelay)
	}
	return sched.Next(now)
}

func build(ctx context.Context, cfg config.Config) (*organiser.Organiser, *epd4in2.Display, error) {
	d, err := epd4in2.New(cfg.Display.Pins)
	if err != nil {
		return nil, nil, err
	}
	quantizer, err := organiser.QuantizerFor(cfg.Display.Dither)
	if err != nil {
		return nil, nil, err
	}
	agenda, err := gcal.NewClient(ctx, cfg.Calendar.CredentialsFile, cfg.Calendar.TokenFile, cfg.Calendar.Calendars)
	if err != nil {
		return nil, nil, err
	}
	weather := openweather.NewClient(cfg.Weather.APIKey, cfg.Weather.Latitude, cfg.Weather.Longitude)

	org, err := organiser.New(organiser.Options{
		Display:   d,
		Weather:   weather,
		Agenda:    agenda,
		Quantizer: quantizer,
		MaxEvents: cfg.Calendar.MaxEvents,
	})
	if err != nil {
		return nil, nil, err
	}
	return org, d, nil
}

// runAuthorize walks the OAuth installed-app flow on the terminal and
// caches the token where the daemon will look for it.
func runAuthorize(ctx context.Context, cfg config.Config) error {
	err := gcal.Authorize(ctx, cfg.Calendar.CredentialsFile, cfg.Calendar.TokenFile, func(authURL string) (string, error) {
		fmt.Printf("Open the following link in your browser, then paste the authorization code:\n%v\n> ", authURL)
		var code string
		if _, err := fmt.Fscan(bufio.NewReader(os.Stdin), &code); err != nil {
			return "", fmt.Errorf("reading authorization code: %w", err)
		}
		return code, nil
	})
	if err != nil {
		return err
	}
	log.Printf("Token saved to %v", cfg.Calendar.TokenFile)
	return nil
}

// clearPanel wakes the panel, blanks it and puts it back to sleep, so
// no image is left burnt in after the daemon stops.
func clearPanel(d *epd4in2.Display) error {
	if err := d.Reset(); err != nil {
		return err
	}
	if err := d.PowerOn(); err != nil {
		return err
	}
	if err := d.Clear(); err != nil {
		return err
	}
	return d.Sleep()
}
