// Package config loads the organiser's JSON configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/robfig/cron/v3"

	"github.com/crowfoot/goorganiser/devices/epd4in2"
)

// Config is the on-disk configuration. Zero values fall back to Default.
type Config struct {
	// Schedule is a standard 5-field cron expression for screen updates.
	Schedule string `json:"schedule"`

	Weather struct {
		APIKey    string  `json:"api_key"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"weather"`

	Calendar struct {
		// CredentialsFile is the OAuth installed-app client secret JSON.
		CredentialsFile string `json:"credentials_file"`
		// TokenFile caches the user token written by the -authorize flow.
		TokenFile string   `json:"token_file"`
		Calendars []string `json:"calendars"`
		MaxEvents int      `json:"max_events"`
	} `json:"calendar"`

	Display struct {
		Pins epd4in2.Pins `json:"pins"`
		// Dither selects the grey quantization policy: "threshold",
		// "floyd-steinberg" or "bayer".
		Dither string `json:"dither"`
	} `json:"display"`
}

// Default returns the configuration used where the file is silent.
func Default() Config {
	var c Config
	c.Schedule = "*/15 * * * *"
	c.Calendar.CredentialsFile = "credentials.json"
	c.Calendar.TokenFile = "token.json"
	c.Calendar.MaxEvents = 50
	c.Display.Pins = epd4in2.DefaultPins
	c.Display.Dither = "threshold"
	return c
}

// Load reads and validates the configuration at path, applying defaults
// for absent fields.
func Load(path string) (Config, error) {
	c := Default()
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&c); err != nil {
		return Config{}, fmt.Errorf("config: parsing %q: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %q: %w", path, err)
	}
	return c, nil
}

// Validate checks the fields the daemon cannot start without.
func (c *Config) Validate() error {
	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %v", c.Schedule, err)
	}
	if c.Weather.APIKey == "" {
		return fmt.Errorf("weather.api_key is required")
	}
	if c.Weather.Latitude < -90 || c.Weather.Latitude > 90 {
		return fmt.Errorf("weather.latitude %v out of range", c.Weather.Latitude)
	}
	if c.Weather.Longitude < -180 || c.Weather.Longitude > 180 {
		return fmt.Errorf("weather.longitude %v out of range", c.Weather.Longitude)
	}
	if len(c.Calendar.Calendars) == 0 {
		return fmt.Errorf("calendar.calendars must name at least one calendar id")
	}
	if c.Calendar.MaxEvents < 1 {
		return fmt.Errorf("calendar.max_events must be positive")
	}
	if c.Display.Pins.Busy == "" || c.Display.Pins.CS == "" || c.Display.Pins.DC == "" || c.Display.Pins.RST == "" {
		return fmt.Errorf("display.pins must name busy, cs, dc and rst")
	}
	return nil
}
