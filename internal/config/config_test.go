package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimal = `{
  "weather": {"api_key": "abc", "latitude": 51.5, "longitude": -0.1},
  "calendar": {"calendars": ["primary"]}
}`

func TestLoadDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, minimal))
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if c.Schedule != "*/15 * * * *" {
		t.Errorf("Schedule = %q, want the default quarter-hour cron", c.Schedule)
	}
	if c.Calendar.MaxEvents != 50 {
		t.Errorf("MaxEvents = %d, want 50", c.Calendar.MaxEvents)
	}
	if c.Display.Pins.Busy != "P1_18" {
		t.Errorf("Pins.Busy = %q, want default P1_18", c.Display.Pins.Busy)
	}
	if c.Display.Dither != "threshold" {
		t.Errorf("Dither = %q, want threshold", c.Display.Dither)
	}
}

func TestLoadOverrides(t *testing.T) {
	c, err := Load(writeConfig(t, `{
  "schedule": "0 * * * *",
  "weather": {"api_key": "abc", "latitude": 51.5, "longitude": -0.1},
  "calendar": {"calendars": ["primary", "family@group.calendar.google.com"], "max_events": 10},
  "display": {"pins": {"busy": "P1_16", "spi": "SPI0.0"}, "dither": "floyd-steinberg"}
}`))
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if c.Schedule != "0 * * * *" {
		t.Errorf("Schedule = %q", c.Schedule)
	}
	if len(c.Calendar.Calendars) != 2 {
		t.Errorf("Calendars = %v, want two entries", c.Calendar.Calendars)
	}
	if c.Display.Pins.Busy != "P1_16" {
		t.Errorf("Pins.Busy = %q, want override P1_16", c.Display.Pins.Busy)
	}
	if c.Display.Pins.CS != "P1_24" {
		t.Errorf("Pins.CS = %q, want default P1_24", c.Display.Pins.CS)
	}
	if c.Display.Pins.SPI != "SPI0.0" {
		t.Errorf("Pins.SPI = %q, want SPI0.0", c.Display.Pins.SPI)
	}
}

func TestLoadRejects(t *testing.T) {
	cases := []struct {
		desc string
		body string
		want string
	}{
		{
			desc: "missing api key",
			body: `{"calendar": {"calendars": ["primary"]}}`,
			want: "api_key",
		},
		{
			desc: "no calendars",
			body: `{"weather": {"api_key": "abc"}}`,
			want: "calendars",
		},
		{
			desc: "bad schedule",
			body: `{"schedule": "often", "weather": {"api_key": "abc"}, "calendar": {"calendars": ["primary"]}}`,
			want: "schedule",
		},
		{
			desc: "bad latitude",
			body: `{"weather": {"api_key": "abc", "latitude": 120}, "calendar": {"calendars": ["primary"]}}`,
			want: "latitude",
		},
		{
			desc: "not json",
			body: `schedule = often`,
			want: "parsing",
		},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			_, err := Load(writeConfig(t, c.body))
			if err == nil {
				t.Fatal("Load() accepted an invalid config")
			}
			if !strings.Contains(err.Error(), c.want) {
				t.Errorf("Load() = %q, want mention of %q", err, c.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("Load() succeeded on a missing file")
	}
}
