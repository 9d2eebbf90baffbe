// Package openweather is a small client for the OpenWeatherMap One Call
// API, covering just the fields the organiser screen shows.
package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5/onecall"

// Client queries the forecast for one fixed location.
type Client struct {
	apiKey   string
	lat, lon float64

	baseURL string
	hc      *http.Client
}

// NewClient returns a Client for the given API key and coordinates.
func NewClient(apiKey string, lat, lon float64) *Client {
	return &Client{
		apiKey:  apiKey,
		lat:     lat,
		lon:     lon,
		baseURL: defaultBaseURL,
		hc:      &http.Client{Timeout: 10 * time.Second},
	}
}

// Forecast is the One Call response, metric units.
type Forecast struct {
	Timezone string       `json:"timezone"`
	Current  Conditions   `json:"current"`
	Hourly   []Conditions `json:"hourly"`
	Daily    []Daily      `json:"daily"`
}

// Location resolves the forecast's IANA timezone.
func (f *Forecast) Location() (*time.Location, error) {
	return time.LoadLocation(f.Timezone)
}

// Conditions is an observation or hourly forecast entry.
type Conditions struct {
	At        int64     `json:"dt"`
	Temp      float64   `json:"temp"`
	FeelsLike float64   `json:"feels_like"`
	Pressure  float64   `json:"pressure"`
	Humidity  float64   `json:"humidity"`
	Clouds    float64   `json:"clouds"`
	UVIndex   float64   `json:"uvi"`
	WindSpeed float64   `json:"wind_speed"`
	WindDeg   float64   `json:"wind_deg"`
	Weather   []Weather `json:"weather"`
}

// DayTemp is the daily temperature span.
type DayTemp struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Daily is a day-granularity forecast entry.
type Daily struct {
	At        int64     `json:"dt"`
	Sunrise   int64     `json:"sunrise"`
	Sunset    int64     `json:"sunset"`
	Temp      DayTemp   `json:"temp"`
	Pressure  float64   `json:"pressure"`
	Humidity  float64   `json:"humidity"`
	Clouds    float64   `json:"clouds"`
	UVIndex   float64   `json:"uvi"`
	WindSpeed float64   `json:"wind_speed"`
	WindDeg   float64   `json:"wind_deg"`
	Weather   []Weather `json:"weather"`
}

// Weather describes one condition code attached to an entry.
type Weather struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Condition classifies the entry's icon code; ConditionUnknown for codes
// the API has not documented.
func (w Weather) Condition() Condition {
	return iconConditions[w.Icon]
}

// Forecast fetches the current conditions plus hourly and daily forecasts.
func (c *Client) Forecast(ctx context.Context) (*Forecast, error) {
	q := url.Values{}
	q.Set("appid", c.apiKey)
	q.Set("lat", fmt.Sprintf("%g", c.lat))
	q.Set("lon", fmt.Sprintf("%g", c.lon))
	q.Set("units", "metric")
	q.Set("lang", "en_gb")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("openweather: %w", err)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openweather: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("openweather: %s: %s", resp.Status, body)
	}

	var f Forecast
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		return nil, fmt.Errorf("openweather: decoding response: %w", err)
	}
	return &f, nil
}

// compassRose is the 16-wind compass used to label wind direction.
var compassRose = []string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// CompassDirection names the direction the wind blows from, e.g. "NNW"
// for 337 degrees.
func CompassDirection(deg float64) string {
	for deg < 0 {
		deg += 360
	}
	i := int(deg/22.5+0.5) % 16
	return compassRose[i]
}
