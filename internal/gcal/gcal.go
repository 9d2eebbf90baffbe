// Package gcal lists upcoming events from one or more Google calendars,
// read-only, normalised for the organiser's agenda.
package gcal

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Status is the user's attendance answer for an event.
type Status string

const (
	StatusYes     Status = "yes"
	StatusNo      Status = "no"
	StatusMaybe   Status = "maybe"
	StatusUnknown Status = "N/A"
)

// responseStatuses maps the API's attendee responseStatus values.
var responseStatuses = map[string]Status{
	"accepted":    StatusYes,
	"declined":    StatusNo,
	"tentative":   StatusMaybe,
	"needsAction": StatusUnknown,
}

// Event is a normalised calendar entry. Times are kept as display strings
// because the screen never does arithmetic on them.
type Event struct {
	Title string
	// Date is the start day, YYYY-MM-DD.
	Date string
	// Time is the start time, HH:MM, empty for all-day events.
	Time        string
	EndDate     string
	EndTime     string
	Location    string
	Description string
	Status      Status
	// Recurring is set for instances of a repeating event.
	Recurring bool
}

// Client reads events from a fixed set of calendar ids.
type Client struct {
	svc       *calendar.Service
	calendars []string
}

// NewClient builds a calendar client from an installed-app OAuth client
// secret and a previously saved token (see Authorize).
func NewClient(ctx context.Context, credentialsPath, tokenPath string, calendars []string) (*Client, error) {
	if len(calendars) == 0 {
		return nil, fmt.Errorf("gcal: no calendar ids configured")
	}
	cfg, err := configFromFile(credentialsPath)
	if err != nil {
		return nil, err
	}
	tok, err := tokenFromFile(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("gcal: reading token %q (run with -authorize first?): %w", tokenPath, err)
	}
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("gcal: %w", err)
	}
	return &Client{svc: svc, calendars: calendars}, nil
}

// ListCalendars returns the account's calendar ids mapped to their display
// names. The primary calendar is keyed "primary".
func (c *Client) ListCalendars(ctx context.Context) (map[string]string, error) {
	calendars := map[string]string{}
	pageToken := ""
	for {
		call := c.svc.CalendarList.List().MaxResults(250).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("gcal: listing calendars: %w", err)
		}
		for _, entry := range resp.Items {
			if entry.Primary {
				calendars["primary"] = entry.Summary
			} else {
				calendars[entry.Id] = entry.Summary
			}
		}
		pageToken = resp.NextPageToken
		if pageToken == "" {
			return calendars, nil
		}
	}
}

// Events lists up to count upcoming events across the configured
// calendars, merged and sorted soonest first.
func (c *Client) Events(ctx context.Context, count int) ([]Event, error) {
	if count < 0 {
		return nil, fmt.Errorf("gcal: event count must not be negative")
	}
	if count == 0 {
		return nil, nil
	}
	now := time.Now().UTC().Format(time.RFC3339)
	var events []Event
	for _, id := range c.calendars {
		resp, err := c.svc.Events.List(id).
			MaxResults(int64(count)).
			TimeMin(now).
			SingleEvents(true).
			OrderBy("startTime").
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("gcal: listing events for %q: %w", id, err)
		}
		for _, item := range resp.Items {
			ev, err := normalize(item)
			if err != nil {
				return nil, fmt.Errorf("gcal: calendar %q: %w", id, err)
			}
			events = append(events, ev)
		}
	}
	sortEvents(events)
	if len(events) > count {
		events = events[:count]
	}
	return events, nil
}

// normalize flattens the API's event shape into an Event.
func normalize(src *calendar.Event) (Event, error) {
	date, tod, err := normalizeDateTime(src.Start)
	if err != nil {
		return Event{}, fmt.Errorf("event %q start: %w", src.Summary, err)
	}
	endDate, endTime, err := normalizeDateTime(src.End)
	if err != nil {
		return Event{}, fmt.Errorf("event %q end: %w", src.Summary, err)
	}
	return Event{
		Title:       src.Summary,
		Date:        date,
		Time:        tod,
		EndDate:     endDate,
		EndTime:     endTime,
		Location:    src.Location,
		Description: src.Description,
		Status:      statusFor(src.Attendees),
		Recurring:   src.RecurringEventId != "",
	}, nil
}

// normalizeDateTime splits an EventDateTime into a date and an optional
// time of day. All-day events carry only a date.
func normalizeDateTime(src *calendar.EventDateTime) (date, tod string, err error) {
	switch {
	case src == nil:
		return "", "", fmt.Errorf("missing date")
	case src.Date != "":
		return src.Date, "", nil
	case src.DateTime != "":
		t, err := time.Parse(time.RFC3339, src.DateTime)
		if err != nil {
			return "", "", err
		}
		return t.Format("2006-01-02"), t.Format("15:04"), nil
	}
	return "", "", fmt.Errorf("missing date")
}

// statusFor reports the user's own answer; events without an attendee list
// (or where the user is the organiser) count as attending.
func statusFor(attendees []*calendar.EventAttendee) Status {
	for _, a := range attendees {
		if a == nil || !a.Self {
			continue
		}
		if s, ok := responseStatuses[a.ResponseStatus]; ok {
			return s
		}
		return StatusUnknown
	}
	return StatusYes
}

// sortEvents orders events by day, all-day entries ahead of timed ones.
func sortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date < events[j].Date
		}
		return events[i].Time < events[j].Time
	})
}

func configFromFile(path string) (*oauth2.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gcal: reading client secret: %w", err)
	}
	cfg, err := google.ConfigFromJSON(b, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("gcal: parsing client secret: %w", err)
	}
	return cfg, nil
}
