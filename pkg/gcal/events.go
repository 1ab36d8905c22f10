package gcal

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/api/calendar/v3"
)

const (
	// DefaultCalendarID is used when no calendar is configured.
	DefaultCalendarID = "primary"

	// todayPageSize is how many upcoming events are fetched before the
	// client-side today filter is applied.
	todayPageSize = 20
)

// QuickAdd sends free text to the natural-language event parser and returns
// the created event. Single attempt, no retry.
func (c *Client) QuickAdd(ctx context.Context, calendarID, text string) (*calendar.Event, error) {
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}
	ev, err := c.calendar.Events.QuickAdd(calendarID, text).Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrapf(err, "quick-add %q", text)
	}
	return ev, nil
}

// ListUpcoming returns up to maxResults events starting at or after timeMin,
// ordered by start time with recurring events expanded.
func (c *Client) ListUpcoming(ctx context.Context, calendarID, timeMin string, maxResults int64) ([]*calendar.Event, error) {
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}
	resp, err := c.calendar.Events.List(calendarID).
		Context(ctx).
		TimeMin(timeMin).
		MaxResults(maxResults).
		SingleEvents(true).
		OrderBy("startTime").
		Do()
	if err != nil {
		return nil, errors.Wrap(err, "listing events")
	}
	return resp.Items, nil
}

// ListToday returns the next page of upcoming events to be narrowed down by
// FilterToday. Filtering is client-side; the query itself has no upper time
// bound.
func (c *Client) ListToday(ctx context.Context, calendarID, timeMin string) ([]*calendar.Event, error) {
	return c.ListUpcoming(ctx, calendarID, timeMin, todayPageSize)
}

// EventStart returns the raw start value of an event: the date-time when
// present, else the all-day date.
func EventStart(ev *calendar.Event) string {
	if ev.Start == nil {
		return ""
	}
	if ev.Start.DateTime != "" {
		return ev.Start.DateTime
	}
	return ev.Start.Date
}

// FilterToday selects the events whose start value begins with today's
// YYYY-MM-DD date string. This is a textual prefix match against the local
// date, not calendar-aware comparison: an event carrying a UTC offset that
// crosses local midnight can land on the wrong side. The whole slice is
// scanned; matches are not assumed contiguous.
func FilterToday(events []*calendar.Event, today string) []*calendar.Event {
	var out []*calendar.Event
	for _, ev := range events {
		if strings.HasPrefix(EventStart(ev), today) {
			out = append(out, ev)
		}
	}
	return out
}
