package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	gcal "github.com/wesnick/gcal/pkg/gcal"
	"google.golang.org/api/calendar/v3"
)

var timeToken = color.New(color.FgCyan)

// eventTimeToken renders an event's start as a 12-hour clock token, falling
// back to "All Day" when the value has no parseable time component (an
// all-day date, or anything else the parsers reject).
func eventTimeToken(ev *calendar.Event) string {
	start := gcal.EventStart(ev)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, start); err == nil {
			return t.Format("03:04 PM")
		}
	}
	return "All Day"
}

// formatEventLine renders one event as a terminal line: optional prefix,
// colorized time token, plain summary.
func formatEventLine(ev *calendar.Event, prefix string) string {
	return fmt.Sprintf("%s%s %s", prefix, timeToken.Sprintf("[%s]", eventTimeToken(ev)), ev.Summary)
}
