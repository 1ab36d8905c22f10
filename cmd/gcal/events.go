package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	gcal "github.com/wesnick/gcal/pkg/gcal"
	"google.golang.org/api/calendar/v3"
)

// eventOutput represents an event for JSON output.
type eventOutput struct {
	ID        string `json:"id"`
	Summary   string `json:"summary"`
	Start     string `json:"start,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	AllDay    bool   `json:"allDay,omitempty"`
	HTMLLink  string `json:"htmlLink,omitempty"`
}

// eventOutputFromEvent converts a calendar.Event to eventOutput.
func eventOutputFromEvent(ev *calendar.Event) eventOutput {
	out := eventOutput{
		ID:       ev.Id,
		Summary:  ev.Summary,
		HTMLLink: ev.HtmlLink,
	}
	if ev.Start != nil {
		if ev.Start.DateTime != "" {
			out.Start = ev.Start.DateTime
		} else if ev.Start.Date != "" {
			out.StartDate = ev.Start.Date
			out.AllDay = true
		}
	}
	return out
}

// runEventsAdd creates an event from free text via quick-add.
func runEventsAdd(ctx context.Context, conn *gcal.Client, calendarID string, words []string, out *outputWriter) error {
	text := strings.Join(words, " ")

	if !out.json {
		out.writeMessage(fmt.Sprintf("Adding: '%s'...", text))
	}

	ev, err := conn.QuickAdd(ctx, calendarID, text)
	if err != nil {
		return err
	}

	if out.json {
		return out.writeJSON(eventOutputFromEvent(ev))
	}

	out.writeMessage(fmt.Sprintf("Created event: %s", ev.Summary))
	out.writeMessage(fmt.Sprintf("   Link: %s", ev.HtmlLink))
	return nil
}

// runEventsNext prints the single next upcoming event.
func runEventsNext(ctx context.Context, conn *gcal.Client, calendarID string, out *outputWriter) error {
	out.writeVerbose("Fetching next event from calendar %s...", calendarID)

	now := time.Now().UTC().Format(time.RFC3339)
	events, err := conn.ListUpcoming(ctx, calendarID, now, 1)
	if err != nil {
		return err
	}

	if out.json {
		output := make([]eventOutput, len(events))
		for i, ev := range events {
			output[i] = eventOutputFromEvent(ev)
		}
		return out.writeJSON(output)
	}

	if len(events) == 0 {
		out.writeMessage("No upcoming events found.")
		return nil
	}

	out.writeMessage(formatEventLine(events[0], "NEXT: "))
	return nil
}

// runEventsToday prints the events remaining today, or exports them as an
// iCalendar stream.
func runEventsToday(ctx context.Context, conn *gcal.Client, calendarID string, asICS bool, out *outputWriter) error {
	out.writeVerbose("Fetching today's events from calendar %s...", calendarID)

	now := time.Now()
	today := now.Format("2006-01-02")

	if !asICS && !out.json {
		out.writeMessage(fmt.Sprintf("Agenda for Today (%s):", today))
		out.writeMessage(strings.Repeat("-", 40))
	}

	events, err := conn.ListToday(ctx, calendarID, now.Format(time.RFC3339))
	if err != nil {
		return err
	}

	matched := gcal.FilterToday(events, today)

	if asICS {
		return gcal.WriteICS(out.writer, matched)
	}

	if out.json {
		output := make([]eventOutput, len(matched))
		for i, ev := range matched {
			output[i] = eventOutputFromEvent(ev)
		}
		return out.writeJSON(output)
	}

	if len(events) == 0 {
		out.writeMessage("No events found.")
		return nil
	}

	for _, ev := range matched {
		out.writeMessage(formatEventLine(ev, ""))
	}
	if len(matched) == 0 {
		out.writeMessage("Nothing left for today!")
	}
	return nil
}
