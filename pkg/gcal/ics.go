package gcal

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/emersion/go-ical"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"google.golang.org/api/calendar/v3"
)

// WriteICS encodes events as an iCalendar stream. Events that cannot be
// converted are skipped and their errors accumulated; the remaining events
// are still written.
func WriteICS(w io.Writer, events []*calendar.Event) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//wesnick//gcal//EN")

	var reserr error
	for _, ev := range events {
		comp, err := buildVEvent(ev)
		if err != nil {
			reserr = multierror.Append(reserr, err)
			continue
		}
		cal.Children = append(cal.Children, comp)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		reserr = multierror.Append(reserr, errors.Wrap(err, "encoding calendar"))
	}
	return reserr
}

// buildVEvent converts a calendar API event to an iCal VEVENT component.
func buildVEvent(ev *calendar.Event) (*ical.Component, error) {
	comp := ical.NewEvent().Component

	uid := ev.ICalUID
	if uid == "" {
		uid = ev.Id
	}
	comp.Props.SetText(ical.PropUID, uid)
	comp.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())

	if ev.Summary != "" {
		comp.Props.SetText(ical.PropSummary, ev.Summary)
	}
	if ev.Description != "" {
		comp.Props.SetText(ical.PropDescription, ev.Description)
	}
	if ev.Location != "" {
		comp.Props.SetText(ical.PropLocation, ev.Location)
	}
	if ev.HtmlLink != "" {
		comp.Props.SetText(ical.PropURL, ev.HtmlLink)
	}

	if err := setICalTime(comp, ical.PropDateTimeStart, ev.Start); err != nil {
		return nil, fmt.Errorf("event %q: %w", ev.Id, err)
	}
	if ev.End != nil {
		if err := setICalTime(comp, ical.PropDateTimeEnd, ev.End); err != nil {
			return nil, fmt.Errorf("event %q: %w", ev.Id, err)
		}
	}

	return comp, nil
}

func setICalTime(comp *ical.Component, name string, edt *calendar.EventDateTime) error {
	if edt == nil {
		return fmt.Errorf("missing %s", strings.ToLower(name))
	}

	if edt.Date != "" {
		t, err := time.Parse("2006-01-02", edt.Date)
		if err != nil {
			return fmt.Errorf("parsing all-day date %q: %w", edt.Date, err)
		}
		prop := ical.NewProp(name)
		prop.SetValueType(ical.ValueDate)
		prop.Value = t.Format("20060102")
		comp.Props.Set(prop)
		return nil
	}

	t, err := time.Parse(time.RFC3339, edt.DateTime)
	if err != nil {
		return fmt.Errorf("parsing date-time %q: %w", edt.DateTime, err)
	}
	comp.Props.SetDateTime(name, t.UTC())
	return nil
}
