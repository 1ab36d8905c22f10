package gcal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
)

func TestWriteICS(t *testing.T) {
	events := []*calendar.Event{
		{
			Id:       "e1",
			Summary:  "Team Meeting",
			HtmlLink: "https://calendar.example/event?eid=e1",
			Start:    &calendar.EventDateTime{DateTime: "2024-01-15T10:00:00-08:00"},
			End:      &calendar.EventDateTime{DateTime: "2024-01-15T11:00:00-08:00"},
		},
		{
			Id:      "e2",
			Summary: "Holiday",
			Start:   &calendar.EventDateTime{Date: "2024-12-25"},
			End:     &calendar.EventDateTime{Date: "2024-12-26"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteICS(&buf, events))

	out := buf.String()
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "SUMMARY:Team Meeting")
	assert.Contains(t, out, "SUMMARY:Holiday")
	assert.Contains(t, out, "UID:e1")
	assert.Contains(t, out, "VALUE=DATE")
	assert.Contains(t, out, "20241225")
	assert.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))
}

func TestWriteICSSkipsBrokenEvents(t *testing.T) {
	events := []*calendar.Event{
		{
			Id:      "bad",
			Summary: "No start",
		},
		{
			Id:      "good",
			Summary: "Still exported",
			Start:   &calendar.EventDateTime{DateTime: "2024-01-15T10:00:00Z"},
		},
	}

	var buf bytes.Buffer
	err := WriteICS(&buf, events)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")

	out := buf.String()
	assert.Contains(t, out, "SUMMARY:Still exported")
	assert.Equal(t, 1, strings.Count(out, "BEGIN:VEVENT"))
}
