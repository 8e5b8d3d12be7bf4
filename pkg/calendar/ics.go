package calendar

import (
	"io"
	"time"

	"github.com/emersion/go-ical"
)

const productID = "-//roomly//reservations//EN"

// FeedEntry is one VEVENT of an iCalendar feed.
type FeedEntry struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	Created     time.Time
}

// EncodeICS writes entries as a VCALENDAR named name. Times are written in UTC.
func EncodeICS(w io.Writer, name string, entries []FeedEntry) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText("X-WR-CALNAME", name)

	stamp := time.Now().UTC()
	for _, entry := range entries {
		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, entry.UID)
		event.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
		event.Props.SetDateTime(ical.PropDateTimeStart, entry.Start.UTC())
		event.Props.SetDateTime(ical.PropDateTimeEnd, entry.End.UTC())
		event.Props.SetText(ical.PropSummary, entry.Summary)
		if entry.Description != "" {
			event.Props.SetText(ical.PropDescription, entry.Description)
		}
		if entry.Location != "" {
			event.Props.SetText(ical.PropLocation, entry.Location)
		}
		if !entry.Created.IsZero() {
			event.Props.SetDateTime(ical.PropCreated, entry.Created.UTC())
		}
		cal.Children = append(cal.Children, event.Component)
	}

	return ical.NewEncoder(w).Encode(cal)
}
