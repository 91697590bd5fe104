// Package export renders computed plans into shareable formats: an
// iCalendar feed and a Google Maps directions link.
package export

import (
	"fmt"
	"strings"

	"daynav/internal/model"
)

const icsStamp = "20060102T150405Z"

// RenderICS renders the plan's stops as VEVENTs. checklists, keyed by stop
// ID, adds an "Items to bring" section to each event description; pass nil
// to skip it. Output uses CRLF line endings per RFC 5545.
func RenderICS(plan model.Plan, checklists map[string][]string) []byte {
	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteString("\r\n")
	}
	line("BEGIN:VCALENDAR")
	line("PRODID:-//daynav//day planner//EN")
	line("VERSION:2.0")
	line("CALSCALE:GREGORIAN")
	line("METHOD:PUBLISH")
	line("X-WR-CALNAME:" + escapeICS("Day Plan "+plan.Date))

	for i, s := range plan.Stops {
		title := s.Title
		if title == "" {
			title = s.StopID
		}
		line("BEGIN:VEVENT")
		line(fmt.Sprintf("UID:%s-%d@daynav", plan.ID, i))
		line("DTSTAMP:" + plan.CreatedAt.UTC().Format(icsStamp))
		line("DTSTART:" + s.Arrival.UTC().Format(icsStamp))
		line("DTEND:" + s.Departure.UTC().Format(icsStamp))
		line("SUMMARY:" + escapeICS(title))
		line(fmt.Sprintf("GEO:%f;%f", s.Location.Lat, s.Location.Lng))
		if desc := stopDescription(s, checklists[s.StopID]); desc != "" {
			line("DESCRIPTION:" + escapeICS(desc))
		}
		line("END:VEVENT")
	}

	line("END:VCALENDAR")
	return []byte(b.String())
}

func stopDescription(s model.PlanStop, items []string) string {
	parts := []string{}
	if s.WaitSec > 0 {
		parts = append(parts, fmt.Sprintf("Wait before opening: %d min", s.WaitSec/60))
	}
	if len(items) > 0 {
		lines := []string{"Items to bring:"}
		for _, it := range items {
			lines = append(lines, "- "+it)
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}
	return strings.Join(parts, "\n\n")
}

// escapeICS escapes text per RFC 5545 section 3.3.11.
func escapeICS(s string) string {
	r := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\r\n", "\\n",
		"\n", "\\n",
	)
	return r.Replace(s)
}
