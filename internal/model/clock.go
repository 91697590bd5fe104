package model

import (
	"fmt"
	"time"
)

// ParseClock parses an HH:MM time of day.
func ParseClock(s string) (hour, min int, err error) {
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &min); err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q (want HH:MM)", s)
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 {
		return 0, 0, fmt.Errorf("time of day %q out of range", s)
	}
	return hour, min, nil
}

// OnDate combines a YYYY-MM-DD date with an HH:MM clock into a local time.
func OnDate(date, clock string) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", date)
	}
	h, m, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return d.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute), nil
}
