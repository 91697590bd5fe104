package model

import (
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("09:30")
	if err != nil || h != 9 || m != 30 {
		t.Fatalf("ParseClock(09:30) = %d:%d, %v", h, m, err)
	}
	for _, bad := range []string{"", "9", "25:00", "12:61", "noon"} {
		if _, _, err := ParseClock(bad); err == nil {
			t.Fatalf("ParseClock(%q) should fail", bad)
		}
	}
}

func TestOnDate(t *testing.T) {
	got, err := OnDate("2025-03-14", "17:45")
	if err != nil {
		t.Fatalf("OnDate: %v", err)
	}
	want := time.Date(2025, 3, 14, 17, 45, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Fatalf("OnDate = %v, want %v", got, want)
	}
	if _, err := OnDate("03/14/2025", "09:00"); err == nil {
		t.Fatal("bad date should fail")
	}
}
