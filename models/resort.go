package models

import (
	"fmt"
	"time"
)

// DataKind identifies one scrapeable feed of a resort.
type DataKind string

const (
	KindTerrain DataKind = "terrain"
	KindSnow    DataKind = "snow"
)

// MonthDay is a recurring calendar date (season bound) with no year.
type MonthDay struct {
	Month time.Month
	Day   int
}

// ParseMonthDay parses the "MM-DD" form used in resort configs.
func ParseMonthDay(s string) (MonthDay, error) {
	var m, d int
	if _, err := fmt.Sscanf(s, "%d-%d", &m, &d); err != nil {
		return MonthDay{}, fmt.Errorf("invalid month-day %q", s)
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return MonthDay{}, fmt.Errorf("invalid month-day %q", s)
	}
	return MonthDay{Month: time.Month(m), Day: d}, nil
}

func (md MonthDay) String() string {
	return fmt.Sprintf("%02d-%02d", md.Month, md.Day)
}

// In anchors the month-day to a year in the given zone.
func (md MonthDay) In(year int, loc *time.Location) time.Time {
	return time.Date(year, md.Month, md.Day, 0, 0, 0, 0, loc)
}

// Resort is the fully resolved per-resort configuration: overrides already
// merged with global defaults and the time zone loaded.
type Resort struct {
	Key           string         `json:"key"`
	Name          string         `json:"name"`
	Timezone      string         `json:"timezone"`
	Location      *time.Location `json:"-"`
	Handler       string         `json:"-"`
	TerrainURL    string         `json:"-"`
	SnowReportURL string         `json:"-"`
	StatusObject  string         `json:"-"`
	SnowObject    string         `json:"-"`
	SeasonStart   MonthDay       `json:"-"`
	SeasonEnd     MonthDay       `json:"-"`
	TargetHour    int            `json:"-"`
	WindowHours   int            `json:"-"`
}

// URLFor returns the configured source URL for a data kind, empty if the
// resort does not publish that feed.
func (r *Resort) URLFor(kind DataKind) string {
	switch kind {
	case KindTerrain:
		return r.TerrainURL
	case KindSnow:
		return r.SnowReportURL
	}
	return ""
}
