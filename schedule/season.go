package schedule

import (
	"time"

	"powderlines/models"
)

// SeasonStartDate anchors a resort's season start to a concrete year. A
// ski season spans the calendar-year boundary, so the start year pivots on
// the start month: once the local month reaches the start month the season
// that began this year applies, otherwise we are in the tail of the season
// that began last year.
func SeasonStartDate(r *models.Resort, now time.Time) time.Time {
	today := now.In(r.Location)
	year := today.Year()
	if today.Month() < r.SeasonStart.Month {
		year--
	}
	return r.SeasonStart.In(year, r.Location)
}

// SeasonEndDate returns the end of the season that starts at start. The
// end lands in the following year when the end month precedes the start
// month (the common Nov-May wrap).
func SeasonEndDate(r *models.Resort, start time.Time) time.Time {
	year := start.Year()
	if r.SeasonEnd.Month < r.SeasonStart.Month {
		year++
	}
	return r.SeasonEnd.In(year, r.Location)
}

// IsInSeason reports whether the resort's local date falls inside its
// season window. The end date is exclusive: a resort is out of season on
// the end date itself.
func IsInSeason(r *models.Resort, now time.Time) bool {
	today := LocalDate(now, r.Location)
	start := SeasonStartDate(r, now)
	end := SeasonEndDate(r, start)
	return !today.Before(start) && today.Before(end)
}

// IsInScrapingWindow reports whether the local hour is inside
// [targetHour, targetHour+windowHours). Advisory only: eligibility has no
// upper bound on the hour, so a late run still catches up.
func IsInScrapingWindow(r *models.Resort, now time.Time) bool {
	hour := now.In(r.Location).Hour()
	return hour >= r.TargetHour && hour < r.TargetHour+r.WindowHours
}
