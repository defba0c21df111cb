package schedule

import "time"

// ISODate formats a time as the YYYY-MM-DD key used throughout the
// snapshot layout and relational schema.
func ISODate(t time.Time) string {
	return t.Format("2006-01-02")
}

// LocalDate truncates an instant to midnight in the resort's zone. All
// season and already-scraped comparisons are done on local dates, never
// UTC.
func LocalDate(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
