package lifts

import (
	"testing"
	"time"

	"powderlines/models"
)

func lift(name, open, close string) models.Lift {
	return models.Lift{Name: name, OpenTime: open, CloseTime: close}
}

func denver(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Denver")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func at(t *testing.T, loc *time.Location, hour, min int) time.Time {
	t.Helper()
	return time.Date(2025, 1, 15, hour, min, 0, 0, loc)
}

func TestOperatingWindow_UnionOfLiftSchedules(t *testing.T) {
	loc := denver(t)
	items := []models.Lift{
		lift("Summit Express", "08:00", "16:00"),
		lift("Village Gondola", "08:30", "15:30"),
	}

	w := OperatingWindow(items, loc, at(t, loc, 12, 0))
	if w.OpenTime != "08:00" || w.CloseTime != "16:00" {
		t.Fatalf("expected window 08:00-16:00, got %s-%s", w.OpenTime, w.CloseTime)
	}
	if !w.IsOpen {
		t.Fatal("expected open at noon")
	}
}

func TestOperatingWindow_InclusiveBounds(t *testing.T) {
	loc := denver(t)
	items := []models.Lift{lift("Summit Express", "08:00", "16:00")}

	if w := OperatingWindow(items, loc, at(t, loc, 8, 0)); !w.IsOpen {
		t.Fatal("expected open exactly at open time")
	}
	if w := OperatingWindow(items, loc, at(t, loc, 16, 0)); !w.IsOpen {
		t.Fatal("expected open exactly at close time")
	}
	if w := OperatingWindow(items, loc, at(t, loc, 7, 59)); w.IsOpen {
		t.Fatal("expected closed before open time")
	}
	if w := OperatingWindow(items, loc, at(t, loc, 16, 1)); w.IsOpen {
		t.Fatal("expected closed after close time")
	}
}

func TestOperatingWindow_NoHoursAvailable(t *testing.T) {
	loc := denver(t)
	items := []models.Lift{lift("Summit Express", "", "")}

	w := OperatingWindow(items, loc, at(t, loc, 12, 0))
	if w.IsOpen {
		t.Fatal("expected closed with no reported hours")
	}
	if w.Reason != "no operating hours available" {
		t.Fatalf("unexpected reason %q", w.Reason)
	}
}

func TestOperatingWindow_TwelveHourClock(t *testing.T) {
	loc := denver(t)
	items := []models.Lift{lift("Village Gondola", "8:30 AM", "4:00 PM")}

	w := OperatingWindow(items, loc, at(t, loc, 10, 0))
	if w.OpenTime != "08:30" || w.CloseTime != "16:00" {
		t.Fatalf("expected 08:30-16:00, got %s-%s", w.OpenTime, w.CloseTime)
	}
	if !w.IsOpen {
		t.Fatal("expected open at 10:00")
	}
}

func TestRecords_CarriesLiftState(t *testing.T) {
	wait := 5
	open := true
	items := []models.Lift{{
		ID:        "lift-9",
		Name:      "Summit Express",
		Type:      "high-speed-quad",
		IsOpen:    &open,
		WaitTime:  &wait,
		Capacity:  4,
		OpenTime:  "08:00",
		CloseTime: "16:00",
	}}

	ts := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	records := Records(items, ts)

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.Status != "open" {
		t.Fatalf("expected derived status open, got %q", rec.Status)
	}
	if rec.WaitMinutes == nil || *rec.WaitMinutes != 5 {
		t.Fatalf("expected wait 5, got %v", rec.WaitMinutes)
	}
	if !rec.Timestamp.Equal(ts) {
		t.Fatalf("unexpected timestamp %v", rec.Timestamp)
	}
}
