package lifts

import (
	"time"

	"powderlines/models"
)

// clock formats accepted from lift feeds.
var clockLayouts = []string{"15:04", "3:04 PM", "3:04PM", "15:04:05"}

// parseClock parses a lift open/close time into minutes since local
// midnight.
func parseClock(s string) (int, bool) {
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour()*60 + t.Minute(), true
		}
	}
	return 0, false
}

func formatClock(minutes int) string {
	return time.Date(0, 1, 1, minutes/60, minutes%60, 0, 0, time.UTC).Format("15:04")
}

// OperatingWindow derives the resort's effective lift-operating interval:
// the union of all lift schedules, so the resort counts as open while any
// lift could be running. Both bounds are inclusive. With no reported
// hours the window is closed, which keeps overnight polls from recording
// lifts as down when they are simply unobserved.
func OperatingWindow(liftItems []models.Lift, loc *time.Location, now time.Time) models.OperatingWindow {
	earliest, latest := -1, -1

	for i := range liftItems {
		if open, ok := parseClock(liftItems[i].OpenTime); ok {
			if earliest == -1 || open < earliest {
				earliest = open
			}
		}
		if close, ok := parseClock(liftItems[i].CloseTime); ok {
			if close > latest {
				latest = close
			}
		}
	}

	if earliest == -1 && latest == -1 {
		return models.OperatingWindow{
			IsOpen: false,
			Reason: "no operating hours available",
		}
	}
	if earliest == -1 {
		earliest = 0
	}
	if latest == -1 {
		latest = 24*60 - 1
	}

	local := now.In(loc)
	minutes := local.Hour()*60 + local.Minute()

	return models.OperatingWindow{
		IsOpen:    minutes >= earliest && minutes <= latest,
		OpenTime:  formatClock(earliest),
		CloseTime: formatClock(latest),
	}
}

// Flatten collects every lift across the grooming areas of a terrain
// payload.
func Flatten(payload *models.TerrainPayload) []models.Lift {
	if payload == nil {
		return nil
	}
	var all []models.Lift
	for _, area := range payload.Areas {
		all = append(all, area.Lifts...)
	}
	return all
}

// Records converts the current lift states into append-only log entries
// stamped at ts.
func Records(liftItems []models.Lift, ts time.Time) []models.LiftRecord {
	records := make([]models.LiftRecord, 0, len(liftItems))
	for i := range liftItems {
		l := &liftItems[i]
		records = append(records, models.LiftRecord{
			Timestamp:   ts,
			LiftID:      l.ID,
			Name:        l.Name,
			Status:      l.EffectiveStatus(),
			Type:        l.Type,
			WaitMinutes: l.WaitTime,
			Capacity:    l.Capacity,
			OpenTime:    l.OpenTime,
			CloseTime:   l.CloseTime,
		})
	}
	return records
}
