package schedule

import (
	"time"

	"powderlines/models"
)

// SnapshotChecker answers whether a snapshot already exists for a resort's
// local date. Satisfied by storage.SnapshotStore.
type SnapshotChecker interface {
	HasSnapshot(resortKey string, kind models.DataKind, date string) bool
}

// Decider is the scrape-eligibility decision engine. It is pure: callers
// perform the actual extraction and writes.
type Decider struct {
	snapshots SnapshotChecker
}

func NewDecider(snapshots SnapshotChecker) *Decider {
	return &Decider{snapshots: snapshots}
}

// ShouldScrape decides whether a (resort, kind) pair is due right now.
// Eligibility is deliberately not upper-bounded by the scraping window:
// once past the target hour with no snapshot for the local date, the pair
// stays eligible until a snapshot appears or the local day rolls over.
func (d *Decider) ShouldScrape(r *models.Resort, kind models.DataKind, now time.Time) (bool, models.SkipReason) {
	if !IsInSeason(r, now) {
		return false, models.SkipOutOfSeason
	}
	if r.URLFor(kind) == "" {
		return false, models.SkipNoURL
	}

	local := now.In(r.Location)
	if d.snapshots.HasSnapshot(r.Key, kind, ISODate(local)) {
		return false, models.SkipAlreadyScraped
	}
	if local.Hour() < r.TargetHour {
		return false, models.SkipBeforeTarget
	}

	return true, models.SkipNone
}
