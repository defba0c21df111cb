package storage

import (
	"context"
	"encoding/json"

	"powderlines/models"
)

// Store is the relational record store behind the historical aggregation
// engine. Two backends exist: SQLite (default) and Postgres, selected by
// DATABASE_URL.
type Store interface {
	// UpsertResort gets or creates a resort by its unique key. Identity
	// metadata is first-write-wins: an existing row is never updated.
	UpsertResort(ctx context.Context, key, name, timezone string) (int64, error)

	// IngestTerrain flattens every trail and lift across every grooming
	// area into per-item rows keyed (resort_id, date, item_name). A second
	// ingest for the same resort and date replaces each row. Returns the
	// number of rows written; a nil payload writes zero rows and is not an
	// error.
	IngestTerrain(ctx context.Context, resortID int64, date string, payload *models.TerrainPayload) (int, error)

	// IngestSnow upserts the single daily snow row keyed (resort_id, date).
	IngestSnow(ctx context.Context, resortID int64, date string, payload *models.SnowPayload) (int, error)

	// TrailHistory returns every terrain_status row for one trail from
	// sinceDate onward, in no guaranteed order.
	TrailHistory(ctx context.Context, resortID int64, trailName, sinceDate string) ([]models.TerrainStatusRecord, error)

	// TrailNames lists the distinct trail names observed for a resort from
	// sinceDate onward.
	TrailNames(ctx context.Context, resortID int64, sinceDate string) ([]string, error)

	CreateRun(ctx context.Context, run *models.ScrapeRun) error
	FinishRun(ctx context.Context, run *models.ScrapeRun) error

	Close() error
}

// ItemRow is one flattened trail or lift ready for upsert.
type ItemRow struct {
	Name           string
	Type           string
	Status         string
	GroomingStatus *string
	GroomingType   string
	Raw            json.RawMessage
}

type trailRaw struct {
	Area string `json:"area,omitempty"`
	*models.Trail
}

type liftRaw struct {
	Area string `json:"area,omitempty"`
	*models.Lift
}

// FlattenTerrain turns the nested payload into individual item rows,
// deriving status and grooming through the documented fallback rules. The
// grooming area name travels inside raw_data so artifact generation can
// recover it. A malformed or nil payload flattens to zero rows.
func FlattenTerrain(payload *models.TerrainPayload) []ItemRow {
	if payload == nil {
		return nil
	}

	var rows []ItemRow
	for ai := range payload.Areas {
		area := &payload.Areas[ai]
		for ti := range area.Trails {
			trail := &area.Trails[ti]
			if trail.Name == "" {
				continue
			}
			rows = append(rows, ItemRow{
				Name:           trail.Name,
				Type:           models.ItemTypeTrail,
				Status:         trail.EffectiveStatus(),
				GroomingStatus: trail.EffectiveGrooming(),
				GroomingType:   trail.GroomingType,
				Raw:            models.MarshalItem(trailRaw{Area: area.Name, Trail: trail}),
			})
		}
		for li := range area.Lifts {
			lift := &area.Lifts[li]
			if lift.Name == "" {
				continue
			}
			rows = append(rows, ItemRow{
				Name:   lift.Name,
				Type:   models.ItemTypeLift,
				Status: lift.EffectiveStatus(),
				Raw:    models.MarshalItem(liftRaw{Area: area.Name, Lift: lift}),
			})
		}
	}
	return rows
}
