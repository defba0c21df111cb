package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"powderlines/models"
)

func testSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func dayPayload(groomed bool) *models.TerrainPayload {
	return &models.TerrainPayload{
		Areas: []models.GroomingArea{{
			Name: "Front Side",
			Trails: []models.Trail{
				{Name: "Ridge Run", IsOpen: boolPtr(true), Groomed: boolPtr(groomed)},
				{Name: "Powder Bowl", IsOpen: boolPtr(false)},
			},
			Lifts: []models.Lift{
				{Name: "Summit Express", Status: "open"},
			},
		}},
	}
}

func TestSQLiteStore_SecondIngestReplacesRows(t *testing.T) {
	ctx := context.Background()
	store := testSQLiteStore(t)

	resortID, err := store.UpsertResort(ctx, "alpine", "Alpine Meadows", "UTC")
	if err != nil {
		t.Fatalf("upsert resort: %v", err)
	}

	count, err := store.IngestTerrain(ctx, resortID, "2025-01-15", dayPayload(true))
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 rows ingested, got %d", count)
	}

	// A revisit for the same date replaces each row instead of stacking.
	if _, err := store.IngestTerrain(ctx, resortID, "2025-01-15", dayPayload(false)); err != nil {
		t.Fatalf("second ingest: %v", err)
	}

	var rows int
	err = store.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM terrain_status WHERE resort_id = ? AND date = ?`,
		resortID, "2025-01-15").Scan(&rows)
	if err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if rows != 3 {
		t.Fatalf("expected 3 rows after re-ingest, got %d", rows)
	}

	var grooming sql.NullString
	err = store.db.QueryRowContext(ctx, `
		SELECT grooming_status FROM terrain_status
		WHERE resort_id = ? AND date = ? AND item_name = ?`,
		resortID, "2025-01-15", "Ridge Run").Scan(&grooming)
	if err != nil {
		t.Fatalf("read row: %v", err)
	}
	if grooming.Valid {
		t.Fatalf("second payload reported no grooming, row should hold NULL, got %q", grooming.String)
	}
}

func TestSQLiteStore_UpsertResortFirstWriteWins(t *testing.T) {
	ctx := context.Background()
	store := testSQLiteStore(t)

	id1, err := store.UpsertResort(ctx, "alpine", "Alpine Meadows", "UTC")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	id2, err := store.UpsertResort(ctx, "alpine", "Renamed Resort", "America/Denver")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("same key must resolve to one row, got %d and %d", id1, id2)
	}

	var name, timezone string
	err = store.db.QueryRowContext(ctx, `
		SELECT name, timezone FROM resorts WHERE id = ?`, id1).Scan(&name, &timezone)
	if err != nil {
		t.Fatalf("read resort: %v", err)
	}
	if name != "Alpine Meadows" || timezone != "UTC" {
		t.Fatalf("identity metadata must keep the first write, got %q %q", name, timezone)
	}
}

func TestSQLiteStore_TrailHistoryFiltersByTypeAndDate(t *testing.T) {
	ctx := context.Background()
	store := testSQLiteStore(t)

	resortID, err := store.UpsertResort(ctx, "alpine", "Alpine Meadows", "UTC")
	if err != nil {
		t.Fatalf("upsert resort: %v", err)
	}
	for _, date := range []string{"2025-01-10", "2025-01-15"} {
		if _, err := store.IngestTerrain(ctx, resortID, date, dayPayload(true)); err != nil {
			t.Fatalf("ingest %s: %v", date, err)
		}
	}

	history, err := store.TrailHistory(ctx, resortID, "Ridge Run", "2025-01-01")
	if err != nil {
		t.Fatalf("trail history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 records, got %d", len(history))
	}
	for _, rec := range history {
		if rec.ItemType != models.ItemTypeTrail {
			t.Fatalf("history must only hold trails, got %q", rec.ItemType)
		}
		if rec.GroomingStatus == nil || *rec.GroomingStatus != "groomed" {
			t.Fatalf("expected groomed record, got %+v", rec)
		}
	}

	recent, err := store.TrailHistory(ctx, resortID, "Ridge Run", "2025-01-12")
	if err != nil {
		t.Fatalf("trail history since: %v", err)
	}
	if len(recent) != 1 || recent[0].Date != "2025-01-15" {
		t.Fatalf("since-date filter failed, got %+v", recent)
	}

	names, err := store.TrailNames(ctx, resortID, "2025-01-01")
	if err != nil {
		t.Fatalf("trail names: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("expected the 2 trails and no lift, got %v", names)
	}
}
