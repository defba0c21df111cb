package storage

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"powderlines/models"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS resorts (
		id INTEGER PRIMARY KEY,
		key TEXT NOT NULL UNIQUE,
		name TEXT,
		timezone TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS terrain_status (
		id INTEGER PRIMARY KEY,
		resort_id INTEGER NOT NULL,
		date TEXT NOT NULL,
		item_name TEXT NOT NULL,
		item_type TEXT NOT NULL,
		status TEXT,
		grooming_status TEXT,
		grooming_type TEXT,
		raw_data JSON,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (resort_id) REFERENCES resorts(id),
		UNIQUE(resort_id, date, item_name)
	);

	CREATE TABLE IF NOT EXISTS snow_conditions (
		id INTEGER PRIMARY KEY,
		resort_id INTEGER NOT NULL,
		date TEXT NOT NULL,
		snowfall_overnight_in REAL,
		snowfall_24h_in REAL,
		snowfall_48h_in REAL,
		snowfall_7day_in REAL,
		snowfall_season_in REAL,
		base_depth_in REAL,
		weather_condition TEXT,
		raw_data JSON,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (resort_id) REFERENCES resorts(id),
		UNIQUE(resort_id, date)
	);

	CREATE TABLE IF NOT EXISTS scrape_runs (
		id TEXT PRIMARY KEY,
		resort_key TEXT NOT NULL,
		kind TEXT NOT NULL,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		items_ingested INTEGER DEFAULT 0,
		skip_reason TEXT,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_terrain_item ON terrain_status(resort_id, item_name, date);
	CREATE INDEX IF NOT EXISTS idx_terrain_date ON terrain_status(resort_id, date);
	CREATE INDEX IF NOT EXISTS idx_snow_date ON snow_conditions(resort_id, date);
	CREATE INDEX IF NOT EXISTS idx_runs_resort ON scrape_runs(resort_key, started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) UpsertResort(ctx context.Context, key, name, timezone string) (int64, error) {
	// First write wins for identity metadata: existing rows are left as-is.
	if _, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO resorts (key, name, timezone) VALUES (?, ?, ?)`,
		key, name, timezone); err != nil {
		return 0, err
	}

	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM resorts WHERE key = ?`, key).Scan(&id)
	return id, err
}

func (s *SQLiteStore) IngestTerrain(ctx context.Context, resortID int64, date string, payload *models.TerrainPayload) (int, error) {
	rows := FlattenTerrain(payload)
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO terrain_status
			(resort_id, date, item_name, item_type, status, grooming_status, grooming_type, raw_data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := time.Now()
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, resortID, date, row.Name, row.Type,
			row.Status, row.GroomingStatus, row.GroomingType, []byte(row.Raw), now); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *SQLiteStore) IngestSnow(ctx context.Context, resortID int64, date string, payload *models.SnowPayload) (int, error) {
	if payload == nil {
		return 0, nil
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO snow_conditions
			(resort_id, date, snowfall_overnight_in, snowfall_24h_in, snowfall_48h_in,
			 snowfall_7day_in, snowfall_season_in, base_depth_in, weather_condition, raw_data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		resortID, date,
		payload.Snowfall.OvernightIn, payload.Snowfall.Last24In, payload.Snowfall.Last48In,
		payload.Snowfall.Last7DayIn, payload.Snowfall.SeasonIn, payload.BaseDepth.In,
		payload.Conditions, []byte(models.MarshalItem(payload)), time.Now())
	if err != nil {
		return 0, err
	}
	return 1, nil
}

func (s *SQLiteStore) TrailHistory(ctx context.Context, resortID int64, trailName, sinceDate string) ([]models.TerrainStatusRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, resort_id, date, item_name, item_type, status, grooming_status, grooming_type, raw_data, created_at
		FROM terrain_status
		WHERE resort_id = ? AND item_name = ? AND item_type = ? AND date >= ?`,
		resortID, trailName, models.ItemTypeTrail, sinceDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.TerrainStatusRecord
	for rows.Next() {
		var rec models.TerrainStatusRecord
		var status, groomingStatus, groomingType sql.NullString
		var raw []byte
		if err := rows.Scan(&rec.ID, &rec.ResortID, &rec.Date, &rec.ItemName, &rec.ItemType,
			&status, &groomingStatus, &groomingType, &raw, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Status = status.String
		if groomingStatus.Valid {
			v := groomingStatus.String
			rec.GroomingStatus = &v
		}
		rec.GroomingType = groomingType.String
		rec.RawData = raw
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) TrailNames(ctx context.Context, resortID int64, sinceDate string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT item_name FROM terrain_status
		WHERE resort_id = ? AND item_type = ? AND date >= ?`,
		resortID, models.ItemTypeTrail, sinceDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, run *models.ScrapeRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scrape_runs (id, resort_key, kind, started_at, status, skip_reason)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.ResortKey, run.Kind, run.StartedAt, run.Status, run.SkipReason)
	return err
}

func (s *SQLiteStore) FinishRun(ctx context.Context, run *models.ScrapeRun) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE scrape_runs SET finished_at = ?, status = ?, items_ingested = ?, skip_reason = ?, error = ?
		WHERE id = ?`,
		run.FinishedAt, run.Status, run.ItemsIngested, run.SkipReason, run.Error, run.ID)
	return err
}
