package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"powderlines/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return store, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS resorts (
		id BIGSERIAL PRIMARY KEY,
		key TEXT NOT NULL UNIQUE,
		name TEXT,
		timezone TEXT,
		created_at TIMESTAMPTZ DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS terrain_status (
		id BIGSERIAL PRIMARY KEY,
		resort_id BIGINT NOT NULL REFERENCES resorts(id),
		date TEXT NOT NULL,
		item_name TEXT NOT NULL,
		item_type TEXT NOT NULL,
		status TEXT,
		grooming_status TEXT,
		grooming_type TEXT,
		raw_data JSONB,
		created_at TIMESTAMPTZ DEFAULT NOW(),
		UNIQUE(resort_id, date, item_name)
	);

	CREATE TABLE IF NOT EXISTS snow_conditions (
		id BIGSERIAL PRIMARY KEY,
		resort_id BIGINT NOT NULL REFERENCES resorts(id),
		date TEXT NOT NULL,
		snowfall_overnight_in DOUBLE PRECISION,
		snowfall_24h_in DOUBLE PRECISION,
		snowfall_48h_in DOUBLE PRECISION,
		snowfall_7day_in DOUBLE PRECISION,
		snowfall_season_in DOUBLE PRECISION,
		base_depth_in DOUBLE PRECISION,
		weather_condition TEXT,
		raw_data JSONB,
		created_at TIMESTAMPTZ DEFAULT NOW(),
		UNIQUE(resort_id, date)
	);

	CREATE TABLE IF NOT EXISTS scrape_runs (
		id TEXT PRIMARY KEY,
		resort_key TEXT NOT NULL,
		kind TEXT NOT NULL,
		started_at TIMESTAMPTZ,
		finished_at TIMESTAMPTZ,
		status TEXT,
		items_ingested INTEGER DEFAULT 0,
		skip_reason TEXT,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_terrain_item ON terrain_status(resort_id, item_name, date);
	CREATE INDEX IF NOT EXISTS idx_terrain_date ON terrain_status(resort_id, date);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

func (s *PostgresStore) UpsertResort(ctx context.Context, key, name, timezone string) (int64, error) {
	// ON CONFLICT DO NOTHING keeps identity metadata first-write-wins.
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO resorts (key, name, timezone) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO NOTHING`, key, name, timezone); err != nil {
		return 0, err
	}

	var id int64
	err := s.pool.QueryRow(ctx, `SELECT id FROM resorts WHERE key = $1`, key).Scan(&id)
	return id, err
}

func (s *PostgresStore) IngestTerrain(ctx context.Context, resortID int64, date string, payload *models.TerrainPayload) (int, error) {
	rows := FlattenTerrain(payload)
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	for _, row := range rows {
		if _, err := tx.Exec(ctx, `
			INSERT INTO terrain_status
				(resort_id, date, item_name, item_type, status, grooming_status, grooming_type, raw_data, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (resort_id, date, item_name) DO UPDATE SET
				item_type = EXCLUDED.item_type,
				status = EXCLUDED.status,
				grooming_status = EXCLUDED.grooming_status,
				grooming_type = EXCLUDED.grooming_type,
				raw_data = EXCLUDED.raw_data,
				created_at = EXCLUDED.created_at`,
			resortID, date, row.Name, row.Type, row.Status, row.GroomingStatus,
			row.GroomingType, []byte(row.Raw), now); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *PostgresStore) IngestSnow(ctx context.Context, resortID int64, date string, payload *models.SnowPayload) (int, error) {
	if payload == nil {
		return 0, nil
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO snow_conditions
			(resort_id, date, snowfall_overnight_in, snowfall_24h_in, snowfall_48h_in,
			 snowfall_7day_in, snowfall_season_in, base_depth_in, weather_condition, raw_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (resort_id, date) DO UPDATE SET
			snowfall_overnight_in = EXCLUDED.snowfall_overnight_in,
			snowfall_24h_in = EXCLUDED.snowfall_24h_in,
			snowfall_48h_in = EXCLUDED.snowfall_48h_in,
			snowfall_7day_in = EXCLUDED.snowfall_7day_in,
			snowfall_season_in = EXCLUDED.snowfall_season_in,
			base_depth_in = EXCLUDED.base_depth_in,
			weather_condition = EXCLUDED.weather_condition,
			raw_data = EXCLUDED.raw_data,
			created_at = EXCLUDED.created_at`,
		resortID, date,
		payload.Snowfall.OvernightIn, payload.Snowfall.Last24In, payload.Snowfall.Last48In,
		payload.Snowfall.Last7DayIn, payload.Snowfall.SeasonIn, payload.BaseDepth.In,
		payload.Conditions, []byte(models.MarshalItem(payload)), time.Now())
	if err != nil {
		return 0, err
	}
	return 1, nil
}

func (s *PostgresStore) TrailHistory(ctx context.Context, resortID int64, trailName, sinceDate string) ([]models.TerrainStatusRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, resort_id, date, item_name, item_type, status, grooming_status, grooming_type, raw_data, created_at
		FROM terrain_status
		WHERE resort_id = $1 AND item_name = $2 AND item_type = $3 AND date >= $4`,
		resortID, trailName, models.ItemTypeTrail, sinceDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.TerrainStatusRecord
	for rows.Next() {
		var rec models.TerrainStatusRecord
		var status, groomingStatus, groomingType *string
		var raw []byte
		if err := rows.Scan(&rec.ID, &rec.ResortID, &rec.Date, &rec.ItemName, &rec.ItemType,
			&status, &groomingStatus, &groomingType, &raw, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if status != nil {
			rec.Status = *status
		}
		rec.GroomingStatus = groomingStatus
		if groomingType != nil {
			rec.GroomingType = *groomingType
		}
		rec.RawData = raw
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *PostgresStore) TrailNames(ctx context.Context, resortID int64, sinceDate string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT item_name FROM terrain_status
		WHERE resort_id = $1 AND item_type = $2 AND date >= $3`,
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

func (s *PostgresStore) CreateRun(ctx context.Context, run *models.ScrapeRun) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scrape_runs (id, resort_key, kind, started_at, status, skip_reason)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.ResortKey, run.Kind, run.StartedAt, run.Status, run.SkipReason)
	return err
}

func (s *PostgresStore) FinishRun(ctx context.Context, run *models.ScrapeRun) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE scrape_runs SET finished_at = $1, status = $2, items_ingested = $3, skip_reason = $4, error = $5
		WHERE id = $6`,
		run.FinishedAt, run.Status, run.ItemsIngested, run.SkipReason, run.Error, run.ID)
	return err
}
