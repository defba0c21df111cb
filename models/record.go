package models

import (
	"encoding/json"
	"time"
)

// TerrainStatusRecord is one flattened relational row: a single trail or
// lift observed at a resort on a date. Unique on (resort_id, date,
// item_name); a later write for the same key replaces the row.
type TerrainStatusRecord struct {
	ID             int64           `json:"id" db:"id"`
	ResortID       int64           `json:"resort_id" db:"resort_id"`
	Date           string          `json:"date" db:"date"`
	ItemName       string          `json:"item_name" db:"item_name"`
	ItemType       string          `json:"item_type" db:"item_type"`
	Status         string          `json:"status" db:"status"`
	GroomingStatus *string         `json:"grooming_status" db:"grooming_status"`
	GroomingType   string          `json:"grooming_type" db:"grooming_type"`
	RawData        json.RawMessage `json:"raw_data" db:"raw_data"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

const (
	ItemTypeTrail = "trail"
	ItemTypeLift  = "lift"
)

// SnowConditionsRecord is the single daily snow row per resort, unique on
// (resort_id, date), last write wins.
type SnowConditionsRecord struct {
	ID                int64           `json:"id" db:"id"`
	ResortID          int64           `json:"resort_id" db:"resort_id"`
	Date              string          `json:"date" db:"date"`
	SnowfallOvernight float64         `json:"snowfall_overnight_in" db:"snowfall_overnight_in"`
	Snowfall24h       float64         `json:"snowfall_24h_in" db:"snowfall_24h_in"`
	Snowfall48h       float64         `json:"snowfall_48h_in" db:"snowfall_48h_in"`
	Snowfall7Day      float64         `json:"snowfall_7day_in" db:"snowfall_7day_in"`
	SnowfallSeason    float64         `json:"snowfall_season_in" db:"snowfall_season_in"`
	BaseDepthIn       float64         `json:"base_depth_in" db:"base_depth_in"`
	WeatherCondition  string          `json:"weather_condition" db:"weather_condition"`
	RawData           json.RawMessage `json:"raw_data" db:"raw_data"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}
