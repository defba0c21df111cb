package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"powderlines/models"
)

type Config struct {
	DataDir     string
	DBPath      string
	DatabaseURL string
	LogLevel    string
	Schedule    ScheduleConfig
	S3          S3Config
	Resorts     map[string]*ResortConfig
}

// ScheduleConfig holds the global scrape-timing defaults. Per-resort YAML
// values override season bounds and target hour.
type ScheduleConfig struct {
	DefaultSeasonStart  string
	DefaultSeasonEnd    string
	TargetHour          int
	ScrapingWindowHours int
	CheckIntervalHours  int
	LiftPollMinutes     int
	Cron                string
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

type ResortConfig struct {
	Key           string `yaml:"key"`
	Name          string `yaml:"name"`
	Timezone      string `yaml:"timezone"`
	Handler       string `yaml:"handler"`
	TerrainURL    string `yaml:"terrain_url"`
	SnowReportURL string `yaml:"snow_report_url"`
	StatusObject  string `yaml:"status_object"`
	SnowObject    string `yaml:"snow_object"`
	SeasonStart   string `yaml:"season_start"`
	SeasonEnd     string `yaml:"season_end"`
	TargetHour    *int   `yaml:"target_hour"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DataDir:     getEnv("DATA_DIR", "data"),
		DBPath:      getEnv("DB_PATH", "powderlines.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Schedule: ScheduleConfig{
			DefaultSeasonStart:  getEnv("SEASON_START", "11-01"),
			DefaultSeasonEnd:    getEnv("SEASON_END", "05-01"),
			TargetHour:          getEnvInt("TARGET_HOUR", 7),
			ScrapingWindowHours: getEnvInt("SCRAPING_WINDOW_HOURS", 3),
			CheckIntervalHours:  getEnvInt("CHECK_INTERVAL_HOURS", 1),
			LiftPollMinutes:     getEnvInt("LIFT_POLL_MINUTES", 10),
			Cron:                os.Getenv("SCRAPE_CRON"),
		},
		S3: S3Config{
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		},
		Resorts: make(map[string]*ResortConfig),
	}

	if err := cfg.loadResortConfigs(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadResortConfigs() error {
	configDir := "config/resorts"
	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		path := filepath.Join(configDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var resort ResortConfig
		if err := yaml.Unmarshal(data, &resort); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if resort.Key == "" {
			return fmt.Errorf("%s: resort key is required", path)
		}

		c.Resorts[resort.Key] = &resort
	}

	return nil
}

// Resolve merges per-resort overrides with the schedule defaults and loads
// time zones, so downstream code never performs fallback lookups itself.
func (c *Config) Resolve() (map[string]*models.Resort, error) {
	resorts := make(map[string]*models.Resort, len(c.Resorts))

	for key, rc := range c.Resorts {
		loc, err := time.LoadLocation(rc.Timezone)
		if err != nil {
			return nil, fmt.Errorf("resort %s: bad timezone %q: %w", key, rc.Timezone, err)
		}

		start, err := models.ParseMonthDay(firstNonEmpty(rc.SeasonStart, c.Schedule.DefaultSeasonStart))
		if err != nil {
			return nil, fmt.Errorf("resort %s: season start: %w", key, err)
		}
		end, err := models.ParseMonthDay(firstNonEmpty(rc.SeasonEnd, c.Schedule.DefaultSeasonEnd))
		if err != nil {
			return nil, fmt.Errorf("resort %s: season end: %w", key, err)
		}

		targetHour := c.Schedule.TargetHour
		if rc.TargetHour != nil {
			targetHour = *rc.TargetHour
		}
		if targetHour < 0 || targetHour > 23 {
			return nil, fmt.Errorf("resort %s: target hour %d out of range", key, targetHour)
		}

		resorts[key] = &models.Resort{
			Key:           rc.Key,
			Name:          rc.Name,
			Timezone:      rc.Timezone,
			Location:      loc,
			Handler:       firstNonEmpty(rc.Handler, "browser"),
			TerrainURL:    rc.TerrainURL,
			SnowReportURL: rc.SnowReportURL,
			StatusObject:  firstNonEmpty(rc.StatusObject, "FR.TerrainStatusFeed"),
			SnowObject:    firstNonEmpty(rc.SnowObject, "FR.SnowReport"),
			SeasonStart:   start,
			SeasonEnd:     end,
			TargetHour:    targetHour,
			WindowHours:   c.Schedule.ScrapingWindowHours,
		}
	}

	return resorts, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
