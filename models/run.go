package models

import "time"

// SkipReason explains why a (resort, kind) pair was not scraped. Every
// skip or failure in a run maps to exactly one reason.
type SkipReason string

const (
	SkipNone            SkipReason = ""
	SkipOutOfSeason     SkipReason = "out_of_season"
	SkipBeforeTarget    SkipReason = "before_target_hour"
	SkipAlreadyScraped  SkipReason = "already_scraped"
	SkipNoURL           SkipReason = "no_url_configured"
	SkipExtractionError SkipReason = "extraction_error"
	SkipNoData          SkipReason = "no_data_returned"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// ScrapeRun is the per-(resort, kind) audit row recorded for every
// attempted scrape.
type ScrapeRun struct {
	ID            string     `json:"id" db:"id"`
	ResortKey     string     `json:"resort_key" db:"resort_key"`
	Kind          DataKind   `json:"kind" db:"kind"`
	StartedAt     time.Time  `json:"started_at" db:"started_at"`
	FinishedAt    *time.Time `json:"finished_at" db:"finished_at"`
	Status        RunStatus  `json:"status" db:"status"`
	ItemsIngested int        `json:"items_ingested" db:"items_ingested"`
	SkipReason    SkipReason `json:"skip_reason" db:"skip_reason"`
	Error         string     `json:"error" db:"error"`
}

// RunSummary aggregates one whole invocation across resorts.
type RunSummary struct {
	StartedAt  time.Time          `json:"startedAt"`
	FinishedAt time.Time          `json:"finishedAt"`
	Scraped    int                `json:"scraped"`
	Skipped    map[SkipReason]int `json:"skipped"`
	Errors     int                `json:"errors"`
}

func NewRunSummary() *RunSummary {
	return &RunSummary{
		StartedAt: time.Now(),
		Skipped:   make(map[SkipReason]int),
	}
}

func (s *RunSummary) Skip(reason SkipReason) {
	s.Skipped[reason]++
	if reason == SkipExtractionError || reason == SkipNoData {
		s.Errors++
	}
}
