package models

import "time"

// TrailArtifact is the per-trail rollup written to trails/data/{slug}.json.
// It is a materialized view over terrain_status rows: safe to delete and
// regenerate at any time.
type TrailArtifact struct {
	Name       string     `json:"name"`
	Slug       string     `json:"slug"`
	Area       string     `json:"area,omitempty"`
	Difficulty string     `json:"difficulty,omitempty"`
	Type       string     `json:"type,omitempty"`
	Status     string     `json:"status,omitempty"`
	Stats      TrailStats `json:"stats"`
	History    []TrailDay `json:"history"`
	Generated  time.Time  `json:"generated"`
}

type TrailStats struct {
	DaysTracked        int           `json:"daysTracked"`
	DaysGroomed        int           `json:"daysGroomed"`
	GroomingPercentage int           `json:"groomingPercentage"`
	CurrentStreak      int           `json:"currentStreak"`
	LongestStreak      int           `json:"longestStreak"`
	LastGroomed        *string       `json:"lastGroomed"`
	ByWeekday          []WeekdayStat `json:"byWeekday"`
}

// WeekdayStat is the grooming frequency for one day of the week. Weekday 0
// is Sunday, matching time.Weekday.
type WeekdayStat struct {
	Weekday    int    `json:"weekday"`
	Name       string `json:"name"`
	Observed   int    `json:"observed"`
	Groomed    int    `json:"groomed"`
	Percentage int    `json:"percentage"`
}

// TrailDay is one reduced history entry in the bounded per-trail window.
type TrailDay struct {
	Date           string  `json:"date"`
	IsOpen         bool    `json:"isOpen"`
	IsGroomed      bool    `json:"isGroomed"`
	GroomingStatus *string `json:"groomingStatus"`
	GroomingType   string  `json:"groomingType,omitempty"`
}

// TrailsIndex is the resort-level summary written to trails/index.json,
// sorted ascending by (area, name).
type TrailsIndex struct {
	Resort    string         `json:"resort"`
	Generated time.Time      `json:"generated"`
	Count     int            `json:"count"`
	Trails    []TrailSummary `json:"trails"`
}

type TrailSummary struct {
	Name               string `json:"name"`
	Slug               string `json:"slug"`
	Area               string `json:"area,omitempty"`
	Difficulty         string `json:"difficulty,omitempty"`
	IsOpen             bool   `json:"isOpen"`
	IsGroomed          bool   `json:"isGroomed"`
	GroomingPercentage int    `json:"groomingPercentage"`
	CurrentStreak      int    `json:"currentStreak"`
}
