package models

// SnowPayload is the cleaned snow-conditions report for one resort day.
type SnowPayload struct {
	Conditions string             `json:"conditions,omitempty"`
	Snowfall   SnowfallTotals     `json:"snowfall"`
	BaseDepth  Depth              `json:"baseDepth"`
	Forecast   []ForecastLocation `json:"forecast,omitempty"`
}

// SnowfallTotals carries the multi-window accumulation figures resorts
// publish, in both units.
type SnowfallTotals struct {
	OvernightIn float64 `json:"overnightIn"`
	OvernightCm float64 `json:"overnightCm"`
	Last24In    float64 `json:"last24In"`
	Last24Cm    float64 `json:"last24Cm"`
	Last48In    float64 `json:"last48In"`
	Last48Cm    float64 `json:"last48Cm"`
	Last7DayIn  float64 `json:"last7DayIn"`
	Last7DayCm  float64 `json:"last7DayCm"`
	SeasonIn    float64 `json:"seasonIn"`
	SeasonCm    float64 `json:"seasonCm"`
}

type Depth struct {
	In float64 `json:"in"`
	Cm float64 `json:"cm"`
}

type ForecastLocation struct {
	Name      string        `json:"name"`
	Elevation string        `json:"elevation,omitempty"`
	Days      []ForecastDay `json:"days"`
}

type ForecastDay struct {
	Date      string  `json:"date"`
	Condition string  `json:"condition,omitempty"`
	HighF     float64 `json:"highF"`
	LowF      float64 `json:"lowF"`
	SnowIn    float64 `json:"snowIn"`
}
