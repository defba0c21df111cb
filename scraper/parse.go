package scraper

/*
MtnPowder-style status feed reference
=====================================
window.FR.TerrainStatusFeed (pulled out of the loaded page)

{
  "Name": "Alpine Meadows",
  "MountainAreas": [{
    "Name": "Front Side",
    "Trails": [{
      "Name": "Cruiser",
      "TrailIcon": "Blue",            // difficulty marker
      "Type": "Run",
      "Status": "Open",               // or "Closed", "OpenNoUphill", ...
      "IsOpen": true,                 // some resorts only set this
      "Groomed": true,                // boolean form
      "GroomingStatus": "FirstTracks",// string form, wins over Groomed
      "GroomingType": "Corduroy"
    }],
    "Lifts": [{
      "Name": "Summit Express",
      "LiftType": "HighSpeedQuad",
      "Status": "Open",
      "Capacity": 4,
      "WaitTime": "5",                // minutes, string or number
      "Hours": { "Open": "8:30 AM", "Close": "4:00 PM" }
    }]
  }]
}

window.FR.SnowReport

{
  "SurfaceCondition": "Packed Powder",
  "OvernightSnowfall":      { "Inches": "3", "Centimeters": "8" },
  "TwentyFourHourSnowfall": { "Inches": "5", "Centimeters": "13" },
  "FortyEightHourSnowfall": { "Inches": "9", "Centimeters": "23" },
  "SevenDaySnowfall":       { "Inches": "14", "Centimeters": "36" },
  "SeasonTotals":           { "Inches": "102", "Centimeters": "259" },
  "BaseDepth":              { "Inches": "48", "Centimeters": "122" },
  "Forecast": [{
    "Name": "Summit", "Elevation": "8200 ft",
    "OneDay":  { "date": "2025-01-15", "conditions": "Snow", "temp_high_f": 28, "temp_low_f": 15, "forecasted_snow_in": 4 },
    "TwoDay":  { ... },
    "ThreeDay": { ... }
  }]
}

Numeric fields arrive as strings or numbers depending on the resort, so
everything quantitative goes through a tolerant decoder.
*/

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"powderlines/models"
)

type terrainFeed struct {
	Name          string     `json:"Name"`
	MountainAreas []feedArea `json:"MountainAreas"`
}

type feedArea struct {
	ID     json.Number `json:"Id"`
	Name   string      `json:"Name"`
	Trails []feedTrail `json:"Trails"`
	Lifts  []feedLift  `json:"Lifts"`
}

type feedTrail struct {
	ID             json.Number `json:"Id"`
	Name           string      `json:"Name"`
	TrailIcon      string      `json:"TrailIcon"`
	Type           string      `json:"Type"`
	Status         string      `json:"Status"`
	IsOpen         *bool       `json:"IsOpen"`
	Groomed        *bool       `json:"Groomed"`
	GroomingStatus *string     `json:"GroomingStatus"`
	GroomingType   string      `json:"GroomingType"`
}

type feedLift struct {
	ID       json.Number `json:"Id"`
	Name     string      `json:"Name"`
	LiftType string      `json:"LiftType"`
	Status   string      `json:"Status"`
	IsOpen   *bool       `json:"IsOpen"`
	WaitTime feedNumber  `json:"WaitTime"`
	Capacity feedNumber  `json:"Capacity"`
	Hours    struct {
		Open  string `json:"Open"`
		Close string `json:"Close"`
	} `json:"Hours"`
}

type snowFeed struct {
	SurfaceCondition       string         `json:"SurfaceCondition"`
	OvernightSnowfall      feedMeasure    `json:"OvernightSnowfall"`
	TwentyFourHourSnowfall feedMeasure    `json:"TwentyFourHourSnowfall"`
	FortyEightHourSnowfall feedMeasure    `json:"FortyEightHourSnowfall"`
	SevenDaySnowfall       feedMeasure    `json:"SevenDaySnowfall"`
	SeasonTotals           feedMeasure    `json:"SeasonTotals"`
	BaseDepth              feedMeasure    `json:"BaseDepth"`
	Forecast               []feedForecast `json:"Forecast"`
}

type feedMeasure struct {
	Inches      feedNumber `json:"Inches"`
	Centimeters feedNumber `json:"Centimeters"`
}

type feedForecast struct {
	Name      string           `json:"Name"`
	Elevation string           `json:"Elevation"`
	OneDay    *feedForecastDay `json:"OneDay"`
	TwoDay    *feedForecastDay `json:"TwoDay"`
	ThreeDay  *feedForecastDay `json:"ThreeDay"`
}

type feedForecastDay struct {
	Date       string     `json:"date"`
	Conditions string     `json:"conditions"`
	HighF      feedNumber `json:"temp_high_f"`
	LowF       feedNumber `json:"temp_low_f"`
	SnowIn     feedNumber `json:"forecasted_snow_in"`
}

// feedNumber decodes "5", 5, 5.0 and null to a float.
type feedNumber float64

func (n *feedNumber) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Some resorts report "--" or "N/A" for missing totals.
		*n = 0
		return nil
	}
	*n = feedNumber(f)
	return nil
}

// parseTerrainFeed normalizes the vendor terrain blob. An empty feed (no
// areas) is returned as nil so callers treat it as no data.
func parseTerrainFeed(data []byte) (*models.TerrainPayload, error) {
	var feed terrainFeed
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("parse terrain feed: %w", err)
	}
	if len(feed.MountainAreas) == 0 {
		return nil, nil
	}

	payload := &models.TerrainPayload{
		ResortName: feed.Name,
		Areas:      make([]models.GroomingArea, 0, len(feed.MountainAreas)),
	}
	for _, fa := range feed.MountainAreas {
		area := models.GroomingArea{
			ID:   fa.ID.String(),
			Name: fa.Name,
		}
		for _, ft := range fa.Trails {
			area.Trails = append(area.Trails, models.Trail{
				ID:             ft.ID.String(),
				Name:           ft.Name,
				Difficulty:     ft.TrailIcon,
				Type:           ft.Type,
				Status:         ft.Status,
				IsOpen:         ft.IsOpen,
				Groomed:        ft.Groomed,
				GroomingStatus: ft.GroomingStatus,
				GroomingType:   ft.GroomingType,
			})
		}
		for _, fl := range fa.Lifts {
			lift := models.Lift{
				ID:        fl.ID.String(),
				Name:      fl.Name,
				Type:      fl.LiftType,
				Status:    fl.Status,
				IsOpen:    fl.IsOpen,
				Capacity:  int(fl.Capacity),
				OpenTime:  fl.Hours.Open,
				CloseTime: fl.Hours.Close,
			}
			if fl.WaitTime > 0 {
				wait := int(fl.WaitTime)
				lift.WaitTime = &wait
			}
			area.Lifts = append(area.Lifts, lift)
		}
		payload.Areas = append(payload.Areas, area)
	}
	return payload, nil
}

// parseSnowFeed normalizes the vendor snow report blob.
func parseSnowFeed(data []byte) (*models.SnowPayload, error) {
	var feed snowFeed
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("parse snow feed: %w", err)
	}

	payload := &models.SnowPayload{
		Conditions: feed.SurfaceCondition,
		Snowfall: models.SnowfallTotals{
			OvernightIn: float64(feed.OvernightSnowfall.Inches),
			OvernightCm: float64(feed.OvernightSnowfall.Centimeters),
			Last24In:    float64(feed.TwentyFourHourSnowfall.Inches),
			Last24Cm:    float64(feed.TwentyFourHourSnowfall.Centimeters),
			Last48In:    float64(feed.FortyEightHourSnowfall.Inches),
			Last48Cm:    float64(feed.FortyEightHourSnowfall.Centimeters),
			Last7DayIn:  float64(feed.SevenDaySnowfall.Inches),
			Last7DayCm:  float64(feed.SevenDaySnowfall.Centimeters),
			SeasonIn:    float64(feed.SeasonTotals.Inches),
			SeasonCm:    float64(feed.SeasonTotals.Centimeters),
		},
		BaseDepth: models.Depth{
			In: float64(feed.BaseDepth.Inches),
			Cm: float64(feed.BaseDepth.Centimeters),
		},
	}

	for _, fc := range feed.Forecast {
		loc := models.ForecastLocation{Name: fc.Name, Elevation: fc.Elevation}
		for _, fd := range []*feedForecastDay{fc.OneDay, fc.TwoDay, fc.ThreeDay} {
			if fd == nil {
				continue
			}
			loc.Days = append(loc.Days, models.ForecastDay{
				Date:      fd.Date,
				Condition: fd.Conditions,
				HighF:     float64(fd.HighF),
				LowF:      float64(fd.LowF),
				SnowIn:    float64(fd.SnowIn),
			})
		}
		payload.Forecast = append(payload.Forecast, loc)
	}

	return payload, nil
}
