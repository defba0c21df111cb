package stats

import (
	"encoding/json"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"powderlines/models"
)

// historyWindow bounds the per-trail history kept in an artifact.
const historyWindow = 90

// trailIdentity is the slice of raw_data that carries identity fields the
// flattened columns drop.
type trailIdentity struct {
	Area       string `json:"area"`
	Difficulty string `json:"difficulty"`
	Type       string `json:"type"`
}

// ComputeTrailArtifact derives the per-trail rollup from its terrain_status
// rows for a season. It is a pure function of the row set: input order
// never changes the result, and nothing except the generated stamp depends
// on wall-clock time.
func ComputeTrailArtifact(trailName string, rows []models.TerrainStatusRecord) *models.TrailArtifact {
	artifact := &models.TrailArtifact{
		Name:      trailName,
		Slug:      Slugify(trailName),
		Generated: time.Now(),
	}
	artifact.Stats.ByWeekday = weekdayStats(rows)

	if len(rows) == 0 {
		return artifact
	}

	// Most recent first. Ties on date cannot happen: (resort, date,
	// item_name) is unique in the store.
	desc := make([]models.TerrainStatusRecord, len(rows))
	copy(desc, rows)
	sort.Slice(desc, func(i, j int) bool { return desc[i].Date > desc[j].Date })

	latest := desc[0]
	artifact.Status = latest.Status

	var identity trailIdentity
	if len(latest.RawData) > 0 {
		if err := json.Unmarshal(latest.RawData, &identity); err == nil {
			artifact.Area = identity.Area
			artifact.Difficulty = identity.Difficulty
			artifact.Type = identity.Type
		}
	}

	groomed := 0
	for _, rec := range desc {
		if isGroomed(&rec) {
			groomed++
		}
	}

	artifact.Stats.DaysTracked = len(desc)
	artifact.Stats.DaysGroomed = groomed
	artifact.Stats.GroomingPercentage = percentage(groomed, len(desc))
	artifact.Stats.LastGroomed = lastGroomedDate(desc)
	artifact.Stats.CurrentStreak = currentStreak(desc)
	artifact.Stats.LongestStreak = longestStreak(desc)
	artifact.History = historyEntries(desc)

	return artifact
}

// lastGroomedDate finds the most recent row with a grooming status.
func lastGroomedDate(desc []models.TerrainStatusRecord) *string {
	for _, rec := range desc {
		if isGroomed(&rec) {
			date := rec.Date
			return &date
		}
	}
	return nil
}

// currentStreak counts consecutive groomed days backward from the most
// recent record. A day with no record at all counts as not groomed and
// breaks the streak, the same as an explicit ungroomed day.
func currentStreak(desc []models.TerrainStatusRecord) int {
	streak := 0
	expected := desc[0].Date
	for _, rec := range desc {
		if rec.Date != expected || !isGroomed(&rec) {
			break
		}
		streak++
		expected = previousDay(expected)
	}
	return streak
}

// longestStreak finds the maximum run of consecutive groomed days scanning
// chronologically forward. Date gaps break runs here too.
func longestStreak(desc []models.TerrainStatusRecord) int {
	asc := make([]models.TerrainStatusRecord, len(desc))
	copy(asc, desc)
	sort.Slice(asc, func(i, j int) bool { return asc[i].Date < asc[j].Date })

	longest, run := 0, 0
	prevDate := ""
	for _, rec := range asc {
		contiguous := prevDate == "" || rec.Date == nextDay(prevDate)
		if isGroomed(&rec) && (run == 0 || contiguous) {
			run++
		} else if isGroomed(&rec) {
			run = 1
		} else {
			run = 0
		}
		if run > longest {
			longest = run
		}
		prevDate = rec.Date
	}
	return longest
}

func weekdayStats(rows []models.TerrainStatusRecord) []models.WeekdayStat {
	stats := make([]models.WeekdayStat, 7)
	for i := range stats {
		stats[i].Weekday = i
		stats[i].Name = time.Weekday(i).String()
	}

	for i := range rows {
		day, err := time.Parse("2006-01-02", rows[i].Date)
		if err != nil {
			continue
		}
		wd := int(day.Weekday())
		stats[wd].Observed++
		if isGroomed(&rows[i]) {
			stats[wd].Groomed++
		}
	}

	for i := range stats {
		stats[i].Percentage = percentage(stats[i].Groomed, stats[i].Observed)
	}
	return stats
}

func historyEntries(desc []models.TerrainStatusRecord) []models.TrailDay {
	limit := len(desc)
	if limit > historyWindow {
		limit = historyWindow
	}

	history := make([]models.TrailDay, 0, limit)
	for _, rec := range desc[:limit] {
		history = append(history, models.TrailDay{
			Date:           rec.Date,
			IsOpen:         statusOpen(rec.Status),
			IsGroomed:      isGroomed(&rec),
			GroomingStatus: rec.GroomingStatus,
			GroomingType:   rec.GroomingType,
		})
	}
	return history
}

// ComputeTrailsIndex projects previously generated artifacts into the
// resort-level summary, ordered ascending by (area, name) with
// locale-aware comparison.
func ComputeTrailsIndex(resortKey string, artifacts []*models.TrailArtifact) *models.TrailsIndex {
	index := &models.TrailsIndex{
		Resort:    resortKey,
		Generated: time.Now(),
		Count:     len(artifacts),
		Trails:    make([]models.TrailSummary, 0, len(artifacts)),
	}

	for _, artifact := range artifacts {
		summary := models.TrailSummary{
			Name:               artifact.Name,
			Slug:               artifact.Slug,
			Area:               artifact.Area,
			Difficulty:         artifact.Difficulty,
			GroomingPercentage: artifact.Stats.GroomingPercentage,
			CurrentStreak:      artifact.Stats.CurrentStreak,
		}
		if len(artifact.History) > 0 {
			summary.IsOpen = artifact.History[0].IsOpen
			summary.IsGroomed = artifact.History[0].IsGroomed
		}
		index.Trails = append(index.Trails, summary)
	}

	cl := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(index.Trails, func(i, j int) bool {
		a, b := index.Trails[i], index.Trails[j]
		if c := cl.CompareString(a.Area, b.Area); c != 0 {
			return c < 0
		}
		return cl.CompareString(a.Name, b.Name) < 0
	})

	return index
}

// Slugify turns a trail name into its artifact file name.
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func isGroomed(rec *models.TerrainStatusRecord) bool {
	return rec.GroomingStatus != nil && *rec.GroomingStatus != ""
}

func statusOpen(status string) bool {
	return strings.EqualFold(status, "open")
}

func percentage(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(total)))
}

func previousDay(date string) string {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return ""
	}
	return day.AddDate(0, 0, -1).Format("2006-01-02")
}

func nextDay(date string) string {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return ""
	}
	return day.AddDate(0, 0, 1).Format("2006-01-02")
}
