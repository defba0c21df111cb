package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"powderlines/httputil"
	"powderlines/models"
	"powderlines/storage"
)

type fakeHandler struct {
	terrain    *models.TerrainPayload
	terrainRaw json.RawMessage
	snow       *models.SnowPayload
	terrainErr error
	snowErr    error
}

func (h *fakeHandler) ID() string { return "fake" }
func (h *fakeHandler) Close()     {}

func (h *fakeHandler) FetchTerrain(ctx context.Context) (*models.TerrainPayload, json.RawMessage, error) {
	return h.terrain, h.terrainRaw, h.terrainErr
}

func (h *fakeHandler) FetchSnow(ctx context.Context) (*models.SnowPayload, error) {
	return h.snow, h.snowErr
}

type fakeStore struct {
	resortIDs  map[string]int64
	created    []*models.ScrapeRun
	finished   []*models.ScrapeRun
	trailNames []string
	sinceDates []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{resortIDs: make(map[string]int64)}
}

func (s *fakeStore) UpsertResort(ctx context.Context, key, name, timezone string) (int64, error) {
	if id, ok := s.resortIDs[key]; ok {
		return id, nil
	}
	id := int64(len(s.resortIDs) + 1)
	s.resortIDs[key] = id
	return id, nil
}

func (s *fakeStore) IngestTerrain(ctx context.Context, resortID int64, date string, payload *models.TerrainPayload) (int, error) {
	return len(storage.FlattenTerrain(payload)), nil
}

func (s *fakeStore) IngestSnow(ctx context.Context, resortID int64, date string, payload *models.SnowPayload) (int, error) {
	return 1, nil
}

func (s *fakeStore) TrailHistory(ctx context.Context, resortID int64, trailName, sinceDate string) ([]models.TerrainStatusRecord, error) {
	s.sinceDates = append(s.sinceDates, sinceDate)
	return nil, nil
}

func (s *fakeStore) TrailNames(ctx context.Context, resortID int64, sinceDate string) ([]string, error) {
	s.sinceDates = append(s.sinceDates, sinceDate)
	return s.trailNames, nil
}

func (s *fakeStore) CreateRun(ctx context.Context, run *models.ScrapeRun) error {
	s.created = append(s.created, run)
	return nil
}

func (s *fakeStore) FinishRun(ctx context.Context, run *models.ScrapeRun) error {
	s.finished = append(s.finished, run)
	return nil
}

func (s *fakeStore) Close() error { return nil }

func testOrchestrator(t *testing.T, handler Handler) (*Orchestrator, *fakeStore, string) {
	t.Helper()

	resort := &models.Resort{
		Key:           "alpine",
		Name:          "Alpine Meadows",
		Timezone:      "UTC",
		Location:      time.UTC,
		Handler:       "api",
		TerrainURL:    "https://alpine.example/mountain-report",
		SnowReportURL: "https://alpine.example/snow-report",
		SeasonStart:   models.MonthDay{Month: time.November, Day: 1},
		SeasonEnd:     models.MonthDay{Month: time.May, Day: 1},
		TargetHour:    0,
		WindowHours:   3,
	}

	root := t.TempDir()
	store := newFakeStore()
	o := NewOrchestrator(map[string]*models.Resort{"alpine": resort}, httputil.NewClients(), storage.NewSnapshotStore(root), store)
	o.handlers["alpine"] = handler
	o.now = func() time.Time {
		return time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	}
	return o, store, root
}

func loadedHandler(t *testing.T) *fakeHandler {
	t.Helper()
	raw := fixture(t, "terrain_feed.json")
	terrain, err := parseTerrainFeed(raw)
	if err != nil {
		t.Fatalf("fixture parse: %v", err)
	}
	snow, err := parseSnowFeed(fixture(t, "snow_report.json"))
	if err != nil {
		t.Fatalf("fixture parse: %v", err)
	}
	return &fakeHandler{terrain: terrain, terrainRaw: raw, snow: snow}
}

func TestRunAll_ScrapesAndPersists(t *testing.T) {
	o, store, root := testOrchestrator(t, loadedHandler(t))

	summary := o.RunAll(context.Background())

	if summary.Scraped != 2 {
		t.Fatalf("expected 2 scrapes (terrain + snow), got %d", summary.Scraped)
	}
	if summary.Errors != 0 {
		t.Fatalf("expected no errors, got %d", summary.Errors)
	}

	for _, path := range []string{
		filepath.Join(root, "alpine", "terrain", "2025-01-15.json"),
		filepath.Join(root, "alpine", "snow", "2025-01-15.json"),
		filepath.Join(root, "alpine", "snow", "latest.json"),
		filepath.Join(root, "latest.json"),
		filepath.Join(root, "latest-snow.json"),
		filepath.Join(root, "index.json"),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to exist: %v", path, err)
		}
	}

	if len(store.finished) != 2 {
		t.Fatalf("expected 2 finished run records, got %d", len(store.finished))
	}
	for _, run := range store.finished {
		if run.Status != models.RunStatusCompleted {
			t.Fatalf("run %s/%s not completed: %s", run.ResortKey, run.Kind, run.Status)
		}
	}

	var terrainRun *models.ScrapeRun
	for _, run := range store.finished {
		if run.Kind == models.KindTerrain {
			terrainRun = run
		}
	}
	// 3 trails + 1 lift in the fixture.
	if terrainRun == nil || terrainRun.ItemsIngested != 4 {
		t.Fatalf("unexpected terrain run: %+v", terrainRun)
	}
}

func TestRunAll_SecondRunSkipsAlreadyScraped(t *testing.T) {
	o, _, _ := testOrchestrator(t, loadedHandler(t))

	o.RunAll(context.Background())
	summary := o.RunAll(context.Background())

	if summary.Scraped != 0 {
		t.Fatalf("second run should scrape nothing, got %d", summary.Scraped)
	}
	if summary.Skipped[models.SkipAlreadyScraped] != 2 {
		t.Fatalf("expected both kinds skipped as already scraped, got %v", summary.Skipped)
	}
}

func TestRunAll_ExtractionFailureIsIsolated(t *testing.T) {
	handler := loadedHandler(t)
	handler.terrainErr = errors.New("page never loaded")
	o, store, _ := testOrchestrator(t, handler)

	summary := o.RunAll(context.Background())

	if summary.Skipped[models.SkipExtractionError] != 1 {
		t.Fatalf("expected 1 extraction error, got %v", summary.Skipped)
	}
	if summary.Errors != 1 {
		t.Fatalf("extraction errors count as errors, got %d", summary.Errors)
	}
	if summary.Scraped != 1 {
		t.Fatalf("snow should still scrape, got %d", summary.Scraped)
	}

	var failed *models.ScrapeRun
	for _, run := range store.finished {
		if run.Status == models.RunStatusFailed {
			failed = run
		}
	}
	if failed == nil || failed.SkipReason != models.SkipExtractionError || failed.Error == "" {
		t.Fatalf("expected failed terrain run with reason and error, got %+v", failed)
	}
}

func TestRunAll_EmptyFeedCountsAsNoData(t *testing.T) {
	handler := loadedHandler(t)
	handler.terrain = nil
	handler.terrainRaw = nil
	o, _, root := testOrchestrator(t, handler)

	summary := o.RunAll(context.Background())

	if summary.Skipped[models.SkipNoData] != 1 {
		t.Fatalf("expected no_data skip, got %v", summary.Skipped)
	}
	if _, err := os.Stat(filepath.Join(root, "alpine", "terrain", "2025-01-15.json")); err == nil {
		t.Fatal("empty feed must not write a snapshot")
	}
}

func TestAggregate_ReadsRowsFromSeasonStart(t *testing.T) {
	o, store, _ := testOrchestrator(t, loadedHandler(t))
	store.trailNames = []string{"Ridge Run"}
	// Late season: the artifact inputs must still reach back to November,
	// not to a trailing window of recent rows.
	o.now = func() time.Time {
		return time.Date(2025, 4, 15, 10, 0, 0, 0, time.UTC)
	}

	if err := o.Aggregate(context.Background()); err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	if len(store.sinceDates) == 0 {
		t.Fatal("expected trail queries during aggregation")
	}
	for _, since := range store.sinceDates {
		if since != "2024-11-01" {
			t.Fatalf("artifact rows must start at season start 2024-11-01, got %q", since)
		}
	}
}

func TestRunResort_UnknownKey(t *testing.T) {
	o, _, _ := testOrchestrator(t, loadedHandler(t))

	_, err := o.RunResort(context.Background(), "nosuch")
	if err == nil {
		t.Fatal("expected error for unknown resort")
	}
	if want := "alpine"; !containsStr(err.Error(), want) {
		t.Fatalf("error should list configured keys, got %q", err.Error())
	}
}

func containsStr(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
