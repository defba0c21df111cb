package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"powderlines/httputil"
	"powderlines/models"
	"powderlines/schedule"
	"powderlines/stats"
	"powderlines/storage"
)

// Orchestrator walks every configured resort on each invocation, asks the
// decision engine whether each (resort, kind) pair is due, and runs the
// extract-snapshot-ingest pipeline for the ones that are. A failure for
// one pair never aborts the run.
type Orchestrator struct {
	resorts   map[string]*models.Resort
	handlers  map[string]Handler
	decider   *schedule.Decider
	snapshots *storage.SnapshotStore
	store     storage.Store
	publisher *storage.S3Publisher

	now func() time.Time
}

func NewOrchestrator(resorts map[string]*models.Resort, clients *httputil.Clients, snapshots *storage.SnapshotStore, store storage.Store) *Orchestrator {
	handlers := make(map[string]Handler, len(resorts))
	for key, r := range resorts {
		handlers[key] = NewHandler(r, clients)
	}

	return &Orchestrator{
		resorts:   resorts,
		handlers:  handlers,
		decider:   schedule.NewDecider(snapshots),
		snapshots: snapshots,
		store:     store,
		now:       time.Now,
	}
}

// SetPublisher enables the post-run mirror to object storage.
func (o *Orchestrator) SetPublisher(p *storage.S3Publisher) {
	o.publisher = p
}

// Handler exposes a resort's extraction handler for the lift poller.
func (o *Orchestrator) Handler(key string) Handler {
	return o.handlers[key]
}

// ResortKeys returns the configured resort keys in stable order.
func (o *Orchestrator) ResortKeys() []string {
	keys := make([]string, 0, len(o.resorts))
	for key := range o.resorts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// RunAll processes every configured resort and finishes with the shared
// outputs: aggregate latest files, the tree index, and the optional
// object-storage mirror.
func (o *Orchestrator) RunAll(ctx context.Context) *models.RunSummary {
	summary := models.NewRunSummary()
	state := newRunState()

	for _, key := range o.ResortKeys() {
		o.runResort(ctx, o.resorts[key], summary, state)
	}

	o.finalize(ctx, summary, state)
	summary.FinishedAt = time.Now()

	log.Printf("Run complete: %d scraped, %d errors, skips: %v",
		summary.Scraped, summary.Errors, summary.Skipped)
	return summary
}

// RunResort processes a single resort by key. An unknown key is an error
// that names the valid keys, since it almost always means a config typo.
func (o *Orchestrator) RunResort(ctx context.Context, key string) (*models.RunSummary, error) {
	r, ok := o.resorts[key]
	if !ok {
		return nil, fmt.Errorf("unknown resort %q (configured: %v)", key, o.ResortKeys())
	}

	summary := models.NewRunSummary()
	state := newRunState()
	o.runResort(ctx, r, summary, state)
	o.finalize(ctx, summary, state)
	summary.FinishedAt = time.Now()
	return summary, nil
}

// Aggregate regenerates trail artifacts, trail indexes, and the tree
// manifest without scraping anything. Safe to run standalone.
func (o *Orchestrator) Aggregate(ctx context.Context) error {
	for _, key := range o.ResortKeys() {
		r := o.resorts[key]
		resortID, err := o.store.UpsertResort(ctx, r.Key, r.Name, r.Timezone)
		if err != nil {
			return fmt.Errorf("resort %s: %w", key, err)
		}
		if err := o.regenerateArtifacts(ctx, r, resortID); err != nil {
			return fmt.Errorf("resort %s: %w", key, err)
		}
	}
	return o.snapshots.GenerateIndex()
}

func (o *Orchestrator) Close() {
	for _, h := range o.handlers {
		h.Close()
	}
}

// runState accumulates the per-run inputs to the shared outputs.
type runState struct {
	terrain []storage.AggregateEntry
	snow    []storage.AggregateEntry
}

func newRunState() *runState {
	return &runState{}
}

func (o *Orchestrator) runResort(ctx context.Context, r *models.Resort, summary *models.RunSummary, state *runState) {
	now := o.now()

	terrainDue, terrainReason := o.decider.ShouldScrape(r, models.KindTerrain, now)
	snowDue, snowReason := o.decider.ShouldScrape(r, models.KindSnow, now)

	if (terrainDue || snowDue) && !schedule.IsInScrapingWindow(r, now) {
		log.Printf("[%s] catching up outside the %02d:00 scraping window", r.Key, r.TargetHour)
	}

	if terrainDue {
		o.scrapeTerrain(ctx, r, now, summary, state)
	} else {
		log.Printf("[%s] terrain skipped: %s", r.Key, terrainReason)
		summary.Skip(terrainReason)
	}

	if snowDue {
		o.scrapeSnow(ctx, r, now, summary, state)
	} else {
		log.Printf("[%s] snow skipped: %s", r.Key, snowReason)
		summary.Skip(snowReason)
	}
}

func (o *Orchestrator) scrapeTerrain(ctx context.Context, r *models.Resort, now time.Time, summary *models.RunSummary, state *runState) {
	run := o.beginRun(ctx, r.Key, models.KindTerrain)
	date := schedule.ISODate(now.In(r.Location))

	payload, raw, err := o.handlers[r.Key].FetchTerrain(ctx)
	if err != nil {
		log.Printf("[%s] terrain extraction failed: %v", r.Key, err)
		o.failRun(ctx, run, models.SkipExtractionError, err)
		summary.Skip(models.SkipExtractionError)
		return
	}
	if payload == nil || len(payload.Areas) == 0 {
		log.Printf("[%s] terrain feed empty, nothing persisted", r.Key)
		o.failRun(ctx, run, models.SkipNoData, nil)
		summary.Skip(models.SkipNoData)
		return
	}

	if err := o.snapshots.SaveTerrain(r.Key, date, raw); err != nil {
		o.failRun(ctx, run, models.SkipNone, fmt.Errorf("save snapshot: %w", err))
		summary.Errors++
		return
	}

	resortID, err := o.store.UpsertResort(ctx, r.Key, r.Name, r.Timezone)
	if err != nil {
		o.failRun(ctx, run, models.SkipNone, fmt.Errorf("upsert resort: %w", err))
		summary.Errors++
		return
	}

	count, err := o.store.IngestTerrain(ctx, resortID, date, payload)
	if err != nil {
		o.failRun(ctx, run, models.SkipNone, fmt.Errorf("ingest terrain: %w", err))
		summary.Errors++
		return
	}

	if err := o.regenerateArtifacts(ctx, r, resortID); err != nil {
		log.Printf("[%s] artifact regeneration failed: %v", r.Key, err)
	}

	run.ItemsIngested = count
	o.completeRun(ctx, run)
	summary.Scraped++
	log.Printf("[%s] terrain %s: %d items ingested", r.Key, date, count)

	state.terrain = append(state.terrain, storage.AggregateEntry{
		Resort:    r.Key,
		Name:      r.Name,
		Date:      date,
		ScrapedAt: now,
		Payload:   raw,
	})
}

func (o *Orchestrator) scrapeSnow(ctx context.Context, r *models.Resort, now time.Time, summary *models.RunSummary, state *runState) {
	run := o.beginRun(ctx, r.Key, models.KindSnow)
	date := schedule.ISODate(now.In(r.Location))

	payload, err := o.handlers[r.Key].FetchSnow(ctx)
	if err != nil {
		log.Printf("[%s] snow extraction failed: %v", r.Key, err)
		o.failRun(ctx, run, models.SkipExtractionError, err)
		summary.Skip(models.SkipExtractionError)
		return
	}
	if payload == nil {
		o.failRun(ctx, run, models.SkipNoData, nil)
		summary.Skip(models.SkipNoData)
		return
	}

	if err := o.snapshots.SaveSnow(r.Key, date, payload); err != nil {
		o.failRun(ctx, run, models.SkipNone, fmt.Errorf("save snapshot: %w", err))
		summary.Errors++
		return
	}

	resortID, err := o.store.UpsertResort(ctx, r.Key, r.Name, r.Timezone)
	if err != nil {
		o.failRun(ctx, run, models.SkipNone, fmt.Errorf("upsert resort: %w", err))
		summary.Errors++
		return
	}

	count, err := o.store.IngestSnow(ctx, resortID, date, payload)
	if err != nil {
		o.failRun(ctx, run, models.SkipNone, fmt.Errorf("ingest snow: %w", err))
		summary.Errors++
		return
	}

	run.ItemsIngested = count
	o.completeRun(ctx, run)
	summary.Scraped++
	log.Printf("[%s] snow %s ingested", r.Key, date)

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	state.snow = append(state.snow, storage.AggregateEntry{
		Resort:    r.Key,
		Name:      r.Name,
		Date:      date,
		ScrapedAt: now,
		Payload:   data,
	})
}

// regenerateArtifacts recomputes every trail artifact for the resort from
// the current season's rows, then reprojects the trails index. Out of
// season the most recent season start applies, so standalone aggregation
// after closing day still covers the season that just ended.
func (o *Orchestrator) regenerateArtifacts(ctx context.Context, r *models.Resort, resortID int64) error {
	since := schedule.ISODate(schedule.SeasonStartDate(r, o.now()))

	names, err := o.store.TrailNames(ctx, resortID, since)
	if err != nil {
		return err
	}

	for _, name := range names {
		history, err := o.store.TrailHistory(ctx, resortID, name, since)
		if err != nil {
			return err
		}
		artifact := stats.ComputeTrailArtifact(name, history)
		if err := o.snapshots.WriteTrailArtifact(r.Key, artifact); err != nil {
			return err
		}
	}

	artifacts, err := o.snapshots.ReadTrailArtifacts(r.Key)
	if err != nil {
		return err
	}
	if len(artifacts) == 0 {
		return nil
	}
	return o.snapshots.WriteTrailsIndex(r.Key, stats.ComputeTrailsIndex(r.Key, artifacts))
}

func (o *Orchestrator) finalize(ctx context.Context, summary *models.RunSummary, state *runState) {
	if len(state.terrain) > 0 {
		if err := o.snapshots.GenerateAggregateLatest(models.KindTerrain, state.terrain); err != nil {
			log.Printf("Aggregate terrain latest failed: %v", err)
			summary.Errors++
		}
	}
	if len(state.snow) > 0 {
		if err := o.snapshots.GenerateAggregateLatest(models.KindSnow, state.snow); err != nil {
			log.Printf("Aggregate snow latest failed: %v", err)
			summary.Errors++
		}
	}

	if err := o.snapshots.GenerateIndex(); err != nil {
		log.Printf("Index generation failed: %v", err)
		summary.Errors++
	}

	if o.publisher != nil && summary.Scraped > 0 {
		uploaded, err := o.publisher.PublishTree(ctx, o.snapshots.Root())
		if err != nil {
			log.Printf("Publish failed after %d uploads: %v", uploaded, err)
			summary.Errors++
		} else {
			log.Printf("Published %d files", uploaded)
		}
	}
}

func (o *Orchestrator) beginRun(ctx context.Context, resortKey string, kind models.DataKind) *models.ScrapeRun {
	run := &models.ScrapeRun{
		ID:        uuid.NewString(),
		ResortKey: resortKey,
		Kind:      kind,
		StartedAt: time.Now(),
		Status:    models.RunStatusRunning,
	}
	if err := o.store.CreateRun(ctx, run); err != nil {
		log.Printf("[%s] create run record: %v", resortKey, err)
	}
	return run
}

func (o *Orchestrator) completeRun(ctx context.Context, run *models.ScrapeRun) {
	now := time.Now()
	run.FinishedAt = &now
	run.Status = models.RunStatusCompleted
	if err := o.store.FinishRun(ctx, run); err != nil {
		log.Printf("[%s] finish run record: %v", run.ResortKey, err)
	}
}

func (o *Orchestrator) failRun(ctx context.Context, run *models.ScrapeRun, reason models.SkipReason, cause error) {
	now := time.Now()
	run.FinishedAt = &now
	run.Status = models.RunStatusFailed
	run.SkipReason = reason
	if cause != nil {
		run.Error = cause.Error()
	}
	if err := o.store.FinishRun(ctx, run); err != nil {
		log.Printf("[%s] finish run record: %v", run.ResortKey, err)
	}
}
