package workers

import (
	"context"
	"log"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"powderlines/lifts"
	"powderlines/models"
	"powderlines/schedule"
	"powderlines/scraper"
	"powderlines/storage"
)

// liftBatchSize bounds concurrent outbound extractions per poll.
const liftBatchSize = 5

// HandlerSource hands out the per-resort extraction handler. Satisfied by
// scraper.Orchestrator.
type HandlerSource interface {
	Handler(key string) scraper.Handler
}

// LiftWorker polls lift status at high frequency and appends observations
// to the per-resort NDJSON logs. Outside a resort's operating window the
// poll still runs but records nothing, so overnight silence reads as
// unobserved rather than as lifts being down.
type LiftWorker struct {
	resorts   map[string]*models.Resort
	source    HandlerSource
	snapshots *storage.SnapshotStore
	triggerCh chan struct{}

	now func() time.Time
}

func NewLiftWorker(resorts map[string]*models.Resort, source HandlerSource, snapshots *storage.SnapshotStore) *LiftWorker {
	return &LiftWorker{
		resorts:   resorts,
		source:    source,
		snapshots: snapshots,
		triggerCh: make(chan struct{}, 1),
		now:       time.Now,
	}
}

// Trigger causes the worker to poll immediately.
func (w *LiftWorker) Trigger() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

// Run starts the poll loop.
func (w *LiftWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Lift worker stopping")
			return
		case <-ticker.C:
			w.PollOnce(ctx)
		case <-w.triggerCh:
			log.Println("Lift worker triggered manually")
			w.PollOnce(ctx)
		}
	}
}

// PollOnce polls every in-season resort in bounded parallel batches.
// Resorts are independent; one failure never affects the others.
func (w *LiftWorker) PollOnce(ctx context.Context) {
	now := w.now()

	keys := make([]string, 0, len(w.resorts))
	for key := range w.resorts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(liftBatchSize)
	for _, key := range keys {
		r := w.resorts[key]
		g.Go(func() error {
			w.pollResort(gctx, r, now)
			return nil
		})
	}
	// pollResort logs its own failures, so there is no error to collect.
	_ = g.Wait()
}

func (w *LiftWorker) pollResort(ctx context.Context, r *models.Resort, now time.Time) {
	if !schedule.IsInSeason(r, now) || r.TerrainURL == "" {
		return
	}

	handler := w.source.Handler(r.Key)
	if handler == nil {
		return
	}

	payload, _, err := handler.FetchTerrain(ctx)
	if err != nil {
		log.Printf("[%s] lift poll extraction failed: %v", r.Key, err)
		return
	}

	items := lifts.Flatten(payload)
	if len(items) == 0 {
		return
	}

	window := lifts.OperatingWindow(items, r.Location, now)
	if !window.IsOpen {
		log.Printf("[%s] outside operating window (%s), not recording", r.Key, windowLabel(window))
		return
	}

	records := lifts.Records(items, now)
	date := schedule.ISODate(now.In(r.Location))
	if err := w.snapshots.AppendLiftRecords(r.Key, date, records); err != nil {
		log.Printf("[%s] append lift records: %v", r.Key, err)
		return
	}
	log.Printf("[%s] recorded %d lift observations", r.Key, len(records))
}

func windowLabel(w models.OperatingWindow) string {
	if w.Reason != "" {
		return w.Reason
	}
	return w.OpenTime + "-" + w.CloseTime
}
