package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"powderlines/config"
	"powderlines/httputil"
	"powderlines/logging"
	"powderlines/scheduler"
	"powderlines/scraper"
	"powderlines/storage"
	"powderlines/workers"
)

var (
	scrapeNow = flag.Bool("scrape", false, "Run a scrape of all resorts and exit")
	resortKey = flag.String("resort", "", "Scrape a single resort by key and exit")
	pollLifts = flag.Bool("lifts", false, "Run one lift poll and exit")
	aggregate = flag.Bool("aggregate", false, "Regenerate trail artifacts and indexes without scraping")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	logFile, err := logging.Setup("powderlines.log")
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting powderlines...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	resorts, err := cfg.Resolve()
	if err != nil {
		log.Fatalf("Failed to resolve resort configs: %v", err)
	}
	if len(resorts) == 0 {
		log.Fatal("No resorts configured under config/resorts/")
	}
	log.Printf("Loaded %d resort configs", len(resorts))
	for key, r := range resorts {
		log.Printf("  - %s (%s, %s)", r.Name, key, r.Timezone)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var store storage.Store
	if cfg.DatabaseURL != "" {
		store, err = storage.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		log.Println("Using Postgres store")
	} else {
		store, err = storage.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			log.Fatalf("Failed to open SQLite: %v", err)
		}
		log.Printf("SQLite database: %s", cfg.DBPath)
	}
	defer store.Close()

	snapshots := storage.NewSnapshotStore(cfg.DataDir)
	clients := httputil.NewClients()

	orchestrator := scraper.NewOrchestrator(resorts, clients, snapshots, store)
	defer orchestrator.Close()

	if cfg.S3.Bucket != "" {
		publisher, err := storage.NewS3Publisher(ctx, storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
		if err != nil {
			log.Printf("Warning: S3 publisher disabled: %v", err)
		} else {
			orchestrator.SetPublisher(publisher)
			log.Printf("Publishing snapshots to s3://%s", cfg.S3.Bucket)
		}
	}

	liftWorker := workers.NewLiftWorker(resorts, orchestrator, snapshots)

	// One-shot commands.
	switch {
	case *aggregate:
		log.Println("Regenerating artifacts and indexes...")
		if err := orchestrator.Aggregate(ctx); err != nil {
			log.Fatalf("Aggregate failed: %v", err)
		}
		log.Println("Aggregate complete!")
		return
	case *resortKey != "":
		log.Printf("Running scrape for %s...", *resortKey)
		if _, err := orchestrator.RunResort(ctx, *resortKey); err != nil {
			log.Fatalf("Scrape failed: %v", err)
		}
		return
	case *scrapeNow:
		log.Println("Running scrape...")
		orchestrator.RunAll(ctx)
		log.Println("Scrape complete!")
		return
	case *pollLifts:
		log.Println("Running lift poll...")
		liftWorker.PollOnce(ctx)
		return
	}

	// Daemon mode.
	sched := scheduler.New(cfg, orchestrator)
	sched.SetLiftWorker(liftWorker)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	go liftWorker.Run(ctx, time.Duration(cfg.Schedule.LiftPollMinutes)*time.Minute)
	log.Printf("Lift worker started (every %dm)", cfg.Schedule.LiftPollMinutes)

	log.Println("Daemon running. Press Ctrl+C to stop.")
	<-ctx.Done()

	log.Println("Shutting down...")
	sched.Stop()
	log.Println("Goodbye!")
}
