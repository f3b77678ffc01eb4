package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"donorflow/api"
	"donorflow/common"
	"donorflow/directory"
	"donorflow/extraction"
	"donorflow/kafka"
	"donorflow/orchestrator"
	"donorflow/postings"
	"donorflow/state"
)

func main() {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	once := flag.Bool("once", false, "Run one reconciliation over the configured bucket prefix, then exit")
	prefix := flag.String("prefix", "", "Bucket prefix override for -once runs")
	dir := flag.String("dir", "", "Local document directory for -once runs (bypasses the document store)")
	flag.Parse()

	cfg := loadConfig()

	extractor := extraction.NewHTTPClient(cfg.ExtractionAPIURL, cfg.ExtractionAPIKey)
	dirClient := directory.NewHTTPClient(cfg.AccountingAPIURL, cfg.AccountingAPIKey)
	stateManager := state.NewManager()

	deps := orchestrator.Deps{
		Extractor: extractor,
		Directory: dirClient,
		State:     stateManager,
	}

	// The posting register is optional: without redis, every record is
	// treated as not yet posted.
	if cfg.RedisAddr != "" {
		register, err := postings.NewRegister(postings.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			log.Printf("Posting register unavailable, continuing without it: %v", err)
		} else {
			deps.Posted = register
			defer register.Close()
		}
	}

	var store *common.S3
	if cfg.S3Bucket != "" {
		s3Client, err := common.NewS3(context.Background(), common.S3Config{
			Region:  cfg.S3Region,
			Profile: cfg.S3Profile,
		})
		if err != nil {
			log.Printf("Document store unavailable: %v", err)
		} else {
			store = s3Client
		}
	}

	orch := orchestrator.New(deps, orchestrator.Config{})
	var marker api.PostedMarker
	if register, ok := deps.Posted.(*postings.Register); ok {
		marker = register
	}
	svc := api.NewReconcileService(orch, stateManager, store, cfg.S3Bucket, marker)

	if *once {
		if *dir != "" {
			docs, err := common.LoadLocalDocuments(*dir)
			if err != nil {
				log.Fatalf("Loading documents from %s: %v", *dir, err)
			}
			if _, err := orch.Run(context.Background(), docs); err != nil {
				log.Fatalf("Reconciliation run failed: %v", err)
			}
			return
		}
		runPrefix := cfg.S3Prefix
		if *prefix != "" {
			runPrefix = *prefix
		}
		if err := svc.RunBatch(context.Background(), cfg.S3Bucket, runPrefix); err != nil {
			log.Fatalf("Reconciliation run failed: %v", err)
		}
		return
	}

	if len(cfg.KafkaBrokers) > 0 {
		consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			GroupID: cfg.KafkaGroupID,
			Handler: &kafka.BatchEventHandler{Runner: svc},
		})
		if err != nil {
			log.Printf("Failed to create Kafka consumer: %v", err)
		} else if err := consumer.Start(context.Background()); err != nil {
			log.Printf("Failed to start Kafka consumer: %v", err)
		} else {
			defer consumer.Close()
		}
	}

	if cfg.CronSchedule != "" && store != nil {
		c := cron.New()
		_, err := c.AddFunc(cfg.CronSchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
			defer cancel()
			if err := svc.RunBatch(ctx, cfg.S3Bucket, cfg.S3Prefix); err != nil {
				log.Printf("Scheduled reconciliation failed: %v", err)
			}
		})
		if err != nil {
			log.Printf("Invalid cron schedule %q: %v", cfg.CronSchedule, err)
			os.Exit(1)
		}
		c.Start()
		defer c.Stop()
		log.Printf("Scheduled reconciliation enabled: %s", cfg.CronSchedule)
	}

	r := api.NewRouter(svc)
	addr := ":" + cfg.Port
	log.Printf("Starting API server on %s", addr)
	log.Println("API endpoints available:")
	log.Println("  GET  /api/health")
	log.Println("  POST /api/reconcile/run")
	log.Println("  POST /api/reconcile/records")
	log.Println("  POST /api/reconcile/posted")
	log.Println("  GET  /api/reconcile/status")
	log.Println("  GET  /api/reconcile/result")

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
