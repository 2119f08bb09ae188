package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spotwatch/internal/config"
	"spotwatch/internal/fetch"
	"spotwatch/internal/kv"
	"spotwatch/internal/model"
	"spotwatch/internal/publisher"
	"spotwatch/internal/scheduler"
	"spotwatch/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] spotwatch starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init key-value store
	var kvs kv.Store
	if sq, err := kv.NewSQLiteStore(cfg.Database.SQLitePath); err != nil {
		log.Printf("[WARN] init sqlite store failed, using in-memory: %v", err)
		kvs = kv.NewMemoryStore()
	} else {
		kvs = sq
	}
	defer kvs.Close()

	// Init price and settings stores
	priceStore := store.NewPriceStore(kvs)
	defaults := model.Settings{
		VATIncluded: !cfg.Display.VATExcluded,
		Thresholds:  [3]float64{cfg.Display.Thresholds[0], cfg.Display.Thresholds[1], cfg.Display.Thresholds[2]},
		CostOffset:  cfg.Display.CostOffset,
		ZoomLevel:   cfg.Display.ZoomLevel,
	}
	settings := store.NewSettingsStore(kvs, defaults)

	// Init fetcher
	fetcher := fetch.NewHTTPFetcher(cfg.DataSource.Endpoint, cfg.Proxy,
		time.Duration(cfg.DataSource.TimeoutSeconds)*time.Second)
	log.Printf("[INFO] price source: %s", cfg.DataSource.Endpoint)

	// Init publisher
	var pub publisher.Publisher
	if cfg.MQTT.Enabled {
		mp, err := publisher.NewMQTTPublisher(cfg.MQTT.Broker, cfg.MQTT.TopicPrefix, cfg.MQTT.ClientID)
		if err != nil {
			log.Printf("[WARN] init mqtt publisher failed, using log readout: %v", err)
			pub = publisher.NewLogPublisher()
		} else {
			pub = mp
		}
	} else {
		pub = publisher.NewLogPublisher()
	}
	defer pub.Close()

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, priceStore, settings, fetcher, pub)
	if err := sched.Register(time.Duration(cfg.Schedule.TickSeconds) * time.Second); err != nil {
		log.Fatalf("[FATAL] register tick: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// First tick immediately so the cache warms without waiting an interval.
	go sched.RunNow()

	log.Println("[INFO] spotwatch is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] spotwatch stopped")
}
