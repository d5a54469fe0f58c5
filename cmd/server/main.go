package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/adpilot/internal/adcopy"
	"github.com/ignite/adpilot/internal/api"
	"github.com/ignite/adpilot/internal/automation"
	"github.com/ignite/adpilot/internal/config"
	"github.com/ignite/adpilot/internal/optimizer"
	"github.com/ignite/adpilot/internal/platform"
	"github.com/ignite/adpilot/internal/platform/googleads"
	"github.com/ignite/adpilot/internal/platform/metaads"
	"github.com/ignite/adpilot/internal/platform/webanalytics"
	"github.com/ignite/adpilot/internal/report"
	"github.com/ignite/adpilot/internal/repository/postgres"
	"github.com/ignite/adpilot/internal/unified"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("DATABASE_URL") != "" {
		log.Println("[config] DATABASE_URL env override active")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Platform adapters: one per enabled integration.
	var adapters []platform.Adapter
	if cfg.GoogleAds.Enabled {
		adapters = append(adapters, googleads.NewAdapter(cfg.GoogleAds))
		log.Printf("Google Ads adapter enabled (customer %s)", cfg.GoogleAds.CustomerID)
	}
	if cfg.MetaAds.Enabled {
		adapters = append(adapters, metaads.NewAdapter(cfg.MetaAds))
		log.Printf("Meta Ads adapter enabled (account %s)", cfg.MetaAds.AdAccountID)
	}
	if cfg.WebAnalytics.Enabled {
		adapters = append(adapters, webanalytics.NewAdapter(cfg.WebAnalytics))
		log.Printf("Web analytics adapter enabled (property %s)", cfg.WebAnalytics.PropertyID)
	}
	if len(adapters) == 0 {
		log.Fatal("No platform adapters enabled; enable at least one in config")
	}
	client := unified.NewClient(adapters...)

	// Postgres backs campaign caching and automation records when
	// configured; otherwise automation records live in memory only.
	var db *sql.DB
	var campaignCache api.CampaignCache
	var recordStore automation.RecordStore = automation.NewMemoryStore()
	if cfg.Database.URL != "" {
		db, err = sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(3)
		db.SetConnMaxLifetime(5 * time.Minute)

		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := db.PingContext(pingCtx); err != nil {
			pingCancel()
			log.Fatalf("Database ping failed: %v", err)
		}
		pingCancel()

		campaignCache = postgres.NewCampaignRepo(db)
		recordStore = postgres.NewAutomationRepo(db)
		log.Println("PostgreSQL connected: campaign cache and automation records persisted")
	} else {
		log.Println("Database not configured; automation records are in-memory only")
	}

	// Redis rolling counters are advisory; the tracker runs without them.
	var counters *automation.Counters
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Printf("Warning: Redis connection failed (%s): %v; task counters disabled", cfg.Redis.Addr, err)
			rdb.Close()
		} else {
			counters = automation.NewCounters(rdb, cfg.Automation.CounterWindowDays)
			log.Printf("Redis connected: %s (rolling task counters enabled)", cfg.Redis.Addr)
		}
		pingCancel()
	}

	tracker := automation.NewTracker(cfg.Automation, recordStore, counters)

	var copyGen adcopy.Generator
	if cfg.AdCopy.Enabled {
		copyGen, err = adcopy.New(ctx, cfg.AdCopy)
		if err != nil {
			log.Fatalf("Failed to initialize ad copy backend %q: %v", cfg.AdCopy.Backend, err)
		}
		log.Printf("Ad copy generation enabled (backend: %s)", cfg.AdCopy.Backend)
	} else {
		log.Println("Ad copy generation not configured")
	}

	handlers := api.NewHandlers(client, report.NewBuilder(client),
		optimizer.New(cfg.Optimizer), tracker, copyGen, campaignCache)
	server := api.NewServer(cfg.Server, handlers)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if db != nil {
		db.Close()
	}
	log.Println("Server stopped")
}
