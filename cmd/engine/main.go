package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/astraforge/engine/internal/domain"
	"github.com/astraforge/engine/internal/infrastructure/enrichment"
	"github.com/astraforge/engine/internal/infrastructure/logger"
	"github.com/astraforge/engine/internal/infrastructure/ranking"
	"github.com/astraforge/engine/internal/infrastructure/storage"
	"github.com/astraforge/engine/internal/infrastructure/venue"
	"github.com/astraforge/engine/internal/usecase"
	"github.com/astraforge/engine/internal/web"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Enrichment struct {
		Endpoint string `yaml:"endpoint"`
	} `yaml:"enrichment"`
	Venue struct {
		Enabled  bool   `yaml:"enabled"`
		APIKey   string `yaml:"api_key"`
		Endpoint string `yaml:"endpoint"`
	} `yaml:"venue"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Forger struct {
		IntervalMs int `yaml:"interval_ms"`
	} `yaml:"forger"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
}

func loadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func main() {
	// 1. Load Config
	cfg, err := loadConfig("config/config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Init Logger
	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// 3. Init Storage
	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath = "engine.db"
	}
	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		log.Fatal("Failed to init sqlite", zap.Error(err))
	}
	defer store.Close()

	// 4. Init Ranking Store (optional; the engine runs without it)
	var rankingStore domain.RankingStore
	if cfg.Redis.Addr != "" {
		redisStore, err := ranking.NewRedisStore(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Error("Failed to connect ranking store, leaderboard disabled", zap.Error(err))
		} else {
			rankingStore = redisStore
			defer redisStore.Close()
		}
	}

	// 5. Init External Ports
	var enrichmentSource domain.EnrichmentSource
	if cfg.Enrichment.Endpoint != "" {
		enrichmentSource = enrichment.NewClient(cfg.Enrichment.Endpoint)
	}

	var venueClient domain.Venue
	if cfg.Venue.Enabled {
		venueClient = venue.NewExtendedClient(cfg.Venue.APIKey, cfg.Venue.Endpoint)
	}

	// 6. Init Services
	hub := web.NewHub(log)
	engine := usecase.NewProgressionEngine(store, rankingStore, hub, log)
	resolver := usecase.NewTradeOutcomeResolver(enrichmentSource, log)
	executor := usecase.NewRealTradeExecutor(usecase.NewPayloadSigner(), venueClient, cfg.Venue.Enabled, log)
	tradeService := usecase.NewTradeService(resolver, executor, engine, store, hub, log)

	// 7. Wait for Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 8. Passive Income Loop
	interval := time.Duration(cfg.Forger.IntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = time.Minute
	}
	forgerService := usecase.NewForgerIncomeService(engine, store, interval, log)
	go forgerService.Run(ctx)

	// 9. Start Server
	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	server := web.NewServer(port, tradeService, engine, rankingStore, hub, log)
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-stop
	cancel()

	log.Info("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)
}
