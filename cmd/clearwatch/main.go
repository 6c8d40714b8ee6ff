package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/clearwatch/clearwatch/internal/audit"
	"github.com/clearwatch/clearwatch/internal/cache"
	"github.com/clearwatch/clearwatch/internal/config"
	"github.com/clearwatch/clearwatch/internal/screening"
	"github.com/clearwatch/clearwatch/internal/server"
	"github.com/clearwatch/clearwatch/internal/watchlist"
	"github.com/clearwatch/clearwatch/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("service failed", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	store, err := newStore(cfg, zlog)
	if err != nil {
		return err
	}

	var backend cache.Backend
	if cfg.Cache.Backend == "redis" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		backend = cache.NewRedisBackend(client)
	} else {
		backend = cache.NewMemoryBackend()
	}
	ttlCache := cache.New(backend)

	matcher := screening.NewMatcher(store, screening.MatcherConfig{
		FuzzyFloor:            cfg.Screening.FuzzyFloor,
		MediumFloor:           cfg.Screening.MediumFloor,
		MinSubstringTargetLen: cfg.Screening.MinSubstringTargetLen,
		Denylist:              screening.DefaultMatcherConfig().Denylist,
		PerSourceTimeout:      cfg.Screening.PerSourceTimeout,
	}, zlog)

	var sources []watchlist.Source
	for _, s := range cfg.Watchlist.Sources {
		sources = append(sources, watchlist.Source(s))
	}

	sanctions := screening.NewSanctionsScreener(matcher, sources, zlog)
	enforcement := screening.NewEnforcementChecker(
		screening.NewKeywordEvidenceProvider(),
		nil,
		cfg.Screening.Agencies,
		ttlCache,
		cfg.Screening.EnforcementCacheTTL,
		cfg.Screening.PerSourceTimeout,
		zlog,
	)
	jurisdiction := screening.NewJurisdictionAnalyzer()
	resolver := screening.NewEntityResolver(nil)

	weights := make(screening.RiskWeights, len(cfg.Risk.Weights))
	for name, w := range cfg.Risk.Weights {
		weights[name] = decimal.NewFromFloat(w)
	}
	aggregator := screening.NewAggregator(weights)

	var publisher screening.ReportPublisher
	if cfg.Audit.Enabled {
		kp := audit.NewKafkaPublisher(cfg.Audit.Brokers, cfg.Audit.Topic, zlog)
		defer kp.Close()
		publisher = kp
	}

	engine := screening.NewEngine(sanctions, enforcement, jurisdiction, resolver, aggregator, publisher, zlog)

	shutdownTracing, err := server.SetupTracing(cfg.Telemetry.TracingEnabled)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	srv := server.New(cfg.Server, engine, store, zlog)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		zlog.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

func newStore(cfg *config.Config, zlog *zap.Logger) (watchlist.Store, error) {
	if cfg.Watchlist.Backend == "postgres" {
		db, err := gorm.Open(postgres.Open(cfg.Watchlist.PostgresDSN), &gorm.Config{})
		if err != nil {
			return nil, err
		}
		return watchlist.NewPostgresStore(db, zlog)
	}
	return watchlist.NewMemoryStore(zlog), nil
}
