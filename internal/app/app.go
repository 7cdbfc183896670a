package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/matchup-markets/external/jobqueue"
	"github.com/riskibarqy/matchup-markets/external/polymarket"
	"github.com/riskibarqy/matchup-markets/external/statsfeed"
	"github.com/riskibarqy/matchup-markets/internal/config"
	"github.com/riskibarqy/matchup-markets/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/matchup-markets/internal/interfaces/httpapi"
	"github.com/riskibarqy/matchup-markets/internal/platform/logging"
	"github.com/riskibarqy/matchup-markets/internal/platform/ratelimit"
	"github.com/riskibarqy/matchup-markets/internal/platform/resilience"
	"github.com/riskibarqy/matchup-markets/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

// CloseFunc releases resources held by the built server.
type CloseFunc func(context.Context) error

// NewHTTPServer wires the whole read-and-ingest surface: postgres-backed
// repositories, the venue client with its shared rate budget, the similarity
// and pricing services, and the HTTP router on top.
func NewHTTPServer(cfg config.Config, logger *logging.Logger, httpLogger *slog.Logger) (*http.Server, CloseFunc, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if httpLogger == nil {
		httpLogger = slog.Default()
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func(context.Context) error { return db.Close() }

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelSeed()
	if err := postgres.BootstrapSeed(seedCtx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("bootstrap seed: %w", err)
	}

	gameRepo := postgres.NewGameRepository(db)
	observationRepo := postgres.NewObservationRepository(db)
	dispatchRepo := postgres.NewJobDispatchRepository(db)

	venueBudget := ratelimit.NewBudget(cfg.PolymarketRateCeiling)
	venueClient := polymarket.NewClient(polymarket.ClientConfig{
		GammaBaseURL:  cfg.PolymarketGammaBaseURL,
		ClobBaseURL:   cfg.PolymarketClobBaseURL,
		Timeout:       cfg.PolymarketTimeout,
		ThrottleDelay: cfg.PolymarketThrottleDelay,
		Logger:        logger,
		Budget:        venueBudget,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.PolymarketCircuitEnabled,
			FailureThreshold: cfg.PolymarketCircuitFailureCount,
			OpenTimeout:      cfg.PolymarketCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.PolymarketCircuitHalfOpenMax,
		},
	})
	statsClient := statsfeed.NewClient(statsfeed.ClientConfig{
		MaxConcurrent: cfg.BackfillMaxWorkers,
		Logger:        logger,
	})

	var queue usecase.JobQueue
	if cfg.QStashEnabled {
		queue = jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
			BaseURL:          cfg.QStashBaseURL,
			Token:            cfg.QStashToken,
			TargetBaseURL:    cfg.QStashTargetBaseURL,
			Retries:          cfg.QStashRetries,
			InternalJobToken: cfg.InternalJobToken,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.QStashCircuitEnabled,
				FailureThreshold: cfg.QStashCircuitFailureCount,
				OpenTimeout:      cfg.QStashCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.QStashCircuitHalfOpenMaxReq,
			},
		}, httpLogger)
	} else {
		queue = usecase.NewNoopJobQueue()
		logger.Info("job queue disabled, snapshot runs will not self-schedule")
	}

	similaritySvc := usecase.NewSimilarityService(gameRepo, logger)
	marketSvc := usecase.NewMarketService(gameRepo, logger)
	priceSvc := usecase.NewPriceHistoryService(venueClient, cfg.PriceBatchMaxInFlight, logger)
	analysisSvc := usecase.NewAnalysisService(gameRepo, similaritySvc, priceSvc, logger)
	ingestionSvc := usecase.NewIngestionService(gameRepo, statsClient, venueClient, similaritySvc, logger)
	snapshotSvc := usecase.NewSnapshotSchedulerService(
		gameRepo,
		observationRepo,
		venueClient,
		queue,
		dispatchRepo,
		usecase.SnapshotSchedulerConfig{Interval: cfg.SnapshotInterval},
		logger,
	)

	handler := httpapi.NewHandler(marketSvc, similaritySvc, analysisSvc, ingestionSvc, snapshotSvc, httpLogger)
	router := httpapi.NewRouter(handler, httpLogger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		_ = db.Close()
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, closeDB, nil
}

func openDatabase(cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(dsn)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}
