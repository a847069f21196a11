package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"wire-sync/internal/article"
	"wire-sync/internal/config"
	"wire-sync/internal/db"
	"wire-sync/internal/event"
	"wire-sync/internal/ingest"
	"wire-sync/internal/media"
	"wire-sync/internal/taxonomy"
	"wire-sync/internal/wire"
)

func main() {
	// Root context cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := log.New(os.Stdout, "[wire-sync] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	// Taxonomy tables (embedded default unless TAXONOMY_PATH overrides)
	mapper, err := taxonomy.Load(cfg.TaxonomyPath)
	if err != nil {
		logger.Fatalf("failed to load taxonomy tables: %v", err)
	}

	// Mongo
	mongoClient, err := db.Connect(ctx, cfg.MongoURI)
	if err != nil {
		logger.Fatalf("failed to connect to db: %v", err)
	}
	dbInstance := mongoClient.Database(cfg.MongoDBName)

	repo, err := article.NewMongoRepository(dbInstance, logger)
	if err != nil {
		logger.Fatalf("failed to init repository: %v", err)
	}
	logger.Println("article repository initialised")

	// Wire client
	httpClient := &http.Client{Timeout: cfg.Timeout}
	wireClient := wire.NewClient(cfg.WireBaseURL, httpClient)

	// Media enrichment strategy
	var enricher media.Enricher = media.WireOnly{}
	if cfg.StockFallback {
		stock := media.NewPexelsClient(cfg.StockAPIKey, httpClient)
		if !stock.IsConfigured() {
			logger.Println("stock photo key missing, fallback images disabled")
		}
		enricher = media.NewWireFirst(stock, logger)
	}

	// Event publisher (RabbitMQ), optional
	var publisher ingest.Publisher
	if cfg.RabbitURI != "" {
		rabbit, err := event.NewRabbitPublisher(
			cfg.RabbitURI,
			cfg.RabbitExchange,
			cfg.RabbitRoutingKey,
			logger,
		)
		if err != nil {
			logger.Fatalf("failed to init rabbit publisher: %v", err)
		}
		defer rabbit.Close()
		publisher = rabbit
	} else {
		logger.Println("event publishing disabled")
	}

	// Ingestion service
	limiter := rate.NewLimiter(rate.Every(cfg.RateInterval), 1)
	svc := ingest.NewService(
		repo,
		wireClient,
		mapper,
		enricher,
		limiter,
		publisher,
		ingest.Options{
			Source:        cfg.WireSource,
			Categories:    cfg.Categories,
			Language:      cfg.Language,
			ContentType:   cfg.ContentType,
			Lookback:      cfg.Lookback,
			Limit:         cfg.SearchLimit,
			Concurrency:   cfg.Concurrency,
			MaxPolls:      cfg.MaxPolls,
			RetryAttempts: cfg.RetryAttempts,
			RetryBackoff:  cfg.RetryBackoff,
		},
		logger,
	)

	// HTTP health + report server
	srv := serve(cfg.BindAddr, svc, logger)

	// Start the poller
	go svc.StartPolling(ctx, cfg.PollInterval)

	logger.Println("service started")

	// Block until we receive a signal / ctx cancelled
	<-ctx.Done()
	logger.Println("shutdown signal received, shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Printf("HTTP server shutdown error: %v", err)
	}

	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		logger.Printf("mongo disconnect error: %v", err)
	}

	logger.Println("shutdown complete")
}

func serve(addr string, svc *ingest.Service, logger *log.Logger) *http.Server {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/report", func(w http.ResponseWriter, _ *http.Request) {
		rep := svc.LastReport()
		if rep == nil {
			http.Error(w, "no completed run yet", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(rep); err != nil {
			logger.Printf("report encode error: %v", err)
		}
	}).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		logger.Printf("HTTP server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("HTTP server error: %v", err)
		}
	}()

	return srv
}
