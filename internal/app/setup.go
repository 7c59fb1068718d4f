// Package app contains the application setup for the catalog service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kchlu/stocktake/internal/config"
	"github.com/kchlu/stocktake/internal/export"
	"github.com/kchlu/stocktake/internal/ingest"
	"github.com/kchlu/stocktake/internal/normalize"
	"github.com/kchlu/stocktake/internal/search"
	"github.com/kchlu/stocktake/internal/service"
	"github.com/kchlu/stocktake/internal/store"
	"github.com/kchlu/stocktake/internal/transport/rest"
	"github.com/kchlu/stocktake/pkg/bootstrap"
	"github.com/kchlu/stocktake/pkg/server"
)

type Dependencies struct {
	Service service.InventoryService
	Logger  *slog.Logger
}

// SetupDependencies builds the store for the configured backend and
// wires the ingestion pipeline, exporter, and service around it. The
// returned cleanup releases backend resources and is safe to call once.
func SetupDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	productStore, cleanup, err := newStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	normalizer := normalize.New(cfg.Normalize.Conversion, logger)

	var ocr ingest.OCRClient
	if cfg.Ingest.OCR.Enabled {
		ocr = ingest.NewTesseractClient(cfg.Ingest.OCR.Languages...)
	}
	pipeline := ingest.NewPipeline(productStore, normalizer, cfg.Normalize.StoreNormalized, logger)
	for kind, extractor := range ingest.DefaultExtractors(ocr, cfg.Ingest.OCR.MaxImageDimension) {
		pipeline.Register(kind, extractor)
	}

	exporter := export.NewExporter(normalizer)

	fuzzyOpts := search.FuzzyOptions{EmptyQuery: search.EmptyQueryNone}
	if cfg.Search.FuzzyEmptyQuery == "all" {
		fuzzyOpts.EmptyQuery = search.EmptyQueryAll
	}

	deps := &Dependencies{
		Service: service.NewService(productStore, pipeline, exporter, fuzzyOpts),
		Logger:  logger,
	}
	return deps, cleanup, nil
}

// newStore constructs the configured persistence backend.
func newStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.ProductStore, func(), error) {
	noop := func() {}
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return store.NewMemoryStore(), noop, nil

	case config.BackendFile:
		fs, err := store.NewFileStore(cfg.Store.File.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open file store: %w", err)
		}
		return fs, noop, nil

	case config.BackendPostgres:
		if err := store.RunMigrations(cfg.Store.Database.URL); err != nil {
			return nil, nil, err
		}
		dbPool, err := bootstrap.NewDbPool(ctx, cfg.Store.Database.URL, cfg.Store.Database.Timeout)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Successfully connected to the database")
		return store.NewPgStore(dbPool), dbPool.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend: %q", cfg.Store.Backend)
}

// SetupHttpHandler initializes the router and routes for the catalog
// service. Also used by handler tests to build the full middleware chain.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the catalog service.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	handler := rest.NewHandler(deps.Service, deps.Logger)
	handler.RegisterRoutes(mux)
}

// SetupHttpServer creates and configures the HTTP server for the catalog service.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}
	return server.NewHTTPServer(httpCfg, mux)
}
