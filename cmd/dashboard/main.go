package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"

	"github.com/jmanzanog/market-snapshot/internal/application"
	"github.com/jmanzanog/market-snapshot/internal/domain"
	"github.com/jmanzanog/market-snapshot/internal/infrastructure/config"
	"github.com/jmanzanog/market-snapshot/internal/infrastructure/httpx"
	"github.com/jmanzanog/market-snapshot/internal/infrastructure/marketdata"
	"github.com/jmanzanog/market-snapshot/internal/infrastructure/marketdata/finnhub"
	"github.com/jmanzanog/market-snapshot/internal/infrastructure/marketdata/twelvedata"
	"github.com/jmanzanog/market-snapshot/internal/infrastructure/marketdata/yahoo"
	"github.com/jmanzanog/market-snapshot/internal/infrastructure/marketdata/yfinance"
	"github.com/jmanzanog/market-snapshot/internal/infrastructure/persistence/memory"
	"github.com/jmanzanog/market-snapshot/internal/infrastructure/persistence/redis"
	"github.com/jmanzanog/market-snapshot/internal/infrastructure/persistence/sqldb"
	"github.com/jmanzanog/market-snapshot/internal/infrastructure/portal"
	httpHandler "github.com/jmanzanog/market-snapshot/internal/interfaces/http"
)

// setupLogger configures and returns a structured logger with source information
func setupLogger(level string) *slog.Logger {
	opts := &slog.HandlerOptions{
		AddSource: true,
		Level:     parseLevel(level),
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, opts))
	slog.SetDefault(logger)
	return logger
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// historyProvider is a market-data provider that also knows its own codes
// for the foreign indices.
type historyProvider interface {
	marketdata.HistoryProvider
	marketdata.IndexCatalog
}

// createHistoryProvider creates the history provider selected by configuration.
func createHistoryProvider(cfg *config.Config, listing *yfinance.Client, client *httpx.Client) historyProvider {
	switch cfg.MarketDataProvider {
	case config.ProviderYahoo:
		return yahoo.NewClient()
	case config.ProviderTwelveData:
		return twelvedata.NewClientWithHTTPClient(cfg.TwelveDataAPIKey, client)
	case config.ProviderFinnhub:
		return finnhub.NewClientWithHTTPClient(cfg.FinnhubAPIKey, client)
	default:
		return listing
	}
}

// instrumentHistory picks the history source for listed instruments. The
// listing service accepts its own codes; other providers serve listed
// instruments only when they can map those codes to their symbols.
func instrumentHistory(provider historyProvider, listing *yfinance.Client) marketdata.HistoryProvider {
	if _, ok := provider.(marketdata.InstrumentCoder); ok {
		return provider
	}
	return listing
}

// initializeListingStore opens the configured listing store. The returned
// closer releases its connection.
func initializeListingStore(ctx context.Context, cfg *config.Config) (domain.ListingRepository, func() error, error) {
	noop := func() error { return nil }

	switch cfg.ListingStore {
	case config.StorePostgres, config.StoreOracle:
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		db, err := sqldb.Open(ctx, cfg.ListingStore, cfg.DBDSN)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open %s listing store: %w", cfg.ListingStore, err)
		}
		return sqldb.NewListingRepository(db), db.Close, nil
	case config.StoreRedis:
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		repo := redis.NewListingRepository(client, slog.Default())
		if err := repo.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("failed to ping redis: %w", err)
		}
		return repo, client.Close, nil
	default:
		return memory.NewListingRepository(), noop, nil
	}
}

// buildSnapshotService wires the sources in display order: FX, domestic
// indices, foreign indices.
func buildSnapshotService(cfg *config.Config, client *httpx.Client, provider historyProvider) *application.SnapshotService {
	fxURL := cfg.FXURL
	if fxURL == "" {
		fxURL = portal.DefaultFXURL
	}
	indexURL := cfg.IndexURL
	if indexURL == "" {
		indexURL = portal.DefaultIndexURL
	}

	return application.NewSnapshotService(cfg.SourceTimeout,
		portal.NewFXSource(fxURL, client),
		portal.NewIndexSource(indexURL, client),
		application.NewForeignIndexSource(provider, provider.IndexSymbols(), cfg.IndexWindow),
	)
}

// buildServer creates and configures the HTTP server with all routes and handlers
func buildServer(cfg *config.Config, snapshots *application.SnapshotService, instruments *application.InstrumentService) *http.Server {
	router := gin.Default()
	handler := httpHandler.NewHandler(snapshots, instruments, application.NewSnapshotTicker(snapshots))
	httpHandler.SetupRoutes(router, handler)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return server
}

// App wraps the application components for easier testing
type App struct {
	Server       *http.Server
	CloseListing func() error
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down application...")

	if err := a.Server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	if err := a.CloseListing(); err != nil {
		slog.Warn("Failed to close listing store", "error", err)
	}

	return nil
}

// run contains the main application logic without os.Exit calls
// This makes it testeable
func run() error {
	if err := godotenv.Load(); err != nil {
		setupLogger("info")
		slog.Warn("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setupLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := httpx.New(cfg.HTTPTimeout, cfg.UserAgent)
	listing := yfinance.NewClientWithBaseURL(cfg.YFinanceBaseURL, client)
	provider := createHistoryProvider(cfg, listing, client)
	slog.Info("Using market data provider", "provider", cfg.MarketDataProvider)

	store, closeStore, err := initializeListingStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("listing store initialization failed: %w", err)
	}
	slog.Info("Using listing store", "store", cfg.ListingStore)

	instruments := application.NewInstrumentService(instrumentHistory(provider, listing), listing, store, application.InstrumentServiceConfig{
		Market:        cfg.ListingMarket,
		ListingTTL:    cfg.ListingTTL,
		HistoryWindow: cfg.HistoryWindow,
	})
	snapshots := buildSnapshotService(cfg, client, provider)

	app := &App{
		Server:       buildServer(cfg, snapshots, instruments),
		CloseListing: closeStore,
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "host", cfg.ServerHost, "port", cfg.ServerPort)
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	// Wait for termination signal or server error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		_ = closeStore()
		return fmt.Errorf("server error: %w", err)
	case <-quit:
		slog.Info("Received shutdown signal")
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := app.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	slog.Info("Server exited gracefully")
	return nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("Application error", "error", err)
		os.Exit(1)
	}
}
