package main

import (
	"autodash/internal/api"
	"autodash/internal/config"
	"autodash/internal/engine"
	"autodash/internal/logger"
	"autodash/internal/viewstate"
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file (empty for defaults)")

func main() {
	flag.Parse()

	// 1. Config + logging
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Initialize Echo (starts instantly)
	e := echo.New()
	e.HideBanner = true
	e.Logger = logger.Default()
	e.JSONSerializer = api.JSONSerializer{}
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	if cfg.Server.CORS {
		e.Use(middleware.CORS())
	}
	if cfg.Server.RateLimit > 0 {
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.Server.RateLimit))))
	}

	// 3. Handler with no data: /api answers 503 until the load finishes
	h := api.NewHandler(nil)
	h.RegisterRoutes(e)

	// 4. Load the dataset in the background
	go func() {
		t0 := time.Now()
		store, err := engine.Load(ctx, cfg.Dataset.Source, cfg.Dataset.Timeout)
		if err != nil {
			logger.Fatal("Failed to load dataset: %v", err)
		}

		data := store.All()
		years := data.DistinctYears()
		if len(years) == 0 {
			logger.Fatal("Dataset has no years")
		}

		reports := engine.NewReportCache(data, cfg.Report.Cache)
		sessions := viewstate.NewRegistry(years, reports, cfg.Session.TTL, api.LogPublisher)
		go sessions.Run(ctx, cfg.Session.SweepInterval)

		h.SetData(&api.Backend{Reports: reports, Sessions: sessions, Years: years})
		logger.Info("Dataset ready in %v: %d rows, years %d-%d", time.Since(t0), data.Len(), years[0], years[len(years)-1])
	}()

	// 5. Serve until a signal arrives
	go func() {
		logger.Info("Server listening on %s (data loading in background...)", cfg.Server.Address)
		if err := e.Start(cfg.Server.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, cleaning up...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown failed: %v", err)
	}
	logger.Info("Service stopped")
}
