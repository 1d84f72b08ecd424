// Package main is the entry point for the postpilot daemon.
// postd polls the record store and publishes posts as they come due.
// It owns the continuous execution loop, metrics, and graceful shutdown.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"postpilot/internal/config"
	"postpilot/internal/logger"
	"postpilot/internal/observability"
	"postpilot/internal/publish"
	"postpilot/internal/scheduler"
	"postpilot/internal/store/file"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: postpilot.yaml in current directory)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing
	shutdownTracer, err := observability.InitTracer(ctx, "postpilot-daemon", cfg.OTELEndpoint)
	if err != nil {
		log.Fatalf("Failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	// Metrics
	metricsHandler, shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to init metrics: %v", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			log.Printf("Failed to shutdown metrics: %v", err)
		}
	}()

	st, err := file.New(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}

	var publisher publish.Publisher
	if cfg.XBearerToken != "" {
		client, err := publish.NewXClient(publish.XClientConfig{
			BaseURL:           cfg.XBaseURL,
			BearerToken:       cfg.XBearerToken,
			RequestsPerMinute: cfg.XRequestsPerMinute,
		})
		if err != nil {
			log.Fatalf("Failed to create publisher: %v", err)
		}
		publisher = client
	} else {
		log.Println("No X bearer token configured; due posts will finish as no_publisher")
	}

	engine := scheduler.New(st, publisher, logger.New(), scheduler.Config{
		Slots:        cfg.Slots,
		PollInterval: cfg.PollInterval,
		SummaryLimit: cfg.SummaryLimit,
	})

	// Serve Prometheus metrics on a dedicated port.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metricsHandler)
		addr := fmt.Sprintf(":%d", cfg.MetricsPort)
		log.Printf("Daemon metrics listening on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("Metrics server error: %v", err)
		}
	}()

	done := make(chan error, 1)
	go func() {
		done <- engine.RunContinuous(ctx, cfg.DryRun)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Println("Shutting down daemon...")
		cancel()
		// The in-flight pass finishes and persists before the loop exits.
		if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Scheduler loop error: %v", err)
			os.Exit(1)
		}
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf("Scheduler loop error: %v", err)
		}
	}
}
