package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"

	"github.com/tunepull/tunepull/pkg/api"
	"github.com/tunepull/tunepull/pkg/config"
	"github.com/tunepull/tunepull/pkg/download"
	"github.com/tunepull/tunepull/pkg/generate"
	"github.com/tunepull/tunepull/pkg/logging"
	"github.com/tunepull/tunepull/pkg/metrics"
	"github.com/tunepull/tunepull/pkg/shutdown"
	"github.com/tunepull/tunepull/pkg/store"
	"github.com/tunepull/tunepull/pkg/worker"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	listenAddr := flag.String("listen", "", "Listen address (overrides config)")
	downloadDir := flag.String("download-dir", "", "Download directory (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (enables the sqlite store)")
	enableMetrics := flag.Bool("metrics", true, "Enable Prometheus metrics endpoint")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *downloadDir != "" {
		cfg.DownloadDir = *downloadDir
	}
	if *dbPath != "" {
		cfg.StoreType = "sqlite"
		cfg.SQLitePath = *dbPath
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	logger, err := logging.NewFileLogger("tunepulld", logging.ParseLevel(cfg.LogLevel), false)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	logger.Info("Starting tunepull server", map[string]interface{}{
		"listen":       cfg.ListenAddr,
		"store":        cfg.StoreType,
		"download_dir": cfg.DownloadDir,
	})

	if err := os.MkdirAll(cfg.DownloadDir, 0755); err != nil {
		logger.Fatal("Failed to create download directory", map[string]interface{}{
			"error": err.Error(),
		})
	}

	dataStore, err := store.NewStore(store.Config{
		Type: cfg.StoreType,
		Path: cfg.JobsFile,
		DSN:  cfg.SQLitePath,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to open store", map[string]interface{}{
			"error": err.Error(),
		})
	}

	generator, err := generate.NewGenerator(cfg.OllamaURL, cfg.OllamaModel, logger)
	if err != nil {
		logger.Fatal("Invalid ollama URL", map[string]interface{}{
			"error": err.Error(),
		})
	}
	extractor := download.NewYTDLP(cfg.AudioFormat, cfg.AudioQuality)
	orchestrator := download.NewOrchestrator(extractor, cfg.DownloadDir, logger)

	runnerCtx, cancelRunner := context.WithCancel(context.Background())
	runner := worker.NewRunner(runnerCtx, dataStore, orchestrator, generator, cfg.ExportDir, logger)

	handler := api.NewHandler(dataStore, runner, generator, cfg.DownloadDir, cfg.DefaultNumTracks, logger)
	router := mux.NewRouter()
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	var metricsSrv *http.Server
	if *enableMetrics {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", metrics.NewExporter(dataStore))
		metricsSrv = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: metricsMux,
		}
		go func() {
			logger.Info("Metrics endpoint listening", map[string]interface{}{
				"addr": cfg.MetricsAddr,
			})
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server error", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}()
	}

	// Registered LIFO: the API stops first so no new jobs arrive, then the
	// runner is cancelled and drained, then storage and the logger close.
	sm := shutdown.New(30 * time.Second)
	sm.Register(func(ctx context.Context) error {
		return logger.Close()
	})
	sm.Register(shutdown.CloseResource(dataStore, "job store"))
	sm.Register(shutdown.DrainTasks(runner.Wait, "running jobs"))
	sm.Register(func(ctx context.Context) error {
		cancelRunner()
		return nil
	})
	if metricsSrv != nil {
		sm.Register(shutdown.StopHTTPServer(metricsSrv, "metrics"))
	}
	sm.Register(shutdown.StopHTTPServer(srv, "api"))

	go func() {
		logger.Info("API listening", map[string]interface{}{
			"addr": cfg.ListenAddr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	sm.Wait()
	sm.Shutdown()
}
