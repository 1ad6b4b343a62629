package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gallery/internal/database"
	"gallery/internal/filesystem"
	"gallery/internal/handlers"
	"gallery/internal/indexer"
	"gallery/internal/logging"
	"gallery/internal/media"
	"gallery/internal/memory"
	"gallery/internal/metrics"
	"gallery/internal/middleware"
	"gallery/internal/startup"
	"gallery/internal/thumbstore"
	"gallery/internal/workers"
)

const (
	shutdownTimeout   = 30 * time.Second
	collectorInterval = time.Minute
)

func main() {
	startTime := time.Now()

	// Must run before significant allocations
	memResult := memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}
	startup.LogMemoryConfig(memResult)

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"media": config.MediaDir,
	}))
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)

	threads := workers.Resolve(config.Threads)

	if err := media.InitVips(threads); err != nil {
		logging.Warn("libvips initialization failed: %v", err)
	}
	startup.LogCodecInit(media.IsVipsAvailable(), config.ThumbSize, config.ThumbQuality)

	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart))

	thumbs, err := thumbstore.Open(config.ThumbDBPath, config.ThumbCacheEntries)
	if err != nil {
		startup.LogFatal("Failed to open thumbnail store: %v", err)
	}
	if st, err := thumbs.Stats(); err == nil {
		startup.LogThumbStoreInit(config.ThumbDBPath, st.Keys, st.Bytes)
	}

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()

	idx, err := indexer.New(indexer.Config{
		Root:       config.MediaDir,
		Threads:    threads,
		RetryDelay: config.WriterRetryDelay,
		IgnoreFile: config.IgnoreFile,
	}, indexer.Deps{
		DB:      db,
		Thumbs:  thumbs,
		Codec:   media.NewThumbnailGenerator(config.ThumbSize, config.ThumbQuality),
		Capture: media.NewExifReader(),
		Memory:  monitor,
	})
	if err != nil {
		startup.LogFatal("Failed to create indexer: %v", err)
	}
	startup.LogIndexerInit(threads, config.ScanOnStart, config.ScanInterval)

	stats := &libraryStats{db: db, thumbs: thumbs}
	collector := metrics.NewCollector(stats, collectorInterval)
	collector.Start()
	idx.SetOnIndexComplete(collector.Collect)

	scanCtx, cancelScans := context.WithCancel(context.Background())
	if config.ScanOnStart {
		if reply := idx.Run(); reply != indexer.ReplyOK {
			logging.Warn("Initial scan not started: %s", reply)
		}
	}
	if config.ScanInterval > 0 {
		go idx.RunEvery(scanCtx, config.ScanInterval)
	}
	startup.LogIndexerStarted()

	h := handlers.New(db, idx, thumbs, config)
	router := setupRouter(h)
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           wrapHandler(router, config),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = newMetricsServer(config.MetricsPort)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan

		handleShutdown(sig.String(), shutdownParts{
			cancelScans: cancelScans,
			indexer:     idx,
			collector:   collector,
			monitor:     monitor,
			server:      srv,
			metrics:     metricsSrv,
			thumbs:      thumbs,
			db:          db,
		})
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
	<-done
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", h.GetStatus).Methods("GET")
	api.HandleFunc("/scanner/run", h.RunScanner).Methods("POST")
	api.HandleFunc("/scanner/stop", h.StopScanner).Methods("POST")
	api.HandleFunc("/folder", h.GetFolder).Methods("GET")
	api.HandleFunc("/folderRecursive", h.GetFolderRecursive).Methods("GET")
	api.HandleFunc("/thumb", h.GetThumb).Methods("GET", "HEAD")
	api.HandleFunc("/raw", h.GetRaw).Methods("GET", "HEAD")

	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	return r
}

// wrapHandler applies the middleware that must see every request, matched
// or not.
func wrapHandler(router http.Handler, config *startup.Config) http.Handler {
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks

	handler := middleware.Compression(middleware.DefaultCompressionConfig())(router)
	handler = middleware.Logger(loggingConfig)(handler)
	return middleware.RequestID(handler)
}

func newMetricsServer(port string) *http.Server {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              ":" + port,
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}
}

// libraryStats feeds the metrics collector from both stores.
type libraryStats struct {
	db     *database.Database
	thumbs *thumbstore.Store
}

func (s *libraryStats) GetStats() metrics.Stats {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var st metrics.Stats
	if c, err := s.db.Counts(ctx); err != nil {
		logging.Warn("Failed to count library rows: %v", err)
	} else {
		st.TotalFolders = int(c.Folders)
		st.TotalImages = int(c.Images)
	}
	if ts, err := s.thumbs.Stats(); err != nil {
		logging.Warn("Failed to read thumbnail store stats: %v", err)
	} else {
		st.ThumbnailKeys = ts.Keys
		st.ThumbStoreBytes = ts.Bytes
	}
	s.db.UpdateDBMetrics()
	return st
}

type shutdownParts struct {
	cancelScans context.CancelFunc
	indexer     *indexer.Indexer
	collector   *metrics.Collector
	monitor     *memory.Monitor
	server      *http.Server
	metrics     *http.Server
	thumbs      *thumbstore.Store
	db          *database.Database
}

func handleShutdown(sig string, p shutdownParts) {
	startup.LogShutdownInitiated(sig)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := p.server.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Stopping indexer")
	p.cancelScans()
	p.indexer.Stop()
	startup.LogShutdownStepComplete("Indexer stopped")

	p.collector.Stop()
	p.monitor.Stop()

	if p.metrics != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := p.metrics.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Closing stores")
	if err := p.thumbs.Close(); err != nil {
		logging.Warn("Thumbnail store close error: %v", err)
	}
	if err := p.db.Close(); err != nil {
		logging.Warn("Database close error: %v", err)
	}
	startup.LogShutdownStepComplete("Stores closed")

	media.ShutdownVips()
	startup.LogShutdownComplete()
}
