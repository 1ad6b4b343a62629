package startup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"gallery/internal/logging"
	"gallery/internal/memory"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	MediaDir     string
	DatabasePath string
	ThumbDBPath  string
	Port         string
	MetricsPort  string

	MetricsEnabled  bool
	LogStaticFiles  bool
	LogHealthChecks bool

	Threads           int
	PageSize          int
	ThumbSize         int
	ThumbQuality      int
	ThumbCacheEntries int

	ScanOnStart      bool
	ScanInterval     time.Duration
	WriterRetryDelay time.Duration
	IgnoreFile       string
}

var defaults = map[string]interface{}{
	"media_dir":           "/media",
	"database_path":       "/database/gallery.db",
	"thumb_db_path":       "/cache/thumbs.db",
	"port":                "8080",
	"metrics_port":        "9090",
	"metrics_enabled":     true,
	"log_static_files":    false,
	"log_health_checks":   true,
	"threads":             0,
	"page_size":           4096,
	"thumb_size":          512,
	"thumb_quality":       80,
	"thumb_cache_entries": 1024,
	"scan_on_start":       true,
	"scan_interval":       "0",
	"writer_retry_delay":  "10s",
	"ignore_file":         ".galleryignore",
}

// newViper returns a viper instance reading defaults, an optional
// gallery.yaml and the environment, in increasing precedence.
func newViper() (*viper.Viper, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("gallery")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/gallery")
	}

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		logging.Info("  Config file:         %s", v.ConfigFileUsed())
	}
	return v, nil
}

// loadDotEnv loads .env from the working directory, if present. Variables
// already set in the environment win.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logging.Warn("  Failed to load .env: %v", err)
		}
		return
	}
	logging.Info("  Loaded environment from .env")
}

// LoadConfig loads and validates configuration from environment variables,
// an optional .env file and an optional gallery.yaml.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	loadDotEnv()
	v, err := newViper()
	if err != nil {
		return nil, err
	}

	config := &Config{
		MediaDir:          v.GetString("media_dir"),
		DatabasePath:      v.GetString("database_path"),
		ThumbDBPath:       v.GetString("thumb_db_path"),
		Port:              v.GetString("port"),
		MetricsPort:       v.GetString("metrics_port"),
		MetricsEnabled:    getBool(v, "metrics_enabled"),
		LogStaticFiles:    getBool(v, "log_static_files"),
		LogHealthChecks:   getBool(v, "log_health_checks"),
		Threads:           getInt(v, "threads", 0),
		PageSize:          getInt(v, "page_size", 1),
		ThumbSize:         getInt(v, "thumb_size", 1),
		ThumbQuality:      getInt(v, "thumb_quality", 1),
		ThumbCacheEntries: getInt(v, "thumb_cache_entries", 1),
		ScanOnStart:       getBool(v, "scan_on_start"),
		ScanInterval:      getDuration(v, "scan_interval"),
		WriterRetryDelay:  getDuration(v, "writer_retry_delay"),
		IgnoreFile:        v.GetString("ignore_file"),
	}
	if config.ThumbQuality > 100 {
		logging.Warn("  THUMB_QUALITY %d above 100, using 100", config.ThumbQuality)
		config.ThumbQuality = 100
	}
	if config.WriterRetryDelay <= 0 {
		config.WriterRetryDelay = 10 * time.Second
	}

	logging.Info("  MEDIA_DIR:           %s", config.MediaDir)
	logging.Info("  DATABASE_PATH:       %s", config.DatabasePath)
	logging.Info("  THUMB_DB_PATH:       %s", config.ThumbDBPath)
	logging.Info("  PORT:                %s", config.Port)
	logging.Info("  METRICS_PORT:        %s", config.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", config.MetricsEnabled)
	logging.Info("  THREADS:             %d", config.Threads)
	logging.Info("  PAGE_SIZE:           %d", config.PageSize)
	logging.Info("  THUMB_SIZE:          %d", config.ThumbSize)
	logging.Info("  THUMB_QUALITY:       %d", config.ThumbQuality)
	logging.Info("  THUMB_CACHE_ENTRIES: %d", config.ThumbCacheEntries)
	logging.Info("  SCAN_ON_START:       %v", config.ScanOnStart)
	logging.Info("  SCAN_INTERVAL:       %v", config.ScanInterval)
	logging.Info("  WRITER_RETRY_DELAY:  %v", config.WriterRetryDelay)
	logging.Info("  IGNORE_FILE:         %s", config.IgnoreFile)
	logging.Info("  LOG_STATIC_FILES:    %v", config.LogStaticFiles)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", config.LogHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	if config.MediaDir, err = filepath.Abs(config.MediaDir); err != nil {
		return nil, fmt.Errorf("failed to resolve media directory path: %w", err)
	}
	logging.Info("  Media directory (absolute): %s", config.MediaDir)

	if config.DatabasePath, err = filepath.Abs(config.DatabasePath); err != nil {
		return nil, fmt.Errorf("failed to resolve database path: %w", err)
	}
	if config.ThumbDBPath, err = filepath.Abs(config.ThumbDBPath); err != nil {
		return nil, fmt.Errorf("failed to resolve thumbnail store path: %w", err)
	}

	// The media directory is mounted, not created; a missing one surfaces
	// as a scan error.
	if err := checkDirectory(config.MediaDir, "media"); err != nil {
		logging.Warn("  Media directory issue: %v", err)
	}

	for _, store := range []struct{ path, name string }{
		{config.DatabasePath, "database"},
		{config.ThumbDBPath, "thumbnail store"},
	} {
		dir := filepath.Dir(store.path)
		if err := ensureDirectory(dir, store.name); err != nil {
			return nil, fmt.Errorf("%s directory error: %w", store.name, err)
		}
		if err := testWriteAccess(dir); err != nil {
			return nil, fmt.Errorf("%s directory is not writable: %w", store.name, err)
		}
		logging.Info("  [OK] %s directory is writable: %s", store.name, dir)
	}

	return config, nil
}

func getBool(v *viper.Viper, key string) bool {
	raw := v.GetString(key)
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "on":
		return true
	case "0", "f", "false", "no", "off":
		return false
	}
	def, _ := defaults[key].(bool)
	logging.Warn("Invalid boolean value for %s: %q, using default: %v", strings.ToUpper(key), raw, def)
	return def
}

func getInt(v *viper.Viper, key string, min int) int {
	n := v.GetInt(key)
	if n < min {
		def, _ := defaults[key].(int)
		logging.Warn("Invalid value for %s: %q, using default: %d", strings.ToUpper(key), v.GetString(key), def)
		return def
	}
	return n
}

func getDuration(v *viper.Viper, key string) time.Duration {
	raw := v.GetString(key)
	if raw == "0" || raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		logging.Warn("  Invalid %s %q, disabling", strings.ToUpper(key), raw)
		return 0
	}
	return d
}

// LogMemoryConfig logs the outcome of memory.ConfigureFromEnv
func LogMemoryConfig(result memory.ConfigResult) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("MEMORY CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	if !result.Configured {
		logging.Info("  GOMEMLIMIT: not configured (set MEMORY_LIMIT or GOMEMLIMIT)")
		return
	}
	logging.Info("  Source:      %s", result.Source)
	logging.Info("  GOMEMLIMIT:  %s", humanize.IBytes(uint64(result.GoMemLimit)))
	if result.Source == "MEMORY_LIMIT" {
		logging.Info("  Container:   %s (ratio %.2f)", humanize.IBytes(uint64(result.ContainerLimit)), result.Ratio)
	}
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogThumbStoreInit logs thumbnail store initialization
func LogThumbStoreInit(path string, keys int, bytes int64) {
	logging.Info("  [OK] Thumbnail store ready: %s (%s thumbnails, %s)", path, humanize.Comma(int64(keys)), humanize.IBytes(uint64(bytes)))
}

// LogCodecInit logs which thumbnail codecs are available
func LogCodecInit(vipsAvailable bool, size, quality int) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("CODEC INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Thumbnail box:   %dx%d, quality %d", size, size, quality)

	if vipsAvailable {
		logging.Info("  [OK] libvips is available (WebP thumbnails)")
	} else {
		logging.Warn("  libvips unavailable, using the pure-Go codec (JPEG thumbnails)")
	}

	if err := checkFFmpeg(); err != nil {
		logging.Warn("  FFmpeg check failed: %v", err)
		logging.Warn("  Video thumbnails will not be generated")
	} else {
		logging.Info("  [OK] FFmpeg is available")
	}
}

// LogIndexerInit logs indexer initialization
func LogIndexerInit(threads int, scanOnStart bool, interval time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("INDEXER INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Thumbnail workers: %d", threads)
	logging.Info("  Scan on start:     %v", scanOnStart)
	if interval > 0 {
		logging.Info("  Scan interval:     %v", interval)
	} else {
		logging.Info("  Scan interval:     disabled (use POST /api/scanner/run)")
	}
}

// LogIndexerStarted logs successful indexer start
func LogIndexerStarted() {
	logging.Info("  [OK] Indexer started")
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logStaticFiles, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}

			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logStaticFiles {
		logging.Info("    Raw file logging: ON")
	} else {
		logging.Info("    Raw file logging: OFF (set LOG_STATIC_FILES=true to enable)")
	}
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    API:           http://0.0.0.0:%s/api/status", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	banner := `
------------------------------------------------------------
              ____       _ _
             / ___| __ _| | | ___ _ __ _   _
            | |  _ / _' | | |/ _ \ '__| | | |
            | |_| | (_| | | |  __/ |  | |_| |
             \____|\__,_|_|_|\___|_|   \__, |
                                       |___/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func checkDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	if logging.IsDebugEnabled() {
		if entries, err := os.ReadDir(path); err == nil {
			logging.Debug("    Contents: %d entries (top level)", len(entries))
		}
	}
	return nil
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func checkFFmpeg() error {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return fmt.Errorf("ffmpeg not found in PATH")
	}
	logging.Debug("  FFmpeg path: %s", path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return fmt.Errorf("failed to get ffmpeg version: %w", err)
	}

	if line, _, _ := strings.Cut(string(output), "\n"); line != "" {
		logging.Debug("  FFmpeg version: %s", strings.TrimSpace(line))
	}
	return nil
}
