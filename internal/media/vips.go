package media

import (
	"fmt"
	"path/filepath"
	"sync"

	"gallery/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// vipsLogLevel maps the application log level onto the most verbose vips
// level that is still forwarded.
func vipsLogLevel(level logging.LogLevel) vips.LogLevel {
	switch level {
	case logging.LevelDebug:
		return vips.LogLevelInfo
	case logging.LevelWarn:
		return vips.LogLevelError
	case logging.LevelError:
		return vips.LogLevelCritical
	default:
		return vips.LogLevelWarning
	}
}

func vipsLogHandler(domain string, level vips.LogLevel, msg string) {
	switch level {
	case vips.LogLevelError, vips.LogLevelCritical:
		logging.Error("[%s] %s", domain, msg)
	case vips.LogLevelWarning:
		logging.Warn("[%s] %s", domain, msg)
	default:
		logging.Debug("[%s] %s", domain, msg)
	}
}

// InitVips initializes the libvips library.
// This should be called once at startup, before any Codec is used.
func InitVips(concurrency int) error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// Logging must be configured BEFORE Startup()
	vips.LoggingSettings(vipsLogHandler, vipsLogLevel(logging.GetLevel()))

	if concurrency < 1 {
		concurrency = 1
	}

	vips.Startup(&vips.Config{
		ConcurrencyLevel: concurrency,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
		ReportLeaks:      false,
		CacheTrace:       false,
		CollectStats:     false,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

// ShutdownVips cleans up libvips resources
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized and available
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// vipsThumbnail shrinks the image at path to fit size x size and encodes it
// as WebP. libvips applies the EXIF orientation itself and shrinks during
// decode where the format allows it.
func vipsThumbnail(path string, size, quality int) ([]byte, error) {
	importParams := vips.NewImportParams()
	importParams.AutoRotate.Set(true)

	ref, err := vips.LoadImageFromFile(path, importParams)
	if err != nil {
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	logging.Debug("Vips loaded %s: %dx%d, shrinking to %dx%d",
		filepath.Base(path), ref.Width(), ref.Height(), size, size)

	if err := ref.Thumbnail(size, size, vips.InterestingNone); err != nil {
		return nil, fmt.Errorf("vips resize failed: %w", err)
	}

	params := vips.NewWebpExportParams()
	params.Quality = quality
	params.StripMetadata = true

	data, _, err := ref.ExportWebp(params)
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}
	return data, nil
}
