package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os/exec"
	"path/filepath"
	"time"

	"gallery/internal/logging"
	"gallery/internal/mediatypes"
	"gallery/internal/metrics"

	_ "image/png"

	"github.com/disintegration/imaging"
)

const (
	// DefaultThumbnailSize is the bounding box edge of generated thumbnails.
	DefaultThumbnailSize = 512
	// DefaultThumbnailQuality is the lossy encoder quality (1 to 100).
	DefaultThumbnailQuality = 80

	// emptySourceSize is the edge of the placeholder produced for sources
	// that decode to zero pixels.
	emptySourceSize = 16

	ffmpegTimeout = 60 * time.Second
)

// Codec turns a media file into encoded thumbnail bytes.
type Codec interface {
	Thumbnail(path string, orientation Orientation) ([]byte, error)
}

// ThumbnailError reports a file that could not be turned into a thumbnail.
type ThumbnailError struct {
	Path string
	Err  error
}

func (e *ThumbnailError) Error() string {
	return fmt.Sprintf("thumbnail %s: %v", e.Path, e.Err)
}

func (e *ThumbnailError) Unwrap() error {
	return e.Err
}

// ThumbnailGenerator is the production Codec. Images go through libvips when
// it is initialized and through the pure-Go imaging path otherwise; videos
// are reduced to one representative frame by ffmpeg.
type ThumbnailGenerator struct {
	size    int
	quality int
	ffmpeg  string
	useVips bool
}

// NewThumbnailGenerator creates a generator producing thumbnails that fit in
// size x size pixels.
func NewThumbnailGenerator(size, quality int) *ThumbnailGenerator {
	if size <= 0 {
		size = DefaultThumbnailSize
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultThumbnailQuality
	}

	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		logging.Warn("ffmpeg not found, video thumbnails are disabled: %v", err)
		ffmpegPath = ""
	}

	g := &ThumbnailGenerator{
		size:    size,
		quality: quality,
		ffmpeg:  ffmpegPath,
		useVips: IsVipsAvailable(),
	}
	logging.Debug("ThumbnailGenerator: size=%d quality=%d vips=%v ffmpeg=%q", size, quality, g.useVips, g.ffmpeg)
	return g
}

// Thumbnail implements Codec.
func (g *ThumbnailGenerator) Thumbnail(path string, orientation Orientation) ([]byte, error) {
	kind := mediatypes.TypeOf(path)

	var data []byte
	var err error

	switch kind {
	case mediatypes.FileTypeImage:
		data, err = g.imageThumbnail(path, orientation)
	case mediatypes.FileTypeVideo:
		data, err = g.videoThumbnail(path)
	default:
		err = fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, &ThumbnailError{Path: path, Err: err}
	}
	return data, nil
}

func observe(kind mediatypes.FileType, codec string, start time.Time) {
	metrics.ThumbnailGenerationDuration.WithLabelValues(string(kind), codec).Observe(time.Since(start).Seconds())
}

func (g *ThumbnailGenerator) imageThumbnail(path string, orientation Orientation) ([]byte, error) {
	start := time.Now()

	if g.useVips {
		data, err := vipsThumbnail(path, g.size, g.quality)
		if err == nil {
			observe(mediatypes.FileTypeImage, "vips", start)
			return data, nil
		}
		logging.Debug("vips failed for %s: %v, falling back to imaging", path, err)
	}

	img, err := LoadImageConstrained(path, MaxImageDimension, MaxImagePixels)
	if err == nil {
		data, err := g.encode(orientation.Apply(img))
		if err != nil {
			return nil, err
		}
		observe(mediatypes.FileTypeImage, "imaging", start)
		return data, nil
	}
	logging.Debug("Standard decode failed for %s: %v, trying ffmpeg fallback", path, err)

	// ffmpeg covers containers Go cannot decode (HEIC); it applies the
	// rotation itself.
	img, ffErr := g.frame(path, "")
	if ffErr != nil {
		return nil, fmt.Errorf("all image decode methods failed: %w (ffmpeg: %v)", err, ffErr)
	}
	data, err := g.encode(img)
	if err != nil {
		return nil, err
	}
	observe(mediatypes.FileTypeImage, "ffmpeg", start)
	return data, nil
}

func (g *ThumbnailGenerator) videoThumbnail(path string) ([]byte, error) {
	start := time.Now()

	filter := fmt.Sprintf("thumbnail,scale=%d:%d:force_original_aspect_ratio=decrease", g.size, g.size)
	img, err := g.frame(path, filter)
	if err != nil {
		return nil, err
	}
	data, err := g.encode(img)
	if err != nil {
		return nil, err
	}
	observe(mediatypes.FileTypeVideo, "ffmpeg", start)
	return data, nil
}

// frame asks ffmpeg for a single PNG frame of path, optionally through a
// video filter chain.
func (g *ThumbnailGenerator) frame(path, filter string) (image.Image, error) {
	if g.ffmpeg == "" {
		return nil, fmt.Errorf("ffmpeg not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), ffmpegTimeout)
	defer cancel()

	args := []string{"-v", "error", "-i", path}
	if filter != "" {
		args = append(args, "-vf", filter)
	}
	args = append(args, "-frames:v", "1", "-f", "image2pipe", "-vcodec", "png", "-")

	cmd := exec.CommandContext(ctx, g.ffmpeg, args...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %v, stderr: %s", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output for %s", path)
	}

	logging.Debug("FFmpeg output size: %d bytes for %s", stdout.Len(), path)

	img, _, err := image.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ffmpeg output: %w", err)
	}
	return img, nil
}

// encode fits img into the thumbnail box and encodes it as JPEG.
func (g *ThumbnailGenerator) encode(img image.Image) ([]byte, error) {
	if img == nil || img.Bounds().Empty() {
		img = imaging.New(emptySourceSize, emptySourceSize, color.NRGBA{})
	}

	thumb := imaging.Fit(img, g.size, g.size, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: g.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
