// Package media turns media files into thumbnails and capture metadata.
//
// The ThumbnailGenerator implements Codec:
//   - Images: libvips when initialized (auto-rotate, WebP), otherwise the
//     imaging library with the EXIF orientation applied explicitly (JPEG)
//   - Videos: a representative frame extracted by FFmpeg
//
// ExifReader implements CaptureReader using goexif.
package media
