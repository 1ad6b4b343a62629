/*
Package filesystem provides filesystem operations that retry on NFS stale
file handle errors (ESTALE).

The scanner lists directories through ReadDirWithRetry and the EXIF reader
opens files through OpenWithRetry, so a media root on NFS survives server
side changes during a scan. Only ESTALE triggers a retry; every other error
is returned on the first attempt.

	entries, err := filesystem.ReadDirWithRetry(dir, filesystem.DefaultRetryConfig())

Backoff doubles from InitialBackoff up to MaxBackoff for MaxRetries attempts
(defaults: 3 attempts, 50ms to 500ms).

Metrics are reported through an Observer installed with SetObserver; the
metrics package provides the Prometheus implementation. Paths are labelled
with a volume name from the VolumeResolver installed at startup.
*/
package filesystem
