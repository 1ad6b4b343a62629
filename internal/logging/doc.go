// Package logging provides the levelled logging calls used across the
// gallery service.
//
// Messages are formatted printf-style and written through a zerolog
// console writer on stderr. The level is resolved once from the
// environment:
//   - DEBUG=1|true|yes|on forces debug output
//   - LOG_LEVEL=debug|info|warn|warning|error selects the threshold
//
// Anything else leaves the threshold at info.
package logging
