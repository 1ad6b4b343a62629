/*
Package workers sizes goroutine pools from GOMAXPROCS rather than
runtime.NumCPU, so a container with a 2 CPU limit on a 64 core node gets
2 thumbnail workers instead of 64.

	pool := workers.Resolve(cfg.Threads) // THREADS=0 means one per CPU
	limit := workers.ForIO(32)           // concurrent stat calls per directory

Thumbnail generation is CPU bound (ForCPU); the scanner's per-entry
metadata reads are I/O bound (ForIO).
*/
package workers
