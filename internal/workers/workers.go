package workers

import "runtime"

// Count scales the usable CPU count (GOMAXPROCS, which follows container
// limits) by multiplier and caps it at limit. The result is at least 1.
// A limit of 0 means no cap.
func Count(multiplier float64, limit int) int {
	n := max(int(float64(runtime.GOMAXPROCS(0))*multiplier), 1)
	if limit > 0 {
		n = min(n, limit)
	}
	return n
}

// ForCPU returns one worker per CPU, for thumbnail decoding and encoding.
func ForCPU(limit int) int {
	return Count(1, limit)
}

// ForIO returns two workers per CPU, for directory listing.
func ForIO(limit int) int {
	return Count(2, limit)
}

// Resolve turns a configured thread count into a pool size. Zero or a
// negative value means one worker per available CPU.
func Resolve(configured int) int {
	if configured > 0 {
		return configured
	}
	return ForCPU(0)
}
