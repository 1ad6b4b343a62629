// Package memory keeps the indexer inside its container memory budget.
//
// [ConfigureFromEnv] sets GOMEMLIMIT from the container limit, which Go does
// not detect on its own. Call it first thing in main:
//
//   - GOMEMLIMIT: standard Go variable, takes precedence when set.
//   - MEMORY_LIMIT: container limit in bytes, typically from the Kubernetes
//     Downward API.
//   - MEMORY_RATIO: share of MEMORY_LIMIT given to the Go heap (default 0.85).
//     Lower it when libvips or ffmpeg need more room outside the heap.
//
// Only the Go heap counts against GOMEMLIMIT. libvips buffers and ffmpeg
// child processes do not, which is what the remaining share is for.
//
// # Backpressure
//
// A [Monitor] samples heap usage and pauses thumbnail workers once usage
// reaches the critical mark, resuming them when it drops below the high
// water mark:
//
//	monitor := memory.NewMonitor(memory.DefaultConfig())
//	monitor.Start()
//	defer monitor.Stop()
//
//	// in a worker:
//	if !monitor.WaitIfPaused(stop) {
//	    return
//	}
//
// Kubernetes snippet for MEMORY_LIMIT:
//
//	env:
//	- name: MEMORY_LIMIT
//	  valueFrom:
//	    resourceFieldRef:
//	      resource: limits.memory
package memory
