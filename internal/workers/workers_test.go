package workers

import (
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	availableCPU := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		minExpect  int
		maxExpect  int
	}{
		{name: "CPU-bound task", multiplier: 1.0, limit: 0, minExpect: 1, maxExpect: availableCPU},
		{name: "I/O-bound task", multiplier: 2.0, limit: 0, minExpect: 1, maxExpect: availableCPU * 2},
		{name: "With limit lower than calculated", multiplier: 2.0, limit: 2, minExpect: 1, maxExpect: 2},
		{name: "Very low multiplier", multiplier: 0.01, limit: 0, minExpect: 1, maxExpect: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Count(tt.multiplier, tt.limit)

			if got < tt.minExpect {
				t.Errorf("Count(%v, %d) = %d, expected >= %d", tt.multiplier, tt.limit, got, tt.minExpect)
			}
			if got > tt.maxExpect {
				t.Errorf("Count(%v, %d) = %d, expected <= %d", tt.multiplier, tt.limit, got, tt.maxExpect)
			}
		})
	}
}

func TestForCPUAndForIO(t *testing.T) {
	if got := ForCPU(1); got != 1 {
		t.Errorf("ForCPU(1) = %d, want 1", got)
	}
	if got := ForCPU(0); got != runtime.GOMAXPROCS(0) {
		t.Errorf("ForCPU(0) = %d, want %d", got, runtime.GOMAXPROCS(0))
	}
	if got := ForIO(0); got != 2*runtime.GOMAXPROCS(0) {
		t.Errorf("ForIO(0) = %d, want %d", got, 2*runtime.GOMAXPROCS(0))
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		configured int
		want       int
	}{
		{name: "explicit count", configured: 3, want: 3},
		{name: "zero means per CPU", configured: 0, want: runtime.GOMAXPROCS(0)},
		{name: "negative means per CPU", configured: -2, want: runtime.GOMAXPROCS(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.configured); got != tt.want {
				t.Errorf("Resolve(%d) = %d, want %d", tt.configured, got, tt.want)
			}
		})
	}
}
