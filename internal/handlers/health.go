package handlers

import (
	"net/http"
	"runtime"

	"gallery/internal/indexer"
	"gallery/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	State   string `json:"state"`
	Error   string `json:"error,omitempty"`

	FilesDone   int64 `json:"filesDone"`
	FoldersDone int64 `json:"foldersDone"`

	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck reports readiness plus the orchestrator state. It answers 503
// until the first cycle has finished.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	status := h.scanner.Status()

	response := HealthResponse{
		Ready:        status.Ready,
		Version:      startup.Version,
		State:        status.State,
		Error:        status.Error,
		FilesDone:    status.Stats.FilesDone,
		FoldersDone:  status.Stats.FoldersDone,
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	code := http.StatusOK
	switch {
	case status.State == string(indexer.PhaseError):
		response.Status = statusDegraded
	case status.Ready:
		response.Status = statusHealthy
	default:
		response.Status = statusStarting
		code = http.StatusServiceUnavailable
	}

	writeJSONStatus(w, code, response)
}

// LivenessCheck always returns 200 while the process serves requests
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}

// ReadinessCheck returns 200 once the first index cycle has finished
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if h.scanner.IsReady() {
		writeJSONStatus(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
}

// GetVersion returns the build information. Unlike the probes it is not
// affected by indexer state.
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSONStatus(w, http.StatusOK, startup.GetBuildInfo())
}
