package handlers

import (
	"net/http"

	"gallery/internal/indexer"
	"gallery/internal/logging"
)

type replyResponse struct {
	Reply string `json:"reply"`
}

func replyCode(r indexer.Reply) int {
	if r == indexer.ReplyOK {
		return http.StatusOK
	}
	return http.StatusConflict
}

// GetStatus returns the media root, orchestrator state and cycle statistics.
func (h *Handlers) GetStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSONStatus(w, http.StatusOK, h.scanner.Status())
}

// RunScanner starts an index cycle. A busy scanner answers 409 NotIdle.
func (h *Handlers) RunScanner(w http.ResponseWriter, _ *http.Request) {
	reply := h.scanner.Run()
	logging.Info("Scan requested via API: %s", reply)
	writeJSONStatus(w, replyCode(reply), replyResponse{Reply: reply.String()})
}

// StopScanner cancels the running cycle. An idle scanner answers 409
// AlreadyIdle.
func (h *Handlers) StopScanner(w http.ResponseWriter, _ *http.Request) {
	reply := h.scanner.Stop()
	logging.Info("Stop requested via API: %s", reply)
	writeJSONStatus(w, replyCode(reply), replyResponse{Reply: reply.String()})
}
