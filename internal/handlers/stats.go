package handlers

import "net/http"

// Stats serves the current pipeline counters.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	if h.stats == nil {
		http.Error(w, "Stats not available", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, h.stats.GetSnapshot())
}
