package handler

import "net/http"

// Health handles GET /api/health for deploy probes.
func Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
