package handlers

import (
	"net/http"

	"eco-route-engine/internal/domain"
)

// Health provides a minimal liveness check endpoint.
func Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, domain.KindValidation, "method not allowed")
		return
	}

	res := map[string]string{"status": "healthy", "service": "eco-route-optimizer"}
	writeJSON(w, r, http.StatusOK, res)
}
