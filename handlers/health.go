// handlers/health.go
package handlers

import (
	"net/http"
	"time"
)

// HealthCheck is a simple health check endpoint
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Root describes the running service
func (h *Handlers) Root(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"service":     h.config.CompanyName,
		"environment": h.config.Environment,
		"time":        time.Now().UTC().Format(time.RFC3339),
	})
}
