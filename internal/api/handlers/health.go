package handlers

import (
	"net/http"

	"github.com/cloo-solutions/ragserve/internal/api"
)

type HealthResponse struct {
	Status string `json:"status"`
}

// Health reports readiness. The router only exists once startup has finished,
// so reaching this handler means the service is ready.
func Health(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, HealthResponse{Status: "ok"})
}
