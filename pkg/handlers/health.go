package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"go-pantheon/pkg/version"
)

// HealthResponse is the body of every health endpoint
type HealthResponse struct {
	Status  string            `json:"status"`
	Module  string            `json:"module,omitempty"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Checker reports the health of one dependency
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler reports a module as healthy
func HealthHandler(moduleName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, http.StatusOK, HealthResponse{Status: "healthy", Module: moduleName})
	}
}

// ServiceHealthHandler pings every named dependency. Any failure reports
// 503 with the failing check.
func ServiceHealthHandler(checks map[string]Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := HealthResponse{
			Status:  "healthy",
			Version: version.String(),
			Checks:  make(map[string]string, len(checks)),
		}
		status := http.StatusOK

		for name, checker := range checks {
			if err := checker.HealthCheck(r.Context()); err != nil {
				slog.WarnContext(r.Context(), "Health check failed", "check", name, "error", err)
				response.Checks[name] = err.Error()
				response.Status = "unhealthy"
				status = http.StatusServiceUnavailable
				continue
			}
			response.Checks[name] = "ok"
		}

		writeHealth(w, status, response)
	}
}

func writeHealth(w http.ResponseWriter, status int, response HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode health response", "error", err)
	}
}
