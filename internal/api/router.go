package api

import (
	"net/http"
	"time"

	"eco-route-engine/internal/api/handlers"
	"eco-route-engine/internal/ports"
	"eco-route-engine/internal/services"

	"github.com/go-playground/validator/v10"
)

// NewRouter wires HTTP handlers with their dependencies and returns an
// http.Handler. This is the API composition root (handlers stay unaware of
// concrete adapters).
func NewRouter(engine *services.Engine, geocoder ports.Geocoder, requestTimeout time.Duration) http.Handler {
	mux := http.NewServeMux()

	optimizeHandler := &handlers.OptimizeHandler{
		Engine:   engine,
		Geocoder: geocoder,
		Validate: validator.New(),
		Timeout:  requestTimeout,
	}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/optimize", optimizeHandler.Optimize)

	return requestIDMiddleware(loggingMiddleware(mux))
}
