package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(withRunID)

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	if handler.metrics != nil {
		r.Handle("/metrics", handler.metrics.Handler()).Methods("GET")
	}

	// Analysis routes
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/analyze", handler.Analyze).Methods("GET")
	api.HandleFunc("/chart", handler.Chart).Methods("GET")

	return r
}
