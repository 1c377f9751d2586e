package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/vedicvivaha/backend/internal/config"
)

// NewRouter builds the API router with all provided services mounted under
// /api, plus the health endpoint.
func NewRouter(registrars ...Registrar) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	for _, reg := range registrars {
		reg.Register(api)
	}
	return r
}

// StartHTTPServer boots the HTTP server with CORS and request logging around
// the provided routes.
func StartHTTPServer(cfg *config.Config, registrars ...Registrar) error {
	router := NewRouter(registrars...)

	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.App.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(RequestLogger(router))

	addr := fmt.Sprintf("%s:%s", cfg.HTTP.Host, cfg.HTTP.Port)
	return http.ListenAndServe(addr, handler)
}
