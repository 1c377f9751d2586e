package share

import (
	"github.com/gorilla/mux"

	"github.com/vedicvivaha/backend/internal/app"
)

// Registrar ties the share-link endpoints into the API router
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the share-link service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the share-link routes to the router
func (reg *Registrar) Register(r *mux.Router) {
	service := NewService(reg.appCtx)
	r.HandleFunc("/profile/share", service.Create).Methods("POST")
	r.HandleFunc("/profile/share/{token}", service.Resolve).Methods("GET")
	r.HandleFunc("/profile/share/{token}", service.Revoke).Methods("DELETE")
}
