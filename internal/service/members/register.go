package members

import (
	"github.com/gorilla/mux"

	"github.com/vedicvivaha/backend/internal/app"
)

// Registrar ties the browse/unlock endpoints into the API router
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the member browse service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the browse/unlock routes to the router
func (reg *Registrar) Register(r *mux.Router) {
	service := NewService(reg.appCtx)
	r.HandleFunc("/member-profiles/recent", service.ListRecent).Methods("GET")
	r.HandleFunc("/member-profiles/{profileId}", service.GetDetail).Methods("GET")
	r.HandleFunc("/member-profiles/{profileId}/unlock", service.Unlock).Methods("POST")
}
