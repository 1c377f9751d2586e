package server

import "github.com/gorilla/mux"

// Registrar is a common interface for all API route registrars
type Registrar interface {
	Register(r *mux.Router)
}
