// internal/app/features/userinfo/routes.go
package userinfo

import (
	"github.com/dalemusser/fanzone/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes serves the account endpoints mounted at /api/user. Every route
// requires a signed-in user; other features may add routes to the returned
// router and inherit that guard.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeUser)
	r.Patch("/profile", h.HandleUpdateProfile)
	r.Get("/preferences", h.ServePreferences)
	r.Get("/activity", h.ServeActivity)
	r.Post("/deactivate", h.HandleDeactivate)
	return r
}
