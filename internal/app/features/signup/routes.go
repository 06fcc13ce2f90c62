// internal/app/features/signup/routes.go
package signup

import (
	"github.com/dalemusser/fanzone/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

// Routes mounts POST / behind the per-IP limiter when one is configured.
func Routes(h *Handler, limiter *ratelimit.LoginLimiter) chi.Router {
	r := chi.NewRouter()
	if limiter != nil {
		r.Use(limiter.Middleware)
	}
	r.Post("/", h.HandleSignup)
	return r
}
