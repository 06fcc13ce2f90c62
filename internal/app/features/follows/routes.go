// internal/app/features/follows/routes.go
package follows

import "github.com/go-chi/chi/v5"

// Register adds the follow endpoints to r, which is mounted at /api/user
// and already requires a signed-in user.
func Register(r chi.Router, h *Handler) {
	r.Post("/follow-team", h.FollowTeam())
	r.Get("/followed-teams", h.FollowedTeams())

	r.Post("/follow-player", h.FollowPlayer())
	r.Get("/followed-players", h.FollowedPlayers())

	r.Post("/follow-sport", h.FollowSport())
	r.Get("/followed-sports", h.FollowedSports())

	r.Post("/follow-match", h.FollowMatch())
	r.Get("/followed-matches", h.FollowedMatches())

	r.Post("/match-reminder", h.MatchReminder())
	r.Get("/match-reminders", h.MatchReminders())
}
