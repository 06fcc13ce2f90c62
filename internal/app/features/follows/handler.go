// internal/app/features/follows/handler.go
package follows

import (
	"net/http"
	"strings"
	"time"

	uierrors "github.com/dalemusser/fanzone/internal/app/features/errors"
	"github.com/dalemusser/fanzone/internal/app/system/accounts"
	"github.com/dalemusser/fanzone/internal/app/system/authutil"
	"github.com/dalemusser/fanzone/internal/app/system/htmlsanitize"
	"github.com/dalemusser/fanzone/internal/app/system/normalize"
	"github.com/dalemusser/fanzone/internal/app/system/timeouts"
	"github.com/dalemusser/fanzone/internal/domain/models"
	"go.uber.org/zap"
)

// Handler serves the follow and reminder endpoints under /api/user.
type Handler struct {
	Accounts *accounts.Service
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(svc *accounts.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Accounts: svc, ErrLog: errLog, Log: logger}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Request bodies                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

type teamRequest struct {
	TeamID   string `json:"teamId"`
	TeamName string `json:"teamName"`
	League   string `json:"league"`
	Logo     string `json:"logo"`
	Action   string `json:"action"`
}

type playerRequest struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	TeamName   string `json:"teamName"`
	Position   string `json:"position"`
	Action     string `json:"action"`
}

type sportRequest struct {
	SportID   string `json:"sportId"`
	SportName string `json:"sportName"`
	Icon      string `json:"icon"`
	Action    string `json:"action"`
}

type matchRequest struct {
	MatchID  string     `json:"matchId"`
	HomeTeam string     `json:"homeTeam"`
	AwayTeam string     `json:"awayTeam"`
	SportID  string     `json:"sportId"`
	StartsAt *time.Time `json:"startsAt"`
	Action   string     `json:"action"`
}

type reminderRequest struct {
	MatchID  string     `json:"matchId"`
	HomeTeam string     `json:"homeTeam"`
	AwayTeam string     `json:"awayTeam"`
	StartsAt *time.Time `json:"startsAt"`
	Action   string     `json:"action"`
}

func text(s string) string { return htmlsanitize.Text(s) }

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func (in teamRequest) entry() (models.FollowedTeam, string) {
	return models.FollowedTeam{
		TeamID:   normalize.Key(in.TeamID),
		TeamName: text(in.TeamName),
		League:   text(in.League),
		Logo:     strings.TrimSpace(text(in.Logo)),
	}, in.Action
}

func (in playerRequest) entry() (models.FollowedPlayer, string) {
	return models.FollowedPlayer{
		PlayerID:   normalize.Key(in.PlayerID),
		PlayerName: text(in.PlayerName),
		TeamName:   text(in.TeamName),
		Position:   text(in.Position),
	}, in.Action
}

func (in sportRequest) entry() (models.FollowedSport, string) {
	return models.FollowedSport{
		SportID:   normalize.Key(in.SportID),
		SportName: text(in.SportName),
		Icon:      text(in.Icon),
	}, in.Action
}

func (in matchRequest) entry() (models.FollowedMatch, string) {
	return models.FollowedMatch{
		MatchID:  normalize.Key(in.MatchID),
		HomeTeam: text(in.HomeTeam),
		AwayTeam: text(in.AwayTeam),
		SportID:  normalize.Key(in.SportID),
		StartsAt: utc(in.StartsAt),
	}, in.Action
}

func (in reminderRequest) entry() (models.MatchReminder, string) {
	return models.MatchReminder{
		MatchID:  normalize.Key(in.MatchID),
		HomeTeam: text(in.HomeTeam),
		AwayTeam: text(in.AwayTeam),
		StartsAt: utc(in.StartsAt),
	}, in.Action
}

// followRequest is a decoded body that yields one collection entry and the
// requested action.
type followRequest[E models.FollowEntry] interface {
	entry() (E, string)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Generic handlers                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// change builds the POST handler for one follow collection. The response
// carries the resulting collection under key.
func change[E models.FollowEntry, R followRequest[E]](h *Handler, kind models.FollowKind[E], key string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := authutil.CurrentUserID(r)
		if !ok {
			uierrors.Fail(w, http.StatusUnauthorized, "not signed in")
			return
		}

		var in R
		if err := uierrors.DecodeJSON(w, r, &in); err != nil {
			h.ErrLog.LogBadRequest(w, r, "follow "+kind.Name+": bad request body", err, "invalid JSON body")
			return
		}
		entry, raw := in.entry()
		action, ok := models.ParseFollowAction(raw)
		if !ok {
			// FollowEntity rejects anything but follow/unfollow.
			action = models.FollowAction(raw)
		}

		ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "follow "+kind.Name)
		defer cancel()
		entries, err := accounts.FollowEntity(ctx, h.Accounts, id, kind, entry, action)
		if err != nil {
			h.ErrLog.Write(w, r, "follow "+kind.Name, err)
			return
		}

		uierrors.JSON(w, http.StatusOK, map[string]any{"success": true, key: entries})
	}
}

// list builds the GET handler for one follow collection.
func list[E models.FollowEntry](h *Handler, kind models.FollowKind[E], key string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := authutil.CurrentUserID(r)
		if !ok {
			uierrors.Fail(w, http.StatusUnauthorized, "not signed in")
			return
		}

		ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list "+kind.Field)
		defer cancel()
		entries, err := accounts.Follows(ctx, h.Accounts, id, kind)
		if err != nil {
			h.ErrLog.Write(w, r, "list "+kind.Field, err)
			return
		}

		uierrors.JSON(w, http.StatusOK, map[string]any{"success": true, key: entries})
	}
}

// FollowTeam handles POST /api/user/follow-team.
func (h *Handler) FollowTeam() http.HandlerFunc {
	return change[models.FollowedTeam, teamRequest](h, models.Teams, "followedTeams")
}

// FollowPlayer handles POST /api/user/follow-player.
func (h *Handler) FollowPlayer() http.HandlerFunc {
	return change[models.FollowedPlayer, playerRequest](h, models.Players, "followedPlayers")
}

// FollowSport handles POST /api/user/follow-sport.
func (h *Handler) FollowSport() http.HandlerFunc {
	return change[models.FollowedSport, sportRequest](h, models.Sports, "followedSports")
}

// FollowMatch handles POST /api/user/follow-match.
func (h *Handler) FollowMatch() http.HandlerFunc {
	return change[models.FollowedMatch, matchRequest](h, models.Matches, "followedMatches")
}

// MatchReminder handles POST /api/user/match-reminder.
func (h *Handler) MatchReminder() http.HandlerFunc {
	return change[models.MatchReminder, reminderRequest](h, models.Reminders, "matchReminders")
}

func (h *Handler) FollowedTeams() http.HandlerFunc {
	return list(h, models.Teams, "followedTeams")
}

func (h *Handler) FollowedPlayers() http.HandlerFunc {
	return list(h, models.Players, "followedPlayers")
}

func (h *Handler) FollowedSports() http.HandlerFunc {
	return list(h, models.Sports, "followedSports")
}

func (h *Handler) FollowedMatches() http.HandlerFunc {
	return list(h, models.Matches, "followedMatches")
}

func (h *Handler) MatchReminders() http.HandlerFunc {
	return list(h, models.Reminders, "matchReminders")
}
