package follows_test

import (
	"net/http"
	"testing"

	uierrors "github.com/dalemusser/fanzone/internal/app/features/errors"
	"github.com/dalemusser/fanzone/internal/app/features/follows"
	"github.com/dalemusser/fanzone/internal/domain/models"
	"github.com/dalemusser/fanzone/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func newRouter(t *testing.T) (chi.Router, *testutil.MemUsers, models.User) {
	t.Helper()
	logger := zap.NewNop()
	svc, users := testutil.NewAccounts(t)
	r := chi.NewRouter()
	follows.Register(r, follows.NewHandler(svc, uierrors.NewErrorLogger(logger), logger))
	alice := users.Put(testutil.NewUser(t, "alice", "alice@x.com", "secret1"))
	return r, users, alice
}

func do(t *testing.T, r chi.Router, u models.User, method, path string, body any) *testutil.ResponseRecorder {
	t.Helper()
	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewAuthenticatedRequest(t, method, path, body, u))
	return rec
}

type sportsResponse struct {
	Success        bool                   `json:"success"`
	Message        string                 `json:"message"`
	FollowedSports []models.FollowedSport `json:"followedSports"`
}

func TestFollowSport_Scenario(t *testing.T) {
	r, users, alice := newRouter(t)

	var body sportsResponse
	rec := do(t, r, alice, "POST", "/follow-sport", map[string]string{"sportId": "football", "sportName": "Football"})
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &body)
	if len(body.FollowedSports) != 1 || body.FollowedSports[0].SportID != "football" {
		t.Fatalf("after follow: %+v", body.FollowedSports)
	}
	if body.FollowedSports[0].FollowedAt.IsZero() {
		t.Error("followedAt should be stamped")
	}

	// Following again is a no-op.
	writes := users.Writes
	rec = do(t, r, alice, "POST", "/follow-sport", map[string]string{"sportId": "football", "action": "follow"})
	rec.AssertStatus(t, http.StatusOK)
	body = sportsResponse{}
	rec.DecodeJSON(t, &body)
	if len(body.FollowedSports) != 1 {
		t.Errorf("after re-follow: %d entries, want 1", len(body.FollowedSports))
	}
	if users.Writes != writes {
		t.Error("re-follow should not write")
	}

	rec = do(t, r, alice, "GET", "/followed-sports", nil)
	rec.AssertStatus(t, http.StatusOK)
	body = sportsResponse{}
	rec.DecodeJSON(t, &body)
	if len(body.FollowedSports) != 1 {
		t.Errorf("followed-sports: %d entries, want 1", len(body.FollowedSports))
	}

	rec = do(t, r, alice, "POST", "/follow-sport", map[string]string{"sportId": "football", "action": "UNFOLLOW"})
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"followedSports":[]`)
}

func TestFollow_AllKinds(t *testing.T) {
	tests := []struct {
		name string
		post string
		get  string
		key  string
		body map[string]any
	}{
		{"team", "/follow-team", "/followed-teams", "followedTeams", map[string]any{"teamId": "t1", "teamName": "Leeds", "league": "EPL"}},
		{"player", "/follow-player", "/followed-players", "followedPlayers", map[string]any{"playerId": "p1", "playerName": "Kane", "position": "FW"}},
		{"sport", "/follow-sport", "/followed-sports", "followedSports", map[string]any{"sportId": "tennis"}},
		{"match", "/follow-match", "/followed-matches", "followedMatches", map[string]any{"matchId": "m1", "homeTeam": "A", "awayTeam": "B", "startsAt": "2025-05-01T19:00:00Z"}},
		{"reminder", "/match-reminder", "/match-reminders", "matchReminders", map[string]any{"matchId": "m1", "startsAt": "2025-05-01T19:00:00+02:00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, alice := newRouter(t)

			do(t, r, alice, "POST", tt.post, tt.body).AssertStatus(t, http.StatusOK)

			rec := do(t, r, alice, "GET", tt.get, nil)
			rec.AssertStatus(t, http.StatusOK)
			var generic map[string]any
			rec.DecodeJSON(t, &generic)
			entries, ok := generic[tt.key].([]any)
			if !ok || len(entries) != 1 {
				t.Fatalf("%s = %v, want one entry", tt.key, generic[tt.key])
			}
		})
	}
}

func TestMatchReminder_IndependentOfFollowedMatch(t *testing.T) {
	r, users, alice := newRouter(t)

	do(t, r, alice, "POST", "/match-reminder", map[string]string{"matchId": "m9"}).AssertStatus(t, http.StatusOK)

	stored, _ := users.Raw(alice.ID)
	if len(stored.MatchReminders) != 1 {
		t.Fatalf("reminders = %d, want 1", len(stored.MatchReminders))
	}
	if len(stored.FollowedMatches) != 0 {
		t.Error("a reminder must not follow the match")
	}

	do(t, r, alice, "POST", "/follow-match", map[string]string{"matchId": "m9"}).AssertStatus(t, http.StatusOK)
	do(t, r, alice, "POST", "/match-reminder", map[string]string{"matchId": "m9", "action": "unfollow"}).AssertStatus(t, http.StatusOK)

	stored, _ = users.Raw(alice.ID)
	if len(stored.MatchReminders) != 0 || len(stored.FollowedMatches) != 1 {
		t.Errorf("reminders=%d matches=%d, want 0 and 1", len(stored.MatchReminders), len(stored.FollowedMatches))
	}
}

func TestFollow_SanitizesDisplayFields(t *testing.T) {
	r, users, alice := newRouter(t)

	do(t, r, alice, "POST", "/follow-team", map[string]string{
		"teamId":   "  t7 ",
		"teamName": `<img src=x onerror=alert(1)>Rovers`,
	}).AssertStatus(t, http.StatusOK)

	stored, _ := users.Raw(alice.ID)
	if len(stored.FollowedTeams) != 1 {
		t.Fatalf("teams = %d, want 1", len(stored.FollowedTeams))
	}
	got := stored.FollowedTeams[0]
	if got.TeamID != "t7" || got.TeamName != "Rovers" {
		t.Errorf("stored %+v, want id t7 and name Rovers", got)
	}
}

func TestFollow_Errors(t *testing.T) {
	r, _, alice := newRouter(t)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
		want   string
	}{
		{"missing key", "/follow-sport", map[string]string{"sportName": "Golf"}, http.StatusBadRequest, "sportId is required"},
		{"blank key", "/follow-player", map[string]string{"playerId": "   "}, http.StatusBadRequest, "playerId is required"},
		{"bad action", "/follow-team", map[string]string{"teamId": "t1", "action": "like"}, http.StatusBadRequest, "action"},
		{"malformed", "/follow-match", `{"matchId":`, http.StatusBadRequest, "invalid JSON body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, r, alice, "POST", tt.path, tt.body)
			rec.AssertStatus(t, tt.status)
			rec.AssertContains(t, `"success":false`)
			rec.AssertContains(t, tt.want)
		})
	}
}

func TestFollow_UnknownOrSignedOut(t *testing.T) {
	r, users, _ := newRouter(t)

	t.Run("signed out", func(t *testing.T) {
		rec := testutil.NewRecorder()
		r.ServeHTTP(rec, testutil.NewJSONRequest(t, "POST", "/follow-sport", map[string]string{"sportId": "x"}))
		rec.AssertStatus(t, http.StatusUnauthorized)
	})

	t.Run("deactivated", func(t *testing.T) {
		gone := testutil.NewUser(t, "gone", "gone@x.com", "secret1")
		gone.IsActive = false
		users.Put(gone)

		do(t, r, gone, "GET", "/followed-teams", nil).AssertStatus(t, http.StatusNotFound)
		do(t, r, gone, "POST", "/follow-team", map[string]string{"teamId": "t1"}).AssertStatus(t, http.StatusNotFound)
	})
}
