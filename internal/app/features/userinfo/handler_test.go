package userinfo_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	uierrors "github.com/dalemusser/fanzone/internal/app/features/errors"
	"github.com/dalemusser/fanzone/internal/app/features/userinfo"
	"github.com/dalemusser/fanzone/internal/app/store/audit"
	"github.com/dalemusser/fanzone/internal/domain/models"
	"github.com/dalemusser/fanzone/internal/testutil"
	"go.uber.org/zap"
)

type stubActivity struct {
	events []audit.Event
	err    error
	last   audit.QueryFilter
}

func (s *stubActivity) Query(_ context.Context, filter audit.QueryFilter) ([]audit.Event, error) {
	s.last = filter
	if s.err != nil {
		return nil, s.err
	}
	n := min(int64(len(s.events)), filter.Limit)
	return append([]audit.Event(nil), s.events[:n]...), nil
}

type stubCloser struct{ closed []string }

func (s *stubCloser) CloseSession(_ context.Context, id string, _ time.Time) (bool, error) {
	s.closed = append(s.closed, id)
	return true, nil
}

type fixture struct {
	h        *userinfo.Handler
	users    *testutil.MemUsers
	activity *stubActivity
	alice    models.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	logger := zap.NewNop()
	svc, users := testutil.NewAccounts(t)
	activity := &stubActivity{}
	h := userinfo.NewHandler(svc, testutil.NewSessionManager(t), &stubCloser{}, activity, nil, uierrors.NewErrorLogger(logger), logger)

	alice := testutil.NewUser(t, "alice", "alice@x.com", "secret1")
	alice.Profile.FavoriteSports = []string{"football"}
	alice.FollowedSports = []models.FollowedSport{{SportID: "football", SportName: "Football", FollowedAt: time.Now().UTC()}}
	users.Put(alice)

	return fixture{h: h, users: users, activity: activity, alice: alice}
}

func TestServeUser(t *testing.T) {
	f := newFixture(t)

	rec := testutil.NewRecorder()
	f.h.ServeUser(rec, testutil.NewAuthenticatedRequest(t, "GET", "/api/user", nil, f.alice))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertNotContains(t, "password")
	var body struct {
		Success bool `json:"success"`
		User    struct {
			Username       string `json:"username"`
			FollowedTeams  []any  `json:"followedTeams"`
			FollowedSports []any  `json:"followedSports"`
			MatchReminders []any  `json:"matchReminders"`
		} `json:"user"`
	}
	rec.DecodeJSON(t, &body)
	if !body.Success || body.User.Username != "alice" {
		t.Errorf("unexpected body: %+v", body)
	}
	if body.User.FollowedTeams == nil || body.User.MatchReminders == nil {
		t.Error("empty collections should encode as []")
	}
	if len(body.User.FollowedSports) != 1 {
		t.Errorf("followedSports = %v, want one entry", body.User.FollowedSports)
	}
}

func TestServeUser_Errors(t *testing.T) {
	f := newFixture(t)

	t.Run("no session", func(t *testing.T) {
		rec := testutil.NewRecorder()
		f.h.ServeUser(rec, testutil.NewRequest("GET", "/api/user"))
		rec.AssertStatus(t, http.StatusUnauthorized)
	})

	t.Run("deactivated", func(t *testing.T) {
		gone := testutil.NewUser(t, "gone", "gone@x.com", "secret1")
		gone.IsActive = false
		f.users.Put(gone)

		rec := testutil.NewRecorder()
		f.h.ServeUser(rec, testutil.NewAuthenticatedRequest(t, "GET", "/api/user", nil, gone))
		rec.AssertStatus(t, http.StatusNotFound)
		rec.AssertContains(t, "user not found")
	})
}

func TestHandleUpdateProfile_ShallowMerge(t *testing.T) {
	f := newFixture(t)

	rec := testutil.NewRecorder()
	f.h.HandleUpdateProfile(rec, testutil.NewAuthenticatedRequest(t, "PATCH", "/api/user/profile", map[string]any{
		"location": "Leeds",
		"notifications": map[string]bool{
			"email": false, "push": true, "matchStart": true, "scoreUpdates": false, "news": true,
		},
	}, f.alice))

	rec.AssertStatus(t, http.StatusOK)

	stored, _ := f.users.Raw(f.alice.ID)
	if stored.Profile.Location != "Leeds" {
		t.Errorf("location = %q, want Leeds", stored.Profile.Location)
	}
	if len(stored.Profile.FavoriteSports) != 1 || stored.Profile.FavoriteSports[0] != "football" {
		t.Errorf("favoriteSports changed: %v", stored.Profile.FavoriteSports)
	}
	want := models.NotificationSettings{Push: true, MatchStart: true, News: true}
	if stored.Profile.Notifications != want {
		t.Errorf("notifications = %+v, want %+v", stored.Profile.Notifications, want)
	}
}

func TestHandleUpdateProfile_BadBody(t *testing.T) {
	f := newFixture(t)

	rec := testutil.NewRecorder()
	f.h.HandleUpdateProfile(rec, testutil.NewAuthenticatedRequest(t, "PATCH", "/api/user/profile", `{"bio":`, f.alice))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "invalid JSON body")
}

func TestServePreferences(t *testing.T) {
	f := newFixture(t)

	rec := testutil.NewRecorder()
	f.h.ServePreferences(rec, testutil.NewAuthenticatedRequest(t, "GET", "/api/user/preferences", nil, f.alice))

	rec.AssertStatus(t, http.StatusOK)
	var body struct {
		Success         bool                        `json:"success"`
		FavoriteSports  []string                    `json:"favoriteSports"`
		Notifications   models.NotificationSettings `json:"notifications"`
		FollowedSports  []models.FollowedSport      `json:"followedSports"`
		FollowedPlayers []models.FollowedPlayer     `json:"followedPlayers"`
	}
	rec.DecodeJSON(t, &body)
	if !body.Success {
		t.Fatal("expected success")
	}
	if len(body.FavoriteSports) != 1 || len(body.FollowedSports) != 1 || body.FollowedSports[0].SportID != "football" {
		t.Errorf("unexpected preferences: %+v", body)
	}
	if body.FollowedPlayers == nil {
		t.Error("followedPlayers should encode as []")
	}
	if body.Notifications != models.DefaultNotifications() {
		t.Errorf("notifications = %+v", body.Notifications)
	}
}

func TestServeActivity(t *testing.T) {
	f := newFixture(t)
	f.activity.events = []audit.Event{{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, Success: true}}

	// Limits are fetched with one look-ahead row.
	tests := []struct {
		name       string
		query      string
		status     int
		wantLimit  int64
		wantOffset int64
	}{
		{"default", "", http.StatusOK, 21, 0},
		{"explicit", "?limit=5", http.StatusOK, 6, 0},
		{"capped", "?limit=5000", http.StatusOK, 101, 0},
		{"second page", "?limit=5&start=6", http.StatusOK, 6, 5},
		{"invalid", "?limit=abc", http.StatusBadRequest, 0, 0},
		{"zero", "?limit=0", http.StatusBadRequest, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.activity.last = audit.QueryFilter{}
			rec := testutil.NewRecorder()
			f.h.ServeActivity(rec, testutil.NewAuthenticatedRequest(t, "GET", "/api/user/activity"+tt.query, nil, f.alice))
			rec.AssertStatus(t, tt.status)
			if f.activity.last.Limit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", f.activity.last.Limit, tt.wantLimit)
			}
			if f.activity.last.Offset != tt.wantOffset {
				t.Errorf("offset = %d, want %d", f.activity.last.Offset, tt.wantOffset)
			}
			if tt.status == http.StatusOK {
				rec.AssertContains(t, audit.EventLoginSuccess)
				if f.activity.last.UserID == nil || *f.activity.last.UserID != f.alice.ID {
					t.Errorf("query not scoped to the signed-in user: %v", f.activity.last.UserID)
				}
			}
		})
	}
}

func TestServeActivity_HasNext(t *testing.T) {
	f := newFixture(t)
	for range 3 {
		f.activity.events = append(f.activity.events, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLogout, Success: true})
	}

	rec := testutil.NewRecorder()
	f.h.ServeActivity(rec, testutil.NewAuthenticatedRequest(t, "GET", "/api/user/activity?limit=2", nil, f.alice))
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		Events  []audit.Event `json:"events"`
		HasNext bool          `json:"hasNext"`
		Range   struct {
			Start     int64 `json:"start"`
			End       int64 `json:"end"`
			NextStart int64 `json:"nextStart"`
		} `json:"range"`
	}
	rec.DecodeJSON(t, &body)
	if len(body.Events) != 2 {
		t.Fatalf("events = %d, want 2", len(body.Events))
	}
	if !body.HasNext {
		t.Error("hasNext = false, want true")
	}
	if body.Range.Start != 1 || body.Range.End != 2 || body.Range.NextStart != 3 {
		t.Errorf("range = %+v, want 1..2 next 3", body.Range)
	}
}

func TestServeActivity_StoreError(t *testing.T) {
	f := newFixture(t)
	f.activity.err = errors.New("cursor failed")

	rec := testutil.NewRecorder()
	f.h.ServeActivity(rec, testutil.NewAuthenticatedRequest(t, "GET", "/api/user/activity", nil, f.alice))
	rec.AssertStatus(t, http.StatusInternalServerError)
	rec.AssertContains(t, uierrors.ServerErrorMessage)
	rec.AssertNotContains(t, "cursor failed")
}

func TestHandleDeactivate(t *testing.T) {
	f := newFixture(t)

	rec := testutil.NewRecorder()
	f.h.HandleDeactivate(rec, testutil.NewAuthenticatedRequest(t, "POST", "/api/user/deactivate", nil, f.alice))
	rec.AssertStatus(t, http.StatusOK)

	stored, _ := f.users.Raw(f.alice.ID)
	if stored.IsActive {
		t.Error("user should be inactive")
	}

	rec = testutil.NewRecorder()
	f.h.ServeUser(rec, testutil.NewAuthenticatedRequest(t, "GET", "/api/user", nil, f.alice))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestRoutes_RequireSession(t *testing.T) {
	f := newFixture(t)
	router := userinfo.Routes(f.h, testutil.NewSessionManager(t))

	for _, path := range []string{"/", "/preferences", "/activity"} {
		rec := testutil.NewRecorder()
		router.ServeHTTP(rec, testutil.NewRequest("GET", path))
		rec.AssertStatus(t, http.StatusUnauthorized)
		rec.AssertContains(t, "not signed in")
	}
}
