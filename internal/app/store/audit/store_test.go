package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/fanzone/internal/app/store/audit"
	"github.com/dalemusser/fanzone/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Log_AutoFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	before := time.Now().Add(-time.Second)
	err := store.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		IP:        "192.168.1.1",
		Success:   true,
	})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	var got audit.Event
	if err := db.Collection("audit_events").FindOne(ctx, bson.M{"user_id": userID}).Decode(&got); err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ID.IsZero() {
		t.Error("expected ID to be generated")
	}
	if got.Timestamp.Before(before) {
		t.Errorf("Timestamp not set: %v", got.Timestamp)
	}
}

func TestStore_GetByUser_NewestFirstAndLimited(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	other := primitive.NewObjectID()
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		_ = store.Log(ctx, audit.Event{
			Category:  audit.CategoryAuth,
			EventType: audit.EventLoginSuccess,
			UserID:    &userID,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Success:   true,
		})
	}
	_ = store.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLogout, UserID: &other})

	events, err := store.GetByUser(ctx, userID, 3)
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp.After(events[i-1].Timestamp) {
			t.Error("events should be newest first")
		}
	}
	for _, e := range events {
		if *e.UserID != userID {
			t.Error("got another user's event")
		}
	}
}

func TestStore_Query_Filters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	_ = store.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLoginFailed, Timestamp: now.Add(-2 * time.Hour)})
	_ = store.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLoginFailed, Timestamp: now})
	_ = store.Log(ctx, audit.Event{Category: audit.CategoryAccount, EventType: audit.EventSignup, Timestamp: now})

	byCat, _ := store.Query(ctx, audit.QueryFilter{Category: audit.CategoryAccount})
	if len(byCat) != 1 {
		t.Errorf("by category: got %d, want 1", len(byCat))
	}

	since := now.Add(-time.Hour)
	recentFailed, _ := store.Query(ctx, audit.QueryFilter{EventType: audit.EventLoginFailed, StartTime: &since})
	if len(recentFailed) != 1 {
		t.Errorf("by type and time: got %d, want 1", len(recentFailed))
	}

	empty, err := store.Query(ctx, audit.QueryFilter{EventType: "nope"})
	if err != nil {
		t.Fatal(err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", empty)
	}
}
