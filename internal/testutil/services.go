package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/fanzone/internal/app/system/accounts"
	"github.com/dalemusser/fanzone/internal/app/system/auth"
	"go.uber.org/zap"
)

// TestSessionName is the cookie name used by NewSessionManager.
const TestSessionName = "test-session"

// NewSessionManager returns an insecure cookie session manager for tests.
func NewSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only-0123456789", TestSessionName, "", 0, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return sm
}

// NewAccounts returns an accounts service over a fresh in-memory repository.
func NewAccounts(t *testing.T) (*accounts.Service, *MemUsers) {
	t.Helper()
	users := NewMemUsers()
	return accounts.NewService(users, NewHasher(t), zap.NewNop()), users
}

// SessionCookie returns the test session cookie set on rec, or nil.
func SessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == TestSessionName {
			return c
		}
	}
	return nil
}
