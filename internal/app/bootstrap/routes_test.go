package bootstrap

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/fanzone/internal/app/system/auth"
	"github.com/dalemusser/fanzone/internal/app/system/timeouts"
	"github.com/dalemusser/fanzone/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// newTestServer runs the real schema, services and router against a
// throwaway database.
func newTestServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(timeouts.Reset)

	coreCfg := &config.CoreConfig{Env: "dev"}
	appCfg := validAppConfig()
	appCfg.SessionKey = auth.GenerateKey()
	appCfg.BcryptCost = 4
	appCfg.LoginRatePerMinute = 1000
	appCfg.LoginBurst = 1000
	appCfg.AuditLogAuth = "db"
	appCfg.AuditLogAccount = "db"

	deps := DBDeps{
		FanZoneMongoClient:   db.Client(),
		FanZoneMongoDatabase: db,
		Runtime:              &Runtime{},
	}
	logger := zap.NewNop()

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := EnsureSchema(ctx, coreCfg, appCfg, deps, logger); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := Startup(ctx, coreCfg, appCfg, deps, logger); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	t.Cleanup(func() {
		deps.Runtime.Pruner.Stop()
		deps.Runtime.Limiter.Close()
	})

	h, err := BuildHandler(coreCfg, appCfg, deps, logger)
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return srv, &http.Client{Jar: jar, Timeout: 10 * time.Second}
}

func call(t *testing.T, c *http.Client, method, url string, body any) (int, map[string]any) {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	out := map[string]any{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("%s %s: decode: %v", method, url, err)
	}
	return resp.StatusCode, out
}

func TestBuildHandler_AccountLifecycle(t *testing.T) {
	srv, client := newTestServer(t)
	base := srv.URL

	status, body := call(t, client, http.MethodPost, base+"/api/signup", map[string]any{
		"username": "FanOne",
		"email":    "Fan.One@Example.com",
		"password": "goal-line-42",
	})
	if status != http.StatusCreated {
		t.Fatalf("signup status = %d, body %v", status, body)
	}

	status, body = call(t, client, http.MethodGet, base+"/api/user", nil)
	if status != http.StatusOK {
		t.Fatalf("GET /api/user status = %d, body %v", status, body)
	}
	user, _ := body["user"].(map[string]any)
	if user["email"] != "fan.one@example.com" {
		t.Errorf("email = %v, want fan.one@example.com", user["email"])
	}
	if _, leaked := user["passwordHash"]; leaked {
		t.Error("password hash must not be serialized")
	}

	status, body = call(t, client, http.MethodPost, base+"/api/user/follow-sport", map[string]any{
		"sportId":   "soccer",
		"sportName": "Soccer",
	})
	if status != http.StatusOK {
		t.Fatalf("follow-sport status = %d, body %v", status, body)
	}

	status, body = call(t, client, http.MethodGet, base+"/api/user/followed-sports", nil)
	if status != http.StatusOK {
		t.Fatalf("followed-sports status = %d", status)
	}
	sports, _ := body["followedSports"].([]any)
	if len(sports) != 1 {
		t.Fatalf("followedSports = %v, want one entry", body["followedSports"])
	}

	status, body = call(t, client, http.MethodGet, base+"/api/user/activity", nil)
	if status != http.StatusOK {
		t.Fatalf("activity status = %d", status)
	}
	events, _ := body["events"].([]any)
	if len(events) == 0 {
		t.Error("expected signup activity to be recorded")
	}

	status, _ = call(t, client, http.MethodPost, base+"/api/logout", nil)
	if status != http.StatusOK {
		t.Fatalf("logout status = %d", status)
	}

	status, body = call(t, client, http.MethodGet, base+"/api/user", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("after logout status = %d, want 401", status)
	}
	if body["success"] != false {
		t.Errorf("success = %v, want false", body["success"])
	}

	status, body = call(t, client, http.MethodPost, base+"/api/login", map[string]any{
		"email":    "fan.one@example.com",
		"password": "goal-line-42",
	})
	if status != http.StatusOK {
		t.Fatalf("login status = %d, body %v", status, body)
	}
	user, _ = body["user"].(map[string]any)
	if user["loginCount"] != float64(1) {
		t.Errorf("loginCount = %v, want 1", user["loginCount"])
	}
}

func TestBuildHandler_Health(t *testing.T) {
	srv, client := newTestServer(t)

	status, body := call(t, client, http.MethodGet, srv.URL+"/health", nil)
	if status != http.StatusOK {
		t.Fatalf("health status = %d, body %v", status, body)
	}
	if body["database"] != "connected" {
		t.Errorf("database = %v, want connected", body["database"])
	}
}

func TestBuildHandler_RequiresStartup(t *testing.T) {
	_, err := BuildHandler(&config.CoreConfig{Env: "dev"}, validAppConfig(), DBDeps{Runtime: &Runtime{}}, zap.NewNop())
	if err == nil {
		t.Fatal("expected error when Startup has not populated the runtime")
	}
}
