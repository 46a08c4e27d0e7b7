package fiber

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/neuralbroker/tiergate"
	"github.com/neuralbroker/tiergate/core"
	"github.com/neuralbroker/tiergate/services"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestApp(t *testing.T, backend *services.FakeBackend) (*fiber.App, *tiergate.Gate) {
	t.Helper()
	app := fiber.New()

	gate, err := tiergate.New(tiergate.Config{
		Secret:       testSecret,
		Backend:      backend,
		Credentials:  services.NewFakeCredentialStore(),
		PollInterval: time.Hour,
		HTTP:         New(app),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(gate.Tier.Cleanup)
	return app, gate
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func signIn(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/api/gate/login", "", map[string]string{
		"email": "a@b.c", "password": "pw",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	body := decode(t, resp)
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("login response carries no token")
	}
	return token
}

func TestLoginRoute(t *testing.T) {
	backend := services.NewFakeBackend()
	app, gate := newTestApp(t, backend)

	resp := doJSON(t, app, http.MethodPost, "/api/gate/login", "", map[string]string{
		"email": "a@b.c", "password": "pw",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body := decode(t, resp)
	if body["token"] != "fake-token" {
		t.Errorf("token = %v", body["token"])
	}
	if body["tier"] == nil {
		t.Error("login response should include tier data")
	}
	if gate.Tier.UserID() != "fake-user" {
		t.Error("tier monitoring should start on login")
	}
}

func TestLoginRouteRejectsMissingEmail(t *testing.T) {
	app, _ := newTestApp(t, services.NewFakeBackend())

	resp := doJSON(t, app, http.MethodPost, "/api/gate/login", "", map[string]string{
		"password": "pw",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSessionRouteIsPublic(t *testing.T) {
	app, _ := newTestApp(t, services.NewFakeBackend())

	resp := doJSON(t, app, http.MethodGet, "/api/gate/session", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decode(t, resp)
	session, _ := body["session"].(map[string]any)
	if session == nil || session["authenticated"] != false {
		t.Errorf("session = %v, want unauthenticated", body["session"])
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	app, _ := newTestApp(t, services.NewFakeBackend())

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/gate/logout"},
		{http.MethodGet, "/api/gate/tier"},
		{http.MethodGet, "/api/gate/features/market_analysis"},
		{http.MethodPost, "/api/gate/tier/refresh"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp := doJSON(t, app, tt.method, tt.path, "", nil)
			if resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", resp.StatusCode)
			}
			body := decode(t, resp)
			if body["redirect_to"] != tt.path {
				t.Errorf("redirect_to = %v, want %s", body["redirect_to"], tt.path)
			}
		})
	}
}

func TestRequireAuthRejectsWrongToken(t *testing.T) {
	app, _ := newTestApp(t, services.NewFakeBackend())
	signIn(t, app)

	resp := doJSON(t, app, http.MethodGet, "/api/gate/tier", "wrong-token", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestTierRoute(t *testing.T) {
	backend := services.NewFakeBackend()
	backend.SetTierData(&core.TierData{
		Tier:             core.TierPremium,
		CreditsRemaining: 500,
		Features:         core.DefaultFeatureTable(core.TierPremium),
		LastUpdated:      time.Now(),
	})
	app, _ := newTestApp(t, backend)
	token := signIn(t, app)

	resp := doJSON(t, app, http.MethodGet, "/api/gate/tier", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decode(t, resp)
	if body["tier"] != "premium" {
		t.Errorf("tier = %v, want premium", body["tier"])
	}
}

func TestFeatureRoute(t *testing.T) {
	backend := services.NewFakeBackend()
	backend.SetTierData(&core.TierData{
		Tier:             core.TierFree,
		CreditsRemaining: 10,
		Features:         core.DefaultFeatureTable(core.TierFree),
		LastUpdated:      time.Now(),
	})
	app, _ := newTestApp(t, backend)
	token := signIn(t, app)

	resp := doJSON(t, app, http.MethodGet, "/api/gate/features/realtime_quotes", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decode(t, resp)
	if body["locked"] != true {
		t.Errorf("realtime quotes should lock on the free tier, body = %v", body)
	}
	if body["upgrade_message"] == nil {
		t.Error("locked feature should carry an upgrade message")
	}
}

func TestSimulateRoute(t *testing.T) {
	backend := services.NewFakeBackend()
	backend.SetTierData(&core.TierData{
		Tier:             core.TierFree,
		CreditsRemaining: 10,
		Features:         core.DefaultFeatureTable(core.TierFree),
		LastUpdated:      time.Now(),
	})
	app, _ := newTestApp(t, backend)
	token := signIn(t, app)

	resp := doJSON(t, app, http.MethodPost, "/api/gate/tier/simulate", token, map[string]string{
		"new_tier": "premium",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decode(t, resp)
	if body["tier"] != "premium" {
		t.Errorf("tier = %v, want premium", body["tier"])
	}
}

func TestLogoutRoute(t *testing.T) {
	app, gate := newTestApp(t, services.NewFakeBackend())
	token := signIn(t, app)

	resp := doJSON(t, app, http.MethodPost, "/api/gate/logout", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if gate.Session.IsAuthenticated() {
		t.Error("logout should clear the session")
	}

	// The old token no longer authorizes requests.
	resp = doJSON(t, app, http.MethodGet, "/api/gate/tier", token, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 after logout", resp.StatusCode)
	}
}

func TestRequireFeatureMiddleware(t *testing.T) {
	backend := services.NewFakeBackend()
	backend.SetTierData(&core.TierData{
		Tier:             core.TierFree,
		CreditsRemaining: 10,
		Features:         core.DefaultFeatureTable(core.TierFree),
		LastUpdated:      time.Now(),
	})
	app, gate := newTestApp(t, backend)
	app.Get("/analysis", RequireAuth(gate), RequireFeature(gate, core.FeatureMarketAnalysis), func(c fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/quotes", RequireAuth(gate), RequireFeature(gate, core.FeatureRealtimeQuotes), func(c fiber.Ctx) error {
		return c.SendString("ok")
	})
	token := signIn(t, app)

	resp := doJSON(t, app, http.MethodGet, "/analysis", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("unlocked feature status = %d, want 200", resp.StatusCode)
	}

	resp = doJSON(t, app, http.MethodGet, "/quotes", token, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("locked feature status = %d, want 403", resp.StatusCode)
	}
	body := decode(t, resp)
	if body["upgrade_message"] == nil {
		t.Error("403 should carry the upgrade message")
	}
}
