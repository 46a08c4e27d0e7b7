package backendhttp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/neuralbroker/tiergate/core"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrBaseURLRequired) {
		t.Errorf("expected ErrBaseURLRequired, got %v", err)
	}
}

func TestFetchTier(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tier/current" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("user_id"); got != "user-1" {
			t.Errorf("user_id = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"tier_data": map[string]any{
				"tier":              "premium",
				"credits_remaining": 432,
				"tier_features": map[string]any{
					"market_analysis": map[string]any{"enabled": true, "daily_limit": 100, "monthly_limit": 2000},
				},
				"last_updated": time.Now().UTC().Format(time.RFC3339),
			},
		})
	})

	d, err := c.FetchTier(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("FetchTier: %v", err)
	}
	if d.Tier != core.TierPremium || d.CreditsRemaining != 432 {
		t.Errorf("got %+v, want premium/432", d)
	}
	if !d.Features["market_analysis"].Enabled {
		t.Error("feature table not decoded")
	}
	if d.LastUpdated.IsZero() {
		t.Error("last_updated not parsed")
	}
}

func TestFetchTierMalformedTimestamp(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"tier_data": map[string]any{
				"tier":              "basic",
				"credits_remaining": 7,
				"last_updated":      "not-a-time",
			},
		})
	})

	d, err := c.FetchTier(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("FetchTier: %v", err)
	}
	if !d.LastUpdated.IsZero() {
		t.Error("malformed timestamp should decay to zero")
	}
}

func TestFetchTierFailures(t *testing.T) {
	t.Run("missing user id", func(t *testing.T) {
		c := newTestClient(t, func(http.ResponseWriter, *http.Request) {})
		if _, err := c.FetchTier(context.Background(), ""); !errors.Is(err, core.ErrUserIDRequired) {
			t.Fatalf("expected ErrUserIDRequired, got %v", err)
		}
	})

	t.Run("success false", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"success": false})
		})
		if _, err := c.FetchTier(context.Background(), "user-1"); !errors.Is(err, ErrNotSuccessful) {
			t.Fatalf("expected ErrNotSuccessful, got %v", err)
		}
	})

	t.Run("server error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		if _, err := c.FetchTier(context.Background(), "user-1"); err == nil {
			t.Fatal("expected an error on 500")
		}
	})
}

func TestUpdateTier(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tier/update-tier" || r.Method != http.MethodPost {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	})

	if err := c.UpdateTier(context.Background(), "user-1", core.TierBasic, 100); err != nil {
		t.Fatalf("UpdateTier: %v", err)
	}
	if got["new_tier"] != "basic" || got["credits"] != float64(100) {
		t.Errorf("request body = %v", got)
	}
}

func TestUpdateTierFailureDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "detail": "user not found"})
	})

	err := c.UpdateTier(context.Background(), "user-1", core.TierBasic, 100)
	if !errors.Is(err, ErrNotSuccessful) {
		t.Fatalf("expected ErrNotSuccessful, got %v", err)
	}
}

func TestValidateFeature(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tier/validate-feature" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		granted := body["feature_name"] == "market_analysis"
		json.NewEncoder(w).Encode(map[string]any{"success": true, "access_granted": granted})
	})

	granted, err := c.ValidateFeature(context.Background(), "user-1", "market_analysis")
	if err != nil || !granted {
		t.Fatalf("granted = %v, err = %v", granted, err)
	}

	granted, err = c.ValidateFeature(context.Background(), "user-1", "realtime_quotes")
	if err != nil || granted {
		t.Fatalf("granted = %v, err = %v, want denial", granted, err)
	}
}

// unsignedJWT builds an unsigned token with the given subject. The
// client reads claims without verifying signatures.
func unsignedJWT(sub string) string {
	encode := func(v map[string]any) string {
		raw, _ := json.Marshal(v)
		return base64.RawURLEncoding.EncodeToString(raw)
	}
	header := encode(map[string]any{"alg": "none", "typ": "JWT"})
	claims := encode(map[string]any{"sub": sub})
	return header + "." + claims + "."
}

func TestLogin(t *testing.T) {
	t.Run("explicit user id", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/v1/user/login" {
				t.Errorf("path = %q", r.URL.Path)
			}
			json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "user_id": "user-7"})
		})

		res, err := c.Login(context.Background(), "a@b.c", "pw")
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		if res.Token != "tok" || res.UserID != "user-7" {
			t.Errorf("result = %+v", res)
		}
	})

	t.Run("user id recovered from JWT subject", func(t *testing.T) {
		token := unsignedJWT("user-from-sub")
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"access_token": token})
		})

		res, err := c.Login(context.Background(), "a@b.c", "pw")
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		if res.UserID != "user-from-sub" {
			t.Errorf("userID = %q, want user-from-sub", res.UserID)
		}
	})

	t.Run("validation", func(t *testing.T) {
		c := newTestClient(t, func(http.ResponseWriter, *http.Request) {})
		if _, err := c.Login(context.Background(), "", "pw"); !errors.Is(err, core.ErrEmailRequired) {
			t.Errorf("expected ErrEmailRequired, got %v", err)
		}
		if _, err := c.Login(context.Background(), "a@b.c", ""); !errors.Is(err, core.ErrPasswordRequired) {
			t.Errorf("expected ErrPasswordRequired, got %v", err)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{})
		})
		if _, err := c.Login(context.Background(), "a@b.c", "pw"); !errors.Is(err, ErrNotSuccessful) {
			t.Errorf("expected ErrNotSuccessful, got %v", err)
		}
	})
}
