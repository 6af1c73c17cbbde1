package twitchtoken

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ichi0g0y/chill-roulette/internal/env"
	"github.com/ichi0g0y/chill-roulette/internal/localdb"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	_ = localdb.Close()
	if _, err := localdb.SetupDB(filepath.Join(t.TempDir(), "token.db")); err != nil {
		t.Fatalf("SetupDB: %v", err)
	}
	t.Cleanup(func() { _ = localdb.Close() })
}

func withCredentials(t *testing.T) {
	t.Helper()
	prev := env.Value
	id, secret := "client-1", "secret-1"
	env.Value = env.EnvValue{ClientID: &id, ClientSecret: &secret, ServerPort: 8181}
	t.Cleanup(func() { env.Value = prev })
}

func fakeTwitch(t *testing.T, handler func(form url.Values) (int, interface{})) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		status, body := handler(r.PostForm)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	prev := tokenEndpoint
	tokenEndpoint = srv.URL
	t.Cleanup(func() { tokenEndpoint = prev })
}

func TestGetAuthURL(t *testing.T) {
	withCredentials(t)

	u, err := url.Parse(GetAuthURL())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q := u.Query()
	if q.Get("client_id") != "client-1" {
		t.Fatalf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("redirect_uri") != "http://localhost:8181/callback" {
		t.Fatalf("redirect_uri = %q", q.Get("redirect_uri"))
	}
	if q.Get("scope") != "channel:read:redemptions" {
		t.Fatalf("scope = %q", q.Get("scope"))
	}
}

func TestGetTwitchToken_StoresToken(t *testing.T) {
	setupTestDB(t)
	withCredentials(t)
	fakeTwitch(t, func(form url.Values) (int, interface{}) {
		if form.Get("grant_type") != "authorization_code" || form.Get("code") != "abc" {
			t.Errorf("unexpected form: %v", form)
		}
		return http.StatusOK, map[string]interface{}{
			"access_token":  "at-1",
			"refresh_token": "rt-1",
			"expires_in":    14400,
			"scope":         []string{"channel:read:redemptions"},
		}
	})

	tok, err := GetTwitchToken("abc")
	if err != nil {
		t.Fatalf("GetTwitchToken: %v", err)
	}
	if !tok.HasScopes() {
		t.Fatalf("expected required scopes, got %q", tok.Scope)
	}

	stored, valid, err := GetLatestToken()
	if err != nil {
		t.Fatalf("GetLatestToken: %v", err)
	}
	if !valid || stored.AccessToken != "at-1" {
		t.Fatalf("unexpected stored token: %+v valid=%v", stored, valid)
	}
}

func TestGetTwitchToken_Error(t *testing.T) {
	setupTestDB(t)
	withCredentials(t)
	fakeTwitch(t, func(url.Values) (int, interface{}) {
		return http.StatusBadRequest, map[string]string{"status": "400", "message": "Invalid authorization code"}
	})

	if _, err := GetTwitchToken("bad"); err == nil || !strings.Contains(err.Error(), "Invalid authorization code") {
		t.Fatalf("expected twitch error, got %v", err)
	}
}

func TestGetOrRefreshToken_RefreshesExpired(t *testing.T) {
	setupTestDB(t)
	withCredentials(t)
	expired := Token{AccessToken: "old", RefreshToken: "rt-old", Scope: "channel:read:redemptions", ExpiresAt: time.Now().Add(-time.Hour).Unix()}
	if err := expired.SaveToken(); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	fakeTwitch(t, func(form url.Values) (int, interface{}) {
		if form.Get("refresh_token") != "rt-old" {
			t.Errorf("refresh_token = %q", form.Get("refresh_token"))
		}
		return http.StatusOK, map[string]interface{}{
			"access_token":  "new",
			"refresh_token": "rt-new",
			"expires_in":    3600,
			"scope":         []string{"channel:read:redemptions"},
		}
	})

	tok, valid, err := GetOrRefreshToken()
	if err != nil {
		t.Fatalf("GetOrRefreshToken: %v", err)
	}
	if !valid || tok.AccessToken != "new" || tok.RefreshToken != "rt-new" {
		t.Fatalf("unexpected token: %+v valid=%v", tok, valid)
	}
}

func TestGetOrRefreshToken_NoRefreshToken(t *testing.T) {
	setupTestDB(t)
	expired := Token{AccessToken: "old", ExpiresAt: time.Now().Add(-time.Hour).Unix()}
	if err := expired.SaveToken(); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}

	_, valid, err := GetOrRefreshToken()
	if err != nil || valid {
		t.Fatalf("expected invalid token without error, got valid=%v err=%v", valid, err)
	}
}

func TestTokenValid_Margin(t *testing.T) {
	now := time.Now()
	if (Token{AccessToken: "a", ExpiresAt: now.Add(2 * time.Minute).Unix()}).Valid(now) {
		t.Fatalf("token inside the refresh margin should be invalid")
	}
	if !(Token{AccessToken: "a", ExpiresAt: now.Add(time.Hour).Unix()}).Valid(now) {
		t.Fatalf("token with an hour left should be valid")
	}
}

func TestWriteErrorPage_Escapes(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteErrorPage(&buf, "<script>alert(1)</script>"); err != nil {
		t.Fatalf("WriteErrorPage: %v", err)
	}
	if strings.Contains(buf.String(), "<script>alert") {
		t.Fatalf("detail was not escaped")
	}
}
