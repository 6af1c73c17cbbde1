package twitchtoken

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ichi0g0y/chill-roulette/internal/env"
)

var (
	tokenEndpoint     = "https://id.twitch.tv/oauth2/token"
	authorizeEndpoint = "https://id.twitch.tv/oauth2/authorize"
	httpClient        = &http.Client{Timeout: 15 * time.Second}
)

// ポイント引き換えの購読だけなので読み取りスコープのみ
var scopes = []string{
	"channel:read:redemptions",
}

type tokenResponse struct {
	AccessToken      string   `json:"access_token"`
	RefreshToken     string   `json:"refresh_token"`
	ExpiresIn        int64    `json:"expires_in"`
	Scope            []string `json:"scope"`
	Error            string   `json:"error"`
	ErrorDescription string   `json:"error_description"`
	Message          string   `json:"message"`
}

func credentials() (string, string) {
	clientID, clientSecret := "", ""
	if env.Value.ClientID != nil {
		clientID = *env.Value.ClientID
	}
	if env.Value.ClientSecret != nil {
		clientSecret = *env.Value.ClientSecret
	}
	return clientID, clientSecret
}

func requestToken(form url.Values) (Token, error) {
	resp, err := httpClient.PostForm(tokenEndpoint, form)
	if err != nil {
		return Token{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Token{}, fmt.Errorf("failed to read response body: %w", err)
	}

	var result tokenResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return Token{}, fmt.Errorf("failed to parse response: %w, body: %s", err, string(body))
	}
	if result.Error != "" || resp.StatusCode >= 400 {
		desc := result.ErrorDescription
		if desc == "" {
			desc = result.Message
		}
		return Token{}, fmt.Errorf("twitch api error: status %d: %s %s", resp.StatusCode, result.Error, desc)
	}
	if result.AccessToken == "" {
		return Token{}, errors.New("access_token not found in response")
	}
	if result.ExpiresIn <= 0 {
		return Token{}, errors.New("expires_in not found in response")
	}

	return Token{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		Scope:        strings.Join(result.Scope, " "),
		ExpiresAt:    time.Now().Unix() + result.ExpiresIn,
	}, nil
}

// GetTwitchToken exchanges an authorization code and stores the token.
func GetTwitchToken(code string) (Token, error) {
	clientID, clientSecret := credentials()
	t, err := requestToken(url.Values{
		"client_id":     {clientID},
		"client_secret": {clientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {getCallbackURL()},
	})
	if err != nil {
		return Token{}, err
	}
	if err := t.SaveToken(); err != nil {
		return Token{}, err
	}
	return t, nil
}

// GetOrRefreshToken は有効なトークンを取得するか、無効な場合はリフレッシュを試みます
// 戻り値: (token, isValid, error)
func GetOrRefreshToken() (Token, bool, error) {
	token, isValid, err := GetLatestToken()
	if err != nil {
		return Token{}, false, err
	}
	if isValid {
		return token, true, nil
	}

	// リフレッシュトークンがない場合は再認証が必要
	if token.RefreshToken == "" {
		return token, false, nil
	}

	if err := token.RefreshTwitchToken(); err != nil {
		return token, false, err
	}
	return GetLatestToken()
}

func (t *Token) RefreshTwitchToken() error {
	clientID, clientSecret := credentials()
	refreshed, err := requestToken(url.Values{
		"client_id":     {clientID},
		"client_secret": {clientSecret},
		"refresh_token": {t.RefreshToken},
		"grant_type":    {"refresh_token"},
	})
	if err != nil {
		return err
	}
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = t.RefreshToken
	}
	*t = refreshed
	return t.SaveToken()
}

// getCallbackURL はコールバックURLを生成します
func getCallbackURL() string {
	port := 8080
	if env.Value.ServerPort != 0 {
		port = env.Value.ServerPort
	}
	return fmt.Sprintf("http://localhost:%d/callback", port)
}

func GetAuthURL() string {
	clientID, _ := credentials()
	return fmt.Sprintf(
		"%s?response_type=code&client_id=%s&redirect_uri=%s&scope=%s",
		authorizeEndpoint,
		url.QueryEscape(clientID),
		url.QueryEscape(getCallbackURL()),
		url.QueryEscape(strings.Join(scopes, " ")),
	)
}
