package twitchtoken

import (
	"strings"
	"time"

	"github.com/ichi0g0y/chill-roulette/internal/localdb"
)

// refreshMargin treats a token as expired slightly before Twitch does.
const refreshMargin = 5 * time.Minute

type Token struct {
	AccessToken  string `json:"-"`
	RefreshToken string `json:"-"`
	Scope        string `json:"scope"`
	ExpiresAt    int64  `json:"expires_at"`
}

// GetLatestToken は保存済みトークンと、その有効性を返します
func GetLatestToken() (Token, bool, error) {
	stored, err := localdb.GetLatestToken()
	if err != nil {
		return Token{}, false, err
	}
	t := Token(stored)
	return t, t.Valid(time.Now()), nil
}

func (t Token) Valid(now time.Time) bool {
	return t.AccessToken != "" && now.Add(refreshMargin).Unix() < t.ExpiresAt
}

// HasScopes reports whether every required scope was granted.
func (t Token) HasScopes() bool {
	granted := make(map[string]bool)
	for _, s := range strings.Fields(t.Scope) {
		granted[s] = true
	}
	for _, s := range scopes {
		if !granted[s] {
			return false
		}
	}
	return true
}

func (t Token) SaveToken() error {
	return localdb.SaveToken(localdb.Token(t))
}
