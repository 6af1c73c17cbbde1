package roulette

import (
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// AnonymousUsername replaces blank usernames coming from the feed.
const AnonymousUsername = "Anónimo"

// RedemptionEvent is one channel-point redemption. Treat it as immutable.
type RedemptionEvent struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	UserID     string    `json:"userId,omitempty"`
	RewardID   string    `json:"rewardId,omitempty"`
	RewardName string    `json:"rewardName"`
	UserInput  string    `json:"userInput,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewRedemptionEvent normalizes feed input: blank usernames become AnonymousUsername,
// a blank id gets a generated one and a zero timestamp becomes now.
func NewRedemptionEvent(e RedemptionEvent) RedemptionEvent {
	e.Username = SafeUsername(e.Username)
	e.ID = strings.TrimSpace(e.ID)
	if e.ID == "" {
		if id, err := gonanoid.New(); err == nil {
			e.ID = "local-" + id
		} else {
			e.ID = "local-" + time.Now().Format("20060102150405.000000000")
		}
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return e
}

func SafeUsername(username string) string {
	username = strings.TrimSpace(username)
	if username == "" {
		return AnonymousUsername
	}
	return username
}
