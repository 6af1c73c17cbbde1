package twitcheventsub

import (
	"testing"
	"time"

	"github.com/ichi0g0y/chill-roulette/internal/roulette"
	"github.com/joeyak/go-twitch-eventsub/v3"
)

type recordingSink struct {
	events []roulette.RedemptionEvent
}

func (r *recordingSink) Enqueue(e roulette.RedemptionEvent) roulette.RedemptionEvent {
	r.events = append(r.events, e)
	return e
}

type staticTrigger struct{ id, title string }

func (s staticTrigger) RewardTrigger() (string, string) { return s.id, s.title }

func redemption(id, rewardID, title, userName, login string) twitch.EventChannelChannelPointsCustomRewardRedemptionAdd {
	var evt twitch.EventChannelChannelPointsCustomRewardRedemptionAdd
	evt.ID = id
	evt.User.UserID = "u-" + login
	evt.User.UserLogin = login
	evt.User.UserName = userName
	evt.Reward.ID = rewardID
	evt.Reward.Title = title
	evt.UserInput = "hola"
	evt.RedeemedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return evt
}

func TestMatchesTrigger(t *testing.T) {
	evt := redemption("r1", "reward-1", "  Congelar  ", "Bob", "bob")

	cases := []struct {
		name      string
		id, title string
		want      bool
	}{
		{"no filter accepts all", "", "", true},
		{"id match", "reward-1", "", true},
		{"id mismatch", "reward-2", "", false},
		{"id wins over title", "reward-2", "Congelar", false},
		{"title case-insensitive", "", "congelar", true},
		{"title mismatch", "", "Hidratarse", false},
		{"blank id falls back to title", "   ", "CONGELAR", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MatchesTrigger(evt, tc.id, tc.title); got != tc.want {
				t.Fatalf("MatchesTrigger(%q, %q) = %v, want %v", tc.id, tc.title, got, tc.want)
			}
		})
	}
}

func TestToRedemptionEvent(t *testing.T) {
	e := ToRedemptionEvent(redemption("r1", "reward-1", "Congelar", "", "bob_login"))
	if e.ID != "r1" || e.Username != "bob_login" || e.UserID != "u-bob_login" {
		t.Fatalf("unexpected mapping: %+v", e)
	}
	if e.RewardID != "reward-1" || e.RewardName != "Congelar" || e.UserInput != "hola" {
		t.Fatalf("unexpected reward mapping: %+v", e)
	}
	if !e.Timestamp.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("Timestamp = %v", e.Timestamp)
	}

	anon := ToRedemptionEvent(redemption("", "reward-1", "Congelar", "", ""))
	if anon.Username != roulette.AnonymousUsername {
		t.Fatalf("expected anonymous username, got %q", anon.Username)
	}
	if anon.ID == "" {
		t.Fatalf("expected a generated id")
	}
}

func TestHandleRedemption_FiltersAndForwards(t *testing.T) {
	rec := &recordingSink{}
	SetSink(rec, staticTrigger{title: "Congelar"})
	t.Cleanup(func() { SetSink(nil, nil) })

	HandleChannelPointsCustomRedemptionAdd(redemption("r1", "reward-1", "Congelar", "Bob", "bob"))
	HandleChannelPointsCustomRedemptionAdd(redemption("r2", "reward-2", "Hidratarse", "Ana", "ana"))
	HandleChannelPointsCustomRedemptionAdd(redemption("r3", "reward-1", "congelar", "Carl", "carl"))

	if len(rec.events) != 2 {
		t.Fatalf("expected 2 forwarded events, got %d", len(rec.events))
	}
	if rec.events[0].Username != "Bob" || rec.events[1].Username != "Carl" {
		t.Fatalf("unexpected order: %+v", rec.events)
	}
}

func TestHandleRedemption_NoSink(t *testing.T) {
	SetSink(nil, nil)
	// パニックしないこと
	HandleChannelPointsCustomRedemptionAdd(redemption("r1", "reward-1", "Congelar", "Bob", "bob"))
}
