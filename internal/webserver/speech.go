package webserver

import (
	"strings"

	"github.com/ichi0g0y/chill-roulette/internal/roulette"
)

var (
	_ roulette.Speaker   = (*WSHub)(nil)
	_ roulette.StateSink = (*WSHub)(nil)
)

// Speak forwards an utterance to the overlay, which reads it with the browser's speech synthesis.
func (h *WSHub) Speak(u roulette.Utterance) {
	if strings.TrimSpace(u.Text) == "" {
		return
	}
	h.Broadcast(MessageSpeak, u)
}

// PublishState pushes a snapshot to every overlay.
func (h *WSHub) PublishState(s roulette.Snapshot) {
	h.Broadcast(MessageRouletteState, s)
}
