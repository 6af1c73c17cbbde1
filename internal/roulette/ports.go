package roulette

import "context"

// CommentaryRequest is the context handed to the remote commentary backend.
type CommentaryRequest struct {
	Username   string
	Outcome    Outcome
	QueueDepth int
	Variant    string
}

// CommentaryProvider must never fail: FetchRemote returns "" on any problem
// and LocalTemplate always returns a non-empty line.
type CommentaryProvider interface {
	FetchRemote(ctx context.Context, req CommentaryRequest) string
	LocalTemplate(username string, outcome Outcome) string
}

type UtteranceKind string

const (
	UtteranceAnnounce   UtteranceKind = "announce"
	UtteranceCommentary UtteranceKind = "commentary"
	// UtterancePreview is spoken from the settings panel, outside any spin.
	UtterancePreview UtteranceKind = "preview"
)

type Utterance struct {
	Kind   UtteranceKind `json:"kind"`
	SpinID uint64        `json:"spinId"`
	Text   string        `json:"text"`
	Voice  string        `json:"voice"`
	Pitch  float64       `json:"pitch"`
	Rate   float64       `json:"rate"`
}

// Speaker is fire-and-forget. Implementations must not block.
type Speaker interface {
	Speak(u Utterance)
}

// StateSink receives a snapshot after every transition. Must not block.
type StateSink interface {
	PublishState(s Snapshot)
}

// ConfigSource is read once per spin.
type ConfigSource interface {
	RouletteConfig() Config
}

// StaticConfig serves a fixed config.
type StaticConfig Config

func (c StaticConfig) RouletteConfig() Config {
	return Config(c)
}
