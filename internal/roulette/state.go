package roulette

import "time"

type Phase string

const (
	PhaseIdle     Phase = "IDLE"
	PhaseSpinning Phase = "SPINNING"
	PhaseSettled  Phase = "SETTLED"
)

// activeSpin is owned by the orchestrator loop. Never shared outside of it.
type activeSpin struct {
	generation uint64
	event      RedemptionEvent
	outcome    Outcome
	variant    string
	landing    Landing
	commentary string
	remote     bool
	duration   time.Duration
	startedAt  time.Time
	settledAt  time.Time
}

// SpinView is the read-only view of the active spin.
type SpinView struct {
	SpinID     uint64          `json:"spinId"`
	Event      RedemptionEvent `json:"event"`
	Outcome    Outcome         `json:"outcome"`
	Banner     string          `json:"banner,omitempty"`
	Variant    string          `json:"variant"`
	Landing    Landing         `json:"landing"`
	Commentary string          `json:"commentary"`
	AIText     bool            `json:"aiText"`
	DurationMs int64           `json:"durationMs"`
	StartedAt  time.Time       `json:"startedAt"`
	SettledAt  *time.Time      `json:"settledAt,omitempty"`
}

// Snapshot is everything the overlay renders.
type Snapshot struct {
	Phase      Phase      `json:"phase"`
	QueueDepth int        `json:"queueDepth"`
	Spin       *SpinView  `json:"spin,omitempty"`
	Appearance Appearance `json:"appearance"`
}

func (s *activeSpin) view(phase Phase) *SpinView {
	v := &SpinView{
		SpinID:     s.generation,
		Event:      s.event,
		Outcome:    s.outcome,
		Variant:    s.variant,
		Landing:    s.landing,
		DurationMs: s.duration.Milliseconds(),
		StartedAt:  s.startedAt,
	}
	// 結果バナーと実況は止まってから出す
	if phase == PhaseSettled {
		settled := s.settledAt
		v.SettledAt = &settled
		v.Banner = s.outcome.Banner()
		v.Commentary = s.commentary
		v.AIText = s.remote
	}
	return v
}
