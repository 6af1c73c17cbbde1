package roulette

import (
	"encoding/json"
	"fmt"
	"math"
)

// Outcome is the binary result of a spin. WIN means the redeemer got chilled.
type Outcome int

const (
	OutcomeLose Outcome = iota
	OutcomeWin
)

func (o Outcome) String() string {
	if o == OutcomeWin {
		return "WIN"
	}
	return "LOSE"
}

// Banner returns the overlay label for the outcome.
func (o Outcome) Banner() string {
	if o == OutcomeWin {
		return "ENFRIADO"
	}
	return "A SALVO"
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

func (o *Outcome) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "WIN":
		*o = OutcomeWin
	case "LOSE":
		*o = OutcomeLose
	default:
		return fmt.Errorf("unknown outcome: %q", s)
	}
	return nil
}

// ClampProbability clamps p into [0,1]. NaN is treated as 0.
func ClampProbability(p float64) float64 {
	if math.IsNaN(p) || p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Decide draws one uniform sample in [0,1) and returns WIN iff it is below p.
func Decide(winProbability float64) Outcome {
	p := ClampProbability(winProbability)
	if drawUniform() < p {
		return OutcomeWin
	}
	return OutcomeLose
}
