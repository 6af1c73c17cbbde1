package roulette

const (
	WheelSegments    = 12
	SegmentAngle     = 360 / WheelSegments
	minExtraTurns    = 10
	extraTurnsSpread = 5
)

// Landing tells the overlay where the wheel has to stop.
// Even segments are WIN, odd segments are LOSE.
type Landing struct {
	Segment     int `json:"segment"`
	ExtraTurns  int `json:"extraTurns"`
	TargetAngle int `json:"targetAngle"`
}

// SegmentOutcome returns the outcome drawn on a segment.
func SegmentOutcome(segment int) Outcome {
	if segment%2 == 0 {
		return OutcomeWin
	}
	return OutcomeLose
}

// PlanLanding picks a random segment matching the outcome and a number of full turns.
func PlanLanding(outcome Outcome) Landing {
	// 同じ結果のセグメントは半分ずつ
	slot := pickIndex(WheelSegments / 2)
	segment := slot * 2
	if outcome == OutcomeLose {
		segment++
	}
	return Landing{
		Segment:     segment,
		ExtraTurns:  minExtraTurns + pickIndex(extraTurnsSpread),
		TargetAngle: segment*SegmentAngle + SegmentAngle/2,
	}
}

// TotalRotation is the absolute rotation in degrees from a given start.
func (l Landing) TotalRotation(current int) int {
	return current + l.ExtraTurns*360 + l.TargetAngle
}
