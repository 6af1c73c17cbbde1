package commentary

import (
	crand "crypto/rand"
	"math/big"

	"github.com/ichi0g0y/chill-roulette/internal/roulette"
)

var localMessages = map[roulette.Outcome][]string{
	roulette.OutcomeWin: {
		"¡F! Directo al refri ",
		"¡Congelado! ",
		"Hielo para ",
		"¡L! Disfruta el frío ",
	},
	roulette.OutcomeLose: {
		"¡Zafaste! ",
		"Muy caliente para el hielo ",
		"¡Poggers! Te salvaste ",
		"Sobreviviste, ",
	},
}

var pickTemplate = secureIndex

func secureIndex(n int) int {
	if n <= 1 {
		return 0
	}
	v, err := crand.Int(crand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// LocalTemplate picks a canned line for the outcome and appends the username.
func LocalTemplate(username string, outcome roulette.Outcome) string {
	templates := localMessages[outcome]
	if len(templates) == 0 {
		templates = localMessages[roulette.OutcomeLose]
	}
	idx := pickTemplate(len(templates))
	if idx < 0 || idx >= len(templates) {
		idx = 0
	}
	return templates[idx] + roulette.SafeUsername(username)
}

// Templates returns the canned lines for an outcome.
func Templates(outcome roulette.Outcome) []string {
	out := make([]string, len(localMessages[outcome]))
	copy(out, localMessages[outcome])
	return out
}
