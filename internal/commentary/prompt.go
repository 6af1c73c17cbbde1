package commentary

import (
	"fmt"
	"strings"

	"github.com/ichi0g0y/chill-roulette/internal/roulette"
)

const (
	persona     = `Eres "El Guardián del Congelador". Sarcástico, gracioso y rápido. Máximo 10 palabras. Responde siempre en español.`
	temperature = 0.95
)

// Prompt is what every backend sends: a system instruction plus the scenario.
type Prompt struct {
	System      string
	User        string
	Temperature float64
}

func BuildPrompt(req roulette.CommentaryRequest) Prompt {
	result := "SE SALVÓ (GANÓ)"
	if req.Outcome == roulette.OutcomeWin {
		result = "FUE ENFRIADO (PERDIÓ)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "El usuario \"%s\" %s.", roulette.SafeUsername(req.Username), result)
	if req.Variant != "" {
		fmt.Fprintf(&b, " La ruleta se llama \"%s\".", req.Variant)
	}
	if req.QueueDepth > 0 {
		fmt.Fprintf(&b, " Hay %d más esperando turno.", req.QueueDepth)
	}
	b.WriteString(" Reacciona sarcásticamente en español.")

	return Prompt{
		System:      persona,
		User:        b.String(),
		Temperature: temperature,
	}
}

// cleanCommentary trims whitespace and wrapping quotes models like to add.
func cleanCommentary(text string) string {
	text = strings.TrimSpace(text)
	for _, pair := range [][2]string{{`"`, `"`}, {"“", "”"}, {"«", "»"}, {"'", "'"}} {
		if len(text) >= len(pair[0])+len(pair[1]) && strings.HasPrefix(text, pair[0]) && strings.HasSuffix(text, pair[1]) {
			text = strings.TrimSpace(text[len(pair[0]) : len(text)-len(pair[1])])
		}
	}
	return text
}
