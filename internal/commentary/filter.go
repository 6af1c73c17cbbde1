package commentary

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

// WordFilter rejects commentary containing blocked words.
type WordFilter interface {
	ContainsBlocked(text string) bool
}

// matchesLanguage reports whether text reads as the expected ISO 639-3 language.
// 判定があいまいな短文は通す
func matchesLanguage(text, lang string) bool {
	lang = strings.TrimSpace(strings.ToLower(lang))
	if lang == "" {
		return true
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return true
	}
	return info.Lang.Iso6393() == lang
}
