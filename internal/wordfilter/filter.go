// Package wordfilter blocks AI commentary that contains words from the sqlite block list.
package wordfilter

import (
	"strings"
	"sync"
	"unicode"

	"github.com/ichi0g0y/chill-roulette/internal/localdb"
	"github.com/ichi0g0y/chill-roulette/internal/shared/logger"
	"go.uber.org/zap"
)

type Options struct {
	// Language returns the ISO 639-3 list to check. Defaults to "spa".
	Language func() string
	// Enabled turns the filter off without clearing the lists.
	Enabled func() bool
}

type wordList struct {
	bad  []string
	good []string
}

// Filter caches one list per language until Invalidate is called.
type Filter struct {
	opts Options

	mu    sync.Mutex
	lists map[string]*wordList
}

func NewFilter(opts Options) *Filter {
	if opts.Language == nil {
		opts.Language = func() string { return "spa" }
	}
	if opts.Enabled == nil {
		opts.Enabled = func() bool { return true }
	}
	return &Filter{opts: opts, lists: make(map[string]*wordList)}
}

// Invalidate drops the cache after the lists were edited.
func (f *Filter) Invalidate() {
	f.mu.Lock()
	f.lists = make(map[string]*wordList)
	f.mu.Unlock()
}

// ContainsBlocked reports whether text has a bad word that no good phrase covers.
func (f *Filter) ContainsBlocked(text string) bool {
	if !f.opts.Enabled() {
		return false
	}
	lang := strings.ToLower(strings.TrimSpace(f.opts.Language()))
	if lang == "" {
		lang = "spa"
	}
	list := f.load(lang)
	if list == nil || len(list.bad) == 0 {
		return false
	}

	normalized := " " + strings.Join(tokenize(text), " ") + " "
	for _, good := range list.good {
		normalized = strings.ReplaceAll(normalized, " "+good+" ", "  ")
	}
	for _, bad := range list.bad {
		if strings.Contains(normalized, " "+bad+" ") {
			logger.Debug("Commentary blocked by word filter", zap.String("word", bad), zap.String("language", lang))
			return true
		}
	}
	return false
}

func (f *Filter) load(lang string) *wordList {
	f.mu.Lock()
	defer f.mu.Unlock()
	if list, ok := f.lists[lang]; ok {
		return list
	}

	words, err := localdb.GetWordFilterWords(lang)
	if err != nil {
		logger.Warn("Failed to load word filter", zap.String("language", lang), zap.Error(err))
		return nil
	}
	list := &wordList{}
	for _, w := range words {
		phrase := strings.Join(tokenize(w.Word), " ")
		if phrase == "" {
			continue
		}
		if w.Type == localdb.WordTypeGood {
			list.good = append(list.good, phrase)
		} else {
			list.bad = append(list.bad, phrase)
		}
	}
	f.lists[lang] = list
	return list
}

// tokenize lowercases and splits on anything that is not a letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
