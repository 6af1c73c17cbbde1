package wordfilter

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/ichi0g0y/chill-roulette/internal/localdb"
	"github.com/ichi0g0y/chill-roulette/internal/shared/logger"
	"go.uber.org/zap"
)

// SeedDefaultWords loads the embedded lists once, on first startup.
func SeedDefaultWords() error {
	seeded, err := localdb.IsWordFilterSeeded()
	if err != nil {
		logger.Error("Failed to check word filter seeded status", zap.Error(err))
		return err
	}
	if seeded {
		return nil
	}

	words, err := defaultWords()
	if err != nil {
		return err
	}

	if len(words) > 0 {
		inserted, err := localdb.BulkInsertWordFilterWords(words)
		if err != nil {
			return fmt.Errorf("failed to bulk insert words: %w", err)
		}
		logger.Info("Seeded word filter", zap.Int("count", inserted))
	}

	if err := localdb.MarkWordFilterSeeded(); err != nil {
		return fmt.Errorf("failed to mark word filter as seeded: %w", err)
	}
	return nil
}

// defaultWords reads defaults/<lang>/{BadList,GoodList}.txt.
func defaultWords() ([]localdb.WordFilterWord, error) {
	var words []localdb.WordFilterWord

	err := fs.WalkDir(defaultWordLists, "defaults", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		var wordType string
		switch d.Name() {
		case "BadList.txt":
			wordType = localdb.WordTypeBad
		case "GoodList.txt":
			wordType = localdb.WordTypeGood
		default:
			return nil
		}

		data, err := defaultWordLists.ReadFile(p)
		if err != nil {
			logger.Error("Failed to read embedded word list", zap.Error(err), zap.String("path", p))
			return nil
		}

		lang := path.Base(path.Dir(p))
		for _, line := range strings.Split(string(data), "\n") {
			w := strings.TrimSpace(line)
			if w == "" || strings.HasPrefix(w, "#") {
				continue
			}
			words = append(words, localdb.WordFilterWord{Language: lang, Word: w, Type: wordType})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk embedded word lists: %w", err)
	}
	return words, nil
}
