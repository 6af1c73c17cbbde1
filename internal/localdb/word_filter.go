package localdb

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ichi0g0y/chill-roulette/internal/shared/logger"
	"go.uber.org/zap"
)

const (
	WordTypeBad  = "bad"
	WordTypeGood = "good"
)

var (
	ErrWordExists   = errors.New("word already exists")
	ErrWordNotFound = errors.New("word not found")
)

// WordFilterWord is one entry of the commentary block/allow list.
// "good" entries whitelist phrases that contain a bad word.
type WordFilterWord struct {
	ID       int    `json:"id"`
	Language string `json:"language"`
	Word     string `json:"word"`
	Type     string `json:"type"`
}

func GetWordFilterWords(language string) ([]WordFilterWord, error) {
	db := GetDB()
	if db == nil {
		return nil, ErrDatabaseNotInitialized
	}

	rows, err := db.Query(
		`SELECT id, language, word, type FROM word_filter_words WHERE language = ? ORDER BY type, word`,
		language,
	)
	if err != nil {
		logger.Error("Failed to get word filter words", zap.Error(err), zap.String("language", language))
		return nil, fmt.Errorf("failed to get word filter words: %w", err)
	}
	defer rows.Close()

	words := []WordFilterWord{}
	for rows.Next() {
		var w WordFilterWord
		if err := rows.Scan(&w.ID, &w.Language, &w.Word, &w.Type); err != nil {
			return nil, fmt.Errorf("failed to scan word filter word: %w", err)
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

func AddWordFilterWord(language, word, wordType string) (*WordFilterWord, error) {
	db := GetDB()
	if db == nil {
		return nil, ErrDatabaseNotInitialized
	}

	language = strings.TrimSpace(strings.ToLower(language))
	word = strings.TrimSpace(strings.ToLower(word))
	if language == "" || word == "" {
		return nil, fmt.Errorf("language and word are required")
	}
	if wordType != WordTypeBad && wordType != WordTypeGood {
		return nil, fmt.Errorf("invalid word type: %s (must be 'bad' or 'good')", wordType)
	}

	result, err := db.Exec(
		`INSERT INTO word_filter_words (language, word, type) VALUES (?, ?, ?)`,
		language, word, wordType,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, ErrWordExists
		}
		logger.Error("Failed to add word filter word", zap.Error(err))
		return nil, fmt.Errorf("failed to add word filter word: %w", err)
	}

	id, _ := result.LastInsertId()
	return &WordFilterWord{ID: int(id), Language: language, Word: word, Type: wordType}, nil
}

func DeleteWordFilterWord(id int) error {
	db := GetDB()
	if db == nil {
		return ErrDatabaseNotInitialized
	}

	result, err := db.Exec(`DELETE FROM word_filter_words WHERE id = ?`, id)
	if err != nil {
		logger.Error("Failed to delete word filter word", zap.Error(err), zap.Int("id", id))
		return fmt.Errorf("failed to delete word filter word: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrWordNotFound
	}
	return nil
}

// BulkInsertWordFilterWords inserts in one transaction, skipping duplicates.
func BulkInsertWordFilterWords(words []WordFilterWord) (int, error) {
	db := GetDB()
	if db == nil {
		return 0, ErrDatabaseNotInitialized
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO word_filter_words (language, word, type) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, w := range words {
		res, err := stmt.Exec(strings.ToLower(w.Language), strings.ToLower(strings.TrimSpace(w.Word)), w.Type)
		if err != nil {
			logger.Warn("Failed to insert word", zap.Error(err), zap.String("word", w.Word))
			continue
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inserted, nil
}

func GetWordFilterLanguages() ([]string, error) {
	db := GetDB()
	if db == nil {
		return nil, ErrDatabaseNotInitialized
	}

	rows, err := db.Query(`SELECT DISTINCT language FROM word_filter_words ORDER BY language`)
	if err != nil {
		return nil, fmt.Errorf("failed to get word filter languages: %w", err)
	}
	defer rows.Close()

	languages := []string{}
	for rows.Next() {
		var lang string
		if err := rows.Scan(&lang); err != nil {
			return nil, err
		}
		languages = append(languages, lang)
	}
	return languages, rows.Err()
}

// 初回シード済みかどうかは settings の system キーで管理
func IsWordFilterSeeded() (bool, error) {
	db := GetDB()
	if db == nil {
		return false, ErrDatabaseNotInitialized
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM settings WHERE key = 'word_filter_seeded'`).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func MarkWordFilterSeeded() error {
	db := GetDB()
	if db == nil {
		return ErrDatabaseNotInitialized
	}

	_, err := db.Exec(
		`INSERT OR REPLACE INTO settings (key, value, setting_type) VALUES ('word_filter_seeded', 'true', 'system')`,
	)
	return err
}
