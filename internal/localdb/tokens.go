package localdb

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/ichi0g0y/chill-roulette/internal/shared/logger"
	"go.uber.org/zap"
)

var ErrNoToken = errors.New("no token stored")

type Token struct {
	AccessToken  string
	RefreshToken string
	Scope        string
	ExpiresAt    int64
}

// SaveToken replaces the stored token. Only one Twitch account is supported.
func SaveToken(t Token) error {
	db := GetDB()
	if db == nil {
		return ErrDatabaseNotInitialized
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tokens`); err != nil {
		return fmt.Errorf("failed to clear tokens: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO tokens (access_token, refresh_token, scope, expires_at) VALUES (?, ?, ?, ?)`,
		t.AccessToken, t.RefreshToken, t.Scope, t.ExpiresAt,
	); err != nil {
		logger.Error("Failed to save token", zap.Error(err))
		return fmt.Errorf("failed to save token: %w", err)
	}
	return tx.Commit()
}

func GetLatestToken() (Token, error) {
	db := GetDB()
	if db == nil {
		return Token{}, ErrDatabaseNotInitialized
	}

	var (
		t       Token
		refresh sql.NullString
		scope   sql.NullString
	)
	err := db.QueryRow(
		`SELECT access_token, refresh_token, scope, expires_at FROM tokens ORDER BY id DESC LIMIT 1`,
	).Scan(&t.AccessToken, &refresh, &scope, &t.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Token{}, ErrNoToken
	}
	if err != nil {
		return Token{}, fmt.Errorf("failed to load token: %w", err)
	}
	t.RefreshToken = refresh.String
	t.Scope = scope.String
	return t, nil
}

// DeleteAllTokens deletes all tokens from the database
// This is used when OAuth scopes are updated and re-authentication is required
func DeleteAllTokens() error {
	db := GetDB()
	if db == nil {
		return ErrDatabaseNotInitialized
	}

	if _, err := db.Exec("DELETE FROM tokens"); err != nil {
		logger.Error("Failed to delete tokens", zap.Error(err))
		return fmt.Errorf("failed to delete tokens: %w", err)
	}

	logger.Info("All tokens have been deleted (scope update requires re-authentication)")
	return nil
}
