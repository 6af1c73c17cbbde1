package localdb

import (
	"errors"
	"path/filepath"
	"testing"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	_ = Close()
	if _, err := SetupDB(filepath.Join(t.TempDir(), "test.db")); err != nil {
		t.Fatalf("SetupDB: %v", err)
	}
	t.Cleanup(func() { _ = Close() })
}

func TestSetupDB_Idempotent(t *testing.T) {
	setupTestDB(t)
	first := GetDB()
	again, err := SetupDB(filepath.Join(t.TempDir(), "other.db"))
	if err != nil {
		t.Fatalf("SetupDB again: %v", err)
	}
	if again != first {
		t.Fatalf("expected the existing connection to be reused")
	}
}

func TestTokens_SaveAndLoad(t *testing.T) {
	setupTestDB(t)

	if _, err := GetLatestToken(); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}

	if err := SaveToken(Token{AccessToken: "a1", RefreshToken: "r1", Scope: "channel:read:redemptions", ExpiresAt: 100}); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	if err := SaveToken(Token{AccessToken: "a2", RefreshToken: "r2", Scope: "channel:read:redemptions", ExpiresAt: 200}); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}

	got, err := GetLatestToken()
	if err != nil {
		t.Fatalf("GetLatestToken: %v", err)
	}
	if got.AccessToken != "a2" || got.RefreshToken != "r2" || got.ExpiresAt != 200 {
		t.Fatalf("unexpected token: %+v", got)
	}

	var count int
	if err := GetDB().QueryRow(`SELECT COUNT(*) FROM tokens`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single token row, got %d", count)
	}

	if err := DeleteAllTokens(); err != nil {
		t.Fatalf("DeleteAllTokens: %v", err)
	}
	if _, err := GetLatestToken(); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken after delete, got %v", err)
	}
}

func TestWordFilter_CRUD(t *testing.T) {
	setupTestDB(t)

	w, err := AddWordFilterWord("SPA", " Tonto ", WordTypeBad)
	if err != nil {
		t.Fatalf("AddWordFilterWord: %v", err)
	}
	if w.Language != "spa" || w.Word != "tonto" {
		t.Fatalf("expected normalized entry, got %+v", w)
	}
	if _, err := AddWordFilterWord("spa", "tonto", WordTypeBad); !errors.Is(err, ErrWordExists) {
		t.Fatalf("expected ErrWordExists, got %v", err)
	}
	if _, err := AddWordFilterWord("spa", "x", "ugly"); err == nil {
		t.Fatalf("expected invalid type error")
	}

	n, err := BulkInsertWordFilterWords([]WordFilterWord{
		{Language: "spa", Word: "tonto", Type: WordTypeBad},
		{Language: "spa", Word: "idiota", Type: WordTypeBad},
		{Language: "eng", Word: "idiot", Type: WordTypeBad},
	})
	if err != nil {
		t.Fatalf("BulkInsertWordFilterWords: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 new rows, got %d", n)
	}

	words, err := GetWordFilterWords("spa")
	if err != nil {
		t.Fatalf("GetWordFilterWords: %v", err)
	}
	if len(words) != 2 {
		t.Fatalf("expected 2 spa words, got %d", len(words))
	}

	langs, err := GetWordFilterLanguages()
	if err != nil {
		t.Fatalf("GetWordFilterLanguages: %v", err)
	}
	if len(langs) != 2 || langs[0] != "eng" || langs[1] != "spa" {
		t.Fatalf("unexpected languages: %v", langs)
	}

	if err := DeleteWordFilterWord(w.ID); err != nil {
		t.Fatalf("DeleteWordFilterWord: %v", err)
	}
	if err := DeleteWordFilterWord(w.ID); !errors.Is(err, ErrWordNotFound) {
		t.Fatalf("expected ErrWordNotFound, got %v", err)
	}
}

func TestWordFilter_SeededFlag(t *testing.T) {
	setupTestDB(t)

	seeded, err := IsWordFilterSeeded()
	if err != nil || seeded {
		t.Fatalf("expected not seeded, got %v %v", seeded, err)
	}
	if err := MarkWordFilterSeeded(); err != nil {
		t.Fatalf("MarkWordFilterSeeded: %v", err)
	}
	seeded, err = IsWordFilterSeeded()
	if err != nil || !seeded {
		t.Fatalf("expected seeded, got %v %v", seeded, err)
	}
}

func TestNotInitialized(t *testing.T) {
	_ = Close()
	if _, err := GetLatestToken(); !errors.Is(err, ErrDatabaseNotInitialized) {
		t.Fatalf("expected ErrDatabaseNotInitialized, got %v", err)
	}
	if _, err := GetWordFilterWords("spa"); !errors.Is(err, ErrDatabaseNotInitialized) {
		t.Fatalf("expected ErrDatabaseNotInitialized, got %v", err)
	}
}
