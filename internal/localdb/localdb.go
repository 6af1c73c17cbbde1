package localdb

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/ichi0g0y/chill-roulette/internal/shared/logger"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var ErrDatabaseNotInitialized = errors.New("database not initialized")

var (
	dbMu     sync.Mutex
	DBClient *sql.DB
)

var schema = []struct {
	name string
	ddl  string
}{
	{"tokens", `CREATE TABLE IF NOT EXISTS tokens (
		id INTEGER PRIMARY KEY,
		access_token TEXT,
		refresh_token TEXT,
		scope TEXT,
		expires_at INTEGER
	)`},
	{"settings", `CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		setting_type TEXT NOT NULL DEFAULT 'normal',
		is_required BOOLEAN NOT NULL DEFAULT false,
		description TEXT,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`},
	{"word_filter_words", `CREATE TABLE IF NOT EXISTS word_filter_words (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		language TEXT NOT NULL,
		word TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT 'bad',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(language, word, type)
	)`},
}

func SetupDB(dbPath string) (*sql.DB, error) {
	dbMu.Lock()
	defer dbMu.Unlock()
	if DBClient != nil {
		return DBClient, nil
	}

	// WALモードとBusy Timeoutを設定（Race Condition対策）
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	// SQLiteは単一ライターなので接続プールを1に制限
	db.SetMaxOpenConns(1)

	for _, table := range schema {
		if _, err := db.Exec(table.ddl); err != nil {
			logger.Error("Failed to create table", zap.String("table", table.name), zap.Error(err))
			db.Close()
			return nil, fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	DBClient = db
	return db, nil
}

// GetDB は現在のデータベース接続を返します
func GetDB() *sql.DB {
	dbMu.Lock()
	defer dbMu.Unlock()
	return DBClient
}

// Close closes the shared connection so SetupDB can open a new one.
func Close() error {
	dbMu.Lock()
	defer dbMu.Unlock()
	if DBClient == nil {
		return nil
	}
	err := DBClient.Close()
	DBClient = nil
	return err
}
