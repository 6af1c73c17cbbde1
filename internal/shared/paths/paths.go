package paths

import (
	"os"
	"path/filepath"
)

const appDirName = ".chill-roulette"

// GetDataDir はデータディレクトリ（~/.chill-roulette）を返す
// CHILL_ROULETTE_DATA_DIR が設定されていればそちらを優先する
func GetDataDir() string {
	if dir := os.Getenv("CHILL_ROULETTE_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return appDirName
	}
	return filepath.Join(home, appDirName)
}

func GetDBPath() string {
	return filepath.Join(GetDataDir(), "local.db")
}

func GetLogDir() string {
	return filepath.Join(GetDataDir(), "logs")
}

func GetLogPath() string {
	return filepath.Join(GetLogDir(), "server.log")
}

// EnsureDataDirs creates the data and log directories if missing.
func EnsureDataDirs() error {
	for _, dir := range []string{GetDataDir(), GetLogDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
