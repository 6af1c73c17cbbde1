package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureDataDirs_UsesOverride(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	t.Setenv("CHILL_ROULETTE_DATA_DIR", dir)

	if err := EnsureDataDirs(); err != nil {
		t.Fatalf("EnsureDataDirs failed: %v", err)
	}
	if got := GetDBPath(); got != filepath.Join(dir, "local.db") {
		t.Fatalf("unexpected db path: got=%q", got)
	}
	if _, err := os.Stat(GetLogDir()); err != nil {
		t.Fatalf("log dir not created: %v", err)
	}
}
