package memory

import (
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpen_DriverFailure(t *testing.T) {
	orig := openDB
	openDB = func(driverName, dataSourceName string) (*sql.DB, error) {
		return nil, errors.New("driver unavailable")
	}
	t.Cleanup(func() { openDB = orig })

	_, err := Open(Config{Path: filepath.Join(t.TempDir(), "memcord.db")})
	if err == nil {
		t.Fatal("expected an error when the driver fails to open")
	}
	if !strings.Contains(err.Error(), "open database") {
		t.Errorf("error = %v, want the open failure wrapped", err)
	}
}
