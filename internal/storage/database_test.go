package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()
	blocker := filepath.Join(tmpDir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{
			name: "valid path",
			path: filepath.Join(tmpDir, "test.db"),
		},
		{
			name: "nested dir is created",
			path: filepath.Join(tmpDir, "a", "b", "trace.db"),
		},
		{
			name:    "parent is a file",
			path:    filepath.Join(blocker, "trace.db"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := New(tt.path)

			if tt.wantErr {
				if err == nil {
					t.Errorf("New() expected error, got nil")
				}
				if db != nil {
					_ = db.Close()
				}
				return
			}

			if err != nil {
				t.Fatalf("New() unexpected error: %v", err)
			}
			if db.Stats().MaxOpenConnections != 1 {
				t.Errorf("New() MaxOpenConnections = %v, want 1", db.Stats().MaxOpenConnections)
			}
			_ = db.Close()
		})
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	for i := 0; i < 2; i++ {
		if err := Migrate(db); err != nil {
			t.Fatalf("Migrate() run %d error = %v", i+1, err)
		}
	}

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='traces'").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to check table: %v", err)
	}
	if count != 1 {
		t.Error("Migrate() traces table not created")
	}
}
