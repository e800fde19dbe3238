package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestSQLiteStorage_Backup(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := store.SaveReceipts(ctx, createTestReceipts(3)); err != nil {
		t.Fatalf("SaveReceipts() error = %v", err)
	}

	dest := filepath.Join(t.TempDir(), "backups", "raseed-backup.db")
	if err := store.Backup(ctx, dest); err != nil {
		t.Fatalf("Backup() error = %v", err)
	}

	restored, err := NewSQLiteStorage(dest)
	if err != nil {
		t.Fatalf("open backup: %v", err)
	}
	defer func() { _ = restored.Close() }()

	count, err := restored.CountReceipts(ctx)
	if err != nil {
		t.Fatalf("CountReceipts() error = %v", err)
	}
	if count != 3 {
		t.Errorf("backup has %d receipts, want 3", count)
	}

	if err := store.Backup(ctx, dest); !errors.Is(err, ErrInvalidBackupPath) {
		t.Errorf("Backup(existing) error = %v, want ErrInvalidBackupPath", err)
	}
}

func TestValidateBackupPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "absolute", path: "/tmp/raseed.db"},
		{name: "relative", path: "raseed.db", wantErr: true},
		{name: "traversal", path: "/tmp/../etc/raseed.db", wantErr: true},
		{name: "quote", path: "/tmp/it's.db", wantErr: true},
		{name: "semicolon", path: "/tmp/a;b.db", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateBackupPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateBackupPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}
