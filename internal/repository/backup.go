package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Backup is one timestamped copy of the document.
type Backup struct {
	Name      string
	Path      string
	Data      []byte
	CreatedAt time.Time
}

type FileBackup struct {
	store *Store
	dir   string
	now   func() time.Time
}

func NewFileBackup(store *Store, dir string) *FileBackup {
	return &FileBackup{store: store, dir: dir, now: time.Now}
}

// Create copies the current document into the backup directory.
func (b *FileBackup) Create(ctx context.Context) (*Backup, error) {
	data, err := b.store.Raw(ctx)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	now := b.now()
	name := fmt.Sprintf("data-%s.json", now.Format("20060102-150405"))
	path := filepath.Join(b.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write backup: %w", err)
	}

	return &Backup{Name: name, Path: path, Data: data, CreatedAt: now}, nil
}
