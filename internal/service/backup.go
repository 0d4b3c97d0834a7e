package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/jasebbot/internal/config"
	"github.com/set-night/jasebbot/internal/repository"
)

// BackupArchive stores backups outside the local disk.
type BackupArchive interface {
	Save(ctx context.Context, b *repository.Backup) (uuid.UUID, error)
	Prune(ctx context.Context, keep time.Duration) (int64, error)
}

type BackupService struct {
	files   *repository.FileBackup
	archive BackupArchive
}

// NewBackupService creates the service. archive may be nil.
func NewBackupService(files *repository.FileBackup, archive BackupArchive) *BackupService {
	return &BackupService{files: files, archive: archive}
}

// Create writes a timestamped copy and archives it when an archive is set.
// Archive failures are logged and do not fail the backup.
func (s *BackupService) Create(ctx context.Context) (*repository.Backup, error) {
	b, err := s.files.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("create backup: %w", err)
	}
	slog.Info("backup created", "path", b.Path, "bytes", len(b.Data))

	if s.archive == nil {
		return b, nil
	}

	id, err := s.archive.Save(ctx, b)
	if err != nil {
		slog.Error("archive backup", "error", err, "name", b.Name)
		return b, nil
	}
	slog.Debug("backup archived", "id", id, "name", b.Name)

	if n, err := s.archive.Prune(ctx, config.BackupRetention); err != nil {
		slog.Warn("prune archived backups", "error", err)
	} else if n > 0 {
		slog.Info("pruned archived backups", "count", n)
	}
	return b, nil
}
