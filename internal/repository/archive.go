package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresArchive keeps every document backup in the document_backups table.
type PostgresArchive struct {
	db *pgxpool.Pool
}

func NewPostgresArchive(db *pgxpool.Pool) *PostgresArchive {
	return &PostgresArchive{db: db}
}

func (a *PostgresArchive) Save(ctx context.Context, b *Backup) (uuid.UUID, error) {
	id := uuid.New()
	_, err := a.db.Exec(ctx,
		`INSERT INTO document_backups (id, name, payload, size_bytes, created_at) VALUES ($1, $2, $3, $4, $5)`,
		id, b.Name, b.Data, len(b.Data), b.CreatedAt,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert backup: %w", err)
	}
	return id, nil
}

// Prune removes archived backups older than keep.
func (a *PostgresArchive) Prune(ctx context.Context, keep time.Duration) (int64, error) {
	tag, err := a.db.Exec(ctx,
		`DELETE FROM document_backups WHERE created_at < $1`,
		time.Now().Add(-keep),
	)
	if err != nil {
		return 0, fmt.Errorf("prune backups: %w", err)
	}
	return tag.RowsAffected(), nil
}
