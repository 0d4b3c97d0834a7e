package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/set-night/jasebbot/internal/domain"
)

// Store keeps the bot document in a single JSON file. Reads and mutations
// are serialized by one lock and always start from the file contents.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore opens the document at path, creating it with defaults if missing.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Warn("document not found, creating defaults", "path", path)
		if err := s.saveLocked(domain.NewDocument()); err != nil {
			return nil, fmt.Errorf("create document: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat document: %w", err)
	}
	return s, nil
}

func (s *Store) Path() string {
	return s.path
}

// View returns a fresh snapshot. Read failures fall back to the default
// document for this call only.
func (s *Store) View(ctx context.Context) *domain.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadLocked()
	if err != nil {
		slog.Error("load document, using defaults", "error", err, "path", s.path)
		return domain.NewDocument()
	}
	return doc
}

// Update applies fn to the current document and writes the result back.
// If fn returns an error nothing is written. A document that exists but
// cannot be parsed is never overwritten.
func (s *Store) Update(ctx context.Context, fn func(doc *domain.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadLocked()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDocumentUnreadable, err)
	}

	if err := fn(doc); err != nil {
		return err
	}
	doc.Normalize()

	if err := s.saveLocked(doc); err != nil {
		slog.Error("save document", "error", err, "path", s.path)
	}
	return nil
}

// Raw returns the document bytes as stored on disk.
func (s *Store) Raw(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrBackupSourceMissing
		}
		return nil, fmt.Errorf("read document: %w", err)
	}
	return data, nil
}

func (s *Store) loadLocked() (*domain.Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.NewDocument(), nil
		}
		return nil, fmt.Errorf("read document: %w", err)
	}

	doc := &domain.Document{}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
	}
	doc.Normalize()
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// saveLocked replaces the document atomically via a temp file.
func (s *Store) saveLocked(doc *domain.Document) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create document dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".data-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		tmp.Close()
		return fmt.Errorf("encode document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}
