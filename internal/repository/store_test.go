package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/set-night/jasebbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data.json"))
	require.NoError(t, err)
	return s
}

func TestNewStore_CreatesDefaults(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "nested", "data.json")

	s, err := NewStore(path)
	req.NoError(err)

	_, err = os.Stat(path)
	req.NoError(err)

	doc := s.View(context.Background())
	req.Empty(doc.Groups)
	req.Equal(domain.DefaultCooldownMinutes, doc.Settings.Cooldown.Default)
}

func TestStore_RoundTrip(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newTestStore(t)
	until := time.Unix(2_000_000_000, 0)

	err := s.Update(ctx, func(doc *domain.Document) error {
		doc.Premium[10] = domain.PermanentExpiry()
		doc.Premium[11] = domain.ExpiresAt(until)
		doc.Owner.Add(20)
		doc.Groups.Add(-1001)
		doc.Users.Add(30)
		doc.Blacklist.Add(40)
		doc.UserGroupCount[10] = 12
		doc.GroupAddedBy[-1001] = 10
		doc.Settings.Cooldown.Default = 7
		doc.StampUse(domain.FeatureShare, 30, until)
		doc.StampUse(domain.FeatureBroadcast, 20, until)
		return nil
	})
	req.NoError(err)

	doc := s.View(ctx)
	req.True(doc.Premium[10].Permanent)
	req.Equal(until.Unix(), doc.Premium[11].Until)
	req.Equal(domain.IDSet{20}, doc.Owner)
	req.Equal(domain.IDSet{-1001}, doc.Groups)
	req.Equal(domain.IDSet{30}, doc.Users)
	req.Equal(domain.IDSet{40}, doc.Blacklist)
	req.Equal(12, doc.UserGroupCount[10])
	req.Equal(int64(10), doc.GroupAddedBy[-1001])
	req.Equal(7, doc.Settings.Cooldown.Default)
	req.Equal(until.Unix(), doc.Cooldowns.Share[30])
	req.Equal(until.Unix(), doc.Cooldowns.Broadcast[20])
}

func TestStore_PartialDocumentIsMerged(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "data.json")
	req.NoError(os.WriteFile(path, []byte(`{"users":["5","6"],"premium":{"5":"permanent"}}`), 0o644))

	s, err := NewStore(path)
	req.NoError(err)

	doc := s.View(context.Background())
	req.Equal(domain.IDSet{5, 6}, doc.Users)
	req.True(doc.IsPremium(5, time.Now()))
	req.NotNil(doc.Cooldowns.Share)
	req.Equal(15*time.Minute, doc.CooldownWindow())
}

func TestStore_CorruptFileIsNotOverwritten(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "data.json")
	req.NoError(os.WriteFile(path, []byte(`{"groups": [`), 0o644))

	s, err := NewStore(path)
	req.NoError(err)

	// Reads degrade to defaults
	doc := s.View(context.Background())
	req.Empty(doc.Groups)

	// Mutations refuse to replace the file
	err = s.Update(context.Background(), func(doc *domain.Document) error {
		doc.Groups.Add(-1)
		return nil
	})
	req.ErrorIs(err, domain.ErrDocumentUnreadable)

	data, err := os.ReadFile(path)
	req.NoError(err)
	req.Equal(`{"groups": [`, string(data))
}

func TestStore_UpdateErrorSkipsWrite(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newTestStore(t)
	boom := errors.New("boom")

	err := s.Update(ctx, func(doc *domain.Document) error {
		doc.Groups.Add(-5)
		return boom
	})
	req.ErrorIs(err, boom)
	req.Empty(s.View(ctx).Groups)
}

func TestStore_ConcurrentUpdatesAreSerialized(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var wg sync.WaitGroup
	for i := 1; i <= 25; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_ = s.Update(ctx, func(doc *domain.Document) error {
				doc.Users.Add(id)
				return nil
			})
		}(int64(i))
	}
	wg.Wait()

	assert.Len(t, s.View(ctx).Users, 25)
}

func TestFileBackup_Create(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newTestStore(t)
	req.NoError(s.Update(ctx, func(doc *domain.Document) error {
		doc.Groups.Add(-42)
		return nil
	}))

	dir := filepath.Join(t.TempDir(), "backup")
	b := NewFileBackup(s, dir)
	b.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }

	backup, err := b.Create(ctx)
	req.NoError(err)
	req.Equal("data-20240506-070809.json", backup.Name)
	req.Equal(filepath.Join(dir, backup.Name), backup.Path)

	onDisk, err := os.ReadFile(backup.Path)
	req.NoError(err)
	req.Equal(backup.Data, onDisk)
	req.Contains(string(onDisk), "-42")
}

func TestFileBackup_MissingSource(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.Remove(s.Path()))

	_, err := NewFileBackup(s, t.TempDir()).Create(context.Background())
	require.ErrorIs(t, err, domain.ErrBackupSourceMissing)
}
