package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqvault/seqvault/internal/config"
	"github.com/seqvault/seqvault/internal/db/testdb"
)

func TestGenerateSessionID(t *testing.T) {
	a, err := GenerateSessionID()
	require.NoError(t, err)
	b, err := GenerateSessionID()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestManager(t *testing.T) {
	m := NewManager(NewGormStorage(testdb.Open(t)), time.Hour)
	assert.Equal(t, time.Hour, m.Expiry())

	id, err := m.Create(7)
	require.NoError(t, err)

	data, err := m.Read(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), data.UserID)
	assert.False(t, data.CreatedAt.IsZero())

	require.NoError(t, m.Delete(id))

	_, err = m.Read(id)
	require.ErrorIs(t, err, ErrSessionNotFound)

	_, err = m.Read("")
	require.ErrorIs(t, err, ErrSessionNotFound)

	_, err = m.Read("unknown")
	require.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, m.Close())
}

func TestGormStorageExpiry(t *testing.T) {
	db := testdb.Open(t)
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	s := NewGormStorage(db)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set("short", []byte("a"), time.Minute))
	require.NoError(t, s.Set("forever", []byte("b"), 0))

	got, err := s.Get("short")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), got)

	// overwrite keeps one row
	require.NoError(t, s.Set("short", []byte("c"), time.Minute))
	got, err = s.Get("short")
	require.NoError(t, err)
	assert.Equal(t, []byte("c"), got)

	now = now.Add(2 * time.Minute)

	got, err = s.Get("short")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = s.Get("forever")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), got)

	require.NoError(t, s.GC())

	var count int64
	require.NoError(t, db.Table("api_sessions").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.NoError(t, s.Reset())
	require.NoError(t, db.Table("api_sessions").Count(&count).Error)
	assert.Zero(t, count)
}

func TestNewStorageDefaultsToGorm(t *testing.T) {
	db := testdb.Open(t)

	s := NewStorage(&config.Config{DB: config.DB{GormEngine: config.EngineSQLite}}, db)
	_, ok := s.(*GormStorage)
	assert.True(t, ok)
}

func TestNewManagerPanicsWithoutStorage(t *testing.T) {
	assert.Panics(t, func() { NewManager(nil, time.Hour) })
}
