package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *CacheDB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "cache.db")
	db, err := NewCacheDB(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	for _, schema := range AllCacheSchemas {
		require.NoError(t, db.CreateTable(schema))
	}
	return db
}

func TestSetAndGet(t *testing.T) {
	db := newTestCache(t)

	require.NoError(t, db.Set(ESTCCacheTable, "R13852", `{"title":"A Sermon"}`))

	data, hit, err := db.Get(ESTCCacheTable, "R13852", time.Hour)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, `{"title":"A Sermon"}`, data)
}

func TestGetMiss(t *testing.T) {
	db := newTestCache(t)

	_, hit, err := db.Get(ESTCCacheTable, "missing", time.Hour)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestGetExpired(t *testing.T) {
	db := newTestCache(t)

	require.NoError(t, db.Set(ESTCCacheTable, "R13852", `{}`))

	// Zero TTL makes everything stale immediately.
	_, hit, err := db.Get(ESTCCacheTable, "R13852", 0)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestInvalidTableName(t *testing.T) {
	db := newTestCache(t)

	err := db.Set("books; DROP TABLE estc_cache", "k", "v")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cache table name")
}

func TestGetOrFetch(t *testing.T) {
	require.NoError(t, ResetGlobalCache())
	t.Cleanup(func() {
		_ = ResetGlobalCache()
		viper.Reset()
	})

	viper.Set("cache.dbfile", filepath.Join(t.TempDir(), "cache.db"))
	viper.Set("cache.ttl", "1h")

	type record struct {
		Title string `json:"title"`
	}

	fetches := 0
	fetch := func() (record, error) {
		fetches++
		return record{Title: "A Sermon"}, nil
	}

	first, fromCache, err := GetOrFetch(ESTCCacheTable, "R13852", fetch)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, "A Sermon", first.Title)

	second, fromCache, err := GetOrFetch(ESTCCacheTable, "R13852", fetch)
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, fetches)
}
