package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStorePutGet(t *testing.T) {
	store := memStore(t)

	e := Entry{Key: "abcd1234abcd1234", Kind: "act", Instruction: "step over", Payload: `{"code":"thread.StepOver()"}`}
	require.NoError(t, store.Put(e))

	got, err := store.Get(e.Key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, e.Kind, got.Kind)
	assert.Equal(t, e.Payload, got.Payload)
	assert.Equal(t, 1, got.HitCount)

	got, err = store.Get(e.Key)
	require.NoError(t, err)
	assert.Equal(t, 2, got.HitCount, "each lookup bumps the hit counter")
}

func TestStoreGetMissing(t *testing.T) {
	store := memStore(t)

	got, err := store.Get("ffffffffffffffff")
	require.NoError(t, err)
	assert.Nil(t, got, "a miss is nil, not an error")
}

func TestStorePutIdempotent(t *testing.T) {
	store := memStore(t)

	e := Entry{Key: "abcd1234abcd1234", Kind: "act", Instruction: "step over", Payload: `{"code":"x"}`}
	require.NoError(t, store.Put(e))
	require.NoError(t, store.Put(e), "re-storing identical content is a no-op")
}

func TestStorePutCollision(t *testing.T) {
	store := memStore(t)

	key := Key("abcd1234abcd1234")
	require.NoError(t, store.Put(Entry{Key: key, Kind: "act", Instruction: "a", Payload: `{"code":"x"}`}))

	err := store.Put(Entry{Key: key, Kind: "act", Instruction: "a", Payload: `{"code":"y"}`})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrKeyCollision))

	// The original entry is untouched.
	got, err := store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, `{"code":"x"}`, got.Payload)
}

func TestStoreDelete(t *testing.T) {
	store := memStore(t)

	key := Key("abcd1234abcd1234")
	require.NoError(t, store.Put(Entry{Key: key, Kind: "act", Instruction: "a", Payload: "{}"}))
	require.NoError(t, store.Delete(key))

	got, err := store.Get(key)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.NoError(t, store.Delete("0000000000000000"), "deleting a missing key is not an error")
}

func TestStoreStatsAndClear(t *testing.T) {
	store := memStore(t)

	require.NoError(t, store.Put(Entry{Key: "1111111111111111", Kind: "act", Instruction: "a", Payload: "{}"}))
	require.NoError(t, store.Put(Entry{Key: "2222222222222222", Kind: "extract", Instruction: "b", Payload: "{}"}))
	require.NoError(t, store.Put(Entry{Key: "3333333333333333", Kind: "act", Instruction: "c", Payload: "{}"}))

	stats, err := store.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalEntries)
	assert.Equal(t, 2, stats.KindBreakdown["act"])
	assert.Equal(t, 1, stats.KindBreakdown["extract"])

	entries, err := store.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	require.NoError(t, store.Clear())
	stats, err = store.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalEntries)
}

func TestDisabledCacheIsPermanentMiss(t *testing.T) {
	c, err := New(false, "")
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Save("abcd1234abcd1234", "act", "step", "{}"))
	got, err := c.Lookup("abcd1234abcd1234")
	require.NoError(t, err)
	assert.Nil(t, got, "a disabled cache never hits, even after a save")

	stats, err := c.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalEntries)
}

func TestCacheRoundTrip(t *testing.T) {
	c := NewWithStore(memStore(t))

	require.NoError(t, c.Save("abcd1234abcd1234", "extract", "read totals", `{"record":{"total":42}}`))
	got, err := c.Lookup("abcd1234abcd1234")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "extract", got.Kind)
}
