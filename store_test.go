package henkan

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user-model.db")

	store, err := OpenUserModelStore(path)
	require.NoError(t, err)

	snap := UserSnapshot{
		Unigrams: map[string]int64{"私/わたし": 3, "は/は": 2},
		Bigrams:  map[string]int64{"私/わたし\tは/は": 2},
	}
	require.NoError(t, store.Save(snap))
	require.NoError(t, store.Close())

	// Reopen: the rows must survive the process boundary.
	store, err = OpenUserModelStore(path)
	require.NoError(t, err)
	defer store.Close()

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, snap.Unigrams, loaded.Unigrams)
	assert.Equal(t, snap.Bigrams, loaded.Bigrams)
}

func TestStoreSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user-model.db")
	store, err := OpenUserModelStore(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(UserSnapshot{
		Unigrams: map[string]int64{"a/a": 1},
		Bigrams:  map[string]int64{},
	}))
	require.NoError(t, store.Save(UserSnapshot{
		Unigrams: map[string]int64{"a/a": 4, "b/b": 1},
		Bigrams:  map[string]int64{"a/a\tb/b": 1},
	}))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, int64(4), loaded.Unigrams["a/a"])
	assert.Equal(t, int64(1), loaded.Unigrams["b/b"])
	assert.Equal(t, int64(1), loaded.Bigrams["a/a\tb/b"])
}

func TestStoreModelRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user-model.db")
	store, err := OpenUserModelStore(path)
	require.NoError(t, err)
	defer store.Close()

	m := NewUserModel()
	m.RecordAcceptance([]Candidate{
		{Reading: "わたし", Surface: "私"},
		{Reading: "は", Surface: "は"},
	})
	require.NoError(t, store.Save(m.Snapshot()))

	snap, err := store.Load()
	require.NoError(t, err)

	restored := NewUserModel()
	restored.LoadSnapshot(snap)
	want, _ := m.BigramScore("私/わたし", "は/は")
	got, ok := restored.BigramScore("私/わたし", "は/は")
	require.True(t, ok)
	assert.Equal(t, want, got)
}
