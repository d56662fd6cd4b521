package quizbank

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "quizbank.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore(t *testing.T) {
	testBankStore(t, openTestSQLite(t))
}

func TestSQLiteStore_Count(t *testing.T) {
	ctx := context.Background()
	store := openTestSQLite(t)

	require.NoError(t, store.Save(ctx, sampleBank()))
	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSQLiteStore_ReopenKeepsBank(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "quizbank.db")

	store, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, sampleBank()))
	require.NoError(t, store.Close())

	store, err = OpenSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()

	bank, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, bank, 2)
	assert.Equal(t, "Which are primes?", bank[1].Content)
}

func TestSQLiteStore_SaveNilCorrectArr(t *testing.T) {
	ctx := context.Background()
	store := openTestSQLite(t)

	require.NoError(t, store.Save(ctx, Bank{singleChoice("Q", "A")}))
	bank, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, bank, 1)
	assert.Empty(t, bank[0].CorrectArr)
}

func TestOptionsJSON(t *testing.T) {
	s, err := OptionsToJSON([]Option{{Label: "A", Text: "x"}})
	require.NoError(t, err)
	assert.Equal(t, `[{"label":"A","text":"x"}]`, s)

	opts, err := JSONToOptions(s)
	require.NoError(t, err)
	assert.Equal(t, []Option{{Label: "A", Text: "x"}}, opts)

	_, err = JSONToOptions("nope")
	assert.Error(t, err)
}
