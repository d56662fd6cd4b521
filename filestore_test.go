package quizbank

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	testBankStore(t, NewFileStore(filepath.Join(t.TempDir(), "tiku.json")))
}

func TestFileStore_DefaultPath(t *testing.T) {
	assert.Equal(t, DefaultBankFile, NewFileStore("").Path())
}

func TestFileStore_PreservesFieldNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiku.json")
	store := NewFileStore(path)
	require.NoError(t, store.Save(context.Background(), sampleBank()))

	var raw []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(readFile(t, path)), &raw))
	require.Len(t, raw, 2)
	for _, key := range []string{"type", "content", "options", "answer", "correctArr"} {
		assert.Contains(t, raw[0], key)
	}
}

func TestFileStore_ReadsLegacyBank(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiku.json")
	legacy := `[{"type":"多选","content":"Q","options":[{"label":"A","text":"x"},{"label":"B","text":"y"}],"answer":"BA","correctArr":["A","B"]}]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	bank, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, bank, 1)
	assert.Equal(t, []string{"A", "B"}, bank[0].CorrectArr)
	assert.True(t, bank[0].ImportedAt.IsZero())
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiku.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewFileStore(path).Load(context.Background())
	assert.Error(t, err)
}

func TestFileStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "tiku.json"))
	require.NoError(t, store.Save(context.Background(), sampleBank()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "tiku.json", entries[0].Name())
}
