package quizbank

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func singleChoice(content, answer string) Question {
	return Question{
		Type:    "单选",
		Content: content,
		Options: []Option{{Label: "A", Text: "yes"}, {Label: "B", Text: "no"}},
		Answer:  RawAnswer(answer),
	}
}

// fakeExtractor returns a canned result and counts calls
type fakeExtractor struct {
	result ExtractionResult
	calls  int
	inputs []string
}

func (f *fakeExtractor) Extract(_ context.Context, rawText string) ExtractionResult {
	f.calls++
	f.inputs = append(f.inputs, rawText)
	return f.result
}

// failingStore fails the configured operations
type failingStore struct {
	*MemoryStore
	loadErr error
	saveErr error
}

func (s *failingStore) Load(ctx context.Context) (Bank, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.MemoryStore.Load(ctx)
}

func (s *failingStore) Save(ctx context.Context, bank Bank) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.MemoryStore.Save(ctx, bank)
}
