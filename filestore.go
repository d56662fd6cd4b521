package quizbank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultBankFile is the file the bank lives in when nothing else is configured
const DefaultBankFile = "tiku.json"

// FileStore keeps the bank as an indented JSON array in one file
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by path
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultBankFile
	}
	return &FileStore{path: path}
}

// Path returns the backing file
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the bank; a missing file is an empty bank
func (s *FileStore) Load(_ context.Context) (Bank, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Bank{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read bank file %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return Bank{}, nil
	}

	var bank Bank
	if err := json.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("parse bank file %s: %w", s.path, err)
	}
	return bank, nil
}

// Save writes to a temporary file and renames it over the bank file
func (s *FileStore) Save(_ context.Context, bank Bank) error {
	if bank == nil {
		bank = Bank{}
	}
	data, err := json.MarshalIndent(bank, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal bank: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create bank directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write bank: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync bank: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close bank: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace bank file: %w", err)
	}
	return nil
}

// Clear replaces the bank with an empty array
func (s *FileStore) Clear(ctx context.Context) error {
	return s.Save(ctx, Bank{})
}
