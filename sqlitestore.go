package quizbank

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps the bank in a SQLite database, one row per question
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens the database at dbPath and creates the schema
func OpenSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./quizbank.db"
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows one writer; a single connection also keeps :memory: databases shared
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.CreateTables(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateTables creates the necessary tables if they don't exist
func (s *SQLiteStore) CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS questions (
			position INTEGER PRIMARY KEY,
			id TEXT NOT NULL,
			type TEXT NOT NULL,
			content TEXT NOT NULL,
			options TEXT NOT NULL,
			answer TEXT NOT NULL,
			correct_arr TEXT NOT NULL,
			imported_at DATETIME NOT NULL
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute %s: %w", query, err)
		}
	}
	return nil
}

// Load returns every question in bank order
func (s *SQLiteStore) Load(ctx context.Context) (Bank, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, type, content, options, answer, correct_arr, imported_at FROM questions ORDER BY position",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	defer rows.Close()

	bank := Bank{}
	for rows.Next() {
		var (
			q          Question
			options    string
			answer     string
			correctArr string
			importedAt time.Time
		)
		if err := rows.Scan(&q.ID, &q.Type, &q.Content, &options, &answer, &correctArr, &importedAt); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		if q.Options, err = JSONToOptions(options); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(correctArr), &q.CorrectArr); err != nil {
			return nil, fmt.Errorf("failed to unmarshal correct_arr: %w", err)
		}
		q.Answer = RawAnswer(answer)
		q.ImportedAt = importedAt
		bank = append(bank, q)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating questions: %w", err)
	}
	return bank, nil
}

// Save replaces all rows inside one transaction
func (s *SQLiteStore) Save(ctx context.Context, bank Bank) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM questions"); err != nil {
		return fmt.Errorf("failed to clear questions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO questions (position, id, type, content, options, answer, correct_arr, imported_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, q := range bank {
		options, err := OptionsToJSON(q.Options)
		if err != nil {
			return err
		}
		correct := q.CorrectArr
		if correct == nil {
			correct = []string{}
		}
		correctArr, err := json.Marshal(correct)
		if err != nil {
			return fmt.Errorf("failed to marshal correct_arr: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, i, q.ID, q.Type, q.Content, options, string(q.Answer), string(correctArr), q.ImportedAt); err != nil {
			return fmt.Errorf("failed to insert question %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bank: %w", err)
	}
	return nil
}

// Clear deletes every question
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM questions"); err != nil {
		return fmt.Errorf("failed to clear questions: %w", err)
	}
	return nil
}

// Count returns the number of stored questions
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM questions").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return n, nil
}

// OptionsToJSON converts options to a JSON string
func OptionsToJSON(options []Option) (string, error) {
	if options == nil {
		options = []Option{}
	}
	data, err := json.Marshal(options)
	if err != nil {
		return "", fmt.Errorf("failed to marshal options: %w", err)
	}
	return string(data), nil
}

// JSONToOptions converts a JSON string back to options
func JSONToOptions(optionsJSON string) ([]Option, error) {
	var options []Option
	if err := json.Unmarshal([]byte(optionsJSON), &options); err != nil {
		return nil, fmt.Errorf("failed to unmarshal options: %w", err)
	}
	return options, nil
}
