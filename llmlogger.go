package quizbank

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LLMLogger writes one log file per import batch with every upstream exchange
type LLMLogger struct {
	file    *os.File
	mu      sync.Mutex
	batchID string
	path    string
}

type llmLoggerKey struct{}

// WithLLMLogger attaches logger to ctx so the extractor can record its exchange
func WithLLMLogger(ctx context.Context, logger *LLMLogger) context.Context {
	return context.WithValue(ctx, llmLoggerKey{}, logger)
}

// LLMLoggerFrom returns the logger attached to ctx, or nil
func LLMLoggerFrom(ctx context.Context) *LLMLogger {
	logger, _ := ctx.Value(llmLoggerKey{}).(*LLMLogger)
	return logger
}

// NewLLMLogger creates <dir>/<batchID>.log
func NewLLMLogger(dir, batchID string, inputChars int) (*LLMLogger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filename := filepath.Join(dir, fmt.Sprintf("%s.log", batchID))
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	logger := &LLMLogger{
		file:    file,
		batchID: batchID,
		path:    filename,
	}

	logger.Logf("=== Import Log ===\n")
	logger.Logf("Batch ID: %s\n", batchID)
	logger.Logf("Input Length: %d characters\n", inputChars)
	logger.Logf("Started: %s\n", time.Now().Format(time.RFC3339))
	logger.Logf("==================\n\n")

	return logger, nil
}

// Path returns the file the logger writes to
func (ll *LLMLogger) Path() string {
	return ll.path
}

// Logf writes a formatted log entry with timestamp
func (ll *LLMLogger) Logf(format string, args ...interface{}) {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	ll.logf(format, args...)
}

func (ll *LLMLogger) logf(format string, args ...interface{}) {
	if ll.file == nil {
		return
	}
	timestamp := time.Now().Format("15:04:05.000")
	message := fmt.Sprintf(format, args...)

	fmt.Fprintf(ll.file, "[%s] %s", timestamp, message)
	ll.file.Sync()
}

// LogLLMRequest logs an LLM request
func (ll *LLMLogger) LogLLMRequest(module, prompt string) {
	ll.Logf("=== LLM REQUEST (%s) ===\n", module)
	ll.Logf("Prompt:\n%s\n", prompt)
	ll.Logf("=====================\n\n")
}

// LogLLMResponse logs an LLM response
func (ll *LLMLogger) LogLLMResponse(module, response string) {
	ll.Logf("=== LLM RESPONSE (%s) ===\n", module)
	ll.Logf("Response:\n%s\n", response)
	ll.Logf("======================\n\n")
}

// LogQuestionResult logs the checker's verdict on a candidate
func (ll *LLMLogger) LogQuestionResult(index int, action ValidationAction, reason string) {
	ll.Logf("Candidate %d: %s - %s\n", index, action, reason)
}

// LogDedupResult logs the result of deduplication
func (ll *LLMLogger) LogDedupResult(index int, result DedupResult) {
	if result.IsDuplicate {
		ll.Logf("Candidate %d: DUPLICATE of #%d - %s\n", index, result.DuplicateIndex, result.Reason)
	} else {
		ll.Logf("Candidate %d: UNIQUE - %s\n", index, result.Reason)
	}
}

// LogReport logs the final counts of the batch
func (ll *LLMLogger) LogReport(report ImportReport) {
	ll.Logf("Accepted: %d, duplicates: %d, invalid: %d, truncated: %v\n",
		report.Accepted, report.RejectedDuplicate, report.RejectedInvalid, report.Truncated)
	if report.Err != nil {
		ll.Logf("Failure: %v\n", report.Err)
	}
}

// Close closes the log file
func (ll *LLMLogger) Close() error {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	if ll.file != nil {
		ll.logf("=== Import Complete ===\n")
		ll.logf("Completed: %s\n", time.Now().Format(time.RFC3339))
		ll.logf("=======================\n")
		err := ll.file.Close()
		ll.file = nil
		return err
	}
	return nil
}
