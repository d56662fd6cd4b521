package quizbank

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// maxSummaryLog bounds the diagnostic shown in a failure summary, in runes
const maxSummaryLog = 200

// Pipeline orchestrates extraction, deduplication and persistence of questions.
// Ingest and Clear on one Pipeline never run concurrently.
type Pipeline struct {
	extractor CandidateExtractor
	store     BankStore
	checker   *QuestionChecker
	logDir    string

	mu  sync.Mutex
	now func() time.Time
}

// PipelineOption configures a Pipeline
type PipelineOption func(*Pipeline)

// WithStrict rejects structurally invalid candidates instead of storing them
func WithStrict(strict bool) PipelineOption {
	return func(p *Pipeline) {
		if strict {
			p.checker = NewQuestionChecker()
		} else {
			p.checker = nil
		}
	}
}

// WithLogDir writes one LLM log file per import into dir
func WithLogDir(dir string) PipelineOption {
	return func(p *Pipeline) { p.logDir = dir }
}

// NewPipeline creates a new ingestion pipeline
func NewPipeline(extractor CandidateExtractor, store BankStore, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		extractor: extractor,
		store:     store,
		now:       time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Ingest extracts questions from rawText and merges the new ones into the stored bank.
// It always returns a report; on any failure the returned bank is the stored one, unchanged.
func (p *Pipeline) Ingest(ctx context.Context, rawText string) (Bank, ImportReport) {
	p.mu.Lock()
	defer p.mu.Unlock()

	report := ImportReport{BatchID: uuid.NewString()}
	log.Printf("Starting import %s: %d characters", report.BatchID, len([]rune(rawText)))

	if p.logDir != "" {
		logger, err := NewLLMLogger(p.logDir, report.BatchID, len([]rune(rawText)))
		if err != nil {
			log.Printf("Failed to create logger for import %s: %v", report.BatchID, err)
		} else {
			ctx = WithLLMLogger(ctx, logger)
			defer logger.Close()
		}
	}
	logger := LLMLoggerFrom(ctx)

	bank, err := p.store.Load(ctx)
	if err != nil {
		report.Err = fmt.Errorf("%w: load: %w", ErrBankStore, err)
		report.Log = err.Error()
		p.finish(logger, report)
		return nil, report
	}

	extraction := p.extractor.Extract(ctx, rawText)
	report.Truncated = extraction.Truncated
	report.Log = extraction.Log
	report.RejectedInvalid = len(extraction.DecodeErrors)
	if logger != nil {
		for _, decodeErr := range extraction.DecodeErrors {
			logger.Logf("Undecodable %s\n", decodeErr)
		}
	}
	if len(extraction.Candidates) == 0 {
		if extraction.Err != nil {
			report.Err = extraction.Err
		} else {
			report.Err = newExtractionError(ErrEmptyExtraction, extraction.Log, nil)
		}
		p.finish(logger, report)
		return bank, report
	}

	updated, stats := p.merge(bank, extraction, logger)
	report.Accepted = stats.Accepted
	report.RejectedDuplicate = stats.RejectedDuplicate
	report.RejectedInvalid = stats.RejectedInvalid

	if stats.Accepted > 0 {
		if err := p.store.Save(ctx, updated); err != nil {
			report.Err = fmt.Errorf("%w: save: %w", ErrBankStore, err)
			report.Log = err.Error()
			report.Accepted = 0
			p.finish(logger, report)
			return bank, report
		}
	}

	p.finish(logger, report)
	return updated, report
}

// Clear empties the stored bank
func (p *Pipeline) Clear(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.store.Clear(ctx); err != nil {
		return fmt.Errorf("%w: clear: %w", ErrBankStore, err)
	}
	log.Printf("Bank cleared")
	return nil
}

// Bank returns the stored bank. It does not wait for a running Ingest:
// stores replace the bank atomically, so readers see the old or the new one.
func (p *Pipeline) Bank(ctx context.Context) (Bank, error) {
	bank, err := p.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load: %w", ErrBankStore, err)
	}
	return bank, nil
}

func (p *Pipeline) merge(bank Bank, extraction ExtractionResult, logger *LLMLogger) (Bank, MergeStats) {
	updated, stats := mergeCandidates(bank, extraction.Candidates, p.checker, p.now(), logger)
	stats.RejectedInvalid += len(extraction.DecodeErrors)
	log.Printf("Merged %d candidates: %d accepted, %d duplicate, %d invalid",
		len(extraction.Candidates), stats.Accepted, stats.RejectedDuplicate, stats.RejectedInvalid)
	return updated, stats
}

func (p *Pipeline) finish(logger *LLMLogger, report ImportReport) {
	if report.Err != nil {
		log.Printf("Import %s failed: %v", report.BatchID, report.Err)
	}
	if logger != nil {
		logger.LogReport(report)
	}
}

// MergeStats counts the outcome of merging one batch
type MergeStats struct {
	Accepted          int
	RejectedDuplicate int
	RejectedInvalid   int
}

// Merge appends the candidates whose fingerprint is new to a copy of bank.
// A candidate is a duplicate when it matches the bank or an earlier candidate
// of the same batch. Accepted records get their correctArr computed. When
// checker is non-nil, structurally invalid candidates are rejected first.
func Merge(bank Bank, candidates []Question, checker *QuestionChecker) (Bank, MergeStats) {
	return mergeCandidates(bank, candidates, checker, time.Now(), nil)
}

func mergeCandidates(bank Bank, candidates []Question, checker *QuestionChecker, now time.Time, logger *LLMLogger) (Bank, MergeStats) {
	var stats MergeStats
	updated := make(Bank, len(bank), len(bank)+len(candidates))
	copy(updated, bank)

	dedup := NewQuestionDedup(bank)
	for i, candidate := range candidates {
		if checker != nil {
			validation := checker.CheckQuestion(candidate)
			if logger != nil {
				logger.LogQuestionResult(i, validation.Action, validation.Reason)
			}
			if validation.Action == ActionReject {
				VerboseLog("Candidate %d rejected: %s", i, validation.Reason)
				stats.RejectedInvalid++
				continue
			}
		}

		result := dedup.CheckDuplicate(candidate)
		if logger != nil {
			logger.LogDedupResult(i, result)
		}
		if result.IsDuplicate {
			VerboseLog("Candidate %d duplicate of #%d", i, result.DuplicateIndex)
			stats.RejectedDuplicate++
			continue
		}

		candidate.Options = append([]Option(nil), candidate.Options...)
		candidate.CorrectArr = NormalizeAnswer(string(candidate.Answer))
		if candidate.ID == "" {
			candidate.ID = uuid.NewString()
		}
		candidate.ImportedAt = now

		updated = append(updated, candidate)
		dedup.Remember(result.Fingerprint, len(updated)-1)
		stats.Accepted++
	}
	return updated, stats
}

// Failed reports whether the import could not extract or store anything
func (r ImportReport) Failed() bool {
	return r.Err != nil
}

// Summary renders the report for display
func (r ImportReport) Summary() string {
	if r.Failed() {
		return fmt.Sprintf("Import failed (%s): %s", failureLabel(r.Err), shorten(r.Log, maxSummaryLog))
	}
	s := fmt.Sprintf("Imported %d questions, skipped %d duplicates", r.Accepted, r.RejectedDuplicate)
	if r.RejectedInvalid > 0 {
		s += fmt.Sprintf(", rejected %d invalid", r.RejectedInvalid)
	}
	if r.Truncated {
		s += " (output was truncated, the last question may be missing)"
	}
	return s
}

func failureLabel(err error) string {
	switch {
	case errors.Is(err, ErrUpstreamUnavailable):
		return "service unavailable"
	case errors.Is(err, ErrUpstreamRejected):
		return "service rejected request"
	case errors.Is(err, ErrMalformedExtraction), errors.Is(err, ErrEmptyExtraction):
		return "no questions extracted"
	case errors.Is(err, ErrBankStore):
		return "storage error"
	default:
		return err.Error()
	}
}
