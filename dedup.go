package quizbank

import "fmt"

// QuestionDedup detects repeated questions by content fingerprint.
// Only exact fingerprint matches count; near-duplicates pass.
type QuestionDedup struct {
	cache map[string]int // fingerprint -> position in the bank
}

// NewQuestionDedup creates a deduplicator seeded with every question of bank
func NewQuestionDedup(bank Bank) *QuestionDedup {
	qd := &QuestionDedup{
		cache: make(map[string]int, len(bank)),
	}
	for i, q := range bank {
		fp := Fingerprint(q.Content)
		if _, seen := qd.cache[fp]; !seen {
			qd.cache[fp] = i
		}
	}
	return qd
}

// DedupResult represents the result of deduplication
type DedupResult struct {
	IsDuplicate    bool   `json:"is_duplicate"`
	Reason         string `json:"reason"`
	Fingerprint    string `json:"fingerprint"`
	DuplicateIndex int    `json:"duplicate_index"` // -1 when unique
}

// CheckDuplicate reports whether question's fingerprint is already known
func (qd *QuestionDedup) CheckDuplicate(question Question) DedupResult {
	fp := Fingerprint(question.Content)
	if idx, ok := qd.cache[fp]; ok {
		return DedupResult{
			IsDuplicate:    true,
			Reason:         fmt.Sprintf("fingerprint %q already in bank", shorten(fp, 40)),
			Fingerprint:    fp,
			DuplicateIndex: idx,
		}
	}
	return DedupResult{
		Reason:         "new fingerprint",
		Fingerprint:    fp,
		DuplicateIndex: -1,
	}
}

// Remember records fingerprint fp as stored at index
func (qd *QuestionDedup) Remember(fp string, index int) {
	qd.cache[fp] = index
}

// Size returns the number of known fingerprints
func (qd *QuestionDedup) Size() int {
	return len(qd.cache)
}

func shorten(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "…"
}
