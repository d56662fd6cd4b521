package quizbank

import (
	"math/rand"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Option is one labelled choice of a question
type Option struct {
	Label string `json:"label" validate:"required,optlabel"`
	Text  string `json:"text"`
}

// Question is a single record of the bank
type Question struct {
	ID         string    `json:"id,omitempty"`
	Type       string    `json:"type"`
	Content    string    `json:"content" validate:"required"`
	Options    []Option  `json:"options" validate:"required,min=1,dive"`
	Answer     RawAnswer `json:"answer" validate:"required"`
	CorrectArr []string  `json:"correctArr,omitempty"`
	ImportedAt time.Time `json:"importedAt,omitzero"`
}

// QuestionKind tells how many options a user may pick
type QuestionKind string

const (
	KindSingle    QuestionKind = "single"
	KindMulti     QuestionKind = "multi"
	KindTrueFalse QuestionKind = "truefalse"
)

// Kind derives the question kind from its type label.
// Labels produced by the extractor are 单选, 多选 and 判断; English labels are accepted too.
func (q Question) Kind() QuestionKind {
	t := strings.ToLower(q.Type)
	switch {
	case strings.Contains(t, "多") || strings.Contains(t, "multi"):
		return KindMulti
	case strings.Contains(t, "判") || strings.Contains(t, "true") || strings.Contains(t, "judge"):
		return KindTrueFalse
	default:
		return KindSingle
	}
}

// IsMulti reports whether the question accepts several labels
func (q Question) IsMulti() bool {
	return q.Kind() == KindMulti
}

// HasOption reports whether label is one of the question's option labels
func (q Question) HasOption(label string) bool {
	for _, opt := range q.Options {
		if opt.Label == label {
			return true
		}
	}
	return false
}

// Bank is the ordered collection of stored questions
type Bank []Question

// Clone returns a copy that shares no slice storage with b
func (b Bank) Clone() Bank {
	return lo.Map(b, func(q Question, _ int) Question {
		q.Options = append([]Option(nil), q.Options...)
		q.CorrectArr = append([]string(nil), q.CorrectArr...)
		return q
	})
}

// Random picks a question uniformly at random
func (b Bank) Random(r *rand.Rand) (Question, int, bool) {
	if len(b) == 0 {
		return Question{}, -1, false
	}
	i := r.Intn(len(b))
	return b[i], i, true
}

// ImportReport is the outcome of one ingestion call
type ImportReport struct {
	BatchID           string `json:"batch_id"`
	Accepted          int    `json:"accepted"`
	RejectedDuplicate int    `json:"rejected_duplicate"`
	RejectedInvalid   int    `json:"rejected_invalid"`
	Truncated         bool   `json:"truncated"`
	Log               string `json:"log,omitempty"`
	Err               error  `json:"-"`
}

// ValidationResult represents the result of checking a candidate
type ValidationResult struct {
	Action ValidationAction `json:"action"`
	Reason string           `json:"reason"`
}

// ValidationAction represents what the checker decided to do
type ValidationAction string

const (
	ActionAccept ValidationAction = "accept"
	ActionReject ValidationAction = "reject"
)
