package quizbank

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// RawAnswer is the answer as extracted: one label for single-answer questions,
// the concatenated labels for multi-answer ones. Extractors sometimes emit a
// JSON array of labels instead; it is concatenated in order.
type RawAnswer string

// UnmarshalJSON accepts either a string or an array of strings
func (a *RawAnswer) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = RawAnswer(s)
		return nil
	}

	var labels []string
	if err := json.Unmarshal(data, &labels); err != nil {
		return fmt.Errorf("answer must be a string or an array of labels: %w", err)
	}
	*a = RawAnswer(strings.Join(labels, ""))
	return nil
}

// NormalizeAnswer splits a raw answer into single-rune labels, removes
// duplicates and sorts them. Labels are not checked against any options.
func NormalizeAnswer(raw string) []string {
	labels := lo.Uniq(lo.Map([]rune(raw), func(r rune, _ int) string {
		return string(r)
	}))
	sort.Strings(labels)
	return labels
}

// CorrectLabels returns the canonical correct answer of q
func (q Question) CorrectLabels() []string {
	if len(q.CorrectArr) > 0 {
		return q.CorrectArr
	}
	return NormalizeAnswer(string(q.Answer))
}

// CheckAnswer compares a user's selection with the canonical answer.
// The selection may be in any order and may repeat labels.
func CheckAnswer(q Question, selected []string) bool {
	user := strings.Join(NormalizeAnswer(strings.Join(selected, "")), "")
	correct := strings.Join(NormalizeAnswer(strings.Join(q.CorrectLabels(), "")), "")
	return user == correct
}
