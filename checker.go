package quizbank

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// QuestionChecker validates the structure of extracted candidates.
// It does not judge whether a question or its answer is correct.
type QuestionChecker struct {
	validate *validator.Validate
}

// NewQuestionChecker creates a new checker
func NewQuestionChecker() *QuestionChecker {
	v := validator.New(validator.WithRequiredStructEnabled())
	// option labels are exactly one character
	err := v.RegisterValidation("optlabel", func(fl validator.FieldLevel) bool {
		return utf8.RuneCountInString(fl.Field().String()) == 1
	})
	if err != nil {
		panic(fmt.Sprintf("register optlabel validation: %v", err))
	}
	return &QuestionChecker{validate: v}
}

// CheckQuestion returns accept when question is structurally sound
func (qc *QuestionChecker) CheckQuestion(question Question) ValidationResult {
	if err := qc.validate.Struct(question); err != nil {
		return ValidationResult{Action: ActionReject, Reason: describeValidationError(err)}
	}

	if strings.TrimSpace(question.Content) == "" {
		return ValidationResult{Action: ActionReject, Reason: "content is blank"}
	}

	seen := make(map[string]bool, len(question.Options))
	for _, opt := range question.Options {
		if seen[opt.Label] {
			return ValidationResult{Action: ActionReject, Reason: fmt.Sprintf("duplicate option label %q", opt.Label)}
		}
		seen[opt.Label] = true
	}

	labels := NormalizeAnswer(string(question.Answer))
	for _, label := range labels {
		if !question.HasOption(label) {
			return ValidationResult{Action: ActionReject, Reason: fmt.Sprintf("answer label %q is not an option", label)}
		}
	}

	if question.Kind() != KindMulti && len(labels) > 1 {
		return ValidationResult{Action: ActionReject, Reason: fmt.Sprintf("%s question has %d answer labels", question.Kind(), len(labels))}
	}

	return ValidationResult{Action: ActionAccept, Reason: "structure ok"}
}

func describeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
