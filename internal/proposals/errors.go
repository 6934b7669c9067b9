package proposals

import (
	"fmt"
	"strings"
)

// Kind classifies engine errors so transports can map them to a response
// without string matching.
type Kind string

const (
	KindValidation        Kind = "validation_error"
	KindNotFound          Kind = "not_found"
	KindNotAMember        Kind = "not_a_member"
	KindInsufficientRole  Kind = "insufficient_role"
	KindVotingClosed      Kind = "voting_closed"
	KindDuplicateVote     Kind = "duplicate_vote"
	KindInvalidDecision   Kind = "invalid_decision"
	KindInvalidTransition Kind = "invalid_transition"
	KindAlreadyExecuted   Kind = "already_executed"
	KindExecutionFailed   Kind = "execution_failed"
)

// FieldError names one field that failed validation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is returned by every engine operation for user-actionable failures.
// errors.Is matches on Kind, so callers compare against the Err* values below.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrNotAMember        = &Error{Kind: KindNotAMember}
	ErrInsufficientRole  = &Error{Kind: KindInsufficientRole}
	ErrVotingClosed      = &Error{Kind: KindVotingClosed}
	ErrDuplicateVote     = &Error{Kind: KindDuplicateVote}
	ErrInvalidDecision   = &Error{Kind: KindInvalidDecision}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrAlreadyExecuted   = &Error{Kind: KindAlreadyExecuted}
	ErrExecutionFailed   = &Error{Kind: KindExecutionFailed}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = strings.ReplaceAll(string(e.Kind), "_", " ")
	}
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			parts = append(parts, f.Field+": "+f.Message)
		}
		msg += " (" + strings.Join(parts, "; ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
