package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInvalidProduct       = errors.New("invalid product")
	ErrInvalidTransition    = errors.New("invalid transition")
	ErrSubmissionInProgress = errors.New("order submission in progress")
	ErrCheckoutAbandoned    = errors.New("checkout abandoned")
	ErrOrderNotFound        = errors.New("order not found")
	ErrDuplicateOrder       = errors.New("order already exists")
)

type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors is returned by stage validators; an empty value means valid.
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e ValidationErrors) Field(name string) (FieldError, bool) {
	for _, fe := range e {
		if fe.Field == name {
			return fe, true
		}
	}
	return FieldError{}, false
}

// TransitionError is an illegal checkout stage or order status change.
type TransitionError struct {
	Op   string
	From string
	To   string
}

func (e *TransitionError) Error() string {
	if e.To == "" {
		return fmt.Sprintf("%s: not allowed from %s", e.Op, e.From)
	}
	return fmt.Sprintf("%s: %s -> %s not allowed", e.Op, e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// SubmissionError means the order could not be placed or recorded. The
// checkout stays at review and the cart is untouched.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit order: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

func (e *SubmissionError) Retryable() bool {
	return !errors.Is(e.Err, ErrEmptyCart)
}

// PersistenceError is a storage failure. Stores mostly log it and continue in
// memory; a failed order append is returned to the caller instead.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
