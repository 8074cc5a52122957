package forms

import (
	"errors"
	"fmt"
)

// Kind is the category of a failure; it decides how the failure reaches the caller.
type Kind string

const (
	KindInput    Kind = "validation_input"
	KindRule     Kind = "validation_rule"
	KindConflict Kind = "conflict"
	KindNotFound Kind = "not_found"
	KindAuth     Kind = "auth"
	KindStore    Kind = "store"
)

const (
	ErrCodeInvalidInput         = "INVALID_INPUT"
	ErrCodeInvalidID            = "INVALID_ID"
	ErrCodeRequiredFieldMissing = "REQUIRED_FIELD_MISSING"
	ErrCodeTypeMismatch         = "TYPE_MISMATCH"
	ErrCodeInvalidOption        = "INVALID_OPTION"
	ErrCodeLengthOutOfRange     = "LENGTH_OUT_OF_RANGE"
	ErrCodeValueOutOfRange      = "VALUE_OUT_OF_RANGE"
	ErrCodePatternMismatch      = "PATTERN_MISMATCH"

	ErrCodeActiveFormExists = "ACTIVE_FORM_EXISTS"
	ErrCodeAlreadySubmitted = "ALREADY_SUBMITTED"
	ErrCodeUserExists       = "USER_EXISTS"
	ErrCodeUserInUse        = "USER_IN_USE"

	ErrCodeFormNotFound     = "FORM_NOT_FOUND"
	ErrCodeUserNotFound     = "USER_NOT_FOUND"
	ErrCodeResponseNotFound = "RESPONSE_NOT_FOUND"

	ErrCodeUnauthenticated = "UNAUTHENTICATED"
	ErrCodeForbidden       = "FORBIDDEN"

	ErrCodeStore = "STORE_FAILED"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Field   string
	Cause   error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s:%s] field '%s': %s", e.Kind, e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

func NewInputError(code, message string) *Error {
	return &Error{Kind: KindInput, Code: code, Message: message}
}

// NewRuleError reports a submitted value that breaks its field's schema.
func NewRuleError(code, field, message string) *Error {
	return &Error{Kind: KindRule, Code: code, Message: message, Field: field}
}

func NewConflictError(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

func NewNotFoundError(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func NewAuthError(code, message string) *Error {
	return &Error{Kind: KindAuth, Code: code, Message: message}
}

// NewStoreError hides a persistence failure behind a generic message; the cause is
// kept for logging only.
func NewStoreError(cause error) *Error {
	return &Error{Kind: KindStore, Code: ErrCodeStore, Message: "store operation failed", Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or "" when there is none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

func IsInput(err error) bool    { return KindOf(err) == KindInput }
func IsRule(err error) bool     { return KindOf(err) == KindRule }
func IsConflict(err error) bool { return KindOf(err) == KindConflict }
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }
func IsStore(err error) bool    { return KindOf(err) == KindStore }
