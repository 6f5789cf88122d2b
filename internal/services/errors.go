package services

import (
	"fmt"

	"github.com/itinventory/inventory/pkg/response"
)

// Kind classifies an engine error.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindDuplicateKey
	KindNotFound
	KindPrivilege
	KindOption
	KindSearch
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDuplicateKey:
		return "duplicate key"
	case KindNotFound:
		return "not found"
	case KindPrivilege:
		return "privilege"
	case KindOption:
		return "option"
	case KindSearch:
		return "search"
	case KindStore:
		return "store"
	default:
		return "unknown"
	}
}

// Error is the typed failure returned by every engine operation. Code is
// the numbered user-facing condition, or response.NoCode.
type Error struct {
	Kind    Kind
	Code    response.Code
	Message string
	Err     error

	sentinel bool
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorCode implements response.Coded.
func (e *Error) ErrorCode() response.Code { return e.Code }

// Is matches the Err* sentinels by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.sentinel && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrValidation   = &Error{Kind: KindValidation, Code: response.NoCode, Message: "validation error", sentinel: true}
	ErrDuplicateKey = &Error{Kind: KindDuplicateKey, Code: response.NoCode, Message: "duplicate key", sentinel: true}
	ErrNotFound     = &Error{Kind: KindNotFound, Code: response.NoCode, Message: "not found", sentinel: true}
	ErrPrivilege    = &Error{Kind: KindPrivilege, Code: response.CodeNotAdmin, Message: "insufficient privilege", sentinel: true}
	ErrOption       = &Error{Kind: KindOption, Code: response.NoCode, Message: "option error", sentinel: true}
	ErrSearch       = &Error{Kind: KindSearch, Code: response.CodeNoResults, Message: "no results", sentinel: true}
	ErrStore        = &Error{Kind: KindStore, Code: response.NoCode, Message: "store error", sentinel: true}
)

func validationError(code response.Code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

func duplicateError(code response.Code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindDuplicateKey, Code: code, Message: fmt.Sprintf(format, args...)}
}

func notFoundError(code response.Code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: fmt.Sprintf(format, args...)}
}

func optionError(code response.Code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindOption, Code: code, Message: fmt.Sprintf(format, args...)}
}

func noResults(format string, args ...interface{}) *Error {
	return &Error{Kind: KindSearch, Code: response.CodeNoResults, Message: fmt.Sprintf(format, args...)}
}

func storeError(op string, err error) *Error {
	return &Error{Kind: KindStore, Code: response.NoCode, Message: op, Err: err}
}

// errInvalidDate is raised before any store access when date or timestamp
// criteria do not parse.
func errInvalidDate(raw string) *Error {
	return validationError(response.CodeNoResults, "invalid date %q", raw)
}
