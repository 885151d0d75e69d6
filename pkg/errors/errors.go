// Package errors gives popmap failures a machine-readable [Code].
//
// The CLI, the HTTP server and the web part read the code to pick an exit
// message, a status or a failure surface. They never match on strings.
//
//	err := errors.New(errors.ErrCodeInvalidInput, "width must be positive, got %v", w)
//	err = errors.Wrap(errors.ErrCodeNetwork, cause, "fetch %s", url)
//
//	if errors.Is(err, errors.ErrCodeNotFound) { ... }
//
// Every code has a fixed HTTP status; see [Code.Status].
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code names a failure class.
type Code string

const (
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidSource Code = "INVALID_SOURCE"
	ErrCodeNotFound      Code = "NOT_FOUND"

	// Fetching or decoding a data source.
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"
	ErrCodeParse   Code = "PARSE_ERROR"

	// Web part lifecycle.
	ErrCodeRegionBusy Code = "REGION_BUSY"
	ErrCodeDisposed   Code = "DISPOSED"

	ErrCodeInternal Code = "INTERNAL_ERROR"
)

var statuses = map[Code]int{
	ErrCodeInvalidInput:  http.StatusBadRequest,
	ErrCodeInvalidFormat: http.StatusBadRequest,
	ErrCodeInvalidSource: http.StatusBadRequest,
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeRegionBusy:    http.StatusConflict,
	ErrCodeDisposed:      http.StatusGone,
	ErrCodeNetwork:       http.StatusBadGateway,
	ErrCodeParse:         http.StatusBadGateway,
	ErrCodeTimeout:       http.StatusGatewayTimeout,
	ErrCodeInternal:      http.StatusInternalServerError,
}

// Status is the HTTP status answered for c. Unknown codes are 500.
func (c Code) Status() int {
	if s, ok := statuses[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Error is a coded failure, optionally caused by another error.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	s := string(e.Code) + ": " + e.Message
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap is [New] with a cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	e := New(code, format, args...)
	e.Cause = cause
	return e
}

// Is reports whether any coded error in err's chain has code. A wrapped
// TIMEOUT under a NETWORK_ERROR matches both.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode returns the outermost code in err's chain, or "" when there is
// none.
func GetCode(err error) Code {
	if e := (*Error)(nil); errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage is err without code prefixes, for people.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + UserMessage(e.Cause)
}

// HTTPStatus is the status for err's outermost code; uncoded errors are 500.
func HTTPStatus(err error) int {
	return GetCode(err).Status()
}
