package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{New(ErrCodeInvalidInput, "width must be positive, got %v", -1), "INVALID_INPUT: width must be positive, got -1"},
		{Wrap(ErrCodeNetwork, errors.New("connection refused"), "fetch %s", "world.json"), "NETWORK_ERROR: fetch world.json: connection refused"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeNetwork, cause, "fetch geometry")
	if errors.Unwrap(err) != cause {
		t.Error("Unwrap should return the cause")
	}
	if !errors.Is(fmt.Errorf("load: %w", err), cause) {
		t.Error("stdlib errors.Is should reach the cause through fmt wrapping")
	}
}

func TestIs(t *testing.T) {
	nested := Wrap(ErrCodeNetwork, New(ErrCodeTimeout, "deadline"), "fetch")
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"same code", New(ErrCodeInvalidInput, "x"), ErrCodeInvalidInput, true},
		{"other code", New(ErrCodeInvalidInput, "x"), ErrCodeNetwork, false},
		{"outer of nested", nested, ErrCodeNetwork, true},
		{"inner of nested", nested, ErrCodeTimeout, true},
		{"through fmt", fmt.Errorf("stage: %w", New(ErrCodeParse, "x")), ErrCodeParse, true},
		{"plain", errors.New("plain"), ErrCodeInvalidInput, false},
		{"nil", nil, ErrCodeInvalidInput, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is(%v, %s) = %v, want %v", tt.err, tt.code, got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		err  error
		want Code
	}{
		{New(ErrCodeParse, "x"), ErrCodeParse},
		{Wrap(ErrCodeNetwork, New(ErrCodeTimeout, "deadline"), "fetch"), ErrCodeNetwork},
		{fmt.Errorf("stage: %w", New(ErrCodeNotFound, "x")), ErrCodeNotFound},
		{errors.New("plain"), ""},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := GetCode(tt.err); got != tt.want {
			t.Errorf("GetCode(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{New(ErrCodeInvalidInput, "friendly message"), "friendly message"},
		{Wrap(ErrCodeNetwork, New(ErrCodeTimeout, "deadline exceeded"), "fetch geometry"), "fetch geometry: deadline exceeded"},
		{Wrap(ErrCodeParse, errors.New("unexpected EOF"), "decode population"), "decode population: unexpected EOF"},
		{errors.New("plain error"), "plain error"},
	}
	for _, tt := range tests {
		if got := UserMessage(tt.err); got != tt.want {
			t.Errorf("UserMessage() = %q, want %q", got, tt.want)
		}
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{New(ErrCodeInvalidInput, "x"), http.StatusBadRequest},
		{New(ErrCodeInvalidFormat, "x"), http.StatusBadRequest},
		{New(ErrCodeInvalidSource, "x"), http.StatusBadRequest},
		{New(ErrCodeNotFound, "x"), http.StatusNotFound},
		{New(ErrCodeRegionBusy, "x"), http.StatusConflict},
		{New(ErrCodeDisposed, "x"), http.StatusGone},
		{Wrap(ErrCodeNetwork, errors.New("refused"), "x"), http.StatusBadGateway},
		{New(ErrCodeParse, "x"), http.StatusBadGateway},
		{New(ErrCodeTimeout, "x"), http.StatusGatewayTimeout},
		{New(Code("SOMETHING_NEW"), "x"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
