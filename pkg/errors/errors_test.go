package errors

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"testing"
)

func TestErrorText(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"plain", New(ErrCodeInvalidKind, "unknown diagram kind %q", "pdg"), `INVALID_KIND: unknown diagram kind "pdg"`},
		{"wrapped", Wrap(ErrCodeFileNotFound, fs.ErrNotExist, "read main.py"), "FILE_NOT_FOUND: read main.py: file does not exist"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapChain(t *testing.T) {
	err := fmt.Errorf("load cfg: %w", Wrap(ErrCodeTimeout, context.DeadlineExceeded, "analysis service"))

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("cause is not reachable through the chain")
	}
	if !Is(err, ErrCodeTimeout) {
		t.Error("code is not reachable through fmt wrapping")
	}
	if got := GetCode(err); got != ErrCodeTimeout {
		t.Errorf("GetCode() = %q, want %q", got, ErrCodeTimeout)
	}
}

func TestOuterCodeWins(t *testing.T) {
	err := Wrap(ErrCodeNetwork, New(ErrCodeInvalidPayload, "bad json"), "fetch graph")
	tests := []struct {
		code Code
		want bool
	}{
		{ErrCodeNetwork, true},
		{ErrCodeInvalidPayload, false},
	}
	for _, tt := range tests {
		if got := Is(err, tt.code); got != tt.want {
			t.Errorf("Is(%s) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestUncodedErrors(t *testing.T) {
	for _, err := range []error{nil, errors.New("plain")} {
		if Is(err, ErrCodeInternal) {
			t.Errorf("Is(%v) matched a code", err)
		}
		if got := GetCode(err); got != "" {
			t.Errorf("GetCode(%v) = %q, want empty", err, got)
		}
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"coded", New(ErrCodeInvalidTheme, "unknown theme %q", "sepia"), `unknown theme "sepia"`},
		{"wrapped coded", fmt.Errorf("view: %w", New(ErrCodeSourceStatus, "analysis service returned 500")), "analysis service returned 500"},
		{"plain", errors.New("disk full"), "disk full"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{ErrCodeInvalidKind, http.StatusBadRequest},
		{ErrCodeInvalidPayload, http.StatusBadRequest},
		{ErrCodeInvalidFormat, http.StatusBadRequest},
		{ErrCodeFileNotFound, http.StatusNotFound},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeSourceStatus, http.StatusBadGateway},
		{ErrCodeNetwork, http.StatusBadGateway},
		{ErrCodeTimeout, http.StatusGatewayTimeout},
		{ErrCodeUnsupported, http.StatusNotImplemented},
		{ErrCodeInternal, http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := HTTPStatus(tt.code); got != tt.want {
				t.Errorf("HTTPStatus(%q) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}

func TestRateLimitedError(t *testing.T) {
	tests := []struct {
		retry int
		want  string
	}{
		{30, "rate limited: retry after 30 seconds"},
		{0, "rate limited"},
	}
	for _, tt := range tests {
		err := &RateLimitedError{RetryAfter: tt.retry}
		if got := err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
		if err.Code() != ErrCodeRateLimited {
			t.Errorf("Code() = %q", err.Code())
		}
	}
}
