package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestAssistantError_Error(t *testing.T) {
	err := NewNotFound("nova")
	if !strings.Contains(err.Error(), "NOT_FOUND") {
		t.Errorf("Error() = %q, want code prefix", err.Error())
	}
	if !strings.Contains(err.Error(), "nova") {
		t.Errorf("Error() = %q, want agent name", err.Error())
	}
}

func TestConstructorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		err    *AssistantError
		code   ErrorCode
		status int
	}{
		{"invalid request", NewInvalidRequest("bad"), ErrInvalidRequest, 400},
		{"not found", NewNotFound("x"), ErrNotFound, 404},
		{"name exists", NewNameAlreadyExists("Nova"), ErrNameAlreadyExists, 400},
		{"unsupported file", NewUnsupportedFile("a.exe"), ErrUnsupportedFile, 415},
		{"internal", NewInternal(errors.New("boom")), ErrInternal, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.code)
			}
			if tt.err.Status != tt.status {
				t.Errorf("Status = %d, want %d", tt.err.Status, tt.status)
			}
		})
	}
}

func TestIs(t *testing.T) {
	if !Is(NewNotFound("x"), ErrNotFound) {
		t.Error("Is should match code")
	}
	if Is(NewNotFound("x"), ErrInternal) {
		t.Error("Is should not match different code")
	}
	if Is(errors.New("plain"), ErrInternal) {
		t.Error("Is should not match plain errors")
	}
}

func TestNewInternal_NilError(t *testing.T) {
	err := NewInternal(nil)
	if err.Message != "internal error" {
		t.Errorf("Message = %q, want fallback", err.Message)
	}
}
