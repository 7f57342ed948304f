package errors

import "fmt"

// ErrorCode represents a Valet error code.
type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"     // 400
	ErrNotFound          ErrorCode = "NOT_FOUND"           // 404
	ErrNameAlreadyExists ErrorCode = "NAME_ALREADY_EXISTS" // 400
	ErrUnsupportedFile   ErrorCode = "UNSUPPORTED_FILE"    // 415
	ErrInternal          ErrorCode = "INTERNAL"            // 500
)

// AssistantError represents a structured error with code, status, and details.
type AssistantError struct {
	Code    ErrorCode      `json:"code"`
	Status  int            `json:"-"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AssistantError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *AssistantError {
	return &AssistantError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when an agent cannot be found.
func NewNotFound(name string) *AssistantError {
	return &AssistantError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("agent not found: %s", name),
		Details: map[string]any{"agent": name},
	}
}

// NewNameAlreadyExists creates a 400 error for agent name collisions.
// Names are compared case-insensitively.
func NewNameAlreadyExists(name string) *AssistantError {
	return &AssistantError{
		Code:    ErrNameAlreadyExists,
		Status:  400,
		Message: fmt.Sprintf("agent with name %q already exists", name),
		Details: map[string]any{"name": name},
	}
}

// NewUnsupportedFile creates a 415 error for uploads of unsupported types.
func NewUnsupportedFile(filename string) *AssistantError {
	return &AssistantError{
		Code:    ErrUnsupportedFile,
		Status:  415,
		Message: fmt.Sprintf("unsupported file type: %s (supported: txt, md, pdf, mp3, wav, m4a)", filename),
		Details: map[string]any{"filename": filename},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *AssistantError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &AssistantError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is an AssistantError with the given code.
func Is(err error, code ErrorCode) bool {
	if aErr, ok := err.(*AssistantError); ok {
		return aErr.Code == code
	}
	return false
}
