package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/streakline/internal/logger"
)

// ErrInvalidCredentials replaces remote login failures so the message does not
// reveal which field was wrong
var ErrInvalidCredentials = stderrors.New("Invalid email or password")

// ValidationError is a client-side input error; no remote call was made
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidation returns a ValidationError for field
func NewValidation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// RemoteError is any failure reported by the record store or auth provider.
// Error returns the remote message verbatim.
type RemoteError struct {
	Op      string
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s failed", e.Op)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// NewRemote wraps err as a RemoteError for op
func NewRemote(op string, err error) error {
	if err == nil {
		return nil
	}
	var remote *RemoteError
	if stderrors.As(err, &remote) {
		return err
	}
	var auth *AuthRequiredError
	if stderrors.As(err, &auth) {
		return err
	}
	return &RemoteError{Op: op, Message: err.Error(), Err: err}
}

// AuthRequiredError is returned when a mutation is attempted without a user
type AuthRequiredError struct {
	Action string
}

func (e *AuthRequiredError) Error() string {
	if e.Action == "" {
		return "User not authenticated"
	}
	return fmt.Sprintf("User not authenticated: sign in to %s", e.Action)
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return stderrors.As(err, &v)
}

// IsRemote reports whether err is a RemoteError
func IsRemote(err error) bool {
	var r *RemoteError
	return stderrors.As(err, &r)
}

// IsAuthRequired reports whether err is an AuthRequiredError
func IsAuthRequired(err error) bool {
	var a *AuthRequiredError
	return stderrors.As(err, &a)
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
