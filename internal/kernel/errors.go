package kernel

import (
	"errors"
	"fmt"
	"strings"
)

// InitializationError lists the required services that were never registered
type InitializationError struct {
	Message     string
	MissingDeps []string
}

// NewInitializationError creates a new initialization error
func NewInitializationError(message string, missingDeps []string) *InitializationError {
	return &InitializationError{Message: message, MissingDeps: missingDeps}
}

func (e *InitializationError) Error() string {
	if len(e.MissingDeps) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.MissingDeps, ", "))
}

// CleanupError collects the shutdown hooks that failed, keyed by hook name.
type CleanupError struct {
	Failed map[string]error
}

func (e *CleanupError) Error() string {
	names := make([]string, 0, len(e.Failed))
	for name, err := range e.Failed {
		names = append(names, name+": "+err.Error())
	}
	return "cleanup failed (" + strings.Join(names, "; ") + ")"
}

// Unwrap exposes the hook errors to errors.Is and errors.As.
func (e *CleanupError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, err := range e.Failed {
		errs = append(errs, err)
	}
	return errs
}

// HookFailed reports whether err records a failure of the named hook.
func HookFailed(err error, name string) bool {
	var ce *CleanupError
	if !errors.As(err, &ce) {
		return false
	}
	_, ok := ce.Failed[name]
	return ok
}
