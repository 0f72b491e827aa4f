// Package errors provides actionable error handling with context-aware suggestions.
//
// This package enriches standard Go errors with a category and actionable suggestions
// so an operator can fix a bad invocation quickly. Categories come from sentinel
// errors registered by the caller, then from well-known OS error text (permission,
// missing path).
//
// Basic Usage:
//
//	enricher := errors.NewEnricher(map[errors.ErrorCategory][]error{
//	    errors.CategoryFlags: {config.ErrBadTick},
//	})
//	if err != nil {
//	    enriched := enricher.Enrich(err, "")
//	    fmt.Fprintln(os.Stderr, enriched)
//	    fmt.Fprintln(os.Stderr, errors.FormatSuggestions(enriched))
//	}
package errors

import (
	stderrors "errors"
	"strings"
)

// Exported constants.
const (
	CategoryCounters    ErrorCategory = "counters"
	CategoryDevicesFile ErrorCategory = "devices_file"
	CategoryFlags       ErrorCategory = "flags"
	CategoryPath        ErrorCategory = "path"
	CategoryPermission  ErrorCategory = "permission"
	CategoryUnknown     ErrorCategory = "unknown"
)

// ActionableError represents an error with actionable suggestions for the user.
type ActionableError interface {
	error
	OriginalError() string
	Category() ErrorCategory
	Suggestions() []string
	AffectedPath() string
}

// NewActionableError creates a new ActionableError with the given details.
func NewActionableError(
	original error,
	category ErrorCategory,
	suggestions []string,
	affectedPath string,
) ActionableError {
	return &actionableError{
		original:     original,
		category:     category,
		suggestions:  suggestions,
		affectedPath: affectedPath,
	}
}

// ErrorCategory represents the type of error that occurred.
type ErrorCategory string

// FormatSuggestions formats the suggestions from an ActionableError as a bulleted list.
// Returns empty string if the error is nil or has no suggestions.
func FormatSuggestions(err error) string {
	if err == nil {
		return ""
	}

	var actionable ActionableError
	if !stderrors.As(err, &actionable) {
		return ""
	}

	suggestions := actionable.Suggestions()
	if len(suggestions) == 0 {
		return ""
	}

	var builder strings.Builder
	for i, suggestion := range suggestions {
		if i > 0 {
			builder.WriteString("\n")
		}

		builder.WriteString("  • ")
		builder.WriteString(suggestion)
	}

	return builder.String()
}

// actionableError is the concrete implementation of ActionableError.
type actionableError struct {
	original     error
	category     ErrorCategory
	suggestions  []string
	affectedPath string
}

// AffectedPath returns the file path affected by this error.
func (e *actionableError) AffectedPath() string {
	return e.affectedPath
}

// Category returns the error category.
func (e *actionableError) Category() ErrorCategory {
	return e.category
}

// Error implements the error interface.
func (e *actionableError) Error() string {
	return e.OriginalError()
}

// OriginalError returns the original error message.
func (e *actionableError) OriginalError() string {
	if e.original == nil {
		return string(e.category) + " error"
	}

	return e.original.Error()
}

// Suggestions returns the list of actionable suggestions.
func (e *actionableError) Suggestions() []string {
	return e.suggestions
}

// Unwrap returns the enriched error so errors.Is still sees its sentinels.
func (e *actionableError) Unwrap() error {
	return e.original
}
