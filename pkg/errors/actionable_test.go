package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/joe/resync-progress/pkg/errors"
)

func TestActionableError_FormatSuggestionsWithEmptySuggestions(t *testing.T) {
	t.Parallel()

	err := errors.NewActionableError(
		stderrors.New("unknown error"),
		errors.CategoryUnknown,
		[]string{},
		"/path",
	)

	// Should return empty string for no suggestions
	if formatted := errors.FormatSuggestions(err); formatted != "" {
		t.Errorf("expected empty string for no suggestions, got %q", formatted)
	}
}

func TestActionableError_FormatSuggestionsWithMultipleSuggestions(t *testing.T) {
	t.Parallel()

	err := errors.NewActionableError(
		stderrors.New("permission denied"),
		errors.CategoryPermission,
		[]string{
			"Check permissions with 'ls -la'",
			"Use --log-file",
		},
		"/var/log/resync.log",
	)

	expected := "  • Check permissions with 'ls -la'\n  • Use --log-file"
	if formatted := errors.FormatSuggestions(err); formatted != expected {
		t.Errorf("expected:\n%q\ngot:\n%q", expected, formatted)
	}
}

func TestActionableError_FormatSuggestionsWithNonActionableError(t *testing.T) {
	t.Parallel()

	if formatted := errors.FormatSuggestions(nil); formatted != "" {
		t.Errorf("expected empty string for nil error, got %q", formatted)
	}

	if formatted := errors.FormatSuggestions(stderrors.New("plain")); formatted != "" {
		t.Errorf("expected empty string for plain error, got %q", formatted)
	}
}

func TestActionableError_UnwrapsOriginal(t *testing.T) {
	t.Parallel()

	sentinel := stderrors.New("bad tick")
	err := errors.NewActionableError(sentinel, errors.CategoryFlags, nil, "")

	if !stderrors.Is(err, sentinel) {
		t.Error("expected errors.Is to see the original error")
	}

	if err.Error() != "bad tick" || err.OriginalError() != "bad tick" {
		t.Errorf("unexpected message %q", err.Error())
	}

	if err.Category() != errors.CategoryFlags {
		t.Errorf("expected category %q, got %q", errors.CategoryFlags, err.Category())
	}
}
