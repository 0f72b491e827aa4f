package errors

import (
	stderrors "errors"
	"maps"
	"slices"
	"strings"
)

// PatternMatcher maps an error to a category.
type PatternMatcher interface {
	Match(err error) ErrorCategory
}

// NewPatternMatcher creates a matcher that checks the registered sentinels first
// and then the predefined OS error text patterns.
func NewPatternMatcher(sentinels map[ErrorCategory][]error) PatternMatcher {
	return &patternMatcher{
		sentinels: sentinels,
		patterns: []categoryPatterns{
			{CategoryPermission, []string{
				"permission denied",
				"access denied",
				"operation not permitted",
			}},
			{CategoryPath, []string{
				"no such file or directory",
				"file not found",
				"not a directory",
			}},
			{CategoryDevicesFile, []string{
				"yaml:",
			}},
		},
	}
}

type categoryPatterns struct {
	category ErrorCategory
	patterns []string
}

// patternMatcher is the concrete implementation of PatternMatcher.
type patternMatcher struct {
	sentinels map[ErrorCategory][]error
	patterns  []categoryPatterns // checked in order
}

// Match returns the error category for err.
func (m *patternMatcher) Match(err error) ErrorCategory {
	if err == nil {
		return CategoryUnknown
	}

	// Categories are checked in name order; the first matching sentinel wins.
	for _, category := range slices.Sorted(maps.Keys(m.sentinels)) {
		for _, sentinel := range m.sentinels[category] {
			if stderrors.Is(err, sentinel) {
				return category
			}
		}
	}

	lowerMsg := strings.ToLower(err.Error())

	for _, group := range m.patterns {
		for _, pattern := range group.patterns {
			if strings.Contains(lowerMsg, pattern) {
				return group.category
			}
		}
	}

	// No match found
	return CategoryUnknown
}
