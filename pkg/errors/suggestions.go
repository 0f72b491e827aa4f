package errors

import "fmt"

// SuggestionGenerator generates actionable suggestions based on error category.
type SuggestionGenerator interface {
	Generate(category ErrorCategory, affectedPath string) []string
}

// NewSuggestionGenerator creates a new SuggestionGenerator.
func NewSuggestionGenerator() SuggestionGenerator {
	return &suggestionGenerator{}
}

// suggestionGenerator is the concrete implementation of SuggestionGenerator.
type suggestionGenerator struct{}

// Generate returns actionable suggestions based on the error category and affected path.
func (g *suggestionGenerator) Generate(category ErrorCategory, affectedPath string) []string {
	switch category {
	case CategoryPermission:
		return g.generatePermissionSuggestions(affectedPath)
	case CategoryPath:
		return g.generatePathSuggestions(affectedPath)
	case CategoryFlags:
		return g.generateFlagSuggestions()
	case CategoryDevicesFile:
		return g.generateDevicesFileSuggestions(affectedPath)
	case CategoryCounters:
		return g.generateCounterSuggestions()
	case CategoryUnknown:
		return g.generateUnknownSuggestions(affectedPath)
	default:
		return g.generateUnknownSuggestions(affectedPath)
	}
}

func (g *suggestionGenerator) generateCounterSuggestions() []string {
	return []string{
		"The out-of-sync count grew past the operation's total; progress is shown as 0% until it recovers",
		"Start a verify pass once the resync finishes to confirm the devices match",
		"Check the log for the reported remaining and total counts",
	}
}

func (g *suggestionGenerator) generateDevicesFileSuggestions(path string) []string {
	suggestions := []string{
		"The devices file needs a top-level 'devices:' list",
		"Every device needs a unique name, a unique minor and units greater than zero",
	}

	if path != "" {
		suggestions = append(suggestions, "Check the YAML syntax of "+path)
	}

	return suggestions
}

func (g *suggestionGenerator) generateFlagSuggestions() []string {
	return []string{
		"Run with --help to see the accepted values",
		"--tick must be at least 1s and --marks at least 2",
		"--unit-size-kib must be a power of two",
	}
}

func (g *suggestionGenerator) generatePathSuggestions(path string) []string {
	suggestions := []string{
		"Verify the path exists and is spelled correctly",
	}

	if path != "" {
		suggestions = append(suggestions, "Check if the path exists: "+path)
		suggestions = append(suggestions, "Ensure all parent directories exist for "+path)
	} else {
		suggestions = append(suggestions, "Ensure all parent directories exist")
	}

	return suggestions
}

func (g *suggestionGenerator) generatePermissionSuggestions(path string) []string {
	suggestions := []string{
		"Ensure you can read the devices file and write the log file",
	}

	if path != "" {
		suggestions = append(suggestions, fmt.Sprintf("Check permissions with 'ls -la %s'", path))
	} else {
		suggestions = append(suggestions, "Check permissions with 'ls -la' on the affected path")
	}

	suggestions = append(suggestions, "Use --log-file to pick a writable location")

	return suggestions
}

func (g *suggestionGenerator) generateUnknownSuggestions(path string) []string {
	suggestions := []string{
		"Check the error message for more details",
		"Re-run with --plain --log-level debug to see the log on stderr",
	}

	if path != "" {
		suggestions = append(suggestions, "Verify the path is accessible: "+path)
	}

	return suggestions
}
