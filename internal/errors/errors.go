package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrCatalogEmpty       = errors.New("catalog empty")
	ErrNoTracks           = errors.New("no tracks available")
	ErrAssetFailed        = errors.New("asset failed to load")
	ErrDeviceUnavailable  = errors.New("playback device unavailable")
	ErrUnknownPreference  = errors.New("unknown preference")
	ErrConfigNotFound     = errors.New("config file not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
)

// JukeboxError wraps an error with a user-friendly suggestion.
type JukeboxError struct {
	Err        error
	Suggestion string
}

func (e *JukeboxError) Error() string {
	return e.Err.Error()
}

func (e *JukeboxError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &JukeboxError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// UserMessage returns the short message shown in place of the player when
// the library cannot be used.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCatalogEmpty):
		return "No music files"
	case errors.Is(err, ErrNoTracks):
		return "No tracks available"
	case errors.Is(err, ErrCatalogUnavailable):
		return "Error loading library"
	default:
		return err.Error()
	}
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	var jbErr *JukeboxError
	if errors.As(err, &jbErr) && jbErr.Suggestion != "" {
		return jbErr.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	if errors.Is(err, ErrCatalogUnavailable) {
		return "Check catalog.count_url and catalog.data_url, then try again"
	}
	if errors.Is(err, ErrCatalogEmpty) {
		return "The catalog reports zero tracks. Regenerate it and try again"
	}
	if errors.Is(err, ErrNoTracks) {
		return "No catalog line could be parsed. Check the catalog format"
	}

	if errors.Is(err, ErrDeviceUnavailable) || strings.Contains(errStr, "executable file not found") {
		return "Install mpv or set playback.mpv_path in the config file"
	}

	if errors.Is(err, ErrUnknownPreference) {
		return "Run 'jukebox prefs show' to see the available keys"
	}

	if strings.Contains(errStr, "network") || strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused") {
		return "Check your internet connection and try again"
	}

	if errors.Is(err, ErrConfigNotFound) || errors.Is(err, ErrInvalidConfig) || strings.Contains(errStr, "config") {
		return "Run 'jukebox config init' to set up your configuration"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
// Catalog failures lead with their user message and keep the cause below it.
func Format(err error) string {
	if err == nil {
		return ""
	}

	msg := "Error: " + UserMessage(err)
	if detail := err.Error(); detail != UserMessage(err) {
		msg += "\n  " + detail
	}

	if suggestion := GetSuggestion(err); suggestion != "" {
		return fmt.Sprintf("%s\n\nSuggestion: %s", msg, suggestion)
	}
	return msg
}

// PartialResult represents a result that may have partial failures.
type PartialResult[T any] struct {
	Data   T
	Errors []error
}

// HasErrors returns true if there were any errors.
func (p *PartialResult[T]) HasErrors() bool {
	return len(p.Errors) > 0
}

// AddError adds an error to the partial result.
func (p *PartialResult[T]) AddError(err error) {
	if err != nil {
		p.Errors = append(p.Errors, err)
	}
}

// ErrorSummary returns a summary of all errors.
func (p *PartialResult[T]) ErrorSummary() string {
	if len(p.Errors) == 0 {
		return ""
	}
	if len(p.Errors) == 1 {
		return p.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:\n", len(p.Errors)))
	for i, err := range p.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}
