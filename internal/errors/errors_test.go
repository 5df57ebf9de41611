package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"empty", fmt.Errorf("%w: count is 0", ErrCatalogEmpty), "No music files"},
		{"unavailable", fmt.Errorf("%w: fetch count: 404", ErrCatalogUnavailable), "Error loading library"},
		{"no tracks", ErrNoTracks, "No tracks available"},
		{"suggested", WithSuggestion(ErrCatalogUnavailable, "set the URLs"), "Error loading library"},
		{"other", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		headline  string
		wantLines []string
	}{
		{
			name:      "catalog empty",
			err:       fmt.Errorf("%w: count is 0", ErrCatalogEmpty),
			headline:  "Error: No music files",
			wantLines: []string{"catalog empty: count is 0", "Suggestion: The catalog reports zero tracks"},
		},
		{
			name:      "catalog unavailable",
			err:       fmt.Errorf("%w: fetch count: connection refused", ErrCatalogUnavailable),
			headline:  "Error: Error loading library",
			wantLines: []string{"fetch count: connection refused", "Suggestion: Check catalog.count_url"},
		},
		{
			name:     "plain",
			err:      errors.New("boom"),
			headline: "Error: boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(tt.err)
			if first, _, _ := strings.Cut(got, "\n"); first != tt.headline {
				t.Errorf("headline = %q, want %q\n%s", first, tt.headline, got)
			}
			for _, want := range tt.wantLines {
				if !strings.Contains(got, want) {
					t.Errorf("Format() missing %q:\n%s", want, got)
				}
			}
		})
	}

	if got := Format(errors.New("boom")); got != "Error: boom" {
		t.Errorf("Format(plain) = %q", got)
	}
	if Format(nil) != "" {
		t.Error("Format(nil) should be empty")
	}
}
