package main

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// ErrorContentNotJSON is reported when a failure body cannot be read as JSON
	ErrorContentNotJSON = "Error content is not in JSON format"

	maxRawPreview = 200
)

// FormatResult renders result as the one-line console status
func FormatResult(result *PublishResult) string {
	if result.Succeeded() {
		if result.URL != "" {
			return fmt.Sprintf("Article published successfully! %s", result.URL)
		}
		return "Article published successfully!"
	}

	if result.Detail == ErrorContentNotJSON {
		preview := strings.Join(strings.Fields(result.Body), " ")
		if len(preview) > maxRawPreview {
			cut := maxRawPreview
			for cut > 0 && !utf8.RuneStart(preview[cut]) {
				cut--
			}
			preview = preview[:cut] + "..."
		}
		if preview == "" {
			return fmt.Sprintf("Error: %d: %s", result.StatusCode, ErrorContentNotJSON)
		}
		return fmt.Sprintf("Error: %d: %s: %s", result.StatusCode, ErrorContentNotJSON, preview)
	}

	return fmt.Sprintf("Error: %d: Error content: %s", result.StatusCode, result.Detail)
}
