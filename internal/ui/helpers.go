package ui

import (
	"errors"
	"strings"

	"parley/internal/api"
)

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(text) <= limit {
		return text
	}
	if limit <= 3 {
		return text[:limit]
	}
	return text[:limit-3] + "..."
}

func compactSingleLine(text string, limit int) string {
	compact := strings.Join(strings.Fields(text), " ")
	return truncate(compact, limit)
}

func nullCoalesce(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// firstRunes returns the first n runes of text, used to derive a new
// conversation's name from its opening message.
func firstRunes(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}

// requestErrorText prefers the server's message for a failed request and
// falls back to a generic one-liner otherwise.
func requestErrorText(err error, fallback string) string {
	var status *api.StatusError
	if errors.As(err, &status) && status.Message != "" {
		return compactSingleLine(status.Message, 160)
	}
	return fallback
}
