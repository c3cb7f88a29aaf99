package devserver

import (
	"fmt"
	"strings"
)

// respond produces the automated responder's segments for one user message.
// The text-generation logic is deliberately canned: the client treats the
// responder as an opaque service that yields one or more segments, and the
// segment count here is deterministic so tests can rely on it.
func respond(text string) []string {
	trimmed := strings.TrimSpace(text)
	words := len(strings.Fields(trimmed))
	switch {
	case trimmed == "":
		return []string{"Say something and I'll answer."}
	case strings.HasSuffix(trimmed, "?"):
		return []string{
			"Good question.",
			fmt.Sprintf("You asked: %q. Here is my take on it.", compact(trimmed, 120)),
		}
	case words > 12:
		return []string{
			"That's a lot to unpack.",
			fmt.Sprintf("Summing up your %d words:", words),
			fmt.Sprintf("%q — noted.", compact(trimmed, 120)),
		}
	default:
		return []string{fmt.Sprintf("You said %q. Tell me more.", compact(trimmed, 120))}
	}
}

func compact(text string, limit int) string {
	joined := strings.Join(strings.Fields(text), " ")
	if len(joined) <= limit {
		return joined
	}
	if limit <= 3 {
		return joined[:limit]
	}
	return joined[:limit-3] + "..."
}
