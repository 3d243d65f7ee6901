package conversation

import (
	"strings"
)

const (
	// DefaultName is used when a transcript has no user message to derive a
	// title from.
	DefaultName = "New chat"

	nameMaxRunes = 30
)

// SanitizeName strips characters that are not legal in a storage handle.
func SanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\\', '/', '*', '?', ':', '"', '<', '>', '|':
			return -1
		}
		return r
	}, name)
}

// DeriveName builds a human-readable title from the first user message:
// trimmed, rune-truncated to 30 characters with an ellipsis marker when
// truncated, illegal handle characters stripped.
func DeriveName(c Conversation) string {
	first, ok := c.FirstUserMessage()
	if !ok {
		return DefaultName
	}

	content := strings.TrimSpace(first.Content)
	if content == "" {
		return DefaultName
	}

	runes := []rune(content)
	truncated := false
	if len(runes) > nameMaxRunes {
		runes = runes[:nameMaxRunes]
		truncated = true
	}

	name := strings.TrimSpace(string(runes))
	if truncated {
		name += "..."
	}

	name = SanitizeName(name)
	if name == "" {
		return DefaultName
	}
	return name
}
