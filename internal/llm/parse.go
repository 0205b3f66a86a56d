package llm

import "strings"

// cleanJSON strips the decoration models like to wrap around JSON payloads:
// markdown fences, a leading "json" label, commentary before the first brace.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	if strings.HasPrefix(text, "```") {
		parts := strings.Split(text, "```")
		if len(parts) >= 2 {
			text = strings.TrimSpace(parts[1])
		}
	}

	if strings.HasPrefix(strings.ToLower(text), "json") {
		text = strings.TrimSpace(text[4:])
	}

	if i := strings.Index(text, "{"); i > 0 {
		text = text[i:]
	}

	return strings.TrimSpace(text)
}

// parseLines splits a line-per-item completion into trimmed, non-empty items.
func parseLines(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			items = append(items, line)
		}
	}
	return items
}
