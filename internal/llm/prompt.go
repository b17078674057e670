package llm

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	maxTitleRunes      = 50
	fallbackTitleRunes = 30
)

// TitleSystemPrompt frames every title request
const TitleSystemPrompt = "You name chat conversations. You answer with a title and nothing else."

// BuildTitlePrompt creates a prompt asking for a conversation title
func BuildTitlePrompt(message string) string {
	return fmt.Sprintf(`Write a short title for a conversation that starts with the message below.

Rules:
1. At most 6 words
2. Same language as the message
3. No quotes, no punctuation at the end, no markdown
4. Reply with the title only

Message:
%s

Title:`, strings.TrimSpace(message))
}

// CleanTitle normalizes a raw model reply into a single-line title
func CleanTitle(content string) string {
	content = strings.TrimSpace(content)

	// Keep the first non-empty line
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			content = line
			break
		}
	}

	content = strings.TrimPrefix(content, "Title:")
	content = strings.Trim(content, " \t*#`\"'“”「」.")

	return truncateRunes(content, maxTitleRunes, "")
}

// FallbackTitle derives a title from the message text alone
func FallbackTitle(message string) string {
	return truncateRunes(strings.TrimSpace(message), fallbackTitleRunes, "...")
}

func truncateRunes(s string, n int, suffix string) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + suffix
}
