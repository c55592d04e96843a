package usecase

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxBubbles = 3

// splitReply breaks a model reply into at most maxBubbles bubbles on blank
// lines. Extra paragraphs are folded into the last bubble.
func splitReply(text string) []string {
	var parts []string
	for _, p := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > maxBubbles {
		tail := strings.Join(parts[maxBubbles-1:], "\n\n")
		parts = append(parts[:maxBubbles-1], tail)
	}
	return parts
}

// stripTrailingQuestions drops question sentences from the end of text. It
// returns "" when every sentence was a question.
func stripTrailingQuestions(text string) string {
	out := strings.TrimSpace(text)
	for strings.HasSuffix(out, "?") || strings.HasSuffix(out, "？") {
		body := strings.TrimRightFunc(out, func(r rune) bool {
			return r == '?' || r == '？' || r == '!' || unicode.IsSpace(r)
		})
		cut := strings.LastIndexAny(body, ".!?。\n")
		if cut < 0 {
			return ""
		}
		_, size := utf8.DecodeRuneInString(body[cut:])
		out = strings.TrimSpace(body[:cut+size])
	}
	return out
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
