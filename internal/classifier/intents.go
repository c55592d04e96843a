package classifier

import (
	"strings"
	"unicode"
)

var (
	letterNowPhrases = []string{
		"편지 줘", "편지 주세요", "편지 받을래", "편지 받고 싶", "편지를 줘", "편지를 주세요", "편지 보여줘", "편지 지금", "바로 편지",
		"give me the letter", "letter now", "just give me the letter", "i want the letter", "show me the letter", "skip to the letter",
	}
	reentryPhrases = []string{
		"처음부터", "다시 시작", "새로 시작", "처음으로",
		"start over", "start again", "restart", "from the beginning", "begin again",
	}
	showAgainPhrases = []string{
		"다시 보여", "다시 볼래", "한번 더", "한 번 더", "다시 읽",
		"show me again", "show it again", "again please", "read it again", "one more time", "show again",
	}
	yesPhrases = []string{
		"네", "예", "응", "그래", "좋아", "맞아", "할래", "갈래",
		"yes", "yeah", "yep", "sure", "ok", "okay", "please", "do it", "let's go",
	}
	noPhrases = []string{
		"아니", "싫어", "안 할래", "안할래", "그냥 있을래", "계속",
		"no", "nope", "not now", "stay", "keep going", "continue", "cancel",
	}
)

// Answer is a parsed reply to a yes/no question.
type Answer int

const (
	AnswerUnclear Answer = iota
	AnswerYes
	AnswerNo
)

func WantsLetterNow(text string) bool { return containsAny(text, letterNowPhrases) }

func WantsReentry(text string) bool { return containsAny(text, reentryPhrases) }

func WantsShowAgain(text string) bool { return containsAny(text, showAgainPhrases) }

// ParseAnswer reads a confirmation reply. Negative phrases are checked first
// because several contain a positive word ("안 할래" contains "할래").
func ParseAnswer(text string) Answer {
	words := tokens(text)
	if matchesAnswer(text, words, noPhrases) {
		return AnswerNo
	}
	if matchesAnswer(text, words, yesPhrases) {
		return AnswerYes
	}
	return AnswerUnclear
}

// matchesAnswer compares multi-word phrases as substrings, short English
// words as whole tokens (so "no" does not fire inside "know") and short
// Korean words as token prefixes (so "좋아" matches "좋아요").
func matchesAnswer(text string, words []string, phrases []string) bool {
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if strings.Contains(p, " ") {
			if strings.Contains(lower, p) {
				return true
			}
			continue
		}
		ascii := isASCII(p)
		for _, w := range words {
			if (ascii && w == p) || (!ascii && strings.HasPrefix(w, p)) {
				return true
			}
		}
	}
	return false
}

func tokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > unicode.MaxASCII {
			return false
		}
	}
	return true
}
