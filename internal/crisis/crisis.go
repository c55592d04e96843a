// Package crisis detects self-harm risk language and keeps the sticky crisis
// state of a session.
package crisis

import (
	"strings"

	"starlight-postoffice/internal/domain"
)

// RecoveryTurns is the number of consecutive recovery turns that clear the
// crisis state.
const RecoveryTurns = 2

var crisisKeywords = []string{
	"죽고 싶", "죽고싶", "자살", "자해", "사라지고 싶", "살기 싫", "살고 싶지 않", "끝내고 싶", "목숨",
	"kill myself", "suicide", "suicidal", "want to die", "wanna die", "self-harm", "self harm",
	"hurt myself", "end my life", "end it all", "no reason to live",
}

var recoveryKeywords = []string{
	"괜찮아졌", "나아졌", "좀 나아", "괜찮아요", "이제 괜찮", "마음이 편해",
	"feel better", "feeling better", "i'm okay", "i am okay", "i'm ok", "better now", "i'm fine now", "i'm safe",
}

// IsCrisis reports crisis language in text.
func IsCrisis(text string) bool { return containsAny(text, crisisKeywords) }

// IsRecovery reports a recovery signal in text.
func IsRecovery(text string) bool { return containsAny(text, recoveryKeywords) }

// Event is what a single Observe call changed.
type Event int

const (
	EventNone Event = iota
	EventEntered
	EventCleared
)

// Observe updates state with one user turn. Crisis language always (re)arms
// the state and resets recovery progress. While active, a recovery turn
// advances the counter and RecoveryTurns in a row clear the state; any other
// turn resets the counter to zero.
func Observe(state *domain.CrisisState, text string) Event {
	if IsCrisis(text) {
		entered := !state.Active
		state.Active = true
		state.RecoveryCount = 0
		if entered {
			state.FirstTurnShown = false
			return EventEntered
		}
		return EventNone
	}
	if !state.Active {
		state.RecoveryCount = 0
		return EventNone
	}
	if !IsRecovery(text) {
		state.RecoveryCount = 0
		return EventNone
	}
	state.RecoveryCount++
	if state.RecoveryCount >= RecoveryTurns {
		state.Active = false
		state.RecoveryCount = 0
		state.FirstTurnShown = false
		return EventCleared
	}
	return EventNone
}

func containsAny(text string, phrases []string) bool {
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
