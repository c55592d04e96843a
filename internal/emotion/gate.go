package emotion

import "starlight-postoffice/internal/domain"

var ranks = map[domain.Emotion]int{
	domain.EmotionNeutral:  0,
	domain.EmotionQuestion: 1,
	domain.EmotionJoy:      2,
	domain.EmotionSadness:  3,
	domain.EmotionAnger:    4,
}

// Rank is the severity rank of e. Unknown labels rank as neutral.
func Rank(e domain.Emotion) int { return ranks[e] }

// Gate reports whether next should be displayed given the last displayed
// label. Neutral and repeats are never shown. A forced display skips the
// scripted-phase suppression and the rank delta rule.
func Gate(next, previous domain.Emotion, phase domain.Phase, force bool) bool {
	if next == domain.EmotionNeutral || next == "" || next == previous {
		return false
	}
	if force {
		return true
	}
	if phase.Scripted() {
		return false
	}
	return abs(Rank(next)-Rank(previous)) >= 1
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
