// Package emotion picks the affect label of an agent reply and decides
// whether the client should display it.
package emotion

import (
	"context"
	"log/slog"
	"strings"

	"starlight-postoffice/internal/crisis"
	"starlight-postoffice/internal/domain"
)

var (
	attackKeywords = []string{
		"멍청", "바보", "닥쳐", "꺼져", "짜증나게 하지", "쓸모없", "너 싫어", "너 미워",
		"stupid", "idiot", "shut up", "useless", "i hate you", "you suck", "dumb owl", "go away",
	}
	negativeKeywords = []string{
		"슬퍼", "슬프", "우울", "힘들", "외로", "눈물", "울었", "울고", "아파", "괴로", "속상",
		"sad", "depressed", "lonely", "crying", "cried", "it hurts", "miserable", "heartbroken", "exhausted",
	}
	positiveKeywords = []string{
		"고마워", "고맙", "감사", "행복", "기뻐", "기쁘", "신나", "설레", "좋았", "재밌",
		"thank", "happy", "glad", "excited", "wonderful", "grateful", "yay", "can't wait",
	}
)

// Classifier is the generic fallback classifier.
type Classifier interface {
	Classify(ctx context.Context, text string) (domain.Emotion, error)
}

// Input is what the cascade looks at.
type Input struct {
	Text         string
	Phase        domain.Phase
	Pending      bool
	CrisisActive bool
}

// Determiner runs the override cascade, first match wins.
type Determiner struct {
	classifier Classifier
	log        *slog.Logger
}

// NewDeterminer builds a determiner. A nil classifier makes the last step
// return neutral.
func NewDeterminer(classifier Classifier, log *slog.Logger) *Determiner {
	if log == nil {
		log = slog.Default()
	}
	return &Determiner{classifier: classifier, log: log}
}

func (d *Determiner) Determine(ctx context.Context, in Input) domain.Emotion {
	switch {
	case in.Pending:
		return domain.EmotionQuestion
	case containsAny(in.Text, attackKeywords):
		return domain.EmotionAnger
	case in.CrisisActive, crisis.IsCrisis(in.Text), containsAny(in.Text, negativeKeywords):
		return domain.EmotionSadness
	case in.Phase == domain.PhaseLetter, in.Phase == domain.PhaseEnding, containsAny(in.Text, positiveKeywords):
		return domain.EmotionJoy
	}

	if d.classifier == nil || strings.TrimSpace(in.Text) == "" {
		return domain.EmotionNeutral
	}
	e, err := d.classifier.Classify(ctx, in.Text)
	if err != nil {
		d.log.Warn("emotion classifier failed", "reason", "emotion_classifier_error", "err", err)
		return domain.EmotionNeutral
	}
	return e
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
