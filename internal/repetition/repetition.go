// Package repetition tracks how many turns in a row the user has sent the
// same request, either verbatim or paraphrased.
package repetition

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"starlight-postoffice/internal/domain"
	"starlight-postoffice/internal/vectorstore"
)

const (
	// SemanticThreshold is the cosine similarity above which two messages
	// count as the same request.
	SemanticThreshold = 0.85
	// Window is how many previous user messages are compared.
	Window = 3
	// ExitCount is the repeat count that forces the letter.
	ExitCount = 3
)

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// IntentKey normalizes text for exact comparison.
func IntentKey(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(text)) {
		switch {
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Detector updates the repeat counter. A nil embedder disables the semantic
// comparison.
type Detector struct {
	embedder Embedder
	log      *slog.Logger
}

func NewDetector(embedder Embedder, log *slog.Logger) *Detector {
	if log == nil {
		log = slog.Default()
	}
	return &Detector{embedder: embedder, log: log}
}

// Observe records text against state and returns the new consecutive count.
// previous holds earlier user messages, oldest first, excluding text.
func (d *Detector) Observe(ctx context.Context, state *domain.RepetitionState, text string, previous []string) int {
	key := IntentKey(text)
	repeated := key != "" && key == state.LastKey
	if !repeated {
		repeated = d.similarToRecent(ctx, text, previous)
	}

	state.LastKey = key
	if repeated {
		state.Count++
	} else {
		state.Count = 1
	}
	return state.Count
}

func (d *Detector) similarToRecent(ctx context.Context, text string, previous []string) bool {
	if d.embedder == nil || len(previous) == 0 || strings.TrimSpace(text) == "" {
		return false
	}
	if len(previous) > Window {
		previous = previous[len(previous)-Window:]
	}

	current, err := d.embedder.Embed(ctx, text)
	if err != nil {
		d.log.Warn("repetition embedding failed", "reason", "embedding_error", "err", err)
		return false
	}
	for _, p := range previous {
		vec, err := d.embedder.Embed(ctx, p)
		if err != nil {
			d.log.Warn("repetition embedding failed", "reason", "embedding_error", "err", err)
			return false
		}
		if vectorstore.Cosine(current, vec) > SemanticThreshold {
			return true
		}
	}
	return false
}
