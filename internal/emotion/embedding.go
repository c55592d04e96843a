package emotion

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"starlight-postoffice/internal/domain"
	"starlight-postoffice/internal/vectorstore"
)

// MinMargin is how far the best reference must beat the runner-up before the
// label is trusted.
const MinMargin = 0.05

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type reference struct {
	label  domain.Emotion
	prompt string
}

var references = []reference{
	{domain.EmotionJoy, "I feel really happy and good today. Everything seems to be going well. 정말 행복하고 기분이 좋아."},
	{domain.EmotionSadness, "I feel so sad and down today. I have no energy for anything. 오늘은 정말 슬프고 우울해."},
	{domain.EmotionJoy, "I'm so excited, I can't wait for what comes next! 너무 신나고 설레!"},
	{domain.EmotionQuestion, "I'm confused and don't know what to do. I don't really understand. 혼란스럽고 잘 모르겠어."},
	{domain.EmotionSadness, "I'm anxious and worried. I can't relax and I keep feeling tense. 불안하고 걱정돼."},
	{domain.EmotionNeutral, "Nothing special. I feel ordinary, just normal. 그냥 보통이야."},
}

// EmbeddingClassifier labels text by its nearest reference prompt.
type EmbeddingClassifier struct {
	embedder Embedder

	mu   sync.Mutex
	refs [][]float32
}

func NewEmbeddingClassifier(embedder Embedder) *EmbeddingClassifier {
	return &EmbeddingClassifier{embedder: embedder}
}

func (c *EmbeddingClassifier) Classify(ctx context.Context, text string) (domain.Emotion, error) {
	refs, err := c.referenceVectors(ctx)
	if err != nil {
		return domain.EmotionNeutral, err
	}
	vec, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return domain.EmotionNeutral, fmt.Errorf("emotion: embed text: %w", err)
	}

	type scored struct {
		label domain.Emotion
		sim   float64
	}
	all := make([]scored, len(refs))
	for i, r := range refs {
		all[i] = scored{label: references[i].label, sim: vectorstore.Cosine(vec, r)}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].sim > all[j].sim })

	if all[0].sim-all[1].sim < MinMargin {
		return domain.EmotionNeutral, nil
	}
	return all[0].label, nil
}

// referenceVectors embeds the reference prompts on first use. A failed
// attempt is retried on the next call.
func (c *EmbeddingClassifier) referenceVectors(ctx context.Context) ([][]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refs != nil {
		return c.refs, nil
	}
	refs := make([][]float32, len(references))
	for i, r := range references {
		vec, err := c.embedder.Embed(ctx, r.prompt)
		if err != nil {
			return nil, fmt.Errorf("emotion: embed reference: %w", err)
		}
		refs[i] = vec
	}
	c.refs = refs
	return refs, nil
}
