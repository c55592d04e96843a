// Package letter writes the closing letter a visitor receives from their past
// or future self.
package letter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"starlight-postoffice/internal/domain"
)

const (
	// Salutation opens every letter.
	Salutation = "To. The me of right now,"

	temperature = 0.8
	maxTokens   = 500
	// maxLines bounds how much of the visit is quoted into the prompt.
	maxLines = 20
)

// LLM is the completion backend.
type LLM interface {
	Chat(ctx context.Context, req domain.ChatRequest) (string, error)
}

// Request is everything the letter is written from.
type Request struct {
	RoomName     string
	StampID      string
	StampMeaning string
	Situation    string
	Summary      string
	UserLines    []string
	Turns        int
}

type Generator struct {
	llm   LLM
	model string
}

func NewGenerator(llm LLM, model string) *Generator {
	return &Generator{llm: llm, model: model}
}

// Generate asks the model for the letter. On error the caller should fall
// back to Fallback.
func (g *Generator) Generate(ctx context.Context, req Request) (string, error) {
	if g == nil || g.llm == nil {
		return "", errors.New("letter: no language model configured")
	}
	out, err := g.llm.Chat(ctx, domain.ChatRequest{
		Model: g.model,
		Messages: []domain.ChatMessage{
			{Role: "system", Content: Prompt(req)},
			{Role: "user", Content: "Please write the letter."},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("letter: generate: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", errors.New("letter: empty completion")
	}
	if !strings.HasPrefix(out, "To.") {
		out = Salutation + "\n\n" + out
	}
	return out, nil
}

// Fallback is the fixed letter used when generation fails.
func Fallback() string {
	return Salutation + "\n\nThe feeling you came looking for is right here. Don't forget it."
}

// Prompt builds the system instructions for the letter.
func Prompt(req Request) string {
	var b strings.Builder
	b.WriteString("You write a letter in the voice of the visitor ten years ago or ten years from now.\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("1. Letter form, addressed to the present self.\n")
	b.WriteString("2. Warm and honest tone.\n")
	b.WriteString("3. Offer comfort, encouragement or a realization.\n")
	b.WriteString("4. About 200 to 400 characters.\n")
	b.WriteString("5. Speak as the past or future self looking at who they are today.\n")
	b.WriteString("6. Carry the heart of the conversation below.\n\n")

	fmt.Fprintf(&b, "Room: %s\n", req.RoomName)
	if req.StampID != "" {
		fmt.Fprintf(&b, "Stamp: %s (%s)\n", req.StampID, req.Situation)
		fmt.Fprintf(&b, "Stamp meaning: %s\n", req.StampMeaning)
	}
	if req.Summary != "" {
		fmt.Fprintf(&b, "\nSummary so far:\n%s\n", req.Summary)
	}

	lines := req.UserLines
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	fmt.Fprintf(&b, "\nWhat the visitor said (%d turns):\n", req.Turns)
	for _, l := range lines {
		fmt.Fprintf(&b, "- %s\n", l)
	}

	fmt.Fprintf(&b, "\nStart the letter with %q.\n", Salutation)
	b.WriteString("Say what the visitor truly needs to hear.")
	return b.String()
}
