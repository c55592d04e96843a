package usecase

import (
	"fmt"
	"strings"

	"starlight-postoffice/internal/classifier"
	"starlight-postoffice/internal/domain"
)

const (
	maxHistoryTurns = 20
	maxPassageRunes = 700
)

const defaultPersonaPrompt = "You are Bueong, the owl postmaster of the Starlight Post Office, " +
	"a memory archive where letters from people's past and future selves are kept. " +
	"You are gruff on the surface and kind underneath. You speak briefly and now and then add a stage direction in parentheses."

type promptContext struct {
	persona  string
	room     classifier.Room
	phase    domain.Phase
	progress int
	minimum  int
	crisis   bool
	story    *classifier.StoryMatch
	passages []domain.Passage
	summary  string
}

func buildPromptMessages(pc promptContext, history []domain.Turn, message string) []domain.ChatMessage {
	messages := []domain.ChatMessage{
		{Role: "system", Content: buildPersonaPrompt(pc.persona)},
		{Role: "system", Content: buildSceneContextPrompt(pc)},
	}
	if pc.crisis {
		messages = append(messages, domain.ChatMessage{Role: "system", Content: crisisInstructions()})
	}
	for _, t := range history {
		if m, ok := historyToPromptMessage(t); ok {
			messages = append(messages, m)
		}
	}
	messages = append(messages, domain.ChatMessage{Role: "user", Content: message})
	return messages
}

func buildPersonaPrompt(persona string) string {
	if strings.TrimSpace(persona) == "" {
		persona = defaultPersonaPrompt
	}
	return strings.Join([]string{
		strings.TrimSpace(persona),
		"",
		"Behavior Rules:",
		behaviorRules(),
	}, "\n")
}

func behaviorRules() string {
	return strings.Join([]string{
		"1) Never simply repeat the visitor's words back to them.",
		"2) Acknowledge the feeling, offer one new angle, then ask at most one question.",
		"3) Keep each reply under about five sentences.",
		"4) Separate distinct thoughts with a blank line.",
		"5) Never say you are an AI or a language model.",
	}, "\n")
}

func buildSceneContextPrompt(pc promptContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Location: %s. %s\n", pc.room.Name, pc.room.Description)

	switch pc.phase {
	case domain.PhaseDrawerDialogue:
		fmt.Fprintf(&b, "Stage: at the drawer, exchange %d of %d. Help the visitor say what they never said.\n", pc.progress, pc.minimum)
	default:
		fmt.Fprintf(&b, "Stage: in the room, exchange %d of %d. Help the visitor find the memory that brought them here.\n", pc.progress, pc.minimum)
	}
	if pc.minimum > 0 && pc.progress >= pc.minimum {
		b.WriteString("This is the last exchange here. Close warmly and do not ask a question.\n")
	}

	if s := normalizePromptInput(pc.summary); s != "" {
		fmt.Fprintf(&b, "\nConversation so far:\n%s\n", s)
	}

	if pc.story != nil {
		fmt.Fprintf(&b, "\nA memory of your own you may share, in your own words (%s):\n%s\n",
			pc.story.Story.Style, pc.story.Content())
	}

	if len(pc.passages) > 0 {
		b.WriteString("\nBackground notes (use only if relevant, never quote them):\n")
		for _, p := range pc.passages {
			fmt.Fprintf(&b, "- %s\n", truncateRunes(normalizePromptInput(p.Text), maxPassageRunes))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func crisisInstructions() string {
	return strings.Join([]string{
		"Safety Mode:",
		"The visitor may be at risk of harming themselves.",
		"Drop the playful tone and do not move the story forward.",
		"Respond with calm warmth and take their feelings seriously.",
		"Gently encourage them to reach out to someone they trust or to a local crisis line (for example 988 in the US or 109 in Korea).",
	}, "\n")
}

func historyToPromptMessage(t domain.Turn) (domain.ChatMessage, bool) {
	text := strings.TrimSpace(t.Text)
	if text == "" || t.Unanswered || !(t.Phase.Dialogue() || t.Phase == domain.PhaseDrawerTransition) {
		return domain.ChatMessage{}, false
	}
	role := "user"
	if t.Role == domain.RoleAgent {
		role = "assistant"
	}
	return domain.ChatMessage{Role: role, Content: text}, true
}

func buildClosingMessages(persona string, room classifier.Room, lastLine string, crisis bool) []domain.ChatMessage {
	messages := []domain.ChatMessage{
		{Role: "system", Content: buildPersonaPrompt(persona)},
		{Role: "system", Content: fmt.Sprintf(
			"Location: %s. Reply to the visitor's last words with one or two short sentences that close this part of the conversation. Do not ask a question.",
			room.Name)},
	}
	if crisis {
		messages = append(messages, domain.ChatMessage{Role: "system", Content: crisisInstructions()})
	}
	return append(messages, domain.ChatMessage{Role: "user", Content: lastLine})
}

func buildSummaryMessages(previous string, turns []domain.Turn) []domain.ChatMessage {
	var b strings.Builder
	if p := normalizePromptInput(previous); p != "" {
		fmt.Fprintf(&b, "Earlier summary: %s\n\n", p)
	}
	for _, t := range turns {
		speaker := "Visitor"
		if t.Role == domain.RoleAgent {
			speaker = "Bueong"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, normalizePromptInput(t.Text))
	}
	return []domain.ChatMessage{
		{Role: "system", Content: "Summarize this conversation between a visitor and the owl postmaster in at most three sentences. Keep the people, events and feelings the visitor mentioned."},
		{Role: "user", Content: b.String()},
	}
}

func normalizePromptInput(s string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(s)), " ")
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}

func lastTurns(turns []domain.Turn, n int) []domain.Turn {
	if len(turns) > n {
		return turns[len(turns)-n:]
	}
	return turns
}
