package usecase

import (
	"errors"
	"strings"

	"starlight-postoffice/internal/classifier"
	"starlight-postoffice/internal/crisis"
	"starlight-postoffice/internal/domain"
	"starlight-postoffice/internal/repetition"
	"starlight-postoffice/internal/retrieval"
)

const (
	roomTemperature    = 0.9
	drawerTemperature  = 0.95
	crisisTemperature  = 0.5
	closingTemperature = 0.7
	summaryTemperature = 0.3

	replyMaxTokens   = 400
	closingMaxTokens = 120
	summaryMaxTokens = 300

	// summaryEvery is the number of new messages that triggers a summary refresh.
	summaryEvery = 10
)

// handleDialogue serves both dialogue phases. Side channels are checked in a
// fixed order before the turn becomes ordinary conversation.
func (p *PostOffice) handleDialogue(t *turn) domain.Response {
	s := t.s
	p.observeCrisis(t)
	repeats := p.repetition.Observe(t.ctx, &s.Repetition, t.text, s.RecentUserTexts(repetition.Window))

	switch {
	case classifier.WantsReentry(t.text):
		return p.askConfirmation(t, domain.ConfirmReentry, "")
	case repeats >= repetition.ExitCount:
		t.log.Info("visitor keeps repeating, fetching the letter", "reason", "repetition_exit", "count", repeats)
		return p.deliverLetter(t, nil)
	case classifier.WantsLetterNow(t.text):
		if s.MinTurnsMet(p.minRoomTurns, p.minDrawerTurns) {
			return p.deliverLetter(t, nil)
		}
		return p.askConfirmation(t, domain.ConfirmLetterNow, "")
	}

	if s.Phase == domain.PhaseRoomDialogue {
		if ok, target := p.rooms.WantsRoomChange(t.text, s.Room); ok {
			return p.askConfirmation(t, domain.ConfirmRoomChange, target)
		}
	}
	return p.converse(t)
}

// observeCrisis updates the sticky crisis state with the current message.
func (p *PostOffice) observeCrisis(t *turn) {
	switch crisis.Observe(&t.s.Crisis, t.text) {
	case crisis.EventEntered:
		t.log.Warn("crisis language detected", "reason", "crisis_entered")
	case crisis.EventCleared:
		t.log.Info("crisis state cleared", "reason", "crisis_cleared")
	}
}

// converse runs one ordinary exchange with the model. The dwell counter only
// advances when the model answered.
func (p *PostOffice) converse(t *turn) domain.Response {
	s := t.s
	phase := s.Phase
	room, _ := p.rooms.Room(s.Room)

	progress, minimum, temperature := s.RoomTurns+1, p.minRoomTurns, roomTemperature
	if phase == domain.PhaseDrawerDialogue {
		progress, minimum, temperature = s.DrawerTurns+1, p.minDrawerTurns, drawerTemperature
	}
	if s.Crisis.Active {
		temperature = crisisTemperature
	}

	pc := promptContext{
		persona:  p.personaPrompt(t.ctx, t.log),
		room:     room,
		phase:    phase,
		progress: progress,
		minimum:  minimum,
		crisis:   s.Crisis.Active,
		passages: p.retrieve(t, s.Room),
		summary:  s.Summary,
	}
	if !s.Crisis.Active {
		if m, ok := p.stories.Select(t.text, s.Room, s.HasUsedStory); ok {
			pc.story = &m
		}
	}

	history := lastTurns(s.Turns[:len(s.Turns)-1], maxHistoryTurns)
	reply, err := p.llm.Chat(t.ctx, domain.ChatRequest{
		Model:       p.chatModel,
		Messages:    buildPromptMessages(pc, history, t.text),
		Temperature: temperature,
		MaxTokens:   replyMaxTokens,
	})
	if err == nil && strings.TrimSpace(reply) == "" {
		err = errors.New("usecase: empty completion")
	}
	if err != nil {
		return p.upstreamFailure(t, upstreamError("openai_chat", err))
	}

	t.conversed = true
	if pc.story != nil {
		s.MarkStoryUsed(pc.story.Story.ID)
	}

	if phase == domain.PhaseRoomDialogue {
		s.RoomTurns = progress
		if progress >= minimum {
			s.Phase = domain.PhaseDrawerTransition
		}
		return replyFor(reply, s.Phase, s.Crisis.Active)
	}

	s.DrawerTurns = progress
	if progress < minimum {
		return replyFor(reply, phase, s.Crisis.Active)
	}
	var lead []string
	if closing := stripTrailingQuestions(reply); closing != "" {
		lead = bubbles(closing, s.Crisis.Active)
	}
	return p.deliverLetter(t, lead)
}

// closingLine answers the visitor's last room line without a question.
func (p *PostOffice) closingLine(t *turn, room classifier.Room) string {
	temperature := closingTemperature
	if t.s.Crisis.Active {
		temperature = crisisTemperature
	}
	out, err := p.llm.Chat(t.ctx, domain.ChatRequest{
		Model:       p.chatModel,
		Messages:    buildClosingMessages(p.personaPrompt(t.ctx, t.log), room, t.text, t.s.Crisis.Active),
		Temperature: temperature,
		MaxTokens:   closingMaxTokens,
	})
	if err != nil {
		t.log.Warn("closing line failed, using fallback", "reason", "openai_closing_error", "err", err)
		return closingFallback
	}
	if line := stripTrailingQuestions(out); line != "" {
		return line
	}
	return closingFallback
}

func (p *PostOffice) retrieve(t *turn, scope string) []domain.Passage {
	if p.retriever == nil {
		return nil
	}
	passages, err := p.retriever.Retrieve(t.ctx, t.text, scope)
	switch {
	case errors.Is(err, retrieval.ErrUnavailable):
		t.log.Debug("retrieval skipped", "reason", "retrieval_unavailable")
		return nil
	case err != nil:
		t.log.Warn("retrieval failed", "reason", "retrieval_error", "err", err)
		return nil
	}
	return passages
}

// refreshSummary folds the messages since the last refresh into the running
// summary. Failures leave the old summary in place.
func (p *PostOffice) refreshSummary(t *turn) {
	s := t.s
	if s.SummaryAt > len(s.Turns) {
		s.SummaryAt = 0
	}
	if len(s.Turns)-s.SummaryAt < summaryEvery {
		return
	}
	out, err := p.llm.Chat(t.ctx, domain.ChatRequest{
		Model:       p.chatModel,
		Messages:    buildSummaryMessages(s.Summary, s.Turns[s.SummaryAt:]),
		Temperature: summaryTemperature,
		MaxTokens:   summaryMaxTokens,
	})
	if err != nil || strings.TrimSpace(out) == "" {
		t.log.Warn("summary refresh failed", "reason", "openai_summary_error", "err", err)
		return
	}
	s.Summary = strings.TrimSpace(out)
	s.SummaryAt = len(s.Turns)
}

func (p *PostOffice) upstreamFailure(t *turn, e *Error) domain.Response {
	t.log.Error("model call failed", "reason", e.Reason, "code", e.Code, "err", e.Err)
	return domain.ErrorReply{Text: dialogueFallback, Phase: t.s.Phase, Code: string(e.Code)}
}

func replyFor(text string, phase domain.Phase, crisisActive bool) domain.Response {
	parts := bubbles(text, crisisActive)
	if len(parts) == 1 {
		return domain.Reply{Text: parts[0], Phase: phase}
	}
	return domain.MultiReply{Texts: parts, Phase: phase}
}

// bubbles splits text for display. Crisis replies stay in one bubble.
func bubbles(text string, crisisActive bool) []string {
	if crisisActive {
		return []string{strings.TrimSpace(text)}
	}
	if parts := splitReply(text); len(parts) > 0 {
		return parts
	}
	return []string{strings.TrimSpace(text)}
}
