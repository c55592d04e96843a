package usecase

import (
	"strings"

	"starlight-postoffice/internal/classifier"
	"starlight-postoffice/internal/domain"
	"starlight-postoffice/internal/letter"
)

func (p *PostOffice) handleEntrance(t *turn) domain.Response {
	if !wantsLetter(t.text) {
		return domain.Reply{Text: entranceClarify, Phase: domain.PhaseEntrance, Buttons: []string{LetterAffordance}}
	}
	t.s.Phase = domain.PhaseRoomSelect
	return domain.Transition{
		Texts:   append([]string(nil), roomPromptLines...),
		From:    domain.PhaseEntrance,
		To:      domain.PhaseRoomSelect,
		Buttons: p.rooms.Buttons(),
	}
}

func wantsLetter(text string) bool {
	lower := strings.ToLower(text)
	return strings.EqualFold(text, LetterAffordance) ||
		strings.Contains(lower, "letter") || strings.Contains(lower, "편지")
}

func (p *PostOffice) handleRoomSelect(t *turn) domain.Response {
	if classifier.WantsReentry(t.text) {
		return p.askConfirmation(t, domain.ConfirmReentry, "")
	}
	room, ok := p.rooms.Room(p.rooms.Detect(t.text))
	if !ok {
		return domain.Reply{Text: roomReprompt, Phase: domain.PhaseRoomSelect, Buttons: p.rooms.Buttons()}
	}
	return p.enterRoom(t, room)
}

// enterRoom starts a fresh room dwell. The emotion baseline is reset and the
// first dialogue turn in the room forces a label.
func (p *PostOffice) enterRoom(t *turn, room classifier.Room) domain.Response {
	s := t.s
	from := s.Phase
	s.Room = room.ID
	s.Phase = domain.PhaseRoomDialogue
	s.RoomTurns = 0
	s.DrawerTurns = 0
	s.Stamp = ""
	s.Repetition = domain.RepetitionState{}
	s.LastEmotion = domain.EmotionNeutral
	s.ForceEmotion = true
	return domain.Transition{Texts: roomEntryLines(room), From: from, To: domain.PhaseRoomDialogue}
}

func (p *PostOffice) toCorridor(t *turn) domain.Response {
	s := t.s
	from := s.Phase
	s.Room = ""
	s.RoomTurns = 0
	s.Phase = domain.PhaseRoomSelect
	return domain.Transition{
		Texts:   []string{corridorLine},
		From:    from,
		To:      domain.PhaseRoomSelect,
		Buttons: p.rooms.Buttons(),
	}
}

// handleDrawerTransition closes the room conversation, picks the stamp from
// what was said in the room and opens the drawer.
func (p *PostOffice) handleDrawerTransition(t *turn) domain.Response {
	s := t.s
	if classifier.WantsReentry(t.text) {
		return p.askConfirmation(t, domain.ConfirmReentry, "")
	}
	p.observeCrisis(t)

	room, _ := p.rooms.Room(s.Room)
	closing := p.closingLine(t, room)
	s.Stamp = p.stamps.Assign(strings.Join(s.UserTexts(domain.PhaseRoomDialogue), "\n"), s.Room)
	s.Phase = domain.PhaseDrawerDialogue
	s.DrawerTurns = 0

	return domain.Transition{
		Texts: append([]string{closing}, drawerLines...),
		From:  domain.PhaseDrawerTransition,
		To:    domain.PhaseDrawerDialogue,
	}
}

func (p *PostOffice) handleLetter(t *turn) domain.Response {
	return p.writeLetter(t, nil)
}

// deliverLetter jumps to letter generation within the current turn. lead
// lines are shown before the letter.
func (p *PostOffice) deliverLetter(t *turn, lead []string) domain.Response {
	t.s.Phase = domain.PhaseLetter
	return p.writeLetter(t, lead)
}

func (p *PostOffice) writeLetter(t *turn, lead []string) domain.Response {
	s := t.s
	room, _ := p.rooms.Room(s.Room)
	said := s.UserTexts(domain.PhaseRoomDialogue, domain.PhaseDrawerTransition, domain.PhaseDrawerDialogue)
	s.Stamp = p.stamps.Assign(strings.Join(said, "\n"), s.Room)
	stamp, _ := p.stamps.Stamp(s.Stamp)

	text, err := p.letters.Generate(t.ctx, letter.Request{
		RoomName:     room.Name,
		StampID:      stamp.ID,
		StampMeaning: stamp.Meaning,
		Situation:    stamp.Situation,
		Summary:      s.Summary,
		UserLines:    said,
		Turns:        s.RoomTurns + s.DrawerTurns,
	})
	if err != nil {
		t.log.Warn("letter generation failed, using fallback", "reason", "letter_generation_error", "err", err)
		text = letter.Fallback()
	}
	s.Letter = text
	s.Phase = domain.PhaseEnding

	texts := make([]string, 0, len(lead)+len(letterFoundLines)+1)
	texts = append(texts, lead...)
	texts = append(texts, letterFoundLines...)
	texts = append(texts, stampLine(stamp))
	return domain.ArtifactDelivered{
		Texts:     texts,
		Letter:    text,
		StampCode: stamp.ID,
		Buttons:   endingButtons(),
	}
}

func (p *PostOffice) handleEnding(t *turn) domain.Response {
	s := t.s
	switch {
	case classifier.WantsReentry(t.text):
		return p.reset(t)
	case classifier.WantsShowAgain(t.text) && s.Letter != "":
		return domain.ArtifactDelivered{
			Texts:     []string{showAgainLine},
			Letter:    s.Letter,
			StampCode: s.Stamp,
			Buttons:   endingButtons(),
		}
	}
	room, _ := p.rooms.Room(s.Room)
	return domain.Reply{Text: farewellLine(room.StampSymbol), Phase: domain.PhaseEnding, Buttons: endingButtons()}
}

// reset wipes the stored session and greets the visitor again.
func (p *PostOffice) reset(t *turn) domain.Response {
	if err := p.sessions.Delete(t.ctx, t.s.Identity); err != nil {
		t.log.Warn("failed to delete session", "reason", "session_delete_error", "err", err)
	}
	t.s = domain.NewSession(t.s.Identity, p.now())
	t.reset = true
	return greeting()
}

func (p *PostOffice) askConfirmation(t *turn, kind domain.Confirmation, room string) domain.Response {
	t.s.Pending = kind
	t.s.PendingRoom = room
	return domain.Reply{Text: p.question(kind, room), Phase: t.s.Phase, Buttons: confirmButtons()}
}

func (p *PostOffice) question(kind domain.Confirmation, room string) string {
	switch kind {
	case domain.ConfirmLetterNow:
		return askLetterNow
	case domain.ConfirmRoomChange:
		if r, ok := p.rooms.Room(room); ok {
			return askRoomChange(r)
		}
		return askCorridor
	default:
		return askReentry
	}
}

// handlePending resolves a yes/no question asked on the previous turn. An
// unclear answer asks again.
func (p *PostOffice) handlePending(t *turn) domain.Response {
	s := t.s
	kind, room := s.Pending, s.PendingRoom
	if _, known := declinedLines[kind]; !known {
		t.log.Warn("dropping unknown confirmation", "reason", "unknown_confirmation", "pending", kind)
		s.Pending, s.PendingRoom = domain.ConfirmNone, ""
		return p.dispatch(t)
	}

	answer := classifier.ParseAnswer(t.text)
	if answer == classifier.AnswerUnclear {
		switch {
		case kind == domain.ConfirmLetterNow && classifier.WantsLetterNow(t.text),
			kind == domain.ConfirmReentry && classifier.WantsReentry(t.text):
			answer = classifier.AnswerYes
		}
	}

	switch answer {
	case classifier.AnswerNo:
		s.Pending, s.PendingRoom = domain.ConfirmNone, ""
		return domain.Reply{Text: declinedLines[kind], Phase: s.Phase}
	case classifier.AnswerYes:
		s.Pending, s.PendingRoom = domain.ConfirmNone, ""
		switch kind {
		case domain.ConfirmLetterNow:
			return p.deliverLetter(t, nil)
		case domain.ConfirmReentry:
			return p.reset(t)
		case domain.ConfirmRoomChange:
			if r, ok := p.rooms.Room(room); ok {
				return p.enterRoom(t, r)
			}
			return p.toCorridor(t)
		}
	}
	return domain.Reply{
		Text:    unclearAnswerPrefix + " " + p.question(kind, room),
		Phase:   s.Phase,
		Buttons: confirmButtons(),
	}
}
