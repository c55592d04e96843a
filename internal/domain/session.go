package domain

import "time"

// Phase is a stage of the post office visit.
type Phase string

const (
	PhaseEntrance         Phase = "entrance"
	PhaseRoomSelect       Phase = "room_select"
	PhaseRoomDialogue     Phase = "room_dialogue"
	PhaseDrawerTransition Phase = "drawer_transition"
	PhaseDrawerDialogue   Phase = "drawer_dialogue"
	PhaseLetter           Phase = "letter_generation"
	PhaseEnding           Phase = "ending"
)

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseEntrance, PhaseRoomSelect, PhaseRoomDialogue, PhaseDrawerTransition,
		PhaseDrawerDialogue, PhaseLetter, PhaseEnding:
		return true
	}
	return false
}

// Scripted reports whether the phase only emits fixed lines.
func (p Phase) Scripted() bool {
	return p == PhaseEntrance || p == PhaseRoomSelect || p == PhaseDrawerTransition
}

// Dialogue reports whether the phase is a free conversation phase.
func (p Phase) Dialogue() bool {
	return p == PhaseRoomDialogue || p == PhaseDrawerDialogue
}

// Confirmation is a side-channel question waiting for a yes/no answer.
type Confirmation string

const (
	ConfirmNone       Confirmation = ""
	ConfirmRoomChange Confirmation = "room_change"
	ConfirmLetterNow  Confirmation = "letter_now"
	ConfirmReentry    Confirmation = "reentry"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Turn is one appended line of the conversation.
type Turn struct {
	Role  Role   `json:"role"`
	Text  string `json:"text"`
	Phase Phase  `json:"phase"`
	// Unanswered marks a user line whose exchange failed.
	Unanswered bool `json:"unanswered,omitempty"`
}

// CrisisState is the sticky safety state of a session.
type CrisisState struct {
	Active         bool `json:"active"`
	FirstTurnShown bool `json:"first_turn_shown"`
	RecoveryCount  int  `json:"recovery_count"`
}

// RepetitionState tracks consecutive repeats of the same intent.
type RepetitionState struct {
	LastKey string `json:"last_key"`
	Count   int    `json:"count"`
}

// Session is the whole persisted state of one visitor.
type Session struct {
	Identity string `json:"identity"`
	Phase    Phase  `json:"phase"`
	Room     string `json:"room,omitempty"`
	Stamp    string `json:"stamp,omitempty"`
	Turns    []Turn `json:"turns"`

	RoomTurns   int `json:"room_turns"`
	DrawerTurns int `json:"drawer_turns"`

	Summary   string `json:"summary,omitempty"`
	SummaryAt int    `json:"summary_at"`

	Repetition RepetitionState `json:"repetition"`
	Crisis     CrisisState     `json:"crisis"`

	Pending     Confirmation `json:"pending,omitempty"`
	PendingRoom string       `json:"pending_room,omitempty"`

	UsedStories []string `json:"used_stories"`

	// LastEmotion is the last label actually displayed. ForceEmotion arms a
	// one-time forced display for the first turn after entering a room.
	LastEmotion  Emotion `json:"last_emotion"`
	ForceEmotion bool    `json:"force_emotion"`

	Letter string `json:"letter,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession returns a fresh session at the entrance.
func NewSession(identity string, now time.Time) *Session {
	return &Session{
		Identity:    identity,
		Phase:       PhaseEntrance,
		Turns:       []Turn{},
		UsedStories: []string{},
		LastEmotion: EmotionNeutral,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Append records a turn tagged with the current phase.
func (s *Session) Append(role Role, text string) {
	s.Turns = append(s.Turns, Turn{Role: role, Text: text, Phase: s.Phase})
}

// UserTexts returns user lines, oldest first, optionally filtered by phase.
func (s *Session) UserTexts(phases ...Phase) []string {
	var out []string
	for _, t := range s.Turns {
		if t.Role != RoleUser {
			continue
		}
		if len(phases) > 0 && !containsPhase(phases, t.Phase) {
			continue
		}
		out = append(out, t.Text)
	}
	return out
}

// RecentUserTexts returns up to n answered user lines preceding the last user
// line.
func (s *Session) RecentUserTexts(n int) []string {
	last := -1
	for i := len(s.Turns) - 1; i >= 0; i-- {
		if s.Turns[i].Role == RoleUser {
			last = i
			break
		}
	}
	if last < 0 {
		return nil
	}
	var prev []string
	for _, t := range s.Turns[:last] {
		if t.Role == RoleUser && !t.Unanswered {
			prev = append(prev, t.Text)
		}
	}
	if len(prev) > n {
		prev = prev[len(prev)-n:]
	}
	return prev
}

// MarkLastUserUnanswered flags the most recent user line as failed.
func (s *Session) MarkLastUserUnanswered() {
	for i := len(s.Turns) - 1; i >= 0; i-- {
		if s.Turns[i].Role == RoleUser {
			s.Turns[i].Unanswered = true
			return
		}
	}
}

// LastUserText returns the most recent user line.
func (s *Session) LastUserText() string {
	for i := len(s.Turns) - 1; i >= 0; i-- {
		if s.Turns[i].Role == RoleUser {
			return s.Turns[i].Text
		}
	}
	return ""
}

func (s *Session) HasUsedStory(id string) bool {
	for _, u := range s.UsedStories {
		if u == id {
			return true
		}
	}
	return false
}

// MarkStoryUsed adds id to the used set, keeping first-use order.
func (s *Session) MarkStoryUsed(id string) {
	if id == "" || s.HasUsedStory(id) {
		return
	}
	s.UsedStories = append(s.UsedStories, id)
}

// MinTurnsMet reports whether the dwell counter of the current dialogue phase
// has reached its minimum.
func (s *Session) MinTurnsMet(minRoom, minDrawer int) bool {
	switch s.Phase {
	case PhaseRoomDialogue:
		return s.RoomTurns >= minRoom
	case PhaseDrawerDialogue:
		return s.DrawerTurns >= minDrawer
	}
	return false
}

func containsPhase(phases []Phase, p Phase) bool {
	for _, x := range phases {
		if x == p {
			return true
		}
	}
	return false
}
