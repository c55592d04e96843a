package classifier

import "strings"

const scopeRoom = "room"

// Room is one of the four memory rooms of the post office.
type Room struct {
	ID          string
	Name        string
	Button      string
	Description string
	StampSymbol string
	keywords    []string
}

var rooms = []Room{
	{
		ID:          "regret",
		Name:        "the Room of Regret",
		Button:      "The Room of Regret",
		Description: "Dust hangs over shelves of unsent replies and half-finished maps. Every drawer here holds a road someone did not take.",
		StampSymbol: "a wilted compass",
		keywords:    []string{"regret", "후회"},
	},
	{
		ID:          "love",
		Name:        "the Room of Love",
		Button:      "The Room of Love",
		Description: "The air smells of old paper and faded roses. Letters tied with ribbon are stacked to the ceiling, some never opened.",
		StampSymbol: "a folded paper heart",
		keywords:    []string{"love", "사랑"},
	},
	{
		ID:          "anxiety",
		Name:        "the Room of Anxiety",
		Button:      "The Room of Anxiety",
		Description: "Clocks tick out of step with one another. The lamps flicker, yet the light never quite goes out.",
		StampSymbol: "a lantern in the fog",
		keywords:    []string{"anxiety", "anxious", "불안"},
	},
	{
		ID:          "dream",
		Name:        "the Room of Dreams",
		Button:      "The Room of Dreams",
		Description: "Star charts cover the walls and paper boats sit on every windowsill, waiting for a tide that has not come yet.",
		StampSymbol: "a falling star",
		keywords:    []string{"dream", "꿈"},
	},
}

// forward markers reject the text before them ("후회 말고 사랑");
// backward markers reject the text after them ("love instead of regret").
var (
	forwardContrastMarkers  = []string{"말고", "대신에", "대신"}
	backwardContrastMarkers = []string{"instead of", "rather than", "not the"}
)

var roomChangePhrases = []string{
	"다른 방", "방을 바꾸", "방 바꾸", "방을 옮기", "방 옮기", "다른 곳으로",
	"change room", "change the room", "another room", "different room", "switch room", "switch rooms", "other room",
}

// RoomMatcher detects room names in user text.
type RoomMatcher struct {
	table *Table
	byID  map[string]Room
}

func NewRoomMatcher() *RoomMatcher {
	m := &RoomMatcher{table: NewTable(nil), byID: make(map[string]Room, len(rooms))}
	for _, r := range rooms {
		m.table.Register(Entry{Scope: scopeRoom, Label: r.ID, Keywords: r.keywords})
		m.byID[r.ID] = r
	}
	return m
}

// Detect returns the room named in text after contrastive stripping, or ""
// when no room vocabulary matches.
func (m *RoomMatcher) Detect(text string) string {
	label, score := m.table.Classify(StripContrast(text), scopeRoom)
	if score == 0 {
		return ""
	}
	return label
}

// Room looks up room metadata by id.
func (m *RoomMatcher) Room(id string) (Room, bool) {
	r, ok := m.byID[id]
	return r, ok
}

// Rooms returns all rooms in display order.
func (m *RoomMatcher) Rooms() []Room {
	out := make([]Room, len(rooms))
	copy(out, rooms)
	return out
}

// Buttons returns the room-choice affordances.
func (m *RoomMatcher) Buttons() []string {
	out := make([]string, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Button)
	}
	return out
}

// WantsRoomChange reports an explicit request to leave the current room.
// The returned room is the requested destination, "" when none was named or
// when it names the current room.
func (m *RoomMatcher) WantsRoomChange(text, current string) (bool, string) {
	if !containsAny(text, roomChangePhrases) {
		return false, ""
	}
	target := m.Detect(text)
	if target == current {
		target = ""
	}
	return true, target
}

// StripContrast drops the rejected side of a contrastive phrase so that
// "not X" is not read as "X".
func StripContrast(text string) string {
	lower := strings.ToLower(text)
	for _, mk := range forwardContrastMarkers {
		if i := strings.LastIndex(lower, mk); i >= 0 {
			lower = lower[i+len(mk):]
		}
	}
	for _, mk := range backwardContrastMarkers {
		if i := strings.Index(lower, mk); i >= 0 {
			lower = lower[:i]
		}
	}
	return strings.TrimSpace(lower)
}
