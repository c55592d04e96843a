package classifier

// StampCode summarizes the emotional theme of a finished visit.
type StampCode struct {
	ID        string
	Room      string
	Situation string
	Meaning   string
	keywords  []string
}

var stamps = []StampCode{
	{
		ID: "REG-SCORE", Room: "regret",
		Situation: "gave up on a path they loved because of pressure or self-doubt",
		Meaning:   "The Unfinished Score. A melody you set down is not a melody you lost. It has been waiting for you to pick it up again.",
		keywords:  []string{"포기", "그만두", "give up", "gave up", "quit", "반대", "부족", "not good enough", "음악", "music"},
	},
	{
		ID: "REG-TICKET", Room: "regret",
		Situation: "missed a chance and keeps replaying the moment",
		Meaning:   "The Missed Golden Ticket. The train you missed taught you the timetable. The next one is already on its way.",
		keywords:  []string{"기회", "놓쳤", "놓친", "chance", "missed", "opportunity", "그때", "back then", "if only", "했더라면"},
	},
	{
		ID: "REG-MIRROR", Room: "regret",
		Situation: "hurt someone or themselves and has not forgiven it",
		Meaning:   "The Cracked Mirror. A crack lets the light through too. Forgiving yourself is a letter only you can post.",
		keywords:  []string{"미안", "상처", "sorry", "hurt", "용서", "forgive", "잘못", "mistake", "fault"},
	},
	{
		ID: "LOVE-UNSENT", Room: "love",
		Situation: "never confessed their feelings",
		Meaning:   "The Unsent Letter. The words you kept were never wasted. They taught you how much you can feel.",
		keywords:  []string{"고백", "confess", "말하지 못", "never told", "짝사랑", "crush", "좋아했", "liked"},
	},
	{
		ID: "LOVE-BOUQUET", Room: "love",
		Situation: "grieves a relationship that has ended",
		Meaning:   "The Withered Bouquet. Flowers fade, but the garden that grew them is still yours.",
		keywords:  []string{"이별", "헤어", "breakup", "broke up", "my ex", "끝났", "ended", "그리워", "miss"},
	},
	{
		ID: "LOVE-PHOTO", Room: "love",
		Situation: "drifted apart from family or friends",
		Meaning:   "The Torn Photograph. Torn edges can still be laid side by side. Distance is not the end of a bond.",
		keywords:  []string{"가족", "family", "친구", "friend", "엄마", "아빠", "mother", "father", "멀어", "drifted"},
	},
	{
		ID: "ANX-COMPASS", Room: "anxiety",
		Situation: "feels lost about which direction to take",
		Meaning:   "The Stopped Compass. Standing still is how you feel which way the wind blows. North will come back to you.",
		keywords:  []string{"방향", "direction", "길을 잃", "lost", "모르겠", "don't know", "진로", "future", "미래"},
	},
	{
		ID: "ANX-WALL", Room: "anxiety",
		Situation: "is weighed down by how others see them",
		Meaning:   "The Wall of Other Eyes. The wall was built from glances, and glances do not hold weight. You may walk through.",
		keywords:  []string{"시선", "평가", "judge", "judged", "others think", "눈치", "비교", "compare", "sns"},
	},
	{
		ID: "ANX-SIGN", Room: "anxiety",
		Situation: "is afraid of failure and stays in the safe zone",
		Meaning:   "The Safe Zone Sign. The sign was there to keep you warm while you rested. It was never meant to keep you in.",
		keywords:  []string{"실패", "fail", "두려", "afraid", "무서", "scared", "도전", "challenge", "걱정", "worry"},
	},
	{
		ID: "DREAM-CANDLE", Room: "dream",
		Situation: "lost the passion they once had",
		Meaning:   "The Blown-out Candle. A wick remembers the flame. It takes one small spark, and you still carry matches.",
		keywords:  []string{"열정", "passion", "지쳤", "tired", "burnout", "번아웃", "의욕", "motivation"},
	},
	{
		ID: "DREAM-BOAT", Room: "dream",
		Situation: "holds a dream they have not started yet",
		Meaning:   "The Paper Boat. It floats better than you think. Set it on the water and let it learn the river.",
		keywords:  []string{"하고 싶", "want to", "언젠가", "someday", "시작", "start", "계획", "plan", "꿈꿔"},
	},
	{
		ID: "DREAM-NINETY", Room: "dream",
		Situation: "came close to a goal and stopped just short",
		Meaning:   "Ninety-Nine Percent. Almost is not nothing. It is proof of how far your feet can carry you.",
		keywords:  []string{"거의", "almost", "마지막", "last step", "떨어졌", "failed the", "시험", "exam", "합격", "audition"},
	},
}

// defaultStamps is used when nothing in the room's conversation matches.
var defaultStamps = map[string]string{
	"regret":  "REG-SCORE",
	"love":    "LOVE-UNSENT",
	"anxiety": "ANX-COMPASS",
	"dream":   "DREAM-BOAT",
}

// fallbackStamp covers a session that somehow reached the letter without a room.
const fallbackStamp = "DREAM-BOAT"

// StampClassifier assigns a stamp code from cumulative dialogue text.
type StampClassifier struct {
	table *Table
	byID  map[string]StampCode
}

func NewStampClassifier() *StampClassifier {
	c := &StampClassifier{table: NewTable(nil), byID: make(map[string]StampCode, len(stamps))}
	for _, s := range stamps {
		c.table.Register(Entry{Scope: s.Room, Label: s.ID, Keywords: s.keywords})
		c.byID[s.ID] = s
	}
	for room, id := range defaultStamps {
		c.table.SetDefault(room, id)
	}
	return c
}

// Assign returns the stamp id for the room's conversation text.
func (c *StampClassifier) Assign(text, room string) string {
	if room == "" {
		return fallbackStamp
	}
	id, _ := c.table.Classify(text, room)
	if id == "" {
		return fallbackStamp
	}
	return id
}

// Stamp looks up a stamp by id.
func (c *StampClassifier) Stamp(id string) (StampCode, bool) {
	s, ok := c.byID[id]
	return s, ok
}
