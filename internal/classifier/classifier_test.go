package classifier

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTable_ClassifyArgmaxAndTies(t *testing.T) {
	table := NewTable([]Entry{
		{Scope: "s", Label: "first", Keywords: []string{"Apple"}},
		{Scope: "s", Label: "second", Keywords: []string{"banana"}},
		{Scope: "other", Label: "elsewhere", Keywords: []string{"apple", "banana"}},
	})
	table.SetDefault("s", "fallback")

	label, score := table.Classify("BANANA and banana", "s")
	require.Equal(t, "second", label)
	require.Equal(t, 2, score)

	label, _ = table.Classify("apple banana", "s")
	require.Equal(t, "first", label, "ties go to registration order")

	label, score = table.Classify("cherry", "s")
	require.Equal(t, "fallback", label)
	require.Zero(t, score)
}

func TestTable_ScoresRespectScope(t *testing.T) {
	table := NewTable([]Entry{
		{Scope: "a", Label: "x", Keywords: []string{"k"}},
		{Scope: "b", Label: "y", Keywords: []string{"k"}},
	})
	require.Equal(t, []Score{{Label: "x", Score: 1}}, table.Scores("k", "a"))
	require.Len(t, table.Scores("k", ""), 2)
	require.Equal(t, []string{"y"}, table.Labels("b"))
}

func TestRoomMatcher_Detect(t *testing.T) {
	m := NewRoomMatcher()

	cases := []struct {
		in   string
		want string
	}{
		{"'후회'의 방", "regret"},
		{"The Room of Love", "love"},
		{"I feel anxious", "anxiety"},
		{"꿈의 방으로 갈래", "dream"},
		{"후회 말고 사랑", "love"},
		{"dream instead of regret", "dream"},
		{"the kitchen", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, m.Detect(tc.in), "input=%q", tc.in)
	}
	require.Len(t, m.Buttons(), 4)
}

func TestRoomMatcher_WantsRoomChange(t *testing.T) {
	m := NewRoomMatcher()

	ok, target := m.WantsRoomChange("다른 방으로 가고 싶어, 사랑의 방", "regret")
	require.True(t, ok)
	require.Equal(t, "love", target)

	ok, target = m.WantsRoomChange("can we go to another room?", "regret")
	require.True(t, ok)
	require.Empty(t, target)

	ok, target = m.WantsRoomChange("another room, the room of regret", "regret")
	require.True(t, ok)
	require.Empty(t, target, "current room is not a destination")

	ok, _ = m.WantsRoomChange("I regret it so much", "regret")
	require.False(t, ok)
}

func TestStripContrast(t *testing.T) {
	require.Equal(t, "사랑", StripContrast("후회 말고 사랑"))
	require.Equal(t, "love", StripContrast("love instead of regret"))
	require.Equal(t, "plain text", StripContrast("Plain text"))
}

func TestStampClassifier_Assign(t *testing.T) {
	c := NewStampClassifier()

	require.Equal(t, "REG-TICKET", c.Assign("I missed the chance back then. If only I had gone.", "regret"))
	require.Equal(t, "LOVE-BOUQUET", c.Assign("우리는 작년에 헤어졌어요. 아직 그리워요", "love"))
	require.Equal(t, "ANX-COMPASS", c.Assign("nothing that matches", "anxiety"), "room default")
	require.Equal(t, fallbackStamp, c.Assign("anything", ""))

	stamp, ok := c.Stamp("REG-TICKET")
	require.True(t, ok)
	require.NotEmpty(t, stamp.Meaning)
}

func TestStampClassifier_ScopedToRoom(t *testing.T) {
	c := NewStampClassifier()
	// "family" belongs to a love stamp; inside the dream room it must not leak.
	id := c.Assign("my family, my family, my family", "dream")
	stamp, ok := c.Stamp(id)
	require.True(t, ok)
	require.Equal(t, "dream", stamp.Room)
}

func TestStoryMatcher_SelectFreshStory(t *testing.T) {
	m := NewStoryMatcher()
	match, ok := m.Select("I was so scared and afraid", "anxiety", nil)
	require.True(t, ok)
	require.Equal(t, "anxiety.storm", match.Story.ID)
	require.False(t, match.Direct)
	require.Equal(t, match.Story.Short, match.Content())
}

func TestStoryMatcher_NoMatch(t *testing.T) {
	m := NewStoryMatcher()
	_, ok := m.Select("the weather is fine", "anxiety", nil)
	require.False(t, ok)
}

func TestStoryMatcher_UsedStoryNeedsForceReuseScore(t *testing.T) {
	m := NewStoryMatcher()
	used := func(id string) bool { return id == "anxiety.storm" }

	// Score 2 is below ForceReuseScore, so the used story is skipped.
	_, ok := m.Select("scared, afraid", "anxiety", used)
	require.False(t, ok)

	// Score 3 reaches it.
	match, ok := m.Select("scared, afraid, nervous", "anxiety", used)
	require.True(t, ok)
	require.Equal(t, "anxiety.storm", match.Story.ID)
	require.GreaterOrEqual(t, match.Score, ForceReuseScore)
}

func TestStoryMatcher_DirectQuestionOverridesUse(t *testing.T) {
	m := NewStoryMatcher()
	used := func(string) bool { return true }

	match, ok := m.Select("have you ever been scared?", "anxiety", used)
	require.True(t, ok)
	require.True(t, match.Direct)
	require.Equal(t, "anxiety.storm", match.Story.ID)
	require.Equal(t, match.Story.Long, match.Content())
}

func TestStoryMatcher_UsedStoryNeverReselectedBelowThreshold(t *testing.T) {
	m := NewStoryMatcher()
	inputs := []string{
		"scared", "afraid and nervous", "worry", "perfect mistake", "lonely", "I'm alone, lonely, empty",
	}
	used := map[string]bool{}
	for _, in := range inputs {
		match, ok := m.Select(in, "anxiety", func(id string) bool { return used[id] })
		if !ok {
			continue
		}
		if used[match.Story.ID] {
			require.True(t, match.Direct || match.Score >= ForceReuseScore, "input=%q", in)
		}
		used[match.Story.ID] = true
	}
}

func TestIntents(t *testing.T) {
	require.True(t, WantsLetterNow("그냥 편지 줘"))
	require.True(t, WantsLetterNow("Just give me the letter now"))
	require.False(t, WantsLetterNow("I wrote a letter once"))

	require.True(t, WantsReentry("처음부터 다시 할래"))
	require.True(t, WantsReentry("Can I start over?"))

	require.True(t, WantsShowAgain("show me again"))
	require.False(t, WantsShowAgain("thank you"))
}

func TestParseAnswer(t *testing.T) {
	cases := []struct {
		in   string
		want Answer
	}{
		{"네", AnswerYes},
		{"좋아요!", AnswerYes},
		{"Yes, please", AnswerYes},
		{"ok", AnswerYes},
		{"아니요", AnswerNo},
		{"안할래", AnswerNo},
		{"no thanks", AnswerNo},
		{"I know", AnswerUnclear},
		{"hmm", AnswerUnclear},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ParseAnswer(tc.in), "input=%q", tc.in)
	}
}

func TestIsDirectQuestion(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"부엉, 너는 어때?", true},
		{"What about you?", true},
		{"Owl, have you ever been in love?", true},
		{"Are you ever lonely?", true},
		{"I went home", false},
		{"How are you", false},
		{"Owl, I miss her.", false},
		{"부엉아 고마워", false},
		{"Have you seen my keys", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, IsDirectQuestion(tc.in), "input=%q", tc.in)
	}
}

func TestSelect_GreetingTheOwlDoesNotRetellUsedStories(t *testing.T) {
	m := NewStoryMatcher()
	usedAll := func(string) bool { return true }

	_, ok := m.Select("Owl, how are you today", "love", usedAll)
	require.False(t, ok)

	match, ok := m.Select("Owl, have you ever been in love?", "love", usedAll)
	require.True(t, ok)
	require.True(t, match.Direct)
}
