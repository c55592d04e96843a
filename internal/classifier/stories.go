package classifier

import "strings"

const (
	// MinStoryScore is the keyword score a fresh story needs to be revealed.
	MinStoryScore = 1
	// ForceReuseScore is the score an already told story needs to be told again.
	ForceReuseScore = 3

	storyScopeCommon = "common"
)

// PersonaStory is a pre-authored anecdote of the owl postmaster.
type PersonaStory struct {
	ID       string
	Category string
	Short    string
	Long     string
	Style    string
	keywords []string
}

var stories = []PersonaStory{
	{
		ID: "regret.night_train", Category: "regret",
		Short:    "I once let the last night train leave without me, because I was too proud to run.",
		Long:     "Long ago I stood on a platform and watched the last night train pull away. I could have run. I chose to stand there with my pride. For years I sorted other people's letters so I would not have to think about where that train went. In the end I learned the station does not close. There is always another timetable.",
		Style:    "slow, a little embarrassed, ends with a dry remark",
		keywords: []string{"후회", "regret", "놓쳤", "missed", "자존심", "pride", "기차", "train", "떠났", "left"},
	},
	{
		ID: "regret.unsent_reply", Category: "regret",
		Short:    "There is a reply in my own desk that I never posted. Forty winters now.",
		Long:     "In the bottom drawer of my desk there is a reply I wrote and never posted. Forty winters. Every year I take it out, read it, and put it back. A postmaster who cannot send his own letter. Hmph. Perhaps that is why I understand people who come here.",
		Style:    "gruff, self-mocking, quiet at the end",
		keywords: []string{"답장", "reply", "편지", "letter", "말 못", "never said", "미안", "sorry", "사과", "apologize"},
	},
	{
		ID: "love.feather", Category: "love",
		Short:    "I keep a single grey feather that is not mine. Some things you keep without needing a reason.",
		Long:     "On my shelf there is a grey feather that is not mine. It belonged to someone who used to sit on the roof with me and count stars. We never said anything important. We did not need to. When she flew south I kept the feather. Some bonds do not need words to be real.",
		Style:    "soft, hesitant, pauses with '...'",
		keywords: []string{"사랑", "love", "좋아", "그리워", "miss", "헤어", "parted", "첫사랑", "first love", "기억"},
	},
	{
		ID: "love.nest", Category: "love",
		Short:    "My mother built a nest that leaked every spring. I still think it was the warmest place I knew.",
		Long:     "My mother built our nest badly. It leaked every spring and she patched it every spring, grumbling. I used to be ashamed of it. Now that I have sorted a thousand letters about home, I know the warm places are rarely the perfect ones.",
		Style:    "warm, nostalgic, a short laugh",
		keywords: []string{"가족", "family", "엄마", "mother", "아빠", "father", "집", "home", "부모", "parents"},
	},
	{
		ID: "anxiety.storm", Category: "anxiety",
		Short:    "The first storm I flew through, I was certain I would fall. I did not. I was just very wet.",
		Long:     "The first time I had to deliver through a storm I was certain I would fall out of the sky. My wings shook the whole way. I did not fall. I arrived soaked and furious and the letter was only a little damp. Fear is loud. It is not always right.",
		Style:    "matter-of-fact, dry humor",
		keywords: []string{"불안", "anxiety", "무서", "scared", "두려", "afraid", "걱정", "worry", "떨려", "nervous"},
	},
	{
		ID: "anxiety.clock", Category: "anxiety",
		Short:    "I used to wind every clock in this office twice a night, just in case. Now I let a few run slow.",
		Long:     "There was a time I wound every clock in this office twice a night. In case one stopped. In case a letter was late because of me. I was tired all the time. One night I simply did not, and the post still arrived. Now I let a few of them run slow on purpose.",
		Style:    "calm, reflective, slightly amused",
		keywords: []string{"완벽", "perfect", "실수", "mistake", "잠", "sleep", "시간", "time", "늦", "late"},
	},
	{
		ID: "dream.star_chart", Category: "dream",
		Short:    "I wanted to chart the stars, not sort mail. I still draw one constellation every night.",
		Long:     "When I was young I wanted to chart the stars, not sort other people's mail. Life put me behind this counter. But every night, after closing, I draw one constellation on the back of an old envelope. The drawer is nearly full now. A dream that gets smaller is still a dream.",
		Style:    "wistful, then proud",
		keywords: []string{"꿈", "dream", "하고 싶", "want to", "별", "star", "포기", "give up", "되고 싶", "become"},
	},
	{
		ID: "dream.first_flight", Category: "dream",
		Short:    "My first flight ended in a hedge. My second one ended in a slightly smaller hedge.",
		Long:     "My first flight ended in a hedge. My second ended in a slightly smaller hedge. My father said nothing, he just pointed at the sky again. Nobody remembers your first attempts. They only remember that you kept flying.",
		Style:    "playful, encouraging",
		keywords: []string{"시작", "start", "처음", "first", "실패", "fail", "도전", "try", "연습", "practice"},
	},
	{
		ID: "common.postmaster", Category: storyScopeCommon,
		Short:    "I have run this post office longer than most stars have burned. Mostly I listen.",
		Long:     "I have run this post office for longer than some of those stars have been burning. People think a postmaster delivers letters. Mostly I listen. The letters only find their owners after the owners are ready to read them.",
		Style:    "dignified, slow, warm underneath",
		keywords: []string{"부엉", "owl", "postmaster", "국장", "우체국", "post office", "여기", "this place"},
	},
	{
		ID: "common.lonely", Category: storyScopeCommon,
		Short:    "Even an owl gets lonely on the night shift. That is what the radio is for.",
		Long:     "Even an owl gets lonely on the night shift. There is an old radio by the sorting desk. Some nights it only plays static, and I listen to it anyway. Loneliness is not a flaw. It is just the space where company will go.",
		Style:    "honest, plain, a little shy",
		keywords: []string{"외로", "lonely", "혼자", "alone", "친구", "friend", "쓸쓸", "empty"},
	},
}

// directQuestionPhrases are matched against punctuation-free text, so they
// only name questions aimed at the owl.
var directQuestionPhrases = []string{
	"부엉 너는", "부엉아 너는", "부엉이 너는", "부엉 너도", "부엉아 너도", "국장님은 어땠", "국장님도 그런",
	"너는 어땠", "너도 그런 적", "당신은 어땠", "당신도 그런 적", "네 이야기", "너의 이야기", "당신 이야기",
	"are you ever", "have you ever", "did you ever", "do you ever", "what about you", "how about you",
	"your story", "tell me about yourself", "were you ever",
}

// StoryMatcher picks at most one persona story per turn.
type StoryMatcher struct {
	table *Table
	byID  map[string]PersonaStory
}

func NewStoryMatcher() *StoryMatcher {
	m := &StoryMatcher{table: NewTable(nil), byID: make(map[string]PersonaStory, len(stories))}
	for _, s := range stories {
		m.table.Register(Entry{Scope: s.Category, Label: s.ID, Keywords: s.keywords})
		m.byID[s.ID] = s
	}
	return m
}

// IsDirectQuestion reports whether the user is asking about the owl itself.
func IsDirectQuestion(text string) bool {
	return containsAny(strings.Join(tokens(text), " "), directQuestionPhrases)
}

// StoryMatch is the result of Select.
type StoryMatch struct {
	Story  PersonaStory
	Score  int
	Direct bool
}

// Select scores the room's stories followed by the shared ones. Used stories
// are skipped unless their score reaches ForceReuseScore. A direct question
// about the owl force-selects the best story regardless of use.
func (m *StoryMatcher) Select(text, room string, used func(id string) bool) (StoryMatch, bool) {
	direct := IsDirectQuestion(text)
	var scores []Score
	if room != "" && room != storyScopeCommon {
		scores = m.table.Scores(text, room)
	}
	scores = append(scores, m.table.Scores(text, storyScopeCommon)...)

	var best Score
	found := false
	for _, sc := range scores {
		if !direct {
			if sc.Score < MinStoryScore {
				continue
			}
			if used != nil && used(sc.Label) && sc.Score < ForceReuseScore {
				continue
			}
		}
		if !found || sc.Score > best.Score {
			best = sc
			found = true
		}
	}
	if !found {
		return StoryMatch{}, false
	}
	return StoryMatch{Story: m.byID[best.Label], Score: best.Score, Direct: direct}, true
}

// Content returns the long variant for direct questions, the short otherwise.
func (sm StoryMatch) Content() string {
	if sm.Direct {
		return sm.Story.Long
	}
	return sm.Story.Short
}

// Story looks up a story by id.
func (m *StoryMatcher) Story(id string) (PersonaStory, bool) {
	s, ok := m.byID[id]
	return s, ok
}
