package domain

// Emotion is the affect label attached to an agent reply.
type Emotion string

const (
	EmotionNeutral  Emotion = "neutral"
	EmotionQuestion Emotion = "question"
	EmotionJoy      Emotion = "joy"
	EmotionSadness  Emotion = "sadness"
	EmotionAnger    Emotion = "anger"
)

// Response is the closed set of turn results. Only the types in this file
// implement it.
type Response interface {
	ResultPhase() Phase
	isResponse()
}

// Reply is a single agent line.
type Reply struct {
	Text    string
	Phase   Phase
	Buttons []string
}

// MultiReply is several agent lines shown as separate bubbles.
type MultiReply struct {
	Texts   []string
	Phase   Phase
	Buttons []string
}

// Transition is a scripted sequence that moved the session to another phase.
type Transition struct {
	Texts   []string
	From    Phase
	To      Phase
	Buttons []string
}

// ArtifactDelivered carries the generated letter. The phase is always ending.
type ArtifactDelivered struct {
	Texts     []string
	Letter    string
	StampCode string
	Buttons   []string
}

// ErrorReply is an in-voice failure reply that keeps the current phase.
type ErrorReply struct {
	Text  string
	Phase Phase
	Code  string
}

func (r Reply) ResultPhase() Phase             { return r.Phase }
func (r MultiReply) ResultPhase() Phase        { return r.Phase }
func (r Transition) ResultPhase() Phase        { return r.To }
func (r ArtifactDelivered) ResultPhase() Phase { return PhaseEnding }
func (r ErrorReply) ResultPhase() Phase        { return r.Phase }

func (Reply) isResponse()             {}
func (MultiReply) isResponse()        {}
func (Transition) isResponse()        {}
func (ArtifactDelivered) isResponse() {}
func (ErrorReply) isResponse()        {}
