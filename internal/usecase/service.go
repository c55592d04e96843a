// Package usecase drives a visit to the post office: one Respond call per
// visitor message, dispatched through a phase handler table.
package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"starlight-postoffice/internal/classifier"
	"starlight-postoffice/internal/domain"
	"starlight-postoffice/internal/emotion"
	"starlight-postoffice/internal/letter"
	"starlight-postoffice/internal/observability"
	"starlight-postoffice/internal/repository"
)

const (
	defaultMaxMessageLength = 500
	defaultMinTurns         = 5
)

type ParamGetter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

type LLMClient interface {
	Chat(ctx context.Context, req domain.ChatRequest) (string, error)
}

type SessionStore interface {
	Load(ctx context.Context, identity string) (*domain.Session, error)
	Save(ctx context.Context, s *domain.Session) error
	Delete(ctx context.Context, identity string) error
}

type Retriever interface {
	Retrieve(ctx context.Context, query, scope string) ([]domain.Passage, error)
}

// IndexStatus reports whether the background indexer is still running.
type IndexStatus interface {
	Busy() bool
}

type RepetitionDetector interface {
	Observe(ctx context.Context, state *domain.RepetitionState, text string, previous []string) int
}

type EmotionDeterminer interface {
	Determine(ctx context.Context, in emotion.Input) domain.Emotion
}

type LetterWriter interface {
	Generate(ctx context.Context, req letter.Request) (string, error)
}

// Deps are the collaborators of a PostOffice. Retriever, Index and Params may
// be nil.
type Deps struct {
	LLM        LLMClient
	Sessions   SessionStore
	Retriever  Retriever
	Index      IndexStatus
	Repetition RepetitionDetector
	Emotion    EmotionDeterminer
	Letters    LetterWriter
	Params     ParamGetter
}

type Options struct {
	ChatModel        string
	ParamPrefix      string
	MinRoomTurns     int
	MinDrawerTurns   int
	MaxMessageLength int
}

type Input struct {
	Text     string
	Identity string
}

// Output is the result of one turn. Emotion is empty when no label should be
// displayed.
type Output struct {
	Response domain.Response
	Emotion  domain.Emotion
}

type phaseHandler func(t *turn) domain.Response

// PostOffice is the conversation orchestrator.
type PostOffice struct {
	llm        LLMClient
	sessions   SessionStore
	retriever  Retriever
	index      IndexStatus
	repetition RepetitionDetector
	emotion    EmotionDeterminer
	letters    LetterWriter
	params     ParamGetter

	rooms   *classifier.RoomMatcher
	stamps  *classifier.StampClassifier
	stories *classifier.StoryMatcher

	handlers map[domain.Phase]phaseHandler

	chatModel        string
	paramPrefix      string
	minRoomTurns     int
	minDrawerTurns   int
	maxMessageLength int
	now              func() time.Time

	cacheMu     sync.RWMutex
	cacheLoaded bool
	persona     string
}

// turn is the mutable state of one Respond call.
type turn struct {
	ctx       context.Context
	log       *slog.Logger
	s         *domain.Session
	text      string
	from      domain.Phase
	force     bool
	conversed bool
	reset     bool
}

func NewPostOffice(d Deps, opts Options) (*PostOffice, error) {
	if d.LLM == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	if d.Sessions == nil {
		return nil, errors.New("usecase: session store must not be nil")
	}
	if d.Repetition == nil {
		return nil, errors.New("usecase: repetition detector must not be nil")
	}
	if d.Emotion == nil {
		return nil, errors.New("usecase: emotion determiner must not be nil")
	}
	if d.Letters == nil {
		return nil, errors.New("usecase: letter writer must not be nil")
	}
	if strings.TrimSpace(opts.ChatModel) == "" {
		return nil, errors.New("usecase: chat model must not be empty")
	}
	if opts.MinRoomTurns <= 0 {
		opts.MinRoomTurns = defaultMinTurns
	}
	if opts.MinDrawerTurns <= 0 {
		opts.MinDrawerTurns = defaultMinTurns
	}
	if opts.MaxMessageLength <= 0 {
		opts.MaxMessageLength = defaultMaxMessageLength
	}

	p := &PostOffice{
		llm:              d.LLM,
		sessions:         d.Sessions,
		retriever:        d.Retriever,
		index:            d.Index,
		repetition:       d.Repetition,
		emotion:          d.Emotion,
		letters:          d.Letters,
		params:           d.Params,
		rooms:            classifier.NewRoomMatcher(),
		stamps:           classifier.NewStampClassifier(),
		stories:          classifier.NewStoryMatcher(),
		chatModel:        opts.ChatModel,
		paramPrefix:      strings.TrimRight(strings.TrimSpace(opts.ParamPrefix), "/"),
		minRoomTurns:     opts.MinRoomTurns,
		minDrawerTurns:   opts.MinDrawerTurns,
		maxMessageLength: opts.MaxMessageLength,
		now:              time.Now,
	}
	p.handlers = map[domain.Phase]phaseHandler{
		domain.PhaseEntrance:         p.handleEntrance,
		domain.PhaseRoomSelect:       p.handleRoomSelect,
		domain.PhaseRoomDialogue:     p.handleDialogue,
		domain.PhaseDrawerTransition: p.handleDrawerTransition,
		domain.PhaseDrawerDialogue:   p.handleDialogue,
		domain.PhaseLetter:           p.handleLetter,
		domain.PhaseEnding:           p.handleEnding,
	}
	return p, nil
}

// Respond handles one visitor message. It never fails: every error becomes an
// in-voice ErrorReply that keeps the current phase.
func (p *PostOffice) Respond(ctx context.Context, in Input) Output {
	log := observability.LoggerFromContext(ctx)
	identity := strings.TrimSpace(in.Identity)
	text := strings.TrimSpace(in.Text)
	if identity == "" {
		return p.fail(log, domain.PhaseEntrance, newError(ErrorInvalidInput, "missing_identity", nil))
	}

	s, err := p.loadSession(ctx, log, identity)
	if err != nil {
		return p.fail(log, domain.PhaseEntrance, err)
	}
	switch {
	case text == "":
		return p.fail(log, s.Phase, newError(ErrorInvalidInput, "empty_message", nil))
	case runeLen(text) > p.maxMessageLength:
		return p.fail(log, s.Phase, newError(ErrorInvalidInput, "message_too_long", nil))
	}

	if strings.EqualFold(text, InitMessage) {
		return p.initialize(ctx, log, s)
	}
	if s.Pending == domain.ConfirmNone && s.Phase.Dialogue() && p.indexBusy() {
		return Output{Response: domain.Reply{Text: pleaseWaitLine, Phase: s.Phase}}
	}

	t := &turn{ctx: ctx, log: log, s: s, text: text, from: s.Phase}
	if s.Phase == domain.PhaseRoomDialogue && s.ForceEmotion {
		t.force = true
		s.ForceEmotion = false
	}
	prevRepetition := s.Repetition
	s.Append(domain.RoleUser, text)

	resp := p.dispatch(t)

	out := Output{Response: resp}
	if _, failed := resp.(domain.ErrorReply); failed {
		// A failed exchange leaves the repeat state and the one-time emotion
		// display as they were before the turn.
		t.s.Repetition = prevRepetition
		t.s.MarkLastUserUnanswered()
		t.s.ForceEmotion = t.s.ForceEmotion || t.force
	} else {
		for _, line := range responseTexts(resp) {
			t.s.Append(domain.RoleAgent, line)
		}
		if !t.reset {
			out.Emotion = p.displayEmotion(t, resp)
		}
		if t.conversed {
			p.refreshSummary(t)
		}
	}

	t.s.UpdatedAt = p.now()
	if err := p.sessions.Save(ctx, t.s); err != nil {
		return p.fail(log, t.from, newError(ErrorInternal, "session_save_error", err))
	}
	return out
}

func (p *PostOffice) dispatch(t *turn) domain.Response {
	if t.s.Pending != domain.ConfirmNone {
		return p.handlePending(t)
	}
	h, ok := p.handlers[t.s.Phase]
	if !ok {
		t.log.Warn("no handler for phase, restarting visit", "reason", "unknown_phase", "phase", t.s.Phase)
		return p.reset(t)
	}
	return h(t)
}

func (p *PostOffice) loadSession(ctx context.Context, log *slog.Logger, identity string) (*domain.Session, error) {
	s, err := p.sessions.Load(ctx, identity)
	switch {
	case err == nil:
		return s, nil
	case errors.Is(err, repository.ErrNotFound):
	case errors.Is(err, repository.ErrCorrupt):
		log.Warn("discarding unreadable session", "reason", "session_corrupt", "err", err)
	default:
		return nil, newError(ErrorInternal, "session_load_error", err)
	}
	return domain.NewSession(identity, p.now()), nil
}

// initialize handles the init sentinel. Outside the entrance it only returns
// a resume line and leaves the session untouched.
func (p *PostOffice) initialize(ctx context.Context, log *slog.Logger, s *domain.Session) Output {
	if s.Phase != domain.PhaseEntrance {
		return Output{Response: p.resumeReply(s)}
	}
	fresh := domain.NewSession(s.Identity, p.now())
	resp := greeting()
	for _, line := range resp.Texts {
		fresh.Append(domain.RoleAgent, line)
	}
	if err := p.sessions.Save(ctx, fresh); err != nil {
		return p.fail(log, domain.PhaseEntrance, newError(ErrorInternal, "session_save_error", err))
	}
	return Output{Response: resp}
}

func (p *PostOffice) resumeReply(s *domain.Session) domain.Reply {
	r := domain.Reply{Text: resumeLines[s.Phase], Phase: s.Phase}
	switch {
	case s.Pending != domain.ConfirmNone:
		r.Buttons = confirmButtons()
	case s.Phase == domain.PhaseRoomSelect:
		r.Buttons = p.rooms.Buttons()
	case s.Phase == domain.PhaseEnding:
		r.Buttons = endingButtons()
	}
	return r
}

func (p *PostOffice) displayEmotion(t *turn, resp domain.Response) domain.Emotion {
	s := t.s
	force := t.force
	if s.Crisis.Active && !s.Crisis.FirstTurnShown {
		force = true
		s.Crisis.FirstTurnShown = true
	}

	e := p.emotion.Determine(t.ctx, emotion.Input{
		Text:         t.text,
		Phase:        resp.ResultPhase(),
		Pending:      s.Pending != domain.ConfirmNone,
		CrisisActive: s.Crisis.Active,
	})
	if !emotion.Gate(e, s.LastEmotion, t.from, force) {
		return ""
	}
	s.LastEmotion = e
	return e
}

func (p *PostOffice) fail(log *slog.Logger, phase domain.Phase, err error) Output {
	var ue *Error
	if !errors.As(err, &ue) {
		ue = newError(ErrorInternal, "unexpected_error", err)
	}
	text := saveFailedLine
	switch ue.Code {
	case ErrorInvalidInput:
		log.Warn("rejected message", "reason", ue.Reason)
		text = invalidEmptyLine
		if ue.Reason == "message_too_long" {
			text = invalidTooLongLine
		}
	default:
		log.Error("turn failed", "reason", ue.Reason, "code", ue.Code, "err", ue.Err)
	}
	return Output{Response: domain.ErrorReply{Text: text, Phase: phase, Code: string(ue.Code)}}
}

func (p *PostOffice) indexBusy() bool {
	return p.index != nil && p.index.Busy()
}

// personaPrompt loads the optional persona override once.
func (p *PostOffice) personaPrompt(ctx context.Context, log *slog.Logger) string {
	p.cacheMu.RLock()
	if p.cacheLoaded {
		defer p.cacheMu.RUnlock()
		return p.persona
	}
	p.cacheMu.RUnlock()

	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()
	if p.cacheLoaded {
		return p.persona
	}

	p.persona = defaultPersonaPrompt
	if p.params != nil {
		v, err := p.params.GetParameter(ctx, p.paramPrefix+"/persona_prompt")
		switch {
		case err != nil:
			log.Info("using built-in persona prompt", "reason", "persona_prompt_unavailable", "err", err)
		case strings.TrimSpace(v) != "":
			p.persona = strings.TrimSpace(v)
		}
	}
	p.cacheLoaded = true
	return p.persona
}

func greeting() domain.MultiReply {
	return domain.MultiReply{
		Texts:   append([]string(nil), greetingLines...),
		Phase:   domain.PhaseEntrance,
		Buttons: []string{LetterAffordance},
	}
}

// responseTexts lists the agent lines of resp. The letter body is kept on the
// session separately.
func responseTexts(resp domain.Response) []string {
	switch r := resp.(type) {
	case domain.Reply:
		return []string{r.Text}
	case domain.MultiReply:
		return r.Texts
	case domain.Transition:
		return r.Texts
	case domain.ArtifactDelivered:
		return r.Texts
	}
	return nil
}
