package tutor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/neurotutor-backend/internal/domain/tutor"
	"github.com/yungbote/neurotutor-backend/internal/observability"
	"github.com/yungbote/neurotutor-backend/internal/platform/llm"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

// HistoryWindow is how many recent turns feed a prompt.
const HistoryWindow = 10

type State string

const (
	StateStart          State = "start"
	StateRouting        State = "routing"
	StateExplaining     State = "explaining"
	StateQuizGenerating State = "quiz_generating"
	StateFallback       State = "fallback"
	StateDone           State = "done"
)

// History is the session log the pipeline reads context from and appends to.
type History interface {
	Recent(ctx context.Context, sessionID uuid.UUID, n int) ([]*tutor.Turn, error)
	Append(ctx context.Context, sessionID uuid.UUID, userID string, turns ...*tutor.Turn) error
}

// QuizStore persists extracted quizzes.
type QuizStore interface {
	SaveExtracted(ctx context.Context, userID string, sessionID *uuid.UUID, q ExtractedQuiz) (*tutor.Quiz, error)
}

// PersistError marks a store failure. The streaming loop closes the
// connection on these instead of continuing.
type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string { return fmt.Sprintf("persist %s: %v", e.Op, e.Err) }
func (e *PersistError) Unwrap() error { return e.Err }

type TurnInput struct {
	UserID       string
	SessionID    uuid.UUID
	Message      string
	Personalized bool
	Profile      Profile
}

// TurnResult describes what a completed turn did.
type TurnResult struct {
	Intent      Intent
	States      []State
	Explanation string
	Sources     []tutor.Source
	Media       []tutor.Media
	QuizText    string
	Quiz        *tutor.Quiz
	Extracted   *ExtractedQuiz
}

type PipelineDeps struct {
	Log       *logger.Logger
	Generator llm.Generator
	Router    *Router
	History   History
	Quizzes   QuizStore
	// Retriever and Media are optional.
	Retriever Retriever
	Media     *MediaFinder
	Prompts   *Prompts
}

type Pipeline struct {
	log       *logger.Logger
	gen       llm.Generator
	router    *Router
	history   History
	quizzes   QuizStore
	retriever Retriever
	media     *MediaFinder
	prompts   *Prompts
}

func NewPipeline(deps PipelineDeps) (*Pipeline, error) {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Generator == nil {
		return nil, errors.New("generator required")
	}
	if deps.History == nil || deps.Quizzes == nil {
		return nil, errors.New("history and quiz store required")
	}
	if deps.Prompts == nil {
		deps.Prompts = LoadPrompts(deps.Log)
	}
	if deps.Router == nil {
		deps.Router = NewRouter(deps.Log, deps.Generator, deps.Prompts)
	}
	return &Pipeline{
		log:       deps.Log.With("module", "TutorPipeline"),
		gen:       deps.Generator,
		router:    deps.Router,
		history:   deps.History,
		quizzes:   deps.Quizzes,
		retriever: deps.Retriever,
		media:     deps.Media,
		prompts:   deps.Prompts,
	}, nil
}

// turn carries per-run state through the machine.
type turn struct {
	in      TurnInput
	emit    Emitter
	res     *TurnResult
	history []llm.Message
}

// Run drives one message through Routing and exactly one branch family.
// Text generated in a branch is discarded if ctx is cancelled before that
// branch completes.
func (p *Pipeline) Run(ctx context.Context, in TurnInput, emit Emitter) (*TurnResult, error) {
	if emit == nil {
		emit = func(Frame) error { return nil }
	}
	if in.Profile.Grade == "" {
		in.Profile.Grade = "10th"
	}
	start := time.Now()
	t := &turn{in: in, emit: emit, res: &TurnResult{States: []State{StateStart}}}

	ctx, span := observability.StartSpan(ctx, "tutor.turn",
		attribute.String("tutor.session_id", in.SessionID.String()),
		attribute.Bool("tutor.personalized", in.Personalized),
	)
	defer span.End()

	err := p.run(ctx, t)
	status := "ok"
	if err != nil {
		status = "error"
		if ctx.Err() != nil {
			status = "canceled"
		}
		span.RecordError(err)
	}
	span.SetAttributes(attribute.String("tutor.intent", t.res.Intent.String()), attribute.String("tutor.status", status))
	observability.Current().ObserveTurn(t.res.Intent.String(), status, time.Since(start))
	return t.res, err
}

func (p *Pipeline) run(ctx context.Context, t *turn) error {
	state := StateRouting
	for state != StateDone {
		t.res.States = append(t.res.States, state)
		var err error
		switch state {
		case StateRouting:
			state, err = p.route(ctx, t)
		case StateExplaining:
			state, err = p.explain(ctx, t)
		case StateQuizGenerating:
			state, err = p.generateQuiz(ctx, t)
		case StateFallback:
			state, err = p.fallback(ctx, t)
		default:
			return fmt.Errorf("unknown pipeline state %q", state)
		}
		if err != nil {
			return err
		}
	}
	t.res.States = append(t.res.States, StateDone)
	return nil
}

func (p *Pipeline) route(ctx context.Context, t *turn) (State, error) {
	ctx, span := observability.StartSpan(ctx, "tutor.route")
	defer span.End()

	t.res.Intent = p.router.Classify(ctx, t.in.Message)
	if err := ctx.Err(); err != nil {
		return StateDone, err
	}
	switch t.res.Intent {
	case IntentExplain:
		return StateExplaining, nil
	case IntentQuiz:
		return StateQuizGenerating, nil
	default:
		return StateFallback, nil
	}
}

func (p *Pipeline) explain(ctx context.Context, t *turn) (State, error) {
	ctx, span := observability.StartSpan(ctx, "tutor.explain")
	defer span.End()

	hist, err := p.recentHistory(ctx, t)
	if err != nil {
		return StateDone, err
	}

	var sources []tutor.Source
	if t.in.Personalized && p.retriever != nil {
		sources, err = p.retriever.Retrieve(ctx, t.in.Message, t.in.Profile)
		if err != nil {
			p.log.Warn("retrieval failed; answering without context", "error", err)
			sources = nil
		}
		if len(sources) > 0 {
			if err := t.emit(Frame{Sender: SenderAI, Text: sources, FromAgent: AgentSources}); err != nil {
				return StateDone, err
			}
		}
	}

	req, err := p.prompts.ExplainRequest(hist, explainVars{
		Context: formatContext(sources),
		Query:   t.in.Message,
		Grade:   t.in.Profile.Grade,
		Board:   t.in.Profile.Board,
	})
	if err != nil {
		return StateDone, err
	}
	text, err := p.streamTo(ctx, t, AgentAnswering, req)
	if err != nil {
		return StateDone, err
	}
	t.res.Explanation = strings.TrimSpace(text)
	t.res.Sources = sources

	t.res.Media = p.media.Find(ctx, t.res.Explanation, t.in.Message)
	if err := ctx.Err(); err != nil {
		return StateDone, err
	}
	if len(t.res.Media) > 0 {
		if err := t.emit(Frame{Sender: SenderAI, Text: t.res.Media, FromAgent: AgentMedia}); err != nil {
			return StateDone, err
		}
	}

	ai := &tutor.Turn{Role: tutor.RoleAI, Content: t.res.Explanation}
	if err := ai.SetAttachments(sources, t.res.Media); err != nil {
		return StateDone, err
	}
	if err := p.persist(ctx, t, ai); err != nil {
		return StateDone, err
	}
	return StateQuizGenerating, nil
}

func (p *Pipeline) generateQuiz(ctx context.Context, t *turn) (State, error) {
	ctx, span := observability.StartSpan(ctx, "tutor.quiz")
	defer span.End()

	basis := t.res.Explanation
	if basis == "" {
		summary, err := p.summarize(ctx, t)
		if err != nil {
			return StateDone, err
		}
		basis = summary
	}

	raw, err := p.streamTo(ctx, t, AgentQuizGeneration, p.prompts.QuizRequest(basis))
	if err != nil {
		return StateDone, err
	}
	t.res.QuizText = raw

	extracted := ExtractQuiz(raw)
	t.res.Extracted = &extracted
	observability.Current().IncQuizExtracted(extracted.Complete())
	if !extracted.Complete() {
		p.log.Warn("generated quiz is incomplete; not persisted",
			"has_question", extracted.Question != nil,
			"has_correct", extracted.CorrectOption != nil,
			"options", len(extracted.Options))
		return StateDone, nil
	}

	sid := t.in.SessionID
	quiz, err := p.quizzes.SaveExtracted(ctx, t.in.UserID, &sid, extracted)
	if err != nil {
		return StateDone, &PersistError{Op: "quiz", Err: err}
	}
	t.res.Quiz = quiz
	if err := t.emit(Frame{Sender: SenderAI, Text: quiz, FromAgent: AgentQuiz}); err != nil {
		return StateDone, err
	}
	return StateDone, nil
}

// summarize stands in for a missing explanation by condensing recent
// history. With no history the learner's message is used as is.
func (p *Pipeline) summarize(ctx context.Context, t *turn) (string, error) {
	hist, err := p.recentHistory(ctx, t)
	if err != nil {
		return "", err
	}
	if len(hist) == 0 {
		return t.in.Message, nil
	}
	hist = append(hist, llm.Message{Role: llm.RoleUser, Content: t.in.Message})
	summary, err := llm.Complete(ctx, p.gen, p.prompts.SummarizeRequest(hist))
	if err != nil {
		return "", fmt.Errorf("summarize history: %w", err)
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return t.in.Message, nil
	}
	return summary, nil
}

func (p *Pipeline) fallback(ctx context.Context, t *turn) (State, error) {
	ctx, span := observability.StartSpan(ctx, "tutor.fallback")
	defer span.End()

	hist, err := p.recentHistory(ctx, t)
	if err != nil {
		return StateDone, err
	}
	text, err := p.streamTo(ctx, t, AgentFallback, p.prompts.FallbackRequest(hist, t.in.Message))
	if err != nil {
		return StateDone, err
	}
	t.res.Explanation = strings.TrimSpace(text)
	if err := p.persist(ctx, t, &tutor.Turn{Role: tutor.RoleAI, Content: t.res.Explanation}); err != nil {
		return StateDone, err
	}
	return StateDone, nil
}

// streamTo runs one generation call. Answer and fallback deltas go to the
// client as they arrive; quiz text is only accumulated.
func (p *Pipeline) streamTo(ctx context.Context, t *turn, agent string, req llm.Request) (string, error) {
	var onDelta llm.DeltaFunc
	if agent != AgentQuizGeneration {
		onDelta = func(d string) error { return t.emit(streamFrame(agent, d)) }
	}
	text, err := p.gen.Stream(ctx, req, onDelta)
	if err != nil {
		return "", fmt.Errorf("%s: %w", agent, err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return text, nil
}

func (p *Pipeline) recentHistory(ctx context.Context, t *turn) ([]llm.Message, error) {
	if t.history != nil {
		return t.history, nil
	}
	turns, err := p.history.Recent(ctx, t.in.SessionID, HistoryWindow)
	if err != nil {
		return nil, &PersistError{Op: "history read", Err: err}
	}
	t.history = toMessages(turns)
	return t.history, nil
}

func (p *Pipeline) persist(ctx context.Context, t *turn, ai *tutor.Turn) error {
	human := &tutor.Turn{Role: tutor.RoleHuman, Content: t.in.Message}
	if err := p.history.Append(ctx, t.in.SessionID, t.in.UserID, human, ai); err != nil {
		return &PersistError{Op: "history append", Err: err}
	}
	return nil
}

func toMessages(turns []*tutor.Turn) []llm.Message {
	out := make([]llm.Message, 0, len(turns))
	for _, tr := range turns {
		if tr == nil {
			continue
		}
		role := llm.RoleUser
		if tr.Role == tutor.RoleAI {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: tr.Content})
	}
	return out
}
