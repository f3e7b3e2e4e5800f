// Package engine runs the turn pipeline: normalize the message, settle
// the state machine, run the state handlers, generate dialogue, and
// persist the session. Turns for the same user are serialized; turns for
// different users run concurrently.
package engine

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/fnv"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/text/unicode/norm"

	"github.com/dhleesep9/gayoon/internal/dialogue"
	"github.com/dhleesep9/gayoon/internal/game/exam"
	"github.com/dhleesep9/gayoon/internal/game/handler"
	"github.com/dhleesep9/gayoon/internal/game/progression"
	"github.com/dhleesep9/gayoon/internal/game/state"
	"github.com/dhleesep9/gayoon/internal/game/trigger"
	"github.com/dhleesep9/gayoon/internal/session/domain"
	"github.com/dhleesep9/gayoon/internal/session/storage"
	"github.com/dhleesep9/gayoon/internal/telemetry"
)

const (
	// ResetCommand wipes the session's progress back to the start state.
	ResetCommand = "__RESET_GAME_STATE__"
	// InitCommand re-seeds the session at the start state and week zero
	// while keeping relationship and ability progress.
	InitCommand = "init"

	// turnsPerWeek is how many daily-routine conversations pass before a
	// week advances on its own.
	turnsPerWeek = 5

	// maxTransitionChain bounds handler-directed transition chains so a
	// miswired handler cannot loop the pipeline.
	maxTransitionChain = 5

	// fallbackReply covers a dialogue outage; the turn still completes.
	fallbackReply = "…(가윤이 잠시 말을 잇지 못하고 창밖을 바라봤다.)"
)

// lockStripes serializes turns per user without a global lock.
const lockStripes = 64

// MemoryRecorder stores one conversation snippet for later retrieval.
type MemoryRecorder interface {
	Record(ctx context.Context, userID, text string, metadata map[string]string) error
}

// Config carries the engine's collaborators. Store, Machine and Handlers
// are required; the dialogue collaborators and telemetry are optional
// and degrade gracefully.
type Config struct {
	Store     storage.SessionStore
	Machine   *state.Machine
	Handlers  *handler.Registry
	Debug     *handler.DebugExecutor
	Generator dialogue.Generator
	Sentiment dialogue.SentimentScorer
	Retriever dialogue.Retriever
	Recorder  MemoryRecorder
	Telemetry *telemetry.Emitter

	// Now and IDGenerator default to the wall clock and a random id.
	Now         func() time.Time
	IDGenerator func() string
}

// Response is the complete turn outcome surfaced to the transport.
type Response struct {
	Reply            string                 `json:"reply"`
	Narration        string                 `json:"narration,omitempty"`
	State            string                 `json:"state"`
	StateName        string                 `json:"state_name"`
	Affection        int                    `json:"affection"`
	Stamina          int                    `json:"stamina"`
	Mental           int                    `json:"mental"`
	Abilities        map[domain.Subject]int `json:"abilities"`
	Schedule         map[domain.Subject]int `json:"schedule,omitempty"`
	SelectedSubjects []domain.Subject       `json:"selected_subjects,omitempty"`
	CurrentWeek      int                    `json:"current_week"`
	GameDate         string                 `json:"game_date"`
	GameEnded        bool                   `json:"game_ended"`
	EndingImage      string                 `json:"ending_image,omitempty"`
}

// Engine coordinates one turn at a time per user.
type Engine struct {
	cfg   Config
	locks [lockStripes]sync.Mutex
}

// NewEngine validates the required collaborators.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if cfg.Machine == nil {
		return nil, fmt.Errorf("state machine is required")
	}
	if cfg.Handlers == nil {
		return nil, fmt.Errorf("handler registry is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = defaultID
	}
	return &Engine{cfg: cfg}, nil
}

// ProcessTurn runs one player message through the full pipeline and
// returns the turn outcome. It only fails on storage errors; dialogue
// and sentiment outages degrade the turn instead.
func (e *Engine) ProcessTurn(ctx context.Context, userID, message string) (Response, error) {
	ctx, span := otel.Tracer("gayoon/engine").Start(ctx, "engine.ProcessTurn")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Response{}, domain.ErrEmptyUserID
	}
	message = norm.NFC.String(strings.TrimSpace(message))
	span.SetAttributes(attribute.String("game.state.user", userID))

	lock := e.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	sess, created, err := e.loadOrCreate(ctx, userID)
	if err != nil {
		return Response{}, err
	}

	switch {
	case message == ResetCommand:
		sess.ResetProgress()
		narration := e.entryNarration(sess.State)
		return e.finish(ctx, &sess, Response{Narration: narration})
	case message == InitCommand:
		sess.ReseedStart()
		narration := e.entryNarration(sess.State)
		return e.finish(ctx, &sess, Response{Narration: narration})
	case created:
		narration := e.entryNarration(sess.State)
		return e.finish(ctx, &sess, Response{Narration: narration})
	}

	if e.cfg.Debug != nil {
		if effect, handled := e.cfg.Debug.Execute(&sess, message); handled {
			e.emit(ctx, userID, telemetry.KindDebugCommand, telemetry.SeverityInfo, message)
			return e.finish(ctx, &sess, Response{Reply: effect.Reply, Narration: effect.Narration})
		}
	}

	if sess.GameEnded || e.cfg.Machine.Terminal(sess.State) {
		sess.GameEnded = true
		return e.finish(ctx, &sess, Response{Narration: e.entryNarration(sess.State)})
	}

	affectionDelta := e.applySentiment(ctx, &sess, message)

	sess.ConversationCount++
	examMonths := e.maybeAdvanceWeek(&sess, message)

	oldState := sess.State
	result := e.cfg.Machine.EvaluateTurn(&sess, trigger.Context{
		UserID:         userID,
		Message:        message,
		AffectionDelta: affectionDelta,
		State:          sess.State,
		ExamMonths:     examMonths,
		Session:        &sess,
	})

	var narrations []string
	if result.Narration != "" {
		narrations = append(narrations, result.Narration)
	}

	turn := turnOutcome{}
	if result.Transitioned {
		if err := e.runHook(ctx, &sess, oldState, hookExit, message, &turn, &narrations); err != nil {
			return Response{}, err
		}
		if err := e.runHook(ctx, &sess, sess.State, hookEnter, message, &turn, &narrations); err != nil {
			return Response{}, err
		}
		e.emit(ctx, userID, telemetry.KindStateTransition, telemetry.SeverityInfo,
			fmt.Sprintf("%s -> %s", result.From, result.To))
	} else {
		if err := e.runHook(ctx, &sess, sess.State, hookHandle, message, &turn, &narrations); err != nil {
			return Response{}, err
		}
	}

	for depth := 0; turn.transitionTo != "" && depth < maxTransitionChain; depth++ {
		target := turn.transitionTo
		turn.transitionTo = ""
		from := sess.State
		chain := e.cfg.Machine.Apply(&sess, target)
		if !chain.Transitioned {
			log.Printf("handler requested unknown state %q from %q", target, from)
			break
		}
		if chain.Narration != "" {
			narrations = append(narrations, chain.Narration)
		}
		if err := e.runHook(ctx, &sess, from, hookExit, message, &turn, &narrations); err != nil {
			return Response{}, err
		}
		if err := e.runHook(ctx, &sess, sess.State, hookEnter, message, &turn, &narrations); err != nil {
			return Response{}, err
		}
		e.emit(ctx, userID, telemetry.KindStateTransition, telemetry.SeverityInfo,
			fmt.Sprintf("%s -> %s", from, sess.State))
	}

	// The conversation counter tracks turns within one state; a
	// transition restarts it.
	if sess.State != oldState {
		sess.ConversationCount = 0
	}

	if e.cfg.Machine.Terminal(sess.State) && !sess.GameEnded {
		sess.GameEnded = true
		e.emit(ctx, userID, telemetry.KindGameEnded, telemetry.SeverityInfo, sess.State)
	}

	reply := turn.reply
	if reply == "" && !turn.skipDialogue && !sess.GameEnded {
		reply = e.generateReply(ctx, &sess, message)
	}
	if reply != "" {
		e.recordMemory(ctx, &sess, message, reply)
		reply = fmt.Sprintf("[%s] %s", e.cfg.Machine.DisplayName(sess.State), reply)
	}

	e.emit(ctx, userID, telemetry.KindTurnProcessed, telemetry.SeverityInfo, sess.State)
	return e.finish(ctx, &sess, Response{
		Reply:     reply,
		Narration: strings.Join(narrations, "\n\n"),
	})
}

// turnOutcome accumulates handler effects across a transition chain.
type turnOutcome struct {
	reply        string
	skipDialogue bool
	transitionTo string
}

type hookKind int

const (
	hookEnter hookKind = iota
	hookHandle
	hookExit
)

func (e *Engine) runHook(ctx context.Context, sess *domain.Session, stateID string, kind hookKind, message string, turn *turnOutcome, narrations *[]string) error {
	hooks, ok := e.cfg.Handlers.Lookup(stateID)
	if !ok {
		return nil
	}
	var fn handler.HookFunc
	switch kind {
	case hookEnter:
		fn = hooks.OnEnter
	case hookHandle:
		fn = hooks.Handle
	case hookExit:
		fn = hooks.OnExit
	}
	if fn == nil {
		return nil
	}
	effect, err := fn(ctx, sess, message)
	if err != nil {
		return fmt.Errorf("state %s handler: %w", stateID, err)
	}
	if effect == nil {
		return nil
	}
	if effect.Reply != "" {
		if turn.reply != "" {
			turn.reply += "\n"
		}
		turn.reply += effect.Reply
	}
	if effect.Narration != "" {
		*narrations = append(*narrations, effect.Narration)
	}
	if effect.SkipDialogue {
		turn.skipDialogue = true
	}
	if effect.TransitionTo != "" {
		turn.transitionTo = effect.TransitionTo
	}
	return nil
}

// applySentiment scores the message and applies the affection delta.
// The score is clamped to ±3 and scaled by the relationship: a guarded
// mentee reacts less, a devoted one more.
func (e *Engine) applySentiment(ctx context.Context, sess *domain.Session, message string) int {
	if e.cfg.Sentiment == nil {
		return 0
	}
	score, err := e.cfg.Sentiment.ScoreSentiment(ctx, message)
	if err != nil {
		e.emit(ctx, sess.UserID, telemetry.KindCollaboratorFailure, telemetry.SeverityWarn,
			fmt.Sprintf("sentiment: %v", err))
		return 0
	}
	if score > 3 {
		score = 3
	}
	if score < -3 {
		score = -3
	}
	factor := 1.0
	switch {
	case sess.Affection < 30:
		factor = 0.7
	case sess.Affection > 70:
		factor = 1.2
	}
	delta := int(math.Round(float64(score) * factor))
	return sess.AddAffection(delta)
}

// maybeAdvanceWeek advances the in-game week when the mentor closes it
// explicitly or the routine has run its course, and returns the exam
// months the advance crossed.
func (e *Engine) maybeAdvanceWeek(sess *domain.Session, message string) []time.Month {
	if sess.State != "daily_routine" {
		return nil
	}
	catchUp := strings.Contains(message, trigger.MentoringEndPhrase)
	if !catchUp && sess.ConversationCount < turnsPerWeek {
		return nil
	}
	progression.ApplyWeeklyStudy(sess, handler.CareerBonusFor(sess), catchUp)
	from, to := progression.AdvanceWeek(sess)
	return exam.CrossedExamMonths(from, to)
}

func (e *Engine) generateReply(ctx context.Context, sess *domain.Session, message string) string {
	if e.cfg.Generator == nil {
		return fallbackReply
	}
	systemPrompt := e.buildSystemPrompt(ctx, sess, message)
	reply, err := e.cfg.Generator.GenerateReply(ctx, systemPrompt, message)
	if err != nil || strings.TrimSpace(reply) == "" {
		if err != nil {
			e.emit(ctx, sess.UserID, telemetry.KindCollaboratorFailure, telemetry.SeverityWarn,
				fmt.Sprintf("dialogue: %v", err))
		}
		return fallbackReply
	}
	return reply
}

// buildSystemPrompt combines the persona, the current scene, the gauges,
// and any retrieved memories.
func (e *Engine) buildSystemPrompt(ctx context.Context, sess *domain.Session, message string) string {
	var b strings.Builder
	b.WriteString("너는 수능에 재도전하는 재수생 서가윤이다. 멘토와의 대화에 짧고 자연스러운 한국어로 답한다.\n")
	if def, ok := e.cfg.Machine.Definition(sess.State); ok && def.Context != "" {
		b.WriteString("현재 상황: " + def.Context + "\n")
	}
	fmt.Fprintf(&b, "호감도 %d, 체력 %d, 멘탈 %d, %d주차.\n", sess.Affection, sess.Stamina, sess.Mental, sess.CurrentWeek)

	if e.cfg.Retriever != nil {
		fragments, err := e.cfg.Retriever.Retrieve(ctx, sess.UserID, message)
		if err != nil {
			e.emit(ctx, sess.UserID, telemetry.KindCollaboratorFailure, telemetry.SeverityWarn,
				fmt.Sprintf("retrieval: %v", err))
		} else if len(fragments) > 0 {
			b.WriteString("기억나는 이전 대화:\n")
			for _, frag := range fragments {
				b.WriteString("- " + frag.Text + "\n")
			}
		}
	}
	return b.String()
}

func (e *Engine) recordMemory(ctx context.Context, sess *domain.Session, message, reply string) {
	if e.cfg.Recorder == nil {
		return
	}
	text := fmt.Sprintf("멘토: %s\n가윤: %s", message, reply)
	if err := e.cfg.Recorder.Record(ctx, sess.UserID, text, map[string]string{"state": sess.State}); err != nil {
		e.emit(ctx, sess.UserID, telemetry.KindCollaboratorFailure, telemetry.SeverityWarn,
			fmt.Sprintf("memory: %v", err))
	}
}

// finish stamps, persists, and renders the session into the response.
func (e *Engine) finish(ctx context.Context, sess *domain.Session, resp Response) (Response, error) {
	sess.UpdatedAt = e.cfg.Now().UTC()
	if err := e.cfg.Store.PutSession(ctx, *sess); err != nil {
		return Response{}, fmt.Errorf("persist session: %w", err)
	}

	resp.State = sess.State
	resp.StateName = e.cfg.Machine.DisplayName(sess.State)
	resp.Affection = sess.Affection
	resp.Stamina = sess.Stamina
	resp.Mental = sess.Mental
	resp.Abilities = sess.Abilities
	resp.Schedule = sess.Schedule
	resp.SelectedSubjects = sess.SelectedSubjects
	resp.CurrentWeek = sess.CurrentWeek
	resp.GameDate = sess.GameDate.Format("2006-01-02")
	resp.GameEnded = sess.GameEnded
	if def, ok := e.cfg.Machine.Definition(sess.State); ok {
		resp.EndingImage = def.EndingImage
	}
	return resp, nil
}

func (e *Engine) loadOrCreate(ctx context.Context, userID string) (domain.Session, bool, error) {
	sess, err := e.cfg.Store.GetSession(ctx, userID)
	if err == nil {
		return sess, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return domain.Session{}, false, fmt.Errorf("load session: %w", err)
	}
	created, err := domain.CreateSession(domain.CreateSessionInput{UserID: userID}, e.cfg.Now, e.cfg.IDGenerator)
	if err != nil {
		return domain.Session{}, false, err
	}
	return created, true, nil
}

func (e *Engine) entryNarration(stateID string) string {
	def, ok := e.cfg.Machine.Definition(stateID)
	if !ok {
		return ""
	}
	return strings.TrimSpace(def.EntryNarration)
}

func (e *Engine) emit(ctx context.Context, userID, kind string, severity telemetry.Severity, detail string) {
	if err := e.cfg.Telemetry.Emit(ctx, storage.TelemetryEvent{
		UserID:   userID,
		Kind:     kind,
		Severity: string(severity),
		Detail:   detail,
	}); err != nil {
		log.Printf("telemetry emit failed: %v", err)
	}
}

func (e *Engine) lockFor(userID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return &e.locks[h.Sum32()%lockStripes]
}

func defaultID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("sess-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
