package engine

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dhleesep9/gayoon/internal/game/catalog"
	"github.com/dhleesep9/gayoon/internal/game/handler"
	"github.com/dhleesep9/gayoon/internal/game/state"
	"github.com/dhleesep9/gayoon/internal/game/trigger"
	"github.com/dhleesep9/gayoon/internal/session/domain"
	"github.com/dhleesep9/gayoon/internal/session/storage"
)

type fakeStore struct {
	sessions map[string]domain.Session
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: map[string]domain.Session{}}
}

func (f *fakeStore) GetSession(_ context.Context, userID string) (domain.Session, error) {
	sess, ok := f.sessions[userID]
	if !ok {
		return domain.Session{}, storage.ErrNotFound
	}
	return cloneSession(sess), nil
}

func (f *fakeStore) PutSession(_ context.Context, sess domain.Session) error {
	f.sessions[sess.UserID] = cloneSession(sess)
	return nil
}

// cloneSession round-trips the session through JSON so the fake hands
// back independent data, matching the real sqlite store's contract.
func cloneSession(sess domain.Session) domain.Session {
	encoded, err := json.Marshal(sess)
	if err != nil {
		panic(err)
	}
	var copied domain.Session
	if err := json.Unmarshal(encoded, &copied); err != nil {
		panic(err)
	}
	return copied
}

type fakeGenerator struct {
	reply string
	err   error
}

func (f *fakeGenerator) GenerateReply(context.Context, string, string) (string, error) {
	return f.reply, f.err
}

type fakeSentiment struct {
	score int
	err   error
}

func (f *fakeSentiment) ScoreSentiment(context.Context, string) (int, error) {
	return f.score, f.err
}

type fakeJudge struct {
	adviceScore int
	quality     domain.StrategyQuality
}

func (f *fakeJudge) JudgeAdvice(context.Context, string, string, string, int, int) (int, error) {
	return f.adviceScore, nil
}

func (f *fakeJudge) JudgeStrategy(context.Context, domain.Subject, string) (domain.StrategyQuality, error) {
	return f.quality, nil
}

type testRig struct {
	engine *Engine
	store  *fakeStore
}

func newRig(t *testing.T, sentiment *fakeSentiment, generator *fakeGenerator) *testRig {
	t.Helper()
	defs, err := catalog.LoadStates()
	if err != nil {
		t.Fatalf("LoadStates: %v", err)
	}
	reg := trigger.NewRegistry()
	if err := trigger.RegisterBuiltins(reg); err != nil {
		t.Fatalf("RegisterBuiltins: %v", err)
	}
	machine, err := state.NewMachine(defs, reg)
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	commands, err := catalog.LoadDebugCommands()
	if err != nil {
		t.Fatalf("LoadDebugCommands: %v", err)
	}

	store := newFakeStore()
	eng, err := NewEngine(Config{
		Store:       store,
		Machine:     machine,
		Handlers:    handler.NewRegistry(handler.Deps{Judge: &fakeJudge{adviceScore: 15, quality: domain.StrategyGood}}),
		Debug:       handler.NewDebugExecutor(commands),
		Generator:   generator,
		Sentiment:   sentiment,
		Now:         func() time.Time { return time.Date(2023, 11, 17, 9, 0, 0, 0, time.UTC) },
		IDGenerator: func() string { return "session-1" },
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return &testRig{engine: eng, store: store}
}

func (r *testRig) session(t *testing.T, userID string) domain.Session {
	t.Helper()
	sess, ok := r.store.sessions[userID]
	if !ok {
		t.Fatalf("no session for %s", userID)
	}
	return sess
}

func TestFirstContactCreatesSession(t *testing.T) {
	rig := newRig(t, &fakeSentiment{}, &fakeGenerator{reply: "…안녕하세요."})

	resp, err := rig.engine.ProcessTurn(context.Background(), "user-1", "init")
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if resp.State != domain.StartState {
		t.Fatalf("state = %s", resp.State)
	}
	if resp.Narration == "" {
		t.Fatal("first contact should narrate the opening scene")
	}
	if resp.Affection != domain.DefaultAffection || resp.Stamina != domain.DefaultStamina {
		t.Fatalf("gauges = %d/%d", resp.Affection, resp.Stamina)
	}
	if resp.GameDate != "2023-11-17" {
		t.Fatalf("game date = %s", resp.GameDate)
	}
}

func TestWarmMessageOpensSubjectSelection(t *testing.T) {
	rig := newRig(t, &fakeSentiment{score: 3}, &fakeGenerator{reply: "고마워요."})
	ctx := context.Background()

	if _, err := rig.engine.ProcessTurn(ctx, "user-1", "init"); err != nil {
		t.Fatalf("init: %v", err)
	}
	// Affection 5 is guarded territory: +3 is dampened to +2, still a rise.
	resp, err := rig.engine.ProcessTurn(ctx, "user-1", "올해는 분명히 잘 될 거야. 같이 해 보자.")
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if resp.State != "subject_selection" {
		t.Fatalf("state = %s", resp.State)
	}
	if resp.Affection != domain.DefaultAffection+2 {
		t.Fatalf("affection = %d, want %d", resp.Affection, domain.DefaultAffection+2)
	}
	if !strings.Contains(resp.Narration, "탐구") {
		t.Fatalf("narration = %q", resp.Narration)
	}
}

func TestEarlyGameFlow(t *testing.T) {
	rig := newRig(t, &fakeSentiment{score: 3}, &fakeGenerator{reply: "네."})
	ctx := context.Background()
	user := "user-1"

	rig.engine.ProcessTurn(ctx, user, "init")
	rig.engine.ProcessTurn(ctx, user, "잘 해 보자.")

	resp, err := rig.engine.ProcessTurn(ctx, user, "물리학1이랑 지구과학1 어때?")
	if err != nil {
		t.Fatalf("subject pick: %v", err)
	}
	if resp.State != "exam_strategy" {
		t.Fatalf("state = %s", resp.State)
	}
	sess := rig.session(t, user)
	if len(sess.SelectedSubjects) != 2 || sess.SelectedSubjects[0] != "물리학1" {
		t.Fatalf("selected = %v", sess.SelectedSubjects)
	}

	for i := 0; i < len(domain.ExamSubjects()); i++ {
		resp, err = rig.engine.ProcessTurn(ctx, user, "기출 회독하고 오답 정리하자.")
		if err != nil {
			t.Fatalf("strategy %d: %v", i, err)
		}
	}
	if resp.State != "study_schedule" {
		t.Fatalf("state after strategies = %s", resp.State)
	}

	resp, err = rig.engine.ProcessTurn(ctx, user, "국어 3시간 수학 4시간 영어 2시간 물리학1 2시간 운동 2시간")
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if resp.State != "daily_routine" {
		t.Fatalf("state after schedule = %s", resp.State)
	}
}

func inDailyRoutine(t *testing.T, rig *testRig, user string) {
	t.Helper()
	ctx := context.Background()
	rig.engine.ProcessTurn(ctx, user, "init")
	rig.engine.ProcessTurn(ctx, user, "잘 해 보자.")
	rig.engine.ProcessTurn(ctx, user, "물리학1이랑 지구과학1 어때?")
	for i := 0; i < len(domain.ExamSubjects()); i++ {
		rig.engine.ProcessTurn(ctx, user, "기출 회독하고 오답 정리하자.")
	}
	resp, err := rig.engine.ProcessTurn(ctx, user, "국어 3시간 수학 4시간 영어 2시간 물리학1 2시간 운동 2시간")
	if err != nil || resp.State != "daily_routine" {
		t.Fatalf("setup failed: state=%s err=%v", resp.State, err)
	}
}

func TestMentoringEndAdvancesWeek(t *testing.T) {
	rig := newRig(t, &fakeSentiment{score: 3}, &fakeGenerator{reply: "네."})
	user := "user-1"
	inDailyRoutine(t, rig, user)
	before := rig.session(t, user)

	resp, err := rig.engine.ProcessTurn(context.Background(), user, "오늘은 여기까지. 멘토링 종료")
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if resp.CurrentWeek != before.CurrentWeek+1 {
		t.Fatalf("week = %d, want %d", resp.CurrentWeek, before.CurrentWeek+1)
	}
	after := rig.session(t, user)
	if !after.GameDate.Equal(before.GameDate.AddDate(0, 0, 7)) {
		t.Fatalf("game date = %v", after.GameDate)
	}
	if after.Abilities[domain.SubjectKorean] <= before.Abilities[domain.SubjectKorean] {
		t.Fatal("catch-up week should bank korean ability")
	}
}

func TestJuneExamTriggersOnCalendarCrossing(t *testing.T) {
	rig := newRig(t, &fakeSentiment{score: 3}, &fakeGenerator{reply: "네."})
	user := "user-1"
	inDailyRoutine(t, rig, user)

	sess := rig.session(t, user)
	sess.GameDate = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	rig.store.sessions[user] = sess

	resp, err := rig.engine.ProcessTurn(context.Background(), user, "멘토링 종료")
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if resp.State != "june_exam_feedback" {
		t.Fatalf("state = %s", resp.State)
	}
	if !strings.Contains(resp.Reply, "등급") {
		t.Fatalf("reply should carry the report card: %q", resp.Reply)
	}
	if !strings.Contains(resp.Narration, "6월") {
		t.Fatalf("narration = %q", resp.Narration)
	}
}

func TestResetCommandRestoresDefaults(t *testing.T) {
	rig := newRig(t, &fakeSentiment{score: 3}, &fakeGenerator{reply: "네."})
	user := "user-1"
	inDailyRoutine(t, rig, user)

	resp, err := rig.engine.ProcessTurn(context.Background(), user, ResetCommand)
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if resp.State != domain.StartState {
		t.Fatalf("state = %s", resp.State)
	}
	if resp.Affection != domain.DefaultAffection {
		t.Fatalf("affection = %d", resp.Affection)
	}
	sess := rig.session(t, user)
	if sess.ID != "session-1" {
		t.Fatal("reset should keep the session identity")
	}
}

func TestInitReseedsStartKeepingProgress(t *testing.T) {
	rig := newRig(t, &fakeSentiment{score: 3}, &fakeGenerator{reply: "네."})
	user := "user-1"
	inDailyRoutine(t, rig, user)
	if _, err := rig.engine.ProcessTurn(context.Background(), user, "멘토링 종료"); err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	before := rig.session(t, user)
	if before.CurrentWeek == 0 || before.Abilities[domain.SubjectKorean] == 0 {
		t.Fatalf("setup should have banked progress: %+v", before)
	}

	resp, err := rig.engine.ProcessTurn(context.Background(), user, InitCommand)
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if resp.State != domain.StartState {
		t.Fatalf("state = %s", resp.State)
	}
	if resp.CurrentWeek != 0 {
		t.Fatalf("week = %d", resp.CurrentWeek)
	}
	after := rig.session(t, user)
	if !after.GameDate.Equal(domain.DefaultGameDate) {
		t.Fatalf("game date = %v", after.GameDate)
	}
	if after.ConversationCount != 0 {
		t.Fatalf("conversation count = %d", after.ConversationCount)
	}
	if after.Affection != before.Affection {
		t.Fatalf("affection = %d, want %d preserved", after.Affection, before.Affection)
	}
	if after.Abilities[domain.SubjectKorean] != before.Abilities[domain.SubjectKorean] {
		t.Fatal("abilities should survive an init re-seed")
	}
}

func TestDebugCommandShortCircuits(t *testing.T) {
	rig := newRig(t, &fakeSentiment{score: 3}, &fakeGenerator{reply: "네."})
	user := "user-1"
	inDailyRoutine(t, rig, user)

	resp, err := rig.engine.ProcessTurn(context.Background(), user, "!skip4weeks")
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if resp.CurrentWeek != 4 {
		t.Fatalf("week = %d", resp.CurrentWeek)
	}
	if !strings.Contains(resp.Reply, "4주차") {
		t.Fatalf("reply = %q", resp.Reply)
	}
}

func TestBurnoutEndingAndTerminalShortCircuit(t *testing.T) {
	rig := newRig(t, &fakeSentiment{score: 3}, &fakeGenerator{reply: "네."})
	user := "user-1"
	inDailyRoutine(t, rig, user)

	sess := rig.session(t, user)
	sess.Stamina = 0
	rig.store.sessions[user] = sess

	resp, err := rig.engine.ProcessTurn(context.Background(), user, "괜찮아?")
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if resp.State != state.BurnoutEnding || !resp.GameEnded {
		t.Fatalf("state = %s, ended = %v", resp.State, resp.GameEnded)
	}
	if resp.EndingImage == "" {
		t.Fatal("ending should carry an image")
	}

	// Any further turn replays the ending without reviving the session.
	resp, err = rig.engine.ProcessTurn(context.Background(), user, "일어나!")
	if err != nil {
		t.Fatalf("post-ending turn: %v", err)
	}
	if resp.State != state.BurnoutEnding || !resp.GameEnded {
		t.Fatalf("post-ending state = %s", resp.State)
	}
}

func TestDialogueOutageFallsBack(t *testing.T) {
	rig := newRig(t, &fakeSentiment{score: 3}, &fakeGenerator{err: errors.New("api down")})
	user := "user-1"
	inDailyRoutine(t, rig, user)

	resp, err := rig.engine.ProcessTurn(context.Background(), user, "요즘 어때?")
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if resp.Reply == "" {
		t.Fatal("outage should still produce a reply")
	}
	if !strings.HasPrefix(resp.Reply, "[일상]") {
		t.Fatalf("reply should carry the state prefix: %q", resp.Reply)
	}
}

func TestSentimentOutageIsNeutral(t *testing.T) {
	rig := newRig(t, &fakeSentiment{err: errors.New("down")}, &fakeGenerator{reply: "네."})

	if _, err := rig.engine.ProcessTurn(context.Background(), "user-1", "init"); err != nil {
		t.Fatalf("init: %v", err)
	}
	resp, err := rig.engine.ProcessTurn(context.Background(), "user-1", "정말 잘 하고 있어!")
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if resp.Affection != domain.DefaultAffection {
		t.Fatalf("affection = %d, want unchanged", resp.Affection)
	}
	if resp.State != domain.StartState {
		t.Fatalf("state = %s, want no transition without a delta", resp.State)
	}
}

func TestEmptyUserIDRejected(t *testing.T) {
	rig := newRig(t, &fakeSentiment{}, &fakeGenerator{reply: "네."})
	if _, err := rig.engine.ProcessTurn(context.Background(), "  ", "안녕"); err == nil {
		t.Fatal("expected error for empty user id")
	}
}
