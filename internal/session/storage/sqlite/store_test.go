package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dhleesep9/gayoon/internal/session/domain"
	"github.com/dhleesep9/gayoon/internal/session/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "gayoon.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for blank path")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	sess, err := domain.CreateSession(domain.CreateSessionInput{UserID: "mentor"}, time.Now, func() string { return "sess-1" })
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	sess.State = "daily_routine"
	sess.AddAffection(12)
	sess.AddAbility(domain.SubjectMath, 300)
	if err := sess.SetSelectedSubjects([]domain.Subject{"물리학1", "화학1"}); err != nil {
		t.Fatalf("set subjects: %v", err)
	}
	if err := sess.SetSchedule(map[domain.Subject]int{domain.SubjectKorean: 4, domain.SubjectMath: 4}); err != nil {
		t.Fatalf("set schedule: %v", err)
	}
	tracker := sess.Tracker(domain.CycleJune)
	tracker.Scores = map[domain.Subject]domain.SubjectScore{
		domain.SubjectMath: {Ability: 300, Percentile: 34.6, Grade: 6},
	}
	tracker.CurrentSubject = domain.SubjectKorean
	sess.Applications = map[string]string{"가군": "연세대학교"}
	sess.AdmittedSchools = []string{"연세대학교"}

	if err := store.PutSession(ctx, sess); err != nil {
		t.Fatalf("put session: %v", err)
	}

	got, err := store.GetSession(ctx, "mentor")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.State != "daily_routine" {
		t.Fatalf("expected state round trip, got %q", got.State)
	}
	if got.Affection != sess.Affection {
		t.Fatalf("expected affection %d, got %d", sess.Affection, got.Affection)
	}
	if got.Abilities[domain.SubjectMath] != 300 {
		t.Fatalf("expected math ability 300, got %d", got.Abilities[domain.SubjectMath])
	}
	if len(got.SelectedSubjects) != 2 || got.SelectedSubjects[0] != "물리학1" {
		t.Fatalf("expected ordered subject round trip, got %v", got.SelectedSubjects)
	}
	june := got.ExamProgress[domain.CycleJune]
	if june == nil || june.CurrentSubject != domain.SubjectKorean {
		t.Fatalf("expected tracker round trip, got %+v", june)
	}
	if june.Scores[domain.SubjectMath].Grade != 6 {
		t.Fatalf("expected score round trip, got %+v", june.Scores)
	}
	if got.Applications["가군"] != "연세대학교" {
		t.Fatalf("expected application round trip, got %v", got.Applications)
	}
	if len(got.AdmittedSchools) != 1 || got.AdmittedSchools[0] != "연세대학교" {
		t.Fatalf("expected admitted schools round trip, got %v", got.AdmittedSchools)
	}
	if !got.GameDate.Equal(domain.DefaultGameDate) {
		t.Fatalf("expected game date round trip, got %v", got.GameDate)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	store := openTestStore(t)
	_, err := store.GetSession(context.Background(), "nobody")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPutSessionReplaces(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	sess, err := domain.CreateSession(domain.CreateSessionInput{UserID: "mentor"}, time.Now, func() string { return "sess-1" })
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := store.PutSession(ctx, sess); err != nil {
		t.Fatalf("put session: %v", err)
	}
	sess.CurrentWeek = 7
	sess.GameEnded = true
	if err := store.PutSession(ctx, sess); err != nil {
		t.Fatalf("replace session: %v", err)
	}

	got, err := store.GetSession(ctx, "mentor")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.CurrentWeek != 7 || !got.GameEnded {
		t.Fatalf("expected replaced session, got week=%d ended=%v", got.CurrentWeek, got.GameEnded)
	}
}

func TestMemoryFragmentRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := storage.MemoryFragment{
		ID:        "frag-1",
		UserID:    "mentor",
		Text:      "수학 공부가 잘 안 돼요",
		Embedding: []float32{0.25, -0.5, 1},
		Metadata:  map[string]string{"state": "daily_routine"},
		CreatedAt: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
	}
	second := storage.MemoryFragment{
		ID:        "frag-2",
		UserID:    "mentor",
		Text:      "오늘은 컨디션이 좋아요",
		CreatedAt: time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC),
	}
	if err := store.AppendMemoryFragment(ctx, first); err != nil {
		t.Fatalf("append fragment: %v", err)
	}
	if err := store.AppendMemoryFragment(ctx, second); err != nil {
		t.Fatalf("append fragment: %v", err)
	}

	fragments, err := store.ListMemoryFragments(ctx, "mentor")
	if err != nil {
		t.Fatalf("list fragments: %v", err)
	}
	if len(fragments) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(fragments))
	}
	if fragments[0].ID != "frag-1" || fragments[1].ID != "frag-2" {
		t.Fatalf("expected chronological order, got %v then %v", fragments[0].ID, fragments[1].ID)
	}
	if len(fragments[0].Embedding) != 3 || fragments[0].Embedding[1] != -0.5 {
		t.Fatalf("expected embedding round trip, got %v", fragments[0].Embedding)
	}
	if fragments[0].Metadata["state"] != "daily_routine" {
		t.Fatalf("expected metadata round trip, got %v", fragments[0].Metadata)
	}
}

func TestAppendTelemetryEvent(t *testing.T) {
	store := openTestStore(t)
	evt := storage.TelemetryEvent{
		UserID:   "mentor",
		Kind:     "turn_processed",
		Severity: "INFO",
		Detail:   "state=daily_routine",
	}
	if err := store.AppendTelemetryEvent(context.Background(), evt); err != nil {
		t.Fatalf("append telemetry: %v", err)
	}

	var count int
	row := store.DB().QueryRow("SELECT COUNT(*) FROM telemetry_events")
	if err := row.Scan(&count); err != nil {
		t.Fatalf("count events: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 event, got %d", count)
	}
}
