// Package sqlite provides SQLite-backed persistence for mentee sessions,
// conversation memory, and telemetry events.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/dhleesep9/gayoon/internal/platform/storage/sqlitemigrate"
	"github.com/dhleesep9/gayoon/internal/session/domain"
	"github.com/dhleesep9/gayoon/internal/session/storage"
	"github.com/dhleesep9/gayoon/internal/session/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func encodeJSON(value any) (string, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("marshal column: %w", err)
	}
	return string(encoded), nil
}

func decodeJSON(value string, target any) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(value), target); err != nil {
		return fmt.Errorf("unmarshal column: %w", err)
	}
	return nil
}

// Store provides SQLite-backed persistence for the mentoring engine.
type Store struct {
	sqlDB *sql.DB
}

// DB returns the underlying sql.DB instance.
func (s *Store) DB() *sql.DB {
	if s == nil {
		return nil
	}
	return s.sqlDB
}

// Open opens a SQLite store at the provided path and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, "."); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// GetSession returns the session for a user or storage.ErrNotFound.
func (s *Store) GetSession(ctx context.Context, userID string) (domain.Session, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT user_id, id, state, affection, stamina, mental,
       abilities, schedule, selected_subjects, strategies,
       career, confidence, conversation_count, current_week, game_date,
       exam_progress, last_mock_exam_week, csat_scores,
       applications, admitted_schools, game_ended,
       created_at, updated_at
FROM sessions WHERE user_id = ?`, userID)

	var (
		sess                                                domain.Session
		abilities, schedule, selected, strategies, progress string
		csatScores, applications, admitted                  string
		gameDate, createdAt, updatedAt                      int64
		gameEnded                                           int
	)
	err := row.Scan(
		&sess.UserID, &sess.ID, &sess.State, &sess.Affection, &sess.Stamina, &sess.Mental,
		&abilities, &schedule, &selected, &strategies,
		&sess.Career, &sess.Confidence, &sess.ConversationCount, &sess.CurrentWeek, &gameDate,
		&progress, &sess.LastMockExamWeek, &csatScores,
		&applications, &admitted, &gameEnded,
		&createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.Session{}, storage.ErrNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("query session: %w", err)
	}

	if err := decodeJSON(abilities, &sess.Abilities); err != nil {
		return domain.Session{}, err
	}
	if err := decodeJSON(schedule, &sess.Schedule); err != nil {
		return domain.Session{}, err
	}
	if err := decodeJSON(selected, &sess.SelectedSubjects); err != nil {
		return domain.Session{}, err
	}
	if err := decodeJSON(strategies, &sess.Strategies); err != nil {
		return domain.Session{}, err
	}
	if err := decodeJSON(progress, &sess.ExamProgress); err != nil {
		return domain.Session{}, err
	}
	if err := decodeJSON(csatScores, &sess.CSATScores); err != nil {
		return domain.Session{}, err
	}
	if err := decodeJSON(applications, &sess.Applications); err != nil {
		return domain.Session{}, err
	}
	if err := decodeJSON(admitted, &sess.AdmittedSchools); err != nil {
		return domain.Session{}, err
	}
	sess.GameDate = fromMillis(gameDate)
	sess.GameEnded = gameEnded != 0
	sess.CreatedAt = fromMillis(createdAt)
	sess.UpdatedAt = fromMillis(updatedAt)
	return sess, nil
}

// PutSession inserts or replaces a session.
func (s *Store) PutSession(ctx context.Context, sess domain.Session) error {
	if strings.TrimSpace(sess.UserID) == "" {
		return fmt.Errorf("session user id is required")
	}

	abilities, err := encodeJSON(sess.Abilities)
	if err != nil {
		return err
	}
	schedule, err := encodeJSON(sess.Schedule)
	if err != nil {
		return err
	}
	selected, err := encodeJSON(sess.SelectedSubjects)
	if err != nil {
		return err
	}
	strategies, err := encodeJSON(sess.Strategies)
	if err != nil {
		return err
	}
	progress, err := encodeJSON(sess.ExamProgress)
	if err != nil {
		return err
	}
	csatScores, err := encodeJSON(sess.CSATScores)
	if err != nil {
		return err
	}
	applications, err := encodeJSON(sess.Applications)
	if err != nil {
		return err
	}
	admitted, err := encodeJSON(sess.AdmittedSchools)
	if err != nil {
		return err
	}

	gameEnded := 0
	if sess.GameEnded {
		gameEnded = 1
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT OR REPLACE INTO sessions (
    user_id, id, state, affection, stamina, mental,
    abilities, schedule, selected_subjects, strategies,
    career, confidence, conversation_count, current_week, game_date,
    exam_progress, last_mock_exam_week, csat_scores,
    applications, admitted_schools, game_ended,
    created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.UserID, sess.ID, sess.State, sess.Affection, sess.Stamina, sess.Mental,
		abilities, schedule, selected, strategies,
		sess.Career, sess.Confidence, sess.ConversationCount, sess.CurrentWeek, toMillis(sess.GameDate),
		progress, sess.LastMockExamWeek, csatScores,
		applications, admitted, gameEnded,
		toMillis(sess.CreatedAt), toMillis(sess.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// AppendMemoryFragment stores one conversation fragment.
func (s *Store) AppendMemoryFragment(ctx context.Context, fragment storage.MemoryFragment) error {
	if strings.TrimSpace(fragment.ID) == "" {
		return fmt.Errorf("fragment id is required")
	}
	embedding, err := encodeJSON(fragment.Embedding)
	if err != nil {
		return err
	}
	metadata, err := encodeJSON(fragment.Metadata)
	if err != nil {
		return err
	}
	if fragment.CreatedAt.IsZero() {
		fragment.CreatedAt = time.Now().UTC()
	}
	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO memory_fragments (id, user_id, text, embedding, metadata, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		fragment.ID, fragment.UserID, fragment.Text, embedding, metadata, toMillis(fragment.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("append memory fragment: %w", err)
	}
	return nil
}

// ListMemoryFragments returns all fragments for a user, oldest first.
func (s *Store) ListMemoryFragments(ctx context.Context, userID string) ([]storage.MemoryFragment, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, user_id, text, embedding, metadata, created_at
FROM memory_fragments WHERE user_id = ? ORDER BY created_at ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list memory fragments: %w", err)
	}
	defer rows.Close()

	var fragments []storage.MemoryFragment
	for rows.Next() {
		var (
			fragment            storage.MemoryFragment
			embedding, metadata string
			createdAt           int64
		)
		if err := rows.Scan(&fragment.ID, &fragment.UserID, &fragment.Text, &embedding, &metadata, &createdAt); err != nil {
			return nil, fmt.Errorf("scan memory fragment: %w", err)
		}
		if err := decodeJSON(embedding, &fragment.Embedding); err != nil {
			return nil, err
		}
		if err := decodeJSON(metadata, &fragment.Metadata); err != nil {
			return nil, err
		}
		fragment.CreatedAt = fromMillis(createdAt)
		fragments = append(fragments, fragment)
	}
	return fragments, rows.Err()
}

// AppendTelemetryEvent records one operational event.
func (s *Store) AppendTelemetryEvent(ctx context.Context, evt storage.TelemetryEvent) error {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO telemetry_events (ts, user_id, kind, severity, detail)
VALUES (?, ?, ?, ?, ?)`,
		toMillis(evt.Timestamp), evt.UserID, evt.Kind, evt.Severity, evt.Detail,
	)
	if err != nil {
		return fmt.Errorf("append telemetry event: %w", err)
	}
	return nil
}
