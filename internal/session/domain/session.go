// Package domain defines the mentee session record and the invariants
// every mutation preserves: gauge clamps, the ability ceiling, the
// weekly schedule cap, and the two-elective limit.
package domain

import (
	"errors"
	"strings"
	"time"
)

// Gauge and ability bounds. Clamps are applied at every mutation point,
// not only at input boundaries.
const (
	GaugeMin   = 0
	GaugeMax   = 100
	AbilityMax = 2500

	// MaxWeeklyHours caps the summed study schedule.
	MaxWeeklyHours = 14

	// MaxSelectedSubjects caps the elective picks.
	MaxSelectedSubjects = 2
)

// Defaults applied when a session is first created or reset.
const (
	DefaultAffection  = 5
	DefaultStamina    = 30
	DefaultMental     = 40
	DefaultConfidence = 50
	StartState        = "start"
)

// DefaultGameDate is the in-game calendar date a fresh session starts on.
var DefaultGameDate = time.Date(2023, time.November, 17, 0, 0, 0, 0, time.UTC)

var (
	ErrEmptyUserID      = errors.New("session user id is required")
	ErrScheduleExceeded = errors.New("weekly schedule exceeds the hour cap")
	ErrScheduleEmpty    = errors.New("weekly schedule is empty")
	ErrTooManySubjects  = errors.New("too many elective subjects")
	ErrDuplicateSubject = errors.New("duplicate elective subject")
)

// ExamCycle identifies one assessment feedback loop. Each cycle keeps an
// independent tracker so a June review never bleeds into September's.
type ExamCycle string

const (
	CycleMock      ExamCycle = "mock"
	CycleOfficial  ExamCycle = "official"
	CycleJune      ExamCycle = "june"
	CycleSeptember ExamCycle = "september"
	CycleCSAT      ExamCycle = "csat"
)

// SubjectReview tracks the feedback loop for one subject within a cycle.
type SubjectReview struct {
	Problem string `json:"problem,omitempty"`
	Solved  bool   `json:"solved"`
}

// SubjectScore is one subject's result in an exam cycle.
type SubjectScore struct {
	Ability    int     `json:"ability"`
	Percentile float64 `json:"percentile"`
	Grade      int     `json:"grade"`
}

// ExamTracker holds the per-cycle review state: scores, per-subject
// problems, and the pointer to the subject currently under discussion.
type ExamTracker struct {
	Scores         map[Subject]SubjectScore   `json:"scores"`
	Reviews        map[Subject]*SubjectReview `json:"reviews"`
	CurrentSubject Subject                    `json:"current_subject,omitempty"`
	CompletedCount int                        `json:"completed_count"`
	SubjectOrder   []Subject                  `json:"subject_order"`
}

// NewExamTracker seeds a tracker with the given scores and the standard
// subject order.
func NewExamTracker(scores map[Subject]SubjectScore) *ExamTracker {
	order := ExamSubjects()
	reviews := make(map[Subject]*SubjectReview, len(order))
	for _, s := range order {
		reviews[s] = &SubjectReview{}
	}
	return &ExamTracker{
		Scores:       scores,
		Reviews:      reviews,
		SubjectOrder: order,
	}
}

// NextUnsolved returns the first subject in order without a solved
// review, or "" when the cycle is complete.
func (t *ExamTracker) NextUnsolved() Subject {
	if t == nil {
		return ""
	}
	for _, s := range t.SubjectOrder {
		r := t.Reviews[s]
		if r == nil || !r.Solved {
			return s
		}
	}
	return ""
}

// MarkSolved flags the subject's review as solved, advances the
// completion counter, and clears the current-subject pointer.
func (t *ExamTracker) MarkSolved(subject Subject) {
	if t == nil {
		return
	}
	r, ok := t.Reviews[subject]
	if !ok || r == nil {
		r = &SubjectReview{}
		if t.Reviews == nil {
			t.Reviews = map[Subject]*SubjectReview{}
		}
		t.Reviews[subject] = r
	}
	if !r.Solved {
		r.Solved = true
		t.CompletedCount++
	}
	if t.CurrentSubject == subject {
		t.CurrentSubject = ""
	}
}

// Complete reports whether every subject in the cycle has been reviewed.
func (t *ExamTracker) Complete() bool {
	if t == nil {
		return false
	}
	return t.NextUnsolved() == ""
}

// Session is the persistent per-player record. It is owned exclusively
// by the game engine: created on first turn, mutated every turn, never
// deleted but resettable.
type Session struct {
	ID     string
	UserID string

	State string

	Affection int
	Stamina   int
	Mental    int

	Abilities        map[Subject]int
	Schedule         map[Subject]int
	SelectedSubjects []Subject
	Strategies       map[Subject]Strategy

	Career     string
	Confidence int

	ConversationCount int
	CurrentWeek       int
	GameDate          time.Time

	ExamProgress     map[ExamCycle]*ExamTracker
	LastMockExamWeek int
	CSATScores       map[Subject]int

	// Applications holds the admission round: one university per
	// application group, then the schools that accepted once resolved.
	Applications    map[string]string
	AdmittedSchools []string

	GameEnded bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateSessionInput carries the caller-controlled fields for a new
// session.
type CreateSessionInput struct {
	UserID string
}

// NormalizeCreateSessionInput trims whitespace from the input fields.
func NormalizeCreateSessionInput(input CreateSessionInput) CreateSessionInput {
	input.UserID = strings.TrimSpace(input.UserID)
	return input
}

// CreateSession builds a fresh session at the start state with default
// gauges. The clock and id generator are injected so creation stays
// deterministic under test.
func CreateSession(input CreateSessionInput, now func() time.Time, idGenerator func() string) (Session, error) {
	input = NormalizeCreateSessionInput(input)
	if input.UserID == "" {
		return Session{}, ErrEmptyUserID
	}
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		return Session{}, errors.New("id generator is required")
	}

	ts := now().UTC()
	sess := Session{
		ID:        idGenerator(),
		UserID:    input.UserID,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	sess.ResetProgress()
	return sess, nil
}

// ResetProgress restores every gameplay field to its starting value. The
// identity and creation timestamp survive.
func (s *Session) ResetProgress() {
	s.State = StartState
	s.Affection = DefaultAffection
	s.Stamina = DefaultStamina
	s.Mental = DefaultMental
	s.Confidence = DefaultConfidence
	s.Abilities = map[Subject]int{}
	for _, subj := range ExamSubjects() {
		s.Abilities[subj] = 0
	}
	s.Schedule = map[Subject]int{}
	s.SelectedSubjects = nil
	s.Strategies = map[Subject]Strategy{}
	s.Career = ""
	s.ConversationCount = 0
	s.CurrentWeek = 0
	s.GameDate = DefaultGameDate
	s.ExamProgress = map[ExamCycle]*ExamTracker{}
	s.LastMockExamWeek = -1
	s.CSATScores = nil
	s.Applications = nil
	s.AdmittedSchools = nil
	s.GameEnded = false
}

// ReseedStart returns the session to the start state at week zero with
// a fresh calendar. Relationship and ability progress survive, unlike
// ResetProgress.
func (s *Session) ReseedStart() {
	s.State = StartState
	s.ConversationCount = 0
	s.CurrentWeek = 0
	s.GameDate = DefaultGameDate
	s.Applications = nil
	s.AdmittedSchools = nil
	s.GameEnded = false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// AddAffection applies a delta with the [0,100] clamp and returns the
// effective change.
func (s *Session) AddAffection(delta int) int {
	old := s.Affection
	s.Affection = clamp(s.Affection+delta, GaugeMin, GaugeMax)
	return s.Affection - old
}

// AddStamina applies a delta with the [0,100] clamp.
func (s *Session) AddStamina(delta int) int {
	old := s.Stamina
	s.Stamina = clamp(s.Stamina+delta, GaugeMin, GaugeMax)
	return s.Stamina - old
}

// AddMental applies a delta with the [0,100] clamp.
func (s *Session) AddMental(delta int) int {
	old := s.Mental
	s.Mental = clamp(s.Mental+delta, GaugeMin, GaugeMax)
	return s.Mental - old
}

// AddAbility applies a delta to one subject with the [0,2500] clamp.
func (s *Session) AddAbility(subject Subject, delta int) int {
	if s.Abilities == nil {
		s.Abilities = map[Subject]int{}
	}
	old := s.Abilities[subject]
	s.Abilities[subject] = clamp(old+delta, 0, AbilityMax)
	return s.Abilities[subject] - old
}

// SetSchedule replaces the weekly schedule after validating the hour cap.
func (s *Session) SetSchedule(schedule map[Subject]int) error {
	if len(schedule) == 0 {
		return ErrScheduleEmpty
	}
	total := 0
	for _, hours := range schedule {
		total += hours
	}
	if total > MaxWeeklyHours {
		return ErrScheduleExceeded
	}
	copied := make(map[Subject]int, len(schedule))
	for subj, hours := range schedule {
		copied[subj] = hours
	}
	s.Schedule = copied
	return nil
}

// SetSelectedSubjects commits the elective picks. Order is significant:
// index 0 fills the 탐구1 slot.
func (s *Session) SetSelectedSubjects(subjects []Subject) error {
	if len(subjects) > MaxSelectedSubjects {
		return ErrTooManySubjects
	}
	seen := map[Subject]bool{}
	for _, subj := range subjects {
		if seen[subj] {
			return ErrDuplicateSubject
		}
		seen[subj] = true
	}
	s.SelectedSubjects = append([]Subject(nil), subjects...)
	return nil
}

// ElectiveSlot maps a picked elective name to its 탐구 slot, or "" when
// the name was not picked.
func (s *Session) ElectiveSlot(name Subject) Subject {
	for i, picked := range s.SelectedSubjects {
		if picked == name {
			if i == 0 {
				return SubjectElective1
			}
			return SubjectElective2
		}
	}
	return ""
}

// Tracker returns the tracker for a cycle, creating an empty one when
// missing.
func (s *Session) Tracker(cycle ExamCycle) *ExamTracker {
	if s.ExamProgress == nil {
		s.ExamProgress = map[ExamCycle]*ExamTracker{}
	}
	t, ok := s.ExamProgress[cycle]
	if !ok || t == nil {
		t = NewExamTracker(map[Subject]SubjectScore{})
		s.ExamProgress[cycle] = t
	}
	return t
}
