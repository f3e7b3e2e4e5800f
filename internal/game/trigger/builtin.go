package trigger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dhleesep9/gayoon/internal/game/catalog"
	"github.com/dhleesep9/gayoon/internal/game/exam"
	"github.com/dhleesep9/gayoon/internal/session/domain"
)

// MentoringEndPhrase closes the current week when it appears in a
// message.
const MentoringEndPhrase = "멘토링 종료"

// mockExamPhrase requests a private mock exam.
const mockExamPhrase = "사설모의고사"

// scheduleRequestPhrase re-opens the timetable state; matched with all
// whitespace stripped so "학습 시간표 관리" and variants both hit.
const scheduleRequestPhrase = "학습시간표관리"

// RegisterBuiltins installs every predicate the state catalog references.
func RegisterBuiltins(r *Registry) error {
	builtins := map[string]Func{
		"always":                 always,
		"input_equals":           inputEquals,
		"input_contains":         inputContains,
		"input_contains_any":     inputContainsAny,
		"affection_threshold":    affectionThreshold,
		"affection_increase":     affectionIncrease,
		"affection_and_subjects": affectionAndSubjects,
		"time_advance_week":      timeAdvanceWeek,
		"study_schedule_request": studyScheduleRequest,
		"subject_selection":      subjectSelection,
		"mock_exam_request":      mockExamRequest,
		"confession_event":       confessionEvent,
		"exam_date":              examDate,
		"exam_strategy_complete": examStrategyComplete,
		"exam_ending":            examEnding,
	}
	for name, fn := range builtins {
		if err := r.Register(name, fn); err != nil {
			return err
		}
	}
	return nil
}

func always(map[string]any, Context) (bool, error) {
	return true, nil
}

func inputEquals(conditions map[string]any, ctx Context) (bool, error) {
	value, ok, err := condString(conditions, "value")
	if err != nil || !ok {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(ctx.Message), strings.TrimSpace(value)), nil
}

func inputContains(conditions map[string]any, ctx Context) (bool, error) {
	value, ok, err := condString(conditions, "value")
	if err != nil || !ok {
		return false, err
	}
	return strings.Contains(strings.ToLower(ctx.Message), strings.ToLower(value)), nil
}

func inputContainsAny(conditions map[string]any, ctx Context) (bool, error) {
	values, ok, err := condStrings(conditions, "values")
	if err != nil || !ok {
		return false, err
	}
	lowered := strings.ToLower(ctx.Message)
	for _, value := range values {
		if strings.Contains(lowered, strings.ToLower(value)) {
			return true, nil
		}
	}
	return false, nil
}

func affectionThreshold(conditions map[string]any, ctx Context) (bool, error) {
	min, ok, err := condInt(conditions, "affection_min")
	if err != nil || !ok {
		return false, err
	}
	if ctx.Session == nil {
		return false, fmt.Errorf("session is required")
	}
	return ctx.Session.Affection >= min, nil
}

func affectionIncrease(conditions map[string]any, ctx Context) (bool, error) {
	min, ok, err := condInt(conditions, "affection_increase_min")
	if err != nil || !ok {
		return false, err
	}
	return ctx.AffectionDelta >= min && ctx.AffectionDelta > 0, nil
}

func affectionAndSubjects(conditions map[string]any, ctx Context) (bool, error) {
	if ctx.Session == nil {
		return false, fmt.Errorf("session is required")
	}
	min, hasMin, err := condInt(conditions, "affection_min")
	if err != nil {
		return false, err
	}
	count, hasCount, err := condInt(conditions, "subjects_count")
	if err != nil {
		return false, err
	}
	if hasMin && ctx.Session.Affection < min {
		return false, nil
	}
	if hasCount && len(ctx.Session.SelectedSubjects) != count {
		return false, nil
	}
	return hasMin || hasCount, nil
}

func timeAdvanceWeek(_ map[string]any, ctx Context) (bool, error) {
	return strings.Contains(ctx.Message, MentoringEndPhrase), nil
}

func studyScheduleRequest(_ map[string]any, ctx Context) (bool, error) {
	stripped := strings.Join(strings.Fields(ctx.Message), "")
	return strings.Contains(stripped, scheduleRequestPhrase), nil
}

func subjectSelection(conditions map[string]any, ctx Context) (bool, error) {
	required, ok, err := condInt(conditions, "required_count")
	if err != nil {
		return false, err
	}
	if !ok {
		required = domain.MaxSelectedSubjects
	}
	return len(ParseElectives(ctx.Message)) >= required, nil
}

func mockExamRequest(_ map[string]any, ctx Context) (bool, error) {
	if ctx.Session == nil {
		return false, fmt.Errorf("session is required")
	}
	if !strings.Contains(strings.Join(strings.Fields(ctx.Message), ""), mockExamPhrase) {
		return false, nil
	}
	// At most one mock exam per in-game week.
	return ctx.Session.LastMockExamWeek != ctx.Session.CurrentWeek, nil
}

func confessionEvent(conditions map[string]any, ctx Context) (bool, error) {
	if ctx.Session == nil {
		return false, fmt.Errorf("session is required")
	}
	if dateStr, ok, err := condString(conditions, "date"); err != nil {
		return false, err
	} else if ok {
		date, parseErr := time.Parse("2006-01-02", dateStr)
		if parseErr != nil {
			return false, fmt.Errorf("parse confession date: %w", parseErr)
		}
		y1, m1, d1 := ctx.Session.GameDate.Date()
		y2, m2, d2 := date.Date()
		if y1 == y2 && m1 == m2 && d1 == d2 {
			return true, nil
		}
	}
	return strings.Contains(ctx.Message, "고백") && strings.Contains(ctx.Message, "이벤트"), nil
}

func examDate(conditions map[string]any, ctx Context) (bool, error) {
	if officialOnly, ok, err := condBool(conditions, "official_only"); err != nil {
		return false, err
	} else if ok && officialOnly {
		for _, crossed := range ctx.ExamMonths {
			if exam.IsOfficialMockMonth(crossed) {
				return true, nil
			}
		}
		return false, nil
	}
	months, ok, err := condInts(conditions, "months")
	if err != nil || !ok {
		return false, err
	}
	for _, crossed := range ctx.ExamMonths {
		for _, month := range months {
			if int(crossed) == month {
				return true, nil
			}
		}
	}
	return false, nil
}

func examStrategyComplete(_ map[string]any, ctx Context) (bool, error) {
	if ctx.Session == nil {
		return false, fmt.Errorf("session is required")
	}
	for _, subject := range domain.ExamSubjects() {
		if ctx.Session.Strategies[subject].Quality == "" {
			return false, nil
		}
	}
	return true, nil
}

func examEnding(conditions map[string]any, ctx Context) (bool, error) {
	if ctx.Session == nil {
		return false, fmt.Errorf("session is required")
	}
	scores := ctx.Session.CSATScores
	if len(scores) < len(domain.ExamSubjects()) {
		return false, nil
	}
	sum := 0
	for _, subject := range domain.ExamSubjects() {
		grade, ok := scores[subject]
		if !ok {
			return false, nil
		}
		sum += grade
	}
	average := float64(sum) / float64(len(domain.ExamSubjects()))

	if max, ok, err := condFloat(conditions, "average_grade_max"); err != nil {
		return false, err
	} else if ok && average > max {
		return false, nil
	}
	if min, ok, err := condFloat(conditions, "average_grade_min"); err != nil {
		return false, err
	} else if ok && average < min {
		return false, nil
	}
	if min, ok, err := condInt(conditions, "stamina_min"); err != nil {
		return false, err
	} else if ok && ctx.Session.Stamina < min {
		return false, nil
	}
	if min, ok, err := condInt(conditions, "affection_min"); err != nil {
		return false, err
	} else if ok && ctx.Session.Affection < min {
		return false, nil
	}
	return true, nil
}

// ParseElectives extracts elective subject mentions from a message in
// the order they appear, deduplicated, capped at the pick limit. The
// message is matched with all whitespace stripped so "생활과 윤리" and
// "물리학 1" still resolve. Longer names are matched first so "물리학2"
// is never claimed by "물리학1" mid-phrase.
func ParseElectives(message string) []domain.Subject {
	type hit struct {
		index   int
		subject domain.Subject
	}
	stripped := strings.Join(strings.Fields(message), "")
	names := catalog.Electives()
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	var hits []hit
	claimed := map[domain.Subject]bool{}
	for _, name := range names {
		idx := strings.Index(stripped, string(name))
		if idx < 0 || claimed[name] {
			continue
		}
		overlap := false
		for _, h := range hits {
			if idx >= h.index && idx < h.index+len(string(h.subject)) {
				overlap = true
				break
			}
		}
		if overlap {
			continue
		}
		claimed[name] = true
		hits = append(hits, hit{index: idx, subject: name})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].index < hits[j].index })

	var picks []domain.Subject
	for _, h := range hits {
		picks = append(picks, h.subject)
		if len(picks) == domain.MaxSelectedSubjects {
			break
		}
	}
	return picks
}
