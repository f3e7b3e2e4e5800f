package schedule

import (
	"errors"
	"reflect"
	"testing"

	"github.com/dhleesep9/gayoon/internal/session/domain"
)

func TestParseFullSchedule(t *testing.T) {
	got, err := Parse("국어4시간 수학4시간 영어4시간 탐구1 1시간 탐구2 1시간", nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := map[domain.Subject]int{
		domain.SubjectKorean:    4,
		domain.SubjectMath:      4,
		domain.SubjectEnglish:   4,
		domain.SubjectElective1: 1,
		domain.SubjectElective2: 1,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("parse = %v, want %v", got, want)
	}
}

func TestParseRejectsOverCap(t *testing.T) {
	_, err := Parse("국어 8시간 수학 7시간", nil)
	if !errors.Is(err, ErrHoursExceeded) {
		t.Fatalf("expected ErrHoursExceeded, got %v", err)
	}
}

func TestParseNoEntries(t *testing.T) {
	_, err := Parse("오늘 날씨가 좋네요", nil)
	if !errors.Is(err, ErrNoEntries) {
		t.Fatalf("expected ErrNoEntries, got %v", err)
	}
}

func TestParseElectiveNamesMapToSlots(t *testing.T) {
	selected := []domain.Subject{"물리학1", "화학1"}
	got, err := Parse("물리학1 3시간 화학1 2시간", selected)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got[domain.SubjectElective1] != 3 {
		t.Fatalf("expected first pick in 탐구1 slot, got %v", got)
	}
	if got[domain.SubjectElective2] != 2 {
		t.Fatalf("expected second pick in 탐구2 slot, got %v", got)
	}
}

func TestParseExplicitSlotWinsOverElectiveName(t *testing.T) {
	selected := []domain.Subject{"물리학1", "화학1"}
	got, err := Parse("탐구1 5시간 물리학1 3시간", selected)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	// The explicit 탐구1 phrase claims the slot first; the elective-name
	// mention must not overwrite it.
	if got[domain.SubjectElective1] != 5 {
		t.Fatalf("expected explicit slot hours 5, got %v", got)
	}
}

func TestParseSpansNotDoubleCounted(t *testing.T) {
	// "탐구1 1시간" must not also match as a bare number for another rule.
	got, err := Parse("탐구1 1시간", []domain.Subject{"탐구1"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got[domain.SubjectElective1] != 1 || len(got) != 1 {
		t.Fatalf("expected single entry, got %v", got)
	}
}

func TestParseExercise(t *testing.T) {
	got, err := Parse("운동 3시간 국어 4시간", nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got[domain.SubjectExercise] != 3 || got[domain.SubjectKorean] != 4 {
		t.Fatalf("unexpected parse %v", got)
	}
}

func TestParseAtCapAccepted(t *testing.T) {
	got, err := Parse("국어7시간 수학7시간", nil)
	if err != nil {
		t.Fatalf("14 hours must be accepted: %v", err)
	}
	if got[domain.SubjectKorean] != 7 || got[domain.SubjectMath] != 7 {
		t.Fatalf("unexpected parse %v", got)
	}
}
