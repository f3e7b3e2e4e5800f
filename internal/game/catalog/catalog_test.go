package catalog

import (
	"testing"
	"time"

	"github.com/dhleesep9/gayoon/internal/session/domain"
)

func TestLoadStates(t *testing.T) {
	states, err := LoadStates()
	if err != nil {
		t.Fatalf("load states: %v", err)
	}
	byID := map[string]StateDefinition{}
	for _, def := range states {
		byID[def.ID] = def
	}

	for _, required := range []string{
		"start", "subject_selection", "exam_strategy", "study_schedule",
		"daily_routine", "june_exam", "june_exam_feedback",
		"september_exam", "september_exam_feedback", "official_exam",
		"mock_exam", "confession_event", "csat", "university_application",
		"affection_ending", "burnout_ending", "mental_breakdown_ending",
		"perfect_score_ending", "admission_success_ending",
		"admission_fail_ending", "samsu_ending",
	} {
		if _, ok := byID[required]; !ok {
			t.Errorf("missing state %q", required)
		}
	}

	if byID["start"].ID != states[0].ID {
		t.Fatal("start must be the first declared state")
	}
	for _, ending := range []string{"affection_ending", "burnout_ending", "mental_breakdown_ending"} {
		def := byID[ending]
		if !def.Terminal {
			t.Errorf("%s must be terminal", ending)
		}
		if def.EndingImage == "" {
			t.Errorf("%s must carry an ending image", ending)
		}
		if len(def.Transitions) != 0 {
			t.Errorf("%s must have no transitions", ending)
		}
	}
}

func TestLoadStatesTransitionOrderPreserved(t *testing.T) {
	states, err := LoadStates()
	if err != nil {
		t.Fatalf("load states: %v", err)
	}
	var daily StateDefinition
	for _, def := range states {
		if def.ID == "daily_routine" {
			daily = def
		}
	}
	if len(daily.Transitions) < 3 {
		t.Fatalf("expected several daily_routine transitions, got %d", len(daily.Transitions))
	}
	// The confession event must be declared before the exam-date edges so
	// it wins on a shared date.
	if daily.Transitions[0].Trigger != "confession_event" {
		t.Fatalf("expected confession_event first, got %q", daily.Transitions[0].Trigger)
	}
}

func TestConfessionDateOnWeeklyCadence(t *testing.T) {
	states, err := LoadStates()
	if err != nil {
		t.Fatalf("load states: %v", err)
	}
	var dateStr string
	for _, def := range states {
		if def.ID != "daily_routine" {
			continue
		}
		for _, tr := range def.Transitions {
			if tr.Trigger == "confession_event" {
				dateStr, _ = tr.Conditions["date"].(string)
			}
		}
	}
	if dateStr == "" {
		t.Fatal("daily_routine must carry a dated confession transition")
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		t.Fatalf("parse confession date: %v", err)
	}
	// The calendar only moves in 7-day steps from the default start date,
	// so an off-cadence date could never fire.
	days := int(date.Sub(domain.DefaultGameDate).Hours() / 24)
	if days <= 0 || days%7 != 0 {
		t.Fatalf("confession date %s is %d days out, not on the weekly cadence", dateStr, days)
	}
}

func TestParseStatesRejectsUnknownTarget(t *testing.T) {
	broken := []byte(`
states:
  - id: a
    transitions:
      - trigger: always
        next: missing
`)
	if _, err := parseStates(broken); err == nil {
		t.Fatal("expected error for unknown transition target")
	}
}

func TestParseStatesRejectsTerminalWithTransitions(t *testing.T) {
	broken := []byte(`
states:
  - id: a
    terminal: true
    transitions:
      - trigger: always
        next: a
`)
	if _, err := parseStates(broken); err == nil {
		t.Fatal("expected error for terminal state with transitions")
	}
}

func TestLoadDebugCommands(t *testing.T) {
	commands, err := LoadDebugCommands()
	if err != nil {
		t.Fatalf("load debug commands: %v", err)
	}
	if len(commands) == 0 {
		t.Fatal("expected debug commands")
	}
	var skip DebugCommand
	for _, cmd := range commands {
		if cmd.Command == "!skip4weeks" {
			skip = cmd
		}
	}
	if skip.Action != "skip_weeks" || skip.RequiredState != "daily_routine" || !skip.Enabled {
		t.Fatalf("unexpected skip command %+v", skip)
	}
}

func TestElectives(t *testing.T) {
	if len(Electives()) != 17 {
		t.Fatalf("expected 17 electives, got %d", len(Electives()))
	}
	if !IsElective("물리학1") {
		t.Fatal("물리학1 must be an elective")
	}
	if IsElective("국어") {
		t.Fatal("국어 is not an elective")
	}
}

func TestCareerBonus(t *testing.T) {
	if got := CareerBonus("engineer", "물리학1"); got != 1.2 {
		t.Fatalf("engineer/물리학1 bonus = %v, want 1.2", got)
	}
	if got := CareerBonus("engineer", "경제"); got != 1.0 {
		t.Fatalf("non-synergy bonus = %v, want 1.0", got)
	}
	if got := CareerBonus("", domain.Subject("물리학1")); got != 1.0 {
		t.Fatalf("no-career bonus = %v, want 1.0", got)
	}
}

func TestFindUniversity(t *testing.T) {
	row, ok := FindUniversity("서울대학교", "컴퓨터공학부")
	if !ok {
		t.Fatal("expected to find 서울대학교 컴퓨터공학부")
	}
	if row.Group != GroupGa || row.CutoffPercentile != 96 {
		t.Fatalf("unexpected row %+v", row)
	}
	if _, ok := FindUniversity("없는대학교", "없는과"); ok {
		t.Fatal("expected miss for unknown university")
	}
}
