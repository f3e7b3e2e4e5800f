// Package handler implements the per-state turn logic that runs after
// the state machine settles: subject picks, strategy capture, timetable
// parsing, exam feedback loops, the confession event, and the admission
// round. Handlers mutate the session directly and describe the rest of
// the turn through a TurnEffect.
package handler

import (
	"context"
	"math/rand"

	"github.com/dhleesep9/gayoon/internal/dialogue"
	"github.com/dhleesep9/gayoon/internal/game/catalog"
	"github.com/dhleesep9/gayoon/internal/session/domain"
)

// TurnEffect describes what a hook decided about the rest of the turn.
// A nil effect means the turn proceeds with generated dialogue only.
type TurnEffect struct {
	// Reply replaces the generated dialogue when non-empty.
	Reply string
	// Narration is appended to the turn's narration block.
	Narration string
	// TransitionTo forces a state change after the hook returns.
	TransitionTo string
	// SkipDialogue suppresses the language-model reply for this turn.
	SkipDialogue bool
}

// HookFunc is one state lifecycle hook. Hooks may mutate the session;
// every mutation goes through the clamped session methods.
type HookFunc func(ctx context.Context, sess *domain.Session, message string) (*TurnEffect, error)

// Hooks groups the lifecycle hooks of one state. Any of them may be nil.
type Hooks struct {
	// OnEnter runs when the state is entered, before any player turn in it.
	OnEnter HookFunc
	// Handle runs on a player turn that did not transition away.
	Handle HookFunc
	// OnExit runs when a turn transitions out of the state.
	OnExit HookFunc
}

// Deps carries the collaborators the handlers share.
type Deps struct {
	Judge dialogue.Judge
	// Rand drives the admission coin flip; defaults to math/rand.
	Rand func() float64
}

// Registry maps state ids to their lifecycle hooks.
type Registry struct {
	hooks map[string]Hooks
}

// NewRegistry wires every state handler against the shared dependencies.
func NewRegistry(deps Deps) *Registry {
	if deps.Rand == nil {
		deps.Rand = rand.Float64
	}
	r := &Registry{hooks: map[string]Hooks{}}

	r.Register("subject_selection", subjectSelectionHooks())
	r.Register("exam_strategy", examStrategyHooks(deps))
	r.Register("study_schedule", studyScheduleHooks())
	r.Register("daily_routine", dailyRoutineHooks())
	r.Register("confession_event", confessionHooks())
	r.Register("june_exam", milestoneExamHooks(domain.CycleJune, "june_exam_feedback"))
	r.Register("june_exam_feedback", reviewLoopHooks(deps, reviewConfig{
		cycle:         domain.CycleJune,
		abilityReward: 100,
	}))
	r.Register("september_exam", milestoneExamHooks(domain.CycleSeptember, "september_exam_feedback"))
	r.Register("september_exam_feedback", reviewLoopHooks(deps, reviewConfig{
		cycle:            domain.CycleSeptember,
		abilityReward:    100,
		badMentalPenalty: 2,
	}))
	r.Register("official_exam", weakSubjectExamHooks(deps, domain.CycleOfficial, false))
	r.Register("mock_exam", weakSubjectExamHooks(deps, domain.CycleMock, true))
	r.Register("csat", csatHooks())
	r.Register("university_application", applicationHooks(deps))
	return r
}

// Register binds hooks to a state id, replacing any previous binding.
func (r *Registry) Register(state string, hooks Hooks) {
	r.hooks[state] = hooks
}

// Lookup returns the hooks for a state.
func (r *Registry) Lookup(state string) (Hooks, bool) {
	h, ok := r.hooks[state]
	return h, ok
}

// CareerBonusFor maps schedule slots to the career synergy multiplier:
// the picked elective behind a 탐구 slot decides whether the mentee's
// career grants its bonus.
func CareerBonusFor(sess *domain.Session) func(domain.Subject) float64 {
	return func(slot domain.Subject) float64 {
		var elective domain.Subject
		switch slot {
		case domain.SubjectElective1:
			if len(sess.SelectedSubjects) > 0 {
				elective = sess.SelectedSubjects[0]
			}
		case domain.SubjectElective2:
			if len(sess.SelectedSubjects) > 1 {
				elective = sess.SelectedSubjects[1]
			}
		default:
			return 1.0
		}
		if elective == "" {
			return 1.0
		}
		return catalog.CareerBonus(sess.Career, elective)
	}
}
