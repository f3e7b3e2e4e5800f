package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/dhleesep9/gayoon/internal/game/catalog"
	"github.com/dhleesep9/gayoon/internal/game/trigger"
	"github.com/dhleesep9/gayoon/internal/session/domain"
)

// subjectSelectionHooks commits the elective picks. The state machine
// already required two recognizable picks before transitioning, so the
// commit happens on exit; a turn with fewer picks gets a prompt instead.
// A career goal mentioned along the way is recorded for the ability-gain
// synergy bonus.
func subjectSelectionHooks() Hooks {
	return Hooks{
		Handle: func(_ context.Context, sess *domain.Session, message string) (*TurnEffect, error) {
			career := recordCareer(sess, message)
			picks := trigger.ParseElectives(message)
			if len(picks) == 0 {
				if career == "" {
					return nil, nil
				}
				return &TurnEffect{
					Reply:        fmt.Sprintf("\"%s… 그 꿈이면 잘 맞는 탐구 과목이 있어요. 어떤 두 과목으로 할까요?\"", career),
					SkipDialogue: true,
				}, nil
			}
			return &TurnEffect{
				Reply:        fmt.Sprintf("\"%s… 하나만으로는 부족해요. 탐구는 두 과목을 골라야 해요.\"", picks[0]),
				SkipDialogue: true,
			}, nil
		},
		OnExit: func(_ context.Context, sess *domain.Session, message string) (*TurnEffect, error) {
			recordCareer(sess, message)
			picks := trigger.ParseElectives(message)
			if err := sess.SetSelectedSubjects(picks); err != nil {
				return nil, err
			}
			return nil, nil
		},
	}
}

// recordCareer stores the first career goal named in the message and
// returns its display name, or "" when none matched.
func recordCareer(sess *domain.Session, message string) string {
	for _, c := range catalog.Careers() {
		if strings.Contains(message, c.Name) {
			sess.Career = c.ID
			return c.Name
		}
	}
	return ""
}

// examStrategyHooks collects one strategy per exam subject, in subject
// order, grading each with the judge. A judge failure records a neutral
// strategy rather than blocking the flow.
func examStrategyHooks(deps Deps) Hooks {
	return Hooks{
		Handle: func(ctx context.Context, sess *domain.Session, message string) (*TurnEffect, error) {
			subject := nextUnplannedSubject(sess)
			if subject == "" {
				return &TurnEffect{TransitionTo: "study_schedule"}, nil
			}
			if strings.TrimSpace(message) == "" {
				return nil, nil
			}

			quality := domain.StrategyPoor
			if deps.Judge != nil {
				if q, err := deps.Judge.JudgeStrategy(ctx, subject, message); err == nil {
					quality = q
				}
			}
			if sess.Strategies == nil {
				sess.Strategies = map[domain.Subject]domain.Strategy{}
			}
			sess.Strategies[subject] = domain.Strategy{Text: message, Quality: quality}

			next := nextUnplannedSubject(sess)
			if next == "" {
				return &TurnEffect{
					Reply:        "\"다섯 과목 다 정리됐어요. 이대로 해 볼게요.\"",
					TransitionTo: "study_schedule",
					SkipDialogue: true,
				}, nil
			}
			return &TurnEffect{
				Reply:        fmt.Sprintf("\"%s는 그렇게 할게요. 다음은 %s요.\"", subject, next),
				SkipDialogue: true,
			}, nil
		},
	}
}

// nextUnplannedSubject returns the first exam subject without a recorded
// strategy, in presentation order.
func nextUnplannedSubject(sess *domain.Session) domain.Subject {
	for _, subject := range domain.ExamSubjects() {
		if sess.Strategies[subject].Quality == "" {
			return subject
		}
	}
	return ""
}
