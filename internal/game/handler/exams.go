package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/dhleesep9/gayoon/internal/dialogue"
	"github.com/dhleesep9/gayoon/internal/game/exam"
	"github.com/dhleesep9/gayoon/internal/session/domain"
)

// Advice is judged on a 1..20 scale; adviceGoodThreshold splits
// actionable advice from platitudes.
const (
	adviceScaleMin      = 1
	adviceScaleMax      = 20
	adviceGoodThreshold = 11
)

// adviceNegativeKeywords floor the advice score outright: a dismissive
// answer never counts as mentoring, whatever the judge thinks of it.
var adviceNegativeKeywords = []string{"몰라", "알아서", "그냥 해", "포기해", "닥쳐", "시끄러"}

// reviewConfig parameterizes the per-subject feedback loop shared by the
// June and September milestones.
type reviewConfig struct {
	cycle            domain.ExamCycle
	abilityReward    int
	badMentalPenalty int
}

// milestoneExamHooks scores a milestone exam on entry, presents the
// report card, and hands off to the per-subject feedback state.
func milestoneExamHooks(cycle domain.ExamCycle, feedbackState string) Hooks {
	return Hooks{
		OnEnter: func(_ context.Context, sess *domain.Session, _ string) (*TurnEffect, error) {
			scores := exam.ScoreAll(sess)
			setTracker(sess, cycle, domain.NewExamTracker(scores))
			return &TurnEffect{
				Reply:        fmt.Sprintf("\"성적표 나왔어요…\"\n%s", formatReportCard(scores)),
				TransitionTo: feedbackState,
				SkipDialogue: true,
			}, nil
		},
	}
}

// reviewLoopHooks walks the five subjects one by one: the mentee
// describes the subject's problem, the mentor answers, and the judge
// decides whether the advice lands. Good advice strengthens the subject
// and the mentee; dismissive advice costs goodwill.
func reviewLoopHooks(deps Deps, cfg reviewConfig) Hooks {
	return Hooks{
		OnEnter: func(_ context.Context, sess *domain.Session, _ string) (*TurnEffect, error) {
			tracker := sess.Tracker(cfg.cycle)
			subject := tracker.NextUnsolved()
			if subject == "" {
				return &TurnEffect{TransitionTo: "daily_routine"}, nil
			}
			return &TurnEffect{
				Reply:        presentProblem(tracker, subject),
				SkipDialogue: true,
			}, nil
		},
		Handle: func(ctx context.Context, sess *domain.Session, message string) (*TurnEffect, error) {
			tracker := sess.Tracker(cfg.cycle)
			subject := tracker.CurrentSubject
			if subject == "" {
				subject = tracker.NextUnsolved()
			}
			if subject == "" {
				return &TurnEffect{TransitionTo: "daily_routine"}, nil
			}
			tracker.CurrentSubject = subject
			problem := reviewProblem(tracker, subject)

			var reaction string
			if judgeAdvice(ctx, deps.Judge, message, subject, problem) {
				sess.AddAffection(2)
				sess.AddMental(5)
				sess.AddAbility(subject, cfg.abilityReward)
				reaction = fmt.Sprintf("\"그 방법 좋네요. %s는 그렇게 잡아 볼게요.\"", subject)
			} else {
				sess.AddAffection(-2)
				if cfg.badMentalPenalty > 0 {
					sess.AddMental(-cfg.badMentalPenalty)
				}
				reaction = "\"…네. 뭐, 그렇죠.\""
			}
			tracker.MarkSolved(subject)

			if next := tracker.NextUnsolved(); next != "" {
				return &TurnEffect{
					Reply:        reaction + "\n" + presentProblem(tracker, next),
					SkipDialogue: true,
				}, nil
			}
			return &TurnEffect{
				Reply:        reaction + "\n\"다섯 과목 다 얘기했어요. 다시 달려 볼게요.\"",
				TransitionTo: "daily_routine",
				SkipDialogue: true,
			}, nil
		},
	}
}

// weakSubjectExamHooks covers the official and private mock exams: score
// on entry, surface the weakest subject, and resolve on a single round
// of advice.
func weakSubjectExamHooks(deps Deps, cycle domain.ExamCycle, privateMock bool) Hooks {
	return Hooks{
		OnEnter: func(_ context.Context, sess *domain.Session, _ string) (*TurnEffect, error) {
			if privateMock {
				sess.LastMockExamWeek = sess.CurrentWeek
			}
			scores := exam.ScoreAll(sess)
			tracker := domain.NewExamTracker(scores)
			setTracker(sess, cycle, tracker)
			weak := exam.WeakSubject(scores)
			return &TurnEffect{
				Reply:        fmt.Sprintf("%s\n%s", formatReportCard(scores), presentProblem(tracker, weak)),
				SkipDialogue: true,
			}, nil
		},
		Handle: func(ctx context.Context, sess *domain.Session, message string) (*TurnEffect, error) {
			tracker := sess.Tracker(cycle)
			subject := tracker.CurrentSubject
			if subject == "" {
				return &TurnEffect{TransitionTo: "daily_routine"}, nil
			}
			problem := reviewProblem(tracker, subject)

			var reaction string
			if judgeAdvice(ctx, deps.Judge, message, subject, problem) {
				sess.AddAffection(2)
				sess.AddMental(5)
				sess.AddAbility(subject, 10)
				reaction = fmt.Sprintf("\"알겠어요. %s부터 다시 다져 볼게요.\"", subject)
			} else {
				sess.AddAffection(-2)
				sess.AddMental(-2)
				reaction = "\"…그게 다예요?\""
			}
			tracker.MarkSolved(subject)
			return &TurnEffect{
				Reply:        reaction,
				TransitionTo: "daily_routine",
				SkipDialogue: true,
			}, nil
		},
	}
}

// csatHooks records the final scores on entry. The catalog's own
// transitions pick the ending or the admission round on the next turn.
func csatHooks() Hooks {
	return Hooks{
		OnEnter: func(_ context.Context, sess *domain.Session, _ string) (*TurnEffect, error) {
			scores := exam.ScoreAll(sess)
			setTracker(sess, domain.CycleCSAT, domain.NewExamTracker(scores))
			grades := make(map[domain.Subject]int, len(scores))
			for subject, score := range scores {
				grades[subject] = score.Grade
			}
			sess.CSATScores = grades
			return &TurnEffect{
				Reply:        fmt.Sprintf("\"가채점 결과예요.\"\n%s", formatReportCard(scores)),
				SkipDialogue: true,
			}, nil
		},
	}
}

// judgeAdvice returns whether the mentor's advice lands. Dismissive
// keywords fail outright; a judge outage counts the advice as adequate
// so an API incident never punishes the player.
func judgeAdvice(ctx context.Context, judge dialogue.Judge, advice string, subject domain.Subject, problem string) bool {
	for _, kw := range adviceNegativeKeywords {
		if strings.Contains(advice, kw) {
			return false
		}
	}
	if judge == nil {
		return true
	}
	score, err := judge.JudgeAdvice(ctx, advice, string(subject), problem, adviceScaleMin, adviceScaleMax)
	if err != nil {
		return true
	}
	return score >= adviceGoodThreshold
}

// setTracker replaces the cycle's tracker, re-scoring from scratch so a
// second exam in the same cycle starts a fresh review.
func setTracker(sess *domain.Session, cycle domain.ExamCycle, tracker *domain.ExamTracker) {
	if sess.ExamProgress == nil {
		sess.ExamProgress = map[domain.ExamCycle]*domain.ExamTracker{}
	}
	sess.ExamProgress[cycle] = tracker
}

// presentProblem sets the tracker pointer to the subject and returns the
// mentee's description of what went wrong there.
func presentProblem(tracker *domain.ExamTracker, subject domain.Subject) string {
	tracker.CurrentSubject = subject
	problem := reviewProblem(tracker, subject)
	return fmt.Sprintf("\"%s 얘기부터 할게요. %s\"", subject, problem)
}

// reviewProblem returns the stored problem for a subject, generating and
// caching one from the score when absent.
func reviewProblem(tracker *domain.ExamTracker, subject domain.Subject) string {
	review, ok := tracker.Reviews[subject]
	if !ok || review == nil {
		review = &domain.SubjectReview{}
		if tracker.Reviews == nil {
			tracker.Reviews = map[domain.Subject]*domain.SubjectReview{}
		}
		tracker.Reviews[subject] = review
	}
	if review.Problem == "" {
		review.Problem = exam.WeaknessMessage(subject, tracker.Scores[subject].Grade)
	}
	return review.Problem
}

// formatReportCard renders per-subject grades and percentiles in
// presentation order.
func formatReportCard(scores map[domain.Subject]domain.SubjectScore) string {
	var b strings.Builder
	for _, subject := range domain.ExamSubjects() {
		score := scores[subject]
		fmt.Fprintf(&b, "%s: %d등급 (백분위 %.1f)\n", subject, score.Grade, score.Percentile)
	}
	fmt.Fprintf(&b, "평균 %.1f등급", exam.AverageGrade(scores))
	return b.String()
}
