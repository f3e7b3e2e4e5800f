package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gerrors "github.com/dhleesep9/gayoon/internal/errors"
	"github.com/dhleesep9/gayoon/internal/game/exam"
	"github.com/dhleesep9/gayoon/internal/game/schedule"
	"github.com/dhleesep9/gayoon/internal/session/domain"
)

// restStaminaBonus is granted when the mentor spends a daily-routine
// turn on rest or exercise instead of studying.
const restStaminaBonus = 3

var restKeywords = []string{"운동하자", "같이 운동", "쉬자", "휴식", "산책", "바람 쐬"}

var statusKeywords = []string{"공부 어때", "공부는 어때", "잘 되고 있", "진도 어때", "성적 어때"}

// studyScheduleHooks parses a weekly timetable out of the message. A
// message with no recognizable entries falls through to normal dialogue;
// an over-cap timetable is rejected without touching the session.
func studyScheduleHooks() Hooks {
	return Hooks{
		Handle: func(_ context.Context, sess *domain.Session, message string) (*TurnEffect, error) {
			parsed, err := schedule.Parse(message, sess.SelectedSubjects)
			switch {
			case errors.Is(err, schedule.ErrNoEntries):
				return nil, nil
			case errors.Is(err, schedule.ErrHoursExceeded):
				verr := gerrors.NewValidation(gerrors.CodeScheduleHoursExceeded,
					fmt.Sprintf("\"일주일에 %d시간이 넘으면 못 버텨요. 다시 짜 주세요.\"", domain.MaxWeeklyHours))
				return &TurnEffect{Reply: verr.Narration, SkipDialogue: true}, nil
			case err != nil:
				return nil, err
			}
			if err := sess.SetSchedule(parsed); err != nil {
				return nil, err
			}
			return &TurnEffect{
				Reply:        fmt.Sprintf("\"좋아요, 이 시간표대로 해 볼게요. %s\"", formatSchedule(parsed)),
				TransitionTo: "daily_routine",
				SkipDialogue: true,
			}, nil
		},
	}
}

// dailyRoutineHooks handles the long middle of the game. Rest keywords
// convert a turn into recovered stamina, status keywords get a progress
// report whose tone follows affection; everything else is plain
// conversation.
func dailyRoutineHooks() Hooks {
	return Hooks{
		Handle: func(_ context.Context, sess *domain.Session, message string) (*TurnEffect, error) {
			for _, kw := range restKeywords {
				if strings.Contains(message, kw) {
					gained := sess.AddStamina(restStaminaBonus)
					if gained <= 0 {
						return nil, nil
					}
					return &TurnEffect{
						Narration: fmt.Sprintf("가윤과 함께 잠시 책을 덮었다. (체력 +%d)", gained),
					}, nil
				}
			}
			for _, kw := range statusKeywords {
				if strings.Contains(message, kw) {
					return &TurnEffect{
						Reply:        studyStatusReply(sess),
						SkipDialogue: true,
					}, nil
				}
			}
			return nil, nil
		},
	}
}

// studyStatusReply reports the current week and average percentile in a
// register that tracks affection.
func studyStatusReply(sess *domain.Session) string {
	scores := exam.ScoreAll(sess)
	average := exam.AveragePercentile(scores)
	weak := exam.WeakSubject(scores)
	switch {
	case sess.Affection > 70:
		return fmt.Sprintf("\"%d주차예요. 평균 백분위 %.1f까지 왔어요. %s가 아직 걸리긴 하는데, 같이 하니까 버틸 만해요.\"",
			sess.CurrentWeek, average, weak)
	case sess.Affection < 30:
		return fmt.Sprintf("\"%d주차, 평균 백분위 %.1f. 그게 다예요.\"", sess.CurrentWeek, average)
	default:
		return fmt.Sprintf("\"%d주차고, 평균 백분위는 %.1f 정도예요. %s가 제일 약해요.\"",
			sess.CurrentWeek, average, weak)
	}
}

var confessionAcceptKeywords = []string{"좋아해", "나도", "고마워", "기다릴게"}

// confessionHooks resolves the one-shot confession event. Accepting
// steadies the mentee; a rejection bruises but the routine resumes
// either way.
func confessionHooks() Hooks {
	return Hooks{
		Handle: func(_ context.Context, sess *domain.Session, message string) (*TurnEffect, error) {
			for _, kw := range confessionAcceptKeywords {
				if strings.Contains(message, kw) {
					sess.AddMental(20)
					sess.AddAffection(5)
					return &TurnEffect{
						Narration:    "가윤의 얼굴이 밝아졌다. 한동안 흔들리던 마음이 단단해진 것 같다.",
						TransitionTo: "daily_routine",
					}, nil
				}
			}
			sess.AddMental(-10)
			sess.AddAffection(-5)
			return &TurnEffect{
				Narration:    "가윤은 고개를 끄덕이고는 애써 웃었다. 다시 책상 앞으로 돌아간다.",
				TransitionTo: "daily_routine",
			}, nil
		},
	}
}

func formatSchedule(sched map[domain.Subject]int) string {
	var parts []string
	for _, subject := range append(domain.ExamSubjects(), domain.SubjectExercise) {
		if hours, ok := sched[subject]; ok {
			parts = append(parts, fmt.Sprintf("%s %d시간", subject, hours))
		}
	}
	return strings.Join(parts, ", ")
}
