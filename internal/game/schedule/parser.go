// Package schedule parses free-text weekly study timetables into a
// per-subject hour map. Matching follows a documented precedence with
// non-overlapping span bookkeeping so one phrase is never counted twice.
package schedule

import (
	"errors"
	"regexp"
	"strconv"

	"github.com/dhleesep9/gayoon/internal/session/domain"
)

var (
	// ErrNoEntries means the message contained no recognizable
	// subject-hour phrases; callers fall through to normal dialogue.
	ErrNoEntries = errors.New("no schedule entries found")
	// ErrHoursExceeded means the parsed schedule sums past the weekly cap.
	ErrHoursExceeded = errors.New("schedule exceeds weekly hour cap")
)

type span struct{ start, end int }

func overlaps(claimed []span, s span) bool {
	for _, c := range claimed {
		if s.start < c.end && c.start < s.end {
			return true
		}
	}
	return false
}

// target is one parse rule: a name to look for and the slot it fills.
type target struct {
	name string
	slot domain.Subject
}

// Parse extracts a weekly schedule from a message. Precedence: explicit
// 탐구1/탐구2 mentions, then the player's elective names mapped to their
// slot by pick order, then the base subjects. Returns ErrNoEntries when
// nothing parses and ErrHoursExceeded when the total passes the cap.
func Parse(message string, selectedSubjects []domain.Subject) (map[domain.Subject]int, error) {
	targets := []target{
		{string(domain.SubjectElective1), domain.SubjectElective1},
		{string(domain.SubjectElective2), domain.SubjectElective2},
	}
	for i, elective := range selectedSubjects {
		slot := domain.SubjectElective1
		if i == 1 {
			slot = domain.SubjectElective2
		}
		targets = append(targets, target{string(elective), slot})
	}
	targets = append(targets,
		target{string(domain.SubjectKorean), domain.SubjectKorean},
		target{string(domain.SubjectMath), domain.SubjectMath},
		target{string(domain.SubjectEnglish), domain.SubjectEnglish},
		target{string(domain.SubjectExercise), domain.SubjectExercise},
	)

	result := map[domain.Subject]int{}
	var claimed []span

	for _, tgt := range targets {
		pattern := regexp.MustCompile(regexp.QuoteMeta(tgt.name) + `\s*(\d+)\s*시간`)
		for _, match := range pattern.FindAllStringSubmatchIndex(message, -1) {
			s := span{match[0], match[1]}
			if overlaps(claimed, s) {
				continue
			}
			if _, taken := result[tgt.slot]; taken {
				continue
			}
			hours, err := strconv.Atoi(message[match[2]:match[3]])
			if err != nil || hours <= 0 {
				continue
			}
			claimed = append(claimed, s)
			result[tgt.slot] = hours
			break
		}
	}

	if len(result) == 0 {
		return nil, ErrNoEntries
	}
	total := 0
	for _, hours := range result {
		total += hours
	}
	if total > domain.MaxWeeklyHours {
		return nil, ErrHoursExceeded
	}
	return result, nil
}
