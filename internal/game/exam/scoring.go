// Package exam converts ability scores into percentiles and grades,
// tracks the fixed exam calendar, and analyzes results for the feedback
// loops.
package exam

import (
	"math"

	"github.com/dhleesep9/gayoon/internal/session/domain"
)

// Percentile converts an ability score to a percentile: min(100, 2√ability).
// It is non-decreasing, 0 at ability 0, and 100 at the ability ceiling.
func Percentile(ability int) float64 {
	if ability <= 0 {
		return 0
	}
	p := 2 * math.Sqrt(float64(ability))
	if p > 100 {
		return 100
	}
	return p
}

// Grade maps a percentile to the 1-9 grade bands (1 is best). Bounds are
// inclusive lower bounds.
func Grade(percentile float64) int {
	switch {
	case percentile >= 96:
		return 1
	case percentile >= 89:
		return 2
	case percentile >= 77:
		return 3
	case percentile >= 60:
		return 4
	case percentile >= 40:
		return 5
	case percentile >= 23:
		return 6
	case percentile >= 11:
		return 7
	case percentile >= 4:
		return 8
	default:
		return 9
	}
}

// Score converts one subject's ability into a full result, inflating the
// ability by (1+bonus) when an exam strategy applies. The bonus is
// clamped to [0, 0.2].
func Score(ability int, strategyBonus float64) domain.SubjectScore {
	if strategyBonus < 0 {
		strategyBonus = 0
	}
	if strategyBonus > 0.2 {
		strategyBonus = 0.2
	}
	effective := int(math.Round(float64(ability) * (1 + strategyBonus)))
	percentile := Percentile(effective)
	return domain.SubjectScore{
		Ability:    ability,
		Percentile: percentile,
		Grade:      Grade(percentile),
	}
}

// ScoreAll scores every exam subject of a session.
func ScoreAll(sess *domain.Session) map[domain.Subject]domain.SubjectScore {
	scores := make(map[domain.Subject]domain.SubjectScore, len(domain.ExamSubjects()))
	for _, subject := range domain.ExamSubjects() {
		scores[subject] = Score(sess.Abilities[subject], sess.Strategies[subject].Quality.ScoreBonus())
	}
	return scores
}

// WeakSubject returns the subject with the numerically highest (worst)
// grade, breaking ties by subject order.
func WeakSubject(scores map[domain.Subject]domain.SubjectScore) domain.Subject {
	var weakest domain.Subject
	worst := 0
	for _, subject := range domain.ExamSubjects() {
		score, ok := scores[subject]
		if !ok {
			continue
		}
		if score.Grade > worst {
			worst = score.Grade
			weakest = subject
		}
	}
	return weakest
}

// AverageGrade returns the arithmetic mean of the grades, rounded to one
// decimal place. Zero when no scores exist.
func AverageGrade(scores map[domain.Subject]domain.SubjectScore) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	count := 0
	for _, subject := range domain.ExamSubjects() {
		score, ok := scores[subject]
		if !ok {
			continue
		}
		sum += score.Grade
		count++
	}
	if count == 0 {
		return 0
	}
	return math.Round(float64(sum)/float64(count)*10) / 10
}

// AveragePercentile returns the mean percentile across scored subjects.
func AveragePercentile(scores map[domain.Subject]domain.SubjectScore) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	count := 0
	for _, subject := range domain.ExamSubjects() {
		score, ok := scores[subject]
		if !ok {
			continue
		}
		sum += score.Percentile
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
