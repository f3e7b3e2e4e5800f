// Package progression implements the deterministic study-progress
// economy: efficiency percentages derived from the stamina and mental
// gauges, weekly ability gain with career and strategy multipliers, and
// week advancement.
package progression

import (
	"math"
	"time"

	"github.com/dhleesep9/gayoon/internal/session/domain"
)

// CatchUpMultiplier boosts a single week's ability gain when the mentor
// closes the week explicitly ("멘토링 종료"), as a deliberate catch-up
// lever.
const CatchUpMultiplier = 10.0

// ExerciseStaminaPerHour converts scheduled exercise hours to stamina.
const ExerciseStaminaPerHour = 1

// WeeklyStaminaDecay is subtracted from stamina on every week advance.
const WeeklyStaminaDecay = 1

// StaminaEfficiencyPct returns the stamina contribution to study
// efficiency. Stamina 30 is the neutral baseline (100%).
func StaminaEfficiencyPct(stamina int) float64 {
	return 100 + float64(stamina-30)
}

// MentalEfficiencyPct returns the mental contribution to study
// efficiency. Mental 40 is the neutral baseline (100%).
func MentalEfficiencyPct(mental int) float64 {
	return 100 + float64(mental-40)
}

// CombinedEfficiencyPct multiplies the two gauge efficiencies into one
// percentage. At the baselines (30, 40) it is exactly 100.
func CombinedEfficiencyPct(stamina, mental int) float64 {
	return StaminaEfficiencyPct(stamina) * MentalEfficiencyPct(mental) / 100
}

// GainInput describes one subject's weekly study for gain computation.
type GainInput struct {
	Hours           int
	EfficiencyPct   float64
	CareerBonus     float64
	StrategyQuality domain.StrategyQuality
	CatchUp         bool
}

// WeeklyGain computes the ability points earned by one subject in one
// week. The career bonus only exceeds 1.0 when the mentee's career
// matches one of the elective picks; an absent strategy is neutral.
func WeeklyGain(input GainInput) float64 {
	if input.Hours <= 0 {
		return 0
	}
	careerBonus := input.CareerBonus
	if careerBonus <= 0 {
		careerBonus = 1.0
	}
	gain := float64(input.Hours) * input.EfficiencyPct / 100
	gain *= careerBonus
	gain *= input.StrategyQuality.GainMultiplier()
	if input.CatchUp {
		gain *= CatchUpMultiplier
	}
	return gain
}

// ApplyWeeklyStudy applies one week of the session's schedule: each
// scheduled subject earns ability (clamped at the ceiling) and exercise
// hours convert 1:1 into stamina.
func ApplyWeeklyStudy(sess *domain.Session, careerBonus func(domain.Subject) float64, catchUp bool) {
	efficiency := CombinedEfficiencyPct(sess.Stamina, sess.Mental)
	for subject, hours := range sess.Schedule {
		if subject == domain.SubjectExercise {
			sess.AddStamina(hours * ExerciseStaminaPerHour)
			continue
		}
		bonus := 1.0
		if careerBonus != nil {
			bonus = careerBonus(subject)
		}
		gain := WeeklyGain(GainInput{
			Hours:           hours,
			EfficiencyPct:   efficiency,
			CareerBonus:     bonus,
			StrategyQuality: sess.Strategies[subject].Quality,
			CatchUp:         catchUp,
		})
		sess.AddAbility(subject, int(math.Round(gain)))
	}
}

// AdvanceWeek moves the session forward one week: stamina decays by one
// (floor zero), the week counter increments, the calendar advances seven
// days, and the per-state conversation counter resets. It returns the
// date range crossed, exclusive of the old date, inclusive of the new.
func AdvanceWeek(sess *domain.Session) (from, to time.Time) {
	from = sess.GameDate
	sess.AddStamina(-WeeklyStaminaDecay)
	sess.CurrentWeek++
	sess.GameDate = sess.GameDate.AddDate(0, 0, 7)
	sess.ConversationCount = 0
	return from, sess.GameDate
}
