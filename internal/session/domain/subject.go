package domain

// Subject identifies one study subject tracked by the progression
// economy. The two elective slots (탐구1/탐구2) are fixed; the player's
// elective picks map onto them by pick order.
type Subject string

const (
	SubjectKorean    Subject = "국어"
	SubjectMath      Subject = "수학"
	SubjectEnglish   Subject = "영어"
	SubjectElective1 Subject = "탐구1"
	SubjectElective2 Subject = "탐구2"

	// SubjectExercise is schedulable but feeds stamina instead of an
	// ability score.
	SubjectExercise Subject = "운동"
)

// ExamSubjects lists the five scored subjects in presentation order.
func ExamSubjects() []Subject {
	return []Subject{SubjectKorean, SubjectMath, SubjectEnglish, SubjectElective1, SubjectElective2}
}

// StrategyQuality is the judged tier of an exam strategy for one subject.
type StrategyQuality string

const (
	StrategyVeryGood StrategyQuality = "VERY_GOOD"
	StrategyGood     StrategyQuality = "GOOD"
	StrategyPoor     StrategyQuality = "POOR"
)

// GainMultiplier returns the weekly ability-gain multiplier for the tier.
// An absent or unrecognized tier is neutral.
func (q StrategyQuality) GainMultiplier() float64 {
	switch q {
	case StrategyVeryGood:
		return 1.5
	case StrategyGood:
		return 1.05
	default:
		return 1.0
	}
}

// ScoreBonus returns the ability inflation applied when scoring an exam,
// in [0, 0.2].
func (q StrategyQuality) ScoreBonus() float64 {
	switch q {
	case StrategyVeryGood:
		return 0.2
	case StrategyGood:
		return 0.1
	default:
		return 0
	}
}

// Strategy records a judged exam strategy for one subject.
type Strategy struct {
	Text    string
	Quality StrategyQuality
}
