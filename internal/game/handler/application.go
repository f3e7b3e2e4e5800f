package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/dhleesep9/gayoon/internal/game/catalog"
	"github.com/dhleesep9/gayoon/internal/game/exam"
	"github.com/dhleesep9/gayoon/internal/session/domain"
)

// Admission fit tiers relative to a department's cutoff percentile.
const (
	admissionSafeMargin      = -0.5
	admissionModerateMargin  = -2.0
	admissionChallengeMargin = -5.0

	// admissionBorderlineChance is the pass probability when the average
	// percentile lands within half a point below the cutoff.
	admissionBorderlineChance = 0.5
	// admissionLongshotChance keeps a sliver of hope below that.
	admissionLongshotChance = 0.01
)

var admissionGroups = []catalog.AdmissionGroup{catalog.GroupGa, catalog.GroupNa, catalog.GroupDa}

// applicationHooks runs the admission round after the CSAT. Entry lists
// the departments worth applying to; with nothing reachable the year is
// over. The player files one application per admission group; once every
// group with a reachable target holds one, all of them are resolved at
// once and the player picks a school among those that admitted.
func applicationHooks(deps Deps) Hooks {
	return Hooks{
		OnEnter: func(_ context.Context, sess *domain.Session, _ string) (*TurnEffect, error) {
			avg := csatAveragePercentile(sess)
			eligible := eligibleTargets(avg)
			if len(eligible) == 0 {
				return &TurnEffect{TransitionTo: "samsu_ending", SkipDialogue: true}, nil
			}
			return &TurnEffect{
				Reply: fmt.Sprintf("\"평균 백분위가 %.1f이에요. 여기까지는 노려볼 만해요.\"\n%s\n\"군별로 하나씩 원서를 내요. 어디부터 쓸까요?\"",
					avg, formatTargets(avg, eligible)),
				SkipDialogue: true,
			}, nil
		},
		Handle: func(_ context.Context, sess *domain.Session, message string) (*TurnEffect, error) {
			if len(sess.AdmittedSchools) > 0 {
				return chooseAdmitted(sess, message)
			}
			avg := csatAveragePercentile(sess)

			target, ok := matchTarget(message)
			if !ok {
				return &TurnEffect{
					Reply:        "\"그 학교는 목록에 없어요. 위에서 하나 골라 주세요.\"",
					SkipDialogue: true,
				}, nil
			}
			if avg-target.CutoffPercentile < admissionChallengeMargin {
				return &TurnEffect{
					Reply:        fmt.Sprintf("\"%s는 지금 점수로는 무리예요. 목록에 있는 곳으로 쓰죠.\"", target.University),
					SkipDialogue: true,
				}, nil
			}
			if sess.Applications == nil {
				sess.Applications = map[string]string{}
			}
			sess.Applications[string(target.Group)] = target.University

			if missing := missingGroups(sess, avg); len(missing) > 0 {
				return &TurnEffect{
					Reply: fmt.Sprintf("\"[%s] %s %s, 접수했어요. %s도 골라야 해요.\"",
						target.Group, target.University, target.Department, joinGroups(missing)),
					SkipDialogue: true,
				}, nil
			}
			return resolveApplications(sess, avg, deps.Rand)
		},
	}
}

// resolveApplications rolls every filed application and either ends the
// year or opens the enrollment choice.
func resolveApplications(sess *domain.Session, avg float64, random func() float64) (*TurnEffect, error) {
	var results []string
	var admittedNames []string
	for _, group := range admissionGroups {
		university, ok := sess.Applications[string(group)]
		if !ok {
			continue
		}
		target, found := targetByUniversity(university)
		if !found {
			continue
		}
		if admitted(avg, target, random) {
			admittedNames = append(admittedNames, target.University)
			results = append(results, fmt.Sprintf("[%s] %s %s — 합격", group, target.University, target.Department))
		} else {
			results = append(results, fmt.Sprintf("[%s] %s %s — 불합격", group, target.University, target.Department))
		}
	}

	narration := "발표 날. 가윤과 함께 결과를 하나씩 확인했다.\n" + strings.Join(results, "\n")
	if len(admittedNames) == 0 {
		return &TurnEffect{
			Narration:    narration,
			TransitionTo: "admission_fail_ending",
			SkipDialogue: true,
		}, nil
	}
	sess.AdmittedSchools = admittedNames
	return &TurnEffect{
		Narration:    narration,
		Reply:        fmt.Sprintf("\"붙은 데가 있어요! %s 중에 어디로 등록할까요?\"", strings.Join(admittedNames, ", ")),
		SkipDialogue: true,
	}, nil
}

// chooseAdmitted resolves the enrollment pick among the schools that
// accepted.
func chooseAdmitted(sess *domain.Session, message string) (*TurnEffect, error) {
	for _, university := range sess.AdmittedSchools {
		if !strings.Contains(message, university) {
			if target, ok := targetByUniversity(university); !ok || !strings.Contains(message, target.Department) {
				continue
			}
		}
		return &TurnEffect{
			Narration:    fmt.Sprintf("가윤은 %s에 등록했다.", university),
			TransitionTo: "admission_success_ending",
			SkipDialogue: true,
		}, nil
	}
	return &TurnEffect{
		Reply:        fmt.Sprintf("\"등록은 붙은 곳 중에서만요. %s 중에 골라 주세요.\"", strings.Join(sess.AdmittedSchools, ", ")),
		SkipDialogue: true,
	}, nil
}

// csatAveragePercentile reads the final scores recorded by the CSAT
// state.
func csatAveragePercentile(sess *domain.Session) float64 {
	tracker := sess.ExamProgress[domain.CycleCSAT]
	if tracker == nil {
		return 0
	}
	return exam.AveragePercentile(tracker.Scores)
}

// eligibleTargets returns the departments within the challenge margin,
// in catalog order (grouped 가군, 나군, 다군).
func eligibleTargets(avgPercentile float64) []catalog.UniversityTarget {
	var out []catalog.UniversityTarget
	for _, target := range catalog.Universities() {
		if avgPercentile-target.CutoffPercentile >= admissionChallengeMargin {
			out = append(out, target)
		}
	}
	return out
}

// missingGroups lists the admission groups that still need an
// application: groups with at least one reachable target and no filed
// choice yet.
func missingGroups(sess *domain.Session, avgPercentile float64) []catalog.AdmissionGroup {
	reachable := map[catalog.AdmissionGroup]bool{}
	for _, target := range eligibleTargets(avgPercentile) {
		reachable[target.Group] = true
	}
	var missing []catalog.AdmissionGroup
	for _, group := range admissionGroups {
		if !reachable[group] {
			continue
		}
		if _, ok := sess.Applications[string(group)]; !ok {
			missing = append(missing, group)
		}
	}
	return missing
}

func joinGroups(groups []catalog.AdmissionGroup) string {
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = string(g)
	}
	return strings.Join(names, ", ")
}

func fitLabel(avgPercentile float64, target catalog.UniversityTarget) string {
	switch margin := avgPercentile - target.CutoffPercentile; {
	case margin >= admissionSafeMargin:
		return "안정"
	case margin >= admissionModerateMargin:
		return "적정"
	default:
		return "상향"
	}
}

func formatTargets(avgPercentile float64, targets []catalog.UniversityTarget) string {
	var b strings.Builder
	for i, target := range targets {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%s] %s %s (%s)", target.Group, target.University, target.Department,
			fitLabel(avgPercentile, target))
	}
	return b.String()
}

// matchTarget finds the admission-table row named in the message. The
// university name alone is enough; each has a single listed department.
func matchTarget(message string) (catalog.UniversityTarget, bool) {
	for _, target := range catalog.Universities() {
		if strings.Contains(message, target.University) || strings.Contains(message, target.Department) {
			return target, true
		}
	}
	return catalog.UniversityTarget{}, false
}

func targetByUniversity(university string) (catalog.UniversityTarget, bool) {
	for _, target := range catalog.Universities() {
		if target.University == university {
			return target, true
		}
	}
	return catalog.UniversityTarget{}, false
}

// admitted resolves one application. At or above the cutoff the pass is
// certain; just below it becomes a coin flip; further below only a
// longshot remains.
func admitted(avgPercentile float64, target catalog.UniversityTarget, random func() float64) bool {
	margin := avgPercentile - target.CutoffPercentile
	switch {
	case margin >= 0:
		return true
	case margin >= admissionSafeMargin:
		return random() < admissionBorderlineChance
	default:
		return random() < admissionLongshotChance
	}
}
