package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dhleesep9/gayoon/internal/game/catalog"
	"github.com/dhleesep9/gayoon/internal/game/progression"
	"github.com/dhleesep9/gayoon/internal/session/domain"
)

// DebugExecutor matches exact-string admin commands against the embedded
// command table and applies their actions.
type DebugExecutor struct {
	commands []catalog.DebugCommand
}

// NewDebugExecutor wraps a loaded command table.
func NewDebugExecutor(commands []catalog.DebugCommand) *DebugExecutor {
	return &DebugExecutor{commands: commands}
}

// Execute runs the command named by the message, if any. The boolean
// reports whether the message was a debug command at all; disabled or
// misplaced commands still count as handled.
func (e *DebugExecutor) Execute(sess *domain.Session, message string) (*TurnEffect, bool) {
	trimmed := strings.TrimSpace(message)
	for _, cmd := range e.commands {
		if trimmed != cmd.Command {
			continue
		}
		if !cmd.Enabled {
			return &TurnEffect{Reply: "비활성화된 명령이다.", SkipDialogue: true}, true
		}
		if cmd.RequiredState != "" && sess.State != cmd.RequiredState {
			return &TurnEffect{
				Reply:        fmt.Sprintf("이 명령은 %s 상태에서만 쓸 수 있다.", cmd.RequiredState),
				SkipDialogue: true,
			}, true
		}
		return e.apply(sess, cmd), true
	}
	return nil, false
}

func (e *DebugExecutor) apply(sess *domain.Session, cmd catalog.DebugCommand) *TurnEffect {
	vars := map[string]string{}
	switch cmd.Action {
	case "skip_weeks":
		weeks := paramInt(cmd.Params, "weeks", 1)
		bonus := CareerBonusFor(sess)
		for i := 0; i < weeks; i++ {
			progression.ApplyWeeklyStudy(sess, bonus, false)
			progression.AdvanceWeek(sess)
		}
		vars["week"] = strconv.Itoa(sess.CurrentWeek)
	case "increase_affection":
		delta := paramInt(cmd.Params, "delta", 0)
		old := sess.Affection
		sess.AddAffection(delta)
		vars["old_affection"] = strconv.Itoa(old)
		vars["new_affection"] = strconv.Itoa(sess.Affection)
	case "set_max_abilities":
		for _, subject := range domain.ExamSubjects() {
			sess.AddAbility(subject, domain.AbilityMax)
		}
	default:
		return &TurnEffect{
			Reply:        fmt.Sprintf("알 수 없는 디버그 액션: %s", cmd.Action),
			SkipDialogue: true,
		}
	}
	return &TurnEffect{Reply: renderMessage(cmd.SuccessMessage, vars), SkipDialogue: true}
}

func paramInt(params map[string]any, key string, fallback int) int {
	v, ok := params[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return fallback
	}
}

func renderMessage(template string, vars map[string]string) string {
	out := template
	for key, value := range vars {
		out = strings.ReplaceAll(out, "{"+key+"}", value)
	}
	return out
}
