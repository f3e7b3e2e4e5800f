// Package state evaluates narrative state transitions. Global gauge
// transitions are checked first, then the current state's transitions in
// declaration order; the first matching predicate wins and the rest are
// skipped, keeping turn outcomes reproducible.
package state

import (
	"fmt"
	"strings"

	"github.com/dhleesep9/gayoon/internal/game/catalog"
	"github.com/dhleesep9/gayoon/internal/game/trigger"
	"github.com/dhleesep9/gayoon/internal/session/domain"
)

// Ending states reached by the global gauge transitions.
const (
	BurnoutEnding   = "burnout_ending"
	BreakdownEnding = "mental_breakdown_ending"
	AffectionEnding = "affection_ending"
)

// Result reports one turn's transition outcome.
type Result struct {
	Transitioned bool
	From         string
	To           string
	Narration    string
}

// Machine owns the immutable state definitions and the trigger registry.
type Machine struct {
	defs     map[string]catalog.StateDefinition
	triggers *trigger.Registry
}

// NewMachine validates the definitions and builds a machine. The three
// global ending states must exist in the catalog.
func NewMachine(defs []catalog.StateDefinition, triggers *trigger.Registry) (*Machine, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("state definitions are required")
	}
	if triggers == nil {
		return nil, fmt.Errorf("trigger registry is required")
	}
	byID := make(map[string]catalog.StateDefinition, len(defs))
	for _, def := range defs {
		byID[def.ID] = def
	}
	for _, ending := range []string{BurnoutEnding, BreakdownEnding, AffectionEnding} {
		if _, ok := byID[ending]; !ok {
			return nil, fmt.Errorf("ending state %q is not defined", ending)
		}
	}
	if _, ok := byID[domain.StartState]; !ok {
		return nil, fmt.Errorf("start state %q is not defined", domain.StartState)
	}
	return &Machine{defs: byID, triggers: triggers}, nil
}

// Definition returns a state definition by id.
func (m *Machine) Definition(id string) (catalog.StateDefinition, bool) {
	def, ok := m.defs[id]
	return def, ok
}

// DisplayName returns the state's display name, falling back to the id.
func (m *Machine) DisplayName(id string) string {
	if def, ok := m.defs[id]; ok && def.DisplayName != "" {
		return def.DisplayName
	}
	return id
}

// Terminal reports whether the state is an ending.
func (m *Machine) Terminal(id string) bool {
	def, ok := m.defs[id]
	return ok && def.Terminal
}

// EvaluateTurn applies the global transitions, then the current state's
// local transitions. On a win it mutates the session state and returns
// the combined narration: transition narration, blank line, new state's
// entry narration.
func (m *Machine) EvaluateTurn(sess *domain.Session, ctx trigger.Context) Result {
	if to, narration, ok := m.globalTransition(sess); ok {
		return m.apply(sess, to, narration)
	}

	def, ok := m.defs[sess.State]
	if !ok {
		// A session pointing at an unknown state stays put; the engine
		// logs this as a catalog/session mismatch.
		return Result{From: sess.State, To: sess.State}
	}
	for _, tr := range def.Transitions {
		if m.triggers.Evaluate(tr.Trigger, tr.Conditions, ctx) {
			return m.apply(sess, tr.Next, tr.Narration)
		}
	}
	return Result{From: sess.State, To: sess.State}
}

// Apply forces a transition to the target state, used for
// handler-directed transitions. Unknown targets are ignored.
func (m *Machine) Apply(sess *domain.Session, to string) Result {
	if _, ok := m.defs[to]; !ok {
		return Result{From: sess.State, To: sess.State}
	}
	return m.apply(sess, to, "")
}

func (m *Machine) globalTransition(sess *domain.Session) (to, narration string, ok bool) {
	if m.Terminal(sess.State) {
		return "", "", false
	}
	switch {
	case sess.Stamina <= 0:
		return BurnoutEnding, "가윤의 체력이 바닥났다.", true
	case sess.Mental <= 0:
		return BreakdownEnding, "가윤의 마음이 버티지 못했다.", true
	case sess.Affection >= domain.GaugeMax:
		return AffectionEnding, "", true
	default:
		return "", "", false
	}
}

func (m *Machine) apply(sess *domain.Session, to, transitionNarration string) Result {
	from := sess.State
	sess.State = to

	parts := make([]string, 0, 2)
	if s := strings.TrimSpace(transitionNarration); s != "" {
		parts = append(parts, s)
	}
	if def, ok := m.defs[to]; ok {
		if s := strings.TrimSpace(def.EntryNarration); s != "" {
			parts = append(parts, s)
		}
	}
	return Result{
		Transitioned: true,
		From:         from,
		To:           to,
		Narration:    strings.Join(parts, "\n\n"),
	}
}
