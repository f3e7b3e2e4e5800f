// Package trigger holds the named boolean predicates the state machine
// evaluates against transitions. Predicates are pure: they read the
// session and turn context and never mutate either. Registration is
// explicit at startup; there is no discovery.
package trigger

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/dhleesep9/gayoon/internal/session/domain"
)

// Context is the read-only turn context a predicate sees.
type Context struct {
	UserID         string
	Message        string
	AffectionDelta int
	State          string
	// ExamMonths lists the exam-calendar months crossed by a week
	// advance during this turn, usually empty or a single month.
	ExamMonths []time.Month
	Session    *domain.Session
}

// Func is a predicate over a transition's conditions and the turn
// context. Errors are treated as false by the registry.
type Func func(conditions map[string]any, ctx Context) (bool, error)

// Registry maps trigger names to predicates. It is read-only after
// startup and safe for concurrent evaluation.
type Registry struct {
	predicates map[string]Func
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{predicates: map[string]Func{}}
}

// Register binds a predicate to a name, replacing any previous binding.
func (r *Registry) Register(name string, fn Func) error {
	if name == "" {
		return fmt.Errorf("trigger name is required")
	}
	if fn == nil {
		return fmt.Errorf("trigger %q: predicate is required", name)
	}
	r.predicates[name] = fn
	return nil
}

// Has reports whether a predicate is registered under the name.
func (r *Registry) Has(name string) bool {
	_, ok := r.predicates[name]
	return ok
}

// List returns the registered trigger names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.predicates))
	for name := range r.predicates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Evaluate runs the named predicate. A missing name or a predicate error
// is logged and reported as false; a turn must never crash on a
// misspelled or failing trigger.
func (r *Registry) Evaluate(name string, conditions map[string]any, ctx Context) bool {
	fn, ok := r.predicates[name]
	if !ok {
		log.Printf("trigger %q is not registered; treating as false", name)
		return false
	}
	matched, err := fn(conditions, ctx)
	if err != nil {
		log.Printf("trigger %q failed: %v; treating as false", name, err)
		return false
	}
	return matched
}
