package workflow

import (
	"context"
	"fmt"
	"sort"
)

// GuardFunc decides whether a configured transition may fire.
type GuardFunc func(ctx context.Context) bool

// transition is one permitted edge out of a state.
type transition struct {
	to    State
	guard GuardFunc
}

// Builder accumulates the transition table for a machine. Configure each
// state, then Build one machine per entity at its current state.
type Builder struct {
	transitions map[State]map[Trigger][]transition
}

// NewBuilder creates an empty machine builder.
func NewBuilder() *Builder {
	return &Builder{transitions: make(map[State]map[Trigger][]transition)}
}

// StateConfig configures the outgoing transitions of a single state.
type StateConfig struct {
	builder *Builder
	from    State
}

// Configure returns the configuration for the given state, creating it on
// first use.
func (b *Builder) Configure(state State) *StateConfig {
	if _, ok := b.transitions[state]; !ok {
		b.transitions[state] = make(map[Trigger][]transition)
	}
	return &StateConfig{builder: b, from: state}
}

// Permit allows trigger to move this state to the target state.
func (c *StateConfig) Permit(trigger Trigger, to State) *StateConfig {
	return c.PermitIf(trigger, to, nil)
}

// PermitIf allows trigger to move this state to the target state when the
// guard passes. Multiple transitions for the same trigger are tried in
// registration order.
func (c *StateConfig) PermitIf(trigger Trigger, to State, guard GuardFunc) *StateConfig {
	edges := c.builder.transitions[c.from]
	edges[trigger] = append(edges[trigger], transition{to: to, guard: guard})
	return c
}

// Build creates a machine positioned at the given state. The state must
// have been configured, or be a pure terminal target of a configured edge.
func (b *Builder) Build(current State) (*Machine, error) {
	if _, ok := b.transitions[current]; !ok && !b.isTarget(current) {
		return nil, fmt.Errorf("%w: unknown state %q", ErrInvalidState, current)
	}
	return &Machine{current: current, transitions: b.transitions}, nil
}

// isTarget reports whether the state appears as the target of any edge.
func (b *Builder) isTarget(state State) bool {
	for _, edges := range b.transitions {
		for _, ts := range edges {
			for _, t := range ts {
				if t.to == state {
					return true
				}
			}
		}
	}
	return false
}

// Machine tracks an entity's current state and validates transitions
// against the builder's table. It holds no persistence; callers apply the
// resulting state with a compare-and-swap on the stored row.
type Machine struct {
	current     State
	transitions map[State]map[Trigger][]transition
}

// State returns the current state.
func (m *Machine) State() State {
	return m.current
}

// Terminal returns true when no trigger can fire from the current state.
func (m *Machine) Terminal() bool {
	return len(m.transitions[m.current]) == 0
}

// CanFire returns true if the trigger has at least one edge out of the
// current state. Guards are not evaluated here.
func (m *Machine) CanFire(trigger Trigger) bool {
	return len(m.transitions[m.current][trigger]) > 0
}

// Fire executes the trigger, advancing to the first permitted target whose
// guard passes. It returns ErrInvalidState when the current state has no
// edge for the trigger, and ErrForbidden when every guard refuses.
func (m *Machine) Fire(ctx context.Context, trigger Trigger) (State, error) {
	edges := m.transitions[m.current][trigger]
	if len(edges) == 0 {
		return m.current, fmt.Errorf("%w: cannot %s from %s", ErrInvalidState, trigger, m.current)
	}

	for _, t := range edges {
		if t.guard == nil || t.guard(ctx) {
			m.current = t.to
			return m.current, nil
		}
	}

	return m.current, fmt.Errorf("%w: %s from %s", ErrForbidden, trigger, m.current)
}

// PermittedTriggers returns the triggers that have edges out of the current
// state, sorted for stable output.
func (m *Machine) PermittedTriggers() []Trigger {
	edges := m.transitions[m.current]
	triggers := make([]Trigger, 0, len(edges))
	for trigger := range edges {
		triggers = append(triggers, trigger)
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })
	return triggers
}
