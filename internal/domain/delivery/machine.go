package delivery

import (
	"context"
	"fmt"
)

// GuardFunc decides whether a transition applies
type GuardFunc func(ctx context.Context) bool

type transition struct {
	toState State
	guard   GuardFunc
}

// Machine tracks the delivery state of one entry. Transitions for a trigger
// are tried in the order they were permitted; the first passing guard wins.
type Machine struct {
	current     State
	transitions map[State]map[Trigger][]transition
}

// NewMachine creates a machine in the given state
func NewMachine(initial State) (*Machine, error) {
	if !initial.IsValid() {
		return nil, fmt.Errorf("invalid initial state: %s", initial)
	}
	return &Machine{
		current:     initial,
		transitions: make(map[State]map[Trigger][]transition),
	}, nil
}

// Permit allows trigger to move from one state to another
func (m *Machine) Permit(from State, trigger Trigger, to State) *Machine {
	return m.PermitIf(from, trigger, to, nil)
}

// PermitIf allows trigger to move from one state to another when guard passes
func (m *Machine) PermitIf(from State, trigger Trigger, to State, guard GuardFunc) *Machine {
	if !from.IsValid() || !to.IsValid() {
		panic(fmt.Sprintf("invalid transition %s -> %s", from, to))
	}
	byTrigger, ok := m.transitions[from]
	if !ok {
		byTrigger = make(map[Trigger][]transition)
		m.transitions[from] = byTrigger
	}
	byTrigger[trigger] = append(byTrigger[trigger], transition{toState: to, guard: guard})
	return m
}

// State returns the current state
func (m *Machine) State() State {
	return m.current
}

// Fire applies trigger, moving to the first target whose guard passes
func (m *Machine) Fire(ctx context.Context, trigger Trigger) error {
	candidates := m.transitions[m.current][trigger]
	if len(candidates) == 0 {
		return fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.current)
	}

	for _, t := range candidates {
		if t.guard == nil || t.guard(ctx) {
			m.current = t.toState
			return nil
		}
	}

	return fmt.Errorf("%w: %s from %s", ErrGuardFailed, trigger, m.current)
}
