package delivery

import "github.com/garyjia/tour-confirmation/internal/domain/entity"

// State is the delivery status of an outbox entry
type State string

const (
	StatePending State = entity.OutboxStatusPending
	StateSent    State = entity.OutboxStatusSent
	StateFailed  State = entity.OutboxStatusFailed
	StateDead    State = entity.OutboxStatusDead
)

var validStates = map[State]bool{
	StatePending: true,
	StateSent:    true,
	StateFailed:  true,
	StateDead:    true,
}

var terminalStates = map[State]bool{
	StateSent: true,
	StateDead: true,
}

// IsTerminal returns true if the entry will never be claimed again
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known delivery status
func (s State) IsValid() bool {
	return validStates[s]
}
