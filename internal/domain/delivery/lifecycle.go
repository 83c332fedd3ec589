package delivery

import "context"

// ForEntry builds the delivery machine for an entry that has already been
// attempted `attempts` times. A failed attempt that reaches maxAttempts is
// dead-lettered.
func ForEntry(status string, attempts, maxAttempts int) (*Machine, error) {
	m, err := NewMachine(State(status))
	if err != nil {
		return nil, err
	}

	exhausted := func(context.Context) bool { return attempts+1 >= maxAttempts }

	for _, from := range []State{StatePending, StateFailed} {
		m.Permit(from, TriggerDelivered, StateSent)
		m.PermitIf(from, TriggerFailed, StateDead, exhausted)
		m.Permit(from, TriggerFailed, StateFailed)
	}
	return m, nil
}

// Next returns the state an entry moves to after one attempt
func Next(ctx context.Context, status string, attempts, maxAttempts int, delivered bool) (State, error) {
	m, err := ForEntry(status, attempts, maxAttempts)
	if err != nil {
		return "", err
	}
	trigger := TriggerFailed
	if delivered {
		trigger = TriggerDelivered
	}
	if err := m.Fire(ctx, trigger); err != nil {
		return "", err
	}
	return m.State(), nil
}
