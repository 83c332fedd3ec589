package delivery

// Trigger is the outcome of one delivery attempt
type Trigger string

const (
	TriggerDelivered Trigger = "DELIVERED"
	TriggerFailed    Trigger = "FAILED"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
