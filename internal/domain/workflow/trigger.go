package workflow

// Trigger represents an action that may move a line between states
type Trigger string

const (
	// TriggerApprove records a reviewer accepting the line
	TriggerApprove Trigger = "APPROVE"

	// TriggerReject records a reviewer declining the line
	TriggerReject Trigger = "REJECT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
