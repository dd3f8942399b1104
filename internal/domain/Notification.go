package domain

type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Notification is a channel-agnostic message. Flex, when set, is a LINE flex
// container used instead of the plain text rendering.
type Notification struct {
	Title    string
	Message  string
	Priority Priority
	Metadata map[string]string
	Flex     map[string]any
}
